// Package traits defines the closed trait vocabularies of the monster
// collection and the classification of raw metadata strings into them.
//
// Matching is deliberately forgiving about formatting: a raw value matches a
// member when it equals the canonical label or the lowercased, space-stripped
// form of it ("Baby Unichick", "baby unichick" and "babyunichick" are all the
// same member). Anything outside the closed set is an UnknownTraitError;
// callers decide whether that is fatal.
//
// Tier membership (which members count as rare, super rare, ...) is a
// game-balance judgment, not something derivable from the data. The tier
// tables below are versioned by hand and referenced by name from the rule
// configuration.
package traits

import (
	"fmt"
	"strings"
)

// Category names a trait dimension for classification and error reporting.
type Category string

const (
	CategoryType  Category = "Type"
	CategoryColor Category = "Color"
	CategoryHorn  Category = "Horn"
)

// UnknownTraitError reports a raw value that belongs to no member of a
// closed trait enumeration.
type UnknownTraitError struct {
	Category Category
	Value    string
}

func (e UnknownTraitError) Error() string {
	return fmt.Sprintf("unknown %s trait: %q", e.Category, e.Value)
}

// Type is a monster form. Baby variants are distinct members.
type Type string

const (
	TypeUnidragon Type = "Unidragon"
	TypeUniaqua   Type = "Uniaqua"
	TypeUnibranch Type = "Unibranch"
	TypeUniturtle Type = "Uniturtle"
	TypeUnikles   Type = "Unikles"
	TypeUniair    Type = "Uniair"
	TypeUnichick  Type = "Unichick"
	TypeUnifairy  Type = "Unifairy"
	TypeUnisheep  Type = "Unisheep"
	TypeUnidonkey Type = "Unidonkey"

	TypeBabyUnidragon Type = "Baby Unidragon"
	TypeBabyUniaqua   Type = "Baby Uniaqua"
	TypeBabyUnibranch Type = "Baby Unibranch"
	TypeBabyUniturtle Type = "Baby Uniturtle"
	TypeBabyUnikles   Type = "Baby Unikles"
	TypeBabyUniair    Type = "Baby Uniair"
	TypeBabyUnichick  Type = "Baby Unichick"
	TypeBabyUnifairy  Type = "Baby Unifairy"
	TypeBabyUnisheep  Type = "Baby Unisheep"
	TypeBabyUnidonkey Type = "Baby Unidonkey"
)

// Color is a monster body color.
type Color string

const (
	ColorBlue   Color = "Blue"
	ColorGreen  Color = "Green"
	ColorRed    Color = "Red"
	ColorPurple Color = "Purple"
	ColorYellow Color = "Yellow"
	ColorBlack  Color = "Black"
)

// Horn is a horn style.
type Horn string

const (
	HornBabyHorn     Horn = "Baby Horn"
	HornSpiralHorn   Horn = "Spiral Horn"
	HornCandyCane    Horn = "Candy Cane"
	HornShadowBranch Horn = "Shadow Branch"
	HornGoldenHorn   Horn = "Golden Horn"
	HornIceWalker    Horn = "Ice Walker"
	HornDragonClaw   Horn = "Dragon Claw"
	HornSilverClaw   Horn = "Silver Claw"
	HornIvoryFang    Horn = "Ivory Fang"
	HornWickedSpear  Horn = "Wicked Spear"
	HornDiamondSpear Horn = "Diamond Spear"
)

// Glitter is the two-member glitter trait.
type Glitter string

const (
	GlitterYes Glitter = "Yes"
	GlitterNo  Glitter = "No"
)

var allTypes = []Type{
	TypeUnidragon, TypeUniaqua, TypeUnibranch, TypeUniturtle, TypeUnikles,
	TypeUniair, TypeUnichick, TypeUnifairy, TypeUnisheep, TypeUnidonkey,
	TypeBabyUnidragon, TypeBabyUniaqua, TypeBabyUnibranch, TypeBabyUniturtle,
	TypeBabyUnikles, TypeBabyUniair, TypeBabyUnichick, TypeBabyUnifairy,
	TypeBabyUnisheep, TypeBabyUnidonkey,
}

var allColors = []Color{
	ColorBlue, ColorGreen, ColorRed, ColorPurple, ColorYellow, ColorBlack,
}

var allHorns = []Horn{
	HornBabyHorn, HornSpiralHorn, HornCandyCane, HornShadowBranch,
	HornGoldenHorn, HornIceWalker, HornDragonClaw, HornSilverClaw,
	HornIvoryFang, HornWickedSpear, HornDiamondSpear,
}

var (
	typeByKey  = make(map[string]Type, 2*len(allTypes))
	colorByKey = make(map[string]Color, 2*len(allColors))
	hornByKey  = make(map[string]Horn, 2*len(allHorns))
)

func init() {
	for _, t := range allTypes {
		typeByKey[string(t)] = t
		typeByKey[aliasKey(string(t))] = t
	}
	for _, c := range allColors {
		colorByKey[string(c)] = c
		colorByKey[aliasKey(string(c))] = c
	}
	for _, h := range allHorns {
		hornByKey[string(h)] = h
		hornByKey[aliasKey(string(h))] = h
	}
}

// aliasKey lowercases and strips spaces, the tolerant matching form.
func aliasKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

// ParseType classifies a raw metadata value into a Type member.
func ParseType(raw string) (Type, error) {
	if t, ok := typeByKey[raw]; ok {
		return t, nil
	}
	if t, ok := typeByKey[aliasKey(raw)]; ok {
		return t, nil
	}
	return "", UnknownTraitError{Category: CategoryType, Value: raw}
}

// ParseColor classifies a raw metadata value into a Color member.
func ParseColor(raw string) (Color, error) {
	if c, ok := colorByKey[raw]; ok {
		return c, nil
	}
	if c, ok := colorByKey[aliasKey(raw)]; ok {
		return c, nil
	}
	return "", UnknownTraitError{Category: CategoryColor, Value: raw}
}

// ParseHorn classifies a raw metadata value into a Horn member.
func ParseHorn(raw string) (Horn, error) {
	if h, ok := hornByKey[raw]; ok {
		return h, nil
	}
	if h, ok := hornByKey[aliasKey(raw)]; ok {
		return h, nil
	}
	return "", UnknownTraitError{Category: CategoryHorn, Value: raw}
}

// ParseGlitter is deliberately permissive: provider payloads have carried the
// glitter trait both as "Yes"/"No" strings and as booleans rendered to text.
// Anything containing "yes" (case-insensitive) or equal to "true" is
// GlitterYes; everything else, including the empty string, is GlitterNo.
func ParseGlitter(raw string) Glitter {
	k := aliasKey(raw)
	if k == "true" || strings.Contains(k, "yes") {
		return GlitterYes
	}
	return GlitterNo
}

// GlitterFromBool converts the canonical boolean form back to the enum.
func GlitterFromBool(b bool) Glitter {
	if b {
		return GlitterYes
	}
	return GlitterNo
}

// Bool reports whether the glitter trait is set.
func (g Glitter) Bool() bool { return g == GlitterYes }

// IsBaby reports whether the horn is the common baby horn, which carries an
// independent sub-roll bonus in scoring.
func (h Horn) IsBaby() bool { return h == HornBabyHorn }
