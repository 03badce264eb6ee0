package traits

// Tier tables. These encode rarity judgment calls about the collection and
// change only with an explicit revision, never implicitly from observed data.

var (
	RareTypes      = []Type{TypeUniturtle, TypeUniair, TypeUnikles, TypeUnibranch}
	SuperRareTypes = []Type{TypeUnidragon, TypeUniaqua}
	BabyTypes      = []Type{
		TypeBabyUnidragon, TypeBabyUniaqua, TypeBabyUnibranch, TypeBabyUniturtle,
		TypeBabyUnikles, TypeBabyUniair, TypeBabyUnichick, TypeBabyUnifairy,
		TypeBabyUnisheep, TypeBabyUnidonkey,
	}
	BabySuperRareTypes = []Type{TypeBabyUniaqua, TypeBabyUnibranch, TypeBabyUnichick, TypeBabyUnifairy}

	RareColors      = []Color{ColorYellow}
	SuperRareColors = []Color{ColorBlack, ColorPurple}
	BlackColors     = []Color{ColorBlack}

	RareHorns      = []Horn{HornDiamondSpear, HornWickedSpear, HornIvoryFang, HornDragonClaw, HornSilverClaw}
	SuperRareHorns = []Horn{HornWickedSpear, HornIvoryFang}
	DiamondHorns   = []Horn{HornDiamondSpear}
)

// Named tier registries bind the rule configuration vocabulary to the tables
// above. Rule config refers to tiers by these keys, never by raw labels.

var TypeTiers = map[string][]Type{
	"rare":            RareTypes,
	"super_rare":      SuperRareTypes,
	"baby":            BabyTypes,
	"baby_super_rare": BabySuperRareTypes,
}

var ColorTiers = map[string][]Color{
	"rare":       RareColors,
	"super_rare": SuperRareColors,
	"black":      BlackColors,
}

var HornTiers = map[string][]Horn{
	"rare":       RareHorns,
	"super_rare": SuperRareHorns,
	"diamond":    DiamondHorns,
}
