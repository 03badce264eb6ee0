package metadata

import (
	"fmt"
	"strconv"
	"time"

	"github.com/monsterwatch/scvfeed/internal/models"
	"github.com/monsterwatch/scvfeed/internal/traits"
)

// MissingFieldError reports a required attribute trait absent from the
// provider payload for one token. Probabilities are not required fields;
// their absence degrades to the zero placeholder instead.
type MissingFieldError struct {
	Field string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("required metadata field missing: %s", e.Field)
}

// Trait names as they appear in the provider's attribute array.
const (
	traitBirthday = "Birthday"
	traitType     = "Type"
	traitHorn     = "Horn"
	traitColor    = "Color"
	traitGlitter  = "Glitter"
	traitSpecial  = "Special"
)

// Probability keys in the initialProbabilities map.
var rarityKeys = []string{"horn", "color", "background", "glitter", "type"}

// Normalizer turns raw provider payloads into normalized records. The
// birthday timezone and layout are versioned configuration: the provider's
// raw value is a Unix timestamp and historical revisions rendered it in
// different zones, so the zone is fixed once here, never drifting silently.
type Normalizer struct {
	loc    *time.Location
	layout string
}

// NewNormalizer resolves the configured birthday timezone (IANA name) and
// output layout (Go reference layout).
func NewNormalizer(timezone, layout string) (*Normalizer, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid birthday timezone %q: %w", timezone, err)
	}
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}
	return &Normalizer{loc: loc, layout: layout}, nil
}

// Normalize derives the attribute and probability records from one payload.
// A required trait that is absent yields a MissingFieldError; absent or
// incomplete probabilities yield the all-zero placeholder record.
func (n *Normalizer) Normalize(raw *models.RawMetadata) (models.Attributes, models.Rarity, error) {
	byName := make(map[string]any, len(raw.Attributes))
	for _, attr := range raw.Attributes {
		// Last write wins on duplicate trait names.
		byName[attr.TraitType] = attr.Value
	}

	var attrs models.Attributes
	for _, required := range []string{traitBirthday, traitType, traitHorn, traitColor, traitGlitter, traitSpecial} {
		if _, ok := byName[required]; !ok {
			return models.Attributes{}, models.Rarity{}, MissingFieldError{Field: required}
		}
	}

	birthday, err := n.formatBirthday(byName[traitBirthday])
	if err != nil {
		return models.Attributes{}, models.Rarity{}, err
	}

	glitterRaw := asString(byName[traitGlitter])
	attrs = models.Attributes{
		Birthday:   birthday,
		Type:       asString(byName[traitType]),
		Horn:       asString(byName[traitHorn]),
		Color:      asString(byName[traitColor]),
		Glitter:    traits.ParseGlitter(glitterRaw).Bool(),
		GlitterRaw: glitterRaw,
		Special:    asString(byName[traitSpecial]) == "Yes",
	}

	return attrs, n.probabilities(raw), nil
}

// probabilities reads the five named floats. When the map or any key is
// absent the token is a legacy item the scoring model does not support;
// the zero record makes the scorer emit 0 instead of blowing up.
func (n *Normalizer) probabilities(raw *models.RawMetadata) models.Rarity {
	if raw.InitialProbabilities == nil {
		return models.Rarity{}
	}
	for _, key := range rarityKeys {
		if _, ok := raw.InitialProbabilities[key]; !ok {
			return models.Rarity{}
		}
	}
	return models.Rarity{
		Horn:       raw.InitialProbabilities["horn"],
		Color:      raw.InitialProbabilities["color"],
		Background: raw.InitialProbabilities["background"],
		Glitter:    raw.InitialProbabilities["glitter"],
		Type:       raw.InitialProbabilities["type"],
	}
}

func (n *Normalizer) formatBirthday(v any) (string, error) {
	secs, ok := asUnixSeconds(v)
	if !ok {
		return "", MissingFieldError{Field: traitBirthday}
	}
	return time.Unix(secs, 0).In(n.loc).Format(n.layout), nil
}

// asUnixSeconds accepts the JSON number forms a timestamp can decode into.
func asUnixSeconds(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int64:
		return t, true
	case int:
		return int64(t), true
	case string:
		secs, err := strconv.ParseInt(t, 10, 64)
		return secs, err == nil
	default:
		return 0, false
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
