package models

import (
	"errors"
	"fmt"
)

// RawMetadata is the provider payload for one token, fetched once per token
// ID and treated as immutable. Attribute values arrive as mixed JSON types
// (strings for traits, numbers for Birthday and Booster), hence the any.
type RawMetadata struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	Image                string             `json:"image"`
	Attributes           []RawAttribute     `json:"attributes"`
	InitialProbabilities map[string]float64 `json:"initialProbabilities"`
}

// RawAttribute is one trait-name/value pair from the provider payload.
type RawAttribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// Attributes is the normalized per-token trait record. Type, Horn and Color
// stay raw strings for display; classification into the closed enumerations
// happens in the traits package at rule-evaluation time.
type Attributes struct {
	Birthday   string `json:"birthday"`
	Type       string `json:"type"`
	Horn       string `json:"horn"`
	Color      string `json:"color"`
	Glitter    bool   `json:"glitter"`
	GlitterRaw string `json:"glitter_raw"` // provider's literal value, display only
	Special    bool   `json:"special"`
}

// Rarity holds the population frequency of this token's value for each trait
// dimension. Each field is in (0,1] for a scorable token. An all-zero record
// is the defined placeholder for legacy items whose payload carries no
// probabilities; the scorer maps it to score 0 instead of dividing by it.
type Rarity struct {
	Horn       float64 `json:"horn"`
	Color      float64 `json:"color"`
	Background float64 `json:"background"`
	Glitter    float64 `json:"glitter"`
	Type       float64 `json:"type"`
}

// Validate checks that every probability is within [0,1]. Zero is permitted
// only because of the legacy placeholder record; see Supported.
func (r *Rarity) Validate() error {
	for name, v := range map[string]float64{
		"horn": r.Horn, "color": r.Color, "background": r.Background,
		"glitter": r.Glitter, "type": r.Type,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s probability must be between 0.0 and 1.0, got %v", name, v)
		}
	}
	return nil
}

// Supported reports whether the record is scorable at all, i.e. not the
// all-zero legacy placeholder.
func (r *Rarity) Supported() bool {
	return r.Horn > 0 || r.Color > 0 || r.Background > 0 || r.Glitter > 0 || r.Type > 0
}

// ScoredMetadata is the unit the rule engine evaluates: identity, normalized
// attributes, probabilities and the derived rarity score. Constructed once
// per observed offer and discarded after evaluation.
type ScoredMetadata struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Image       string     `json:"image"`
	Attributes  Attributes `json:"attributes"`
	Rarity      Rarity     `json:"rarity"`
	RarityScore int        `json:"rarity_score"`
}

// Validate checks identity fields and score bounds.
func (m *ScoredMetadata) Validate() error {
	if m.ID == "" {
		return errors.New("metadata ID must not be empty")
	}
	if m.Name == "" {
		return errors.New("metadata name must not be empty")
	}
	if m.RarityScore < 0 {
		return errors.New("rarity score must not be negative")
	}
	return m.Rarity.Validate()
}
