package metadata

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/monsterwatch/scvfeed/internal/models"
)

const samplePayload = `{
	"id": "10001290268",
	"name": "Unicorn #1290268",
	"image": "https://images.scv.finance/unicorn/1290268.png",
	"attributes": [
		{"trait_type": "Birthday", "value": 1630614938},
		{"trait_type": "Type", "value": "Uniturtle"},
		{"trait_type": "Horn", "value": "Candy Cane"},
		{"trait_type": "Color", "value": "Black"},
		{"trait_type": "Glitter", "value": "No"},
		{"trait_type": "Special", "value": "No"}
	],
	"initialProbabilities": {
		"horn": 0.2,
		"color": 0.0005,
		"background": 1,
		"glitter": 0.99,
		"type": 0.06
	}
}`

func mustNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer("Etc/GMT+7", "2006-01-02 15:04:05")
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	return n
}

func TestNormalize(t *testing.T) {
	var raw models.RawMetadata
	if err := json.Unmarshal([]byte(samplePayload), &raw); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}

	attrs, probs, err := mustNormalizer(t).Normalize(&raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if attrs.Birthday != "2021-09-02 13:35:38" {
		t.Errorf("Birthday = %q, want 2021-09-02 13:35:38", attrs.Birthday)
	}
	if attrs.Type != "Uniturtle" || attrs.Horn != "Candy Cane" || attrs.Color != "Black" {
		t.Errorf("traits = %q/%q/%q", attrs.Type, attrs.Horn, attrs.Color)
	}
	if attrs.Glitter || attrs.GlitterRaw != "No" {
		t.Errorf("Glitter = %v (%q)", attrs.Glitter, attrs.GlitterRaw)
	}
	if attrs.Special {
		t.Error("Special = true, want false")
	}

	want := models.Rarity{Horn: 0.2, Color: 0.0005, Background: 1, Glitter: 0.99, Type: 0.06}
	if probs != want {
		t.Errorf("Rarity = %+v, want %+v", probs, want)
	}
	if !probs.Supported() {
		t.Error("Supported() = false")
	}
}

func TestNormalizeGlitterAndSpecialYes(t *testing.T) {
	raw := rawWith(map[string]any{"Glitter": "Yes", "Special": "Yes"})

	attrs, _, err := mustNormalizer(t).Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !attrs.Glitter {
		t.Error("Glitter = false, want true")
	}
	if !attrs.Special {
		t.Error("Special = false, want true")
	}
}

func TestNormalizeDuplicateTraitLastWins(t *testing.T) {
	raw := rawWith(nil)
	raw.Attributes = append(raw.Attributes, models.RawAttribute{TraitType: "Color", Value: "Yellow"})

	attrs, _, err := mustNormalizer(t).Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if attrs.Color != "Yellow" {
		t.Errorf("Color = %q, want Yellow", attrs.Color)
	}
}

func TestNormalizeMissingRequiredTrait(t *testing.T) {
	for _, drop := range []string{"Birthday", "Type", "Horn", "Color", "Glitter", "Special"} {
		t.Run(drop, func(t *testing.T) {
			raw := rawWith(nil)
			kept := raw.Attributes[:0]
			for _, a := range raw.Attributes {
				if a.TraitType != drop {
					kept = append(kept, a)
				}
			}
			raw.Attributes = kept

			_, _, err := mustNormalizer(t).Normalize(raw)
			var mfe MissingFieldError
			if !errors.As(err, &mfe) {
				t.Fatalf("expected MissingFieldError, got %v", err)
			}
			if mfe.Field != drop {
				t.Errorf("Field = %q, want %q", mfe.Field, drop)
			}
		})
	}
}

func TestNormalizeLegacyProbabilities(t *testing.T) {
	tests := []struct {
		name  string
		probs map[string]float64
	}{
		{"absent", nil},
		{"incomplete", map[string]float64{"horn": 0.2, "color": 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawWith(nil)
			raw.InitialProbabilities = tt.probs

			_, probs, err := mustNormalizer(t).Normalize(raw)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if probs != (models.Rarity{}) {
				t.Errorf("Rarity = %+v, want zero placeholder", probs)
			}
			if probs.Supported() {
				t.Error("Supported() = true for placeholder")
			}
		})
	}
}

func TestNormalizeBirthdayForms(t *testing.T) {
	n := mustNormalizer(t)
	for _, value := range []any{float64(1630614938), int64(1630614938), 1630614938, "1630614938"} {
		raw := rawWith(map[string]any{"Birthday": value})
		attrs, _, err := n.Normalize(raw)
		if err != nil {
			t.Fatalf("value %T: %v", value, err)
		}
		if attrs.Birthday != "2021-09-02 13:35:38" {
			t.Errorf("value %T: Birthday = %q", value, attrs.Birthday)
		}
	}

	raw := rawWith(map[string]any{"Birthday": "not-a-timestamp"})
	if _, _, err := n.Normalize(raw); err == nil {
		t.Error("unparsable birthday should error")
	}
}

func TestNormalizerTimezone(t *testing.T) {
	n, err := NewNormalizer("Asia/Singapore", "")
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	raw := rawWith(nil)
	attrs, _, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if attrs.Birthday != "2021-09-03 04:35:38" {
		t.Errorf("Birthday = %q, want 2021-09-03 04:35:38", attrs.Birthday)
	}

	if _, err := NewNormalizer("Not/AZone", ""); err == nil {
		t.Error("bogus timezone should error")
	}
}

// rawWith builds the sample record with the given trait values overridden.
func rawWith(override map[string]any) *models.RawMetadata {
	values := map[string]any{
		"Birthday": float64(1630614938),
		"Type":     "Uniturtle",
		"Horn":     "Candy Cane",
		"Color":    "Black",
		"Glitter":  "No",
		"Special":  "No",
	}
	for k, v := range override {
		values[k] = v
	}
	raw := &models.RawMetadata{
		ID:   "10001290268",
		Name: "Unicorn #1290268",
		InitialProbabilities: map[string]float64{
			"horn": 0.2, "color": 0.0005, "background": 1, "glitter": 0.99, "type": 0.06,
		},
	}
	for _, name := range []string{"Birthday", "Type", "Horn", "Color", "Glitter", "Special"} {
		raw.Attributes = append(raw.Attributes, models.RawAttribute{TraitType: name, Value: values[name]})
	}
	return raw
}
