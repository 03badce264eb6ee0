// Package rarity computes the deterministic rarity score of a token from its
// normalized attributes and trait-occurrence probabilities.
//
// Two regimes exist, selected by the Special attribute:
//
//	non-special: floor(K / (p_horn · p_color · p_glitter · p_type))
//	special:     floor(S · ∏ ((1/p_i − 1)/D + 1))  over horn, glitter, type
//
// Background probability is cosmetic and never scored. The special regime's
// dampened multipliers flatten the tail of very rare probabilities so a single
// near-zero field cannot dominate. Tokens whose horn is the common Baby Horn
// get a fixed boost reflecting an independent 20%-chance sub-roll the raw
// probabilities do not capture.
//
// Scoring is a pure function: identical inputs yield bit-identical integers.
// All-zero probability records (legacy placeholder) score 0, never crash.
package rarity

import (
	"math"

	"github.com/monsterwatch/scvfeed/internal/models"
	"github.com/monsterwatch/scvfeed/internal/traits"
)

// Params are the named scoring constants. Several of them drifted across
// historical revisions of the scoring model, so they are configuration,
// not literals buried in the formula.
type Params struct {
	// ScaleK scales the non-special inverse-probability product. Calibrated
	// against observed market prices.
	ScaleK float64
	// BabyHornBoost multiplies the non-special score of Baby Horn tokens.
	BabyHornBoost int
	// SpecialDamping is D in the dampened multiplier (1/p − 1)/D + 1.
	SpecialDamping float64
	// SpecialScale is S, the output scale of the special regime.
	SpecialScale float64
	// MaxScore caps the final score so pathological outliers cannot dominate
	// downstream score-per-price ranking.
	MaxScore int
}

// DefaultParams returns the current scoring model revision.
func DefaultParams() Params {
	return Params{
		ScaleK:         0.0325,
		BabyHornBoost:  5,
		SpecialDamping: 8,
		SpecialScale:   40,
		MaxScore:       1_000_000,
	}
}

// Score computes the rarity score for one token. Non-negative, ≤ p.MaxScore.
func Score(attrs models.Attributes, probs models.Rarity, p Params) int {
	var score int
	if attrs.Special {
		score = specialScore(probs, p)
	} else {
		score = regularScore(attrs, probs, p)
	}
	if score > p.MaxScore {
		return p.MaxScore
	}
	return score
}

func regularScore(attrs models.Attributes, probs models.Rarity, p Params) int {
	if probs.Horn == 0 || probs.Color == 0 || probs.Glitter == 0 || probs.Type == 0 {
		return 0
	}
	product := probs.Horn * probs.Color
	product *= probs.Glitter
	product *= probs.Type

	score := int(math.Floor(p.ScaleK / product))
	if horn, err := traits.ParseHorn(attrs.Horn); err == nil && horn.IsBaby() {
		score *= p.BabyHornBoost
	}
	return score
}

func specialScore(probs models.Rarity, p Params) int {
	// Color, like background, is not scored in the special regime.
	if probs.Horn == 0 || probs.Glitter == 0 || probs.Type == 0 {
		return 0
	}
	product := damped(probs.Horn, p.SpecialDamping)
	product *= damped(probs.Glitter, p.SpecialDamping)
	product *= damped(probs.Type, p.SpecialDamping)

	return int(math.Floor(product * p.SpecialScale))
}

func damped(prob, d float64) float64 {
	return (1.0/prob-1.0)/d + 1.0
}
