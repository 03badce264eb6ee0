// Package rules implements the ordered, short-circuiting purchase rule engine.
//
// A rule is a conjunction of optional predicates over a priced, scored token.
// Unset fields are wildcards and always pass. Rules are evaluated strictly in
// declared order and the first rule whose set fields all pass wins; evaluation
// stops there. A trait value that does not classify makes only that one rule a
// non-match (logged at debug), never aborting the remaining rules.
package rules

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/monsterwatch/scvfeed/internal/logger"
	"github.com/monsterwatch/scvfeed/internal/models"
	"github.com/monsterwatch/scvfeed/internal/traits"
)

// MalformedPriceError reports a non-positive offer price. A zero price would
// otherwise turn into an infinite score-per-BNB, so it aborts the evaluation
// of that offer instead of silently matching everything.
type MalformedPriceError struct {
	PriceWei *big.Int
}

func (e MalformedPriceError) Error() string {
	return fmt.Sprintf("malformed offer price: %v wei", e.PriceWei)
}

// Rule is one declarative purchase rule. Nil pointer and nil slice fields are
// wildcards. The tier slices hold classified enum members, typically one of
// the named tier tables from the traits package.
type Rule struct {
	Name           string
	Special        *bool
	Glitter        *bool
	Types          []traits.Type
	Colors         []traits.Color
	Horns          []traits.Horn
	MaxPriceBNB    *decimal.Decimal
	MinScorePerBNB *decimal.Decimal
}

// String renders only the set fields, for startup summaries and match logs.
func (r *Rule) String() string {
	parts := []string{"name=" + r.Name}
	if r.Special != nil {
		parts = append(parts, fmt.Sprintf("special=%t", *r.Special))
	}
	if r.Glitter != nil {
		parts = append(parts, fmt.Sprintf("glitter=%t", *r.Glitter))
	}
	if r.Types != nil {
		parts = append(parts, fmt.Sprintf("type=%v", r.Types))
	}
	if r.Colors != nil {
		parts = append(parts, fmt.Sprintf("color=%v", r.Colors))
	}
	if r.Horns != nil {
		parts = append(parts, fmt.Sprintf("horn=%v", r.Horns))
	}
	if r.MaxPriceBNB != nil {
		parts = append(parts, "max_price_bnb="+r.MaxPriceBNB.String())
	}
	if r.MinScorePerBNB != nil {
		parts = append(parts, "min_score_per_bnb="+r.MinScorePerBNB.String())
	}
	return strings.Join(parts, ", ")
}

// Options tune comparison semantics that drifted across revisions.
type Options struct {
	// MaxPriceInclusive switches the max price bound from strict < to ≤.
	// The historical sources disagree on the intent; strict < is the default.
	MaxPriceInclusive bool
}

// Match is the outcome of a successful rule evaluation.
type Match struct {
	Rule        *Rule
	PriceBNB    decimal.Decimal
	ScorePerBNB decimal.Decimal
}

// matches evaluates the rule's conjunction. The only error it can return is
// an UnknownTraitError from classifying one of the raw trait strings.
func (r *Rule) matches(priceBNB, scorePerBNB decimal.Decimal, attrs models.Attributes, opts Options) (bool, error) {
	if r.MinScorePerBNB != nil && !scorePerBNB.GreaterThan(*r.MinScorePerBNB) {
		return false, nil
	}
	if r.MaxPriceBNB != nil {
		ok := priceBNB.LessThan(*r.MaxPriceBNB)
		if opts.MaxPriceInclusive {
			ok = priceBNB.LessThanOrEqual(*r.MaxPriceBNB)
		}
		if !ok {
			return false, nil
		}
	}
	if r.Special != nil && attrs.Special != *r.Special {
		return false, nil
	}
	if r.Glitter != nil && attrs.Glitter != *r.Glitter {
		return false, nil
	}
	if r.Types != nil {
		t, err := traits.ParseType(attrs.Type)
		if err != nil {
			return false, err
		}
		if !containsType(r.Types, t) {
			return false, nil
		}
	}
	if r.Horns != nil {
		h, err := traits.ParseHorn(attrs.Horn)
		if err != nil {
			return false, err
		}
		if !containsHorn(r.Horns, h) {
			return false, nil
		}
	}
	if r.Colors != nil {
		c, err := traits.ParseColor(attrs.Color)
		if err != nil {
			return false, err
		}
		if !containsColor(r.Colors, c) {
			return false, nil
		}
	}
	return true, nil
}

// weiExponent converts wei to the chain's native unit (10^18).
const weiExponent = -18

// FirstMatch converts the offer price to BNB, derives score-per-BNB, and
// returns the first rule in declared order whose conjunction holds, or nil
// when none matches. A non-positive price is a MalformedPriceError.
func FirstMatch(priceWei *big.Int, meta *models.ScoredMetadata, ruleSet []Rule, opts Options) (*Match, error) {
	if priceWei == nil || priceWei.Sign() <= 0 {
		return nil, MalformedPriceError{PriceWei: priceWei}
	}

	priceBNB := decimal.NewFromBigInt(priceWei, weiExponent)
	scorePerBNB := decimal.NewFromInt(int64(meta.RarityScore)).Div(priceBNB)

	for i := range ruleSet {
		rule := &ruleSet[i]
		ok, err := rule.matches(priceBNB, scorePerBNB, meta.Attributes, opts)
		if err != nil {
			// One unclassifiable trait disables this rule only.
			logger.Debug("rule %q skipped for token %s: %v", rule.Name, meta.ID, err)
			continue
		}
		if ok {
			return &Match{Rule: rule, PriceBNB: priceBNB, ScorePerBNB: scorePerBNB}, nil
		}
	}
	return nil, nil
}

func containsType(set []traits.Type, t traits.Type) bool {
	for _, m := range set {
		if m == t {
			return true
		}
	}
	return false
}

func containsColor(set []traits.Color, c traits.Color) bool {
	for _, m := range set {
		if m == c {
			return true
		}
	}
	return false
}

func containsHorn(set []traits.Horn, h traits.Horn) bool {
	for _, m := range set {
		if m == h {
			return true
		}
	}
	return false
}
