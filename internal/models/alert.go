package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert is a matched offer on its way to the notification sinks.
type Alert struct {
	ID          string          `json:"id"`
	Offer       Offer           `json:"offer"`
	Meta        ScoredMetadata  `json:"meta"`
	RuleName    string          `json:"rule_name"`
	PriceBNB    decimal.Decimal `json:"price_bnb"`
	ScorePerBNB decimal.Decimal `json:"score_per_bnb"`
	DetectedAt  time.Time       `json:"detected_at"`
}
