package notify

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/monsterwatch/scvfeed/internal/models"
)

func TestFormatAlertHTML(t *testing.T) {
	a := models.Alert{
		ID:       "f2b0c6a1",
		RuleName: "ALL BLACKS",
		Meta: models.ScoredMetadata{
			ID:          "10001290268",
			Name:        "Unicorn #1290268",
			Image:       "https://images.scv.finance/unicorn/1290268.png",
			RarityScore: 5471,
		},
		PriceBNB:    decimal.RequireFromString("3.95"),
		ScorePerBNB: decimal.NewFromInt(5471).Div(decimal.RequireFromString("3.95")),
	}

	msg := FormatAlertHTML(a, "0x9437E3E2337a78D324c581A4bFD9fe22a1aDBf04")

	for _, want := range []string{
		"<a href='https://images.scv.finance/unicorn/1290268.png'>.</a>",
		"====ALL BLACKS====",
		"Unicorn #1290268 <b>3.9500 BNB</b> | score: 5471",
		"SPB \U0001F7E2 1385",
		"PMONC 10001290268",
		"https://scv.finance/nft/bsc/0x9437E3E2337a78D324c581A4bFD9fe22a1aDBf04/10001290268",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatAlertHTMLSimilarLinks(t *testing.T) {
	a := models.Alert{
		RuleName: "ALL BLACKS",
		Meta: models.ScoredMetadata{
			ID:   "10001290268",
			Name: "Unicorn #1290268",
			Attributes: models.Attributes{
				Type:  "Uniturtle",
				Horn:  "Candy Cane",
				Color: "Black",
			},
			RarityScore: 5471,
		},
		PriceBNB:    decimal.RequireFromString("3.95"),
		ScorePerBNB: decimal.NewFromInt(1385),
	}

	msg := FormatAlertHTML(a, "0x9437E3E2337a78D324c581A4bFD9fe22a1aDBf04")
	for _, want := range []string{
		"similar: <a href='https://scv.finance/nft/collection/polychain-monsters?sort=price_asc",
		"meta_text_0=Uniturtle",
		"meta_text_1=Candy+Cane",
		"meta_text_2=Black",
		"https://opensea.io/collection/polychainmonsters?",
		"search[stringTraits][0][values][0]=Uniturtle",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	// Traits outside the closed sets drop the whole similar-listings line.
	a.Meta.Attributes = models.Attributes{Type: "Mystery", Horn: "Obsidian Spike", Color: "Turquoise"}
	msg = FormatAlertHTML(a, "0x9437E3E2337a78D324c581A4bFD9fe22a1aDBf04")
	if strings.Contains(msg, "similar:") {
		t.Errorf("unclassifiable traits still rendered similar links:\n%s", msg)
	}
}

func TestSPBBadgeBuckets(t *testing.T) {
	tests := []struct {
		spb  int64
		want string
	}{
		{0, "\U0001F7E2"},
		{4999, "\U0001F7E2"},
		{5000, "\U0001F535"},
		{7999, "\U0001F535"},
		{8000, "\U0001F7E1"},
		{10999, "\U0001F7E1"},
		{11000, "\U0001F7E3"},
		{100000, "\U0001F7E3"},
	}
	for _, tt := range tests {
		if got := spbBadge(tt.spb); got != tt.want {
			t.Errorf("spbBadge(%d) = %q, want %q", tt.spb, got, tt.want)
		}
	}
}
