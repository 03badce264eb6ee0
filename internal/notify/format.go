package notify

import (
	"fmt"

	"github.com/monsterwatch/scvfeed/internal/marketplace"
	"github.com/monsterwatch/scvfeed/internal/models"
	"github.com/monsterwatch/scvfeed/internal/traits"
)

// spbBadge color-codes the score-per-BNB bucket.
func spbBadge(spb int64) string {
	switch {
	case spb < 5000:
		return "\U0001F7E2" // green
	case spb < 8000:
		return "\U0001F535" // blue
	case spb < 11000:
		return "\U0001F7E1" // yellow
	default:
		return "\U0001F7E3" // purple
	}
}

// FormatAlertHTML renders one alert in Telegram HTML style. The leading
// anchor with a bare dot makes the client unfurl the token image.
func FormatAlertHTML(a models.Alert, tokenContract string) string {
	spb := a.ScorePerBNB.IntPart()
	itemURL := marketplace.ItemURL(tokenContract, a.Meta.ID)
	return fmt.Sprintf("<a href='%s'>.</a>====%s====\n"+
		"%s <b>%s BNB</b> | score: %d\n"+
		"<b>SPB %s %d</b>\n"+
		"PMONC %s\n"+
		"%s%s",
		a.Meta.Image, a.RuleName,
		a.Meta.Name, a.PriceBNB.StringFixed(4), a.Meta.RarityScore,
		spbBadge(spb), spb,
		a.Meta.ID,
		itemURL,
		similarLinks(a.Meta.Attributes))
}

// similarLinks builds the filtered-listing deep links for the token's trait
// combination, cheapest first, so the operator can price-compare in one tap.
// Traits that do not classify are simply left out of the filter.
func similarLinks(attrs models.Attributes) string {
	var f marketplace.Filter
	if v, err := traits.ParseType(attrs.Type); err == nil {
		f.Type = v
	}
	if v, err := traits.ParseHorn(attrs.Horn); err == nil {
		f.Horn = v
	}
	if v, err := traits.ParseColor(attrs.Color); err == nil {
		f.Color = v
	}
	if f == (marketplace.Filter{}) {
		return ""
	}
	return fmt.Sprintf("\nsimilar: <a href='%s'>SCV</a> | <a href='%s'>OpenSea</a>",
		f.SCVURL(), f.OpenSeaURL())
}
