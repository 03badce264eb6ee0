// Package marketplace builds deep-link URLs into the secondary marketplaces
// from classified traits. Pure string templating.
package marketplace

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/monsterwatch/scvfeed/internal/traits"
)

const (
	scvCollectionURL     = "https://scv.finance/nft/collection/polychain-monsters"
	openSeaCollectionURL = "https://opensea.io/collection/polychainmonsters"
	scvItemURLFormat     = "https://scv.finance/nft/bsc/%s/%s"
)

// Filter selects a trait combination. Empty members are omitted from the URL.
type Filter struct {
	Type  traits.Type
	Horn  traits.Horn
	Color traits.Color
}

// Name is the human label for the filter, horn-color-type order.
func (f Filter) Name() string {
	var parts []string
	for _, v := range []string{string(f.Horn), string(f.Color), string(f.Type)} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// SCVURL builds the filtered SCV collection listing, cheapest first.
func (f Filter) SCVURL() string {
	params := []string{"sort=price_asc"}
	if f.Type != "" {
		params = append(params, "meta_text_0="+url.QueryEscape(string(f.Type)))
	}
	if f.Horn != "" {
		params = append(params, "meta_text_1="+url.QueryEscape(string(f.Horn)))
	}
	if f.Color != "" {
		params = append(params, "meta_text_2="+url.QueryEscape(string(f.Color)))
	}
	return scvCollectionURL + "?" + strings.Join(params, "&")
}

// OpenSeaURL builds the equivalent OpenSea listing, cheapest first.
func (f Filter) OpenSeaURL() string {
	params := []string{
		"search[resultModel]=ASSETS",
		"search[sortAscending]=true",
		"search[sortBy]=PRICE",
	}
	idx := 0
	appendTrait := func(name, value string) {
		params = append(params,
			fmt.Sprintf("search[stringTraits][%d][name]=%s", idx, name),
			fmt.Sprintf("search[stringTraits][%d][values][0]=%s", idx, url.QueryEscape(value)))
		idx++
	}
	if f.Type != "" {
		appendTrait("Type", string(f.Type))
	}
	if f.Color != "" {
		appendTrait("Color", string(f.Color))
	}
	if f.Horn != "" {
		appendTrait("Horn", string(f.Horn))
	}
	return openSeaCollectionURL + "?" + strings.Join(params, "&")
}

// ItemURL is the SCV page for one token of the given contract.
func ItemURL(tokenContract, tokenID string) string {
	return fmt.Sprintf(scvItemURLFormat, tokenContract, tokenID)
}
