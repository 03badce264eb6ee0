// Command rarity fetches one token's metadata and prints its rarity score,
// attributes and probabilities. Handy for sanity-checking the scoring model
// against a live listing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/monsterwatch/scvfeed/internal/metadata"
	"github.com/monsterwatch/scvfeed/internal/rarity"
)

var (
	tokenID  = flag.String("id", "", "Token ID to score (required)")
	baseURL  = flag.String("base-url", "https://meta.polkamon.com", "Metadata provider base URL")
	timezone = flag.String("tz", "Etc/GMT+7", "Birthday timezone")
)

func main() {
	flag.Parse()
	if *tokenID == "" {
		log.Fatal("-id is required")
	}

	normalizer, err := metadata.NewNormalizer(*timezone, "2006-01-02 15:04:05")
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}

	client := metadata.NewClient(*baseURL, 10*time.Second, 3, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	raw, err := client.Fetch(ctx, *tokenID)
	if err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}

	attrs, probs, err := normalizer.Normalize(raw)
	if err != nil {
		log.Fatalf("Normalize failed: %v", err)
	}

	score := rarity.Score(attrs, probs, rarity.DefaultParams())

	fmt.Printf("%s (%s)\n", raw.Name, raw.ID)
	fmt.Printf("Rarity score: %d\n", score)
	fmt.Printf("Birthday:     %s\n", attrs.Birthday)
	fmt.Printf("Type:         %s\n", attrs.Type)
	fmt.Printf("Horn:         %s\n", attrs.Horn)
	fmt.Printf("Color:        %s\n", attrs.Color)
	fmt.Printf("Glitter:      %s\n", attrs.GlitterRaw)
	fmt.Printf("Special:      %t\n", attrs.Special)
	if !probs.Supported() {
		fmt.Println("Probabilities: not present (legacy item, score unsupported)")
	} else {
		fmt.Printf("Probabilities: horn=%g color=%g background=%g glitter=%g type=%g\n",
			probs.Horn, probs.Color, probs.Background, probs.Glitter, probs.Type)
	}
}
