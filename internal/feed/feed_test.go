package feed

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/monsterwatch/scvfeed/internal/chain"
	"github.com/monsterwatch/scvfeed/internal/metadata"
	"github.com/monsterwatch/scvfeed/internal/models"
	"github.com/monsterwatch/scvfeed/internal/rarity"
	"github.com/monsterwatch/scvfeed/internal/rules"
	"github.com/monsterwatch/scvfeed/internal/traits"
	"github.com/shopspring/decimal"
)

type fakeSource struct {
	mu         sync.Mutex
	batches    [][]models.Offer
	errs       []error
	polls      int
	reconnects int
}

func (s *fakeSource) Poll(_ context.Context) ([]models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.polls
	s.polls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.batches) {
		return s.batches[i], nil
	}
	return nil, nil
}

func (s *fakeSource) Reconnect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	return nil
}

func (s *fakeSource) reconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

type fakeFetcher struct {
	payloads map[string]*models.RawMetadata
	err      error
}

func (f *fakeFetcher) Fetch(_ context.Context, tokenID string) (*models.RawMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, ok := f.payloads[tokenID]
	if !ok {
		return nil, metadata.FetchError{TokenID: tokenID, StatusCode: 404}
	}
	return raw, nil
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func (a *fakeAlerter) Enqueue(alert models.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
}

func (a *fakeAlerter) snapshot() []models.Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Alert(nil), a.alerts...)
}

func rawMetadata(id string, color string, probs map[string]float64) *models.RawMetadata {
	return &models.RawMetadata{
		ID:   id,
		Name: "Unicorn #" + id,
		Attributes: []models.RawAttribute{
			{TraitType: "Birthday", Value: float64(1630614938)},
			{TraitType: "Type", Value: "Uniturtle"},
			{TraitType: "Horn", Value: "Candy Cane"},
			{TraitType: "Color", Value: color},
			{TraitType: "Glitter", Value: "No"},
			{TraitType: "Special", Value: "No"},
		},
		InitialProbabilities: probs,
	}
}

func sellOffer(tokenID int64, priceBNB string, tx string) models.Offer {
	wei := decimal.RequireFromString(priceBNB).Shift(18)
	return models.Offer{
		TokenID:  big.NewInt(tokenID),
		Side:     models.SideSell,
		PriceWei: wei.BigInt(),
		Tx:       tx,
	}
}

func runFeed(t *testing.T, f *Feed, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := f.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v", err)
	}
}

func TestFeedMatchesAndAlerts(t *testing.T) {
	blackProbs := map[string]float64{"horn": 0.2, "color": 0.0005, "background": 1, "glitter": 0.99, "type": 0.06}
	source := &fakeSource{batches: [][]models.Offer{{sellOffer(101, "3.95", "0xaaa")}}}
	fetcher := &fakeFetcher{payloads: map[string]*models.RawMetadata{
		"101": rawMetadata("101", "Black", blackProbs),
	}}
	alerts := &fakeAlerter{}

	f := newFeed(t, source, fetcher, alerts)
	runFeed(t, f, 200*time.Millisecond)

	got := alerts.snapshot()
	if len(got) != 1 {
		t.Fatalf("got %d alerts, want 1", len(got))
	}
	a := got[0]
	if a.RuleName != "ALL BLACKS" {
		t.Errorf("RuleName = %q", a.RuleName)
	}
	if a.Meta.RarityScore != 5471 {
		t.Errorf("RarityScore = %d, want 5471", a.Meta.RarityScore)
	}
	if !a.PriceBNB.Equal(decimal.RequireFromString("3.95")) {
		t.Errorf("PriceBNB = %s", a.PriceBNB)
	}
	if a.ID == "" {
		t.Error("alert ID not assigned")
	}

	stats := f.Stats()
	if stats.OffersSeen != 1 || stats.Matched != 1 || stats.Skipped != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.LastMatchedAt.IsZero() || stats.LastPollAt.IsZero() {
		t.Error("timestamps not recorded")
	}
}

func TestFeedSkipsUnmatchedAndFailed(t *testing.T) {
	commonProbs := map[string]float64{"horn": 0.5, "color": 0.5, "background": 1, "glitter": 0.99, "type": 0.5}
	source := &fakeSource{batches: [][]models.Offer{{
		sellOffer(201, "10", "0xaaa"), // fetch fails
		sellOffer(202, "10", "0xbbb"), // matches no rule
	}}}
	fetcher := &fakeFetcher{payloads: map[string]*models.RawMetadata{
		"202": rawMetadata("202", "Blue", commonProbs),
	}}
	alerts := &fakeAlerter{}

	f := newFeed(t, source, fetcher, alerts)
	runFeed(t, f, 200*time.Millisecond)

	if got := alerts.snapshot(); len(got) != 0 {
		t.Fatalf("got %d alerts, want 0", len(got))
	}
	stats := f.Stats()
	if stats.OffersSeen != 2 {
		t.Errorf("OffersSeen = %d", stats.OffersSeen)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (failed fetch)", stats.Skipped)
	}
	if stats.Matched != 0 {
		t.Errorf("Matched = %d", stats.Matched)
	}
}

func TestFeedReconnectsOnStaleFilter(t *testing.T) {
	source := &fakeSource{errs: []error{chain.ErrStaleFilter}}
	fetcher := &fakeFetcher{}
	alerts := &fakeAlerter{}

	f := newFeed(t, source, fetcher, alerts)
	runFeed(t, f, 150*time.Millisecond)

	if source.reconnectCount() == 0 {
		t.Error("stale filter did not trigger a reconnect")
	}
	if f.Stats().Reconnects == 0 {
		t.Error("reconnect not counted")
	}
	if f.Stats().PollFailures != 0 {
		t.Errorf("PollFailures = %d, want 0", f.Stats().PollFailures)
	}
}

func TestFeedCountsPollFailures(t *testing.T) {
	source := &fakeSource{errs: []error{fmt.Errorf("connection reset")}}
	f := newFeed(t, source, &fakeFetcher{}, &fakeAlerter{})
	runFeed(t, f, 150*time.Millisecond)

	if f.Stats().PollFailures == 0 {
		t.Error("poll failure not counted")
	}
}

// newFeed builds a feed with a short poll interval and the black-color rule.
func newFeed(t *testing.T, source EventSource, fetcher MetadataFetcher, alerts Alerter) *Feed {
	t.Helper()
	normalizer, err := metadata.NewNormalizer("Etc/GMT+7", "")
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	maxPrice := decimal.NewFromInt(20)
	minSPB := decimal.NewFromInt(5000)
	ruleSet := []rules.Rule{
		{Name: "HIGH SCORE PER BNB", MinScorePerBNB: &minSPB, MaxPriceBNB: &maxPrice},
		{Name: "ALL BLACKS", Colors: traits.BlackColors, MaxPriceBNB: &maxPrice},
	}
	return New(source, fetcher, normalizer, rarity.DefaultParams(), ruleSet, rules.Options{},
		alerts, 20*time.Millisecond, 5*time.Second, 3)
}
