// Package feed runs the offer-processing pipeline: poll the chain source,
// and for each new sell offer fetch metadata, normalize, score, match the
// rule set and hand any match to the alert dispatcher.
//
// Every offer's pipeline is independent; one token's bad metadata or failed
// fetch is logged and skipped without touching the polling loop or the other
// offers in flight. A bounded worker pool caps concurrent pipelines.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/monsterwatch/scvfeed/internal/chain"
	"github.com/monsterwatch/scvfeed/internal/logger"
	"github.com/monsterwatch/scvfeed/internal/metadata"
	"github.com/monsterwatch/scvfeed/internal/models"
	"github.com/monsterwatch/scvfeed/internal/rarity"
	"github.com/monsterwatch/scvfeed/internal/rules"
)

// EventSource yields newly observed offers. chain.Client implements it.
type EventSource interface {
	Poll(ctx context.Context) ([]models.Offer, error)
	Reconnect(ctx context.Context) error
}

// MetadataFetcher retrieves raw provider metadata for a token.
type MetadataFetcher interface {
	Fetch(ctx context.Context, tokenID string) (*models.RawMetadata, error)
}

// Alerter accepts matched offers for delivery.
type Alerter interface {
	Enqueue(alert models.Alert)
}

// Stats is a snapshot of pipeline counters for the status endpoint.
type Stats struct {
	OffersSeen    uint64    `json:"offers_seen"`
	Matched       uint64    `json:"matched"`
	Skipped       uint64    `json:"skipped"`
	PollFailures  uint64    `json:"poll_failures"`
	Reconnects    uint64    `json:"reconnects"`
	LastPollAt    time.Time `json:"last_poll_at"`
	LastMatchedAt time.Time `json:"last_matched_at"`
}

// Feed owns the polling loop and the per-offer workers.
type Feed struct {
	source       EventSource
	fetcher      MetadataFetcher
	normalizer   *metadata.Normalizer
	params       rarity.Params
	ruleSet      []rules.Rule
	ruleOpts     rules.Options
	alerts       Alerter
	pollInterval time.Duration
	offerTimeout time.Duration
	workers      chan struct{}

	wg sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

// New wires a feed. maxWorkers bounds concurrent offer pipelines.
func New(
	source EventSource,
	fetcher MetadataFetcher,
	normalizer *metadata.Normalizer,
	params rarity.Params,
	ruleSet []rules.Rule,
	ruleOpts rules.Options,
	alerts Alerter,
	pollInterval time.Duration,
	offerTimeout time.Duration,
	maxWorkers int,
) *Feed {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if offerTimeout <= 0 {
		offerTimeout = 30 * time.Second
	}
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	return &Feed{
		source:       source,
		fetcher:      fetcher,
		normalizer:   normalizer,
		params:       params,
		ruleSet:      ruleSet,
		ruleOpts:     ruleOpts,
		alerts:       alerts,
		pollInterval: pollInterval,
		offerTimeout: offerTimeout,
		workers:      make(chan struct{}, maxWorkers),
	}
}

// Run polls until ctx is cancelled, then waits for in-flight offer pipelines
// to finish. Stale filters trigger a reconnect and the loop resumes; other
// poll failures are logged and retried on the next tick.
func (f *Feed) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("feed stopping, waiting for in-flight offers")
			f.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			f.pollOnce(ctx)
		}
	}
}

func (f *Feed) pollOnce(ctx context.Context) {
	offers, err := f.source.Poll(ctx)
	f.mu.Lock()
	f.stats.LastPollAt = time.Now()
	f.mu.Unlock()

	if err != nil {
		if errors.Is(err, chain.ErrStaleFilter) {
			logger.Warn("event filter went stale, resubscribing")
			f.bump(func(s *Stats) { s.Reconnects++ })
			if rerr := f.source.Reconnect(ctx); rerr != nil {
				logger.Error("failed to reconnect event source: %v", rerr)
				f.bump(func(s *Stats) { s.PollFailures++ })
			}
			return
		}
		logger.Error("poll failed: %v", err)
		f.bump(func(s *Stats) { s.PollFailures++ })
		return
	}

	for _, offer := range offers {
		f.bump(func(s *Stats) { s.OffersSeen++ })

		select {
		case f.workers <- struct{}{}:
		case <-ctx.Done():
			return
		}
		f.wg.Add(1)
		go func(o models.Offer) {
			defer f.wg.Done()
			defer func() { <-f.workers }()
			f.handleOffer(o)
		}(offer)
	}
}

// handleOffer runs one offer through fetch, normalize, score and rule match.
// It uses its own timeout so a shutdown still lets it finish or expire.
func (f *Feed) handleOffer(offer models.Offer) {
	ctx, cancel := context.WithTimeout(context.Background(), f.offerTimeout)
	defer cancel()

	tokenID := offer.TokenID.String()

	raw, err := f.fetcher.Fetch(ctx, tokenID)
	if err != nil {
		logger.Warn("skipping offer %s: %v", offer.Tx, err)
		f.bump(func(s *Stats) { s.Skipped++ })
		return
	}

	attrs, probs, err := f.normalizer.Normalize(raw)
	if err != nil {
		logger.Warn("skipping offer %s: could not normalize token %s: %v", offer.Tx, tokenID, err)
		f.bump(func(s *Stats) { s.Skipped++ })
		return
	}

	scored := models.ScoredMetadata{
		ID:         raw.ID,
		Name:       raw.Name,
		Image:      raw.Image,
		Attributes: attrs,
		Rarity:     probs,
	}
	scored.RarityScore = rarity.Score(attrs, probs, f.params)

	match, err := rules.FirstMatch(offer.PriceWei, &scored, f.ruleSet, f.ruleOpts)
	if err != nil {
		logger.Warn("skipping offer %s: %v", offer.Tx, err)
		f.bump(func(s *Stats) { s.Skipped++ })
		return
	}
	if match == nil {
		logger.Debug("token %s (score %d) matched no rule", tokenID, scored.RarityScore)
		return
	}

	logger.Info("token %s matched rule %q (score %d, spb %s)",
		tokenID, match.Rule.Name, scored.RarityScore, match.ScorePerBNB.StringFixed(0))
	f.bump(func(s *Stats) { s.Matched++; s.LastMatchedAt = time.Now() })

	f.alerts.Enqueue(models.Alert{
		ID:          uuid.New().String(),
		Offer:       offer,
		Meta:        scored,
		RuleName:    match.Rule.Name,
		PriceBNB:    match.PriceBNB,
		ScorePerBNB: match.ScorePerBNB,
		DetectedAt:  time.Now(),
	})
}

func (f *Feed) bump(fn func(*Stats)) {
	f.mu.Lock()
	fn(&f.stats)
	f.mu.Unlock()
}

// Stats returns a copy of the pipeline counters.
func (f *Feed) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}
