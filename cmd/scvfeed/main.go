package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/monsterwatch/scvfeed/internal/chain"
	"github.com/monsterwatch/scvfeed/internal/config"
	"github.com/monsterwatch/scvfeed/internal/feed"
	"github.com/monsterwatch/scvfeed/internal/logger"
	"github.com/monsterwatch/scvfeed/internal/metadata"
	"github.com/monsterwatch/scvfeed/internal/notify"
	"github.com/monsterwatch/scvfeed/internal/rules"
	"github.com/monsterwatch/scvfeed/internal/server"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level)
	logger.Info("Configuration loaded from %s", *configPath)

	ruleSet, err := cfg.BuildRules()
	if err != nil {
		logger.Fatal("Failed to build rules: %v", err)
	}
	logger.Info("Loaded %d purchase rules", len(ruleSet))

	normalizer, err := metadata.NewNormalizer(cfg.Metadata.BirthdayTimezone, cfg.Metadata.BirthdayLayout)
	if err != nil {
		logger.Fatal("Failed to initialize normalizer: %v", err)
	}

	metaClient := metadata.NewClient(
		cfg.Metadata.BaseURL,
		cfg.Metadata.Timeout,
		cfg.Metadata.MaxRetries,
		cfg.Metadata.RetryDelayBase,
	)

	// Notification sinks
	var sinks []notify.Sink
	var telegramSink *notify.Telegram
	if cfg.Telegram.Enabled {
		telegramSink, err = notify.NewTelegram(
			cfg.Telegram.BotToken,
			cfg.Telegram.ChatID,
			cfg.Chain.TokenTopicAddress(),
			cfg.Telegram.MaxRetries,
			cfg.Telegram.RetryDelayBase,
		)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		sinks = append(sinks, telegramSink)
		logger.Info("Telegram sink initialized")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	var redisSink *notify.RedisStream
	if cfg.Redis.Enabled {
		redisSink = notify.NewRedisStream(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.Stream,
			cfg.Redis.MaxLen,
		)
		sinks = append(sinks, redisSink)
		logger.Info("Redis alert stream sink initialized (%s)", cfg.Redis.Stream)
	}

	dispatcher := notify.NewDispatcher(cfg.Feed.QueueCapacity, cfg.Feed.SendTimeout, sinks...)
	dispatcher.Start()

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	// Chain event source
	chainClient := chain.NewClient(
		cfg.Chain.ProviderURL,
		cfg.Chain.Contract,
		cfg.Chain.EventTopic,
		cfg.Chain.TokenTopic,
		cfg.Chain.DialTimeout,
		cfg.Chain.CallTimeout,
	)
	if err := connectWithRetry(ctx, chainClient); err != nil {
		logger.Fatal("Failed to connect to chain provider: %v", err)
	}
	defer chainClient.Close()

	f := feed.New(
		chainClient,
		metaClient,
		normalizer,
		cfg.ScoringParams(),
		ruleSet,
		cfg.RuleOptions(),
		dispatcher,
		cfg.Chain.PollInterval,
		cfg.Feed.OfferTimeout,
		cfg.Feed.MaxWorkers,
	)

	var statusServer *server.Server
	if cfg.Server.Enabled {
		statusServer = server.New(cfg.Server.Addr, f, dispatcher)
		statusServer.Start()
	}

	if telegramSink != nil {
		if err := telegramSink.Notice(ctx, startupNotice(ruleSet)); err != nil {
			logger.Warn("Failed to send startup notice: %v", err)
		}
	}

	logger.Info("Starting feed (poll_interval: %v, workers: %d, rules: %d)",
		cfg.Chain.PollInterval, cfg.Feed.MaxWorkers, len(ruleSet))
	_ = f.Run(ctx)

	// Flush pending alerts best-effort, then say goodbye.
	dispatcher.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if statusServer != nil {
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Status server shutdown failed: %v", err)
		}
	}
	if telegramSink != nil {
		if err := telegramSink.Notice(shutdownCtx, "BOT IS SHUTTING DOWN..."); err != nil {
			logger.Warn("Failed to send shutdown notice: %v", err)
		}
	}
	if redisSink != nil {
		if err := redisSink.Close(); err != nil {
			logger.Warn("Failed to close Redis sink: %v", err)
		}
	}
	logger.Info("Service stopped")
}

// connectWithRetry dials the chain provider with linear backoff so a slow
// node at boot does not kill the service.
func connectWithRetry(ctx context.Context, c *chain.Client) error {
	const attempts = 5
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i) * 2 * time.Second):
			}
		}
		if lastErr = c.Connect(ctx); lastErr == nil {
			return nil
		}
		logger.Warn("Chain connect attempt %d/%d failed: %v", i+1, attempts, lastErr)
	}
	return lastErr
}

func startupNotice(ruleSet []rules.Rule) string {
	lines := make([]string, 0, len(ruleSet))
	for i := range ruleSet {
		lines = append(lines, ruleSet[i].String())
	}
	return fmt.Sprintf("Start earning money mode\nTracking configuration:\n- %s",
		strings.Join(lines, "\n- "))
}
