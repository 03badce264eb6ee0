package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/monsterwatch/scvfeed/internal/rarity"
	"github.com/monsterwatch/scvfeed/internal/rules"
	"github.com/monsterwatch/scvfeed/internal/traits"
)

// Config represents the complete application configuration
type Config struct {
	Chain    ChainConfig    `mapstructure:"chain"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ChainConfig holds the BSC event source configuration. EventTopic is the
// keccak topic of the marketplace EvNewOffer event and TokenTopic the padded
// address topic of the tracked token contract; both are protocol constants.
type ChainConfig struct {
	ProviderURL  string        `mapstructure:"provider_url"`
	Contract     string        `mapstructure:"contract"`
	EventTopic   string        `mapstructure:"event_topic"`
	TokenTopic   string        `mapstructure:"token_topic"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	CallTimeout  time.Duration `mapstructure:"call_timeout"`
}

// TokenTopicAddress recovers the 20-byte token contract address from the
// padded 32-byte topic, for building marketplace item links.
func (c ChainConfig) TokenTopicAddress() string {
	t := strings.TrimPrefix(c.TokenTopic, "0x")
	if len(t) >= 40 {
		return "0x" + t[len(t)-40:]
	}
	return c.TokenTopic
}

// MetadataConfig holds the metadata provider configuration. The birthday
// timezone and layout are versioned rendering constants; changing them is a
// model revision, not drift.
type MetadataConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryDelayBase   time.Duration `mapstructure:"retry_delay_base"`
	BirthdayTimezone string        `mapstructure:"birthday_timezone"`
	BirthdayLayout   string        `mapstructure:"birthday_layout"`
}

// ScoringConfig holds the named rarity scoring constants.
type ScoringConfig struct {
	ScaleK         float64 `mapstructure:"scale_k"`
	BabyHornBoost  int     `mapstructure:"baby_horn_boost"`
	SpecialDamping float64 `mapstructure:"special_damping"`
	SpecialScale   float64 `mapstructure:"special_scale"`
	MaxScore       int     `mapstructure:"max_score"`
}

// RuleConfig is one declarative purchase rule. Tier fields reference the
// named tier tables in the traits package, not raw trait labels.
type RuleConfig struct {
	Name           string   `mapstructure:"name"`
	Special        *bool    `mapstructure:"special"`
	Glitter        *bool    `mapstructure:"glitter"`
	Type           string   `mapstructure:"type"`
	Color          string   `mapstructure:"color"`
	Horn           string   `mapstructure:"horn"`
	MaxPriceBNB    *float64 `mapstructure:"max_price_bnb"`
	MinScorePerBNB *float64 `mapstructure:"min_score_per_bnb"`
}

// RulesConfig holds the ordered rule list and comparison semantics.
type RulesConfig struct {
	MaxPriceInclusive bool         `mapstructure:"max_price_inclusive"`
	List              []RuleConfig `mapstructure:"list"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// RedisConfig holds the optional alert stream configuration.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// ServerConfig holds the status HTTP server configuration.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// FeedConfig holds pipeline concurrency and queueing configuration.
type FeedConfig struct {
	MaxWorkers    int           `mapstructure:"max_workers"`
	OfferTimeout  time.Duration `mapstructure:"offer_timeout"`
	QueueCapacity int           `mapstructure:"queue_capacity"`
	SendTimeout   time.Duration `mapstructure:"send_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("SCVFEED")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("chain.poll_interval", "500ms")
	v.SetDefault("chain.dial_timeout", "10s")
	v.SetDefault("chain.call_timeout", "15s")

	v.SetDefault("metadata.base_url", "https://meta.polkamon.com")
	v.SetDefault("metadata.timeout", "10s")
	v.SetDefault("metadata.max_retries", 3)
	v.SetDefault("metadata.retry_delay_base", "1s")
	v.SetDefault("metadata.birthday_timezone", "Etc/GMT+7")
	v.SetDefault("metadata.birthday_layout", "2006-01-02 15:04:05")

	v.SetDefault("scoring.scale_k", 0.0325)
	v.SetDefault("scoring.baby_horn_boost", 5)
	v.SetDefault("scoring.special_damping", 8)
	v.SetDefault("scoring.special_scale", 40)
	v.SetDefault("scoring.max_score", 1000000)

	v.SetDefault("rules.max_price_inclusive", false)

	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("redis.stream", "scvfeed:alerts")
	v.SetDefault("redis.max_len", 1000)

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("feed.max_workers", 5)
	v.SetDefault("feed.offer_timeout", "30s")
	v.SetDefault("feed.queue_capacity", 64)
	v.SetDefault("feed.send_timeout", "30s")

	v.SetDefault("logging.level", "info")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Chain.ProviderURL == "" {
		return fmt.Errorf("chain.provider_url is required")
	}
	if c.Chain.Contract == "" {
		return fmt.Errorf("chain.contract is required")
	}
	if c.Chain.EventTopic == "" {
		return fmt.Errorf("chain.event_topic is required")
	}
	if c.Chain.TokenTopic == "" {
		return fmt.Errorf("chain.token_topic is required")
	}
	if c.Chain.PollInterval <= 0 {
		return fmt.Errorf("chain.poll_interval must be positive")
	}

	if c.Metadata.BaseURL == "" {
		return fmt.Errorf("metadata.base_url is required")
	}
	if c.Metadata.BirthdayTimezone == "" {
		return fmt.Errorf("metadata.birthday_timezone is required")
	}

	if c.Scoring.ScaleK <= 0 {
		return fmt.Errorf("scoring.scale_k must be positive")
	}
	if c.Scoring.BabyHornBoost < 1 {
		return fmt.Errorf("scoring.baby_horn_boost must be at least 1")
	}
	if c.Scoring.SpecialDamping <= 0 {
		return fmt.Errorf("scoring.special_damping must be positive")
	}
	if c.Scoring.SpecialScale <= 0 {
		return fmt.Errorf("scoring.special_scale must be positive")
	}
	if c.Scoring.MaxScore < 1 {
		return fmt.Errorf("scoring.max_score must be at least 1")
	}

	if len(c.Rules.List) == 0 {
		return fmt.Errorf("rules.list must contain at least one rule")
	}
	if _, err := c.BuildRules(); err != nil {
		return err
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}

	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when server is enabled")
	}

	if c.Feed.MaxWorkers < 1 {
		return fmt.Errorf("feed.max_workers must be at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}

// BuildRules resolves the declarative rule list into engine rules, binding
// tier names to the versioned tier tables. Order is preserved.
func (c *Config) BuildRules() ([]rules.Rule, error) {
	out := make([]rules.Rule, 0, len(c.Rules.List))
	for i, rc := range c.Rules.List {
		if rc.Name == "" {
			return nil, fmt.Errorf("rules.list[%d]: name is required", i)
		}
		r := rules.Rule{
			Name:    rc.Name,
			Special: rc.Special,
			Glitter: rc.Glitter,
		}
		if rc.Type != "" {
			tier, ok := traits.TypeTiers[rc.Type]
			if !ok {
				return nil, fmt.Errorf("rules.list[%d] (%s): unknown type tier %q", i, rc.Name, rc.Type)
			}
			r.Types = tier
		}
		if rc.Color != "" {
			tier, ok := traits.ColorTiers[rc.Color]
			if !ok {
				return nil, fmt.Errorf("rules.list[%d] (%s): unknown color tier %q", i, rc.Name, rc.Color)
			}
			r.Colors = tier
		}
		if rc.Horn != "" {
			tier, ok := traits.HornTiers[rc.Horn]
			if !ok {
				return nil, fmt.Errorf("rules.list[%d] (%s): unknown horn tier %q", i, rc.Name, rc.Horn)
			}
			r.Horns = tier
		}
		if rc.MaxPriceBNB != nil {
			d := decimal.NewFromFloat(*rc.MaxPriceBNB)
			r.MaxPriceBNB = &d
		}
		if rc.MinScorePerBNB != nil {
			d := decimal.NewFromFloat(*rc.MinScorePerBNB)
			r.MinScorePerBNB = &d
		}
		out = append(out, r)
	}
	return out, nil
}

// ScoringParams returns the scoring constants as rarity parameters.
func (c *Config) ScoringParams() rarity.Params {
	return rarity.Params{
		ScaleK:         c.Scoring.ScaleK,
		BabyHornBoost:  c.Scoring.BabyHornBoost,
		SpecialDamping: c.Scoring.SpecialDamping,
		SpecialScale:   c.Scoring.SpecialScale,
		MaxScore:       c.Scoring.MaxScore,
	}
}

// RuleOptions returns the comparison semantics for the rule engine.
func (c *Config) RuleOptions() rules.Options {
	return rules.Options{MaxPriceInclusive: c.Rules.MaxPriceInclusive}
}
