package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// FunnelConfig holds the recruitment funnel tunables. Admin call sites vary these
// per deployment, so they are configuration rather than constants.
type FunnelConfig struct {
	// EligibilityThreshold is the minimum application count before shortlist
	// generation is permitted.
	EligibilityThreshold int `mapstructure:"eligibilityThreshold"`
	// ShortlistSize bounds the ranked snapshot (K = min(size, pool)).
	ShortlistSize int `mapstructure:"shortlistSize"`
	// ScorerTimeoutMS caps a single candidate scoring call before the generator
	// degrades that candidate to a neutral score.
	ScorerTimeoutMS int `mapstructure:"scorerTimeoutMs"`
	// GenerationLockTTLSeconds bounds the per-project generation lock.
	GenerationLockTTLSeconds int `mapstructure:"generationLockTtlSeconds"`
}

func DefaultFunnelConfig() FunnelConfig {
	return FunnelConfig{
		EligibilityThreshold:     30,
		ShortlistSize:            10,
		ScorerTimeoutMS:          2000,
		GenerationLockTTLSeconds: 30,
	}
}

func (c FunnelConfig) ScorerTimeout() time.Duration {
	return time.Duration(c.ScorerTimeoutMS) * time.Millisecond
}

func (c FunnelConfig) GenerationLockTTL() time.Duration {
	return time.Duration(c.GenerationLockTTLSeconds) * time.Second
}

type FunnelConfigHolder struct {
	current atomic.Value // holds FunnelConfig
}

// NewFunnelConfigHolderWith wraps a fixed config, used by tests.
func NewFunnelConfigHolderWith(cfg FunnelConfig) *FunnelConfigHolder {
	holder := &FunnelConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewFunnelConfigHolder() (*FunnelConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("funnel")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/stagelink/config") // Volume-mounted config
	v.AddConfigPath("/etc/stagelink")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("STAGELINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultFunnelConfig()
		v.SetDefault("funnel.eligibilityThreshold", defaults.EligibilityThreshold)
		v.SetDefault("funnel.shortlistSize", defaults.ShortlistSize)
		v.SetDefault("funnel.scorerTimeoutMs", defaults.ScorerTimeoutMS)
		v.SetDefault("funnel.generationLockTtlSeconds", defaults.GenerationLockTTLSeconds)
	}

	var cfg FunnelConfig
	if err := v.UnmarshalKey("funnel", &cfg); err != nil {
		return nil, err
	}
	if err := validateFunnelConfig(cfg); err != nil {
		return nil, err
	}

	holder := &FunnelConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated FunnelConfig
		if err := v.UnmarshalKey("funnel", &updated); err != nil {
			log.Printf("[funnel-config] reload failed: %v", err)
			return
		}
		if err := validateFunnelConfig(updated); err != nil {
			log.Printf("[funnel-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[funnel-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *FunnelConfigHolder) Get() FunnelConfig {
	return h.current.Load().(FunnelConfig)
}

func validateFunnelConfig(cfg FunnelConfig) error {
	if cfg.EligibilityThreshold < 1 {
		return errors.New("funnel.eligibilityThreshold must be at least 1")
	}
	if cfg.ShortlistSize < 1 {
		return errors.New("funnel.shortlistSize must be at least 1")
	}
	if cfg.ScorerTimeoutMS < 1 {
		return errors.New("funnel.scorerTimeoutMs must be positive")
	}
	if cfg.GenerationLockTTLSeconds < 1 {
		return errors.New("funnel.generationLockTtlSeconds must be positive")
	}
	return nil
}
