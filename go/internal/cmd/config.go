package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/fieldzone/go/internal/disco"
	"github.com/mcdev12/fieldzone/go/internal/flags"
	"github.com/mcdev12/fieldzone/go/internal/poller"
	"github.com/mcdev12/fieldzone/go/internal/possession"
)

// Config holds optional YAML tuning for the poll loop and demo mode.
// Anything left zero falls back to the package defaults; operational
// settings (ports, credentials, rate limits) come from the environment.
type Config struct {
	Poller struct {
		IntervalMS     int     `yaml:"interval_ms"`
		JitterRatio    float64 `yaml:"jitter_ratio"`
		ScanEveryTicks int     `yaml:"scan_every_ticks"`
	} `yaml:"poller"`
	Disco struct {
		SeedGames      int      `yaml:"seed_games"`
		CycleLengthSec int      `yaml:"cycle_length_sec"`
		Networks       []string `yaml:"networks"`
	} `yaml:"disco"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	var config Config
	if path == "" {
		return &config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

func (c *Config) pollerConfig() poller.Config {
	cfg := poller.DefaultConfig()
	if ms := getEnvAsInt("FZ_POLL_MS_STATUS", c.Poller.IntervalMS); ms > 0 {
		cfg.Interval = time.Duration(ms) * time.Millisecond
	}
	if c.Poller.JitterRatio > 0 {
		cfg.JitterRatio = c.Poller.JitterRatio
	}
	if c.Poller.ScanEveryTicks > 0 {
		cfg.ScanEveryTicks = c.Poller.ScanEveryTicks
	}
	return cfg
}

func (c *Config) discoConfig() disco.Config {
	cfg := disco.DefaultConfig()
	if c.Disco.SeedGames > 0 {
		cfg.SeedGames = c.Disco.SeedGames
	}
	if c.Disco.CycleLengthSec > 0 {
		cfg.CycleLength = time.Duration(c.Disco.CycleLengthSec) * time.Second
	}
	if len(c.Disco.Networks) > 0 {
		cfg.Networks = c.Disco.Networks
	}
	cfg.TTL = liveTTL()
	return cfg
}

func trackerConfig() possession.Config {
	cfg := possession.DefaultConfig()
	cfg.Concurrency = getEnvAsInt("FZ_SCAN_CONCURRENCY", cfg.Concurrency)
	cfg.TTL = liveTTL()
	return cfg
}

func scannerConfig() flags.Config {
	cfg := flags.DefaultConfig()
	cfg.Concurrency = getEnvAsInt("FZ_SCAN_CONCURRENCY", cfg.Concurrency)
	cfg.TTL = liveTTL()
	return cfg
}

func liveTTL() time.Duration {
	return time.Duration(getEnvAsInt("FZ_LIVE_TTL_SEC", 120)) * time.Second
}
