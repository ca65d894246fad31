// Package simconfig holds the JSON-loadable configuration for a cache
// hierarchy simulation run: one Policy per level plus the enabled
// technique.
package simconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/archlab/cachesim/cache"
)

// Config describes a full multi-level hierarchy run.
type Config struct {
	// Technique selects the L1 enhancement: "none", "prefetch", "fifo",
	// or "victim".
	Technique string `json:"technique"`

	L1     LevelConfig `json:"l1"`
	L2     LevelConfig `json:"l2"`
	L3     LevelConfig `json:"l3"`
	Victim LevelConfig `json:"victim"`
}

// LevelConfig is the JSON representation of a cache.Policy.
type LevelConfig struct {
	CacheSize     int    `json:"cache_size"`
	BlockSize     int    `json:"block_size"`
	Associativity int    `json:"associativity"`
	HitLatency    uint64 `json:"hit_latency"`
	MissLatency   uint64 `json:"miss_latency"`
}

// Policy converts a LevelConfig into a cache.Policy, computing BlockNum.
func (lc LevelConfig) Policy() cache.Policy {
	blockNum := 0
	if lc.BlockSize > 0 {
		blockNum = lc.CacheSize / lc.BlockSize
	}
	return cache.Policy{
		CacheSize:     lc.CacheSize,
		BlockSize:     lc.BlockSize,
		BlockNum:      blockNum,
		Associativity: lc.Associativity,
		HitLatency:    lc.HitLatency,
		MissLatency:   lc.MissLatency,
	}
}

// Default returns the reference configuration: L1 32KiB/64B/8-way,
// L2 256KiB/64B/8-way, L3 8MiB/64B/8-way, and an 8KiB fully-associative
// victim buffer, with no technique enabled.
func Default() *Config {
	return &Config{
		Technique: "none",
		L1:        LevelConfig{CacheSize: 32 * 1024, BlockSize: 64, Associativity: 8, HitLatency: 1, MissLatency: 8},
		L2:        LevelConfig{CacheSize: 256 * 1024, BlockSize: 64, Associativity: 8, HitLatency: 8, MissLatency: 20},
		L3:        LevelConfig{CacheSize: 8 * 1024 * 1024, BlockSize: 64, Associativity: 8, HitLatency: 20, MissLatency: 100},
		Victim:    LevelConfig{CacheSize: 8 * 1024, BlockSize: 64, Associativity: 128, HitLatency: 1, MissLatency: 8},
	}
}

// DefaultUnifiedPolicy returns the single-level unified cache
// configuration: 16 KiB, 64-byte blocks, direct-mapped, hit latency 1,
// miss latency 100.
func DefaultUnifiedPolicy() cache.Policy {
	return LevelConfig{CacheSize: 16 * 1024, BlockSize: 64, Associativity: 1, HitLatency: 1, MissLatency: 100}.Policy()
}

// DefaultSplitPolicy returns the policy shared by the split I and D
// caches: 8 KiB each, 64-byte blocks, direct-mapped, hit latency 1,
// miss latency 100 — half the unified cache's size each.
func DefaultSplitPolicy() cache.Policy {
	return LevelConfig{CacheSize: 8 * 1024, BlockSize: 64, Associativity: 1, HitLatency: 1, MissLatency: 100}.Policy()
}

// Load reads a JSON configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse cache config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}
	return nil
}

// TechniqueValue converts the Technique string field into a cache.Technique.
func (c *Config) TechniqueValue() (cache.Technique, error) {
	switch c.Technique {
	case "", "none":
		return cache.TechniqueNone, nil
	case "prefetch":
		return cache.TechniquePrefetch, nil
	case "fifo":
		return cache.TechniqueFIFO, nil
	case "victim":
		return cache.TechniqueVictim, nil
	default:
		return cache.TechniqueNone, fmt.Errorf("unknown technique %q", c.Technique)
	}
}

// Validate checks every level's policy invariants.
func (c *Config) Validate() error {
	technique, err := c.TechniqueValue()
	if err != nil {
		return err
	}

	l1 := c.L1.Policy()
	if technique == cache.TechniqueFIFO {
		l1.Associativity = l1.BlockNum
	}
	if err := l1.Validate(); err != nil {
		return fmt.Errorf("l1: %w", err)
	}
	if err := c.L2.Policy().Validate(); err != nil {
		return fmt.Errorf("l2: %w", err)
	}
	if err := c.L3.Policy().Validate(); err != nil {
		return fmt.Errorf("l3: %w", err)
	}
	if technique == cache.TechniqueVictim {
		if err := c.Victim.Policy().Validate(); err != nil {
			return fmt.Errorf("victim: %w", err)
		}
	}
	return nil
}
