package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Config holds tunable thresholds for translation diagnostics and diff
// reporting.
type Config struct {
	Translate TranslateConfig `json:"translate"`
	Diff      DiffConfig      `json:"diff"`
}

// TranslateConfig defines thresholds for narrative warnings and
// recommendations.
type TranslateConfig struct {
	SeqScanRowWarning   float64 `json:"seq_scan_row_warning"`
	TotalCostWarning    float64 `json:"total_cost_warning"`
	RowDriftRatio       float64 `json:"row_drift_ratio"`
	NestedLoopWarnLoops int64   `json:"nested_loop_warn_loops"`
	FilterRemovedRatio  float64 `json:"filter_removed_ratio"`
}

// DiffConfig defines thresholds for diff summaries.
type DiffConfig struct {
	MinSelfDeltaMs   float64 `json:"min_self_delta_ms"`
	MinCostDelta     float64 `json:"min_cost_delta"`
	MinPercentChange float64 `json:"min_percent_change"`
	MaxItems         int     `json:"max_items"`
}

var (
	mu     sync.RWMutex
	active = Default()
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Translate: TranslateConfig{
			SeqScanRowWarning:   10000,
			TotalCostWarning:    1000,
			RowDriftRatio:       0.5,
			NestedLoopWarnLoops: 100,
			FilterRemovedRatio:  0.9,
		},
		Diff: DiffConfig{
			MinSelfDeltaMs:   2.0,
			MinCostDelta:     10.0,
			MinPercentChange: 5.0,
			MaxItems:         8,
		},
	}
}

// Active returns the currently applied configuration.
func Active() Config {
	mu.RLock()
	defer mu.RUnlock()
	return active
}

// Use replaces the active configuration.
func Use(cfg Config) {
	mu.Lock()
	active = cfg
	mu.Unlock()
}

// Apply loads configuration from the provided path (JSON). Empty path resets
// to default.
func Apply(path string) error {
	if path == "" {
		Use(Default())
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	Use(cfg)
	return nil
}
