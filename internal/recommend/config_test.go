// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"errors"
	"slices"
	"testing"

	"github.com/goccy/go-json"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("window lengths match the reference run", func(t *testing.T) {
		if cfg.Windows.HistoricalDays != 90 || cfg.Windows.RecentDays != 30 || cfg.Windows.HoldoutDays != 30 {
			t.Errorf("Windows = %+v, want 90/30/30", cfg.Windows)
		}
	})

	t.Run("feature thresholds", func(t *testing.T) {
		if cfg.Features.PowerUserThreshold != 13 {
			t.Errorf("PowerUserThreshold = %d, want 13", cfg.Features.PowerUserThreshold)
		}
		if cfg.Features.NewCustomerThreshold != 3 {
			t.Errorf("NewCustomerThreshold = %d, want 3", cfg.Features.NewCustomerThreshold)
		}
		if cfg.Features.MissingDimensionPolicy != MissingDimensionZero {
			t.Errorf("MissingDimensionPolicy = %q, want zero", cfg.Features.MissingDimensionPolicy)
		}
	})

	t.Run("candidate sources", func(t *testing.T) {
		c := cfg.Candidates
		if !c.EnablePositive || !c.EnablePopularity || !c.EnableCategory {
			t.Error("core sources should be enabled by default")
		}
		if c.EnableCooccurrence {
			t.Error("co-occurrence should be disabled by default")
		}
		if c.PopularityTopN != 50 || c.CategoryCapPerCustomer != 200 {
			t.Errorf("caps = %d/%d, want 50/200", c.PopularityTopN, c.CategoryCapPerCustomer)
		}
	})

	t.Run("workers default to at least one", func(t *testing.T) {
		if cfg.Limits.Workers < 1 {
			t.Errorf("Workers = %d, want >= 1", cfg.Limits.Workers)
		}
	})

	t.Run("seed is set for determinism", func(t *testing.T) {
		if cfg.Seed == 0 {
			t.Error("Seed = 0, want non-zero for determinism")
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{
			name:      "valid default config",
			modify:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "zero historical window",
			modify:    func(c *Config) { c.Windows.HistoricalDays = 0 },
			wantError: true,
		},
		{
			name:      "negative recent window",
			modify:    func(c *Config) { c.Windows.RecentDays = -1 },
			wantError: true,
		},
		{
			name:      "zero holdout window",
			modify:    func(c *Config) { c.Windows.HoldoutDays = 0 },
			wantError: true,
		},
		{
			name:      "zero power user threshold",
			modify:    func(c *Config) { c.Features.PowerUserThreshold = 0 },
			wantError: true,
		},
		{
			name:      "unknown missing dimension policy",
			modify:    func(c *Config) { c.Features.MissingDimensionPolicy = "drop" },
			wantError: true,
		},
		{
			name: "all sources disabled",
			modify: func(c *Config) {
				c.Candidates.EnablePositive = false
				c.Candidates.EnablePopularity = false
				c.Candidates.EnableCategory = false
			},
			wantError: true,
		},
		{
			name:      "zero popularity top n",
			modify:    func(c *Config) { c.Candidates.PopularityTopN = 0 },
			wantError: true,
		},
		{
			name: "zero popularity top n with source disabled",
			modify: func(c *Config) {
				c.Candidates.PopularityTopN = 0
				c.Candidates.EnablePopularity = false
			},
			wantError: false,
		},
		{
			name:      "zero category cap",
			modify:    func(c *Config) { c.Candidates.CategoryCapPerCustomer = 0 },
			wantError: true,
		},
		{
			name:      "zero k",
			modify:    func(c *Config) { c.Evaluation.K = 0 },
			wantError: true,
		},
		{
			name:      "negative extra k",
			modify:    func(c *Config) { c.Evaluation.KValues = []int{5, -1} },
			wantError: true,
		},
		{
			name:      "zero workers",
			modify:    func(c *Config) { c.Limits.Workers = 0 },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantError && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if err != nil && !errors.Is(err, ErrConfiguration) {
				t.Errorf("Validate() error %v is not a ConfigurationError", err)
			}
		})
	}
}

func TestEvaluationConfig_Cutoffs(t *testing.T) {
	e := EvaluationConfig{K: 12, KValues: []int{20, 5, 10, 5}}
	got := e.Cutoffs()
	want := []int{5, 10, 12, 20}
	if !slices.Equal(got, want) {
		t.Errorf("Cutoffs() = %v, want %v", got, want)
	}
}

func TestConfig_Clone(t *testing.T) {
	original := DefaultConfig()
	original.Candidates.PopularityTopN = 99

	clone := original.Clone()

	t.Run("clone has same values", func(t *testing.T) {
		if clone.Candidates.PopularityTopN != 99 {
			t.Errorf("clone.Candidates.PopularityTopN = %d, want 99", clone.Candidates.PopularityTopN)
		}
	})

	t.Run("clone is independent", func(t *testing.T) {
		clone.Evaluation.KValues[0] = 1000
		if original.Evaluation.KValues[0] == 1000 {
			t.Error("modifying clone affected original")
		}
	})
}

func TestConfig_Hash(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	b.Limits.Workers = a.Limits.Workers + 7

	ha, err := a.Hash()
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	hb, err := b.Hash()
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if ha != hb {
		t.Error("worker count should not change the config hash")
	}

	b.Seed = 7
	hc, _ := b.Hash()
	if hc == ha {
		t.Error("seed change should change the config hash")
	}
}

func TestConfig_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	limits, ok := parsed["limits"].(map[string]interface{})
	if !ok {
		t.Fatal("limits field not found or wrong type")
	}
	if timeout, ok := limits["timeout"].(string); !ok || timeout != "30m0s" {
		t.Errorf("limits.timeout = %v, want \"30m0s\"", limits["timeout"])
	}
}
