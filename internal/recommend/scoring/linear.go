// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package scoring

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/tomtom215/shelfcast/internal/recommend"
)

// LinearConfig holds the coefficients of the Linear scorer.
type LinearConfig struct {
	// Bias is the intercept.
	Bias float64 `json:"bias"`

	// FeatureWeights maps feature names (recommend.FeatureNames) to coefficients.
	FeatureWeights map[string]float64 `json:"feature_weights"`

	// SourceBonus maps source tag names to an additive bonus.
	SourceBonus map[string]float64 `json:"source_bonus"`
}

// DefaultLinearConfig returns hand-tuned coefficients that favor items the
// customer already buys and active customers.
func DefaultLinearConfig() LinearConfig {
	return LinearConfig{
		Bias: -2.0,
		FeatureWeights: map[string]float64{
			"purchase_frequency":       0.3,
			"is_power_user":            0.5,
			"days_since_last_purchase": -0.01,
			"is_new_customer":          -0.3,
		},
		SourceBonus: map[string]float64{
			"positive":     2.5,
			"cooccurrence": 1.0,
			"category":     0.5,
			"popularity":   0.3,
		},
	}
}

// Linear is a logistic model over the feature vector plus per-source bonuses.
// It has no fitted state and is safe for concurrent use.
type Linear struct {
	bias    float64
	weights []float64
	bonus   []sourceBonus
}

// sourceBonus is kept in tag bit order so the sum is evaluated in a fixed order.
type sourceBonus struct {
	tag   recommend.SourceSet
	value float64
}

// NewLinear validates cfg and builds the scorer.
func NewLinear(cfg LinearConfig) (*Linear, error) {
	l := &Linear{
		bias:    cfg.Bias,
		weights: make([]float64, len(recommend.FeatureNames)),
	}
	for name, w := range cfg.FeatureWeights {
		i := slices.Index(recommend.FeatureNames, name)
		if i < 0 {
			return nil, fmt.Errorf("linear scorer: unknown feature %q", name)
		}
		l.weights[i] = w
	}
	for name := range cfg.SourceBonus {
		if _, ok := sourceByName(name); !ok {
			return nil, fmt.Errorf("linear scorer: unknown source %q", name)
		}
	}
	for _, tag := range recommend.AllSources() {
		if b, ok := cfg.SourceBonus[tag.String()]; ok {
			l.bonus = append(l.bonus, sourceBonus{tag: tag, value: b})
		}
	}
	return l, nil
}

func sourceByName(name string) (recommend.SourceSet, bool) {
	for _, tag := range recommend.AllSources() {
		if tag.String() == name {
			return tag, true
		}
	}
	return 0, false
}

// Name returns "linear".
func (l *Linear) Name() string {
	return "linear"
}

// Score returns sigmoid(bias + w·x + bonuses).
//
//nolint:gocritic // hugeParam: signature fixed by the Scorer interface
func (l *Linear) Score(_ context.Context, features recommend.CustomerFeatureVector, c recommend.Candidate) (float64, error) {
	z := l.bias
	for i, v := range features.Values() {
		z += l.weights[i] * v
	}
	for _, b := range l.bonus {
		if c.Sources.Has(b.tag) {
			z += b.value
		}
	}
	return 1 / (1 + math.Exp(-z)), nil
}
