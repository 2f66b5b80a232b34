// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"strings"
	"time"
)

// Transaction is a single purchase in the append-only log.
type Transaction struct {
	// CustomerID identifies the purchasing customer. Must be positive.
	CustomerID int64 `json:"customer_id" validate:"gt=0"`

	// ItemID identifies the purchased item. Must be positive.
	ItemID int64 `json:"item_id" validate:"gt=0"`

	// Timestamp is when the purchase happened.
	Timestamp time.Time `json:"timestamp" validate:"required"`

	// OrderID groups purchases into a basket. Zero when the source has no order column.
	OrderID int64 `json:"order_id,omitempty" validate:"gte=0"`
}

// Item is a row of the item dimension.
type Item struct {
	ItemID   int64  `json:"item_id" validate:"gt=0"`
	Brand    string `json:"brand"`
	AgeGroup string `json:"age_group"`
	Category string `json:"category"`
}

// User is a row of the user dimension. None of the built-in features read it;
// it is loaded so extensions can join on date of birth.
type User struct {
	CustomerID  int64      `json:"customer_id" validate:"gt=0"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

// Dataset holds the three input tables of a run.
type Dataset struct {
	Transactions []Transaction
	Items        []Item
	Users        []User
}

// WindowName names one of the three run windows.
type WindowName string

const (
	// WindowHistorical seeds feature derivation.
	WindowHistorical WindowName = "historical"
	// WindowRecent defines training labels.
	WindowRecent WindowName = "recent"
	// WindowHoldout is used only for evaluation.
	WindowHoldout WindowName = "holdout"
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Name  WindowName `json:"name"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Windows is the set of windows planned for one run.
type Windows struct {
	Historical Window `json:"historical"`
	Recent     Window `json:"recent"`
	Holdout    Window `json:"holdout"`
}

// All returns the windows in chronological order.
func (w Windows) All() []Window {
	return []Window{w.Historical, w.Recent, w.Holdout}
}

// SourceSet records which candidate sources proposed a pair.
// It is a closed set of tags stored as a bitmask.
type SourceSet uint8

const (
	// SourcePositive marks pairs purchased in the recent window.
	SourcePositive SourceSet = 1 << iota
	// SourcePopularity marks pairs from the historical top-N cross join.
	SourcePopularity
	// SourceCategory marks pairs sampled from the customer's historical categories.
	SourceCategory
	// SourceCooccurrence marks pairs proposed from basket co-occurrence.
	SourceCooccurrence
)

// sourceNames lists the tags in bit order.
var sourceNames = []struct {
	tag  SourceSet
	name string
}{
	{SourcePositive, "positive"},
	{SourcePopularity, "popularity"},
	{SourceCategory, "category"},
	{SourceCooccurrence, "cooccurrence"},
}

// AllSources returns every known tag in bit order.
func AllSources() []SourceSet {
	out := make([]SourceSet, len(sourceNames))
	for i, s := range sourceNames {
		out[i] = s.tag
	}
	return out
}

// Has reports whether all tags in other are present.
func (s SourceSet) Has(other SourceSet) bool {
	return s&other == other
}

// Names returns the tag names present in the set.
func (s SourceSet) Names() []string {
	names := make([]string, 0, len(sourceNames))
	for _, sn := range sourceNames {
		if s.Has(sn.tag) {
			names = append(names, sn.name)
		}
	}
	return names
}

// String joins the tag names with '|'.
func (s SourceSet) String() string {
	if s == 0 {
		return "none"
	}
	return strings.Join(s.Names(), "|")
}

// Candidate is a (customer, item) pair proposed for scoring.
// Sources is provenance only and carries no scoring weight.
type Candidate struct {
	CustomerID int64     `json:"customer_id"`
	ItemID     int64     `json:"item_id"`
	Sources    SourceSet `json:"source_tags"`
}

// LabeledCandidate is a candidate with its training label.
type LabeledCandidate struct {
	Candidate
	Label uint8 `json:"label"`
}

// ScoredCandidate is a candidate with a relevance score from a scorer.
type ScoredCandidate struct {
	Candidate
	Score float64 `json:"score"`
}

// FeatureNames lists the customer feature columns in output order.
var FeatureNames = []string{
	"brand_count",
	"age_group_count",
	"category_count",
	"days_since_last_purchase",
	"purchase_frequency",
	"is_power_user",
	"avg_items_per_day",
	"top_brand_ratio",
	"brand_diversity",
	"category_diversity",
	"weekday_mode",
	"is_new_customer",
	"avg_item_popularity",
}

// CustomerFeatureVector is the historical profile of one customer.
type CustomerFeatureVector struct {
	CustomerID            int64   `json:"customer_id"`
	BrandCount            float64 `json:"brand_count"`
	AgeGroupCount         float64 `json:"age_group_count"`
	CategoryCount         float64 `json:"category_count"`
	DaysSinceLastPurchase float64 `json:"days_since_last_purchase"`
	PurchaseFrequency     float64 `json:"purchase_frequency"`
	IsPowerUser           float64 `json:"is_power_user"`
	AvgItemsPerDay        float64 `json:"avg_items_per_day"`
	TopBrandRatio         float64 `json:"top_brand_ratio"`
	BrandDiversity        float64 `json:"brand_diversity"`
	CategoryDiversity     float64 `json:"category_diversity"`
	WeekdayMode           float64 `json:"weekday_mode"`
	IsNewCustomer         float64 `json:"is_new_customer"`
	AvgItemPopularity     float64 `json:"avg_item_popularity"`
}

// Values returns the features in FeatureNames order.
//
//nolint:gocritic // value receiver keeps vectors immutable
func (v CustomerFeatureVector) Values() []float64 {
	return []float64{
		v.BrandCount,
		v.AgeGroupCount,
		v.CategoryCount,
		v.DaysSinceLastPurchase,
		v.PurchaseFrequency,
		v.IsPowerUser,
		v.AvgItemsPerDay,
		v.TopBrandRatio,
		v.BrandDiversity,
		v.CategoryDiversity,
		v.WeekdayMode,
		v.IsNewCustomer,
		v.AvgItemPopularity,
	}
}
