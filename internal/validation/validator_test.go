// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package validation

import (
	"strings"
	"testing"
	"time"
)

type sourceSpec struct {
	Format string `validate:"oneof=parquet csv table"`
	URI    string `validate:"required"`
}

type testConfig struct {
	Name    string     `validate:"required,min=2,max=20"`
	Workers int        `validate:"min=1"`
	Topic   string     `validate:"omitempty,max=5"`
	Source  sourceSpec
}

func validConfig() testConfig {
	return testConfig{
		Name:    "shelfcast",
		Workers: 4,
		Source:  sourceSpec{Format: "parquet", URI: "data/*.parquet"},
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() returned different instances")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*testConfig)
		wantError bool
		wantTag   string
		wantMsg   string
	}{
		{name: "valid", modify: func(*testConfig) {}},
		{name: "missing name", modify: func(c *testConfig) { c.Name = "" }, wantError: true, wantTag: "required", wantMsg: "testConfig.Name is required"},
		{name: "short name", modify: func(c *testConfig) { c.Name = "x" }, wantError: true, wantTag: "min", wantMsg: "at least 2 characters"},
		{name: "zero workers", modify: func(c *testConfig) { c.Workers = 0 }, wantError: true, wantTag: "min", wantMsg: "testConfig.Workers must be at least 1"},
		{name: "long topic", modify: func(c *testConfig) { c.Topic = "toolong" }, wantError: true, wantTag: "max", wantMsg: "at most 5 characters"},
		{name: "bad nested format", modify: func(c *testConfig) { c.Source.Format = "orc" }, wantError: true, wantTag: "oneof", wantMsg: "testConfig.Source.Format must be one of: parquet csv table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := ValidateStruct(&cfg)
			if !tt.wantError {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if len(err.Errors()) != 1 {
				t.Fatalf("got %d field errors, want 1: %v", len(err.Errors()), err)
			}
			fe := err.Errors()[0]
			if fe.Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", fe.Tag(), tt.wantTag)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Name = ""
	cfg.Workers = -1

	err := ValidateStruct(&cfg)
	if err == nil || len(err.Errors()) != 2 {
		t.Fatalf("ValidateStruct() = %v, want 2 errors", err)
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Error() = %q, want joined messages", err.Error())
	}
}

type row struct {
	ID        int64     `validate:"gte=0"`
	Timestamp time.Time `validate:"required"`
}

func TestValidateRows(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := ValidateRows("rows", []row{{ID: 1, Timestamp: ts}, {ID: 0, Timestamp: ts}}); err != nil {
		t.Fatalf("ValidateRows(valid) = %v", err)
	}

	rows := make([]row, 0, 10)
	rows = append(rows, row{ID: 1, Timestamp: ts})
	for i := 0; i < 8; i++ {
		rows = append(rows, row{ID: -1, Timestamp: ts})
	}
	rows = append(rows, row{ID: 2})

	err := ValidateRows("transactions", rows)
	if err == nil {
		t.Fatal("ValidateRows() = nil, want error")
	}
	if err.Invalid != 9 {
		t.Errorf("Invalid = %d, want 9", err.Invalid)
	}
	if len(err.Failures) != maxRowErrors {
		t.Errorf("kept %d failures, want %d", len(err.Failures), maxRowErrors)
	}
	if err.Failures[0].Index != 1 {
		t.Errorf("first failure index = %d, want 1", err.Failures[0].Index)
	}
	if !strings.HasPrefix(err.Error(), "transactions: 9 invalid rows") {
		t.Errorf("Error() = %q", err.Error())
	}
}
