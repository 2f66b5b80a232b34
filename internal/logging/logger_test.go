// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
		valid bool
	}{
		{"trace", zerolog.TraceLevel, true},
		{"DEBUG", zerolog.DebugLevel, true},
		{"info", zerolog.InfoLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"disabled", zerolog.Disabled, true},
		{"verbose", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got := ValidLevel(tt.input); got != tt.valid {
				t.Errorf("ValidLevel(%q) = %v, want %v", tt.input, got, tt.valid)
			}
		})
	}
}

func TestInit(t *testing.T) {
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})

	Info().Msg("hidden")
	Warn().Str("stage", "features").Msg("visible")
	Err(errors.New("boom")).Msg("failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message written at warn level")
	}
	if !strings.Contains(out, `"stage":"features"`) || !strings.Contains(out, `"message":"visible"`) {
		t.Errorf("warn message missing: %s", out)
	}
	if !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("error field missing: %s", out)
	}
}

func TestInit_Console(t *testing.T) {
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf})
	Info().Msg("console output")

	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("console format wrote JSON: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "console output") {
		t.Errorf("message missing: %s", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(NewTestLogger(&buf), "planner")
	logger.Info().Msg("planned")

	if !strings.Contains(buf.String(), `"component":"planner"`) {
		t.Errorf("component field missing: %s", buf.String())
	}
}
