// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	if got := RunIDFromContext(ctx); got != "" {
		t.Errorf("RunIDFromContext(empty) = %q, want empty", got)
	}

	ctx = ContextWithRunID(ctx, "run-1")
	if got := RunIDFromContext(ctx); got != "run-1" {
		t.Errorf("RunIDFromContext() = %q, want run-1", got)
	}

	ctx, id := ContextWithNewRunID(context.Background())
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("generated run id %q is not a UUID: %v", id, err)
	}
	if RunIDFromContext(ctx) != id {
		t.Error("generated run id not stored in context")
	}
	if GenerateRunID() == GenerateRunID() {
		t.Error("GenerateRunID returned duplicate ids")
	}
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRunID(ctx, "run-42")

	Ctx(ctx).Info().Msg("stage done")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run-42"`) {
		t.Errorf("run_id missing: %s", out)
	}
	if !strings.Contains(out, "stage done") {
		t.Errorf("message missing: %s", out)
	}
}

func TestLoggerFromContext_FallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(NewTestLogger(&buf))
	t.Cleanup(func() { SetLogger(prev) })

	l := LoggerFromContext(context.Background())
	l.Info().Msg("global")

	if !strings.Contains(buf.String(), "global") {
		t.Errorf("global logger not used: %s", buf.String())
	}
}
