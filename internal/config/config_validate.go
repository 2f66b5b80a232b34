// Shelfcast - Purchase Prediction and Candidate Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package config

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/validation"
)

// Validate checks struct tags first, then the rules that span fields.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if _, err := c.Pipeline.Recommend(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	if err := c.validateSchedule(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	return c.validateHistory()
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is invalid: want trace, debug, info, warn or error", c.Logging.Level)
	}
	return nil
}

// validateSchedule parses the cron expression the daemon will use.
func (c *Config) validateSchedule() error {
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("SCHEDULE_CRON %q is invalid: %w", c.Schedule.Cron, err)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.Backend == BackendNATS && c.Events.URL == "" {
		return fmt.Errorf("NATS_URL is required when EVENTS_BACKEND=nats")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("HISTORY_PATH is required when HISTORY_ENABLED=true")
	}
	return nil
}
