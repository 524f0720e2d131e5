// Package config provides run configuration parsing and validation.
package config

import (
	"fmt"
	"time"

	"github.com/wesleyorama2/stampede/internal/schedule"
)

// RunConfig is the root configuration for one load-generation run.
//
// Example YAML:
//
//	name: "checkout flow"
//	target: "https://api.example.com"
//	users: 25
//	duration: 2m
//	spawnInterval: 100ms
//	pacing:
//	  type: random
//	  min: 200ms
//	  max: 800ms
//	categories:
//	  base:
//	    mode: fixed-sequential
//	    fixedTaskSets: [login, browse]
type RunConfig struct {
	// Name of the run (for reporting).
	Name string `json:"name" yaml:"name"`

	// Target is the base URL handed to the HTTP session factory.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Users is the number of virtual users to simulate.
	Users int `json:"users" yaml:"users"`

	// Duration is how long to run (e.g. "30s", "2m"). Empty runs until
	// interrupted.
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`

	// SpawnInterval is the delay between consecutive user starts.
	SpawnInterval string `json:"spawnInterval,omitempty" yaml:"spawnInterval,omitempty"`

	// Exclusive keeps every user pinned to its current task-set; no
	// automatic task-set rotation happens.
	Exclusive bool `json:"exclusive,omitempty" yaml:"exclusive,omitempty"`

	// Pacing controls the wait between task executions.
	Pacing *PacingConfig `json:"pacing,omitempty" yaml:"pacing,omitempty"`

	// Categories override per-category scheduling, keyed by category name
	// (base, functional, coverage, user-defined-1, user-defined-2).
	Categories map[string]*CategoryConfig `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// CategoryConfig overrides the schedule of one category.
type CategoryConfig struct {
	// Mode is the schedule mode: "sequential", "randomized",
	// "fixed-sequential", "fixed-randomized".
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// FixedTaskSets restricts scheduling to the named task-sets, in this
	// order. Required for the fixed modes.
	FixedTaskSets []string `json:"fixedTaskSets,omitempty" yaml:"fixedTaskSets,omitempty"`
}

// PacingConfig controls pacing between task executions.
type PacingConfig struct {
	// Type is the pacing strategy: "none", "constant", "random",
	// "throughput".
	Type string `json:"type" yaml:"type"`

	// Duration is the wait time for constant pacing.
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`

	// Min is the minimum wait time for random pacing.
	Min string `json:"min,omitempty" yaml:"min,omitempty"`

	// Max is the maximum wait time for random pacing.
	Max string `json:"max,omitempty" yaml:"max,omitempty"`

	// Rate is tasks per second per user for throughput pacing.
	Rate float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
}

// GetDuration returns the parsed run duration, or 0 when unset.
func (c *RunConfig) GetDuration() (time.Duration, error) {
	return parseOptionalDuration(c.Duration)
}

// GetSpawnInterval returns the parsed spawn interval, or 0 when unset.
func (c *RunConfig) GetSpawnInterval() (time.Duration, error) {
	return parseOptionalDuration(c.SpawnInterval)
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// ParseScheduleMode parses a schedule mode name.
func ParseScheduleMode(s string) (schedule.ScheduleMode, error) {
	switch s {
	case "sequential":
		return schedule.Sequential, nil
	case "randomized":
		return schedule.Randomized, nil
	case "fixed-sequential":
		return schedule.FixedSequential, nil
	case "fixed-randomized":
		return schedule.FixedRandomized, nil
	default:
		return 0, fmt.Errorf("unknown schedule mode: %q", s)
	}
}

// ParseCategory parses a category name.
func ParseCategory(s string) (schedule.Category, error) {
	for _, c := range schedule.Categories() {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category: %q", s)
}
