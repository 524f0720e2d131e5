package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wesleyorama2/stampede/internal/schedule"
)

const validYAML = `
name: "checkout flow"
target: "http://localhost:8080"
users: 10
duration: 2m
spawnInterval: 100ms
pacing:
  type: random
  min: 200ms
  max: 800ms
categories:
  base:
    mode: fixed-sequential
    fixedTaskSets: [login, browse]
  coverage:
    mode: randomized
`

func TestParseValidConfig(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Name != "checkout flow" {
		t.Errorf("name: got %q", cfg.Name)
	}
	if cfg.Users != 10 {
		t.Errorf("users: got %d", cfg.Users)
	}

	d, err := cfg.GetDuration()
	if err != nil || d != 2*time.Minute {
		t.Errorf("duration: got %v, %v", d, err)
	}
	si, err := cfg.GetSpawnInterval()
	if err != nil || si != 100*time.Millisecond {
		t.Errorf("spawnInterval: got %v, %v", si, err)
	}

	if cfg.Pacing == nil || cfg.Pacing.Type != "random" {
		t.Fatalf("pacing: got %+v", cfg.Pacing)
	}

	base := cfg.Categories["base"]
	if base == nil || base.Mode != "fixed-sequential" {
		t.Fatalf("categories.base: got %+v", base)
	}
	if len(base.FixedTaskSets) != 2 || base.FixedTaskSets[0] != "login" {
		t.Errorf("fixedTaskSets: got %v", base.FixedTaskSets)
	}
}

func TestParseRejectsMissingRequiredFields(t *testing.T) {
	_, err := Parse([]byte(`target: "http://localhost"`))
	if err == nil {
		t.Fatal("expected schema validation to fail")
	}
	if !strings.Contains(err.Error(), "schema") {
		t.Errorf("expected schema error, got: %v", err)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("name: x\nusers: 1\nbogus: true\n"))
	if err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestParseRejectsUnknownPacingType(t *testing.T) {
	_, err := Parse([]byte("name: x\nusers: 1\npacing:\n  type: warp\n"))
	if err == nil {
		t.Fatal("expected unknown pacing type to be rejected")
	}
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte("name: x\nusers: 1\nduration: fast\n"))
	if err == nil {
		t.Fatal("expected invalid duration to be rejected")
	}
}

func TestValidateConstantPacingRequiresDuration(t *testing.T) {
	_, err := Parse([]byte("name: x\nusers: 1\npacing:\n  type: constant\n"))
	if err == nil {
		t.Fatal("expected missing pacing duration to be rejected")
	}
}

func TestValidateRandomPacingBounds(t *testing.T) {
	yaml := "name: x\nusers: 1\npacing:\n  type: random\n  min: 5s\n  max: 1s\n"
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected min > max to be rejected")
	}
}

func TestValidateThroughputPacingRequiresRate(t *testing.T) {
	_, err := Parse([]byte("name: x\nusers: 1\npacing:\n  type: throughput\n"))
	if err == nil {
		t.Fatal("expected missing rate to be rejected")
	}
}

func TestValidateFixedModeRequiresTaskSets(t *testing.T) {
	yaml := "name: x\nusers: 1\ncategories:\n  base:\n    mode: fixed-sequential\n"
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected fixed mode without task-sets to be rejected")
	}
}

func TestValidateFixedTaskSetsRequireFixedMode(t *testing.T) {
	yaml := "name: x\nusers: 1\ncategories:\n  base:\n    mode: sequential\n    fixedTaskSets: [a]\n"
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected fixed task-sets on sequential mode to be rejected")
	}
}

func TestParseRejectsUnknownCategoryName(t *testing.T) {
	yaml := "name: x\nusers: 1\ncategories:\n  sideways:\n    mode: sequential\n"
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("expected unknown category name to be rejected")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "checkout flow" {
		t.Errorf("name: got %q", cfg.Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseScheduleMode(t *testing.T) {
	cases := map[string]schedule.ScheduleMode{
		"sequential":       schedule.Sequential,
		"randomized":       schedule.Randomized,
		"fixed-sequential": schedule.FixedSequential,
		"fixed-randomized": schedule.FixedRandomized,
	}
	for name, want := range cases {
		got, err := ParseScheduleMode(name)
		if err != nil || got != want {
			t.Errorf("ParseScheduleMode(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseScheduleMode("shuffled"); err == nil {
		t.Error("expected unknown mode to be rejected")
	}
}

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory("coverage")
	if err != nil || got != schedule.CategoryCoverage {
		t.Errorf("ParseCategory(coverage) = %v, %v", got, err)
	}
	if _, err := ParseCategory("misc"); err == nil {
		t.Error("expected unknown category to be rejected")
	}
}
