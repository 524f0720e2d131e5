package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// runSchema is the JSON Schema the raw document is validated against before
// the typed unmarshal. Structural errors surface with JSON-pointer locations
// instead of zero-valued fields.
const runSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "users"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "target": {"type": "string"},
    "users": {"type": "integer", "minimum": 1},
    "duration": {"type": "string"},
    "spawnInterval": {"type": "string"},
    "exclusive": {"type": "boolean"},
    "pacing": {
      "type": "object",
      "required": ["type"],
      "additionalProperties": false,
      "properties": {
        "type": {"enum": ["none", "constant", "random", "throughput"]},
        "duration": {"type": "string"},
        "min": {"type": "string"},
        "max": {"type": "string"},
        "rate": {"type": "number"}
      }
    },
    "categories": {
      "type": "object",
      "additionalProperties": false,
      "patternProperties": {
        "^(base|functional|coverage|user-defined-1|user-defined-2)$": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "mode": {"enum": ["sequential", "randomized", "fixed-sequential", "fixed-randomized"]},
            "fixedTaskSets": {
              "type": "array",
              "items": {"type": "string", "minLength": 1},
              "minItems": 1
            }
          }
        }
      }
    }
  }
}`

// Load reads, schema-validates, and parses a run configuration file.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML run configuration.
func Parse(data []byte) (*RunConfig, error) {
	// YAML -> generic map -> JSON, so the schema validator sees the same
	// document the typed unmarshal will.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting config: %w", err)
	}

	if err := validateSchema(jsonData); err != nil {
		return nil, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateSchema(jsonData []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("run.json", strings.NewReader(runSchema)); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	schema, err := compiler.Compile("run.json")
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("converting config: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}

// Validate applies the semantic checks the schema cannot express.
func (c *RunConfig) Validate() error {
	errs := &ValidationErrors{}

	if _, err := c.GetDuration(); err != nil {
		errs.Add("duration", err.Error())
	}
	if _, err := c.GetSpawnInterval(); err != nil {
		errs.Add("spawnInterval", err.Error())
	}

	if c.Pacing != nil {
		validatePacing(c.Pacing, errs)
	}
	for name, cat := range c.Categories {
		validateCategory(name, cat, errs)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validatePacing(p *PacingConfig, errs *ValidationErrors) {
	switch p.Type {
	case "constant":
		if p.Duration == "" {
			errs.Add("pacing.duration", "duration is required for constant pacing")
		} else if _, err := time.ParseDuration(p.Duration); err != nil {
			errs.Add("pacing.duration", fmt.Sprintf("invalid duration: %v", err))
		}

	case "random":
		var min, max time.Duration
		var err error
		if p.Min == "" {
			errs.Add("pacing.min", "min is required for random pacing")
		} else if min, err = time.ParseDuration(p.Min); err != nil {
			errs.Add("pacing.min", fmt.Sprintf("invalid min: %v", err))
		}
		if p.Max == "" {
			errs.Add("pacing.max", "max is required for random pacing")
		} else if max, err = time.ParseDuration(p.Max); err != nil {
			errs.Add("pacing.max", fmt.Sprintf("invalid max: %v", err))
		}
		if min > 0 && max > 0 && min > max {
			errs.Add("pacing", "min must be less than or equal to max")
		}

	case "throughput":
		if p.Rate <= 0 {
			errs.Add("pacing.rate", "rate must be greater than 0")
		}
	}
}

func validateCategory(name string, cat *CategoryConfig, errs *ValidationErrors) {
	prefix := "categories." + name

	fixed := false
	if cat.Mode != "" {
		m, err := ParseScheduleMode(cat.Mode)
		if err != nil {
			errs.Add(prefix+".mode", err.Error())
			return
		}
		fixed = m.Fixed()
		if fixed && len(cat.FixedTaskSets) == 0 {
			errs.Add(prefix+".fixedTaskSets", "required for fixed schedule modes")
		}
	}
	if len(cat.FixedTaskSets) > 0 && !fixed {
		errs.Add(prefix+".fixedTaskSets", "only allowed with fixed schedule modes")
	}
}
