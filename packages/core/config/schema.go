package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError lists every schema violation of a config document
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Errors, "; ")
}

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "display": {"type": "string", "enum": ["auto", "console", "terminal", "plain", "text", "notebook", "rich", "html"]},
    "packages": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "run": {"type": "string"},
    "skip": {"type": "string"},
    "tags": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "timeout": {"type": "string"},
    "count": {"type": "integer", "minimum": 0},
    "race": {"type": "boolean"},
    "short": {"type": "boolean"},
    "subtests": {"type": "boolean"},
    "noColor": {"type": "boolean"},
    "verbose": {"type": "boolean"},
    "goTool": {"type": "string", "minLength": 1},
    "dir": {"type": "string"},
    "envFile": {"type": "string"},
    "env": {"type": "object", "additionalProperties": {"type": "string"}},
    "maxUpdatesPerSecond": {"type": "number", "minimum": 0},
    "timings": {"type": "integer", "minimum": 0}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// Validate checks a decoded config document against the config schema
func Validate(doc map[string]any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, e := range result.Errors() {
		verr.Errors = append(verr.Errors, e.String())
	}
	return verr
}
