// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/holomush/holotrack/internal/tracking"
)

const (
	configSchemaID = "https://holomush.dev/schemas/holotrack.schema.json"
	rulesSchemaID  = "https://holomush.dev/schemas/holotrack-rules.schema.json"
)

type compiled struct {
	once   sync.Once
	schema *jschema.Schema
	err    error
}

var configSchema, rulesSchema compiled

// GenerateSchema returns the JSON Schema for the configuration file.
func GenerateSchema() ([]byte, error) {
	return generate(&Config{}, configSchemaID, "holotrack configuration", "Schema for holotrack.yaml")
}

// GenerateRulesSchema returns the JSON Schema for a standalone rules file.
func GenerateRulesSchema() ([]byte, error) {
	return generate(&tracking.Rules{}, rulesSchemaID, "holotrack tracking rules", "Schema for tracking rules files")
}

func generate(v any, id, title, description string) ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference:             true,
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
	}
	schema := r.Reflect(v)
	schema.ID = jsonschema.ID(id)
	schema.Title = title
	schema.Description = description

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATE_FAILED").Wrap(err)
	}
	return data, nil
}

// ValidateSchema validates YAML configuration against the configuration schema.
func ValidateSchema(data []byte) error {
	return validate(data, &configSchema, GenerateSchema)
}

// ValidateRulesSchema validates a YAML rules file against the rules schema.
func ValidateRulesSchema(data []byte) error {
	return validate(data, &rulesSchema, GenerateRulesSchema)
}

func validate(data []byte, c *compiled, gen func() ([]byte, error)) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return oops.Code("SCHEMA_VALIDATION_FAILED").Errorf("document is empty")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code("SCHEMA_VALIDATION_FAILED").Wrapf(err, "invalid YAML")
	}

	sch, err := c.get(gen)
	if err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		return oops.Code("SCHEMA_VALIDATION_FAILED").Wrap(err)
	}
	return nil
}

func (c *compiled) get(gen func() ([]byte, error)) (*jschema.Schema, error) {
	c.once.Do(func() {
		raw, err := gen()
		if err != nil {
			c.err = err
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			c.err = oops.Code("SCHEMA_COMPILE_FAILED").Wrap(err)
			return
		}
		comp := jschema.NewCompiler()
		if err := comp.AddResource("schema.json", doc); err != nil {
			c.err = oops.Code("SCHEMA_COMPILE_FAILED").Wrap(err)
			return
		}
		c.schema, c.err = comp.Compile("schema.json")
		if c.err != nil {
			c.err = oops.Code("SCHEMA_COMPILE_FAILED").Wrap(c.err)
		}
	})
	return c.schema, c.err
}

// FormatSchemaError returns the validation detail of err without the
// surrounding context, for display.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	var ve *jschema.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}
