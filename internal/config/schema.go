// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the generated config schema.
const SchemaID = "https://stkaddons.net/schemas/config.schema.json"

const schemaViolationPrefix = "config does not match schema"

// GenerateSchema reflects Config into a JSON Schema document. Unknown keys
// are rejected so typos in config.yaml surface at load time.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := r.Reflect(&Config{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "STK Addons Configuration"
	schema.Description = "Schema for stkaddons config.yaml files"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").Wrapf(err, "marshal schema")
	}
	return data, nil
}

// compiledSchema compiles the reflected schema on first use.
var compiledSchema = sync.OnceValues(func() (*jschema.Schema, error) {
	data, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").Wrapf(err, "parse schema")
	}

	c := jschema.NewCompiler()
	if err := c.AddResource(SchemaID, doc); err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").Wrapf(err, "add schema resource")
	}
	sch, err := c.Compile(SchemaID)
	if err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").Wrapf(err, "compile schema")
	}
	return sch, nil
})

// ValidateSchema checks a YAML config document against the schema. Empty
// documents are valid.
func ValidateSchema(data []byte) error {
	instance, err := yamlToJSON(data)
	if err != nil {
		return err
	}
	if instance == nil {
		return nil
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(instance); err != nil {
		return oops.Code("CONFIG_SCHEMA_VIOLATION").Wrapf(err, schemaViolationPrefix)
	}
	return nil
}

// yamlToJSON decodes YAML and re-reads it as JSON so numbers and maps have
// the types the validator expects.
func yamlToJSON(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code("CONFIG_INVALID_YAML").Wrap(err)
	}
	if doc == nil {
		return nil, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID_YAML").Wrapf(err, "config must be a mapping with string keys")
	}
	instance, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID_YAML").Wrap(err)
	}
	return instance, nil
}

// FormatSchemaError strips the wrapping from a schema violation so only the
// validator's report is shown.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimPrefix(err.Error(), schemaViolationPrefix+": ")
}
