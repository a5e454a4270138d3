// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/choria-io/svcctl/model"
)

const configSchemaURL = "https://choria.io/schemas/svcctl/v1/config.json"

//go:embed config_schema.json
var configSchemaJSON []byte

var configSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(configSchemaJSON))
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	err = c.AddResource(configSchemaURL, doc)
	if err != nil {
		return nil, err
	}

	return c.Compile(configSchemaURL)
})

// ValidateConfigDocument validates a YAML configuration document against the configuration schema
func ValidateConfigDocument(c []byte) error {
	if len(bytes.TrimSpace(c)) == 0 {
		return nil
	}

	schema, err := configSchema()
	if err != nil {
		return err
	}

	j, err := yaml.YAMLToJSON(c)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidConfig, err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(j))
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidConfig, err)
	}

	err = schema.Validate(inst)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidConfig, err)
	}

	return nil
}
