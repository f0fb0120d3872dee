// Package abischema validates contract ABI documents before they are loaded.
package abischema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://everscale-go.local/schemas/contract.schema.json"

//go:embed contract.schema.json
var contractSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader(contractSchema)); err != nil {
			compileErr = fmt.Errorf("contract schema load failed: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("contract schema compile failed: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// Validate checks that data is a structurally valid contract ABI document.
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	var doc interface{}
	if err := d.Decode(&doc); err != nil {
		return fmt.Errorf("cannot parse contract ABI: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("invalid contract ABI: %w", err)
	}
	return nil
}
