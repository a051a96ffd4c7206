package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/slighter12/sanshu-mcp-go/mcp"
)

// SchemaValidator checks call arguments against each tool's advertised input
// schema before typed decoding.
type SchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{compiled: make(map[string]*jsonschema.Schema)}
}

func schemaURL(name string) string {
	return fmt.Sprintf("mem://tools/%s.schema.json", name)
}

// Register compiles schema for the named tool, replacing any earlier one.
func (v *SchemaValidator) Register(name string, schema mcp.InputSchema) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode schema %s: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode schema %s: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL(name), doc); err != nil {
		return fmt.Errorf("register schema %s: %w", name, err)
	}
	compiled, err := c.Compile(schemaURL(name))
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}

	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return nil
}

// Validate reports the first schema violation for arguments. Tools without a
// registered schema always pass.
func (v *SchemaValidator) Validate(name string, arguments map[string]any) error {
	v.mu.RLock()
	schema, ok := v.compiled[name]
	v.mu.RUnlock()
	if !ok {
		return nil
	}

	if arguments == nil {
		arguments = map[string]any{}
	}
	data, err := json.Marshal(arguments)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return schema.Validate(doc)
}
