package types

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/slighter12/sanshu-mcp-go/mcp"
)

// Validator is implemented by request types with checks beyond the schema.
type Validator interface {
	Validate() error
}

// Executor runs a tool with its decoded request.
type Executor[Req any] func(ctx context.Context, call Call, req Req) ([]mcp.Content, error)

// Typed adapts an Executor into a Tool. Argument decoding happens in Prepare
// so decode failures never reach the executor.
type Typed[Req any] struct {
	descriptor Descriptor
	definition mcp.Tool
	executor   Executor[Req]
}

// NewTyped creates a tool whose arguments decode into Req through its json
// tags.
func NewTyped[Req any](descriptor Descriptor, definition mcp.Tool, executor Executor[Req]) *Typed[Req] {
	if descriptor.ConfigKey == "" {
		descriptor.ConfigKey = descriptor.Name
	}
	definition.Name = descriptor.Name
	return &Typed[Req]{
		descriptor: descriptor,
		definition: definition,
		executor:   executor,
	}
}

func (t *Typed[Req]) Descriptor() Descriptor {
	return t.descriptor
}

func (t *Typed[Req]) Definition() mcp.Tool {
	return t.definition
}

func (t *Typed[Req]) Prepare(arguments map[string]any) (Handler, error) {
	req, err := Decode[Req](arguments)
	if err != nil {
		return nil, err
	}
	if v, ok := any(req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%s validation failed: %w", t.descriptor.Name, err)
		}
	}
	return func(ctx context.Context, call Call) ([]mcp.Content, error) {
		return t.executor(ctx, call, req)
	}, nil
}

// Decode converts loosely typed JSON arguments into Req using json tags.
func Decode[Req any](arguments map[string]any) (Req, error) {
	var req Req
	if arguments == nil {
		arguments = map[string]any{}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &req,
	})
	if err != nil {
		return req, err
	}
	if err := decoder.Decode(arguments); err != nil {
		return req, err
	}
	return req, nil
}
