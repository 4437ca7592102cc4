// Package codec serializes session State for checkpoint stores.
//
// Every checkpoint is wrapped in an envelope carrying a schema tag so the
// layout can evolve: unknown fields are ignored on decode, unknown schema tags
// are rejected.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
)

// SchemaV1 tags the current checkpoint layout.
const SchemaV1 = "switchboard.state/v1"

// ErrUnsupportedSchema is returned when a checkpoint carries an unknown schema tag.
var ErrUnsupportedSchema = errors.New("unsupported checkpoint schema")

// Codec converts a State to bytes and back.
type Codec interface {
	Encode(state *domain.State) ([]byte, error)
	Decode(data []byte) (*domain.State, error)
}

type envelope struct {
	Schema string          `json:"schema"`
	State  json.RawMessage `json:"state"`
}

// JSON is the default codec.
type JSON struct {
	// Indent pretty-prints the output (used by the file store for inspectability).
	Indent bool
}

// Encode wraps the state in a versioned envelope.
func (c JSON) Encode(state *domain.State) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	env := envelope{Schema: SchemaV1, State: raw}
	if c.Indent {
		return json.MarshalIndent(env, "", "  ")
	}
	return json.Marshal(env)
}

// Decode unwraps the envelope and rejects unknown schema tags.
func (c JSON) Decode(data []byte) (*domain.State, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint envelope: %w", err)
	}
	if env.Schema != SchemaV1 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSchema, env.Schema)
	}
	var state domain.State
	if err := json.Unmarshal(env.State, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if state.Messages == nil {
		state.Messages = []domain.Message{}
	}
	if state.ExecutionTrace == nil {
		state.ExecutionTrace = []domain.TraceEntry{}
	}
	return &state, nil
}

// Default returns the compact JSON codec.
func Default() Codec {
	return JSON{}
}
