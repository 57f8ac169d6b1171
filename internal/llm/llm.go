package llm

import (
	"context"

	"wellness-planner/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// SchemaType names the JSON type of a schema node.
type SchemaType string

const (
	TypeObject  SchemaType = "OBJECT"
	TypeArray   SchemaType = "ARRAY"
	TypeString  SchemaType = "STRING"
	TypeNumber  SchemaType = "NUMBER"
	TypeInteger SchemaType = "INTEGER"
	TypeBoolean SchemaType = "BOOLEAN"
)

// Schema describes the JSON document the model must answer with.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}

// Request is a single structured generation call.
type Request struct {
	SystemInstruction string
	Prompt            string
	Schema            *Schema
	Temperature       float32
}

// StructuredGenerator generates a JSON document matching Request.Schema.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, req Request) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
