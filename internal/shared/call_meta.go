// Package shared holds the bookkeeping attached to every model call.
package shared

import (
	"time"

	"github.com/rs/zerolog"
)

// TokenUsage is the token accounting the model reported for one call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Reported is false when the call never got a usage block back, e.g. a
// transport failure before the model answered.
func (u TokenUsage) Reported() bool {
	return u.PromptTokens > 0 || u.CompletionTokens > 0
}

// AgentMeta describes one generation attempt by a named agent.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

// MarshalZerologObject lets loggers embed the attempt with EmbedObject.
func (m AgentMeta) MarshalZerologObject(e *zerolog.Event) {
	e.Str("agent", m.AgentName).Dur("latency", m.Latency)
	if m.Usage.Reported() {
		e.Str("model", m.Usage.Model).
			Int("prompt_tokens", m.Usage.PromptTokens).
			Int("completion_tokens", m.Usage.CompletionTokens)
	}
}
