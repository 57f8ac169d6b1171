package telegram

import (
	"context"
	"fmt"

	"wellness-planner/internal/metrics"
	"wellness-planner/internal/shared"
)

// PromptTokenAlertThreshold is the prompt size above which the admin is
// alerted about context bloat.
const PromptTokenAlertThreshold = 8000

type alertingRecorder struct {
	next metrics.Recorder
	bot  *Bot
}

// AlertingRecorder forwards usage to next and alerts the admin when a
// single prompt grows past PromptTokenAlertThreshold.
func (b *Bot) AlertingRecorder(next metrics.Recorder) metrics.Recorder {
	if next == nil {
		next = metrics.NopRecorder{}
	}
	return &alertingRecorder{next: next, bot: b}
}

func (r *alertingRecorder) RecordMeta(ctx context.Context, meta shared.AgentMeta, failed bool) error {
	if meta.Usage.PromptTokens > PromptTokenAlertThreshold {
		alert := fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d",
			meta.AgentName, escapeMarkdown(meta.Usage.Model), meta.Usage.PromptTokens)
		r.bot.SendAdminAlert(alert)
	}
	return r.next.RecordMeta(ctx, meta, failed)
}
