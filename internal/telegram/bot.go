package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"wellness-planner/internal/config"
	"wellness-planner/internal/metrics"
	"wellness-planner/internal/profile"
	"wellness-planner/internal/session"
)

const (
	// WebhookPath is where the web server receives Telegram updates.
	WebhookPath = "/telegram/webhook"

	callbackConfirm = "update|confirm"
	callbackCancel  = "update|cancel"

	usageText = "👋 *Planificador de Menús de Bienestar*\n\n" +
		"Envía tus datos para recibir un menú personalizado para hoy:\n" +
		"`/plan Nombre; Sexo; Edad; Peso; Estatura`\n\n" +
		"Ejemplo: `/plan Ana; Femenino; 40; 70; 165`\n\n" +
		"Después puedes usar /nuevo para generar otro menú, o\n" +
		"`/actualizar Nombre; Sexo; Edad; Peso; Estatura` para cambiar tus datos."
	thinkingText = "🧑‍🍳 *Generando tu plan de bienestar...*\n(La IA está elaborando cuidadosamente tus comidas y consejos)"
)

// sender is the part of the Bot API the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// UsageReporter provides the token usage shown by /metrics.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Bot drives a session orchestrator per chat.
type Bot struct {
	api      sender
	client   *tgbotapi.BotAPI
	registry *session.Registry
	usage    UsageReporter
	dataDir  string
	webhook  string
	allowed  map[int64]bool
	adminID  int64
	log      zerolog.Logger
}

// NewBot initializes the Telegram Bot. When a webhook URL is configured it
// is registered with Telegram; otherwise Run falls back to long polling.
func NewBot(cfg *config.Config, registry *session.Registry, usage UsageReporter, dataDir string, logger zerolog.Logger) (*Bot, error) {
	endpoint := cfg.TelegramAPIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.TelegramBotToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info().Str("account", client.Self.UserName).Msg("Telegram bot authorized")

	b := newBot(client, cfg, registry, usage, dataDir, logger)
	b.client = client

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := client.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		logger.Info().Str("description", resp.Description).Msg("Webhook set")
	}

	return b, nil
}

func newBot(api sender, cfg *config.Config, registry *session.Registry, usage UsageReporter, dataDir string, logger zerolog.Logger) *Bot {
	allowed := make(map[int64]bool, len(cfg.TelegramAllowedUserIDs))
	for _, id := range cfg.TelegramAllowedUserIDs {
		allowed[id] = true
	}
	return &Bot{
		api:      api,
		registry: registry,
		usage:    usage,
		dataDir:  dataDir,
		webhook:  cfg.TelegramWebhookURL,
		allowed:  allowed,
		adminID:  cfg.AdminTelegramID,
		log:      logger,
	}
}

// SessionKey is the registry key of a chat.
func SessionKey(chatID int64) string {
	return fmt.Sprintf("telegram:%d", chatID)
}

// WebhookEnabled reports whether updates arrive through WebhookHandler.
func (b *Bot) WebhookEnabled() bool {
	return b.webhook != ""
}

// WebhookHandler parses updates pushed by Telegram.
func (b *Bot) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		update, err := b.client.HandleUpdate(r)
		if err != nil {
			b.log.Warn().Err(err).Msg("Error parsing update")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.handleUpdate(*update)
		w.WriteHeader(http.StatusOK)
	})
}

// Run polls for updates until ctx is done. In webhook mode it only waits.
func (b *Bot) Run(ctx context.Context) error {
	if b.WebhookEnabled() {
		<-ctx.Done()
		return nil
	}

	if _, err := b.client.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to remove webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.client.GetUpdatesChan(u)
	b.log.Info().Msg("Telegram bot polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			return nil
		case update := <-updates:
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		if !b.isAllowed(update.CallbackQuery.From) {
			return
		}
		go b.handleCallbackQuery(update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}
	if !b.isAllowed(update.Message.From) {
		event := b.log.Warn().Int64("chat_id", update.Message.Chat.ID)
		if from := update.Message.From; from != nil {
			event = event.Int64("user_id", from.ID).Str("username", from.UserName)
		}
		event.Msg("Unauthorized access attempt")
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) isAllowed(user *tgbotapi.User) bool {
	if user == nil {
		return false
	}
	if len(b.allowed) == 0 {
		return true
	}
	return b.allowed[user.ID]
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "metrics":
		b.handleMetricsRequest(msg)
	case "plan":
		b.handleProfileCommand(msg, false)
	case "actualizar":
		b.handleProfileCommand(msg, true)
	case "nuevo":
		b.handleNewMenuRequest(msg.Chat.ID)
	default:
		b.sendMarkdown(msg.Chat.ID, usageText)
	}
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != b.adminID {
		b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "⛔ Acceso denegado: solo administradores."))
		return
	}
	b.handleMetricsCommand(msg.Chat.ID)
}

func (b *Bot) handleProfileCommand(msg *tgbotapi.Message, update bool) {
	chatID := msg.Chat.ID
	prof, err := parseProfileArgs(msg.CommandArguments())
	if err != nil {
		b.sendMarkdown(chatID, "⚠️ "+escapeMarkdown(err.Error())+"\n\n"+usageText)
		return
	}

	o := b.registry.Get(SessionKey(chatID))
	ctx := context.Background()

	var done <-chan session.Snapshot
	if update {
		done, err = o.ConfirmUpdate(ctx, prof)
	} else {
		done, err = o.Submit(ctx, prof)
	}
	if err != nil {
		b.replyTransitionError(chatID, err, update)
		return
	}

	b.awaitPlan(chatID, done)
}

func (b *Bot) handleNewMenuRequest(chatID int64) {
	o := b.registry.Get(SessionKey(chatID))
	if err := o.Regenerate(); err != nil {
		b.replyTransitionError(chatID, err, true)
		return
	}

	prof := o.Snapshot().Profile
	text := "📝 *Actualizar Información*\n\n" +
		"Antes de generar un nuevo menú, por favor, confirma o actualiza tus datos. Es importante mantener tu peso al día.\n\n" +
		formatProfile(prof) +
		"\nPara cambiarlos usa `/actualizar Nombre; Sexo; Edad; Peso; Estatura`."

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirmar y Generar", callbackConfirm),
			tgbotapi.NewInlineKeyboardButtonData("Cancelar", callbackCancel),
		),
	)

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyMarkup = keyboard
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send update dialog")
	}
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	o := b.registry.Get(SessionKey(chatID))

	switch query.Data {
	case callbackCancel:
		o.CloseDialog()
		edit := tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, "Actualización cancelada.")
		b.api.Send(edit)
	case callbackConfirm:
		snap := o.Snapshot()
		if !snap.DialogOpen {
			return
		}
		done, err := o.ConfirmUpdate(context.Background(), snap.Profile)
		if err != nil {
			b.replyTransitionError(chatID, err, true)
			return
		}
		noButtons := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
		b.api.Send(tgbotapi.NewEditMessageReplyMarkup(chatID, query.Message.MessageID, noButtons))
		b.awaitPlan(chatID, done)
	}
}

// awaitPlan shows a progress message and replaces it with the plan or the
// failure once the generation finishes.
func (b *Bot) awaitPlan(chatID int64, done <-chan session.Snapshot) {
	sent, err := b.sendMarkdown(chatID, thinkingText)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send initial reply")
	}

	snap := <-done

	var first string
	var rest []string
	switch st := snap.State.(type) {
	case session.Ready:
		planText, adviceText := formatPlanMarkdownParts(snap.Profile.Name, st.Plan)
		first, rest = planText, []string{adviceText}
	case session.Failed:
		b.log.Warn().Int64("chat_id", chatID).Str("error", st.Message).Msg("Plan generation failed")
		safeErr := strings.ReplaceAll(st.Message, "`", "'")
		first = fmt.Sprintf("❌ *¡Ups! Algo salió mal.*\n```\n%s\n```\nUsa /nuevo para intentar de nuevo.", safeErr)
	default:
		return
	}

	if err == nil {
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, first)
		edit.ParseMode = tgbotapi.ModeMarkdown
		if _, err := b.api.Send(edit); err != nil {
			b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit reply")
		}
	} else {
		b.sendMarkdown(chatID, first)
	}
	for _, text := range rest {
		b.sendMarkdown(chatID, text)
	}
}

func (b *Bot) replyTransitionError(chatID int64, err error, update bool) {
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		b.sendMarkdown(chatID, "⚠️ Faltan datos: "+escapeMarkdown(strings.Join(verr.Fields, ", "))+"\n\n"+usageText)
	case errors.Is(err, session.ErrBusy):
		b.sendMarkdown(chatID, "⏳ Ya estoy generando tu plan, espera un momento.")
	case errors.Is(err, session.ErrInvalidTransition) && update:
		b.sendMarkdown(chatID, "Primero genera un menú con `/plan Nombre; Sexo; Edad; Peso; Estatura`.")
	case errors.Is(err, session.ErrInvalidTransition):
		b.sendMarkdown(chatID, "Ya tienes un menú. Usa /nuevo para generar otro.")
	default:
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Unexpected session error")
	}
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	if b.usage == nil {
		b.sendMarkdown(chatID, "📊 Las métricas no están habilitadas.")
		return
	}

	usage, err := b.usage.GetDailyUsage(context.Background(), 7)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to fetch metrics")
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Error al obtener las métricas."))
		return
	}

	health := metrics.GetSysHealth(b.dataDir)

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs, %d failed)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.Failed))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Sessions: %d\n", b.registry.Len()))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	sb.WriteString(fmt.Sprintf("• Host: CPU %.1f%% / RAM %.1f%% / Disk %.1f%%\n", health.HostCPUPercent, health.HostMemUsedPercent, health.HostDiskUsedPercent))

	b.sendMarkdown(chatID, sb.String())
}

// SendAdminAlert messages the configured admin, if any.
func (b *Bot) SendAdminAlert(text string) {
	if b.adminID == 0 {
		return
	}
	b.sendMarkdown(b.adminID, text)
}

func (b *Bot) sendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return b.api.Send(msg)
}
