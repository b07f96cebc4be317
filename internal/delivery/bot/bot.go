package bot

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/originality-bot/internal/config"
	"github.com/RubachokBoss/originality-bot/internal/service"
	"github.com/RubachokBoss/originality-bot/internal/service/extract"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Bot dispatches Telegram updates to the submission pipeline. Updates
// arrive through the webhook endpoint and are processed one at a time:
// each message is handled to completion (scored, answered, persisted)
// before the next one starts.
type Bot struct {
	api       *tgbotapi.BotAPI
	service   service.SubmissionService
	extractor extract.DocxExtractor
	config    config.TelegramConfig
	logger    zerolog.Logger
	updates   chan tgbotapi.Update
	client    *http.Client
}

func New(
	cfg config.TelegramConfig,
	submissionService service.SubmissionService,
	extractor extract.DocxExtractor,
	logger zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Info().Str("bot", api.Self.UserName).Msg("Authorized on Telegram")

	return &Bot{
		api:       api,
		service:   submissionService,
		extractor: extractor,
		config:    cfg,
		logger:    logger,
		updates:   make(chan tgbotapi.Update, cfg.UpdateBuffer),
		client: &http.Client{
			Timeout: cfg.ClientTimeout,
		},
	}, nil
}

// SetWebhook registers the webhook URL with Telegram. The path carries
// the bot token so only Telegram can post updates.
func (b *Bot) SetWebhook() error {
	url := fmt.Sprintf("%s/webhook/%s", b.config.WebhookBaseURL, b.config.Token)

	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}

	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	b.logger.Info().Str("base_url", b.config.WebhookBaseURL).Msg("Webhook registered")
	return nil
}

// Enqueue hands one decoded update to the dispatch loop. Updates are
// dropped with a warning when the buffer is full so the webhook endpoint
// never blocks Telegram's delivery.
func (b *Bot) Enqueue(update tgbotapi.Update) {
	select {
	case b.updates <- update:
	default:
		b.logger.Warn().Int("update_id", update.UpdateID).Msg("Update buffer full, dropping update")
	}
}

// Run consumes the update queue until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info().Msg("Bot dispatch loop started")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot dispatch loop stopped")
			return
		case update := <-b.updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}

// NotifyScanResult implements worker.ScanNotifier.
func (b *Bot) NotifyScanResult(chatID int64, score float64, suspicious bool) error {
	msg := tgbotapi.NewMessage(chatID, scanResultReply(score, suspicious))
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send scan result: %w", err)
	}
	return nil
}

// NotifyScanFailure implements worker.ScanNotifier.
func (b *Bot) NotifyScanFailure(chatID int64, reason string) error {
	msg := tgbotapi.NewMessage(chatID, scanFailureReply(reason))
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send scan failure: %w", err)
	}
	return nil
}
