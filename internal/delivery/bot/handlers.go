package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/RubachokBoss/originality-bot/internal/service"
	"github.com/RubachokBoss/originality-bot/internal/service/extract"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}

	switch {
	case message.IsCommand():
		b.handleCommand(message)
	case message.Document != nil:
		b.handleDocument(ctx, message)
	default:
		b.handleText(ctx, message)
	}
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.reply(message.Chat.ID, greetingReply)
	case "help":
		b.reply(message.Chat.ID, helpReply)
	default:
		b.reply(message.Chat.ID, helpReply)
	}
}

func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		b.reply(message.Chat.ID, emptyTextReply)
		return
	}

	result, err := b.service.Submit(ctx, service.SubmitRequest{
		UserID:   message.From.ID,
		Username: message.From.UserName,
		ChatID:   message.Chat.ID,
		Content:  text,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyText) {
			b.reply(message.Chat.ID, emptyTextReply)
			return
		}
		b.logger.Error().Err(err).Int64("user_id", message.From.ID).Msg("Failed to handle text submission")
		b.reply(message.Chat.ID, internalErrorReply)
		return
	}

	b.reply(message.Chat.ID, localVerdictReply(result))
}

func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) {
	doc := message.Document

	if err := extract.ValidateExtension(doc.FileName); err != nil {
		b.reply(message.Chat.ID, unsupportedDocumentReply)
		return
	}

	path, err := b.downloadDocument(ctx, doc)
	if err != nil {
		b.logger.Error().Err(err).Str("file_id", doc.FileID).Msg("Failed to download document")
		b.reply(message.Chat.ID, downloadFailedReply)
		return
	}
	// The transient download is removed no matter how handling ends.
	defer func() {
		if err := os.Remove(path); err != nil {
			b.logger.Error().Err(err).Str("path", path).Msg("Failed to remove temporary file")
		}
	}()

	text, err := b.extractor.ExtractFile(path)
	if err != nil {
		b.logger.Error().Err(err).Str("file_name", doc.FileName).Msg("Failed to extract document text")
		b.reply(message.Chat.ID, extractionFailedReply)
		return
	}

	if strings.TrimSpace(text) == "" {
		b.reply(message.Chat.ID, emptyDocumentReply)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		b.logger.Error().Err(err).Str("path", path).Msg("Failed to read document for archival")
		// The extracted text is still checked and saved.
	}

	result, err := b.service.Submit(ctx, service.SubmitRequest{
		UserID:       message.From.ID,
		Username:     message.From.UserName,
		ChatID:       message.Chat.ID,
		Content:      text,
		DocumentName: doc.FileName,
		DocumentData: data,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyText) {
			b.reply(message.Chat.ID, emptyDocumentReply)
			return
		}
		b.logger.Error().Err(err).Int64("user_id", message.From.ID).Msg("Failed to handle document submission")
		b.reply(message.Chat.ID, internalErrorReply)
		return
	}

	b.reply(message.Chat.ID, localVerdictReply(result))
}

func (b *Bot) downloadDocument(ctx context.Context, doc *tgbotapi.Document) (string, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		return "", fmt.Errorf("failed to resolve file: %w", err)
	}

	url := file.Link(b.api.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(b.config.DownloadDir, "submission-*.docx")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temporary file: %w", err)
	}

	return tmp.Name(), nil
}
