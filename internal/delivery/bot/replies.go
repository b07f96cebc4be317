package bot

import (
	"fmt"

	"github.com/RubachokBoss/originality-bot/internal/service"
)

const (
	greetingReply = "Hi! I check submitted work for originality.\n" +
		"Send the full text as a message, or upload it as a .docx document. " +
		"I will compare it with everything submitted before, run an internet " +
		"originality scan, and keep your work on file."

	helpReply = "/start — what this bot does\n" +
		"/help — this message\n" +
		"Send the text of your work as a plain message, or upload a .docx file."

	emptyTextReply = "I can't check an empty text. Send the work as a plain message."

	unsupportedDocumentReply = "I can only read .docx documents. " +
		"Please convert your work and upload it again."

	downloadFailedReply = "I couldn't download that document from Telegram. Please try again."

	extractionFailedReply = "I couldn't read that document. " +
		"It may be corrupted — please re-export it and upload again."

	emptyDocumentReply = "That document contains no readable text."

	internalErrorReply = "Something went wrong while checking your work. Please try again."
)

func localVerdictReply(result *service.CheckResult) string {
	var verdict string

	if result.Best != nil && result.Suspicious {
		verdict = fmt.Sprintf(
			"⚠ Similarity: %.1f%%\nClosest match: a submission by @%s.\n"+
				"If this is your own work, just ignore this warning.\nYour work has been saved.",
			result.Best.Ratio*100,
			result.Best.Author,
		)
	} else {
		verdict = "✅ Looks original — no close matches among previous submissions. Saving it."
	}

	if result.ScanQueued {
		verdict += "\n\nThe internet originality scan is running, I'll send the result here."
	}

	return verdict
}

func scanResultReply(score float64, suspicious bool) string {
	if suspicious {
		return fmt.Sprintf(
			"⚠ Internet scan finished: %.1f%% of the text matches published sources.",
			score,
		)
	}
	return fmt.Sprintf(
		"✅ Internet scan finished: only %.1f%% matched content. Looks original.",
		score,
	)
}

func scanFailureReply(reason string) string {
	return "The internet originality scan failed: " + reason
}
