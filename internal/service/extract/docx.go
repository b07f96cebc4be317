package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrUnsupportedFormat is returned for anything that is not a .docx
	// file. The check happens before the archive is even opened.
	ErrUnsupportedFormat = errors.New("unsupported document format, only .docx is accepted")
	// ErrMissingDocumentPart is returned when the archive has no main
	// text-markup part.
	ErrMissingDocumentPart = errors.New("document archive has no word/document.xml part")
)

const documentPart = "word/document.xml"

// DocxExtractor pulls the literal text out of a .docx container,
// concatenating text nodes in document order with one newline per
// paragraph. Images, styles and everything else are ignored.
type DocxExtractor interface {
	ExtractFile(path string) (string, error)
	Extract(reader io.ReaderAt, size int64) (string, error)
}

type docxExtractor struct {
	logger zerolog.Logger
}

func NewDocxExtractor(logger zerolog.Logger) DocxExtractor {
	return &docxExtractor{logger: logger}
}

// ValidateExtension rejects non-.docx file names.
func ValidateExtension(fileName string) error {
	if !strings.EqualFold(filepath.Ext(fileName), ".docx") {
		return ErrUnsupportedFormat
	}
	return nil
}

func (e *docxExtractor) ExtractFile(path string) (string, error) {
	if err := ValidateExtension(path); err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat document: %w", err)
	}

	return e.Extract(file, info.Size())
}

func (e *docxExtractor) Extract(reader io.ReaderAt, size int64) (string, error) {
	archive, err := zip.NewReader(reader, size)
	if err != nil {
		return "", fmt.Errorf("failed to read document archive: %w", err)
	}

	var part *zip.File
	for _, f := range archive.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", ErrMissingDocumentPart
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document part: %w", err)
	}
	defer rc.Close()

	text, err := collectTextNodes(rc)
	if err != nil {
		return "", fmt.Errorf("failed to parse document markup: %w", err)
	}

	e.logger.Debug().
		Int("text_length", len(text)).
		Msg("Document text extracted")

	return text, nil
}

// collectTextNodes streams the WordprocessingML markup and gathers the
// character data of every <w:t> node, ending each <w:p> with a newline.
func collectTextNodes(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var builder strings.Builder
	inText := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br":
				builder.WriteString("\n")
			case "tab":
				builder.WriteString("\t")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				builder.Write(t)
			}
		}
	}

	return strings.TrimRight(builder.String(), "\n"), nil
}
