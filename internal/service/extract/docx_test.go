package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	return buf.Bytes()
}

const twoParagraphs = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Hello</w:t></w:r></w:p>
    <w:p><w:r><w:t>World</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtractTwoParagraphs(t *testing.T) {
	data := buildDocx(t, twoParagraphs)
	e := NewDocxExtractor(zerolog.Nop())

	text, err := e.Extract(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", text)
}

func TestExtractIgnoresNonTextNodes(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:jc w:val="center"/></w:pPr>
      <w:r><w:rPr><w:b/></w:rPr><w:t>Bold text</w:t></w:r>
    </w:p>
  </w:body>
</w:document>`

	data := buildDocx(t, doc)
	e := NewDocxExtractor(zerolog.Nop())

	text, err := e.Extract(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "Bold text", text)
}

func TestExtractSplitRuns(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Hel</w:t></w:r><w:r><w:t>lo</w:t></w:r></w:p>
  </w:body>
</w:document>`

	data := buildDocx(t, doc)
	e := NewDocxExtractor(zerolog.Nop())

	text, err := e.Extract(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
}

func TestExtractMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	e := NewDocxExtractor(zerolog.Nop())
	_, err = e.Extract(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.ErrorIs(t, err, ErrMissingDocumentPart)
}

func TestExtractCorruptArchive(t *testing.T) {
	data := []byte("this is not a zip archive")
	e := NewDocxExtractor(zerolog.Nop())

	_, err := e.Extract(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		wantErr  bool
	}{
		{"docx", "essay.docx", false},
		{"docx uppercase", "ESSAY.DOCX", false},
		{"pdf", "essay.pdf", true},
		{"doc", "essay.doc", true},
		{"no extension", "essay", true},
		{"docx in the middle", "essay.docx.exe", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExtension(tt.fileName)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtractFile(t *testing.T) {
	data := buildDocx(t, twoParagraphs)

	path := filepath.Join(t.TempDir(), "essay.docx")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	e := NewDocxExtractor(zerolog.Nop())
	text, err := e.ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", text)
}

func TestExtractFileRejectsWrongExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "essay.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	e := NewDocxExtractor(zerolog.Nop())
	_, err := e.ExtractFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
