package services

import (
	"fmt"
	"os"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"

	"astramatch/resume-matcher/internal/models"
)

// TextExtractor is the file-to-text boundary. Extraction failures surface
// as errors here; the pipeline downgrades them to an extraction flag on
// the candidate instead of dropping the file.
type TextExtractor interface {
	Extract(filePath string, fileType models.FileType) (string, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

// Extract implements TextExtractor.
func (t *textExtractor) Extract(filePath string, fileType models.FileType) (string, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", filePath)
	}

	var (
		text string
		err  error
	)

	switch fileType {
	case models.FileTypePDF:
		text, err = extractPDF(filePath)
	case models.FileTypeDOCX:
		text, err = extractDOCX(filePath)
	case models.FileTypeTXT:
		text, err = extractTXT(filePath)
	default:
		return "", fmt.Errorf("unsupported file type: %s", fileType)
	}

	if err != nil {
		return "", err
	}

	text = CleanText(text)
	if text == "" {
		return "", fmt.Errorf("no text content found in %s file", fileType)
	}

	return text, nil
}

func extractPDF(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the whole document
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	return textBuilder.String(), nil
}

func extractDOCX(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat DOCX: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("failed to parse DOCX: %w", err)
	}

	var textBuilder strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			textBuilder.WriteString(v.String())
			textBuilder.WriteString("\n")
		case *docx.Table:
			textBuilder.WriteString(v.String())
			textBuilder.WriteString("\n")
		}
	}

	return textBuilder.String(), nil
}

func extractTXT(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read TXT: %w", err)
	}

	// Tolerate invalid UTF-8 rather than failing the candidate
	return strings.ToValidUTF8(string(data), ""), nil
}

// CleanText normalizes extracted text: trims every line and drops empty
// ones so downstream prompts and embeddings see compact input.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
