package services

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"go.uber.org/zap"
)

// TextExtractor pulls plain text out of uploaded résumés.
type TextExtractor interface {
	// ExtractText never fails: any extraction problem is logged and yields "".
	ExtractText(filePath string) string
	ExtractWithMetadata(filePath string) (*ExtractedContent, error)
}

type ExtractedContent struct {
	Text      string
	PageCount int
	FilePath  string
	Format    string
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag           = regexp.MustCompile(`<[^>]*>`)
)

type textExtractor struct {
	log *zap.Logger
}

func NewTextExtractor(log *zap.Logger) TextExtractor {
	return &textExtractor{log: log}
}

func (e *textExtractor) ExtractText(filePath string) string {
	content, err := e.extract(filePath)
	if err != nil {
		e.log.Warn("text extraction failed, continuing with empty text",
			zap.String("path", filePath),
			zap.Error(err),
		)
		return ""
	}

	e.log.Debug("text extracted",
		zap.String("path", filePath),
		zap.String("format", content.Format),
		zap.Int("pages", content.PageCount),
		zap.Int("chars", len(content.Text)),
	)

	return content.Text
}

func (e *textExtractor) ExtractWithMetadata(filePath string) (*ExtractedContent, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	content, err := e.extract(filePath)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(content.Text) == "" {
		return nil, fmt.Errorf("no text content found in %s", filepath.Base(filePath))
	}

	return content, nil
}

func (e *textExtractor) extract(filePath string) (*ExtractedContent, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	var (
		text  string
		pages = 1
		err   error
	)

	switch ext {
	case ".pdf":
		text, pages, err = extractPDF(filePath)
	case ".docx":
		text, err = extractDOCX(filePath)
	case ".txt", ".md":
		var raw []byte
		raw, err = os.ReadFile(filePath)
		text = string(raw)
	default:
		return nil, fmt.Errorf("unsupported file type: %q", ext)
	}

	if err != nil {
		return nil, err
	}

	return &ExtractedContent{
		Text:      text,
		PageCount: pages,
		FilePath:  filePath,
		Format:    strings.TrimPrefix(ext, "."),
	}, nil
}

// extractPDF concatenates the plain text of every page in order.
// The pdf package panics on some malformed files, so panics become errors.
func extractPDF(filePath string) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages, err = "", 0, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), totalPage, nil
}

func extractDOCX(filePath string) (string, error) {
	doc, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return stripDocxXML(doc.Editable().GetContent()), nil
}

// stripDocxXML turns WordprocessingML into plain text, one paragraph per line.
func stripDocxXML(content string) string {
	content = docxParagraphEnd.ReplaceAllStringFunc(content, func(tag string) string {
		if tag == "<w:tab/>" {
			return "\t"
		}
		return "\n"
	})
	content = xmlTag.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content))
}

// CleanText trims every line and drops the blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleanedLines := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
