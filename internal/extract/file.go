package extract

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"github.com/shoshlabs/shoshchat/internal/domain"
)

// FileExtractor extracts text from uploaded file bytes, dispatching on the
// filename extension. Unknown extensions are decoded as UTF-8 text with
// invalid bytes dropped.
type FileExtractor struct{}

func (e *FileExtractor) Extract(_ context.Context, p Payload) (string, error) {
	if len(p.Data) == 0 || p.FileName == "" {
		return "", domain.NewExtractionError("no extractable content for file source", nil)
	}

	switch strings.ToLower(filepath.Ext(p.FileName)) {
	case ".pdf":
		return extractPDF(p.Data)
	case ".docx":
		return extractDOCX(p.Data)
	default:
		return strings.ToValidUTF8(string(p.Data), ""), nil
	}
}

// extractPDF concatenates per-page text. A page that fails to extract is
// logged and skipped; only an unreadable document as a whole is fatal.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewExtractionError("unable to read PDF", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		text, err := extractPDFPage(reader, i)
		if err != nil {
			log.Printf("skipping unextractable PDF page: %v", err)
			continue
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

// extractPDFPage isolates a single page so a malformed content stream
// (the pdf library panics on some of them) cannot abort the document.
func extractPDFPage(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", num, r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// extractDOCX concatenates paragraph text from a DOCX document.
func extractDOCX(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewExtractionError("unable to read DOCX", err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			paragraphs = append(paragraphs, p.String())
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}
