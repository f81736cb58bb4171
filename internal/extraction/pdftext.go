package extraction

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	maxTextBytes     = 100 * 1024 // cap for extracted text
	scannedThreshold = 50         // chars per page below which a PDF is considered scanned
)

// PDFAnalysis is the result of pre-processing a PDF invoice before the
// LLM call. Text-layer invoices get their text sent alongside the
// document so the model reads numbers instead of guessing from pixels.
type PDFAnalysis struct {
	PageCount     int
	ExtractedText string
	IsScanned     bool
	Err           error
}

// AnalyzePDF extracts text and metadata from a PDF. It is wrapped in
// recover() and never panics or blocks ingest; on any error it returns
// conservative defaults (scanned, one page).
func AnalyzePDF(data []byte) (result *PDFAnalysis) {
	result = &PDFAnalysis{
		PageCount: 1,
		IsScanned: true,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[pdf] recovered from panic during analysis: %v", r)
			result.Err = fmt.Errorf("panic during PDF analysis: %v", r)
			result.IsScanned = true
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		result.Err = fmt.Errorf("open PDF reader: %w", err)
		return result
	}

	result.PageCount = reader.NumPage()
	if result.PageCount < 1 {
		result.PageCount = 1
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		result.Err = fmt.Errorf("extract plain text: %w", err)
		return result
	}

	textBytes, err := io.ReadAll(io.LimitReader(plainText, int64(maxTextBytes)))
	if err != nil {
		result.Err = fmt.Errorf("read plain text: %w", err)
		return result
	}

	result.ExtractedText = strings.TrimSpace(string(textBytes))
	result.IsScanned = isLikelyScanned(result.ExtractedText, result.PageCount)

	return result
}

// isLikelyScanned returns true if the PDF appears to be a scanned image
// (very little extractable text per page).
func isLikelyScanned(text string, pages int) bool {
	if pages <= 0 {
		pages = 1
	}
	return len(text)/pages < scannedThreshold
}

// detectMimeType returns the MIME type based on document data.
func detectMimeType(data []byte) string {
	if len(data) >= 4 && string(data[:4]) == "%PDF" {
		return "application/pdf"
	}
	if len(data) >= 8 && string(data[:4]) == "\x89PNG" {
		return "image/png"
	}
	return "image/jpeg"
}
