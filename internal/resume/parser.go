package resume

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mockmate/mockmate/internal/model"
)

// Supported resume MIME types. DOCX is recognized but extraction for it is
// not implemented: the candidate proceeds with empty details and fills them
// through the chat.
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupportedType is returned for any MIME type other than PDF or DOCX.
// It is the only parsing failure surfaced to the candidate as a rejection.
var ErrUnsupportedType = errors.New("unsupported resume file type: only PDF and DOCX are accepted")

var (
	emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRegex = regexp.MustCompile(`\(?\d{3}\)?[\s-]?\d{3}[\s-]?\d{4}`)
	// A capitalized two-word phrase. Crude, but the chat collects the name
	// whenever this misses.
	nameRegex = regexp.MustCompile(`[A-Z][a-z]+\s[A-Z][a-z]+`)
)

// Parse extracts candidate details from an uploaded resume file.
func Parse(r io.ReaderAt, size int64, mimeType string) (model.CandidateDetails, error) {
	switch mimeType {
	case MimePDF:
		text, err := extractPDFText(r, size)
		if err != nil {
			return model.CandidateDetails{}, fmt.Errorf("parse PDF: %w", err)
		}
		details := ExtractDetails(text)
		details.ResumeText = text
		return details, nil
	case MimeDOCX:
		slog.Warn("DOCX parsing is not supported yet, proceeding with empty details")
		return model.CandidateDetails{}, nil
	default:
		return model.CandidateDetails{}, ErrUnsupportedType
	}
}

// ExtractDetails pulls name, email, and phone out of resume text. Fields
// the regexes miss stay empty and are collected by the chat.
func ExtractDetails(text string) model.CandidateDetails {
	var details model.CandidateDetails
	if m := emailRegex.FindString(text); m != "" {
		details.Email = m
	}
	if m := phoneRegex.FindString(text); m != "" {
		details.Phone = m
	}
	if m := nameRegex.FindString(text); m != "" {
		details.Name = m
	}
	return details
}

func extractPDFText(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", i, err)
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(content)
	}
	return sb.String(), nil
}
