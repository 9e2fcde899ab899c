package resume

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mockmate/mockmate/internal/model"
)

func TestExtractDetails(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantName  string
		wantEmail string
		wantPhone string
	}{
		{
			name:      "all fields present",
			text:      "John Smith\njohn.smith@example.com\n(555) 123-4567\nSenior developer",
			wantName:  "John Smith",
			wantEmail: "john.smith@example.com",
			wantPhone: "(555) 123-4567",
		},
		{
			name:      "dashed phone",
			text:      "Contact: 555-123-4567",
			wantPhone: "555-123-4567",
		},
		{
			name:      "plus tagged email",
			text:      "reach me at dev+resume@sub.example.co.uk thanks",
			wantEmail: "dev+resume@sub.example.co.uk",
		},
		{
			name:     "first capitalized pair wins",
			text:     "resume of Jane Doe, reviewed by Bob Stone",
			wantName: "Jane Doe",
		},
		{
			name: "nothing extractable",
			text: "PLAIN UPPERCASE TEXT 12",
		},
		{
			name: "empty text",
			text: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDetails(tt.text)
			if got.Name != tt.wantName {
				t.Errorf("name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Email != tt.wantEmail {
				t.Errorf("email = %q, want %q", got.Email, tt.wantEmail)
			}
			if got.Phone != tt.wantPhone {
				t.Errorf("phone = %q, want %q", got.Phone, tt.wantPhone)
			}
		})
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	data := []byte("hello")
	_, err := Parse(bytes.NewReader(data), int64(len(data)), "text/plain")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Parse(text/plain) error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseDOCXReturnsEmptyDetails(t *testing.T) {
	data := []byte("PK\x03\x04 not a real document")
	details, err := Parse(bytes.NewReader(data), int64(len(data)), MimeDOCX)
	if err != nil {
		t.Fatalf("Parse(docx) error: %v", err)
	}
	if details != (model.CandidateDetails{}) {
		t.Errorf("Parse(docx) = %+v, want empty details", details)
	}
}

func TestParseInvalidPDF(t *testing.T) {
	data := []byte("definitely not a pdf")
	_, err := Parse(bytes.NewReader(data), int64(len(data)), MimePDF)
	if err == nil {
		t.Error("Parse of garbage PDF bytes should fail")
	}
}
