package parser

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Normalize prepares raw document text for line classification: CRLF and
// bare CR line endings become \n, and non-breaking spaces (which the PDF
// extraction step leaves behind in the amount columns) become regular
// spaces.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return text
}

// DecodeBytes interprets raw file bytes as UTF-8, falling back to Latin-1
// when the bytes are not valid UTF-8. Latin-1 maps every byte to the code
// point of the same value, so the fallback cannot fail.
func DecodeBytes(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// ReadDocument loads a budget document from disk, decodes it and
// normalizes it for parsing.
func ReadDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document %q: %w", path, err)
	}
	return Normalize(DecodeBytes(data)), nil
}
