// Package archive exports captured attempts as gzip-compressed JSON Lines
// and uploads them to S3 before retention purges them.
package archive

import (
	"bytes"
	"fmt"

	"github.com/BradenHooton/lure/internal/models"
	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// RedactedPassword replaces entered passwords in every archive
const RedactedPassword = "[REDACTED]"

// EncodeJSONLGZ writes one JSON object per attempt, newline separated, gzip
// compressed. Entered passwords are replaced with RedactedPassword; the input
// slice is not modified.
func EncodeJSONLGZ(attempts []*models.LoginAttempt) ([]byte, error) {
	var buf bytes.Buffer

	gz, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	enc := json.NewEncoder(gz)
	for _, a := range attempts {
		row := *a
		if row.EnteredPassword != "" {
			row.EnteredPassword = RedactedPassword
		}
		if err := enc.Encode(&row); err != nil {
			_ = gz.Close()
			return nil, fmt.Errorf("failed to encode attempt %s: %w", a.ID, err)
		}
	}

	// Close writes the gzip footer
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish gzip stream: %w", err)
	}

	return buf.Bytes(), nil
}
