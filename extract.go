package shotpdf

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/k1LoW/errors"
)

const dataImageMarker = "data:image"

// Record is an element of the JSON array Extract reads.
type Record struct {
	Text string `json:"text,omitempty"`
}

// Extract reads the JSON array at src (a file path or an http(s) URL),
// decodes the first data URI image found in the `text` of its records
// and writes it to <dir>/<name>.png. It returns the path of the written file.
func (s *Screenshots) Extract(ctx context.Context, src, name string) (_ string, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if name == "" {
		return "", fmt.Errorf("output name is required")
	}
	var b []byte
	if isURL(src) {
		b, err = s.fetch(ctx, src)
		if err != nil {
			return "", err
		}
	} else {
		b, err = os.ReadFile(src)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", src, err)
		}
	}
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return "", fmt.Errorf("failed to parse %s as an array of records: %w", src, err)
	}
	text, ok := findImage(records)
	if !ok {
		s.logger.Info("no image found", slog.String("src", src))
		return "", ErrNoImage
	}
	decoded, err := s.decode(text)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}
	p := s.Path(name)
	if err := os.WriteFile(p, decoded, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}
	s.logger.Info("saved screenshot", slog.String("path", p), slog.Int("size", len(decoded)))
	return p, nil
}

func (s *Screenshots) decode(text string) ([]byte, error) {
	if s.verify {
		_, decoded, err := ParseDataURI(text)
		if err != nil {
			return nil, err
		}
		return decoded, nil
	}
	_, payload, ok := strings.Cut(text, ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URI: no payload after comma")
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image data: %w", err)
	}
	return decoded, nil
}

// findImage returns the text of the first record that contains an image data URI.
func findImage(records []Record) (string, bool) {
	for _, r := range records {
		if strings.Contains(r.Text, dataImageMarker) {
			return r.Text, true
		}
	}
	return "", false
}
