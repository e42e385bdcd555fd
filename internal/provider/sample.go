package provider

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-audio/wav"
)

// acceptedFormats are the format tags the provider accepts.
var acceptedFormats = map[string]bool{
	"wav":  true,
	"mp3":  true,
	"ogg":  true,
	"flac": true,
	"m4a":  true,
	"aac":  true,
}

// ValidateSample checks a sample before any network call. WAV payloads are
// additionally header-checked so obviously broken uploads fail fast.
func ValidateSample(sample Sample) error {
	if len(sample.Data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}

	format := strings.ToLower(strings.TrimPrefix(sample.Format, "."))
	if format == "" {
		return fmt.Errorf("%w: missing format tag", ErrInvalidInput)
	}
	if !acceptedFormats[format] {
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidInput, format)
	}

	if format == "wav" {
		decoder := wav.NewDecoder(bytes.NewReader(sample.Data))
		if !decoder.IsValidFile() {
			return fmt.Errorf("%w: not a valid WAV file", ErrInvalidInput)
		}
	}

	return nil
}
