package gateway

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode parses a model reply into T and validates it. Markdown fences and
// prose around the outermost JSON object are ignored.
func Decode[T any](raw string) (*T, error) {
	text := cleanJSON(raw)
	if text == "" {
		return nil, ErrEmptyReply
	}

	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, eris.Wrapf(ErrInvalidSchema, "decode: %v", err)
	}
	if err := validate.Struct(&v); err != nil {
		return nil, eris.Wrapf(ErrInvalidSchema, "validate: %v", err)
	}
	return &v, nil
}

// cleanJSON extracts a JSON object from text that may carry code fences or
// other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
