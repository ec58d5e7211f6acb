package querybuilder

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCursor is returned when a page token cannot be decoded
var ErrInvalidCursor = errors.New("invalid page token")

// EncodeCursor turns the sort values of the last hit on a page into an
// opaque page token
func EncodeCursor(sortValues []any) (string, error) {
	if len(sortValues) == 0 {
		return "", nil
	}

	data, err := json.Marshal(sortValues)
	if err != nil {
		return "", fmt.Errorf("failed to encode page token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCursor restores the search_after values held by a page token.
// Numbers are returned as json.Number so they re-encode verbatim.
// Tokens in the legacy "<timestamp>,<id>" form decode to their parts.
func DecodeCursor(token string) ([]any, error) {
	if token == "" {
		return nil, ErrInvalidCursor
	}

	if data, err := base64.RawURLEncoding.DecodeString(token); err == nil {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		var values []any
		if err := dec.Decode(&values); err == nil && len(values) > 0 {
			return values, nil
		}
	}

	if strings.Contains(token, ",") {
		parts := strings.Split(token, ",")
		values := make([]any, len(parts))
		for i, p := range parts {
			values[i] = p
		}
		return values, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidCursor, token)
}
