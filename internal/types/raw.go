package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// RawQuestion is the untyped record a question source supplies.
// It becomes a Question only through NewQuestion.
type RawQuestion struct {
	ID          string                 `json:"id"`
	Lang        string                 `json:"lang"`
	Domain      Domain                 `json:"domain"`
	Stem        string                 `json:"stem"`
	Choices     map[ChoiceLabel]string `json:"choices"`
	Answer      ChoiceLabel            `json:"answer"`
	Explanation string                 `json:"explanation,omitempty"`
	UpdatedAt   Timestamp              `json:"updatedAt,omitempty"`
}

// Timestamp accepts either epoch milliseconds or a date string when decoded.
// The zero value means "not supplied".
type Timestamp struct {
	time.Time
}

// TimestampFromMillis converts epoch milliseconds to a Timestamp
func TimestampFromMillis(ms int64) Timestamp {
	return Timestamp{Time: time.UnixMilli(ms)}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts a number (epoch ms), a date string, or null
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*t = Timestamp{}
			return nil
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		// Numeric strings are treated as epoch milliseconds
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			*t = TimestampFromMillis(ms)
			return nil
		}
		return fmt.Errorf("invalid timestamp %q", s)
	}

	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	*t = TimestampFromMillis(int64(ms))
	return nil
}

// MarshalJSON emits epoch milliseconds, or null when unset
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}
