package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"quotexbot/internal/model"
)

const maxBodyBytes = 1 << 20

// ValidationError describes why a request body was rejected.
// Reason is a short stable label used for metrics.
type ValidationError struct {
	Reason string
	Msg    string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// decodeBars reads a JSON array of bar objects from body.
// Every element must carry numeric open, high, low and close with high >= low.
func decodeBars(w http.ResponseWriter, r *http.Request) ([]model.Bar, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var raw []json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, invalid("too_large", "request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, invalid("empty", "request body is empty")
		default:
			return nil, invalid("malformed", "body must be a JSON array of bar objects: %v", err)
		}
	}
	if len(raw) == 0 {
		return nil, invalid("empty", "at least one bar is required")
	}

	bars := make([]model.Bar, len(raw))
	for i, item := range raw {
		b, err := decodeBar(item)
		if err != nil {
			return nil, invalid(err.Reason, "bar %d: %s", i, err.Msg)
		}
		bars[i] = b
	}
	return bars, nil
}

// requiredColumns are the numeric columns every bar must carry.
var requiredColumns = [...]string{"open", "high", "low", "close"}

// decodeBar keeps every column of the object verbatim and parses the
// required price columns from it.
func decodeBar(item json.RawMessage) (model.Bar, *ValidationError) {
	var cols map[string]json.RawMessage
	if err := json.Unmarshal(item, &cols); err != nil || cols == nil {
		return model.Bar{}, invalid("malformed", "must be a JSON object")
	}

	var prices [len(requiredColumns)]float64
	for i, name := range requiredColumns {
		raw, ok := cols[name]
		if !ok || string(raw) == "null" {
			return model.Bar{}, invalid("missing_field", "missing required field %q", name)
		}
		if err := json.Unmarshal(raw, &prices[i]); err != nil {
			return model.Bar{}, invalid("non_numeric", "field %q must be a number", name)
		}
	}
	b := model.Bar{
		Open:    prices[0],
		High:    prices[1],
		Low:     prices[2],
		Close:   prices[3],
		Columns: cols,
	}
	if b.High < b.Low {
		return model.Bar{}, invalid("inverted_range", "high %g is below low %g", b.High, b.Low)
	}
	return b, nil
}
