// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the ledger entry form, the analyzer date range and a body parser that
// accepts both form-encoded and JSON payloads.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gagyebu/internal/core"
	"gagyebu/internal/services"
)

// maxFormBodyBytes bounds a form or JSON body; free-text fields inside it
// are passed through whole.
const maxFormBodyBytes = 1 << 20

// EntryForm holds the raw ledger form fields.
type EntryForm struct {
	Date        string
	Kind        string
	Category    string
	Description string
	Amount      string
}

// ParseEntryForm reads the ledger form from a parsed body.
func ParseEntryForm(p *RequestBodyParser) EntryForm {
	return EntryForm{
		Date:        p.Get("date"),
		Kind:        p.Get("kind"),
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Amount:      p.Get("amount"),
	}
}

// Entry validates the form. A blank date means today; a blank kind means
// 지출, the form's default. Zero amounts pass here and are rejected by the
// ledger itself.
func (f EntryForm) Entry(today core.Date) (services.NewEntry, error) {
	date := today
	if f.Date != "" {
		d, err := core.ParseDate(f.Date)
		if err != nil {
			return services.NewEntry{}, err
		}
		date = d
	}

	kind := core.KindExpense
	if f.Kind != "" {
		k, err := core.ParseKind(f.Kind)
		if err != nil {
			return services.NewEntry{}, err
		}
		kind = k
	}

	amount, err := core.ParseWon(f.Amount)
	if err != nil {
		return services.NewEntry{}, err
	}

	return services.NewEntry{
		Date:        date,
		Kind:        kind,
		Category:    f.Category,
		Description: f.Description,
		Amount:      amount,
	}, nil
}

// ParsePeriodParams reads start/end dates, falling back to the given period
// for blank values. It fails with core.ErrInvalidDate for malformed dates and
// core.ErrInvalidRange when start is after end.
func ParsePeriodParams(values url.Values, fallback core.Period) (core.Period, error) {
	p := fallback
	if v := strings.TrimSpace(values.Get("start")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("start: %w", err)
		}
		p.Start = d
	}
	if v := strings.TrimSpace(values.Get("end")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("end: %w", err)
		}
		p.End = d
	}
	if err := p.Validate(); err != nil {
		return core.Period{}, err
	}
	return p, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once, up to maxFormBodyBytes, and stores it for
// subsequent parsing. Larger bodies make Parse fail with *http.MaxBytesError.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(nil, r.Body, maxFormBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetText returns a multi-line free-text value, keeping inner newlines.
func (p *RequestBodyParser) GetText(key string) string {
	return p.Get(key)
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// Values exposes form-encoded data, or nil for JSON bodies.
func (p *RequestBodyParser) Values() url.Values {
	return p.formData
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
