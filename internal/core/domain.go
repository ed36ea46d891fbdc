package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindExpense Kind = "지출"
	KindIncome  Kind = "수입"

	// Placeholder stored for blank category or description fields.
	BlankField = "-"
)

type (
	// Kind is the ledger entry direction. Its value is the Korean label, so
	// ordering kinds as strings puts 수입 before 지출.
	Kind string

	Date struct {
		time.Time
	}

	// Won is an integer amount of Korean won.
	Won int64

	Entry struct {
		Date        Date
		Kind        Kind
		Category    string
		Description string
		Amount      Won
	}

	Period struct {
		Start Date
		End   Date
	}
)

var (
	ErrZeroAmount      = errors.New("amount must be greater than zero")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidRange    = errors.New("start date is after end date")
	ErrEmptyData       = errors.New("no usable rows")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// FileReadError reports an upload that could not be read as a table.
type FileReadError struct {
	Name string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %q: %v", e.Name, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping the wall-clock date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string as used by date inputs.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Before reports whether d falls on an earlier calendar day than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

// ParseKind accepts the exact Korean labels used by the entry form.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.TrimSpace(s)) {
	case KindExpense:
		return KindExpense, nil
	case KindIncome:
		return KindIncome, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (k Kind) Validate() error {
	if k != KindExpense && k != KindIncome {
		return ErrInvalidKind
	}
	return nil
}

// NewEntry builds an entry, replacing blank category and description with "-".
func NewEntry(date Date, kind Kind, category, description string, amount Won) Entry {
	return Entry{
		Date:        date,
		Kind:        kind,
		Category:    orBlank(category),
		Description: orBlank(description),
		Amount:      amount,
	}
}

func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if e.Amount <= 0 {
		return ErrZeroAmount
	}
	return nil
}

func (p Period) Validate() error {
	if p.Start.After(p.End) {
		return ErrInvalidRange
	}
	return nil
}

func (p Period) String() string {
	return p.Start.String() + " ~ " + p.End.String()
}

// Contains reports whether d lies within the inclusive period.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

func orBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return BlankField
	}
	return strings.TrimSpace(s)
}
