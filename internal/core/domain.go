package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

type (
	TransactionType string

	// Period is the recurrence of a budget rule.
	Period string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID    int64
		Email string
		Name  string
	}

	Category struct {
		ID     int64
		UserID int64
		Name   string
		Type   TransactionType
	}

	Transaction struct {
		ID          int64
		UserID      int64
		AccountID   int64
		CategoryID  int64
		Amount      Money
		Type        TransactionType
		Date        Date
		Description string
	}

	BudgetRule struct {
		ID           int64
		UserID       int64
		CategoryID   int64
		CategoryName string
		Amount       Money
		Period       Period
		StartDate    Date
		EndDate      Date // zero means open-ended
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidPeriod     = errors.New("invalid budget period")
	ErrInvalidDateRange  = errors.New("end date must not be before start date")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrMissingUser       = errors.New("missing user id")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// IsEmpty returns true if the date is zero (used for optional end dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (p Period) Valid() bool {
	switch p {
	case Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	if c.UserID <= 0 {
		return ErrMissingUser
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.UserID <= 0 {
		return ErrMissingUser
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (r BudgetRule) Validate() error {
	if r.UserID <= 0 {
		return ErrMissingUser
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if !r.Period.Valid() {
		return ErrInvalidPeriod
	}
	if err := r.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !r.EndDate.IsEmpty() && r.EndDate.Before(r.StartDate.Time) {
		return ErrInvalidDateRange
	}
	return nil
}

// Active reports whether the rule covers the given day.
func (r BudgetRule) Active(day Date) bool {
	if day.Before(r.StartDate.Time) {
		return false
	}
	return r.EndDate.IsEmpty() || !day.After(r.EndDate.Time)
}
