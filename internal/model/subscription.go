// Package model defines domain types for subtrack subscriptions and insights.
package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Subscription is one recurring monthly expense.
type Subscription struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	Price      decimal.Decimal `json:"price" yaml:"price"`
	DayOfMonth int             `json:"dayOfMonth" yaml:"dayOfMonth"`
	Category   Category        `json:"category" yaml:"category"`
	Color      string          `json:"color,omitempty" yaml:"color,omitempty"`
}

// DisplayColor returns Color, or DefaultColor when none is set.
func (s Subscription) DisplayColor() string {
	if s.Color == "" {
		return DefaultColor
	}
	return s.Color
}

// Initials returns the two-letter badge shown next to a subscription.
func (s Subscription) Initials() string {
	r := []rune(strings.TrimSpace(s.Name))
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

// Draft returns the subscription without its id.
func (s Subscription) Draft() Draft {
	return Draft{
		Name:       s.Name,
		Price:      s.Price,
		DayOfMonth: s.DayOfMonth,
		Category:   s.Category,
		Color:      s.Color,
	}
}

// Validate checks the stored-record invariants, including a non-empty id.
func (s Subscription) Validate() error {
	verr := s.Draft().validate()
	if strings.TrimSpace(s.ID) == "" {
		verr.add("id", "must not be empty")
	}
	return verr.orNil()
}

// Draft is a subscription that has not been assigned an id yet.
type Draft struct {
	Name       string
	Price      decimal.Decimal
	DayOfMonth int
	Category   Category
	Color      string
}

// NewDraft builds a draft the way the add form does: the name is trimmed
// and the color is derived from the category.
func NewDraft(name string, price decimal.Decimal, day int, category Category) Draft {
	return Draft{
		Name:       strings.TrimSpace(name),
		Price:      price,
		DayOfMonth: day,
		Category:   category,
		Color:      category.Color(),
	}
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate reports every field that violates the subscription invariants.
// The returned error is a *ValidationError or nil.
func (d Draft) Validate() error {
	return d.validate().orNil()
}

func (d Draft) validate() *ValidationError {
	verr := &ValidationError{}
	if strings.TrimSpace(d.Name) == "" {
		verr.add("name", "must not be empty")
	}
	if d.Price.IsNegative() {
		verr.add("price", "must not be negative")
	}
	if d.DayOfMonth < 1 || d.DayOfMonth > 31 {
		verr.add("dayOfMonth", fmt.Sprintf("must be between 1 and 31, got %d", d.DayOfMonth))
	}
	if !d.Category.Valid() {
		verr.add("category", fmt.Sprintf("unknown category %q", d.Category))
	}
	if d.Color != "" && !hexColor.MatchString(d.Color) {
		verr.add("color", fmt.Sprintf("must be a hex color like #8b5cf6, got %q", d.Color))
	}
	return verr
}

// FieldError is a single invalid field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects the field problems of a rejected record.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "invalid subscription: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the failures.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
