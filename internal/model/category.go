package model

import (
	"fmt"
	"strings"
)

// Category is the closed set of subscription categories.
type Category string

const (
	CategoryEntertainment Category = "Entertainment"
	CategoryUtilities     Category = "Utilities"
	CategorySoftware      Category = "Software"
	CategoryFitness       Category = "Fitness"
	CategoryOther         Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryEntertainment,
	CategoryUtilities,
	CategorySoftware,
	CategoryFitness,
	CategoryOther,
}

// DefaultColor is used for subscriptions stored without a color.
const DefaultColor = "#94a3b8"

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (want one of %s)", s, categoryList())
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryEntertainment, CategoryUtilities, CategorySoftware, CategoryFitness, CategoryOther:
		return true
	}
	return false
}

// Color returns the display color assigned to new subscriptions in c.
func (c Category) Color() string {
	switch c {
	case CategoryEntertainment:
		return "#8b5cf6" // violet
	case CategoryUtilities:
		return "#f59e0b" // amber
	case CategorySoftware:
		return "#3b82f6" // blue
	case CategoryFitness:
		return "#10b981" // emerald
	case CategoryOther:
		return "#64748b" // slate
	}
	return "#64748b"
}

func (c Category) String() string {
	return string(c)
}

func categoryList() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
