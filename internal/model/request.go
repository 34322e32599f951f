package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyRequest    = errors.New("architecture request is empty")
	ErrInvalidPriority = errors.New("invalid priority")
)

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Priorities lists the accepted priority levels from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

// ParsePriority accepts any casing of the four levels. Blank input means Low.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PriorityLow, nil
	}
	for _, p := range Priorities() {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of Low, Medium, High, Critical)", ErrInvalidPriority, s)
}

// Request is what the caller asks the council.
type Request struct {
	Text       string
	Categories []string
	Priority   Priority
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyRequest
	}
	if _, err := ParsePriority(string(r.Priority)); err != nil {
		return err
	}
	return nil
}

// CategoryList returns the categories with blanks dropped, never nil.
func (r Request) CategoryList() []string {
	out := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
