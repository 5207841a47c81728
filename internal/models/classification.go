package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Classification is the sensitivity level of a tracked database.
// Stored and transported as its ordinal.
type Classification int

const (
	Unclassified Classification = iota
	Low
	Medium
	High
)

var classificationNames = [...]string{"UNCLASSIFIED", "LOW", "MEDIUM", "HIGH"}

// Valid reports whether c is one of the four legal ordinals
func (c Classification) Valid() bool {
	return c >= Unclassified && c <= High
}

func (c Classification) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Classification(%d)", int(c))
	}
	return classificationNames[c]
}

// ClassificationFromInt converts an ordinal, rejecting anything outside 0..3
func ClassificationFromInt(v int64) (Classification, bool) {
	c := Classification(v)
	if int64(c) != v || !c.Valid() {
		return Unclassified, false
	}
	return c, true
}

// ParseClassification accepts an ordinal ("3") or a level name ("high")
func ParseClassification(s string) (Classification, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if c, ok := ClassificationFromInt(n); ok {
			return c, nil
		}
		return Unclassified, fmt.Errorf("invalid classification: %s", s)
	}
	for i, name := range classificationNames {
		if strings.EqualFold(name, s) {
			return Classification(i), nil
		}
	}
	return Unclassified, fmt.Errorf("invalid classification: %s", s)
}
