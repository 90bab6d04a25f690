package models

import (
	"fmt"
	"strings"
)

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity accepts the three granularities case-insensitively.
// An empty string means Daily.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case "", Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown granularity %q (want daily, weekly or monthly)", s)
}
