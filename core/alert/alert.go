// Package alert defines the alerting collaborator used by commands and the health monitor.
package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Level is the severity of a system alert.
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

// ErrInvalidLevel is returned by ParseLevel for unknown levels.
var ErrInvalidLevel = errors.New("invalid alert level")

// ParseLevel parses a level name. Empty input yields LevelInfo.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LevelInfo, nil
	case LevelInfo, LevelWarning, LevelError, LevelCritical:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// Color returns the embed color for the level.
func (l Level) Color() int {
	switch l {
	case LevelWarning:
		return 0xffaa00
	case LevelError:
		return 0xff5500
	case LevelCritical:
		return 0xff0000
	default:
		return 0x0099ff
	}
}

// Timeline is a lead's expected project start.
type Timeline string

const (
	TimelineImmediately Timeline = "immediately"
	TimelineOneMonth    Timeline = "1_month"
	TimelineOneToThree  Timeline = "1-3_months"
	TimelineThreePlus   Timeline = "3_plus_months"
)

// Timelines lists valid timelines in display order.
var Timelines = []Timeline{TimelineImmediately, TimelineOneMonth, TimelineOneToThree, TimelineThreePlus}

// Label returns the human readable timeline.
func (t Timeline) Label() string {
	switch t {
	case TimelineImmediately:
		return "Immediate"
	case TimelineOneMonth:
		return "1 month"
	case TimelineOneToThree:
		return "1-3 months"
	case TimelineThreePlus:
		return "3+ months"
	default:
		return string(t)
	}
}

// Lead is a manually reported sales lead.
type Lead struct {
	SessionID      string
	Name           string
	Email          string
	Company        string
	PainScore      *int
	EstimatedValue *int64
	Timeline       Timeline
	TopOpportunity string
	ReportedBy     string
	ReportedAt     time.Time
}

// Alerter delivers alerts to operators.
type Alerter interface {
	SendAlert(ctx context.Context, message string, level Level) error
	SendLeadAlert(ctx context.Context, lead Lead) error
}

// Nop discards every alert.
type Nop struct{}

func (Nop) SendAlert(context.Context, string, Level) error { return nil }
func (Nop) SendLeadAlert(context.Context, Lead) error      { return nil }
