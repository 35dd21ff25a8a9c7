// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle phase of the list.
type Status string

const (
	StatusPlanning Status = "planning"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
)

// ParseStatus converts a stored status value.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPlanning, StatusRunning, StatusFinished:
		return Status(value), nil
	default:
		return "", fmt.Errorf("unknown status %q", value)
	}
}

// Session defaults applied when the singleton is first created.
const (
	DefaultTitle           = "My To-Do List"
	DefaultPaperColor      = "#fefcf5"
	DefaultBackgroundColor = "#f1f5f9"
)

// Session is the singleton list state.
type Session struct {
	Status          Status
	StartTime       *time.Time
	EndTime         *time.Time
	Tier            int
	Title           string
	PaperColor      string
	BackgroundColor string
}

// DefaultSession returns the state of a list that was never touched.
func DefaultSession() Session {
	return Session{
		Status:          StatusPlanning,
		Title:           DefaultTitle,
		PaperColor:      DefaultPaperColor,
		BackgroundColor: DefaultBackgroundColor,
	}
}

// Appearance carries optional cosmetic updates.
type Appearance struct {
	Title           *string
	PaperColor      *string
	BackgroundColor *string
}

// Task is a single list entry.
type Task struct {
	ID        int64
	Content   string
	Completed bool
	Order     int
}

// TierCount is the number of trophy tiers.
const TierCount = 8

// TrophyCounts holds one counter per tier; index 0 is tier 1.
type TrophyCounts [TierCount]int

// Count returns the counter for a tier, or 0 when out of range.
func (c TrophyCounts) Count(tier int) int {
	if tier < 1 || tier > TierCount {
		return 0
	}
	return c[tier-1]
}

// Total sums all counters.
func (c TrophyCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Finish records one completed run.
type Finish struct {
	ID         int64
	StartedAt  time.Time
	EndedAt    time.Time
	Tier       int
	TasksDone  int
	TasksTotal int
}

// Duration is the elapsed running time.
func (f Finish) Duration() time.Duration {
	return f.EndedAt.Sub(f.StartedAt)
}

// ClearMode selects which tasks a reset removes.
type ClearMode string

const (
	ClearCompleted ClearMode = "completed-only"
	ClearAll       ClearMode = "all"
)

// ParseClearMode accepts the configured clear mode. Empty means completed-only.
func ParseClearMode(value string) (ClearMode, error) {
	switch ClearMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ClearCompleted:
		return ClearCompleted, nil
	case ClearAll:
		return ClearAll, nil
	default:
		return "", fmt.Errorf("unknown clear mode %q (want %q or %q)", value, ClearCompleted, ClearAll)
	}
}

// HistoryConfig defines filters for finish history output.
type HistoryConfig struct {
	Since *time.Time
	Last  int
}
