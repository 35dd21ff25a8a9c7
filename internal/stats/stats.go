// Package stats contains trophy statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/verte-zerg/paperlist/internal/model"
	"github.com/verte-zerg/paperlist/internal/trophy"
)

const (
	barWidth   = 20
	barChar    = "#"
	colorReset = "\x1b[0m"
)

// tierColors follow the trophy metals: diamond blue, gold, silver, bronze, then grey.
var tierColors = [model.TierCount]string{
	"\x1b[94m",
	"\x1b[93m",
	"\x1b[37m",
	"\x1b[33m",
	"\x1b[90m",
	"\x1b[90m",
	"\x1b[90m",
	"\x1b[90m",
}

// Summary condenses the histogram and history.
type Summary struct {
	Total     int
	Best      int
	Average   float64
	Fastest   time.Duration
	TotalTime time.Duration
}

// Summarize computes summary metrics. Best and Average are 0 without trophies.
func Summarize(counts model.TrophyCounts, finishes []model.Finish) Summary {
	var s Summary
	weighted := 0
	for i, n := range counts {
		tier := i + 1
		s.Total += n
		weighted += n * tier
		if n > 0 && s.Best == 0 {
			s.Best = tier
		}
	}
	if s.Total > 0 {
		s.Average = float64(weighted) / float64(s.Total)
	}
	for i, f := range finishes {
		d := f.Duration()
		s.TotalTime += d
		if i == 0 || d < s.Fastest {
			s.Fastest = d
		}
	}
	return s
}

// Bar renders count as a bar scaled so that peak fills width.
func Bar(count, peak, width int) string {
	if count <= 0 || peak <= 0 || width <= 0 {
		return ""
	}
	n := count * width / peak
	if n == 0 {
		n = 1
	}
	return strings.Repeat(barChar, n)
}

// FormatDuration renders an elapsed time the way the reward dialog does.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return "under a minute"
	}
	base := time.Unix(0, 0)
	return strings.TrimSpace(humanize.CustomRelTime(base, base.Add(d), "", "", durationMagnitudes))
}

var durationMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute * 2, Format: "1 minute", DivBy: 1},
	{D: time.Hour, Format: "%d minutes", DivBy: time.Minute},
	{D: time.Hour * 2, Format: "1 hour", DivBy: 1},
	{D: humanize.Day, Format: "%d hours", DivBy: time.Hour},
	{D: humanize.Day * 2, Format: "1 day", DivBy: 1},
	{D: humanize.LongTime, Format: "%d days", DivBy: humanize.Day},
}

// RenderTrophies prints the histogram as a table with bars.
func RenderTrophies(w io.Writer, counts model.TrophyCounts, useColor bool) error {
	if counts.Total() == 0 {
		_, err := fmt.Fprintln(w, "No trophies yet. Finish a list to earn one.")
		return err
	}
	peak := 0
	for _, n := range counts {
		if n > peak {
			peak = n
		}
	}
	headers := []string{"Tier", "Trophy", "Count", ""}
	rows := make([][]string, 0, model.TierCount)
	for i, n := range counts {
		tier := i + 1
		rows = append(rows, []string{
			fmt.Sprintf("%d", tier),
			trophy.Title(tier),
			fmt.Sprintf("%d", n),
			Bar(n, peak, barWidth),
		})
	}
	lines := formatTable(headers, rows, map[int]bool{0: true, 2: true})
	if _, err := fmt.Fprintln(w, "Trophies"); err != nil {
		return err
	}
	for i, line := range lines {
		if useColor && i > 0 {
			line = tierColors[i-1] + line + colorReset
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary prints summary metrics.
func RenderSummary(w io.Writer, s Summary) error {
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trophies: %d\n", s.Total); err != nil {
		return err
	}
	if s.Total == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Best: %s (tier %d)\n", trophy.Title(s.Best), s.Best); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Tier: %.2f\n", s.Average); err != nil {
		return err
	}
	if s.TotalTime > 0 {
		if _, err := fmt.Fprintf(w, "Fastest: %s\n", FormatDuration(s.Fastest)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Time Spent: %s\n", FormatDuration(s.TotalTime)); err != nil {
			return err
		}
	}
	return nil
}

// RenderHistory prints finishes as a table, in the given order.
func RenderHistory(w io.Writer, finishes []model.Finish) error {
	if len(finishes) == 0 {
		_, err := fmt.Fprintln(w, "No finished lists found.")
		return err
	}
	headers := []string{"Finished", "Duration", "Tier", "Trophy", "Tasks"}
	rows := make([][]string, 0, len(finishes))
	for _, f := range finishes {
		rows = append(rows, []string{
			f.EndedAt.Format("2006-01-02 15:04"),
			FormatDuration(f.Duration()),
			fmt.Sprintf("%d", f.Tier),
			trophy.Title(f.Tier),
			fmt.Sprintf("%d/%d", f.TasksDone, f.TasksTotal),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{2: true, 4: true}) {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// ShouldUseColor reports whether w is a terminal and NO_COLOR is unset.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
