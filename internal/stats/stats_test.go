package stats

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/paperlist/internal/model"
)

func TestSummarize(t *testing.T) {
	counts := model.TrophyCounts{0, 2, 1, 0, 0, 0, 0, 1}
	start := time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC)
	finishes := []model.Finish{
		{StartedAt: start, EndedAt: start.Add(3 * time.Hour)},
		{StartedAt: start, EndedAt: start.Add(90 * time.Minute)},
	}
	s := Summarize(counts, finishes)
	if s.Total != 4 {
		t.Fatalf("expected 4 trophies, got %d", s.Total)
	}
	if s.Best != 2 {
		t.Fatalf("expected best tier 2, got %d", s.Best)
	}
	if s.Average != 3.75 {
		t.Fatalf("expected average 3.75, got %.2f", s.Average)
	}
	if s.Fastest != 90*time.Minute || s.TotalTime != 270*time.Minute {
		t.Fatalf("unexpected durations: %+v", s)
	}

	empty := Summarize(model.TrophyCounts{}, nil)
	if empty.Total != 0 || empty.Best != 0 || empty.Average != 0 {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}

func TestBar(t *testing.T) {
	if got := Bar(5, 10, 20); got != strings.Repeat("#", 10) {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := Bar(1, 100, 20); got != "#" {
		t.Fatalf("expected minimum bar, got %q", got)
	}
	if got := Bar(0, 10, 20); got != "" {
		t.Fatalf("expected empty bar, got %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		30 * time.Second:   "under a minute",
		90 * time.Second:   "1 minute",
		45 * time.Minute:   "45 minutes",
		90 * time.Minute:   "1 hour",
		13 * time.Hour:     "13 hours",
		30 * time.Hour:     "1 day",
		5 * 24 * time.Hour: "5 days",
	}
	for d, want := range cases {
		if got := FormatDuration(d); got != want {
			t.Fatalf("FormatDuration(%s): expected %q, got %q", d, want, got)
		}
	}
}

func TestRenderTrophies(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTrophies(&buf, model.TrophyCounts{}, false); err != nil {
		t.Fatalf("render trophies: %v", err)
	}
	if !strings.Contains(buf.String(), "No trophies yet") {
		t.Fatalf("expected empty message, got %q", buf.String())
	}

	buf.Reset()
	if err := RenderTrophies(&buf, model.TrophyCounts{4, 2}, false); err != nil {
		t.Fatalf("render trophies: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected title, header and 8 rows, got %d lines: %q", len(lines), buf.String())
	}
	if lines[1] != "Tier Trophy        Count" {
		t.Fatalf("unexpected header %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "   1 Diamond           4 ") || !strings.HasSuffix(lines[2], strings.Repeat("#", 20)) {
		t.Fatalf("unexpected first row %q", lines[2])
	}
	if !strings.HasSuffix(lines[3], " "+strings.Repeat("#", 10)) {
		t.Fatalf("unexpected second row %q", lines[3])
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no color codes")
	}
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHistory(&buf, nil); err != nil {
		t.Fatalf("render history: %v", err)
	}
	if !strings.Contains(buf.String(), "No finished lists found.") {
		t.Fatalf("unexpected output %q", buf.String())
	}

	buf.Reset()
	start := time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC)
	err := RenderHistory(&buf, []model.Finish{
		{StartedAt: start, EndedAt: start.Add(2 * time.Hour), Tier: 1, TasksDone: 3, TasksTotal: 4},
	})
	if err != nil {
		t.Fatalf("render history: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Finished", "2024-01-05 11:00", "2 hours", "Diamond", "3/4"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output: %s", want, out)
		}
	}
}

type fakeSource struct {
	counts   model.TrophyCounts
	finishes []model.Finish
	err      error
	lastCfg  model.HistoryConfig
}

func (f *fakeSource) Trophies(context.Context) (model.TrophyCounts, error) {
	return f.counts, f.err
}

func (f *fakeSource) History(_ context.Context, cfg model.HistoryConfig) ([]model.Finish, error) {
	f.lastCfg = cfg
	return f.finishes, nil
}

func TestBuildReport(t *testing.T) {
	src := &fakeSource{counts: model.TrophyCounts{1}, finishes: []model.Finish{{Tier: 1}}}
	report, err := BuildReport(context.Background(), src, model.HistoryConfig{Last: 5})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.Summary.Total != 1 || len(report.Finishes) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if src.lastCfg.Last != 5 {
		t.Fatalf("expected history config to be forwarded")
	}

	src.err = errors.New("db down")
	if _, err := BuildReport(context.Background(), src, model.HistoryConfig{}); err == nil {
		t.Fatalf("expected error")
	}
}
