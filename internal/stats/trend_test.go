package stats

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/paperlist/internal/model"
)

func TestRenderTrendEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTrend(&buf, nil, 20, 4, false); err != nil {
		t.Fatalf("render trend: %v", err)
	}
	if !strings.Contains(buf.String(), "No finished lists found.") {
		t.Fatalf("expected empty message, got %q", buf.String())
	}
}

func TestRenderTrendSingleTier(t *testing.T) {
	var buf bytes.Buffer
	finishes := []model.Finish{{Tier: 1, EndedAt: time.Now()}}
	if err := RenderTrend(&buf, finishes, 10, 2, false); err != nil {
		t.Fatalf("render trend: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected title and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if want := "T1 │ " + strings.Repeat("⠉", 9) + "⠁"; lines[1] != want {
		t.Fatalf("expected top row %q, got %q", want, lines[1])
	}
	if want := "T8 │ " + strings.Repeat("⠀", 10); lines[2] != want {
		t.Fatalf("expected empty bottom row %q, got %q", want, lines[2])
	}
}

func TestRenderTrendOrdersOldestFirst(t *testing.T) {
	var buf bytes.Buffer
	finishes := []model.Finish{{Tier: 8}, {Tier: 1}}
	if err := RenderTrend(&buf, finishes, 10, 2, false); err != nil {
		t.Fatalf("render trend: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	top := []rune(strings.TrimPrefix(lines[1], "T1 │ "))
	bottom := []rune(strings.TrimPrefix(lines[2], "T8 │ "))
	if top[0] == '⠀' {
		t.Fatalf("expected oldest finish (tier 1) at the top left, got %q", lines[1])
	}
	if bottom[len(bottom)-1] != '⡀' {
		t.Fatalf("expected newest finish (tier 8) at the bottom right, got %q", lines[2])
	}
}

func TestTrendWidthFor(t *testing.T) {
	if got := TrendWidthFor(80); got != 75 {
		t.Fatalf("expected width 75, got %d", got)
	}
	if got := TrendWidthFor(0); got != minTrendWidth {
		t.Fatalf("expected min width %d, got %d", minTrendWidth, got)
	}
}

func TestTierToRow(t *testing.T) {
	if got := tierToRow(1, 32); got != 0 {
		t.Fatalf("expected tier 1 at row 0, got %d", got)
	}
	if got := tierToRow(8, 32); got != 31 {
		t.Fatalf("expected tier 8 at row 31, got %d", got)
	}
}

func TestResampleSeries(t *testing.T) {
	if got := resampleSeries([]float64{1, 3}, 3); !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Fatalf("unexpected stretch %v", got)
	}
	if got := resampleSeries([]float64{1, 2, 3, 4}, 2); !reflect.DeepEqual(got, []float64{1.5, 3.5}) {
		t.Fatalf("unexpected shrink %v", got)
	}
	if got := resampleSeries(nil, 4); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
