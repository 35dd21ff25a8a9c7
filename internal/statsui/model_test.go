package statsui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/paperlist/internal/model"
)

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
	return f.finishes, f.err
}

func newTestSource() *fakeSource {
	end := time.Date(2024, time.May, 3, 18, 30, 0, 0, time.Local)
	return &fakeSource{
		counts: model.TrophyCounts{1, 1},
		finishes: []model.Finish{
			{ID: 2, StartedAt: end.Add(-3 * time.Hour), EndedAt: end, Tier: 1, TasksDone: 1, TasksTotal: 2},
			{ID: 1, StartedAt: end.Add(-36 * time.Hour), EndedAt: end.Add(-26 * time.Hour), Tier: 2, TasksDone: 4, TasksTotal: 4},
		},
	}
}

func TestOverviewAndHistoryTabs(t *testing.T) {
	m := NewModel(context.Background(), newTestSource(), model.HistoryConfig{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})

	view := m.View()
	for _, want := range []string{"Overview", "Trophies", "Diamond", "Tier trend"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in overview:\n%s", want, view)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabHistory {
		t.Fatalf("expected history tab, got %d", m.activeTab)
	}
	view = m.View()
	for _, want := range []string{"2024-05-03 18:30", "Diamond", "1/2", "4/4"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in history:\n%s", want, view)
		}
	}
}

func TestFilterAppliesHistoryConfig(t *testing.T) {
	src := newTestSource()
	m := NewModel(context.Background(), src, model.HistoryConfig{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("yesterday")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterError == "" {
		t.Fatalf("expected a filter error for an invalid date")
	}

	m.filterInputs[0].SetValue("2024-05-01")
	m.filterInputs[1].SetValue("5")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected filter to close, error %q", m.filterError)
	}
	if src.lastCfg.Last != 5 || src.lastCfg.Since == nil || src.lastCfg.Since.Format("2006-01-02") != "2024-05-01" {
		t.Fatalf("unexpected history config %+v", src.lastCfg)
	}
	if !strings.Contains(m.View(), "since=2024-05-01  last=5") {
		t.Fatalf("expected filter summary in header:\n%s", m.View())
	}
}

func TestLoadErrorIsShown(t *testing.T) {
	m := NewModel(context.Background(), &fakeSource{err: errors.New("db is locked")}, model.HistoryConfig{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	view := m.View()
	if !strings.Contains(view, "Failed to load trophies.") || !strings.Contains(view, "db is locked") {
		t.Fatalf("expected load error in view:\n%s", view)
	}
}

func TestQuit(t *testing.T) {
	m := NewModel(context.Background(), newTestSource(), model.HistoryConfig{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected QuitMsg")
	}
}
