package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/paperlist/internal/model"
	"github.com/verte-zerg/paperlist/internal/session"
	"github.com/verte-zerg/paperlist/internal/store"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func newTestModel(t *testing.T, mode model.ClearMode) *Model {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "paperlist.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	clock := fixedClock{now: time.Date(2024, time.April, 2, 10, 0, 0, 0, time.UTC)}
	svc := session.New(st, session.Options{ClearMode: mode, Clock: clock})
	return NewModel(context.Background(), svc, nil)
}

func press(m *Model, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func addTask(t *testing.T, m *Model, content string) {
	t.Helper()
	press(m, runes("a"), runes(content), enter)
	if m.mode != modeList {
		t.Fatalf("expected list mode after adding %q, got %v (notice %q)", content, m.mode, m.notice)
	}
}

func TestAddTaskThroughInput(t *testing.T) {
	m := newTestModel(t, model.ClearCompleted)
	addTask(t, m, "buy milk")
	if len(m.tasks) != 1 || m.tasks[0].Content != "buy milk" {
		t.Fatalf("unexpected tasks: %+v", m.tasks)
	}
	if !strings.Contains(m.View(), "[ ] buy milk") {
		t.Fatalf("expected task in view:\n%s", m.View())
	}
}

func TestAddEmptyTaskKeepsInputOpen(t *testing.T) {
	m := newTestModel(t, model.ClearCompleted)
	press(m, runes("a"), enter)
	if m.mode != modeAdd {
		t.Fatalf("expected add mode, got %v", m.mode)
	}
	if m.notice == "" {
		t.Fatalf("expected a notice for empty input")
	}
	press(m, esc)
	if m.mode != modeList || len(m.tasks) != 0 {
		t.Fatalf("expected cancelled input, got mode %v tasks %d", m.mode, len(m.tasks))
	}
}

func TestInputModeDoesNotQuit(t *testing.T) {
	m := newTestModel(t, model.ClearCompleted)
	press(m, runes("a"), runes("q"))
	if m.mode != modeAdd {
		t.Fatalf("expected q to be typed, got mode %v", m.mode)
	}
	if m.input.Value() != "q" {
		t.Fatalf("expected input q, got %q", m.input.Value())
	}
}

func TestToggleRequiresRunning(t *testing.T) {
	m := newTestModel(t, model.ClearCompleted)
	addTask(t, m, "water plants")
	press(m, space)
	if m.notice != "Start the list to check off tasks." {
		t.Fatalf("unexpected notice %q", m.notice)
	}
	if m.tasks[0].Completed {
		t.Fatalf("expected task to stay unchecked")
	}
}

func TestStartWithoutTasksShowsReason(t *testing.T) {
	m := newTestModel(t, model.ClearCompleted)
	if cmd := press(m, runes("s")); cmd != nil {
		t.Fatalf("expected no tick without a start")
	}
	if m.notice != "Add a task before starting." {
		t.Fatalf("unexpected notice %q", m.notice)
	}
	if m.session.Status != model.StatusPlanning {
		t.Fatalf("expected planning, got %s", m.session.Status)
	}
}

func TestCompleteRunShowsTrophy(t *testing.T) {
	m := newTestModel(t, model.ClearCompleted)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	addTask(t, m, "buy milk")
	addTask(t, m, "call mom")

	press(m, runes("c"))
	if m.mode != modeList || m.notice == "" {
		t.Fatalf("expected complete to be refused while planning")
	}
	if cmd := press(m, runes("s")); cmd == nil {
		t.Fatalf("expected a tick after starting")
	}
	if m.session.Status != model.StatusRunning {
		t.Fatalf("expected running, got %s", m.session.Status)
	}
	press(m, runes("k"), space)
	if !m.tasks[0].Completed {
		t.Fatalf("expected first task checked")
	}
	press(m, runes("c"))
	if m.mode != modeTrophy {
		t.Fatalf("expected trophy mode, got %v (notice %q)", m.mode, m.notice)
	}
	if m.session.Status != model.StatusFinished || m.session.Tier != 1 {
		t.Fatalf("unexpected session %+v", m.session)
	}
	view := m.View()
	for _, want := range []string{"Diamond Achiever!", "1 of 2 tasks done", "Trophies 1", "Best Diamond"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}

	press(m, enter)
	if m.session.Status != model.StatusPlanning {
		t.Fatalf("expected planning after new list, got %s", m.session.Status)
	}
	if len(m.tasks) != 1 || m.tasks[0].Content != "call mom" {
		t.Fatalf("expected unchecked task to remain, got %+v", m.tasks)
	}
	if m.counts.Count(1) != 1 {
		t.Fatalf("expected trophy to persist across reset")
	}
}

func TestTrophyEscKeepsFinishedList(t *testing.T) {
	m := newTestModel(t, model.ClearCompleted)
	addTask(t, m, "buy milk")
	press(m, runes("s"), space, runes("c"), esc)
	if m.mode != modeList || m.session.Status != model.StatusFinished {
		t.Fatalf("expected finished list view, got mode %v status %s", m.mode, m.session.Status)
	}
	if !strings.Contains(m.View(), "Finished in 00:00:00") {
		t.Fatalf("expected finished clock in view:\n%s", m.View())
	}
}

func TestMoveAndDelete(t *testing.T) {
	m := newTestModel(t, model.ClearCompleted)
	addTask(t, m, "first")
	addTask(t, m, "second")
	if m.cursor != 1 {
		t.Fatalf("expected cursor on new task, got %d", m.cursor)
	}
	press(m, runes("K"))
	if m.tasks[0].Content != "second" || m.cursor != 0 {
		t.Fatalf("expected second moved up, got %+v cursor %d", m.tasks, m.cursor)
	}
	press(m, runes("J"))
	if m.tasks[1].Content != "second" || m.cursor != 1 {
		t.Fatalf("expected second moved down, got %+v cursor %d", m.tasks, m.cursor)
	}
	press(m, runes("d"))
	if len(m.tasks) != 1 || m.tasks[0].Content != "first" || m.cursor != 0 {
		t.Fatalf("unexpected tasks after delete: %+v cursor %d", m.tasks, m.cursor)
	}
}

func TestEditAndRename(t *testing.T) {
	m := newTestModel(t, model.ClearCompleted)
	addTask(t, m, "buy mlk")
	press(m, runes("e"))
	if m.mode != modeEdit || m.input.Value() != "buy mlk" {
		t.Fatalf("expected edit input prefilled, got mode %v value %q", m.mode, m.input.Value())
	}
	m.input.SetValue("buy milk")
	press(m, enter)
	if m.tasks[0].Content != "buy milk" {
		t.Fatalf("expected edited content, got %q", m.tasks[0].Content)
	}

	press(m, runes("t"))
	m.input.SetValue("Groceries")
	press(m, enter)
	if m.session.Title != "Groceries" {
		t.Fatalf("expected title Groceries, got %q", m.session.Title)
	}
}

func TestResetConfirmation(t *testing.T) {
	m := newTestModel(t, model.ClearAll)
	addTask(t, m, "buy milk")
	press(m, runes("r"))
	if !strings.Contains(m.View(), "All tasks will be removed") {
		t.Fatalf("expected clear-all prompt:\n%s", m.View())
	}
	press(m, runes("n"))
	if len(m.tasks) != 1 {
		t.Fatalf("expected declined reset to keep tasks")
	}
	press(m, runes("r"), runes("y"))
	if m.mode != modeList || len(m.tasks) != 0 {
		t.Fatalf("expected cleared list, got mode %v tasks %d", m.mode, len(m.tasks))
	}
}

func TestTickStopsWhenNotRunning(t *testing.T) {
	m := newTestModel(t, model.ClearCompleted)
	if m.Init() != nil {
		t.Fatalf("expected no tick while planning")
	}
	_, cmd := m.Update(tickMsg{at: time.Now(), gen: m.tickGen})
	if cmd != nil {
		t.Fatalf("expected tick to stop while planning")
	}
}

func TestRestartDropsStaleTicks(t *testing.T) {
	m := newTestModel(t, model.ClearCompleted)
	addTask(t, m, "buy milk")
	press(m, runes("s"), space, runes("c"))
	if m.mode != modeTrophy {
		t.Fatalf("expected trophy view, got %v", m.mode)
	}
	first := m.tickGen
	press(m, esc)
	if cmd := press(m, runes("s")); cmd == nil {
		t.Fatalf("expected a tick after restarting")
	}
	if m.session.Status != model.StatusRunning {
		t.Fatalf("expected running, got %s", m.session.Status)
	}

	now := time.Date(2024, time.April, 2, 10, 0, 1, 0, time.UTC)
	if _, cmd := m.Update(tickMsg{at: now, gen: first}); cmd != nil {
		t.Fatalf("expected the earlier tick chain to stop")
	}
	if m.current.Equal(now) {
		t.Fatalf("expected stale tick to leave the clock alone")
	}
	if _, cmd := m.Update(tickMsg{at: now, gen: m.tickGen}); cmd == nil {
		t.Fatalf("expected the current tick chain to continue")
	}
	if !m.current.Equal(now) {
		t.Fatalf("expected clock at %v, got %v", now, m.current)
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m := &Model{
		tasks: []model.Task{
			{ID: 1, Content: "a", Completed: true},
			{ID: 2, Content: "b"},
		},
		counts: model.TrophyCounts{0, 2, 1},
	}
	out := m.renderFooter()
	if !containsAll(out, []string{"Tasks 1/2", "Trophies 3", "Best Gold"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{27 * time.Hour, "27:00:00"},
	}
	for _, tc := range cases {
		if got := formatClock(tc.d); got != tc.want {
			t.Fatalf("formatClock(%s): expected %s, got %s", tc.d, tc.want, got)
		}
	}
}

func TestReason(t *testing.T) {
	err := errorString("failed to start list: invalid transition: add a task before starting")
	if got := reason(err); got != "Add a task before starting." {
		t.Fatalf("unexpected reason %q", got)
	}
}

type errorString string

func (e errorString) Error() string {
	return string(e)
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
