// Package tui provides the Bubble Tea notepad for editing and running a list.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/paperlist/internal/model"
	"github.com/verte-zerg/paperlist/internal/session"
	statsPkg "github.com/verte-zerg/paperlist/internal/stats"
	"github.com/verte-zerg/paperlist/internal/trophy"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeTitle
	modeConfirmReset
	modeTrophy
)

const (
	maxPaperWidth = 64
	minPaperWidth = 24
	taskCharLimit = 256
)

// tickMsg carries the generation of the tick chain that produced it, so a
// chain left over from an earlier run stops instead of doubling the clock.
type tickMsg struct {
	at  time.Time
	gen int
}

// Model implements the Bubble Tea notepad UI.
type Model struct {
	ctx  context.Context
	svc  *session.Service
	log  *slog.Logger
	now  func() time.Time
	keys keyMap

	width  int
	height int

	session model.Session
	tasks   []model.Task
	counts  model.TrophyCounts
	cursor  int

	mode    mode
	editID  int64
	input   textinput.Model
	help    help.Model
	notice  string
	current time.Time
	tickGen int
}

var (
	inkStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#1f2937"))
	titleStyle    = inkStyle.Bold(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af")).Strikethrough(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#b45309")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#b91c1c"))
	trophyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#b45309")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs the notepad UI over a list service.
func NewModel(ctx context.Context, svc *session.Service, log *slog.Logger) *Model {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	input := textinput.New()
	input.CharLimit = taskCharLimit
	input.Prompt = "> "
	m := &Model{
		ctx:   ctx,
		svc:   svc,
		log:   log,
		now:   time.Now,
		keys:  defaultKeyMap(),
		input: input,
		help:  help.New(),
	}
	m.current = m.now()
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.session.Status == model.StatusRunning {
		return tick(m.tickGen)
	}
	return nil
}

func tick(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{at: t, gen: gen}
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = m.paperWidth()
		return m, nil
	case tickMsg:
		if msg.gen != m.tickGen {
			return m, nil
		}
		m.current = msg.at
		if m.session.Status == model.StatusRunning {
			return m, tick(m.tickGen)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd, modeEdit, modeTitle:
			return m.updateInput(msg)
		case modeConfirmReset:
			return m.updateConfirm(msg)
		case modeTrophy:
			return m.updateTrophy(msg)
		default:
			return m.updateList(msg)
		}
	default:
		return m, nil
	}
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Add):
		return m, m.openInput(modeAdd, "")
	case key.Matches(msg, m.keys.Edit):
		if task, ok := m.selected(); ok {
			m.editID = task.ID
			return m, m.openInput(modeEdit, task.Content)
		}
	case key.Matches(msg, m.keys.Title):
		return m, m.openInput(modeTitle, m.session.Title)
	case key.Matches(msg, m.keys.Delete):
		if task, ok := m.selected(); ok {
			m.report(m.svc.DeleteTask(m.ctx, task.ID))
			m.reload()
		}
	case key.Matches(msg, m.keys.MoveUp):
		m.move(-1)
	case key.Matches(msg, m.keys.MoveDown):
		m.move(1)
	case key.Matches(msg, m.keys.Toggle):
		m.toggle()
	case key.Matches(msg, m.keys.Start):
		return m, m.start()
	case key.Matches(msg, m.keys.Complete):
		m.complete()
	case key.Matches(msg, m.keys.Reset):
		m.mode = modeConfirmReset
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		m.submitInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.reset()
	case "n", "N", "esc", "q":
		m.mode = modeList
	}
	return m, nil
}

func (m *Model) updateTrophy(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.reset()
	case "esc", "q":
		m.mode = modeList
	}
	return m, nil
}

func (m *Model) openInput(next mode, value string) tea.Cmd {
	m.mode = next
	m.input.SetValue(value)
	m.input.CursorEnd()
	switch next {
	case modeTitle:
		m.input.Placeholder = "List title"
	default:
		m.input.Placeholder = "What needs doing?"
	}
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = modeList
	m.editID = 0
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) submitInput() {
	value := m.input.Value()
	var err error
	switch m.mode {
	case modeAdd:
		_, err = m.svc.AddTask(m.ctx, value)
		if err == nil {
			m.reload()
			m.cursor = len(m.tasks) - 1
		}
	case modeEdit:
		_, err = m.svc.EditTask(m.ctx, m.editID, value)
	case modeTitle:
		_, err = m.svc.UpdateAppearance(m.ctx, model.Appearance{Title: &value})
	}
	if err != nil {
		m.report(err)
		return
	}
	m.closeInput()
	m.reload()
}

func (m *Model) move(delta int) {
	task, ok := m.selected()
	if !ok {
		return
	}
	tasks, err := m.svc.MoveTask(m.ctx, task.ID, delta)
	if err != nil {
		m.report(err)
		return
	}
	m.tasks = tasks
	for i, t := range tasks {
		if t.ID == task.ID {
			m.cursor = i
		}
	}
}

func (m *Model) toggle() {
	task, ok := m.selected()
	if !ok {
		return
	}
	_, err := m.svc.SetTaskCompleted(m.ctx, task.ID, !task.Completed)
	if errors.Is(err, session.ErrNotRunning) {
		m.notice = "Start the list to check off tasks."
		return
	}
	m.report(err)
	m.reload()
}

func (m *Model) start() tea.Cmd {
	if err := m.svc.CheckStart(m.ctx); err != nil {
		if !errors.Is(err, session.ErrInvalidTransition) {
			m.report(err)
			return nil
		}
		m.notice = reason(err)
		return nil
	}
	if _, err := m.svc.Start(m.ctx); err != nil {
		m.report(err)
		return nil
	}
	m.current = m.now()
	m.reload()
	m.tickGen++
	return tick(m.tickGen)
}

func (m *Model) complete() {
	if err := m.svc.CheckComplete(m.ctx); err != nil {
		if !errors.Is(err, session.ErrInvalidTransition) {
			m.report(err)
			return
		}
		m.notice = reason(err)
		return
	}
	updated, err := m.svc.Complete(m.ctx)
	if err != nil {
		m.report(err)
		return
	}
	m.reload()
	if updated.Status == model.StatusFinished {
		m.mode = modeTrophy
	}
}

func (m *Model) reset() {
	_, err := m.svc.Reset(m.ctx)
	m.mode = modeList
	m.report(err)
	m.reload()
}

func (m *Model) selected() (model.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return model.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *Model) reload() {
	current, err := m.svc.Get(m.ctx)
	if err != nil {
		m.report(err)
		return
	}
	tasks, err := m.svc.Tasks(m.ctx)
	if err != nil {
		m.report(err)
		return
	}
	counts, err := m.svc.Trophies(m.ctx)
	if err != nil {
		m.report(err)
		return
	}
	m.session = current
	m.tasks = tasks
	m.counts = counts
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) report(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, session.ErrInvalidInput) {
		m.notice = reason(err)
		return
	}
	m.log.Error("tui action failed", "err", err)
	m.notice = "Something went wrong, see the log for details."
}

// reason strips wrapping and sentinel prefixes to leave the user-facing hint.
func reason(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	if msg == "" {
		return ""
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

// View implements tea.Model.
func (m *Model) View() string {
	paper := m.renderPaper()
	if m.width == 0 || m.height == 0 {
		return paper
	}
	background := lipgloss.Color(m.session.BackgroundColor)
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, paper,
			lipgloss.WithWhitespaceBackground(background))
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, paper,
		lipgloss.WithWhitespaceBackground(background))
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer,
		lipgloss.WithWhitespaceBackground(background))
	return body + "\n" + footerLine
}

func (m *Model) paperWidth() int {
	width := maxPaperWidth
	if m.width > 0 && m.width-4 < width {
		width = m.width - 4
	}
	if width < minPaperWidth {
		width = minPaperWidth
	}
	return width
}

func (m *Model) renderPaper() string {
	width := m.paperWidth()
	inner := width - 4
	var lines []string

	header := titleStyle.Render(truncate(m.session.Title, inner-12))
	status := mutedStyle.Render(strings.ToUpper(string(m.session.Status)))
	gap := inner - lipgloss.Width(header) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	lines = append(lines, header+strings.Repeat(" ", gap)+status)
	if clock := m.renderClock(); clock != "" {
		lines = append(lines, mutedStyle.Render(clock))
	}
	lines = append(lines, mutedStyle.Render(strings.Repeat("─", inner)))

	if m.mode == modeTrophy {
		lines = append(lines, m.renderTrophy(inner)...)
	} else {
		lines = append(lines, m.renderTasks(inner)...)
		lines = append(lines, "")
		switch m.mode {
		case modeAdd, modeEdit, modeTitle:
			m.input.Width = inner - lipgloss.Width(m.input.Prompt) - 1
			lines = append(lines, m.input.View())
		case modeConfirmReset:
			lines = append(lines, inkStyle.Render(m.resetPrompt()))
		default:
			lines = append(lines, m.help.View(m.keys))
		}
	}
	if m.notice != "" {
		lines = append(lines, noticeStyle.Render(truncate(m.notice, inner)))
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		Background(lipgloss.Color(m.session.PaperColor)).
		Render(strings.Join(lines, "\n"))
}

func (m *Model) renderTasks(width int) []string {
	if len(m.tasks) == 0 {
		return []string{mutedStyle.Render("Nothing here yet. Press a to add a task.")}
	}
	var lines []string
	for i, task := range m.tasks {
		pointer := "  "
		if i == m.cursor {
			pointer = "› "
		}
		box := "[ ] "
		if task.Completed {
			box = "[x] "
		}
		prefix := pointer + box
		indent := strings.Repeat(" ", lipgloss.Width(prefix))
		style := inkStyle
		switch {
		case i == m.cursor:
			style = selectedStyle
		case task.Completed:
			style = doneStyle
		}
		for j, part := range wrapText(task.Content, width-lipgloss.Width(prefix)) {
			lead := prefix
			if j > 0 {
				lead = indent
			}
			lines = append(lines, style.Render(lead+part))
		}
	}
	return lines
}

func (m *Model) renderTrophy(width int) []string {
	tier := m.session.Tier
	lines := []string{
		"",
		trophyStyle.Render(fmt.Sprintf("%s Achiever!", trophy.Title(tier))),
		inkStyle.Render(fmt.Sprintf("Tier %d of %d", tier, model.TierCount)),
	}
	if m.session.StartTime != nil && m.session.EndTime != nil {
		elapsed := m.session.EndTime.Sub(*m.session.StartTime)
		lines = append(lines, inkStyle.Render("Finished in "+statsPkg.FormatDuration(elapsed)))
	}
	done := 0
	for _, task := range m.tasks {
		if task.Completed {
			done++
		}
	}
	lines = append(lines,
		inkStyle.Render(fmt.Sprintf("%d of %d tasks done", done, len(m.tasks))),
		"",
		mutedStyle.Render(truncate("enter new list · esc close", width)),
	)
	return lines
}

func (m *Model) resetPrompt() string {
	if m.svc.ClearMode() == model.ClearAll {
		return "Start a new list? All tasks will be removed. (y/n)"
	}
	return "Start a new list? Checked tasks will be removed. (y/n)"
}

func (m *Model) renderClock() string {
	switch m.session.Status {
	case model.StatusRunning:
		if m.session.StartTime == nil {
			return ""
		}
		return "Running " + formatClock(m.current.Sub(*m.session.StartTime))
	case model.StatusFinished:
		if m.session.StartTime == nil || m.session.EndTime == nil {
			return ""
		}
		return "Finished in " + formatClock(m.session.EndTime.Sub(*m.session.StartTime))
	default:
		return ""
	}
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

func (m *Model) renderFooter() string {
	done := 0
	for _, task := range m.tasks {
		if task.Completed {
			done++
		}
	}
	segments := []string{fmt.Sprintf("Tasks %d/%d", done, len(m.tasks))}
	summary := statsPkg.Summarize(m.counts, nil)
	segments = append(segments, fmt.Sprintf("Trophies %d", summary.Total))
	if summary.Best > 0 {
		segments = append(segments, "Best "+trophy.Title(summary.Best))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
