package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// AppState represents the current state of the application.
type AppState int

const (
	StateConfirm AppState = iota
	StateRunning
	StateCanceling
	StateComplete
	StateCanceled
	StateFailed
	StateDeclined
)

// RunFunc performs the organization, reporting progress through onProgress.
type RunFunc func(ctx context.Context, onProgress func(types.Progress)) (*types.OrganizationResult, error)

// Options configures the TUI application.
type Options struct {
	Directory string
	DryRun    bool

	// Confirm shows a confirmation dialog before anything runs.
	Confirm bool

	// FileCount is shown in the confirmation dialog.
	FileCount int

	// Recent, if set, feeds the latest operations shown while running.
	Recent *oplog.Ring

	Run RunFunc
}

// recentOps is the number of operations listed in the running view.
const recentOps = 5

// Outcome is what the TUI leaves behind once it exits.
type Outcome struct {
	Result   *types.OrganizationResult
	Err      error
	Declined bool
}

// progressMsg carries a stage update from the running organizer.
type progressMsg types.Progress

// runDoneMsg is sent when the organizer returns.
type runDoneMsg struct {
	result *types.OrganizationResult
	err    error
}

// runState is shared between the model copies and Run so the outcome
// survives the program being killed mid-run.
type runState struct {
	once   sync.Once
	result *types.OrganizationResult
	err    error
}

// Model is the Bubble Tea model for the run view.
type Model struct {
	state   AppState
	options Options

	ctx          context.Context
	cancel       context.CancelFunc
	progressChan chan types.Progress
	run          *runState

	current   types.Progress
	result    *types.OrganizationResult
	err       error
	startTime time.Time

	confirmFocused int // 0 = no, 1 = yes
	spinner        spinner.Model
	bar            progress.Model

	width  int
	height int
}

// NewModel creates a new TUI model. Canceling parent cancels the run.
func NewModel(parent context.Context, opts Options) Model {
	ctx, cancel := context.WithCancel(parent)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 60

	state := StateRunning
	if opts.Confirm {
		state = StateConfirm
	}

	return Model{
		state:        state,
		options:      opts,
		ctx:          ctx,
		cancel:       cancel,
		progressChan: make(chan types.Progress, 16),
		run:          &runState{},
		startTime:    time.Now(),
		spinner:      s,
		bar:          bar,
		width:        80,
		height:       24,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	if m.state == StateRunning {
		return m.start()
	}
	return nil
}

// State returns the current state.
func (m Model) State() AppState {
	return m.state
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case progressMsg:
		m.current = types.Progress(msg)
		return m, m.listenForProgress()

	case runDoneMsg:
		m.result = msg.result
		m.err = msg.err
		switch {
		case errors.Is(msg.err, organizer.ErrCanceled):
			m.state = StateCanceled
			return m, tea.Quit
		case msg.err != nil:
			m.state = StateFailed
		default:
			m.state = StateComplete
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != StateRunning && m.state != StateCanceling {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch m.state {
	case StateConfirm:
		switch key {
		case "ctrl+c", "q", "esc", "n":
			m.state = StateDeclined
			return m, tea.Quit
		case "left", "h":
			m.confirmFocused = 0
		case "right", "l":
			m.confirmFocused = 1
		case "tab":
			m.confirmFocused = (m.confirmFocused + 1) % 2
		case "y":
			m.state = StateRunning
			return m, m.start()
		case "enter":
			if m.confirmFocused == 1 {
				m.state = StateRunning
				return m, m.start()
			}
			m.state = StateDeclined
			return m, tea.Quit
		}

	case StateRunning:
		if key == "ctrl+c" || key == "q" || key == "esc" {
			m.cancel()
			m.state = StateCanceling
		}

	case StateComplete, StateFailed:
		switch key {
		case "ctrl+c", "q", "esc", "enter":
			return m, tea.Quit
		}
	}

	return m, nil
}

// start launches the organizer in the background.
func (m *Model) start() tea.Cmd {
	m.startTime = time.Now()
	return tea.Batch(m.spinner.Tick, m.execute(), m.listenForProgress())
}

// execute runs the organizer. Progress updates are dropped when the
// channel is full so the organizer never waits on the UI.
func (m Model) execute() tea.Cmd {
	ctx := m.ctx
	rs := m.run
	ch := m.progressChan
	run := m.options.Run
	return func() tea.Msg {
		rs.once.Do(func() {
			defer close(ch)
			rs.result, rs.err = run(ctx, func(p types.Progress) {
				select {
				case ch <- p:
				default:
				}
			})
		})
		return runDoneMsg{result: rs.result, err: rs.err}
	}
}

// finish cancels the run and waits for it. A run that never started is
// reported as canceled.
func (m Model) finish() {
	m.cancel()
	m.run.once.Do(func() {
		close(m.progressChan)
		m.run.err = fmt.Errorf("%w: %w", organizer.ErrCanceled, context.Canceled)
	})
}

// listenForProgress returns a command that waits for progress updates.
func (m Model) listenForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg(p)
	}
}

// View renders the current state.
func (m Model) View() string {
	switch m.state {
	case StateConfirm:
		return m.renderConfirm()
	case StateRunning, StateCanceling:
		return m.renderRunning()
	case StateComplete:
		return m.renderComplete()
	case StateFailed:
		return m.renderFailed()
	}
	return ""
}

func (m Model) contentWidth() int {
	return max(40, m.width-4)
}

func (m Model) renderHeader(hint string) string {
	width := m.contentWidth()
	title := titleStyle.Render("  tidy")
	if m.options.DryRun {
		title += " " + warningTextStyle.Render("(dry run)")
	}
	h := mutedTextStyle.Render(hint)
	spacing := max(1, width-lipgloss.Width(title)-lipgloss.Width(h))
	return title + strings.Repeat(" ", spacing) + h + "\n" + renderDivider(width) + "\n\n"
}

func (m Model) renderConfirm() string {
	var b strings.Builder
	b.WriteString(dialogTitleStyle.Render("Organize directory?"))
	b.WriteString("\n\n")
	b.WriteString(truncatePath(m.options.Directory, 50))
	b.WriteString("\n")
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("%s files at the top level",
		humanize.Comma(int64(m.options.FileCount)))))
	b.WriteString("\n\n")

	no := inactiveButtonStyle.Render("No")
	yes := inactiveButtonStyle.Render("Yes")
	if m.confirmFocused == 0 {
		no = activeButtonStyle.Render("No")
	} else {
		yes = activeButtonStyle.Render("Yes")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, no, "  ", yes))

	dialog := dialogBoxStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}

func (m Model) renderRunning() string {
	width := m.contentWidth()

	var b strings.Builder
	b.WriteString(m.renderHeader("[Ctrl+C to cancel]"))

	label := m.current.Label
	if label == "" {
		label = "Starting"
	}
	if m.state == StateCanceling {
		label = "Canceling after the current stage"
	}
	fmt.Fprintf(&b, "  %s %s\n\n", m.spinner.View(), label)

	pct := 0.0
	if m.current.Percent > 0 {
		pct = float64(m.current.Percent) / 100
	}
	b.WriteString("  " + m.bar.ViewAs(pct) + "\n\n")

	files := statsValueStyle.Render(humanize.Comma(int64(m.current.TotalFiles)))
	elapsed := statsValueStyle.Render(formatElapsed(time.Since(m.startTime)))
	fmt.Fprintf(&b, "  %s %s   %s %s\n",
		mutedTextStyle.Render("Files:"), files,
		mutedTextStyle.Render("Elapsed:"), elapsed)
	b.WriteString("  " + mutedTextStyle.Render(truncatePath(m.options.Directory, width-4)) + "\n")

	if m.options.Recent != nil {
		if ops := m.options.Recent.Last(recentOps); len(ops) > 0 {
			b.WriteString("\n" + renderDivider(width) + "\n")
			for _, op := range ops {
				b.WriteString("  " + formatOperation(op, width-4) + "\n")
			}
		}
	}

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// formatOperation renders one operation record on a single line.
func formatOperation(op oplog.Record, width int) string {
	kind := fmt.Sprintf("%-9s", op.Kind)
	style := mutedTextStyle
	if op.Kind == oplog.KindError {
		style = errorTextStyle
	}

	detail := op.Message
	switch {
	case op.Source != "" && op.Dest != "":
		detail = filepath.Base(op.Source) + " -> " + filepath.Base(op.Dest)
	case op.Source != "":
		detail = filepath.Base(op.Source)
	}
	return style.Render(kind) + " " + truncatePath(detail, max(10, width-len(kind)-1))
}

func (m Model) renderComplete() string {
	var b strings.Builder
	b.WriteString(m.renderHeader(""))

	title := "Organization complete"
	if m.options.DryRun {
		title = "Dry run complete"
	}
	b.WriteString(successTextStyle.Render("  "+title) + "\n\n")

	if m.result != nil {
		for _, line := range strings.Split(m.result.Summary, "\n") {
			if line == "" {
				continue
			}
			style := lipgloss.NewStyle()
			if strings.HasPrefix(line, "Errors:") {
				style = errorTextStyle
			}
			b.WriteString("  " + style.Render(line) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString("  " + keyStyle.Render("[Enter]") + " " + keyDescStyle.Render("Exit") + "\n")
	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

func (m Model) renderFailed() string {
	var b strings.Builder
	b.WriteString(m.renderHeader(""))
	b.WriteString(errorTextStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n")
	b.WriteString("  " + keyStyle.Render("[Enter]") + " " + keyDescStyle.Render("Exit") + "\n")
	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

// formatElapsed formats a duration as M:SS.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", d/time.Minute, (d%time.Minute)/time.Second)
}

// outcome extracts the final state of the run.
func (m Model) outcome() Outcome {
	if m.state == StateConfirm || m.state == StateDeclined {
		m.cancel()
		return Outcome{Declined: true}
	}
	m.finish()
	return Outcome{Result: m.run.result, Err: m.run.err}
}

// Run starts the TUI and blocks until it exits. If the program ends while
// the organizer is still working, the run is canceled and awaited.
func Run(ctx context.Context, opts Options) (Outcome, error) {
	model := NewModel(ctx, opts)
	p := tea.NewProgram(model, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		model.finish()
		return Outcome{}, err
	}

	if fm, ok := final.(Model); ok {
		return fm.outcome(), nil
	}
	return model.outcome(), nil
}
