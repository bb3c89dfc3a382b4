package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func okRun(result *types.OrganizationResult) RunFunc {
	return func(_ context.Context, onProgress func(types.Progress)) (*types.OrganizationResult, error) {
		onProgress(types.Progress{Stage: types.StageCategorization, Percent: 50, Label: "Categorizing files", TotalFiles: 3})
		return result, nil
	}
}

func TestNewModel_InitialState(t *testing.T) {
	m := NewModel(context.Background(), Options{Confirm: true})
	if m.State() != StateConfirm {
		t.Errorf("state = %v, want StateConfirm", m.State())
	}
	if m.Init() != nil {
		t.Error("Init() should not start the run while confirming")
	}

	m = NewModel(context.Background(), Options{Run: okRun(&types.OrganizationResult{})})
	if m.State() != StateRunning {
		t.Errorf("state = %v, want StateRunning", m.State())
	}
	if m.Init() == nil {
		t.Error("Init() should start the run without confirmation")
	}
}

func TestConfirm_Decline(t *testing.T) {
	for _, k := range []string{"n", "q", "esc", "ctrl+c", "enter"} {
		t.Run(k, func(t *testing.T) {
			m := NewModel(context.Background(), Options{Confirm: true})
			m, cmd := update(t, m, key(k))
			if m.State() != StateDeclined {
				t.Errorf("state = %v, want StateDeclined", m.State())
			}
			if cmd == nil {
				t.Error("declining should quit")
			}
			if out := m.outcome(); !out.Declined {
				t.Errorf("outcome = %+v, want Declined", out)
			}
		})
	}
}

func TestConfirm_Accept(t *testing.T) {
	m := NewModel(context.Background(), Options{Confirm: true, Run: okRun(&types.OrganizationResult{})})

	m, _ = update(t, m, key("tab"))
	if m.confirmFocused != 1 {
		t.Fatalf("confirmFocused = %d, want 1", m.confirmFocused)
	}
	m, cmd := update(t, m, key("enter"))
	if m.State() != StateRunning {
		t.Errorf("state = %v, want StateRunning", m.State())
	}
	if cmd == nil {
		t.Error("accepting should start the run")
	}

	m = NewModel(context.Background(), Options{Confirm: true, Run: okRun(&types.OrganizationResult{})})
	m, _ = update(t, m, key("y"))
	if m.State() != StateRunning {
		t.Errorf("state after y = %v, want StateRunning", m.State())
	}
}

func TestRun_ProgressAndCompletion(t *testing.T) {
	result := &types.OrganizationResult{FilesMoved: 2, Summary: "Files moved: 2\nErrors: 1"}
	m := NewModel(context.Background(), Options{Directory: "/in", Run: okRun(result)})

	msg := m.execute()()
	done, ok := msg.(runDoneMsg)
	if !ok {
		t.Fatalf("execute() returned %T, want runDoneMsg", msg)
	}

	// The progress update was buffered before the run returned.
	pm := m.listenForProgress()()
	m, _ = update(t, m, pm)
	if m.current.Percent != 50 || m.current.Label != "Categorizing files" {
		t.Errorf("current progress = %+v", m.current)
	}
	if !strings.Contains(m.View(), "Categorizing files") {
		t.Error("running view should show the stage label")
	}

	m, _ = update(t, m, done)
	if m.State() != StateComplete {
		t.Fatalf("state = %v, want StateComplete", m.State())
	}
	view := m.View()
	if !strings.Contains(view, "Organization complete") || !strings.Contains(view, "Files moved: 2") {
		t.Errorf("complete view missing summary:\n%s", view)
	}

	out := m.outcome()
	if out.Result != result || out.Err != nil {
		t.Errorf("outcome = %+v, want the run result", out)
	}

	_, cmd := update(t, m, key("enter"))
	if cmd == nil {
		t.Error("enter should quit from the complete view")
	}
}

func TestRunningView_RecentOperations(t *testing.T) {
	recent := oplog.NewRing(10)
	recent.LogOperation(oplog.Record{Kind: oplog.KindMove, Source: "/in/report.pdf", Dest: "/in/pdf/report.pdf", Message: "moved"})
	recent.LogOperation(oplog.Record{Kind: oplog.KindError, Source: "/in/locked.txt", Message: "permission denied"})

	m := NewModel(context.Background(), Options{Directory: "/in", Recent: recent, Run: okRun(&types.OrganizationResult{})})
	view := m.View()

	if !strings.Contains(view, "report.pdf -> report.pdf") {
		t.Errorf("running view should list the move:\n%s", view)
	}
	if !strings.Contains(view, "ERROR") || !strings.Contains(view, "locked.txt") {
		t.Errorf("running view should list the error:\n%s", view)
	}
}

func TestFormatOperation(t *testing.T) {
	tests := []struct {
		op   oplog.Record
		want string
	}{
		{oplog.Record{Kind: oplog.KindRename, Source: "/a/x(1).txt", Dest: "/a/x_20240101_000000.txt"}, "x(1).txt -> x_20240101_000000.txt"},
		{oplog.Record{Kind: oplog.KindDelete, Source: "/a/dup.pdf", Message: "deleted"}, "dup.pdf"},
		{oplog.Record{Kind: oplog.KindScan, Message: "Found 3 files"}, "Found 3 files"},
	}
	for _, tt := range tests {
		got := formatOperation(tt.op, 80)
		if !strings.Contains(got, tt.want) || !strings.Contains(got, string(tt.op.Kind)) {
			t.Errorf("formatOperation(%+v) = %q, want it to contain %q", tt.op, got, tt.want)
		}
	}
}

func TestRun_CancelKey(t *testing.T) {
	started := make(chan struct{})
	run := func(ctx context.Context, _ func(types.Progress)) (*types.OrganizationResult, error) {
		close(started)
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %w", organizer.ErrCanceled, ctx.Err())
	}
	m := NewModel(context.Background(), Options{Run: run})

	msgs := make(chan tea.Msg, 1)
	go func() { msgs <- m.execute()() }()
	<-started

	m, _ = update(t, m, key("ctrl+c"))
	if m.State() != StateCanceling {
		t.Fatalf("state = %v, want StateCanceling", m.State())
	}

	m, cmd := update(t, m, <-msgs)
	if m.State() != StateCanceled {
		t.Errorf("state = %v, want StateCanceled", m.State())
	}
	if cmd == nil {
		t.Error("a canceled run should quit")
	}
	if out := m.outcome(); !errors.Is(out.Err, organizer.ErrCanceled) {
		t.Errorf("outcome error = %v, want ErrCanceled", out.Err)
	}
}

func TestRun_Failure(t *testing.T) {
	boom := errors.New("boom")
	m := NewModel(context.Background(), Options{Run: func(context.Context, func(types.Progress)) (*types.OrganizationResult, error) {
		return nil, boom
	}})

	m, _ = update(t, m, m.execute()())
	if m.State() != StateFailed {
		t.Fatalf("state = %v, want StateFailed", m.State())
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("failed view should show the error")
	}
}

func TestOutcome_NeverStarted(t *testing.T) {
	called := false
	m := NewModel(context.Background(), Options{Run: func(context.Context, func(types.Progress)) (*types.OrganizationResult, error) {
		called = true
		return nil, nil
	}})

	out := m.outcome()
	if !errors.Is(out.Err, organizer.ErrCanceled) {
		t.Errorf("outcome error = %v, want ErrCanceled", out.Err)
	}

	m.execute()()
	if called {
		t.Error("the run must not start after the outcome was taken")
	}
}

func TestProgressDropsWhenFull(t *testing.T) {
	run := func(_ context.Context, onProgress func(types.Progress)) (*types.OrganizationResult, error) {
		for i := range 100 {
			onProgress(types.Progress{Percent: i})
		}
		return &types.OrganizationResult{}, nil
	}
	m := NewModel(context.Background(), Options{Run: run})

	if _, ok := m.execute()().(runDoneMsg); !ok {
		t.Fatal("run should complete without a reader")
	}
	if got := len(m.progressChan); got != cap(m.progressChan) {
		t.Errorf("buffered updates = %d, want %d", got, cap(m.progressChan))
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{61, "1:01"},
		{3600, "60:00"},
	}
	for _, tt := range tests {
		if got := formatElapsed(time.Duration(tt.seconds) * time.Second); got != tt.want {
			t.Errorf("formatElapsed(%ds) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestTruncatePath(t *testing.T) {
	if got := truncatePath("/a/very/long/path/file.txt", 10); got != "...ile.txt" {
		t.Errorf("truncatePath() = %q", got)
	}
	if got := truncatePath("/short", 10); got != "/short" {
		t.Errorf("truncatePath() = %q", got)
	}
}
