package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// TUI shows a live spinner and progress bar while scanning, then renders
// results with styled severities.
type TUI struct {
	*SimpleUI

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI writing to the command's output.
func NewTUI(cmd *cobra.Command) *TUI {
	simple := NewSimpleUI(cmd)
	simple.styled = true

	return &TUI{SimpleUI: simple}
}

// Start launches the progress program in scan mode; report mode renders directly.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := newStartConfig(options)
	if config.mode != ModeScan {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	program := tea.NewProgram(
		newScanProgressModel(config.root),
		tea.WithOutput(t.cmd.OutOrStdout()),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)

	done := make(chan struct{})

	go func() {
		defer close(done)

		if _, err := program.Run(); err != nil && ctx.Err() == nil {
			t.printf("progress display stopped: %v\n", err)
		}
	}()

	t.program = program
	t.done = done

	return nil
}

// Close stops the progress program if it is still running.
func (t *TUI) Close(context.Context) {
	program, done := t.current()
	if program == nil {
		return
	}

	program.Quit()
	<-done

	t.mu.Lock()
	t.program = nil
	t.done = nil
	t.mu.Unlock()
}

// Wait blocks until the progress program exits.
func (t *TUI) Wait(ctx context.Context) {
	_, done := t.current()
	if done == nil {
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (t *TUI) current() (*tea.Program, chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.program, t.done
}

func (t *TUI) send(msg tea.Msg) {
	if program, _ := t.current(); program != nil {
		program.Send(msg)
	}
}

// FilesDiscovered sets the progress bar total.
func (t *TUI) FilesDiscovered(total int) { t.send(discoveredMsg(total)) }

// FileProcessed advances the progress bar.
func (t *TUI) FileProcessed(path m.Path) { t.send(processedMsg(path)) }

// ValidationFinished counts completed inference calls.
func (t *TUI) ValidationFinished(_ time.Duration, ok bool) { t.send(validatedMsg(ok)) }

// ScanFinished ends the progress display.
func (t *TUI) ScanFinished(m.ScanMode, m.ScanStats) { t.send(finishedMsg{}) }

// DisplayScanResult waits for the progress display to finish, then renders results.
func (t *TUI) DisplayScanResult(ctx context.Context, result m.ScanResult) error {
	t.Wait(ctx)

	t.printf("%s\n", titleStyle.Render(fmt.Sprintf("Results for %s", result.Root)))

	return t.SimpleUI.DisplayScanResult(ctx, result)
}

type (
	discoveredMsg int
	processedMsg  m.Path
	validatedMsg  bool
	finishedMsg   struct{}
)

type scanProgressModel struct {
	root      m.Path
	spinner   spinner.Model
	bar       progress.Model
	total     int
	processed int
	validated int
	failed    int
	last      m.Path
	done      bool
}

func newScanProgressModel(root m.Path) scanProgressModel {
	return scanProgressModel{
		root:    root,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (p scanProgressModel) Init() tea.Cmd {
	return p.spinner.Tick
}

func (p scanProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			p.done = true
			return p, tea.Quit
		}

		return p, nil
	case discoveredMsg:
		p.total = int(msg)
		p.processed = 0
	case processedMsg:
		p.processed++
		p.last = m.Path(msg)
	case validatedMsg:
		if msg {
			p.validated++
		} else {
			p.failed++
		}
	case finishedMsg:
		p.done = true
		return p, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)

		return p, cmd
	}

	return p, nil
}

func (p scanProgressModel) percent() float64 {
	if p.total == 0 {
		return 0
	}

	return float64(p.processed) / float64(p.total)
}

func (p scanProgressModel) View() string {
	if p.done {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s Scanning %s\n", p.spinner.View(), titleStyle.Render(string(p.root)))
	fmt.Fprintf(&b, "  %s %d/%d files\n", p.bar.ViewAs(p.percent()), p.processed, p.total)

	if p.validated+p.failed > 0 {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(fmt.Sprintf("validated %d, failed %d", p.validated, p.failed)))
	}

	if p.last != "" {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(relPath(p.root, p.last)))
	}

	return b.String()
}
