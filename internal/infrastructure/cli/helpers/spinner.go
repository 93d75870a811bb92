package helpers

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/doeshing/promptcraft/internal/domain"
)

// Spinner displays an animated spinner during long operations
type Spinner struct {
	frames   []string
	interval time.Duration
	writer   io.Writer
	label    string
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewSpinner creates a new spinner
func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 80 * time.Millisecond,
		writer:   w,
		label:    label,
		stopChan: make(chan struct{}),
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		idx := 0
		for {
			fmt.Fprintf(s.writer, "\r%s %s", s.frames[idx%len(s.frames)], s.label)
			idx++
			select {
			case <-s.stopChan:
				fmt.Fprint(s.writer, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop stops the spinner animation
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
}

// RunWithSpinner runs fn while a spinner animates on w. Nothing is drawn when w
// is not a terminal.
func RunWithSpinner[T any](w io.Writer, label string, fn func() (T, error)) (T, error) {
	if !isTerminalWriter(w) {
		return fn()
	}
	spinner := NewSpinner(w, label)
	spinner.Start()
	defer spinner.Stop()
	return fn()
}

// PullReporter renders Ollama pull progress: a progress bar on terminals and
// plain status lines otherwise.
type PullReporter struct {
	out    io.Writer
	tty    bool
	bar    *pterm.ProgressbarPrinter
	status string
}

// NewPullReporter prepares a reporter writing to out.
func NewPullReporter(out io.Writer) *PullReporter {
	return &PullReporter{out: out, tty: isTerminalWriter(out)}
}

// Report handles one progress line.
func (r *PullReporter) Report(p domain.PullProgress) {
	percent, hasPercent := p.Percent()
	if !r.tty {
		if p.Status == r.status && !hasPercent {
			return
		}
		r.status = p.Status
		if hasPercent {
			fmt.Fprintf(r.out, "%s %.1f%%\n", p.Status, percent)
		} else {
			fmt.Fprintln(r.out, p.Status)
		}
		return
	}

	if !hasPercent {
		r.finishBar()
		if p.Status != r.status {
			fmt.Fprintln(r.out, p.Status)
		}
		r.status = p.Status
		return
	}
	if r.bar == nil || p.Status != r.status {
		r.finishBar()
		bar, err := pterm.DefaultProgressbar.WithTotal(100).WithTitle(p.Status).Start()
		if err != nil {
			return
		}
		r.bar = bar
		r.status = p.Status
	}
	if step := int(percent) - r.bar.Current; step > 0 {
		r.bar.Add(step)
	}
}

// Close stops any running progress bar.
func (r *PullReporter) Close() {
	r.finishBar()
}

func (r *PullReporter) finishBar() {
	if r.bar == nil {
		return
	}
	_, _ = r.bar.Stop()
	r.bar = nil
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
