package internal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// UIManager handles all user interface concerns (spinners, verbose output, status)
type UIManager interface {
	// NewSpinner shows an indeterminate spinner until Finish is called
	NewSpinner(description string) ProgressBar

	// Verbose output
	Verbose(format string, args ...any)

	// Status messages
	Printf(format string, args ...any)
	Println(args ...any)
	Warnf(format string, args ...any)
}

// ProgressBar interface abstracts progress bar operations
type ProgressBar interface {
	Describe(description string)
	Advance()
	Finish()
}

// StandardUIManager handles normal UI operations
type StandardUIManager struct {
	verbose bool
	quiet   bool
	out     io.Writer
	errOut  io.Writer
}

func NewUIManager(verbose, quiet bool) UIManager {
	return NewWriterUIManager(os.Stdout, os.Stderr, verbose, quiet)
}

// NewWriterUIManager is NewUIManager writing status to out and warnings,
// verbose output and spinners to errOut
func NewWriterUIManager(out, errOut io.Writer, verbose, quiet bool) UIManager {
	return &StandardUIManager{
		verbose: verbose,
		quiet:   quiet,
		out:     out,
		errOut:  errOut,
	}
}

// NewSpinner starts a spinner on stderr so stdout stays clean for piping
func (ui *StandardUIManager) NewSpinner(description string) ProgressBar {
	if ui.quiet {
		return &SilentProgressBar{}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(ui.errOut),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)
	s := &VisibleProgressBar{bar: bar, done: make(chan struct{})}
	go s.spin(100 * time.Millisecond)
	return s
}

// Verbose Output Methods
func (ui *StandardUIManager) Verbose(format string, args ...any) {
	if ui.verbose {
		fmt.Fprintf(ui.errOut, format, args...)
	}
}

// Status Message Methods
func (ui *StandardUIManager) Printf(format string, args ...any) {
	if !ui.quiet {
		fmt.Fprintf(ui.out, format, args...)
	}
}

func (ui *StandardUIManager) Println(args ...any) {
	if !ui.quiet {
		fmt.Fprintln(ui.out, args...)
	}
}

// Warnf prints a warning to stderr, even in quiet mode
func (ui *StandardUIManager) Warnf(format string, args ...any) {
	fmt.Fprintf(ui.errOut, "Warning: "+format+"\n", args...)
}

// VisibleProgressBar wraps the actual progress bar
type VisibleProgressBar struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	done chan struct{}
	once sync.Once
}

func (v *VisibleProgressBar) spin(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-v.done:
			return
		case <-ticker.C:
			v.Advance()
		}
	}
}

func (v *VisibleProgressBar) Describe(description string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bar.Describe(description)
}

func (v *VisibleProgressBar) Advance() {
	v.mu.Lock()
	defer v.mu.Unlock()
	select {
	case <-v.done:
		return
	default:
	}
	_ = v.bar.Add(1)
}

func (v *VisibleProgressBar) Finish() {
	v.once.Do(func() {
		close(v.done)
		v.mu.Lock()
		defer v.mu.Unlock()
		_ = v.bar.Finish()
	})
}

// SilentProgressBar implements a silent progress bar
type SilentProgressBar struct{}

func (s *SilentProgressBar) Describe(description string) {
	// Do nothing for silent mode
}

func (s *SilentProgressBar) Advance() {}

func (s *SilentProgressBar) Finish() {}
