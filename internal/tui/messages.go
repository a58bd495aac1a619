package tui

import (
	"github.com/rtzll/mediadash/internal/dashboard"
)

// Messages for Bubble Tea

// eventMsg carries the result of a dashboard job back to Update
type eventMsg struct {
	event dashboard.Event
}

// copiedMsg is sent when the transcript has been written to the clipboard
type copiedMsg struct {
	err error
}

// clearStatusMsg expires the status line if nothing newer replaced it
type clearStatusMsg struct {
	seq int
}
