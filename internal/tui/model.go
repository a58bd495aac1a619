// Package tui is the full-screen terminal dashboard: a URL input, the list
// of processed videos, the metrics of the selected video and the chat.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rtzll/mediadash/internal"
	"github.com/rtzll/mediadash/internal/api"
	"github.com/rtzll/mediadash/internal/dashboard"
)

const statusTTL = 6 * time.Second

type pane int

const (
	paneURL pane = iota
	paneVideos
	paneMetrics
	paneChat
	paneCount
)

// videoItem adapts api.VideoSummary to the list widget
type videoItem struct {
	video api.VideoSummary
}

func (i videoItem) Title() string { return i.video.Label() }

func (i videoItem) Description() string {
	if i.video.YouTubeID != "" {
		return i.video.YouTubeID
	}
	return i.video.VideoID
}

func (i videoItem) FilterValue() string { return i.video.Label() }

// MarkdownRenderer renders markdown for a given width
type MarkdownRenderer func(content string, width int) (string, error)

// Model is the Bubble Tea model of the dashboard
type Model struct {
	ctx context.Context
	d   *dashboard.Dashboard

	urlInput    textinput.Model
	videos      list.Model
	metricsView viewport.Model
	chatView    viewport.Model
	question    textarea.Model
	spinner     spinner.Model
	help        help.Model
	keys        keyMap

	focus  pane
	width  int
	height int
	styles styles

	status      string
	statusLevel dashboard.NoticeLevel
	statusSeq   int

	renderMarkdown  MarkdownRenderer
	copyToClipboard func(string) error

	renderedMetrics *api.Metrics
	renderedWidth   int
}

// Option customizes Model creation
type Option func(*Model)

// WithMarkdownRenderer replaces the glamour renderer
func WithMarkdownRenderer(r MarkdownRenderer) Option {
	return func(m *Model) {
		m.renderMarkdown = r
	}
}

// WithClipboard replaces the system clipboard writer
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) {
		m.copyToClipboard = fn
	}
}

// New creates the dashboard model. ctx bounds every backend call.
func New(ctx context.Context, d *dashboard.Dashboard, options ...Option) Model {
	keys := defaultKeyMap()

	urlInput := textinput.New()
	urlInput.Placeholder = "Paste YouTube URL"
	urlInput.Prompt = "▶ "
	urlInput.CharLimit = 2048
	urlInput.Focus()

	videos := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	videos.Title = "Processed Videos"
	videos.SetShowHelp(false)
	videos.SetShowStatusBar(false)
	videos.SetFilteringEnabled(false)
	videos.DisableQuitKeybindings()
	videos.SetStatusBarItemName("video", "videos")

	question := textarea.New()
	question.Placeholder = "Ask about the video..."
	question.ShowLineNumbers = false
	question.CharLimit = 4000
	question.SetHeight(3)
	question.KeyMap.InsertNewline = keys.InsertLine

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:             ctx,
		d:               d,
		urlInput:        urlInput,
		videos:          videos,
		metricsView:     viewport.New(0, 0),
		chatView:        viewport.New(0, 0),
		question:        question,
		spinner:         sp,
		help:            help.New(),
		keys:            keys,
		focus:           paneURL,
		styles:          defaultStyles(),
		renderMarkdown:  internal.RenderMarkdownWidth,
		copyToClipboard: clipboard.WriteAll,
	}
	for _, option := range options {
		option(&m)
	}

	m.sync()
	return m
}

// Dashboard returns the dashboard state driven by the model
func (m Model) Dashboard() *dashboard.Dashboard {
	return m.d
}

// Init loads the video list
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.runJobs(m.d.Start()...))
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.sync()
		return m, nil

	case eventMsg:
		jobs := m.d.Apply(msg.event)
		if _, ok := msg.event.(dashboard.VideosLoaded); ok {
			cmds = append(cmds, m.syncVideos())
		}
		cmds = append(cmds, m.sync(), m.runJobs(jobs...))
		return m, tea.Batch(cmds...)

	case copiedMsg:
		if msg.err != nil {
			cmd := m.setStatus(dashboard.NoticeError, "Copy failed: "+msg.err.Error())
			return m, cmd
		}
		cmd := m.setStatus(dashboard.NoticeInfo, "Transcript copied to clipboard")
		return m, cmd

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.d.Chat().State() == dashboard.ChatAwaitingAnswer {
			m.renderChat()
		}
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextPane):
		cmd := m.setFocus((m.focus + 1) % paneCount)
		return m, cmd
	case key.Matches(msg, m.keys.PrevPane):
		cmd := m.setFocus((m.focus + paneCount - 1) % paneCount)
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		return m, m.runJobs(m.d.Refresh())
	case key.Matches(msg, m.keys.ReloadList):
		return m, m.runJobs(m.d.LoadVideos())
	case key.Matches(msg, m.keys.Copy):
		cmd := m.copyTranscript()
		return m, cmd
	}

	switch m.focus {
	case paneURL:
		if key.Matches(msg, m.keys.Submit) {
			return m.submitURL()
		}
	case paneVideos:
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m.selectVideo()
		case key.Matches(msg, m.keys.Clear):
			m.d.Select("")
			cmd := m.sync()
			return m, cmd
		case key.Matches(msg, m.keys.QuitOnPanel):
			return m, tea.Quit
		}
	case paneMetrics:
		if key.Matches(msg, m.keys.QuitOnPanel) {
			return m, tea.Quit
		}
	case paneChat:
		if key.Matches(msg, m.keys.Submit) {
			return m.submitQuestion()
		}
	}

	return m.updateFocused(msg)
}

// updateFocused forwards a message to the widget that has focus
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case paneURL:
		m.urlInput, cmd = m.urlInput.Update(msg)
	case paneVideos:
		m.videos, cmd = m.videos.Update(msg)
	case paneMetrics:
		m.metricsView, cmd = m.metricsView.Update(msg)
	case paneChat:
		if kmsg, ok := msg.(tea.KeyMsg); ok && (key.Matches(kmsg, m.keys.ScrollUp) || key.Matches(kmsg, m.keys.ScrollDown)) {
			m.chatView, cmd = m.chatView.Update(msg)
			break
		}
		m.question, cmd = m.question.Update(msg)
	}
	return m, cmd
}

func (m Model) submitURL() (tea.Model, tea.Cmd) {
	videoURL, _ := internal.ParseArg(m.urlInput.Value())
	job, err := m.d.Process(videoURL)
	if errors.Is(err, dashboard.ErrBusy) {
		cmd := m.setStatus(dashboard.NoticeWarning, "Already processing a video")
		return m, cmd
	}
	if err != nil {
		cmd := m.sync()
		return m, cmd
	}
	m.urlInput.Reset()
	cmd := tea.Batch(m.sync(), m.runJobs(job))
	return m, cmd
}

func (m Model) selectVideo() (tea.Model, tea.Cmd) {
	item, ok := m.videos.SelectedItem().(videoItem)
	if !ok {
		return m, nil
	}
	job := m.d.Select(item.video.VideoID)
	cmd := tea.Batch(m.sync(), m.runJobs(job))
	return m, cmd
}

func (m Model) submitQuestion() (tea.Model, tea.Cmd) {
	job, err := m.d.Ask(m.question.Value())
	switch {
	case errors.Is(err, dashboard.ErrBusy):
		cmd := m.setStatus(dashboard.NoticeWarning, "Still waiting for the previous answer")
		return m, cmd
	case errors.Is(err, dashboard.ErrDuplicateQuestion):
		m.question.Reset()
		cmd := m.setStatus(dashboard.NoticeInfo, "You just asked that")
		return m, cmd
	case err != nil:
		cmd := m.sync()
		return m, cmd
	}
	m.question.Reset()
	cmd := tea.Batch(m.sync(), m.runJobs(job))
	return m, cmd
}

func (m *Model) copyTranscript() tea.Cmd {
	metrics, status := m.d.Metrics()
	if status != dashboard.MetricsLoaded || strings.TrimSpace(metrics.Transcript.Text) == "" {
		return m.setStatus(dashboard.NoticeWarning, "No transcript to copy")
	}
	text := metrics.Transcript.Text
	copyFn := m.copyToClipboard
	return func() tea.Msg {
		return copiedMsg{err: copyFn(text)}
	}
}

func (m *Model) setFocus(p pane) tea.Cmd {
	m.focus = p
	m.urlInput.Blur()
	m.question.Blur()
	switch p {
	case paneURL:
		return m.urlInput.Focus()
	case paneChat:
		return m.question.Focus()
	}
	return nil
}

// runJobs runs dashboard jobs off the update loop; their events come back as eventMsg
func (m Model) runJobs(jobs ...*dashboard.Job) tea.Cmd {
	var cmds []tea.Cmd
	for _, job := range jobs {
		if job == nil {
			continue
		}
		ctx := m.ctx
		cmds = append(cmds, func() tea.Msg {
			return eventMsg{event: job.Run(ctx)}
		})
	}
	return tea.Batch(cmds...)
}

func (m *Model) setStatus(level dashboard.NoticeLevel, text string) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusLevel = level
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// syncVideos copies the dashboard's video list into the list widget
func (m *Model) syncVideos() tea.Cmd {
	videos := m.d.Videos()
	items := make([]list.Item, len(videos))
	for i, v := range videos {
		items[i] = videoItem{video: v}
	}
	cmd := m.videos.SetItems(items)
	m.moveCursorToSelection()
	return cmd
}

func (m *Model) moveCursorToSelection() {
	selected := m.d.Selected()
	if selected == "" {
		return
	}
	for i, item := range m.videos.Items() {
		if v, ok := item.(videoItem); ok && v.video.VideoID == selected {
			m.videos.Select(i)
			return
		}
	}
}

// sync refreshes the views from the dashboard and surfaces its notices
func (m *Model) sync() tea.Cmd {
	m.moveCursorToSelection()
	m.renderMetrics()
	m.renderChat()

	var cmd tea.Cmd
	for _, n := range m.d.TakeNotices() {
		cmd = m.setStatus(n.Level, n.Text)
	}
	return cmd
}
