package tui

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtzll/mediadash/internal/api"
	"github.com/rtzll/mediadash/internal/apitest"
	"github.com/rtzll/mediadash/internal/dashboard"
)

// settleAfter is how long the loop waits for another result before it
// considers the model idle; timers like the status expiry never fire in time
const settleAfter = 500 * time.Millisecond

type fixture struct {
	backend *apitest.Backend
	copied  []string
}

func newModel(t *testing.T) (Model, *fixture) {
	t.Helper()
	f := &fixture{backend: apitest.New(t)}
	f.backend.AddVideo(api.VideoSummary{VideoID: "abc123", Title: "Talk", Uploader: "Alice"}, apitest.SampleMetrics("Talk"))
	f.backend.AddVideo(api.VideoSummary{VideoID: "def456", Title: "Panel", Uploader: "Bob"}, apitest.SampleMetrics("Panel"))

	d := dashboard.New(f.backend.Client())
	m := New(context.Background(), d,
		WithMarkdownRenderer(func(content string, _ int) (string, error) { return content, nil }),
		WithClipboard(func(text string) error {
			f.copied = append(f.copied, text)
			return nil
		}),
	)
	m = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 48})
	return m, f
}

// update feeds one message to the model and settles the commands it returns
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return settle(t, next.(Model), cmd)
}

// settle runs commands like the Bubble Tea runtime would, feeding dashboard
// events and clipboard results back into the model until nothing arrives
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	results := make(chan tea.Msg, 64)
	start := func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() { results <- c() }()
	}
	start(cmd)

	for {
		select {
		case msg := <-results:
			switch msg := msg.(type) {
			case tea.BatchMsg:
				for _, c := range msg {
					start(c)
				}
			case eventMsg, copiedMsg:
				next, c := m.Update(msg)
				m = next.(Model)
				start(c)
			}
		case <-time.After(settleAfter):
			return m
		}
	}
}

func keyPress(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func focusPane(t *testing.T, m Model, p pane) Model {
	t.Helper()
	for m.focus != p {
		m = update(t, m, keyPress(tea.KeyTab))
	}
	return m
}

func TestInitLoadsVideos(t *testing.T) {
	m, f := newModel(t)
	m = settle(t, m, m.Init())

	require.Len(t, m.videos.Items(), 2)
	assert.Equal(t, "Talk (Alice)", m.videos.Items()[0].(videoItem).Title())
	assert.Equal(t, 1, f.backend.Count(http.MethodGet, "/videos"))
	assert.Contains(t, m.View(), "Processed Videos")
	assert.Contains(t, m.View(), "Select or process a video to see metrics.")
}

func TestSelectVideoLoadsMetrics(t *testing.T) {
	m, f := newModel(t)
	m = settle(t, m, m.Init())
	m = focusPane(t, m, paneVideos)

	m = update(t, m, keyPress(tea.KeyEnter))

	assert.Equal(t, "abc123", m.Dashboard().Selected())
	_, status := m.Dashboard().Metrics()
	assert.Equal(t, dashboard.MetricsLoaded, status)
	assert.Equal(t, 1, f.backend.Count(http.MethodGet, "/metrics/abc123"))
	assert.Contains(t, m.View(), "Talk (Alice)")
	assert.Contains(t, m.metricsView.View(), "# Talk")

	// pressing enter on the same video does not refetch
	m = update(t, m, keyPress(tea.KeyEnter))
	assert.Equal(t, 1, f.backend.Count(http.MethodGet, "/metrics/abc123"))

	m = update(t, m, runes("x"))
	assert.Equal(t, "", m.Dashboard().Selected())
	assert.Contains(t, m.metricsView.View(), "Select or process a video")
}

func TestProcessURL(t *testing.T) {
	m, f := newModel(t)
	f.backend.OnProcess(func(url string) (*api.ProcessResult, error) {
		return &api.ProcessResult{VideoID: "v1", Title: "Test"}, nil
	})

	m.urlInput.SetValue("https://youtu.be/xyz")
	m = update(t, m, keyPress(tea.KeyEnter))

	assert.False(t, m.Dashboard().Processing())
	assert.Equal(t, "v1", m.Dashboard().Selected())
	assert.Equal(t, "", m.urlInput.Value())
	assert.Contains(t, m.status, "Test")
	assert.Equal(t, 1, f.backend.Count(http.MethodPost, "/process-video"))
	assert.Equal(t, 1, f.backend.Count(http.MethodGet, "/videos"))

	item, ok := m.videos.SelectedItem().(videoItem)
	require.True(t, ok)
	assert.Equal(t, "v1", item.video.VideoID)
}

func TestProcessBareYouTubeID(t *testing.T) {
	m, f := newModel(t)
	var submitted string
	f.backend.OnProcess(func(url string) (*api.ProcessResult, error) {
		submitted = url
		return &api.ProcessResult{VideoID: "v2", Title: "Bare"}, nil
	})

	m.urlInput.SetValue("tAP1eZYEuKA")
	update(t, m, keyPress(tea.KeyEnter))

	assert.Equal(t, "https://www.youtube.com/watch?v=tAP1eZYEuKA", submitted)
}

func TestProcessEmptyURL(t *testing.T) {
	m, f := newModel(t)

	m = update(t, m, keyPress(tea.KeyEnter))

	assert.Equal(t, "Paste a YouTube URL", m.status)
	assert.Equal(t, dashboard.NoticeWarning, m.statusLevel)
	assert.Empty(t, f.backend.Requests())
}

func TestProcessFailureShowsDetail(t *testing.T) {
	m, f := newModel(t)
	f.backend.OnProcess(func(url string) (*api.ProcessResult, error) {
		return nil, &apitest.HTTPError{Status: http.StatusBadRequest, Detail: "Transcript empty"}
	})

	m.urlInput.SetValue("https://youtu.be/xyz")
	m = update(t, m, keyPress(tea.KeyEnter))

	assert.Equal(t, "Processing failed: Transcript empty", m.status)
	assert.Equal(t, dashboard.NoticeError, m.statusLevel)
	assert.Equal(t, "", m.Dashboard().Selected())
}

func TestChatAsk(t *testing.T) {
	m, f := newModel(t)
	m = settle(t, m, m.Init())
	m = focusPane(t, m, paneVideos)
	m = update(t, m, keyPress(tea.KeyEnter))
	m = focusPane(t, m, paneChat)

	m.question.SetValue("what is it about?")
	m = update(t, m, keyPress(tea.KeyEnter))

	msgs := m.Dashboard().Chat().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, dashboard.RoleUser, msgs[0].Role)
	assert.Equal(t, "answer to: what is it about?", msgs[1].Text)
	assert.Equal(t, "", m.question.Value())
	assert.Equal(t, 1, f.backend.Count(http.MethodPost, "/chat/abc123"))

	view := m.chatView.View()
	assert.Contains(t, view, "You:")
	assert.Contains(t, view, "AI:")
}

func TestChatWithoutSelection(t *testing.T) {
	m, f := newModel(t)
	m = focusPane(t, m, paneChat)

	m.question.SetValue("anyone there?")
	m = update(t, m, keyPress(tea.KeyEnter))

	assert.Equal(t, "Select a video first", m.status)
	assert.Equal(t, "anyone there?", m.question.Value())
	assert.Empty(t, f.backend.Requests())
}

func TestChatBusyDropsSecondQuestion(t *testing.T) {
	m, f := newModel(t)
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)
	f.backend.OnAnswer(func(videoID, question string, topK int) (string, error) {
		<-release
		return "done", nil
	})
	m.Dashboard().Select("abc123")
	m = focusPane(t, m, paneChat)

	m.question.SetValue("first")
	next, cmd := m.Update(keyPress(tea.KeyEnter))
	m = next.(Model)
	assert.Equal(t, dashboard.ChatAwaitingAnswer, m.Dashboard().Chat().State())

	m.question.SetValue("second")
	next, _ = m.Update(keyPress(tea.KeyEnter))
	m = next.(Model)
	assert.Equal(t, "Still waiting for the previous answer", m.status)
	assert.Equal(t, "second", m.question.Value())

	unblock()
	m = settle(t, m, cmd)

	assert.Equal(t, 1, f.backend.Count(http.MethodPost, "/chat/abc123"))
	msgs := m.Dashboard().Chat().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "done", msgs[1].Text)
}

func TestCopyTranscript(t *testing.T) {
	m, f := newModel(t)

	m = update(t, m, keyPress(tea.KeyCtrlY))
	assert.Equal(t, "No transcript to copy", m.status)
	assert.Empty(t, f.copied)

	m = settle(t, m, m.runJobs(m.Dashboard().Select("abc123")))
	m = update(t, m, keyPress(tea.KeyCtrlY))

	require.Len(t, f.copied, 1)
	assert.True(t, strings.HasPrefix(f.copied[0], "hello and welcome"))
	assert.Equal(t, "Transcript copied to clipboard", m.status)
}

func TestMetricsFailureShowsRetryHint(t *testing.T) {
	m, f := newModel(t)

	m = settle(t, m, m.runJobs(m.Dashboard().Select("missing")))
	assert.Contains(t, m.metricsView.View(), "Video not found")

	f.backend.AddVideo(api.VideoSummary{VideoID: "missing", Title: "Late"}, apitest.SampleMetrics("Late"))
	m = update(t, m, keyPress(tea.KeyCtrlR))

	_, status := m.Dashboard().Metrics()
	assert.Equal(t, dashboard.MetricsLoaded, status)
	assert.Equal(t, 2, f.backend.Count(http.MethodGet, "/metrics/missing"))
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t)

	_, cmd := m.Update(keyPress(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	// q is text while the URL input has focus
	next, _ := m.Update(runes("q"))
	assert.Equal(t, "q", next.(Model).urlInput.Value())
}
