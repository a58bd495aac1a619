// Package dashboard holds the client-side state of the media monitoring
// dashboard: the processed video list, the selected video and its metrics,
// the processing submission and the chat transcript.
//
// All methods must be called from a single goroutine. Backend calls are
// returned as Jobs; their Events are fed back through Apply.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rtzll/mediadash/internal/api"
)

var (
	ErrNoVideo           = errors.New("select a video first")
	ErrEmptyQuestion     = errors.New("question is empty")
	ErrEmptyURL          = errors.New("paste a YouTube URL")
	ErrBusy              = errors.New("a request is already in flight")
	ErrDuplicateQuestion = errors.New("question was just asked")
)

// Backend is the part of the API the dashboard depends on
type Backend interface {
	ListVideos(ctx context.Context) ([]api.VideoSummary, error)
	ProcessVideo(ctx context.Context, videoURL string) (*api.ProcessResult, error)
	GetMetrics(ctx context.Context, videoID string) (*api.Metrics, error)
	Ask(ctx context.Context, videoID, question string, topK int) (*api.ChatAnswer, error)
}

// ChatScope decides whether the chat transcript survives a video switch
type ChatScope string

const (
	// ChatScopeGlobal keeps one transcript across all videos
	ChatScopeGlobal ChatScope = "global"
	// ChatScopeVideo resets the transcript whenever the selection changes
	ChatScopeVideo ChatScope = "video"
)

// ParseChatScope validates a configured chat scope
func ParseChatScope(s string) (ChatScope, error) {
	switch ChatScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ChatScopeGlobal:
		return ChatScopeGlobal, nil
	case ChatScopeVideo:
		return ChatScopeVideo, nil
	}
	return "", fmt.Errorf("unsupported chat scope: %s (supported: global, video)", s)
}

// MetricsStatus is the state of the metrics view
type MetricsStatus int

const (
	// MetricsNone means no video is selected
	MetricsNone MetricsStatus = iota
	MetricsLoading
	MetricsLoaded
)

// NoticeLevel grades a user-facing notice
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

// Notice is a message for the user, the terminal equivalent of an alert
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Dashboard is the single owner of the selection and everything derived from it
type Dashboard struct {
	backend   Backend
	logger    *slog.Logger
	topK      int
	chatScope ChatScope

	videos     []api.VideoSummary
	selected   string
	generation uint64

	metrics       *api.Metrics
	metricsStatus MetricsStatus
	metricsErr    error

	processing bool
	chat       *Chat
	notices    []Notice
}

// Option customizes Dashboard creation
type Option func(*Dashboard)

// WithLogger sets the logger used for background failures
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dashboard) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithTopK sets the number of passages requested per question
func WithTopK(topK int) Option {
	return func(d *Dashboard) {
		if topK > 0 {
			d.topK = topK
		}
	}
}

// WithChatScope sets whether the transcript is kept across video switches
func WithChatScope(scope ChatScope) Option {
	return func(d *Dashboard) {
		d.chatScope = scope
	}
}

// New creates a dashboard with nothing selected
func New(backend Backend, options ...Option) *Dashboard {
	d := &Dashboard{
		backend:   backend,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		topK:      api.DefaultTopK,
		chatScope: ChatScopeGlobal,
		videos:    []api.VideoSummary{},
		chat:      NewChat(),
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// Start returns the jobs to run when the dashboard is first shown
func (d *Dashboard) Start() []*Job {
	return []*Job{d.LoadVideos()}
}

// LoadVideos returns a job that refreshes the video list
func (d *Dashboard) LoadVideos() *Job {
	return d.listVideosJob()
}

// Videos returns the last successfully loaded video list
func (d *Dashboard) Videos() []api.VideoSummary {
	return append([]api.VideoSummary(nil), d.videos...)
}

// Selected returns the selected video id, or "" when none is selected
func (d *Dashboard) Selected() string {
	return d.selected
}

// SelectedVideo returns the list entry of the selected video, if listed
func (d *Dashboard) SelectedVideo() (api.VideoSummary, bool) {
	for _, v := range d.videos {
		if v.VideoID == d.selected && d.selected != "" {
			return v, true
		}
	}
	return api.VideoSummary{}, false
}

// Select changes the selected video. It returns the metrics job for the new
// selection, or nil when the selection is cleared or unchanged. Selecting the
// current video again retries a failed metrics fetch.
func (d *Dashboard) Select(videoID string) *Job {
	videoID = strings.TrimSpace(videoID)
	if videoID == d.selected {
		if d.metricsErr != nil {
			return d.Refresh()
		}
		return nil
	}

	d.selected = videoID
	d.generation++
	d.metrics = nil
	d.metricsErr = nil
	if d.chatScope == ChatScopeVideo {
		d.chat.Reset()
	}

	if videoID == "" {
		d.metricsStatus = MetricsNone
		return nil
	}
	d.metricsStatus = MetricsLoading
	return d.metricsJob(videoID, d.generation)
}

// Refresh reloads the metrics of the selected video
func (d *Dashboard) Refresh() *Job {
	if d.selected == "" {
		return nil
	}
	d.generation++
	d.metricsStatus = MetricsLoading
	d.metricsErr = nil
	return d.metricsJob(d.selected, d.generation)
}

// Metrics returns the metrics document of the selected video and the view state
func (d *Dashboard) Metrics() (*api.Metrics, MetricsStatus) {
	return d.metrics, d.metricsStatus
}

// MetricsErr returns the last metrics failure for the current selection
func (d *Dashboard) MetricsErr() error {
	return d.metricsErr
}

// Process validates a URL and returns the job submitting it
func (d *Dashboard) Process(videoURL string) (*Job, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		d.notify(NoticeWarning, "Paste a YouTube URL")
		return nil, ErrEmptyURL
	}
	if d.processing {
		return nil, ErrBusy
	}
	d.processing = true
	return d.processJob(videoURL), nil
}

// Processing reports whether a submission is in flight
func (d *Dashboard) Processing() bool {
	return d.processing
}

// Ask submits a question about the selected video. ErrBusy and
// ErrDuplicateQuestion mean the submission was dropped.
func (d *Dashboard) Ask(question string) (*Job, error) {
	if d.selected == "" {
		d.notify(NoticeWarning, "Select a video first")
		return nil, ErrNoVideo
	}
	req, err := d.chat.Submit(d.selected, question)
	if err != nil {
		return nil, err
	}
	return d.askJob(req), nil
}

// Chat returns the chat transcript and state
func (d *Dashboard) Chat() *Chat {
	return d.chat
}

// TakeNotices returns and clears pending notices
func (d *Dashboard) TakeNotices() []Notice {
	notices := d.notices
	d.notices = nil
	return notices
}

// Apply folds the result of a job into the dashboard and returns follow-up jobs
func (d *Dashboard) Apply(ev Event) []*Job {
	switch ev := ev.(type) {
	case VideosLoaded:
		if ev.Err != nil {
			d.logger.Warn("loading videos failed", "error", ev.Err)
			return nil
		}
		d.videos = ev.Videos

	case MetricsFetched:
		if ev.Generation != d.generation {
			d.logger.Debug("discarding stale metrics", "video_id", ev.VideoID, "generation", ev.Generation, "current", d.generation)
			return nil
		}
		if ev.Err != nil {
			d.logger.Warn("loading metrics failed", "video_id", ev.VideoID, "error", ev.Err)
			d.metricsErr = ev.Err
			return nil
		}
		d.metrics = ev.Metrics
		d.metricsStatus = MetricsLoaded

	case VideoProcessed:
		d.processing = false
		if ev.Err != nil {
			d.logger.Error("processing video failed", "url", ev.URL, "error", ev.Err)
			d.notify(NoticeError, "Processing failed: "+api.UserMessage(ev.Err))
			return nil
		}
		d.logger.Info("video processed", "url", ev.URL, "video_id", ev.Result.VideoID)
		d.notify(NoticeInfo, "Processed: "+ev.Result.DisplayName())
		jobs := []*Job{d.LoadVideos()}
		job := d.Select(ev.Result.VideoID)
		if job == nil {
			// same video processed again
			job = d.Refresh()
		}
		if job != nil {
			jobs = append(jobs, job)
		}
		return jobs

	case QuestionAnswered:
		if ev.Err != nil {
			d.logger.Error("chat request failed", "video_id", ev.Request.VideoID, "error", ev.Err)
		}
		if _, ok := d.chat.Resolve(ev.Request, ev.Answer, ev.Err); !ok {
			d.logger.Debug("discarding stale answer", "video_id", ev.Request.VideoID)
		}
	}
	return nil
}

// Run executes jobs and their follow-ups one after another on the calling goroutine
func (d *Dashboard) Run(ctx context.Context, jobs ...*Job) {
	queue := append([]*Job(nil), jobs...)
	for len(queue) > 0 {
		job := queue[0]
		queue = queue[1:]
		if job == nil {
			continue
		}
		queue = append(queue, d.Apply(job.Run(ctx))...)
	}
}

func (d *Dashboard) notify(level NoticeLevel, text string) {
	d.notices = append(d.notices, Notice{Level: level, Text: text})
}
