package dashboard

import (
	"context"

	"github.com/rtzll/mediadash/internal/api"
)

// Event is the outcome of a Job, applied back onto the Dashboard
type Event interface {
	isEvent()
}

// VideosLoaded reports the result of a video list request
type VideosLoaded struct {
	Videos []api.VideoSummary
	Err    error
}

// MetricsFetched reports the result of a metrics request. Generation is the
// selection generation the request was issued under.
type MetricsFetched struct {
	VideoID    string
	Generation uint64
	Metrics    *api.Metrics
	Err        error
}

// VideoProcessed reports the result of a processing submission
type VideoProcessed struct {
	URL    string
	Result *api.ProcessResult
	Err    error
}

// QuestionAnswered reports the result of a chat request
type QuestionAnswered struct {
	Request ChatRequest
	Answer  string
	Err     error
}

func (VideosLoaded) isEvent()     {}
func (MetricsFetched) isEvent()   {}
func (VideoProcessed) isEvent()   {}
func (QuestionAnswered) isEvent() {}

// Job is a backend call prepared by the Dashboard. Running it touches no
// dashboard state, so it may run on any goroutine; the resulting Event must
// be passed to Dashboard.Apply on the goroutine that owns the Dashboard.
type Job struct {
	Name string
	run  func(ctx context.Context) Event
}

// Run performs the backend call
func (j *Job) Run(ctx context.Context) Event {
	return j.run(ctx)
}

func (d *Dashboard) listVideosJob() *Job {
	backend := d.backend
	return &Job{
		Name: "list videos",
		run: func(ctx context.Context) Event {
			videos, err := backend.ListVideos(ctx)
			return VideosLoaded{Videos: videos, Err: err}
		},
	}
}

func (d *Dashboard) metricsJob(videoID string, generation uint64) *Job {
	backend := d.backend
	return &Job{
		Name: "load metrics " + videoID,
		run: func(ctx context.Context) Event {
			metrics, err := backend.GetMetrics(ctx, videoID)
			return MetricsFetched{VideoID: videoID, Generation: generation, Metrics: metrics, Err: err}
		},
	}
}

func (d *Dashboard) processJob(videoURL string) *Job {
	backend := d.backend
	return &Job{
		Name: "process video",
		run: func(ctx context.Context) Event {
			result, err := backend.ProcessVideo(ctx, videoURL)
			return VideoProcessed{URL: videoURL, Result: result, Err: err}
		},
	}
}

func (d *Dashboard) askJob(req ChatRequest) *Job {
	backend := d.backend
	topK := d.topK
	return &Job{
		Name: "ask",
		run: func(ctx context.Context) Event {
			answer, err := backend.Ask(ctx, req.VideoID, req.Question, topK)
			if err != nil {
				return QuestionAnswered{Request: req, Err: err}
			}
			return QuestionAnswered{Request: req, Answer: answer.Answer}
		},
	}
}
