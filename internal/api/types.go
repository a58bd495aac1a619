package api

import (
	"errors"
	"fmt"
	"strings"
)

// Sentiment labels reported by the backend
const (
	LabelPositive = "POSITIVE"
	LabelNeutral  = "NEUTRAL"
	LabelNegative = "NEGATIVE"
)

// VideoSummary identifies a previously processed video
type VideoSummary struct {
	VideoID   string  `json:"video_id"`
	Title     string  `json:"title"`
	Uploader  string  `json:"uploader"`
	YouTubeID string  `json:"youtube_id,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	ViewCount int64   `json:"view_count,omitempty"`
}

// Label is the text shown for the video in a selection list
func (v VideoSummary) Label() string {
	title := v.Title
	if title == "" {
		title = v.VideoID
	}
	if v.Uploader == "" {
		return title
	}
	return fmt.Sprintf("%s (%s)", title, v.Uploader)
}

func (v VideoSummary) validate() error {
	if strings.TrimSpace(v.VideoID) == "" {
		return errors.New("video_id is missing")
	}
	return nil
}

// ProcessRequest is the body of POST /process-video
type ProcessRequest struct {
	URL string `json:"url"`
}

// ProcessResult is returned once the backend has processed a video
type ProcessResult struct {
	VideoID   string     `json:"video_id"`
	Title     string     `json:"title"`
	Uploader  string     `json:"uploader,omitempty"`
	Duration  float64    `json:"duration,omitempty"`
	ViewCount int64      `json:"view_count,omitempty"`
	LikeCount int64      `json:"like_count,omitempty"`
	Summary   string     `json:"summary,omitempty"`
	Sentiment *Sentiment `json:"sentiment,omitempty"`
	Chunks    int        `json:"chunks,omitempty"`
}

// DisplayName is the title, or the id when the backend returned no title
func (r ProcessResult) DisplayName() string {
	if r.Title != "" {
		return r.Title
	}
	return r.VideoID
}

func (r ProcessResult) validate() error {
	if strings.TrimSpace(r.VideoID) == "" {
		return errors.New("video_id is missing")
	}
	if r.Sentiment != nil {
		return r.Sentiment.validate()
	}
	return nil
}

// Sentiment is the overall sentiment of a transcript
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Percent is the score as a whole percentage
func (s Sentiment) Percent() int {
	return int(s.Score*100 + 0.5)
}

func (s Sentiment) validate() error {
	switch strings.ToUpper(s.Label) {
	case "", LabelPositive, LabelNeutral, LabelNegative:
	default:
		return fmt.Errorf("unknown sentiment label %q", s.Label)
	}
	return checkUnit("sentiment.score", s.Score)
}

// SentimentBreakdown holds the proportions of each sentiment class
type SentimentBreakdown struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// ChartLabels are the bar labels matching ChartData order
var ChartLabels = []string{"Positive", "Neutral", "Negative"}

// ChartData returns the bar values in positive, neutral, negative order
func (b SentimentBreakdown) ChartData() []float64 {
	return []float64{b.Positive, b.Neutral, b.Negative}
}

func (b SentimentBreakdown) validate() error {
	for i, v := range b.ChartData() {
		if err := checkUnit("sentiment_breakdown."+strings.ToLower(ChartLabels[i]), v); err != nil {
			return err
		}
	}
	return nil
}

// Transcript is the full text of a video with a few counters
type Transcript struct {
	Text        string `json:"text"`
	WordCount   int    `json:"word_count,omitempty"`
	CharCount   int    `json:"char_count,omitempty"`
	ChunksCount int    `json:"chunks_count,omitempty"`
}

// Metrics is the analytics document for one video
type Metrics struct {
	VideoID            string             `json:"video_id,omitempty"`
	YouTubeID          string             `json:"youtube_id,omitempty"`
	Title              string             `json:"title"`
	Description        string             `json:"description,omitempty"`
	Uploader           string             `json:"uploader"`
	DurationSeconds    float64            `json:"duration_seconds"`
	ViewCount          int64              `json:"view_count"`
	LikeCount          int64              `json:"like_count"`
	Summary            string             `json:"summary"`
	Sentiment          Sentiment          `json:"sentiment"`
	SentimentBreakdown SentimentBreakdown `json:"sentiment_breakdown"`
	Transcript         Transcript         `json:"transcript"`
}

func (m Metrics) validate() error {
	if m.DurationSeconds < 0 {
		return fmt.Errorf("duration_seconds is negative: %v", m.DurationSeconds)
	}
	if m.ViewCount < 0 {
		return fmt.Errorf("view_count is negative: %d", m.ViewCount)
	}
	if m.LikeCount < 0 {
		return fmt.Errorf("like_count is negative: %d", m.LikeCount)
	}
	if err := m.Sentiment.validate(); err != nil {
		return err
	}
	return m.SentimentBreakdown.validate()
}

// ChatRequest is the body of POST /chat/{video_id}
type ChatRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// ChatAnswer is the backend's answer to a question
type ChatAnswer struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
}

func checkUnit(field string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s out of range [0,1]: %v", field, v)
	}
	return nil
}
