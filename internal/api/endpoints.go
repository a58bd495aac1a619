package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ListVideos returns the videos the backend has already processed
func (c *Client) ListVideos(ctx context.Context) ([]VideoSummary, error) {
	var videos []VideoSummary
	if err := c.Get(ctx, "/videos", &videos); err != nil {
		return nil, err
	}
	for i, v := range videos {
		if err := v.validate(); err != nil {
			return nil, &DecodeError{Endpoint: "GET /videos", Err: fmt.Errorf("item %d: %w", i, err)}
		}
	}
	if videos == nil {
		videos = []VideoSummary{}
	}
	return videos, nil
}

// ProcessVideo submits a video URL and waits for processing to finish
func (c *Client) ProcessVideo(ctx context.Context, videoURL string) (*ProcessResult, error) {
	var result ProcessResult
	if err := c.Post(ctx, "/process-video", ProcessRequest{URL: videoURL}, &result); err != nil {
		return nil, err
	}
	if err := result.validate(); err != nil {
		return nil, &DecodeError{Endpoint: "POST /process-video", Err: err}
	}
	return &result, nil
}

// GetMetrics fetches the analytics document for a video
func (c *Client) GetMetrics(ctx context.Context, videoID string) (*Metrics, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, errors.New("video id is required")
	}

	path := videoPath("/metrics", videoID)
	var metrics Metrics
	if err := c.Get(ctx, path, &metrics); err != nil {
		return nil, err
	}
	if err := metrics.validate(); err != nil {
		return nil, &DecodeError{Endpoint: http.MethodGet + " " + path, Err: err}
	}
	return &metrics, nil
}

// Ask submits a question about a video and returns the answer
func (c *Client) Ask(ctx context.Context, videoID, question string, topK int) (*ChatAnswer, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, errors.New("video id is required")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	path := videoPath("/chat", videoID)
	var raw struct {
		Question string  `json:"question"`
		Answer   *string `json:"answer"`
	}
	if err := c.Post(ctx, path, ChatRequest{Question: question, TopK: topK}, &raw); err != nil {
		return nil, err
	}
	if raw.Answer == nil {
		return nil, &DecodeError{Endpoint: http.MethodPost + " " + path, Err: errors.New("answer is missing")}
	}
	return &ChatAnswer{Question: raw.Question, Answer: *raw.Answer}, nil
}
