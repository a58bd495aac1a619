package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rtzll/mediadash/internal/api"
	"github.com/rtzll/mediadash/internal/dashboard"
)

// MCPServer wraps the MCP server and application dependencies
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App, version string) *MCPServer {
	mcpServer := server.NewMCPServer(
		"mediadash-server",
		version,
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools
func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_videos",
		mcp.WithDescription("List the videos the media monitoring backend has already processed, with their video_id. Use the video_id with get_video_metrics and ask_video."),
	), s.handleListVideos)

	s.mcpServer.AddTool(mcp.NewTool("get_video_metrics",
		mcp.WithDescription("Get the analytics of a processed video: title, uploader, duration, views, likes, summary, overall sentiment, sentiment breakdown and transcript."),
		mcp.WithString("video_id",
			mcp.Description("Backend video id as returned by list_videos or process_video"),
			mcp.Required(),
		),
		mcp.WithString("format",
			mcp.Description("markdown (default) or json"),
			mcp.Enum("markdown", "json"),
		),
	), s.handleGetMetrics)

	// slow: the backend downloads, transcribes and analyses the video
	s.mcpServer.AddTool(mcp.NewTool("process_video",
		mcp.WithDescription("Submit a YouTube URL or video ID for processing. This can take several minutes. Returns the new video_id."),
		mcp.WithString("url",
			mcp.Description("YouTube video URL or 11 character video ID"),
			mcp.Required(),
		),
	), s.handleProcessVideo)

	s.mcpServer.AddTool(mcp.NewTool("ask_video",
		mcp.WithDescription("Ask a question about a processed video. The backend answers from the video's transcript."),
		mcp.WithString("video_id",
			mcp.Description("Backend video id"),
			mcp.Required(),
		),
		mcp.WithString("question",
			mcp.Description("The question to ask"),
			mcp.Required(),
		),
	), s.handleAskVideo)
}

func (s *MCPServer) handleListVideos(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.app.logger.Info("mcp tool called", "tool", "list_videos")

	videos, err := s.app.client.ListVideos(ctx)
	if err != nil {
		s.app.logger.Error("mcp list_videos failed", "error", err)
		return mcp.NewToolResultErrorFromErr("listing videos failed", err), nil
	}

	if len(videos) == 0 {
		return mcp.NewToolResultText("No videos have been processed yet."), nil
	}

	var buf strings.Builder
	for _, v := range videos {
		buf.WriteString(fmt.Sprintf("video_id: %s\n", v.VideoID))
		buf.WriteString(fmt.Sprintf("Title: %s\n", v.Label()))
		if v.YouTubeID != "" {
			buf.WriteString(fmt.Sprintf("YouTube: https://www.youtube.com/watch?v=%s\n", v.YouTubeID))
		}
		buf.WriteString("\n")
	}

	return mcp.NewToolResultText(strings.TrimSuffix(buf.String(), "\n")), nil
}

func (s *MCPServer) handleGetMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := request.RequireString("video_id")
	if err != nil || strings.TrimSpace(videoID) == "" {
		return mcp.NewToolResultError("video_id parameter is required and must be a string"), nil
	}
	format := request.GetString("format", "markdown")
	s.app.logger.Info("mcp tool called", "tool", "get_video_metrics", "video_id", videoID, "format", format)

	m, err := s.app.client.GetMetrics(ctx, videoID)
	if err != nil {
		s.app.logger.Error("mcp get_video_metrics failed", "video_id", videoID, "error", err)
		return mcp.NewToolResultError("metrics error: " + api.UserMessage(err)), nil
	}

	if format == "json" {
		data, err := json.Marshal(m)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("encoding metrics", err), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
	return mcp.NewToolResultText(MetricsMarkdown(m, 0)), nil
}

func (s *MCPServer) handleProcessVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arg, err := request.RequireString("url")
	if err != nil || strings.TrimSpace(arg) == "" {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}
	videoURL, _ := ParseArg(arg)
	s.app.logger.Info("mcp tool called", "tool", "process_video", "url", videoURL)

	result, err := s.app.client.ProcessVideo(ctx, videoURL)
	if err != nil {
		s.app.logger.Error("mcp process_video failed", "url", videoURL, "error", err)
		return mcp.NewToolResultError("processing failed: " + api.UserMessage(err)), nil
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("Processed: %s\n", result.DisplayName()))
	buf.WriteString(fmt.Sprintf("video_id: %s\n", result.VideoID))
	if result.Sentiment != nil {
		buf.WriteString(fmt.Sprintf("Sentiment: %s\n", SentimentText(*result.Sentiment)))
	}
	if result.Summary != "" {
		buf.WriteString(fmt.Sprintf("Summary: %s\n", result.Summary))
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *MCPServer) handleAskVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoID, err := request.RequireString("video_id")
	if err != nil || strings.TrimSpace(videoID) == "" {
		return mcp.NewToolResultError("video_id parameter is required and must be a string"), nil
	}
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question parameter is required and must be a non-empty string"), nil
	}
	s.app.logger.Info("mcp tool called", "tool", "ask_video", "video_id", videoID)

	answer, err := s.app.client.Ask(ctx, videoID, strings.TrimSpace(question), s.app.config.TopK)
	if err != nil {
		s.app.logger.Error("mcp ask_video failed", "video_id", videoID, "error", err)
		return mcp.NewToolResultError(dashboard.FallbackAnswer + " (" + api.UserMessage(err) + ")"), nil
	}
	return mcp.NewToolResultText(answer.Answer), nil
}

// Start starts the MCP server using the specified transport
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	s.app.logger.Info("mcp server starting", "transport", transport, "port", port, "api_base", s.app.client.BaseURL())

	if transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		addr := fmt.Sprintf(":%d", port)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.Start(addr) }()
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return httpServer.Shutdown(context.Background())
		}
	}

	// Default to stdio transport
	return server.ServeStdio(s.mcpServer)
}

// GetServer returns the underlying MCP server so callers can serve it over their own transport
func (s *MCPServer) GetServer() *server.MCPServer {
	return s.mcpServer
}
