package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rtzll/mediadash/internal/api"
	"github.com/rtzll/mediadash/internal/dashboard"
)

// App holds the application state and dependencies
type App struct {
	client *api.Client
	config *Config
	ui     UIManager
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
}

// NewApp initializes the application
func NewApp(config *Config, options ...AppOption) *App {
	app := &App{
		client: api.NewClient(config.APIBase, api.WithTimeout(config.Timeout)),
		config: config,
		ui:     NewUIManager(config.Verbose, config.Quiet),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		in:     os.Stdin,
		out:    os.Stdout,
	}

	// Apply any custom options
	for _, option := range options {
		option(app)
	}

	return app
}

// AppOption customizes App creation
type AppOption func(*App)

// WithClient sets a custom API client
func WithClient(client *api.Client) AppOption {
	return func(a *App) {
		a.client = client
	}
}

// WithUI sets a custom UI manager
func WithUI(ui UIManager) AppOption {
	return func(a *App) {
		a.ui = ui
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithIO replaces stdin and stdout, used by the chat REPL and tests
func WithIO(in io.Reader, out io.Writer) AppOption {
	return func(a *App) {
		a.in = in
		a.out = out
	}
}

// Client returns the API client
func (app *App) Client() *api.Client {
	return app.client
}

// Config returns the loaded configuration
func (app *App) Config() *Config {
	return app.config
}

// Logger returns the structured logger
func (app *App) Logger() *slog.Logger {
	return app.logger
}

// NewDashboard creates a dashboard bound to the API client and configuration
func (app *App) NewDashboard() *dashboard.Dashboard {
	return dashboard.New(app.client,
		dashboard.WithLogger(app.logger),
		dashboard.WithTopK(app.config.TopK),
		dashboard.WithChatScope(app.config.ChatScope),
	)
}

// ListVideos returns the processed videos
func (app *App) ListVideos(ctx context.Context) ([]api.VideoSummary, error) {
	videos, err := app.client.ListVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %s", api.UserMessage(err))
	}
	return videos, nil
}

// PrintVideos writes the video list, one video per line or as JSON
func (app *App) PrintVideos(videos []api.VideoSummary, asJSON bool) error {
	if asJSON {
		return app.writeJSON(videos, true)
	}
	if len(videos) == 0 {
		app.ui.Println("No videos processed yet. Run `mediadash process <url>` to add one.")
		return nil
	}
	for _, v := range videos {
		fmt.Fprintf(app.out, "%s\t%s\n", v.VideoID, v.Label())
	}
	return nil
}

// ProcessVideo submits a video URL or bare YouTube ID and selects the
// result, loading its metrics. The returned dashboard holds the new state.
func (app *App) ProcessVideo(ctx context.Context, arg string) (*dashboard.Dashboard, error) {
	videoURL, youtubeID := ParseArg(arg)
	if youtubeID == "" && videoURL != "" {
		app.ui.Verbose("Could not extract a YouTube ID from %s, submitting as is\n", videoURL)
	}

	d := app.NewDashboard()
	job, err := d.Process(videoURL)
	if err != nil {
		d.TakeNotices()
		return nil, err
	}

	spinner := app.ui.NewSpinner("Processing video (this can take a few minutes)...")
	followUps := d.Apply(job.Run(ctx))
	if len(followUps) > 0 {
		spinner.Describe("Loading metrics...")
	}
	d.Run(ctx, followUps...)
	spinner.Finish()

	if err := app.noticeError(d); err != nil {
		return nil, err
	}
	if _, status := d.Metrics(); status != dashboard.MetricsLoaded && d.MetricsErr() != nil {
		app.ui.Warnf("metrics not available yet: %s", api.UserMessage(d.MetricsErr()))
	}
	return d, nil
}

// FetchMetrics loads the metrics document of a video through the dashboard
func (app *App) FetchMetrics(ctx context.Context, videoID string) (*api.Metrics, error) {
	d := app.NewDashboard()
	d.Run(ctx, d.Select(videoID))

	m, status := d.Metrics()
	switch {
	case status == dashboard.MetricsLoaded:
		return m, nil
	case d.MetricsErr() != nil:
		return nil, fmt.Errorf("loading metrics: %s", api.UserMessage(d.MetricsErr()))
	default:
		return nil, errors.New("video id is required")
	}
}

// MetricsOutput selects how metrics are written
type MetricsOutput struct {
	JSON   bool
	Pretty bool
	// Raw writes markdown without terminal styling
	Raw bool
}

// WriteMetrics writes a metrics document to w
func (app *App) WriteMetrics(w io.Writer, m *api.Metrics, opts MetricsOutput) error {
	if opts.JSON {
		enc := json.NewEncoder(w)
		if opts.Pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encoding metrics: %w", err)
		}
		return nil
	}

	content := MetricsMarkdown(m, 0)
	if opts.Raw {
		_, err := io.WriteString(w, content)
		return err
	}
	rendered, err := RenderMarkdown(content)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// ShowMetrics renders the metrics of a loaded dashboard to stdout
func (app *App) ShowMetrics(d *dashboard.Dashboard) error {
	m, status := d.Metrics()
	if status != dashboard.MetricsLoaded {
		return errors.New("metrics are not loaded")
	}
	return app.WriteMetrics(app.out, m, MetricsOutput{})
}

// Ask sends a single question about a video and returns the answer text.
// A failed request yields the fallback answer, as in the dashboard chat.
func (app *App) Ask(ctx context.Context, videoID, question string) (string, error) {
	d := app.NewDashboard()
	d.Select(videoID)
	job, err := d.Ask(question)
	if err != nil {
		return "", err
	}
	d.Run(ctx, job)

	msgs := d.Chat().Messages()
	return msgs[len(msgs)-1].Text, nil
}

// Chat runs a question/answer loop on stdin until EOF or "exit"
func (app *App) Chat(ctx context.Context, videoID string) error {
	d := app.NewDashboard()
	d.Select(videoID)

	scanner := bufio.NewScanner(app.in)
	app.ui.Printf("Chatting about %s. Type a question, or \"exit\" to quit.\n", videoID)
	for {
		fmt.Fprint(app.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(app.out)
			break
		}
		question := scanner.Text()
		if strings.EqualFold(strings.TrimSpace(question), "exit") {
			break
		}

		job, err := d.Ask(question)
		switch {
		case errors.Is(err, dashboard.ErrEmptyQuestion):
			continue
		case errors.Is(err, dashboard.ErrDuplicateQuestion):
			app.ui.Println("(you just asked that)")
			continue
		case err != nil:
			return err
		}

		spinner := app.ui.NewSpinner("Thinking...")
		d.Run(ctx, job)
		spinner.Finish()

		msgs := d.Chat().Messages()
		fmt.Fprintf(app.out, "%s\n\n", msgs[len(msgs)-1].Text)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// Transcript returns the transcript text of a video
func (app *App) Transcript(ctx context.Context, videoID string) (string, error) {
	m, err := app.FetchMetrics(ctx, videoID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(m.Transcript.Text) == "" {
		return "", fmt.Errorf("no transcript available for %s", videoID)
	}
	return m.Transcript.Text, nil
}

// noticeError turns the dashboard's notices into output: info notices are
// printed, a failure is returned as an error
func (app *App) noticeError(d *dashboard.Dashboard) error {
	var errs []error
	for _, n := range d.TakeNotices() {
		switch n.Level {
		case dashboard.NoticeError:
			errs = append(errs, errors.New(n.Text))
		case dashboard.NoticeWarning:
			app.ui.Warnf("%s", n.Text)
		default:
			app.ui.Println(n.Text)
		}
	}
	return errors.Join(errs...)
}

func (app *App) writeJSON(v any, pretty bool) error {
	enc := json.NewEncoder(app.out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
