package dashboard_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtzll/mediadash/internal/api"
	"github.com/rtzll/mediadash/internal/apitest"
	"github.com/rtzll/mediadash/internal/dashboard"
)

func newDashboard(t *testing.T, options ...dashboard.Option) (*dashboard.Dashboard, *apitest.Backend) {
	t.Helper()
	backend := apitest.New(t)
	backend.AddVideo(api.VideoSummary{VideoID: "abc123", Title: "Talk", Uploader: "Alice"}, apitest.SampleMetrics("Talk"))
	backend.AddVideo(api.VideoSummary{VideoID: "def456", Title: "Panel", Uploader: "Bob"}, apitest.SampleMetrics("Panel"))
	return dashboard.New(backend.Client(), options...), backend
}

func TestStartLoadsVideos(t *testing.T) {
	d, backend := newDashboard(t)
	d.Run(context.Background(), d.Start()...)

	require.Len(t, d.Videos(), 2)
	assert.Equal(t, "Talk (Alice)", d.Videos()[0].Label())
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/videos"))
}

func TestVideoListFailureKeepsPreviousList(t *testing.T) {
	d, backend := newDashboard(t)
	d.Run(context.Background(), d.LoadVideos())
	require.Len(t, d.Videos(), 2)

	backend.FailVideos(errors.New("database offline"))
	d.Run(context.Background(), d.LoadVideos())

	assert.Len(t, d.Videos(), 2)
	assert.Empty(t, d.TakeNotices())
}

func TestSelectLoadsMetricsOnce(t *testing.T) {
	d, backend := newDashboard(t)

	job := d.Select("abc123")
	require.NotNil(t, job)
	_, status := d.Metrics()
	assert.Equal(t, dashboard.MetricsLoading, status)

	d.Run(context.Background(), job)

	m, status := d.Metrics()
	assert.Equal(t, dashboard.MetricsLoaded, status)
	require.NotNil(t, m)
	assert.Equal(t, "Talk", m.Title)
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/metrics/abc123"))

	// selecting the same video again does not refetch
	assert.Nil(t, d.Select("abc123"))
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/metrics/abc123"))
}

func TestSelectEmptyClearsMetrics(t *testing.T) {
	d, backend := newDashboard(t)
	d.Run(context.Background(), d.Select("abc123"))
	before := len(backend.Requests())

	assert.Nil(t, d.Select(""))

	m, status := d.Metrics()
	assert.Nil(t, m)
	assert.Equal(t, dashboard.MetricsNone, status)
	assert.Equal(t, "", d.Selected())
	assert.Len(t, backend.Requests(), before)
}

func TestMetricsFailureStaysLoading(t *testing.T) {
	d, _ := newDashboard(t)
	d.Run(context.Background(), d.Select("missing"))

	m, status := d.Metrics()
	assert.Nil(t, m)
	assert.Equal(t, dashboard.MetricsLoading, status)
	assert.Error(t, d.MetricsErr())
	assert.Empty(t, d.TakeNotices())
}

func TestReselectRetriesFailedMetrics(t *testing.T) {
	d, backend := newDashboard(t)
	ctx := context.Background()

	d.Run(ctx, d.Select("late"))
	require.Error(t, d.MetricsErr())

	backend.AddVideo(api.VideoSummary{VideoID: "late", Title: "Late"}, apitest.SampleMetrics("Late"))
	job := d.Select("late")
	require.NotNil(t, job)
	d.Run(ctx, job)

	m, status := d.Metrics()
	assert.Equal(t, dashboard.MetricsLoaded, status)
	require.NotNil(t, m)
	assert.Equal(t, "Late", m.Title)
	assert.NoError(t, d.MetricsErr())
	assert.Equal(t, 2, backend.Count(http.MethodGet, "/metrics/late"))

	// loaded, so selecting it again is a no-op
	assert.Nil(t, d.Select("late"))
}

func TestStaleMetricsAreDiscarded(t *testing.T) {
	d, _ := newDashboard(t)
	ctx := context.Background()

	first := d.Select("abc123")
	second := d.Select("def456")

	// the newer response arrives first, the stale one last
	d.Apply(second.Run(ctx))
	d.Apply(first.Run(ctx))

	m, status := d.Metrics()
	assert.Equal(t, dashboard.MetricsLoaded, status)
	require.NotNil(t, m)
	assert.Equal(t, "Panel", m.Title)
}

func TestRefreshReloadsSelection(t *testing.T) {
	d, backend := newDashboard(t)
	assert.Nil(t, d.Refresh())

	d.Run(context.Background(), d.Select("abc123"))
	d.Run(context.Background(), d.Refresh())
	assert.Equal(t, 2, backend.Count(http.MethodGet, "/metrics/abc123"))
}

func TestProcessVideo(t *testing.T) {
	d, backend := newDashboard(t)
	backend.OnProcess(func(url string) (*api.ProcessResult, error) {
		backend.AddVideo(api.VideoSummary{VideoID: "v1", Title: "Test"}, apitest.SampleMetrics("Test"))
		return &api.ProcessResult{VideoID: "v1", Title: "Test"}, nil
	})

	job, err := d.Process("https://youtu.be/xyz")
	require.NoError(t, err)
	assert.True(t, d.Processing())

	d.Run(context.Background(), job)

	assert.False(t, d.Processing())
	assert.Equal(t, "v1", d.Selected())
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/videos"))
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/metrics/v1"))

	notices := d.TakeNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, dashboard.NoticeInfo, notices[0].Level)
	assert.Contains(t, notices[0].Text, "Test")
	assert.Empty(t, d.TakeNotices())
}

func TestProcessVideoWithoutTitle(t *testing.T) {
	d, backend := newDashboard(t)
	backend.OnProcess(func(url string) (*api.ProcessResult, error) {
		return &api.ProcessResult{VideoID: "v2"}, nil
	})

	job, err := d.Process("https://youtu.be/xyz")
	require.NoError(t, err)
	d.Run(context.Background(), job)

	notices := d.TakeNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, "Processed: v2", notices[0].Text)
}

func TestProcessVideoValidation(t *testing.T) {
	d, backend := newDashboard(t)

	_, err := d.Process("   ")
	assert.ErrorIs(t, err, dashboard.ErrEmptyURL)
	notices := d.TakeNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, "Paste a YouTube URL", notices[0].Text)

	_, err = d.Process("https://youtu.be/xyz")
	require.NoError(t, err)
	_, err = d.Process("https://youtu.be/other")
	assert.ErrorIs(t, err, dashboard.ErrBusy)

	assert.Empty(t, backend.Requests())
}

func TestProcessVideoFailure(t *testing.T) {
	d, backend := newDashboard(t)
	backend.OnProcess(func(url string) (*api.ProcessResult, error) {
		return nil, &apitest.HTTPError{Status: http.StatusBadRequest, Detail: "Transcript empty"}
	})

	job, err := d.Process("https://youtu.be/xyz")
	require.NoError(t, err)
	d.Run(context.Background(), job)

	assert.False(t, d.Processing())
	assert.Equal(t, "", d.Selected())
	notices := d.TakeNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, dashboard.NoticeError, notices[0].Level)
	assert.Equal(t, "Processing failed: Transcript empty", notices[0].Text)
	assert.Equal(t, 0, backend.Count(http.MethodGet, "/videos"))
}

func TestAskRequiresSelection(t *testing.T) {
	d, backend := newDashboard(t)

	_, err := d.Ask("what is it about?")
	assert.ErrorIs(t, err, dashboard.ErrNoVideo)
	notices := d.TakeNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, "Select a video first", notices[0].Text)
	assert.Empty(t, backend.Requests())
}

func TestAskEmptyQuestionSendsNothing(t *testing.T) {
	d, backend := newDashboard(t)
	d.Select("abc123")

	for _, q := range []string{"", " ", "\n\t"} {
		_, err := d.Ask(q)
		assert.ErrorIs(t, err, dashboard.ErrEmptyQuestion)
	}
	assert.Equal(t, 0, backend.Count(http.MethodPost, "/chat/abc123"))
}

func TestAskWhileAwaitingIsDropped(t *testing.T) {
	d, backend := newDashboard(t)
	d.Select("abc123")

	job, err := d.Ask("first question")
	require.NoError(t, err)
	_, err = d.Ask("second question")
	assert.ErrorIs(t, err, dashboard.ErrBusy)

	d.Run(context.Background(), job)
	assert.Equal(t, 1, backend.Count(http.MethodPost, "/chat/abc123"))
	assert.Len(t, d.Chat().Messages(), 2)
}

func TestAskSameQuestionTwice(t *testing.T) {
	d, backend := newDashboard(t)
	d.Select("abc123")
	ctx := context.Background()

	job, err := d.Ask("what is it about?")
	require.NoError(t, err)
	d.Run(ctx, job)

	_, err = d.Ask("what is it about? ")
	assert.ErrorIs(t, err, dashboard.ErrDuplicateQuestion)
	assert.Equal(t, 1, backend.Count(http.MethodPost, "/chat/abc123"))
}

func TestAskAppendsQuestionAndAnswer(t *testing.T) {
	d, backend := newDashboard(t, dashboard.WithTopK(6))
	var gotTopK int
	backend.OnAnswer(func(videoID, question string, topK int) (string, error) {
		gotTopK = topK
		return "It is a talk.", nil
	})
	d.Select("abc123")
	before := len(d.Chat().Messages())

	job, err := d.Ask("what is it about?")
	require.NoError(t, err)
	assert.Equal(t, dashboard.ChatAwaitingAnswer, d.Chat().State())
	d.Run(context.Background(), job)

	msgs := d.Chat().Messages()
	require.Len(t, msgs, before+2)
	assert.Equal(t, dashboard.RoleUser, msgs[before].Role)
	assert.Equal(t, "what is it about?", msgs[before].Text)
	assert.Equal(t, dashboard.RoleAssistant, msgs[before+1].Role)
	assert.Equal(t, "It is a talk.", msgs[before+1].Text)
	assert.Equal(t, dashboard.ChatIdle, d.Chat().State())
	assert.Equal(t, 6, gotTopK)
}

func TestAskFailureAppendsFallback(t *testing.T) {
	d, backend := newDashboard(t)
	backend.OnAnswer(func(videoID, question string, topK int) (string, error) {
		return "", &apitest.HTTPError{Status: http.StatusInternalServerError, Detail: "Retrieval/generation failed: index missing"}
	})
	d.Select("abc123")

	job, err := d.Ask("what is it about?")
	require.NoError(t, err)
	d.Run(context.Background(), job)

	msgs := d.Chat().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, dashboard.FallbackAnswer, msgs[1].Text)
	assert.Equal(t, dashboard.ChatIdle, d.Chat().State())
	assert.Empty(t, d.TakeNotices())
}

func TestChatScopeGlobalKeepsHistory(t *testing.T) {
	d, _ := newDashboard(t)
	ctx := context.Background()
	d.Select("abc123")

	job, err := d.Ask("question one")
	require.NoError(t, err)

	// the answer for the previous video still lands in the shared transcript
	d.Select("def456")
	d.Run(ctx, job)

	assert.Len(t, d.Chat().Messages(), 2)
	assert.Equal(t, dashboard.ChatIdle, d.Chat().State())
}

func TestChatScopeVideoResetsHistory(t *testing.T) {
	d, _ := newDashboard(t, dashboard.WithChatScope(dashboard.ChatScopeVideo))
	ctx := context.Background()
	d.Select("abc123")

	job, err := d.Ask("question one")
	require.NoError(t, err)

	d.Select("def456")
	d.Run(ctx, job)

	assert.Empty(t, d.Chat().Messages())
	assert.Equal(t, dashboard.ChatIdle, d.Chat().State())

	// the same question may be asked about the new video
	job, err = d.Ask("question one")
	require.NoError(t, err)
	d.Run(ctx, job)
	assert.Len(t, d.Chat().Messages(), 2)
}

func TestChatScopeVideoKeepsOneRequestInFlight(t *testing.T) {
	d, backend := newDashboard(t, dashboard.WithChatScope(dashboard.ChatScopeVideo))
	ctx := context.Background()
	d.Select("abc123")

	first, err := d.Ask("first?")
	require.NoError(t, err)

	d.Select("def456")
	_, err = d.Ask("second?")
	assert.ErrorIs(t, err, dashboard.ErrBusy)
	assert.Empty(t, d.Chat().Messages())

	// the late answer is discarded but frees the chat
	d.Run(ctx, first)
	assert.Empty(t, d.Chat().Messages())
	assert.Equal(t, 1, backend.Count(http.MethodPost, "/chat/abc123"))

	second, err := d.Ask("second?")
	require.NoError(t, err)
	d.Run(ctx, second)

	msgs := d.Chat().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "answer to: second?", msgs[1].Text)
	assert.Equal(t, 1, backend.Count(http.MethodPost, "/chat/def456"))
}

func TestParseChatScope(t *testing.T) {
	scope, err := dashboard.ParseChatScope("")
	require.NoError(t, err)
	assert.Equal(t, dashboard.ChatScopeGlobal, scope)

	scope, err = dashboard.ParseChatScope(" Video ")
	require.NoError(t, err)
	assert.Equal(t, dashboard.ChatScopeVideo, scope)

	_, err = dashboard.ParseChatScope("session")
	assert.Error(t, err)
}
