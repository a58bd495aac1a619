package dashboard

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSubmitGuards(t *testing.T) {
	tests := []struct {
		name     string
		videoID  string
		question string
		want     error
	}{
		{name: "no video", videoID: "", question: "why?", want: ErrNoVideo},
		{name: "empty question", videoID: "v1", question: "", want: ErrEmptyQuestion},
		{name: "whitespace question", videoID: "v1", question: " \t\n ", want: ErrEmptyQuestion},
		{name: "valid", videoID: "v1", question: "  why?  ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChat()
			req, err := c.Submit(tt.videoID, tt.question)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.Equal(t, ChatIdle, c.State())
				assert.Empty(t, c.Messages())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "why?", req.Question)
			assert.Equal(t, ChatAwaitingAnswer, c.State())
		})
	}
}

func TestChatOneRequestAtATime(t *testing.T) {
	c := NewChat()
	first, err := c.Submit("v1", "first")
	require.NoError(t, err)

	_, err = c.Submit("v1", "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Len(t, c.Messages(), 1)

	_, ok := c.Resolve(first, "answer", nil)
	require.True(t, ok)

	_, err = c.Submit("v1", "second")
	assert.NoError(t, err)
}

func TestChatDuplicateQuestion(t *testing.T) {
	c := NewChat()
	req, err := c.Submit("v1", "what happened?")
	require.NoError(t, err)
	c.Resolve(req, "things", nil)

	_, err = c.Submit("v1", "  what happened?  ")
	assert.ErrorIs(t, err, ErrDuplicateQuestion)

	// only the most recent question is compared
	req, err = c.Submit("v1", "who?")
	require.NoError(t, err)
	c.Resolve(req, "someone", nil)

	_, err = c.Submit("v1", "what happened?")
	assert.NoError(t, err)
}

func TestChatResolveOrder(t *testing.T) {
	c := NewChat()
	req, err := c.Submit("v1", "question")
	require.NoError(t, err)

	msg, ok := c.Resolve(req, "answer", nil)
	require.True(t, ok)
	assert.Equal(t, RoleAssistant, msg.Role)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "question", msgs[0].Text)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, "answer", msgs[1].Text)
	assert.Equal(t, uuid.Version(7), msgs[0].ID.Version())
	assert.Negative(t, bytes.Compare(msgs[0].ID[:], msgs[1].ID[:]))
}

func TestChatResolveFailureUsesFallback(t *testing.T) {
	c := NewChat()
	req, err := c.Submit("v1", "question")
	require.NoError(t, err)

	msg, ok := c.Resolve(req, "", errors.New("connection refused"))
	require.True(t, ok)
	assert.Equal(t, FallbackAnswer, msg.Text)
	assert.NotContains(t, msg.Text, "connection refused")
	assert.Equal(t, ChatIdle, c.State())
}

func TestChatResolveStale(t *testing.T) {
	c := NewChat()
	req, err := c.Submit("v1", "question")
	require.NoError(t, err)

	c.Reset()
	_, ok := c.Resolve(req, "late answer", nil)
	assert.False(t, ok)
	assert.Empty(t, c.Messages())
	assert.Equal(t, ChatIdle, c.State())
}

func TestChatResetKeepsRequestInFlight(t *testing.T) {
	c := NewChat()
	req, err := c.Submit("v1", "question")
	require.NoError(t, err)

	c.Reset()
	assert.Equal(t, ChatIdle, c.State())
	assert.True(t, c.Busy())

	_, err = c.Submit("v2", "another question")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Empty(t, c.Messages())

	_, ok := c.Resolve(req, "late answer", nil)
	assert.False(t, ok)
	assert.False(t, c.Busy())

	_, err = c.Submit("v2", "another question")
	assert.NoError(t, err)
}
