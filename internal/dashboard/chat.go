package dashboard

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FallbackAnswer replaces the answer when a chat request fails
const FallbackAnswer = "Sorry, I couldn't answer that right now. Please try again."

// ChatState is the state of the chat flow
type ChatState int

const (
	ChatIdle ChatState = iota
	ChatAwaitingAnswer
)

func (s ChatState) String() string {
	switch s {
	case ChatAwaitingAnswer:
		return "awaiting answer"
	default:
		return "idle"
	}
}

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the chat transcript
type Message struct {
	// ID is a UUIDv7, so ids sort in creation order
	ID      uuid.UUID
	Role    Role
	Text    string
	VideoID string
	SentAt  time.Time
}

// ChatRequest identifies an outstanding question
type ChatRequest struct {
	ID       uuid.UUID
	VideoID  string
	Question string
}

// Chat is the question/answer state machine. At most one question is in
// flight, even across Reset; a question identical to the previous one is
// dropped.
type Chat struct {
	state        ChatState
	messages     []Message
	lastQuestion string
	pending      *ChatRequest
	// inFlight is the id of the request still on the wire, uuid.Nil when none
	inFlight uuid.UUID
}

// NewChat creates an idle chat with an empty transcript
func NewChat() *Chat {
	return &Chat{}
}

// State returns the current state
func (c *Chat) State() ChatState {
	return c.state
}

// Messages returns a copy of the transcript
func (c *Chat) Messages() []Message {
	return append([]Message(nil), c.messages...)
}

// Submit moves the chat to ChatAwaitingAnswer and appends the question to the
// transcript. The returned request must be resolved with Resolve.
func (c *Chat) Submit(videoID, question string) (ChatRequest, error) {
	if strings.TrimSpace(videoID) == "" {
		return ChatRequest{}, ErrNoVideo
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return ChatRequest{}, ErrEmptyQuestion
	}
	if c.state != ChatIdle || c.Busy() {
		return ChatRequest{}, ErrBusy
	}
	if question == c.lastQuestion {
		return ChatRequest{}, ErrDuplicateQuestion
	}

	msg := c.append(RoleUser, videoID, question)
	req := ChatRequest{ID: msg.ID, VideoID: videoID, Question: question}

	c.lastQuestion = question
	c.pending = &req
	c.inFlight = req.ID
	c.state = ChatAwaitingAnswer
	return req, nil
}

// Busy reports whether a request is still on the wire. After Reset the chat
// is idle but stays busy until the old request resolves.
func (c *Chat) Busy() bool {
	return c.inFlight != uuid.Nil
}

// Resolve records the answer to req, or FallbackAnswer if err is set, and
// returns the chat to ChatIdle. When req is no longer the pending request it
// only releases the in-flight slot and reports false.
func (c *Chat) Resolve(req ChatRequest, answer string, err error) (Message, bool) {
	if c.inFlight == req.ID {
		c.inFlight = uuid.Nil
	}
	if c.pending == nil || c.pending.ID != req.ID {
		return Message{}, false
	}

	text := answer
	if err != nil {
		text = FallbackAnswer
	}
	msg := c.append(RoleAssistant, req.VideoID, text)

	c.pending = nil
	c.state = ChatIdle
	return msg, true
}

// Reset clears the transcript and forgets any pending request. A request
// already sent keeps the chat busy until it is resolved.
func (c *Chat) Reset() {
	c.state = ChatIdle
	c.messages = nil
	c.lastQuestion = ""
	c.pending = nil
}

func (c *Chat) append(role Role, videoID, text string) Message {
	msg := Message{
		ID:      newMessageID(),
		Role:    role,
		Text:    text,
		VideoID: videoID,
		SentAt:  time.Now(),
	}
	c.messages = append(c.messages, msg)
	return msg
}

func newMessageID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
