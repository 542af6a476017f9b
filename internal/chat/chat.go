// Package chat relays visitor messages from the site widget to an AI
// assistant backend and keeps each conversation's transcript.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vbonduro/shopassist/internal/api"
)

// Greeting opens every new conversation.
const Greeting = "Hi! I'm your shopping assistant. Ask me about products, orders or store hours."

const maxQueryLength = 2000

// DefaultReplyTimeout bounds one responder call unless WithReplyTimeout says
// otherwise.
const DefaultReplyTimeout = 30 * time.Second

// SystemPrompt frames the assistant for retail visitors. Backends that take
// a system prompt send it with every query.
const SystemPrompt = `You are the shopping assistant on a retail store's website.
Answer questions about products, orders, returns and store hours briefly and
politely. If you do not know something, say so and suggest booking a demo or
contacting the store.`

// Responder answers a single visitor query.
type Responder interface {
	Reply(ctx context.Context, query string) (string, error)
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

type Message struct {
	Role Role
	Text string
	At   time.Time
}

var ErrNothingToRetry = errors.New("no previous message to retry")

type conversation struct {
	mu        sync.Mutex
	messages  []Message
	lastQuery string
}

// Conversations keeps recent transcripts in memory, keyed by conversation
// id. Idle conversations expire.
type Conversations struct {
	responder Responder
	logger    *slog.Logger
	now       func() time.Time
	timeout   time.Duration

	mu    sync.Mutex
	cache *expirable.LRU[string, *conversation]
}

type Option func(*Conversations)

// WithReplyTimeout caps how long one reply may take. Zero or less keeps
// DefaultReplyTimeout.
func WithReplyTimeout(d time.Duration) Option {
	return func(c *Conversations) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewConversations(responder Responder, size int, ttl time.Duration, logger *slog.Logger, opts ...Option) *Conversations {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Conversations{
		responder: responder,
		logger:    logger,
		now:       time.Now,
		timeout:   DefaultReplyTimeout,
		cache:     expirable.NewLRU[string, *conversation](size, nil, ttl),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask appends query to the conversation and waits for the reply. A failed
// reply is recorded in the transcript and can be retried.
func (c *Conversations) Ask(ctx context.Context, convID, query string) (Message, error) {
	query = strings.TrimSpace(query)
	if err := validation.Validate(query,
		validation.Required.Error("type a message first"),
		validation.RuneLength(1, maxQueryLength),
	); err != nil {
		return Message{}, api.Invalid(err)
	}

	conv := c.get(convID)
	conv.mu.Lock()
	conv.lastQuery = query
	conv.messages = append(conv.messages, Message{Role: RoleUser, Text: query, At: c.now()})
	conv.mu.Unlock()

	return c.reply(ctx, conv, query)
}

// Retry re-sends the last query of the conversation.
func (c *Conversations) Retry(ctx context.Context, convID string) (Message, error) {
	conv := c.get(convID)
	conv.mu.Lock()
	query := conv.lastQuery
	if n := len(conv.messages); n > 0 && conv.messages[n-1].Role == RoleError {
		conv.messages = conv.messages[:n-1]
	}
	conv.mu.Unlock()

	if query == "" {
		return Message{}, ErrNothingToRetry
	}
	return c.reply(ctx, conv, query)
}

// Transcript returns the conversation so far, starting with the greeting.
func (c *Conversations) Transcript(convID string) []Message {
	conv := c.get(convID)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return append([]Message(nil), conv.messages...)
}

// CanRetry reports whether the last exchange failed.
func (c *Conversations) CanRetry(convID string) bool {
	conv := c.get(convID)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	n := len(conv.messages)
	return n > 0 && conv.messages[n-1].Role == RoleError
}

func (c *Conversations) Forget(convID string) {
	c.cache.Remove(convID)
}

func (c *Conversations) reply(ctx context.Context, conv *conversation, query string) (Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.now()
	text, err := c.responder.Reply(ctx, query)
	if err != nil {
		c.logger.Warn("chat reply failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		msg := Message{Role: RoleError, Text: "Sorry, I couldn't reach the assistant. Please try again.", At: c.now()}
		conv.mu.Lock()
		conv.messages = append(conv.messages, msg)
		conv.mu.Unlock()
		return msg, err
	}

	msg := Message{Role: RoleAssistant, Text: text, At: c.now()}
	conv.mu.Lock()
	conv.messages = append(conv.messages, msg)
	conv.mu.Unlock()
	return msg, nil
}

func (c *Conversations) get(convID string) *conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conv, ok := c.cache.Get(convID); ok {
		return conv
	}
	conv := &conversation{messages: []Message{{Role: RoleAssistant, Text: Greeting, At: c.now()}}}
	c.cache.Add(convID, conv)
	return conv
}
