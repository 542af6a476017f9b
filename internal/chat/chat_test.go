package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/shopassist/internal/api"
)

type scriptedResponder struct {
	replies []string
	errs    []error
	queries []string
}

func (s *scriptedResponder) Reply(_ context.Context, query string) (string, error) {
	s.queries = append(s.queries, query)
	i := len(s.queries) - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return s.replies[i], nil
}

func TestAskAppendsTranscript(t *testing.T) {
	r := &scriptedResponder{replies: []string{"We open at 9."}}
	convs := NewConversations(r, 10, time.Hour, nil)

	msg, err := convs.Ask(context.Background(), "conv_1", "  opening hours? ")
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Equal(t, "We open at 9.", msg.Text)
	assert.Equal(t, []string{"opening hours?"}, r.queries)

	transcript := convs.Transcript("conv_1")
	require.Len(t, transcript, 3)
	assert.Equal(t, Greeting, transcript[0].Text)
	assert.Equal(t, RoleUser, transcript[1].Role)
	assert.Equal(t, RoleAssistant, transcript[2].Role)
	assert.False(t, convs.CanRetry("conv_1"))
}

func TestAskRejectsEmptyMessage(t *testing.T) {
	r := &scriptedResponder{}
	convs := NewConversations(r, 10, time.Hour, nil)

	_, err := convs.Ask(context.Background(), "conv_1", "   ")
	assert.Equal(t, api.KindValidation, api.KindOf(err))
	assert.Empty(t, r.queries)
}

func TestRetryResendsLastQuery(t *testing.T) {
	r := &scriptedResponder{
		replies: []string{"", "Here you go."},
		errs:    []error{errors.New("timeout")},
	}
	convs := NewConversations(r, 10, time.Hour, nil)
	ctx := context.Background()

	msg, err := convs.Ask(ctx, "conv_1", "track my order")
	require.Error(t, err)
	assert.Equal(t, RoleError, msg.Role)
	assert.True(t, convs.CanRetry("conv_1"))

	msg, err = convs.Retry(ctx, "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "Here you go.", msg.Text)
	assert.Equal(t, []string{"track my order", "track my order"}, r.queries)

	transcript := convs.Transcript("conv_1")
	require.Len(t, transcript, 3)
	assert.Equal(t, RoleUser, transcript[1].Role)
	assert.Equal(t, RoleAssistant, transcript[2].Role)
}

func TestRetryWithoutHistory(t *testing.T) {
	convs := NewConversations(&scriptedResponder{}, 10, time.Hour, nil)
	_, err := convs.Retry(context.Background(), "conv_new")
	assert.ErrorIs(t, err, ErrNothingToRetry)
}

func TestConversationsAreIsolated(t *testing.T) {
	r := &scriptedResponder{replies: []string{"a", "b"}}
	convs := NewConversations(r, 10, time.Hour, nil)
	ctx := context.Background()

	_, err := convs.Ask(ctx, "conv_1", "first")
	require.NoError(t, err)
	_, err = convs.Ask(ctx, "conv_2", "second")
	require.NoError(t, err)

	assert.Len(t, convs.Transcript("conv_1"), 3)
	assert.Len(t, convs.Transcript("conv_2"), 3)

	convs.Forget("conv_1")
	assert.Len(t, convs.Transcript("conv_1"), 1)
}

// stalledResponder never answers on its own; it returns once ctx ends.
type stalledResponder struct{}

func (stalledResponder) Reply(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAskGivesUpAfterReplyTimeout(t *testing.T) {
	convs := NewConversations(stalledResponder{}, 10, time.Hour, nil, WithReplyTimeout(20*time.Millisecond))

	start := time.Now()
	msg, err := convs.Ask(context.Background(), "conv_1", "anyone there?")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, RoleError, msg.Role)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, convs.CanRetry("conv_1"))
}

func TestWithReplyTimeoutIgnoresZero(t *testing.T) {
	convs := NewConversations(stalledResponder{}, 10, time.Hour, nil, WithReplyTimeout(0))
	assert.Equal(t, DefaultReplyTimeout, convs.timeout)
}
