package deepgram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicedesk-server/internal/observability"
)

func newTestStream() *Stream {
	return &Stream{
		results: make(chan Transcript, 32),
		errs:    make(chan error, 1),
		logger:  observability.NewLogger(),
	}
}

func TestPublishDeliversTranscript(t *testing.T) {
	s := newTestStream()

	s.publish("hello there", true)

	got := <-s.Results()
	assert.Equal(t, Transcript{Text: "hello there", IsFinal: true}, got)
}

func TestCloseClosesResultsChannel(t *testing.T) {
	s := newTestStream()
	s.publish("partial", false)

	s.Close()

	// The buffered transcript drains, then the channel reports closed so a
	// consumer ranging over Results terminates.
	got, ok := <-s.Results()
	require.True(t, ok)
	assert.Equal(t, "partial", got.Text)

	_, ok = <-s.Results()
	assert.False(t, ok)
}

func TestPublishAfterCloseIsDiscarded(t *testing.T) {
	s := newTestStream()
	s.Close()

	// A callback racing past Close must not panic on the closed channel.
	s.publish("late hypothesis", true)

	_, ok := <-s.Results()
	assert.False(t, ok)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := newTestStream()
	s.Close()
	s.Close()

	_, ok := <-s.Results()
	assert.False(t, ok)
}
