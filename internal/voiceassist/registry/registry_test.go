package registry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConversation struct {
	stopped int
}

func (s *stubConversation) Stop(_ context.Context) { s.stopped++ }

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	conv := &stubConversation{}
	key := Key{UserID: "visitor-1", TenantID: uuid.New(), ConnectionID: "conn-1"}

	r.Register(key, conv)

	got, ok := r.Lookup("conn-1")
	require.True(t, ok)
	assert.Same(t, conv, got.(*stubConversation))
	assert.Equal(t, 1, r.Len())
}

func TestLookupUnknownConnection(t *testing.T) {
	r := New()
	_, ok := r.Lookup("nope")
	assert.False(t, ok)
}

func TestDeregisterIsIdempotent(t *testing.T) {
	r := New()
	key := Key{ConnectionID: "conn-1"}
	r.Register(key, &stubConversation{})

	r.Deregister("conn-1")
	r.Deregister("conn-1")

	_, ok := r.Lookup("conn-1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegisterReplacesExisting(t *testing.T) {
	r := New()
	first := &stubConversation{}
	second := &stubConversation{}
	key := Key{ConnectionID: "conn-1"}

	r.Register(key, first)
	r.Register(key, second)

	got, ok := r.Lookup("conn-1")
	require.True(t, ok)
	assert.Same(t, second, got.(*stubConversation))
	assert.Equal(t, 1, r.Len())
}

func TestStopAll(t *testing.T) {
	r := New()
	a := &stubConversation{}
	b := &stubConversation{}
	r.Register(Key{ConnectionID: "a"}, a)
	r.Register(Key{ConnectionID: "b"}, b)

	r.StopAll(context.Background())

	assert.Equal(t, 1, a.stopped)
	assert.Equal(t, 1, b.stopped)
}
