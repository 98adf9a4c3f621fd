package handshake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageTerminal(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		terminal bool
	}{
		{"success", Success("abc"), true},
		{"error", Failure("denied"), true},
		{"unknown type", Message{Type: "ping"}, false},
		{"empty", Message{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.msg.Terminal())
		})
	}
}

func TestListenerDeliversTrustedMessage(t *testing.T) {
	l := NewListener("http://localhost:8080")
	defer l.Close()

	accepted := l.Deliver("http://localhost:8080", Success("auth-code-1"))
	require.True(t, accepted)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, err := l.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, TypeSuccess, msg.Type)
	assert.Equal(t, "auth-code-1", msg.Code)
}

func TestListenerDropsUntrustedOrigin(t *testing.T) {
	l := NewListener("http://localhost:8080")
	defer l.Close()

	accepted := l.Deliver("http://evil.example.com", Success("stolen"))
	assert.False(t, accepted)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestListenerDropsNonTerminalMessage(t *testing.T) {
	l := NewListener("http://localhost:8080")
	defer l.Close()

	accepted := l.Deliver("http://localhost:8080", Message{Type: "progress"})
	assert.False(t, accepted)
}

func TestListenerAcceptsOnlyFirstMessage(t *testing.T) {
	l := NewListener("http://localhost:8080")
	defer l.Close()

	require.True(t, l.Deliver("http://localhost:8080", Success("first")))
	assert.False(t, l.Deliver("http://localhost:8080", Success("second")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, err := l.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", msg.Code)
}

func TestListenerCloseUnblocksWait(t *testing.T) {
	l := NewListener("http://localhost:8080")

	done := make(chan error, 1)
	go func() {
		_, err := l.Wait(context.Background())
		done <- err
	}()

	l.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrListenerClosed)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Close")
	}
}

func TestListenerCloseIsIdempotent(t *testing.T) {
	l := NewListener("http://localhost:8080")
	l.Close()
	l.Close()

	assert.False(t, l.Deliver("http://localhost:8080", Success("late")))
}

func TestListenerFuncPredicate(t *testing.T) {
	l := NewListenerFunc(func(origin string) bool {
		return origin == "app://local" || origin == "http://127.0.0.1:8080"
	})
	defer l.Close()

	assert.False(t, l.Deliver("http://localhost:9999", Failure("nope")))
	assert.True(t, l.Deliver("app://local", Failure("denied by user")))
}
