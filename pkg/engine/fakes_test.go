package engine

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quarrelhq/quarrel/pkg/chat"
)

// generatorFunc adapts a plain function to the Generator interface.
type generatorFunc func(ctx context.Context, role chat.Role, history []chat.Message) (io.ReadCloser, error)

func (f generatorFunc) Stream(ctx context.Context, role chat.Role, history []chat.Message) (io.ReadCloser, error) {
	return f(ctx, role, history)
}

// blockingStream yields queued chunks and then blocks like a live HTTP body:
// reads unblock on data, stream closure, or context cancellation.
type blockingStream struct {
	ctx    context.Context
	chunks chan []byte
}

func newBlockingStream(ctx context.Context) *blockingStream {
	return &blockingStream{ctx: ctx, chunks: make(chan []byte, 16)}
}

func (s *blockingStream) send(text string) {
	s.chunks <- []byte(text)
}

func (s *blockingStream) end() {
	close(s.chunks)
}

func (s *blockingStream) Read(p []byte) (int, error) {
	select {
	case b, ok := <-s.chunks:
		if !ok {
			return 0, io.EOF
		}
		return copy(p, b), nil
	case <-s.ctx.Done():
		return 0, s.ctx.Err()
	}
}

func (s *blockingStream) Close() error { return nil }

// scriptedGenerator completes every call instantly with text computed from
// the call number and role.
func scriptedGenerator(script func(call int, role chat.Role) string) Generator {
	call := 0
	return generatorFunc(func(ctx context.Context, role chat.Role, history []chat.Message) (io.ReadCloser, error) {
		call++
		return io.NopCloser(strings.NewReader(script(call, role))), nil
	})
}

// waitForEnded drains session events until the conversation ends.
func waitForEnded(t *testing.T, s *Session) ConversationEnded {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-s.Events():
			require.True(t, ok, "events channel closed before conversation ended")
			if ended, isEnd := e.(ConversationEnded); isEnd {
				return ended
			}
		case <-deadline:
			t.Fatal("timed out waiting for conversation to end")
		}
	}
}

// waitForState drains session events until the scheduler reaches want.
func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-s.Events():
			require.True(t, ok, "events channel closed while waiting for state %s", want)
			if sc, isState := e.(StateChanged); isState && sc.State == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

// waitForDelta drains session events until streamed text lands in some turn.
func waitForDelta(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-s.Events():
			require.True(t, ok, "events channel closed while waiting for a delta")
			if d, isDelta := e.(TurnDelta); isDelta && d.Text != "" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for a stream delta")
		}
	}
}
