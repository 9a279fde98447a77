package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/quarrelhq/quarrel/pkg/chat"
)

// Ingester performs exactly one generation call at a time and materializes
// its streamed result into the conversation log: placeholder append, zero or
// more content appends, at most one terminal stamp.
type Ingester struct {
	gen    Generator
	log    *chat.Log
	logger *zap.Logger
	notify func(Event)

	mu       sync.Mutex
	inFlight bool
	cancel   context.CancelFunc
}

// NewIngester creates an ingester writing into log. notify may be nil.
func NewIngester(gen Generator, log *chat.Log, logger *zap.Logger, notify func(Event)) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notify == nil {
		notify = func(Event) {}
	}
	return &Ingester{gen: gen, log: log, logger: logger, notify: notify}
}

// Ingest generates one turn for role and blocks until the turn settles.
//
// A call while another is in flight returns ErrBusy without touching the log.
// Transport failures and empty completions stamp a terminal error turn and
// return the cause. Cancellation returns context.Canceled, keeps the partial
// content and writes no stamp.
func (ing *Ingester) Ingest(ctx context.Context, role chat.Role) error {
	ing.mu.Lock()
	if ing.inFlight {
		ing.mu.Unlock()
		ing.logger.Warn("dropping overlapping generation call", zap.String("role", string(role)))
		return ErrBusy
	}
	ing.inFlight = true
	cctx, cancel := context.WithCancel(ctx)
	ing.cancel = cancel
	ing.mu.Unlock()

	defer func() {
		cancel()
		ing.mu.Lock()
		ing.inFlight = false
		ing.cancel = nil
		ing.mu.Unlock()
	}()

	// History is captured before the placeholder goes in: the turn being
	// generated is never part of its own prompt.
	history := ing.log.Messages()

	ing.log.Append(chat.Turn{Role: role})
	index := ing.log.Len() - 1
	ing.notify(TurnOpened{Index: index, Role: role})

	ing.logger.Debug("opening generation stream",
		zap.String("role", string(role)),
		zap.Int("history_len", len(history)),
	)

	body, err := ing.gen.Stream(cctx, role, history)
	if err != nil {
		if cctx.Err() != nil {
			return context.Canceled
		}
		ing.stampCrash(index, err)
		return err
	}
	defer body.Close()

	return ing.consume(cctx, body, index)
}

// Cancel aborts the in-flight stream read, if any. Safe to call at any time,
// including after the call has already completed.
func (ing *Ingester) Cancel() {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	if ing.cancel != nil {
		ing.cancel()
	}
}

// consume drains the stream body into the turn at index.
func (ing *Ingester) consume(ctx context.Context, body io.Reader, index int) error {
	var (
		joiner  utf8Joiner
		written int
		buf     = make([]byte, 4096)
	)

	appendText := func(text string) {
		if text == "" {
			return
		}
		written += len(text)
		if err := ing.log.UpdateLast(func(t *chat.Turn) { t.Content += text }); err != nil {
			ing.logger.Error("appending stream increment", zap.Error(err))
			return
		}
		ing.notify(TurnDelta{Index: index, Text: text})
	}

	for {
		n, err := body.Read(buf)
		if n > 0 {
			appendText(joiner.next(buf[:n]))
		}
		if err == io.EOF {
			appendText(joiner.flush())
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				// User-initiated abort: keep partial content, no stamp.
				ing.logger.Debug("stream cancelled", zap.Int("bytes", written))
				return context.Canceled
			}
			ing.stampCrash(index, err)
			return err
		}
	}

	// A stream that closes cleanly with nothing to show is an upstream
	// refusal, not a connectivity failure.
	if last := ing.log.Last(); last != nil && strings.TrimSpace(last.Content) == "" && !last.IsError {
		ing.stampRejection(index)
		return nil
	}

	ing.logger.Debug("stream complete", zap.Int("bytes", written))
	return nil
}

func (ing *Ingester) stampCrash(index int, cause error) {
	ing.logger.Error("generation stream failed", zap.Error(cause))
	if err := ing.log.UpdateLast(func(t *chat.Turn) {
		t.Content += fmt.Sprintf(crashNoticeFmt, cause.Error())
		t.IsError = true
	}); err != nil {
		ing.logger.Error("stamping crash turn", zap.Error(err))
		return
	}
	ing.notify(TurnDelta{Index: index, Text: ""})
}

func (ing *Ingester) stampRejection(index int) {
	ing.logger.Warn("stream completed with no content, stamping rejection")
	if err := ing.log.UpdateLast(func(t *chat.Turn) {
		t.Content = rejectionNotice
		t.IsError = true
	}); err != nil {
		ing.logger.Error("stamping rejection turn", zap.Error(err))
		return
	}
	ing.notify(TurnDelta{Index: index, Text: ""})
}
