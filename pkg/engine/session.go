package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/quarrelhq/quarrel/pkg/chat"
)

// Config configures one conversation session.
type Config struct {
	Mode     chat.Mode
	UserRole chat.Role // which side the human plays; HALF mode only

	Generator Generator
	Logger    *zap.Logger
}

// Session is the top-level state machine. One event-loop goroutine owns every
// log write; human turns and teardown arrive over channels, so no two
// mutations are ever concurrent and turns land in the exact order they were
// decided.
type Session struct {
	cfg    Config
	log    *chat.Log
	ing    *Ingester
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	events  chan Event
	humanCh chan string

	mu        sync.Mutex
	state     State
	endReason EndReason
}

// NewSession validates cfg and builds a session. Nothing runs until Start.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Generator == nil {
		return nil, errors.New("engine: generator is required")
	}
	switch cfg.Mode {
	case chat.ModeAuto:
	case chat.ModeHalf:
		if !cfg.UserRole.Valid() {
			return nil, fmt.Errorf("engine: invalid user role %q for HALF mode", cfg.UserRole)
		}
	default:
		return nil, fmt.Errorf("engine: invalid mode %q", cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:     cfg,
		log:     chat.NewLog(),
		logger:  cfg.Logger,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		events:  make(chan Event, 256),
		// Buffered so a submit racing the loop into its receive still lands.
		humanCh: make(chan string, 1),
		state:   StateWaitingKickoff,
	}
	s.ing = NewIngester(cfg.Generator, s.log, cfg.Logger, s.emit)
	return s, nil
}

// Start kicks off the scheduling loop.
func (s *Session) Start() {
	s.logger.Info("session starting",
		zap.String("mode", string(s.cfg.Mode)),
		zap.String("user_role", string(s.cfg.UserRole)),
	)
	go s.run()
}

// Events returns the observer channel. It is closed when the loop exits.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Snapshot returns the transcript as of now. Safe to call at any time; the
// last turn may still be growing.
func (s *Session) Snapshot() []chat.Turn {
	return s.log.All()
}

// State returns the current scheduler state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EndReason is meaningful once State() == StateEnded.
func (s *Session) EndReason() EndReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endReason
}

// SubmitHumanTurn hands the human's literal text to the scheduler. Valid only
// while the session is awaiting human input; any other time the turn is
// rejected without touching the transcript.
func (s *Session) SubmitHumanTurn(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	if s.State() != StateAwaitingHuman {
		return ErrNotAwaitingHuman
	}
	select {
	case s.humanCh <- text:
		return nil
	case <-s.ctx.Done():
		return ErrNotAwaitingHuman
	default:
		// The loop left AwaitingHuman between the state check and the send.
		return ErrNotAwaitingHuman
	}
}

// Teardown cancels any in-flight stream, stops the loop and waits for it to
// exit. The session must not be used afterwards.
func (s *Session) Teardown() {
	s.logger.Info("session teardown")
	s.ing.Cancel()
	s.cancel()
	<-s.done
}

func (s *Session) run() {
	defer close(s.done)
	defer close(s.events)

	for {
		if chat.Ended(s.log, s.cfg.Mode) {
			reason := EndTurnCap
			if last := s.log.Last(); last != nil && last.IsError {
				reason = EndError
			}
			s.mu.Lock()
			s.endReason = reason
			s.mu.Unlock()
			s.setState(StateEnded)
			s.emit(ConversationEnded{Reason: reason})
			s.logger.Info("conversation ended",
				zap.Int("turns", s.log.Len()),
				zap.Bool("error", reason == EndError),
			)
			// Terminal: only teardown remains.
			<-s.ctx.Done()
			return
		}

		next, awaitHuman := chat.NextSpeaker(s.cfg.Mode, s.cfg.UserRole, s.log.Last())

		if awaitHuman {
			s.setState(StateAwaitingHuman)
			select {
			case <-s.ctx.Done():
				return
			case text := <-s.humanCh:
				s.log.Append(chat.Turn{Role: s.cfg.UserRole, Content: text})
				index := s.log.Len() - 1
				s.emit(TurnOpened{Index: index, Role: s.cfg.UserRole})
				s.emit(TurnSettled{Index: index})
			}
			continue
		}

		s.setState(StateGenerating)
		err := s.ing.Ingest(s.ctx, next)
		if errors.Is(err, context.Canceled) {
			// Session is being torn down; leave the partial turn as-is.
			return
		}
		if err != nil {
			// The error turn is already stamped; the next iteration of the
			// loop observes it and ends the conversation.
			s.logger.Warn("turn generation failed", zap.Error(err))
		}
		s.emit(TurnSettled{Index: s.log.Len() - 1})
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()
	if changed {
		s.emit(StateChanged{State: state})
	}
}

// emit delivers an event to the observer channel. The buffer absorbs bursts;
// if an observer stalls completely the send falls through on teardown.
func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	case <-s.ctx.Done():
	}
}
