// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chat holds the state of one conversation with the backend: the
// committed turns, the answer currently streaming in, and the annotated
// view of that growing answer.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/citechat/internal/api"
	"github.com/pdiddy/citechat/internal/citation"
	"github.com/pdiddy/citechat/pkg/types"
)

var (
	// ErrEmptyQuery is returned by Send for a blank question.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrBackend wraps an error the backend reported inside the stream.
	ErrBackend = errors.New("backend error")

	// ErrDiscarded is returned when the conversation was cleared while an
	// answer was still streaming; the stale answer is dropped.
	ErrDiscarded = errors.New("answer discarded")
)

// Streamer streams one answer. *api.Client implements it.
type Streamer interface {
	StreamChat(ctx context.Context, query string, h api.StreamHandler) error
}

// Recorder persists committed turns. Failures are logged, never fatal.
type Recorder interface {
	Record(ctx context.Context, msg types.Message) error
}

// Update is delivered to the observer each time the streaming answer grows.
type Update struct {
	// Partial is the raw answer text received so far.
	Partial string

	// Annotated is Partial run through the citation annotator.
	Annotated citation.Result
}

// Observer receives streaming updates. It runs on the goroutine that
// called Send.
type Observer func(Update)

// Session is one conversation. It is safe for concurrent use, but only one
// Send runs at a time; a second concurrent Send waits for the first.
type Session struct {
	streamer Streamer
	observer Observer
	recorder Recorder
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string

	sendMu sync.Mutex

	mu        sync.Mutex
	messages  []types.Message
	streaming bool
	gen       uint64
}

// Option configures a Session.
type Option func(*Session)

// WithObserver sets the streaming update callback.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithRecorder persists every committed turn.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession returns an empty conversation backed by streamer.
func NewSession(streamer Streamer, opts ...Option) *Session {
	s := &Session{
		streamer: streamer,
		log:      zerolog.Nop(),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Messages returns a copy of the committed turns.
func (s *Session) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastAnswer returns the most recent assistant turn, if any.
func (s *Session) LastAnswer() (types.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == types.RoleAssistant {
			return s.messages[i], true
		}
	}
	return types.Message{}, false
}

// Streaming reports whether an answer is currently streaming in.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Clear drops every turn. An answer still streaming is discarded when it
// completes.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.gen++
}

// Send asks query and blocks until the answer is complete. While tokens
// arrive the observer receives the re-annotated prefix. On completion the
// assistant turn (streamed text plus the backend's trailing buffer, with
// its validated sources) is committed and returned.
//
// When the backend reports an error, or the transport fails, an assistant
// turn "Error: <message>" is committed and returned together with the
// error. A cancelled ctx commits nothing and returns ctx.Err().
func (s *Session) Send(ctx context.Context, query string) (types.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.Message{}, ErrEmptyQuery
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	gen := s.gen
	s.streaming = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.streaming = false
		s.mu.Unlock()
	}()

	s.commit(ctx, gen, types.Message{Role: types.RoleUser, Content: query})

	var (
		buf      strings.Builder
		done     *types.StreamEvent
		errorMsg string
	)
	h := api.StreamHandler{
		OnToken: func(content string) {
			buf.WriteString(content)
			if s.observer == nil || !s.current(gen) {
				return
			}
			partial := buf.String()
			s.observer(Update{
				Partial:   partial,
				Annotated: citation.Annotate(partial, types.RoleAssistant),
			})
		},
		OnDone: func(ev types.StreamEvent) {
			done = &ev
		},
		OnError: func(msg string) {
			errorMsg = msg
		},
	}

	start := s.now()
	err := s.streamer.StreamChat(ctx, query, h)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return types.Message{}, ctxErr
	}
	if !s.current(gen) {
		return types.Message{}, ErrDiscarded
	}

	switch {
	case err != nil:
		s.log.Error().Err(err).Msg("chat stream failed")
		msg := s.commit(ctx, gen, errorMessage(err.Error()))
		return msg, err

	case done == nil && errorMsg != "":
		s.log.Warn().Str("error", errorMsg).Msg("backend reported an error")
		msg := s.commit(ctx, gen, errorMessage(errorMsg))
		return msg, fmt.Errorf("%w: %s", ErrBackend, errorMsg)

	case done == nil:
		msg := s.commit(ctx, gen, errorMessage(api.ErrStreamIncomplete.Error()))
		return msg, api.ErrStreamIncomplete
	}

	sources, verr := citation.ValidateSources(done.Citations)
	if verr != nil {
		s.log.Warn().Err(verr).Msg("dropping invalid sources")
	}

	answer := types.Message{
		Role:    types.RoleAssistant,
		Content: buf.String() + done.Answer,
		Sources: sources,
	}
	if aerr := citation.CheckAgreement(citation.Annotate(answer.Content, types.RoleAssistant), sources); aerr != nil {
		s.log.Debug().Err(aerr).Msg("inline citations and sources disagree")
	}

	s.log.Debug().
		Int("chars", len(answer.Content)).
		Int("sources", len(sources)).
		Dur("elapsed", s.now().Sub(start)).
		Msg("answer complete")

	return s.commit(ctx, gen, answer), nil
}

func errorMessage(msg string) types.Message {
	return types.Message{Role: types.RoleAssistant, Content: "Error: " + msg}
}

// current reports whether gen is still the live conversation generation.
func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

// commit stamps msg, appends it if the conversation has not been cleared
// since gen, and hands it to the recorder.
func (s *Session) commit(ctx context.Context, gen uint64, msg types.Message) types.Message {
	msg.ID = s.newID()
	msg.CreatedAt = s.now().UTC()

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return msg
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, msg); err != nil {
			s.log.Warn().Err(err).Str("role", string(msg.Role)).Msg("recording message failed")
		}
	}
	return msg
}
