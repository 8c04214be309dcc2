// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DefaultReasoning is shown in the sources panel when the backend sends a
// citation without reasoning text.
const DefaultReasoning = "Relevant context found in this segment."

// Source is one structured citation returned by the backend alongside a
// completed answer. It feeds the sources panel and must agree with the
// inline citation markers on source identity and start time.
type Source struct {
	// VideoID is the backend's identifier for the cited video.
	VideoID string `json:"video_id" yaml:"video_id"`

	// YouTubeID is the public YouTube video identifier, when known.
	YouTubeID string `json:"youtube_id,omitempty" yaml:"youtube_id,omitempty"`

	// Topic is the display title of the cited segment.
	Topic string `json:"topic" yaml:"topic"`

	// Reasoning explains why the segment was cited. May be empty.
	Reasoning string `json:"reasoning" yaml:"reasoning"`

	// TimestampStart is the segment start as text (e.g. "9:27").
	TimestampStart string `json:"timestamp_start" yaml:"timestamp_start"`

	// TimestampEnd is the segment end as text, when known.
	TimestampEnd string `json:"timestamp_end,omitempty" yaml:"timestamp_end,omitempty"`

	// IsFaithful is the backend's faithfulness verdict for the citation.
	IsFaithful bool `json:"is_faithful" yaml:"is_faithful"`
}

// ID returns the identifier inline markers use for this source: VideoID,
// falling back to YouTubeID.
func (s Source) ID() string {
	if s.VideoID != "" {
		return s.VideoID
	}
	return s.YouTubeID
}

// DisplayReasoning returns Reasoning, or DefaultReasoning when it is blank.
func (s Source) DisplayReasoning() string {
	if strings.TrimSpace(s.Reasoning) == "" {
		return DefaultReasoning
	}
	return s.Reasoning
}

// Message is one conversation turn.
type Message struct {
	// ID is a stable identifier (UUID) assigned when the turn is committed.
	ID string `json:"id" yaml:"id"`

	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`

	// Sources is the structured citation list attached to a completed
	// assistant turn. Empty for user turns and failed answers.
	Sources []Source `json:"sources,omitempty" yaml:"sources,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ChatRequest is the body sent to /chat/stream and /chat/query.
type ChatRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// QueryResponse is the non-streaming answer from /chat/query.
type QueryResponse struct {
	Answer            string   `json:"answer" yaml:"answer"`
	Citations         []Source `json:"citations" yaml:"citations"`
	FaithfulnessScore float64  `json:"faithfulness_score" yaml:"faithfulness_score"`
	LatencySeconds    float64  `json:"latency_seconds" yaml:"latency_seconds"`
}

// StreamEventType discriminates server-sent chat events.
type StreamEventType string

const (
	EventToken StreamEventType = "token"
	EventDone  StreamEventType = "done"
	EventError StreamEventType = "error"
)

// StreamEvent is the JSON payload of one `data:` line on /chat/stream.
// Token events carry Content; the done event carries the trailing Answer
// buffer and the Citations; error events carry the message in Content.
type StreamEvent struct {
	Type              StreamEventType `json:"type"`
	Content           string          `json:"content,omitempty"`
	Answer            string          `json:"answer,omitempty"`
	Citations         []Source        `json:"citations,omitempty"`
	FaithfulnessScore float64         `json:"faithfulness_score,omitempty"`
	LatencySeconds    float64         `json:"latency_seconds,omitempty"`
}
