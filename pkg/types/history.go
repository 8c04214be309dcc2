// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Conversation is an archived chat with all of its turns.
type Conversation struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	Messages  []Message `json:"messages" yaml:"messages"`
}

// ConversationSummary is one row of the history listing.
type ConversationSummary struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
	MessageCount int       `json:"message_count" yaml:"message_count"`
}

// SearchHit is an archived message matching a full-text query.
type SearchHit struct {
	ConversationID string    `json:"conversation_id" yaml:"conversation_id"`
	Title          string    `json:"title" yaml:"title"`
	MessageID      string    `json:"message_id" yaml:"message_id"`
	Role           Role      `json:"role" yaml:"role"`
	Snippet        string    `json:"snippet" yaml:"snippet"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}
