// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"sync"

	"github.com/pdiddy/citechat/pkg/types"
)

// Recorder appends committed chat turns to one conversation, creating it
// on the first turn. Reset starts a fresh conversation for the next turn.
type Recorder struct {
	store *Store

	mu             sync.Mutex
	conversationID string
}

// NewRecorder returns a Recorder backed by store.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// Record stores msg.
func (r *Recorder) Record(ctx context.Context, msg types.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conversationID == "" {
		c, err := r.store.CreateConversation(ctx, "")
		if err != nil {
			return err
		}
		r.conversationID = c.ID
	}
	return r.store.AppendMessage(ctx, r.conversationID, msg)
}

// ConversationID returns the conversation being recorded, or "" before
// the first turn.
func (r *Recorder) ConversationID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conversationID
}

// Reset makes the next Record start a new conversation.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversationID = ""
}
