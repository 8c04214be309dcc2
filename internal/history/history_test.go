// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citechat/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return store
}

func question(content string) types.Message {
	return types.Message{Role: types.RoleUser, Content: content}
}

func answer(content string, sources ...types.Source) types.Message {
	return types.Message{Role: types.RoleAssistant, Content: content, Sources: sources}
}

var scalingSource = types.Source{
	VideoID:        "516f84b0-2cd2-4f7c-8eb7-62ea59087922",
	YouTubeID:      "yt1",
	Topic:          "Scaling laws",
	Reasoning:      "Discusses compute budgets.",
	TimestampStart: "9:27",
	TimestampEnd:   "14:14",
	IsFaithful:     true,
}

// --- tests ---

func TestOpen_ReopenKeepsData(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "h")
	store, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, dbFile), store.Path())

	c, err := store.CreateConversation(context.Background(), "first")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(dir)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Conversation(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
}

func TestAppendMessage_RoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	c, err := store.CreateConversation(ctx, "")
	require.NoError(t, err)

	q := question("What does the speaker say about scaling?")
	q.ID = "m1"
	a := answer("The speaker highlights [516f84b0-2cd2-4f7c-8eb7-62ea59087922:9:27-14:14; 14:25-16:49].",
		scalingSource, types.Source{VideoID: "v2", Topic: "Data", TimestampStart: "1:02:03"})
	a.ID = "m2"

	require.NoError(t, store.AppendMessage(ctx, c.ID, q))
	require.NoError(t, store.AppendMessage(ctx, c.ID, a))

	got, err := store.Conversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "What does the speaker say about scaling?", got.Title)
	require.Len(t, got.Messages, 2)

	assert.Equal(t, "m1", got.Messages[0].ID)
	assert.Equal(t, types.RoleUser, got.Messages[0].Role)
	assert.Empty(t, got.Messages[0].Sources)

	assert.Equal(t, a.Content, got.Messages[1].Content)
	require.Len(t, got.Messages[1].Sources, 2)
	assert.Equal(t, scalingSource, got.Messages[1].Sources[0])
	assert.Equal(t, "1:02:03", got.Messages[1].Sources[1].TimestampStart)
	assert.False(t, got.Messages[1].CreatedAt.IsZero())
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestAppendMessage_UnknownConversation(t *testing.T) {
	store := testStore(t)
	err := store.AppendMessage(context.Background(), "nope", question("hi"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversation_NotFound(t *testing.T) {
	store := testStore(t)
	_, err := store.Conversation(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTitle_KeptWhenSetAndTruncated(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	c, err := store.CreateConversation(ctx, "Pinned title")
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(ctx, c.ID, question("something else")))
	got, err := store.Conversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pinned title", got.Title)

	long := strings.Repeat("word ", 40)
	c2, err := store.CreateConversation(ctx, "")
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(ctx, c2.ID, question(long)))
	got, err = store.Conversation(ctx, c2.ID)
	require.NoError(t, err)
	assert.Len(t, []rune(got.Title), titleLen)
	assert.True(t, strings.HasSuffix(got.Title, "…"))
}

func TestListConversations(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	older, err := store.CreateConversation(ctx, "older")
	require.NoError(t, err)
	newer, err := store.CreateConversation(ctx, "newer")
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(ctx, newer.ID, question("a")))
	require.NoError(t, store.AppendMessage(ctx, newer.ID, answer("b")))

	list, err := store.ListConversations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, 2, list[0].MessageCount)
	assert.Equal(t, older.ID, list[1].ID)
	assert.Equal(t, 0, list[1].MessageCount)

	list, err = store.ListConversations(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSearch(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	c, err := store.CreateConversation(ctx, "")
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(ctx, c.ID, question("Tell me about scaling laws")))
	require.NoError(t, store.AppendMessage(ctx, c.ID, answer("Compute budgets dominate [v1:9:27].", scalingSource)))
	require.NoError(t, store.AppendMessage(ctx, c.ID, question("And tokenizers?")))

	hits, err := store.Search(ctx, "scaling", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, c.ID, hits[0].ConversationID)
	assert.Equal(t, types.RoleUser, hits[0].Role)
	assert.Contains(t, hits[0].Snippet, "**scaling**")

	hits, err = store.Search(ctx, "compute budgets", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, types.RoleAssistant, hits[0].Role)

	// FTS syntax in user input is literal.
	hits, err = store.Search(ctx, `tokenizers? "OR`, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Nil(t, hits)
}

func TestDeleteConversation_Cascades(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	c, err := store.CreateConversation(ctx, "")
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(ctx, c.ID, answer("unique zebra content", scalingSource)))

	require.NoError(t, store.DeleteConversation(ctx, c.ID))
	_, err = store.Conversation(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	hits, err := store.Search(ctx, "zebra", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	var n int
	require.NoError(t, store.db.QueryRow(`SELECT count(*) FROM sources`).Scan(&n))
	assert.Zero(t, n)

	assert.ErrorIs(t, store.DeleteConversation(ctx, c.ID), ErrNotFound)
}

func TestExport(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	c, err := store.CreateConversation(ctx, "")
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(ctx, c.ID, question("q")))
	require.NoError(t, store.AppendMessage(ctx, c.ID, answer("a [v1:9:27]", scalingSource)))

	var yamlBuf bytes.Buffer
	require.NoError(t, store.ExportYAML(ctx, &yamlBuf, c.ID))
	var fromYAML types.Conversation
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	assert.Equal(t, c.ID, fromYAML.ID)
	require.Len(t, fromYAML.Messages, 2)
	assert.Equal(t, "Scaling laws", fromYAML.Messages[1].Sources[0].Topic)

	var jsonBuf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &jsonBuf, c.ID))
	var fromJSON types.Conversation
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	assert.Equal(t, fromYAML.Messages[1].Content, fromJSON.Messages[1].Content)
	assert.Contains(t, jsonBuf.String(), `"timestamp_start": "9:27"`)

	assert.ErrorIs(t, store.ExportJSON(ctx, &jsonBuf, "missing"), ErrNotFound)
}

func TestRecorder(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	rec := NewRecorder(store)
	assert.Empty(t, rec.ConversationID())

	require.NoError(t, rec.Record(ctx, question("first question")))
	require.NoError(t, rec.Record(ctx, answer("first answer")))
	first := rec.ConversationID()
	require.NotEmpty(t, first)

	rec.Reset()
	require.NoError(t, rec.Record(ctx, question("second question")))
	assert.NotEqual(t, first, rec.ConversationID())

	got, err := store.Conversation(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "first question", got.Title)
	assert.Len(t, got.Messages, 2)

	list, err := store.ListConversations(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"a" "b""c"`, ftsQuery(` a  b"c `))
	assert.Empty(t, ftsQuery(""))
}
