// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citechat/pkg/types"
)

type recorded struct {
	tokens []string
	done   []types.StreamEvent
	errs   []string
}

func (r *recorded) handler() StreamHandler {
	return StreamHandler{
		OnToken: func(s string) { r.tokens = append(r.tokens, s) },
		OnDone:  func(ev types.StreamEvent) { r.done = append(r.done, ev) },
		OnError: func(msg string) { r.errs = append(r.errs, msg) },
	}
}

func sseServer(t *testing.T, body string) *Client {
	t.Helper()
	return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/stream", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, chunk := range strings.SplitAfter(body, "\n\n") {
			fmt.Fprint(w, chunk)
			if flusher != nil {
				flusher.Flush()
			}
		}
	})
}

func TestStreamChat_TokensThenDone(t *testing.T) {
	body := "data: {\"type\":\"token\",\"content\":\"The speaker \"}\n\n" +
		"data: {\"type\":\"token\",\"content\":\"highlights [v1:9:27-14:14; 14:25-16:49].\"}\n\n" +
		": keep-alive\n\n" +
		"data: {\"type\":\"done\",\"answer\":\"\",\"citations\":[{\"video_id\":\"v1\",\"topic\":\"Scaling\",\"reasoning\":\"\",\"timestamp_start\":\"9:27\"}]}\n\n"

	c := sseServer(t, body)
	var rec recorded
	require.NoError(t, c.StreamChat(context.Background(), "q", rec.handler()))

	assert.Equal(t, []string{"The speaker ", "highlights [v1:9:27-14:14; 14:25-16:49]."}, rec.tokens)
	require.Len(t, rec.done, 1)
	require.Len(t, rec.done[0].Citations, 1)
	assert.Equal(t, "v1", rec.done[0].Citations[0].VideoID)
	assert.Empty(t, rec.errs)
}

func TestStreamChat_SkipsMalformedAndEmptyTokens(t *testing.T) {
	body := "data: {not json}\n\n" +
		"data: {\"type\":\"token\",\"content\":\"\"}\n\n" +
		"data: {\"type\":\"heartbeat\"}\n\n" +
		"data: {\"type\":\"token\",\"content\":\"ok\"}\n\n" +
		"data: {\"type\":\"done\",\"answer\":\" tail\"}\n\n"

	c := sseServer(t, body)
	var rec recorded
	require.NoError(t, c.StreamChat(context.Background(), "q", rec.handler()))

	assert.Equal(t, []string{"ok"}, rec.tokens)
	require.Len(t, rec.done, 1)
	assert.Equal(t, " tail", rec.done[0].Answer)
}

func TestStreamChat_ErrorEvent(t *testing.T) {
	body := "data: {\"type\":\"token\",\"content\":\"partial\"}\n\n" +
		"data: {\"type\":\"error\",\"content\":\"retrieval failed\"}\n\n"

	c := sseServer(t, body)
	var rec recorded
	require.NoError(t, c.StreamChat(context.Background(), "q", rec.handler()))

	assert.Equal(t, []string{"partial"}, rec.tokens)
	assert.Equal(t, []string{"retrieval failed"}, rec.errs)
	assert.Empty(t, rec.done)
}

func TestStreamChat_Incomplete(t *testing.T) {
	c := sseServer(t, "data: {\"type\":\"token\",\"content\":\"cut\"}\n")
	var rec recorded
	err := c.StreamChat(context.Background(), "q", rec.handler())
	assert.ErrorIs(t, err, ErrStreamIncomplete)
	assert.Equal(t, []string{"cut"}, rec.tokens)
}

func TestStreamChat_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	})
	var rec recorded
	err := c.StreamChat(context.Background(), "q", rec.handler())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "boom", se.Detail)
	assert.Empty(t, rec.tokens)
}

func TestStreamChat_NilCallbacks(t *testing.T) {
	c := sseServer(t, "data: {\"type\":\"token\",\"content\":\"x\"}\n\ndata: {\"type\":\"done\"}\n\n")
	assert.NoError(t, c.StreamChat(context.Background(), "q", StreamHandler{}))
}

func TestEventReader(t *testing.T) {
	in := "event: message\r\n" +
		"data: first\r\n" +
		"data: second\r\n" +
		"\r\n" +
		"id: 7\n" +
		"data:nospace\n" +
		"\n" +
		"\n" +
		"data: trailing"

	r := newEventReader(strings.NewReader(in))

	var got []string
	for {
		data, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, data)
	}
	assert.Equal(t, []string{"first\nsecond", "nospace", "trailing"}, got)
}
