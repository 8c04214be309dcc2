// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/citechat/pkg/types"
)

// ErrStreamIncomplete is returned when a chat stream ends without a done or
// error event.
var ErrStreamIncomplete = errors.New("chat stream ended before completion")

// maxEventSize bounds one server-sent event line.
const maxEventSize = 1 << 20

// StreamHandler receives chat stream events. Nil callbacks are skipped.
type StreamHandler struct {
	// OnToken receives each incremental piece of answer text.
	OnToken func(content string)

	// OnDone receives the final event with the trailing answer buffer and
	// the structured citations.
	OnDone func(ev types.StreamEvent)

	// OnError receives an error reported by the backend inside the stream.
	OnError func(msg string)
}

// StreamChat posts a question to /chat/stream and dispatches the
// server-sent events to h until the stream ends. Data lines that are not
// valid JSON are logged and skipped. A transport failure or non-2xx status
// is returned as an error and no callback is invoked.
func (c *Client) StreamChat(ctx context.Context, query string, h StreamHandler) error {
	body := types.ChatRequest{Query: query, TopK: c.cfg.TopK}
	resp, err := c.send(ctx, c.streamClient, http.MethodPost, "/chat/stream", body, "text/event-stream")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	events := newEventReader(resp.Body)
	finished := false
	for {
		data, err := events.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("reading chat stream: %w", err)
		}

		var ev types.StreamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			c.log.Warn().Err(err).Str("data", truncate(data, 120)).Msg("skipping malformed stream event")
			continue
		}

		switch ev.Type {
		case types.EventToken:
			if ev.Content != "" && h.OnToken != nil {
				h.OnToken(ev.Content)
			}
		case types.EventDone:
			finished = true
			if h.OnDone != nil {
				h.OnDone(ev)
			}
		case types.EventError:
			finished = true
			if h.OnError != nil {
				h.OnError(ev.Content)
			}
		default:
			c.log.Debug().Str("type", string(ev.Type)).Msg("ignoring unknown stream event")
		}
	}

	if !finished {
		return ErrStreamIncomplete
	}
	return nil
}

// eventReader yields the data payload of each server-sent event. Multiple
// data lines of one event are joined with "\n"; comments and other fields
// are ignored.
type eventReader struct {
	sc *bufio.Scanner
}

func newEventReader(r io.Reader) *eventReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &eventReader{sc: sc}
}

// Next returns the next event's data, or io.EOF at end of stream.
func (e *eventReader) Next() (string, error) {
	var (
		data    strings.Builder
		hasData bool
	)
	for e.sc.Scan() {
		line := strings.TrimRight(e.sc.Text(), "\r")

		if line == "" {
			if hasData {
				return data.String(), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		if field != "data" {
			continue
		}
		value = strings.TrimPrefix(value, " ")
		if hasData {
			data.WriteByte('\n')
		}
		data.WriteString(value)
		hasData = true
	}
	if err := e.sc.Err(); err != nil {
		return "", err
	}
	if hasData {
		return data.String(), nil
	}
	return "", io.EOF
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
