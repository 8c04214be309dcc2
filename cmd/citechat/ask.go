// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citechat/internal/chat"
	"github.com/pdiddy/citechat/internal/history"
	"github.com/pdiddy/citechat/internal/render"
	"github.com/pdiddy/citechat/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question and stream the cited answer",
	Long: `Ask streams an answer from the backend. On a terminal the text appears
as it arrives and is replaced by the rendered answer, with citation chips
and the list of sources, once the backend finishes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	r, err := newRenderer()
	if err != nil {
		return err
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	var rec *history.Recorder
	if store != nil {
		defer store.Close()
		rec = history.NewRecorder(store)
	}

	t := newTurn(r, os.Stdout, rec)
	return t.ask(ctx, strings.Join(args, " "))
}

// turn wires a chat session to terminal output.
type turn struct {
	session *chat.Session
	r       *render.Renderer
	out     io.Writer
	live    *render.Live
}

func newTurn(r *render.Renderer, out io.Writer, rec *history.Recorder) *turn {
	t := &turn{r: r, out: out}
	if r.Styled() {
		t.live = render.NewLive(out, render.TerminalWidth(out, 80))
	}

	opts := []chat.Option{
		chat.WithLogger(logger.With().Str("component", "chat").Logger()),
		chat.WithObserver(func(u chat.Update) {
			if t.live != nil {
				t.live.Update(u.Partial)
			}
		}),
	}
	if rec != nil {
		opts = append(opts, chat.WithRecorder(rec))
	}
	t.session = chat.NewSession(newClient(), opts...)
	return t
}

// ask sends question and prints the rendered answer.
func (t *turn) ask(ctx context.Context, question string) error {
	msg, err := t.session.Send(ctx, question)
	if t.live != nil {
		t.live.Clear()
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(t.out, strings.TrimRight(t.r.Message(msg, false), "\n"))
	return nil
}

// lastSources returns the sources of the latest answer.
func (t *turn) lastSources() []types.Source {
	msg, ok := t.session.LastAnswer()
	if !ok {
		return nil
	}
	return msg.Sources
}

func init() {
	rootCmd.AddCommand(askCmd)
}
