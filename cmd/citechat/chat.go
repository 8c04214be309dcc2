// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/pdiddy/citechat/internal/chat"
	"github.com/pdiddy/citechat/internal/history"
)

const promptHistoryFile = "prompt_history"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Chat opens an interactive prompt. Each question is streamed and rendered
like ask. Commands:

  /clear     start a new conversation
  /sources   list the sources of the last answer again
  /quit      leave (Ctrl-D also works)

Ctrl-C while an answer is streaming cancels that answer.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
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

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	histPath := filepath.Join(appConfig.History.Dir, promptHistoryFile)
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer savePromptHistory(line, histPath)

	t := newTurn(r, os.Stdout, rec)
	fmt.Fprintf(os.Stderr, "Connected to %s. Type /quit to leave.\n", newClient().BaseURL())

	for {
		input, err := line.Prompt("› ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case "/quit", "/exit":
			return nil
		case "/clear":
			t.session.Clear()
			if rec != nil {
				rec.Reset()
			}
			fmt.Fprintln(os.Stderr, "Started a new conversation.")
			continue
		case "/sources":
			if panel := r.SourcesPanel(t.lastSources()); panel != "" {
				fmt.Print(panel)
			} else {
				fmt.Fprintln(os.Stderr, "No sources yet.")
			}
			continue
		}
		if strings.HasPrefix(input, "/") {
			fmt.Fprintf(os.Stderr, "Unknown command %s.\n", input)
			continue
		}

		if err := askInteractive(cmd.Context(), t, input); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

// askInteractive runs one turn that Ctrl-C cancels without leaving the REPL.
func askInteractive(parent context.Context, t *turn, question string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	err := t.ask(ctx, question)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "\n[cancelled]")
		return nil
	case errors.Is(err, chat.ErrDiscarded):
		return nil
	}
	return err
}

func savePromptHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
