// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citechat/internal/citation"
	"github.com/pdiddy/citechat/internal/history"
	"github.com/pdiddy/citechat/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask one question and wait for the complete answer",
	Long: `Query uses the backend's non-streaming endpoint. The answer is rendered
like ask, followed by the faithfulness score and latency the backend reports.
Use --json to print the raw response.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	ctx := cmd.Context()

	resp, err := newClient().Query(ctx, question)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	sources, verr := citation.ValidateSources(resp.Citations)
	if verr != nil {
		logger.Warn().Err(verr).Msg("dropping invalid sources")
	}
	answer := types.Message{Role: types.RoleAssistant, Content: resp.Answer, Sources: sources}

	r, err := newRenderer()
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimRight(r.Message(answer, false), "\n"))
	fmt.Fprintf(os.Stderr, "\nfaithfulness %.2f, %.1fs\n", resp.FaithfulnessScore, resp.LatencySeconds)

	recordExchange(ctx, question, answer)
	return nil
}

// recordExchange archives a question and its answer as a new conversation.
func recordExchange(ctx context.Context, question string, answer types.Message) {
	store, err := openHistory()
	if err != nil {
		logger.Warn().Err(err).Msg("opening history")
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	rec := history.NewRecorder(store)
	for _, msg := range []types.Message{{Role: types.RoleUser, Content: question}, answer} {
		if err := rec.Record(ctx, msg); err != nil {
			logger.Warn().Err(err).Msg("recording message failed")
			return
		}
	}
}

func init() {
	queryCmd.Flags().Bool("json", false, "print the raw backend response as JSON")
	rootCmd.AddCommand(queryCmd)
}
