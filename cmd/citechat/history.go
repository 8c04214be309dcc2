// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citechat/internal/history"
	"github.com/pdiddy/citechat/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived conversations",
	Long: `History manages the local archive of conversations held in
<history.dir>/history.db. Every answered question from ask, query and chat
is recorded unless history.enabled is false.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent conversations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := requireHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		convs, err := store.ListConversations(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(convs)
		}
		if len(convs) == 0 {
			fmt.Println("No conversations yet.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-4s  %s\n", "ID", "Updated", "Msgs", "Title")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
		for _, c := range convs {
			fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-4d  %s\n",
				c.ID, c.UpdatedAt.Local().Format("2006-01-02 15:04"), c.MessageCount, clip(c.Title, 40))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Replay a conversation with rendered citations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := requireHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		conv, err := store.Conversation(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		r, err := newRenderer()
		if err != nil {
			return err
		}

		fmt.Printf("%s\n\n", conv.Title)
		for _, msg := range conv.Messages {
			prefix := "you"
			if msg.Role == types.RoleAssistant {
				prefix = "assistant"
			}
			fmt.Printf("%s:\n%s\n\n", prefix, strings.TrimRight(r.Message(msg, false), "\n"))
		}
		return nil
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over archived messages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := requireHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		hits, err := store.Search(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printJSON(hits)
		}
		if len(hits) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		for i, h := range hits {
			fmt.Printf("%d. %s [%s] %s\n   %s\n", i+1, clip(h.Title, 50), h.Role, h.ConversationID, h.Snippet)
		}
		fmt.Printf("\n%d results\n", len(hits))
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a conversation as YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := requireHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "yaml", "":
			return store.ExportYAML(cmd.Context(), os.Stdout, args[0])
		case "json":
			return store.ExportJSON(cmd.Context(), os.Stdout, args[0])
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := requireHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteConversation(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Deleted %s\n", args[0])
		return nil
	},
}

// requireHistory opens the archive even when recording is disabled, so
// existing conversations stay readable.
func requireHistory() (*history.Store, error) {
	return history.Open(appConfig.History.Dir)
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum conversations to list")
	historyListCmd.Flags().Bool("json", false, "output as JSON")
	historySearchCmd.Flags().Int("limit", 20, "maximum results")
	historySearchCmd.Flags().Bool("json", false, "output as JSON")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(historyCmd)
}
