// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citechat/internal/citation"
	"github.com/pdiddy/citechat/pkg/types"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate [file]",
	Short: "Rewrite citation markers in text into citation links",
	Long: `Annotate reads a message from file (or stdin) and replaces every
[sourceID:time] marker with a citation link token. With --json it prints the
annotated text together with each resolved citation. Use --render to show the
text the way ask does.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnnotate,
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	in := io.Reader(os.Stdin)
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	roleFlag, _ := cmd.Flags().GetString("role")
	role := types.Role(roleFlag)
	if !role.Valid() {
		return fmt.Errorf("unsupported role %q: use user or assistant", roleFlag)
	}

	if rendered, _ := cmd.Flags().GetBool("render"); rendered {
		r, err := newRenderer()
		if err != nil {
			return err
		}
		fmt.Println(r.Message(types.Message{Role: role, Content: string(data)}, false))
		return nil
	}

	res := citation.Annotate(string(data), role)
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Print(res.Text)
	return nil
}

func init() {
	annotateCmd.Flags().String("role", string(types.RoleAssistant), "message role: user or assistant")
	annotateCmd.Flags().Bool("json", false, "print the annotated text and resolved citations as JSON")
	annotateCmd.Flags().Bool("render", false, "render chips as a terminal answer")
	rootCmd.AddCommand(annotateCmd)
}
