// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citechat/internal/render"
)

var openCmd = &cobra.Command{
	Use:   "open <videoID> <timestamp>",
	Short: "Print the watch URL for a cited moment",
	Long: `Open resolves a citation's start time the same way the chips do and
prints the video URL seeking to it. The timestamp may be a full citation
time expression such as "9:27-14:14; 14:25-16:49"; only its first start is used.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(render.Activate(args[0], strings.Join(args[1:], " ")))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
