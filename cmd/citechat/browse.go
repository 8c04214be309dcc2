// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citechat/internal/citation"
	"github.com/pdiddy/citechat/internal/render"
	"github.com/pdiddy/citechat/pkg/types"
)

var topicsCmd = &cobra.Command{
	Use:   "topics [id]",
	Short: "List indexed topic segments, or show one",
	Long: `Topics lists the topic segments the backend has indexed. With an id it
shows that topic's summary and the URL that opens the segment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTopics,
}

var videosCmd = &cobra.Command{
	Use:   "videos [id]",
	Short: "List indexed videos, or show one with its topics",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVideos,
}

func runTopics(cmd *cobra.Command, args []string) error {
	client := newClient()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if len(args) == 1 {
		topic, err := client.Topic(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(topic)
		}
		return printTopicDetail(topic)
	}

	topics, err := client.Topics(cmd.Context(), pageFromFlags(cmd))
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(topics)
	}
	printTopicTable(topics)
	return nil
}

func runVideos(cmd *cobra.Command, args []string) error {
	client := newClient()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if len(args) == 1 {
		video, err := client.Video(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(video)
		}
		fmt.Printf("%s\n%s\n", video.Title, citation.WatchURL(videoRef(video.VideoSummary), 0))
		if video.Description != "" {
			fmt.Printf("\n%s\n", video.Description)
		}
		fmt.Println()
		printTopicTable(video.Topics)
		return nil
	}

	videos, err := client.Videos(cmd.Context(), pageFromFlags(cmd))
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(videos)
	}

	if len(videos) == 0 {
		fmt.Println("No videos found.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-36s  %-14s  %-6s  %s\n", "ID", "YouTube", "Topics", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, v := range videos {
		fmt.Fprintf(os.Stdout, "%-36s  %-14s  %-6d  %s\n", v.ID, v.YouTubeID, v.TopicCount, clip(v.Title, 40))
	}
	fmt.Fprintf(os.Stdout, "\n%d videos\n", len(videos))
	return nil
}

func printTopicTable(topics []types.TopicSummary) {
	if len(topics) == 0 {
		fmt.Println("No topics found.")
		return
	}
	fmt.Fprintf(os.Stdout, "%-36s  %-4s  %-17s  %s\n", "ID", "#", "Time", "Topic")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, t := range topics {
		span := t.TimestampStart
		if t.TimestampEnd != "" {
			span += "-" + t.TimestampEnd
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-4d  %-17s  %s\n", t.ID, t.TopicNum, span, clip(t.Topic, 40))
	}
	fmt.Fprintf(os.Stdout, "\n%d topics\n", len(topics))
}

func printTopicDetail(t *types.TopicDetail) error {
	fmt.Printf("%s (%s-%s)\n", t.Topic, t.TimestampStart, t.TimestampEnd)
	if t.VideoTitle != "" {
		fmt.Println(t.VideoTitle)
	}
	id := t.YouTubeID
	if id == "" {
		id = t.VideoID
	}
	fmt.Println(render.Activate(id, t.TimestampStart))

	if t.Answer == "" {
		return nil
	}
	r, err := newRenderer()
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(strings.TrimRight(r.Message(types.Message{Role: types.RoleAssistant, Content: t.Answer}, false), "\n"))
	return nil
}

// videoRef prefers the public YouTube id for watch URLs.
func videoRef(v types.VideoSummary) string {
	if v.YouTubeID != "" {
		return v.YouTubeID
	}
	return v.ID
}

func pageFromFlags(cmd *cobra.Command) types.Page {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	return types.Page{Limit: limit, Offset: offset}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	for _, c := range []*cobra.Command{topicsCmd, videosCmd} {
		c.Flags().Int("limit", 0, "page size (0 = backend default)")
		c.Flags().Int("offset", 0, "number of entries to skip")
		c.Flags().Bool("json", false, "output as JSON")
		rootCmd.AddCommand(c)
	}
}
