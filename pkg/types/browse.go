// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TopicSummary is one indexed topic segment as listed by /browse/topics.
type TopicSummary struct {
	ID             string `json:"id" yaml:"id"`
	VideoID        string `json:"video_id" yaml:"video_id"`
	YouTubeID      string `json:"youtube_id" yaml:"youtube_id"`
	VideoTitle     string `json:"video_title,omitempty" yaml:"video_title,omitempty"`
	Topic          string `json:"topic" yaml:"topic"`
	TopicNum       int    `json:"topic_num" yaml:"topic_num"`
	TimestampStart string `json:"timestamp_start" yaml:"timestamp_start"`
	TimestampEnd   string `json:"timestamp_end" yaml:"timestamp_end"`
}

// TopicDetail adds the generated topic summary text.
type TopicDetail struct {
	TopicSummary `yaml:",inline"`

	Answer string `json:"answer" yaml:"answer"`
}

// VideoSummary is one indexed video as listed by /browse/videos.
type VideoSummary struct {
	ID          string `json:"id" yaml:"id"`
	YouTubeID   string `json:"youtube_id" yaml:"youtube_id"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	TopicCount  int    `json:"topic_count" yaml:"topic_count"`
}

// VideoDetail adds the video's topic segments.
type VideoDetail struct {
	VideoSummary `yaml:",inline"`

	Topics []TopicSummary `json:"topics" yaml:"topics"`
}

// Page selects a window of a browse listing.
type Page struct {
	Limit  int
	Offset int
}
