// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for requests to the backend.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Streaming requests are bounded
	// by their context instead.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citechat/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ClientConfig holds settings for the backend API client.
type ClientConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the backend root (default http://localhost:8000).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// TopK is the number of retrieved segments requested per question (default 5).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// MaxRetries bounds retries on 429 and 503 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// RenderConfig holds terminal rendering settings.
type RenderConfig struct {
	// Width is the word-wrap width for rendered answers (default 80).
	Width int `json:"width" yaml:"width" mapstructure:"width"`

	// Style is a glamour style name ("auto", "dark", "light", "notty").
	Style string `json:"style" yaml:"style" mapstructure:"style"`

	// Plain disables ANSI styling regardless of the terminal.
	Plain bool `json:"plain" yaml:"plain" mapstructure:"plain"`
}

// HistoryConfig holds settings for the local conversation archive.
type HistoryConfig struct {
	// Enabled controls whether completed turns are recorded.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Dir is the directory that holds history.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// Config groups all citechat settings.
type Config struct {
	Client  ClientConfig  `json:"client" yaml:",inline" mapstructure:",squash"`
	Render  RenderConfig  `json:"render" yaml:"render" mapstructure:"render"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
}

// DefaultConfig returns the settings used when no config file is present.
func DefaultConfig() Config {
	return Config{
		Client: ClientConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "citechat/0.1",
			},
			BaseURL:    "http://localhost:8000",
			TopK:       5,
			MaxRetries: 5,
		},
		Render: RenderConfig{
			Width: 80,
			Style: "auto",
		},
		History: HistoryConfig{
			Enabled: true,
			Dir:     ".citechat",
		},
	}
}
