// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citechat CLI: ask questions about
// an indexed video library and get answers whose citations open the video
// at the cited moment.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citechat/internal/api"
	"github.com/pdiddy/citechat/internal/history"
	"github.com/pdiddy/citechat/internal/render"
	"github.com/pdiddy/citechat/internal/secrets"
	"github.com/pdiddy/citechat/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets secrets.Secrets

	// appConfig is the merged configuration (defaults, file, env, flags).
	appConfig types.Config

	// logger carries diagnostics to stderr; --verbose lowers it to debug.
	logger = zerolog.Nop()
)

// rootCmd is the base command for the citechat CLI.
var rootCmd = &cobra.Command{
	Use:   "citechat",
	Short: "Chat with a video library, with clickable time-coded citations",
	Long: `citechat asks questions of a video Q&A backend and renders the answers
in the terminal. Inline citations like [videoID:9:27-14:14] become links that
open the video at the cited moment, and the structured sources the backend
returns are listed beneath each answer.

Conversations are archived locally and can be listed, searched and exported
with the history subcommands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = newLogger(verbose)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appConfig = cfg

		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citechat.yaml or ~/.config/citechat/citechat.yaml)")
	rootCmd.PersistentFlags().String("base-url", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log diagnostics to stderr")
	rootCmd.PersistentFlags().Bool("plain", false, "disable terminal styling")

	viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("render.plain", rootCmd.PersistentFlags().Lookup("plain"))
}

func initConfig() {
	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	setDefaults()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citechat")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citechat"))
		}
	}

	bindEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "warning: reading config %s: %v\n", cfgFile, err)
	}
}

// setDefaults registers every config key so env overrides apply to all
// of them.
func setDefaults() {
	d := types.DefaultConfig()
	viper.SetDefault("base_url", d.Client.BaseURL)
	viper.SetDefault("timeout", d.Client.Timeout)
	viper.SetDefault("user_agent", d.Client.UserAgent+" ("+version+")")
	viper.SetDefault("top_k", d.Client.TopK)
	viper.SetDefault("max_retries", d.Client.MaxRetries)
	viper.SetDefault("requests_per_second", d.Client.RequestsPerSecond)
	viper.SetDefault("render.width", d.Render.Width)
	viper.SetDefault("render.style", d.Render.Style)
	viper.SetDefault("render.plain", d.Render.Plain)
	viper.SetDefault("history.enabled", d.History.Enabled)
	viper.SetDefault("history.dir", d.History.Dir)
}

// bindEnv maps CITECHAT_<KEY> variables onto config keys; nested keys use
// underscores (CITECHAT_RENDER_WIDTH).
func bindEnv() {
	viper.SetEnvPrefix("CITECHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen, NoColor: !render.IsTerminal(os.Stderr)}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func newClient() *api.Client {
	return api.New(appConfig.Client,
		api.WithToken(loadedSecrets.Token()),
		api.WithLogger(logger.With().Str("component", "api").Logger()),
	)
}

func newRenderer() (*render.Renderer, error) {
	cfg := appConfig.Render
	if cfg.Width <= 0 {
		cfg.Width = render.TerminalWidth(os.Stdout, 80)
	}
	return render.New(cfg, os.Stdout)
}

// openHistory opens the archive, or returns nil when history is disabled.
func openHistory() (*history.Store, error) {
	if !appConfig.History.Enabled {
		return nil, nil
	}
	return history.Open(appConfig.History.Dir)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
