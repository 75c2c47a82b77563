// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mdtranslate CLI. The root command
// converts an HTML page to Markdown and translates it from English to
// Japanese chunk by chunk with a locally served model.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdtranslate/internal/logger"
	"github.com/pdiddy/mdtranslate/internal/secrets"
	"github.com/pdiddy/mdtranslate/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

// secretDefault returns fallback if set, otherwise the secret stored under key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets.Get(key, "")
}

// rootCmd is the base command for the mdtranslate CLI.
var rootCmd = &cobra.Command{
	Use:   "mdtranslate INPUT.html OUTPUT.md",
	Short: "Convert an HTML page to Markdown and translate it to Japanese",
	Long: `mdtranslate extracts the readable regions of an HTML page as Markdown and
translates the result from English to Japanese with a locally served model.

Paragraphs are grouped into chunks of about --chunk-size characters. Each
translated chunk is appended to OUTPUT.md as soon as it is done, and progress is
recorded in OUTPUT.md.progress.yaml, so an interrupted run can continue with
--resume or --start-line. A chunk the model fails on is written in English.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(viper.GetBool("verbose"))

		s, err := secrets.Load(secrets.DefaultDir)
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
			logger.Debug("loaded secrets: %v", keys)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadRunConfig(cmd, args[0], args[1])
		return runTranslate(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./mdtranslate.yaml or ~/.config/mdtranslate/config.yaml)")
	pf.Bool("verbose", false, "debug logging on stderr")
	pf.String("content-class", types.DefaultContentClass, "class marking readable regions of the HTML")

	f := rootCmd.Flags()
	f.String("model", types.DefaultModel, "model identifier")
	f.Bool("no-translate", false, "write the Markdown without translating")
	f.Int("start-line", 1, "1-indexed paragraph to start translating from")
	f.Int("chunk-size", types.DefaultChunkSize, "target chunk size in characters")
	f.String("backend", string(types.BackendMLX), "model runtime: mlx, ollama, or openai")
	f.String("base-url", "", "model server URL (backend default when empty)")
	f.Bool("resume", false, "continue from OUTPUT.md.progress.yaml")

	for key, flag := range map[string]string{
		"verbose":       "verbose",
		"content_class": "content-class",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
	for key, flag := range map[string]string{
		"model":      "model",
		"chunk_size": "chunk-size",
		"backend":    "backend",
		"base_url":   "base-url",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
}

func initConfig() {
	// A .env file is optional; its variables feed the MDTRANSLATE_ env lookup.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mdtranslate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mdtranslate"))
		}
	}

	viper.SetEnvPrefix("MDTRANSLATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
