/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/deepler/internal/config"
	"github.com/valpere/deepler/internal/deepl"
	"github.com/valpere/deepler/internal/logging"
)

var (
	cfgFile string
	envFile string

	cfg    *config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "deepler",
	Short: "CLI client for the DeepL translation API",
	Long: `A CLI client for the DeepL v2 API: text and document translation,
glossaries, supported languages and account usage.

The auth key is read from DEEPL_AUTH_KEY (or --auth-key). Keys ending in ":fx"
use the free endpoint unless --server-url is given.

Use "deepler translate --help" for translation options.`,
	Version:       deepl.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := viper.New()
		for key, flag := range map[string]string{
			"auth_key":    "auth-key",
			"server_url":  "server-url",
			"user_agent":  "user-agent",
			"timeout":     "timeout",
			"json_bodies": "json",
			"db_path":     "db",
			"log_level":   "log-level",
			"concurrency": "concurrency",
		} {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}

		loaded, err := config.Load(v, cfgFile, envFile)
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(cfg.Environment, cfg.LogLevel)
		if err != nil {
			return err
		}
		logger.Debug().Str("server_url", cfg.ServerURL).Str("db", cfg.DBPath).Msg("configuration loaded")
		return nil
	},
}

// Execute runs the root command. Ctrl-C cancels in-flight requests and
// polling; jobs already uploaded keep running on the service.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default $HOME/.deepler.yaml)")
	pf.StringVar(&envFile, "env-file", ".env", "Dotenv file with DEEPL_* variables")
	pf.String("auth-key", "", "DeepL auth key (env DEEPL_AUTH_KEY)")
	pf.String("server-url", "", "API root, e.g. https://api.deepl.com/v2 (env DEEPL_SERVER_URL)")
	pf.String("user-agent", deepl.DefaultUserAgent, "User-Agent header (env DEEPL_USER_AGENT)")
	pf.Duration("timeout", deepl.DefaultTimeout, "Per-request timeout (env DEEPL_TIMEOUT)")
	pf.Bool("json", false, "Send text translation requests as JSON (env DEEPL_JSON_BODIES)")
	pf.String("db", "deepler.db", "SQLite registry of uploaded documents (env DEEPL_DB_PATH)")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error (env DEEPL_LOG_LEVEL)")
	pf.Int("concurrency", 4, "Documents translated at once by 'document translate' (env DEEPL_CONCURRENCY)")
}
