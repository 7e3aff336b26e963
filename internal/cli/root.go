// Package cli implements faqctl, the offline corpus tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/config"
	logpkg "github.com/kailas-cloud/faqdex/internal/logger"
)

// options are the persistent flags shared by all commands.
type options struct {
	cfgFile  string
	env      string
	logLevel string
}

// NewRootCmd builds the faqctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "faqctl",
		Short: "Build and inspect FAQ corpora",
		Long: `faqctl turns topic source files into the precomputed corpus served by faqdex.

Example usage:
  faqctl build --src training_data --out qa_data_with_embeddings.json
  faqctl validate qa_data_with_embeddings.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./config/<env>.yaml)")
	root.PersistentFlags().StringVar(&opts.env, "env", "", "environment name (default is $ENV or local)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(newBuildCmd(opts), newValidateCmd())
	return root
}

// Execute runs faqctl and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func (o *options) loadConfig() (config.Config, error) {
	if o.cfgFile != "" {
		return config.LoadFile(o.cfgFile)
	}
	env := o.env
	if env == "" {
		env = config.GetEnv()
	}
	return config.Load(env)
}

func (o *options) logger() (*zap.Logger, error) {
	return logpkg.NewLogger("local", o.logLevel)
}
