package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/ats-matcher/internal/config"
	"alfredoptarigan/ats-matcher/internal/logger"
	"alfredoptarigan/ats-matcher/internal/services"
)

const app = "atsctl"

// Actual version can be specified in build command.
var version = "unknown"

type rootOptions struct {
	debug   bool
	jsonLog bool
}

// NewRootCommand assembles the atsctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           app,
		Short:         "atsctl analyzes resumes against job descriptions and manages screening guidelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")
	root.PersistentFlags().BoolVar(&opts.jsonLog, "json-log", false, "json format for logging")

	root.AddCommand(
		newAnalyzeCommand(opts),
		newIngestCommand(opts),
		newVersionCommand(),
	)

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
		},
	}
}

// setup loads configuration and builds the logger shared by every subcommand.
func (o *rootOptions) setup() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(o.jsonLog, o.debug)
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}

	return cfg, log, nil
}

// openGuidelines connects to the guideline index when RAG is enabled, so local
// analyses see the same screening guidelines as the server. A nil index
// disables retrieval.
func openGuidelines(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.GuidelineIndex, error) {
	if !cfg.Qdrant.Enabled {
		return nil, nil
	}

	index, err := services.NewGuidelineIndex(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		return nil, err
	}
	if err := index.InitCollection(ctx); err != nil {
		return nil, err
	}
	return index, nil
}
