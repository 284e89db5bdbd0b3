package main

import (
	"os"
	"strconv"

	"edubba/domain/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options are shared by every subcommand.
type options struct {
	environment  string
	registryFile string
	strict       bool
	maxEdges     int
	verbose      bool

	domainCfg *config.DomainConfig
	logger    *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "edubba",
		Short:         "Build and validate Edubba memory nodes",
		Long:          longRoot,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}

	root.PersistentFlags().StringVar(
		&opts.environment,
		"env",
		envOr("ENVIRONMENT", "development"),
		"validation profile: development, production or anything else for defaults",
	)
	root.PersistentFlags().StringVar(
		&opts.registryFile,
		"registry",
		os.Getenv("EMBEDDING_REGISTRY_FILE"),
		"YAML file with additional embedding models",
	)
	root.PersistentFlags().BoolVar(
		&opts.strict,
		"strict-digests",
		os.Getenv("STRICT_DIGESTS") == "true",
		"require hexadecimal contribution hashes and checksums",
	)
	root.PersistentFlags().IntVar(
		&opts.maxEdges,
		"max-edges",
		envInt("MAX_EDGES_PER_NODE"),
		"reject nodes with more causal edges than this (0 is unlimited)",
	)
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newDemoCmd(opts),
		newValidateCmd(opts),
		newHashCmd(opts),
		newModelsCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

func (o *options) init() error {
	o.logger = zap.NewNop()
	if o.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		o.logger = logger
	}

	cfg, err := config.LoadDomainConfig(o.environment).
		WithOptionalRules(o.strict, o.maxEdges).
		WithRegistryFile(o.registryFile)
	if err != nil {
		return err
	}
	o.domainCfg = cfg

	o.logger.Debug("Domain configuration loaded",
		zap.String("environment", o.environment),
		zap.Bool("strictDigests", cfg.StrictDigests),
		zap.Int("maxEdges", cfg.MaxEdgesPerNode),
	)
	return nil
}

func envInt(key string) int {
	n, _ := strconv.Atoi(os.Getenv(key))
	return n
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var longRoot = `
Offline tooling for Edubba memory nodes. Every command runs the same
validation the API applies, using the selected profile.

Examples:
  # Build the reference node.
  edubba demo

  # Report every violation in a stored node.
  edubba validate node.json
`
