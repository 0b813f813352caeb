// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"malpha/internal/config"
	"malpha/internal/httputil"
	"malpha/internal/metadata"
	"malpha/internal/platform"
	"malpha/internal/resolve"
)

// Version is set at build time via ldflags.
var Version = "dev"

// downloadToConfigDir is the value --download takes when given without a
// directory.
const downloadToConfigDir = "@config"

// Global flags
var (
	flagDownload string
	flagAll      bool
	flagPlatform string
	flagTimeout  string
	flagJSON     bool
	flagDebug    bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

// logger is the configured standard logger.
var logger = logrus.StandardLogger()

var rootCmd = &cobra.Command{
	Use:   "malpha <url>",
	Short: "Resolve social media links to downloadable media",
	Long: `Malpha turns an Instagram, Facebook, TikTok or Pinterest post link into
direct media links by asking a list of extraction mirrors in order.
Print the result, download it, or serve the resolver over HTTP.`,
	Example: `  malpha https://www.instagram.com/reel/abc/
  malpha --json https://www.tiktok.com/@user/video/123
  malpha --download=~/Videos --all https://www.instagram.com/p/abc/`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: loadConfig,
	RunE:              resolveRun,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "malpha:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&flagDownload, "download", "d", "", "Download to a directory (default: download_dir from config)")
	rootCmd.Flags().Lookup("download").NoOptDefVal = downloadToConfigDir
	rootCmd.Flags().BoolVar(&flagAll, "all", false, "Download every source instead of choosing one")

	rootCmd.PersistentFlags().StringVarP(&flagPlatform, "platform", "p", "", "Accepted platform: "+strings.Join(platform.Names(), " | "))
	rootCmd.PersistentFlags().StringVarP(&flagTimeout, "timeout", "t", "", "Per-attempt timeout, e.g. 8s")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(instancesCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagPlatform != "" {
		cfg.Platform = strings.ToLower(flagPlatform)
	}
	if flagTimeout != "" {
		cfg.AttemptTimeout = flagTimeout
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogging(cfg)
	return nil
}

func setupLogging(c *config.Config) {
	logger.SetOutput(os.Stderr)
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !c.Debug})
	}
	if c.Debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

// newClient builds the shared HTTP client, routed through the configured proxy.
func newClient() (httputil.Doer, error) {
	client, err := httputil.NewProxiedClient(cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("configuring proxy: %w", err)
	}
	return client, nil
}

// newResolver builds a Resolver from the loaded configuration.
func newResolver(client httputil.Doer) (*resolve.Resolver, error) {
	plat, err := cfg.ResolvePlatform()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.AttemptTimeoutDuration()
	if err != nil {
		return nil, err
	}

	opts := resolve.Options{
		Platform:       plat,
		Strategies:     strategies(cfg.Strategies),
		AttemptTimeout: timeout,
		Client:         client,
		UserAgent:      cfg.UserAgent,
		APIKey:         cfg.APIKey,
		Logger:         logger,
	}
	if cfg.Enrich {
		opts.Enricher = metadata.NewEnricher(client, logger)
	}

	r := resolve.New(opts)
	logger.Debugf("using %s", r)
	return r, nil
}

func strategies(in []config.Strategy) []resolve.Strategy {
	return lo.Map(in, func(s config.Strategy, _ int) resolve.Strategy {
		return resolve.Strategy{
			Name:      s.Name,
			Mode:      resolve.Mode(s.Mode),
			Endpoints: s.Endpoints,
			Paths:     s.Paths,
		}
	})
}
