// Command fisherface trains Fisherface models from labelled face images and
// recognizes probe faces against them.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrCodeEU/fisherface/pkg/config"
	"github.com/MrCodeEU/fisherface/pkg/logging"
	"github.com/MrCodeEU/fisherface/pkg/model"
)

var (
	cfg        *config.Config
	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "fisherface",
	Short: "Fisherface (PCA + LDA) face recognition",
	Long: `fisherface trains a Fisherface model from a manifest of labelled,
pre-processed face images and identifies probe faces against it.

Manifest lines have the form "<classId> <personName> <imagePath>".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Validate()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.WithError(err).Debug("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	cfg.ApplyEnv()
	cfg.ExpandPaths()

	logLevel := cfg.Logging.Level
	if debug {
		logLevel = "debug"
	}
	if err := logging.Init(logLevel, cfg.Logging.File, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
	}

	logging.Debugf("fisherface %s starting, data dir: %s", Version, cfg.Storage.DataDir)
}

func openStore() (*model.Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	return model.NewStore(cfg.ModelDir(), cfg.Storage.EncryptionEnabled)
}

// modelPath treats a bare name as a model in the data directory and anything
// that looks like a path as a file.
func modelPath(store *model.Store, arg string) string {
	if strings.ContainsRune(arg, os.PathSeparator) || filepath.Ext(arg) != "" {
		return arg
	}
	return store.ModelPath(arg)
}
