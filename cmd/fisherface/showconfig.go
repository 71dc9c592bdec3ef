package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long: `Show the effective configuration.

Configuration is read from --config, /etc/fisherface/fisherface.yaml or
~/.config/fisherface/fisherface.yaml, then overridden by FISHERFACE_*
environment variables (a .env file in the working directory is loaded first).`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Current Configuration:")
		fmt.Println("======================")
		fmt.Println()
		fmt.Println("[Training]")
		fmt.Printf("  Max Condition:   %g\n", cfg.Training.MaxCondition)
		fmt.Printf("  Show Progress:   %t\n", cfg.Training.ShowProgress)
		fmt.Println()
		fmt.Println("[Recognition]")
		fmt.Printf("  Classifier:      %s\n", cfg.Recognition.Classifier)
		fmt.Printf("  Threshold Scale: %.2f\n", cfg.Recognition.ThresholdScale)
		fmt.Println()
		fmt.Println("[Detection]")
		fmt.Printf("  Backend:         %s\n", cfg.Detection.Backend)
		fmt.Printf("  Dlib Models:     %s\n", cfg.Detection.DlibModelPath)
		fmt.Printf("  Pigo Cascade:    %s\n", cfg.Detection.CascadePath)
		fmt.Printf("  Face Size:       %dx%d\n", cfg.Detection.FaceWidth, cfg.Detection.FaceHeight)
		fmt.Printf("  Min Face Size:   %d\n", cfg.Detection.MinFaceSize)
		fmt.Printf("  Equalize:        %t\n", cfg.Detection.Equalize)
		fmt.Println()
		fmt.Println("[Storage]")
		fmt.Printf("  Data Dir:        %s\n", cfg.Storage.DataDir)
		fmt.Printf("  Models:          %s\n", cfg.ModelDir())
		fmt.Printf("  Encryption:      %t\n", cfg.Storage.EncryptionEnabled)
		fmt.Println()
		fmt.Println("[Logging]")
		fmt.Printf("  Level:           %s\n", cfg.Logging.Level)
		fmt.Printf("  File:            %s\n", cfg.Logging.File)
		fmt.Printf("  Format:          %s\n", cfg.Logging.Format)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
