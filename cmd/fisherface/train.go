package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/MrCodeEU/fisherface/pkg/linalg"
	"github.com/MrCodeEU/fisherface/pkg/training"
)

var trainCmd = &cobra.Command{
	Use:   "train <manifest> <model>",
	Short: "Train a Fisherface model from a manifest",
	Long: `Train a Fisherface model from the images listed in a manifest.

<model> is either a file path or a bare name; bare names are stored in the
models directory under the configured data dir. At least three classes and
more images than classes are required.`,
	Args: cobra.ExactArgs(2),
	RunE: runTrain,
}

var trainBaseDir string

func init() {
	trainCmd.Flags().StringVar(&trainBaseDir, "base-dir", "", "Directory that relative image paths are resolved against")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	out := modelPath(store, args[1])

	backend := linalg.NewGonum()
	backend.MaxCondition = cfg.Training.MaxCondition

	t := training.New(backend, store)
	t.Loader.BaseDir = trainBaseDir
	if cfg.Training.ShowProgress {
		var bar *progressbar.ProgressBar
		t.Loader.OnImage = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Loading images"),
					progressbar.OptionShowCount(),
					progressbar.OptionShowElapsedTimeOnFinish(),
					progressbar.OptionFullWidth(),
				)
			}
			_ = bar.Set(done)
			if done == total {
				_ = bar.Finish()
				fmt.Println()
			}
		}
	}

	if err := t.Run(args[0], out); err != nil {
		return err
	}

	m := t.Model()
	fmt.Printf("Trained model %s\n", m.ModelID)
	fmt.Printf("  Images:      %d\n", m.NumImages())
	fmt.Printf("  Classes:     %d\n", m.NumClasses())
	fmt.Printf("  Eigenfaces:  %d\n", m.NumEigens())
	fmt.Printf("  Fisherfaces: %d\n", m.NumFisherFaces())
	fmt.Printf("  Threshold:   %.6g\n", m.EuclideanThreshold)
	fmt.Printf("Saved to %s\n", out)
	return nil
}
