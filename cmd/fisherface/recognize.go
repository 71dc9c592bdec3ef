package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrCodeEU/fisherface/pkg/recognition"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <probe> <model>",
	Short: "Identify a pre-processed face image",
	Long: `Identify a single-channel face image that has the same size as the
training images (see 'fisherface preprocess').

The classifier is taken from recognition.classifier unless --classifier is
given: fisher (default), euclidean or mahalanobis.`,
	Args: cobra.ExactArgs(2),
	RunE: runRecognize,
}

var recognizeClassifier string

func init() {
	recognizeCmd.Flags().StringVar(&recognizeClassifier, "classifier", "", "Override recognition.classifier")
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	name := cfg.Recognition.Classifier
	if recognizeClassifier != "" {
		name = recognizeClassifier
	}
	classifier, err := recognition.NewClassifier(name)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	r := recognition.NewRecognizer(store, classifier)
	r.SetThresholdScale(cfg.Recognition.ThresholdScale)
	if err := r.LoadModel(modelPath(store, args[1])); err != nil {
		return err
	}
	if err := r.ProjectProbeFile(args[0]); err != nil {
		return err
	}
	res, err := r.Classify(0)
	if err != nil {
		return err
	}

	if res.Accepted {
		fmt.Printf("Match: %s (class %d)\n", res.PersonName, res.ClassID)
	} else {
		fmt.Println("No match")
	}
	fmt.Printf("  Distance:   %.6g\n", res.Distance)
	fmt.Printf("  Threshold:  %.6g\n", res.Threshold)
	fmt.Printf("  Classifier: %s\n", res.Classifier)
	return nil
}
