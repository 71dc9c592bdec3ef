package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/MrCodeEU/fisherface/pkg/detect"
	"github.com/MrCodeEU/fisherface/pkg/logging"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <in> <out>",
	Short: "Detect, crop and normalize faces",
	Long: `Detect the single face in a photo, crop it, convert it to grayscale,
resize it to detection.face_width x detection.face_height and equalize its
histogram.

When <in> is a directory every image in it is processed and written to the
<out> directory with a .png extension.`,
	Args: cobra.ExactArgs(2),
	RunE: runPreprocess,
}

var preprocessBackend string

func init() {
	preprocessCmd.Flags().StringVar(&preprocessBackend, "backend", "", "Override detection.backend (auto, dlib, pigo)")
	rootCmd.AddCommand(preprocessCmd)
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	dcfg := cfg.Detection
	if preprocessBackend != "" {
		dcfg.Backend = preprocessBackend
	}
	d, err := detect.New(dcfg)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	in, out := args[0], args[1]
	info, err := os.Stat(in)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return preprocessFile(d, in, out)
	}

	entries, err := os.ReadDir(in)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && isImage(e.Name()) {
			files = append(files, e.Name())
		}
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Preprocessing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)
	failed := 0
	for _, name := range files {
		target := filepath.Join(out, strings.TrimSuffix(name, filepath.Ext(name))+".png")
		if err := preprocessFile(d, filepath.Join(in, name), target); err != nil {
			logging.Component("preprocess").WithError(err).WithField("file", name).Warn("skipping image")
			failed++
		}
		_ = bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Processed %d of %d images\n", len(files)-failed, len(files))
	if failed > 0 {
		return fmt.Errorf("%d images could not be processed", failed)
	}
	return nil
}

func preprocessFile(d detect.Detector, in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	face, err := d.DetectAndNormalize(data)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	return imaging.Save(face, out)
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".gif":
		return true
	}
	return false
}
