package main

import (
	"compress/bzip2"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/MrCodeEU/fisherface/pkg/detect"
	"github.com/MrCodeEU/fisherface/pkg/logging"
)

const pigoCascadeURL = "https://raw.githubusercontent.com/esimov/pigo/master/cascade/facefinder"

var downloadCmd = &cobra.Command{
	Use:   "download-models",
	Short: "Download dlib models and the pigo face cascade",
	Long: `Download the face detection models used by 'fisherface preprocess'
into detection.dlib_model_path and detection.cascade_path. Existing files are
kept.`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

var downloadSkipDlib bool

func init() {
	downloadCmd.Flags().BoolVar(&downloadSkipDlib, "skip-dlib", false, "Only fetch the pigo cascade")
	rootCmd.AddCommand(downloadCmd)
}

type download struct {
	Name   string
	URL    string
	Target string
	Bzip2  bool
}

func runDownload(cmd *cobra.Command, args []string) error {
	modelDir := cfg.Detection.DlibModelPath
	downloads := []download{
		{Name: "pigo facefinder", URL: pigoCascadeURL, Target: cfg.Detection.CascadePath},
	}
	if !downloadSkipDlib {
		for _, name := range detect.DlibModelFiles {
			downloads = append(downloads, download{
				Name:   name,
				URL:    "http://dlib.net/files/" + name + ".bz2",
				Target: filepath.Join(modelDir, name),
				Bzip2:  true,
			})
		}
	}

	for _, d := range downloads {
		if _, err := os.Stat(d.Target); err == nil {
			logging.Infof("%s already exists, skipping", d.Target)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(d.Target), 0755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}

		logging.Infof("Downloading %s...", d.Name)
		if err := fetch(d); err != nil {
			return fmt.Errorf("failed to download %s: %w", d.Name, err)
		}
	}

	fmt.Println("All models downloaded.")
	return nil
}

func fetch(d download) error {
	client := &http.Client{
		Timeout: 10 * time.Minute,
	}

	resp, err := client.Get(d.URL)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	// Renamed into place only once complete.
	tmp := d.Target + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	bar := progressbar.DefaultBytes(resp.ContentLength, d.Name)
	var body io.Reader = io.TeeReader(resp.Body, bar)
	if d.Bzip2 {
		body = bzip2.NewReader(body)
	}

	if _, err := io.Copy(out, body); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, d.Target)
}
