// Package datasettest writes small synthetic face datasets for tests.
package datasettest

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Size is the width and height of generated faces.
const Size = 10

// Face returns a Size×Size gray image for class (1-based) with deterministic
// noise chosen by variant. Each class lights a different band of rows, so
// classes are far apart while images of one class differ only by noise.
func Face(class, variant int) *image.Gray {
	rng := rand.New(rand.NewSource(int64(class*1000 + variant)))
	img := image.NewGray(image.Rect(0, 0, Size, Size))
	band := (class - 1) * 3
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			base := 40
			if y >= band && y < band+3 {
				base = 220
			}
			img.SetGray(x, y, color.Gray{Y: uint8(base + rng.Intn(7) - 3)})
		}
	}
	return img
}

// WritePNG encodes img to path.
func WritePNG(t testing.TB, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// WriteManifest writes classes×perClass faces into dir and returns the path
// of a manifest listing them. Person names are "person<class>".
func WriteManifest(t testing.TB, dir string, classes, perClass int) string {
	t.Helper()
	var b strings.Builder
	for c := 1; c <= classes; c++ {
		for v := 0; v < perClass; v++ {
			path := filepath.Join(dir, fmt.Sprintf("s%d_%d.png", c, v))
			WritePNG(t, path, Face(c, v))
			fmt.Fprintf(&b, "%d person%d %s\n", c, c, path)
		}
	}
	manifest := filepath.Join(dir, "train.txt")
	if err := os.WriteFile(manifest, []byte(b.String()), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return manifest
}
