package main

import (
	"path/filepath"
	"testing"

	"github.com/MrCodeEU/fisherface/pkg/model"
)

func TestModelPath(t *testing.T) {
	dir := t.TempDir()
	store, err := model.NewStore(dir, false)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		arg  string
		want string
	}{
		{"faces", store.ModelPath("faces")},
		{"faces.yml", "faces.yml"},
		{filepath.Join("models", "faces"), filepath.Join("models", "faces")},
	}
	for _, tt := range tests {
		if got := modelPath(store, tt.arg); got != tt.want {
			t.Errorf("modelPath(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}

func TestIsImage(t *testing.T) {
	tests := map[string]bool{
		"a.png":      true,
		"b.JPG":      true,
		"c.pgm":      false,
		"manifest":   false,
		"notes.txt":  false,
		"dir/d.jpeg": true,
	}
	for name, want := range tests {
		if got := isImage(name); got != want {
			t.Errorf("isImage(%q) = %v, want %v", name, got, want)
		}
	}
}
