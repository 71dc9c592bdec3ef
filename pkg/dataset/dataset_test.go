package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrCodeEU/fisherface/pkg/dataset/datasettest"
	"github.com/MrCodeEU/fisherface/pkg/faceerr"
)

func TestParseManifest(t *testing.T) {
	input := "1 alice faces/a 1.png\n2 bob faces/b.png\r\n1 alice faces/a2.png\n\n3 carol ignored.png\n"

	entries, err := ParseManifest(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries before the blank line, got %d", len(entries))
	}

	want := []Entry{
		{ClassID: 1, PersonName: "alice", Path: "faces/a 1.png", Line: 1},
		{ClassID: 2, PersonName: "bob", Path: "faces/b.png", Line: 2},
		{ClassID: 1, PersonName: "alice", Path: "faces/a2.png", Line: 3},
	}
	for i, w := range want {
		if entries[i] != w {
			t.Errorf("entry %d: expected %+v, got %+v", i, w, entries[i])
		}
	}
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantMsg  string
	}{
		{"no delimiter", "1\n", 1, "missing delimiter after class id"},
		{"no path", "1 alice a.png\n2 bob\n", 2, "missing delimiter after person name"},
		{"non numeric", "x alice a.png\n", 1, "not a number"},
		{"zero id", "1 alice a.png\n0 bob b.png\n", 2, "must be positive"},
		{"negative id", "-4 bob b.png\n", 1, "must be positive"},
		{"empty path", "3 bob \n", 1, "missing image path"},
		{"empty name", "1 alice a.png\n1  alice a.png\n", 2, "empty person name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest(strings.NewReader(tt.input))
			if !errors.Is(err, faceerr.ErrParse) {
				t.Fatalf("expected parse error, got %v", err)
			}
			var fe *faceerr.Error
			if !errors.As(err, &fe) {
				t.Fatalf("expected *faceerr.Error, got %T", err)
			}
			if fe.Line != tt.wantLine {
				t.Errorf("expected line %d, got %d", tt.wantLine, fe.Line)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected %q in %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	manifest := datasettest.WriteManifest(t, dir, 3, 2)

	var calls []int
	loader := NewLoader()
	loader.OnImage = func(done, total int) {
		if total != 6 {
			t.Errorf("expected total 6, got %d", total)
		}
		calls = append(calls, done)
	}

	ds, err := loader.Load(manifest)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(ds.Images) != 6 {
		t.Fatalf("expected 6 images, got %d", len(ds.Images))
	}
	if ds.Width != datasettest.Size || ds.Height != datasettest.Size {
		t.Errorf("expected %dx%d, got %dx%d", datasettest.Size, datasettest.Size, ds.Width, ds.Height)
	}
	if len(calls) != 6 || calls[5] != 6 {
		t.Errorf("unexpected progress calls %v", calls)
	}

	ids := ds.Groups.IDs()
	if fmt.Sprint(ids) != "[1 2 3]" {
		t.Errorf("expected ascending ids [1 2 3], got %v", ids)
	}
	if rows := ds.Groups.Rows(2); fmt.Sprint(rows) != "[2 3]" {
		t.Errorf("expected rows [2 3] for class 2, got %v", rows)
	}

	// pixels come through unchanged for gray PNGs
	want := datasettest.Face(1, 0)
	if got := ds.Images[0].Pixels.At(4, 1); got != float64(want.GrayAt(4, 1).Y) {
		t.Errorf("pixel mismatch: expected %d, got %f", want.GrayAt(4, 1).Y, got)
	}
}

func TestLoader_BaseDir(t *testing.T) {
	dir := t.TempDir()
	datasettest.WritePNG(t, filepath.Join(dir, "a.png"), datasettest.Face(1, 0))

	loader := &Loader{BaseDir: dir}
	ds, err := loader.LoadEntries([]Entry{{ClassID: 1, PersonName: "a", Path: "a.png", Line: 1}})
	if err != nil {
		t.Fatalf("LoadEntries failed: %v", err)
	}
	if ds.Images[0].Path != "a.png" {
		t.Errorf("expected manifest path to be kept, got %s", ds.Images[0].Path)
	}
}

func TestLoader_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	datasettest.WritePNG(t, filepath.Join(dir, "a.png"), datasettest.Face(1, 0))
	datasettest.WritePNG(t, filepath.Join(dir, "b.png"), image.NewGray(image.Rect(0, 0, 12, 8)))

	manifest := filepath.Join(dir, "train.txt")
	content := fmt.Sprintf("1 a %s\n2 b %s\n", filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"))
	if err := os.WriteFile(manifest, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader().Load(manifest)
	if !errors.Is(err, faceerr.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	var fe *faceerr.Error
	errors.As(err, &fe)
	if fe.Expected == nil || *fe.Expected != (faceerr.Dims{Width: 10, Height: 10}) {
		t.Errorf("unexpected expected dims %v", fe.Expected)
	}
	if fe.Actual == nil || *fe.Actual != (faceerr.Dims{Width: 12, Height: 8}) {
		t.Errorf("unexpected actual dims %v", fe.Actual)
	}
	if !strings.HasSuffix(fe.Path, "b.png") {
		t.Errorf("expected offending path, got %s", fe.Path)
	}
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.txt")
	os.WriteFile(empty, []byte("\n1 a a.png\n"), 0644)

	missingImage := filepath.Join(dir, "missing.txt")
	os.WriteFile(missingImage, []byte("1 a "+filepath.Join(dir, "nope.png")+"\n"), 0644)

	garbage := filepath.Join(dir, "garbage.png")
	os.WriteFile(garbage, []byte("not an image"), 0644)
	badImage := filepath.Join(dir, "bad.txt")
	os.WriteFile(badImage, []byte("1 a "+garbage+"\n"), 0644)

	badLine := filepath.Join(dir, "badline.txt")
	os.WriteFile(badLine, []byte("one a a.png\n"), 0644)

	tests := []struct {
		name     string
		manifest string
		want     error
	}{
		{"missing manifest", filepath.Join(dir, "absent.txt"), faceerr.ErrResource},
		{"empty manifest", empty, faceerr.ErrInvalidArgument},
		{"missing image", missingImage, faceerr.ErrResource},
		{"undecodable image", badImage, faceerr.ErrResource},
		{"bad line", badLine, faceerr.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Load(tt.manifest)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadGray_ConvertsColor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rgb.png")
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 200, G: 200, B: 200, A: 255})
	img.Set(1, 0, color.RGBA{A: 255})
	datasettest.WritePNG(t, path, img)

	g, err := LoadGray(path)
	if err != nil {
		t.Fatalf("LoadGray failed: %v", err)
	}
	if g.Width != 2 || g.Height != 1 {
		t.Fatalf("unexpected size %dx%d", g.Width, g.Height)
	}
	if g.At(0, 0) != 200 || g.At(1, 0) != 0 {
		t.Errorf("unexpected pixels %v", g.Pix)
	}
}

func TestLoadProbe(t *testing.T) {
	dir := t.TempDir()

	grayPath := filepath.Join(dir, "gray.png")
	datasettest.WritePNG(t, grayPath, datasettest.Face(2, 1))
	g, err := LoadProbe(grayPath)
	if err != nil {
		t.Fatalf("LoadProbe on gray image failed: %v", err)
	}
	if g.Width != datasettest.Size {
		t.Errorf("unexpected width %d", g.Width)
	}

	rgbPath := filepath.Join(dir, "rgb.png")
	datasettest.WritePNG(t, rgbPath, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if _, err := LoadProbe(rgbPath); !errors.Is(err, faceerr.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for color probe, got %v", err)
	}

	if _, err := LoadProbe(filepath.Join(dir, "absent.png")); !errors.Is(err, faceerr.ErrResource) {
		t.Errorf("expected resource error for missing probe, got %v", err)
	}
}

func TestGray_ToImageClamps(t *testing.T) {
	g := &Gray{Width: 3, Height: 1, Pix: []float64{-5, 127.6, 300}}
	img := g.ToImage()
	if img.GrayAt(0, 0).Y != 0 || img.GrayAt(1, 0).Y != 128 || img.GrayAt(2, 0).Y != 255 {
		t.Errorf("unexpected clamped pixels %v", img.Pix)
	}
}

func TestClassNames_FirstWins(t *testing.T) {
	ds := &Dataset{Images: []Image{
		{ClassID: 2, PersonName: "bob"},
		{ClassID: 1, PersonName: "alice"},
		{ClassID: 2, PersonName: "robert"},
	}}
	names := ds.ClassNames()
	if names[2] != "bob" || names[1] != "alice" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestManifestWriter(t *testing.T) {
	w := NewManifestWriter("/data/faces")
	w.Add("José María", "jm1.png")
	w.Add("Bob", "/abs/bob.png")
	w.Add("José  María", "jm2.png")
	w.Add("jose maria", "other.png")

	entries := w.Entries()
	// folding is case and spacing sensitive, so all three spellings differ
	if entries[0].ClassID != 1 || entries[1].ClassID != 2 || entries[2].ClassID != 3 || entries[3].ClassID != 4 {
		t.Errorf("unexpected ids %+v", entries)
	}
	if entries[0].PersonName != "Jose_Maria" {
		t.Errorf("expected folded name Jose_Maria, got %s", entries[0].PersonName)
	}
	if entries[2].PersonName != "Jose__Maria" {
		t.Errorf("expected each space folded, got %s", entries[2].PersonName)
	}
	if entries[1].Path != "/abs/bob.png" {
		t.Errorf("absolute paths must not be joined, got %s", entries[1].Path)
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	parsed, err := ParseManifest(&buf)
	if err != nil {
		t.Fatalf("generated manifest does not parse: %v", err)
	}
	if len(parsed) != 4 || parsed[0].Path != "/data/faces/jm1.png" {
		t.Errorf("unexpected parsed manifest %+v", parsed)
	}
}

func TestManifestWriter_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.txt")

	if err := NewManifestWriter("").WriteFile(path); !errors.Is(err, faceerr.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for empty writer, got %v", err)
	}

	w := NewManifestWriter("")
	w.Add("alice", "a.png")
	if err := w.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "1 alice a.png\n" {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestFoldName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ana", "Ana"},
		{" Zoë Ñúñez ", "Zoe_Nunez"},
		{"李", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := FoldName(tt.in); got != tt.want {
			t.Errorf("FoldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
