package dataset

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/MrCodeEU/fisherface/pkg/faceerr"
)

// ManifestWriter builds a manifest from (person, file) pairs. Class ids are
// assigned to folded person names in first-seen order, starting at 1.
type ManifestWriter struct {
	BaseDir string

	ids     map[string]int
	entries []Entry
}

// NewManifestWriter creates a writer that joins baseDir to every file name.
func NewManifestWriter(baseDir string) *ManifestWriter {
	return &ManifestWriter{BaseDir: baseDir, ids: make(map[string]int)}
}

// Add records one image of person and returns the resulting entry.
func (w *ManifestWriter) Add(person, file string) Entry {
	name := FoldName(person)
	id, ok := w.ids[name]
	if !ok {
		id = len(w.ids) + 1
		w.ids[name] = id
	}
	path := file
	if w.BaseDir != "" && !filepath.IsAbs(file) {
		path = filepath.Join(w.BaseDir, file)
	}
	e := Entry{ClassID: id, PersonName: name, Path: path, Line: len(w.entries) + 1}
	w.entries = append(w.entries, e)
	return e
}

// Entries returns the recorded entries in insertion order.
func (w *ManifestWriter) Entries() []Entry {
	out := make([]Entry, len(w.entries))
	copy(out, w.entries)
	return out
}

// WriteTo writes the manifest to out.
func (w *ManifestWriter) WriteTo(out io.Writer) (int64, error) {
	bw := bufio.NewWriter(out)
	var n int64
	for _, e := range w.entries {
		c, err := bw.WriteString(FormatEntry(e) + "\n")
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// WriteFile writes the manifest to path.
func (w *ManifestWriter) WriteFile(path string) error {
	if len(w.entries) == 0 {
		return faceerr.InvalidArgument("dataset.WriteFile", "no entries to write")
	}
	f, err := os.Create(path)
	if err != nil {
		return faceerr.Resource("dataset.WriteFile", "cannot create manifest", err).WithPath(path)
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return faceerr.Resource("dataset.WriteFile", "cannot write manifest", err).WithPath(path)
	}
	return f.Close()
}

// FoldName turns a person name into a manifest token: diacritics are
// stripped, whitespace becomes '_' and remaining non-ASCII runes are dropped.
func FoldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r > unicode.MaxASCII || !unicode.IsPrint(r):
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
