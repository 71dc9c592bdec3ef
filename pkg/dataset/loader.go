// Package dataset loads labeled face images described by a manifest file and
// groups them by class for training.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/MrCodeEU/fisherface/pkg/faceerr"
	"github.com/MrCodeEU/fisherface/pkg/logging"
)

// Image is one labeled training image.
type Image struct {
	ClassID    int
	PersonName string
	Path       string
	Pixels     *Gray
}

// ClassGroup maps each class id to the rows of its images.
type ClassGroup struct {
	rows map[int][]int
	ids  []int
}

// NewClassGroup builds the grouping for images labeled classIDs[row].
func NewClassGroup(classIDs []int) *ClassGroup {
	g := &ClassGroup{rows: make(map[int][]int)}
	for row, id := range classIDs {
		if _, ok := g.rows[id]; !ok {
			g.ids = append(g.ids, id)
		}
		g.rows[id] = append(g.rows[id], row)
	}
	sort.Ints(g.ids)
	return g
}

// IDs returns the class ids in ascending order.
func (g *ClassGroup) IDs() []int {
	out := make([]int, len(g.ids))
	copy(out, g.ids)
	return out
}

// Rows returns the rows belonging to class id.
func (g *ClassGroup) Rows(id int) []int {
	return g.rows[id]
}

// NumClasses returns the number of distinct classes.
func (g *ClassGroup) NumClasses() int {
	return len(g.ids)
}

// Dataset is the result of loading a manifest.
type Dataset struct {
	Images []Image
	Groups *ClassGroup
	Width  int
	Height int
}

// Grays returns the pixel buffers in row order.
func (d *Dataset) Grays() []*Gray {
	out := make([]*Gray, len(d.Images))
	for i := range d.Images {
		out[i] = d.Images[i].Pixels
	}
	return out
}

// ClassIDs returns the class id of every row.
func (d *Dataset) ClassIDs() []int {
	out := make([]int, len(d.Images))
	for i := range d.Images {
		out[i] = d.Images[i].ClassID
	}
	return out
}

// Paths returns the image path of every row.
func (d *Dataset) Paths() []string {
	out := make([]string, len(d.Images))
	for i := range d.Images {
		out[i] = d.Images[i].Path
	}
	return out
}

// ClassNames returns the person name of every class. When a class id was
// listed with several names the first one wins.
func (d *Dataset) ClassNames() map[int]string {
	log := logging.Component("dataset")
	names := make(map[int]string)
	for _, img := range d.Images {
		prev, ok := names[img.ClassID]
		if !ok {
			names[img.ClassID] = img.PersonName
			continue
		}
		if prev != img.PersonName {
			log.WithFields(logging.Fields{
				"class": img.ClassID,
				"kept":  prev,
				"name":  img.PersonName,
			}).Warn("class listed with more than one person name")
		}
	}
	return names
}

// Loader reads manifests and their images.
type Loader struct {
	// BaseDir, when set, is joined to relative image paths.
	BaseDir string

	// OnImage is called after each image is decoded.
	OnImage func(done, total int)
}

// NewLoader creates a loader that resolves paths against the working directory.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the manifest at manifestPath and decodes every image it lists.
func (l *Loader) Load(manifestPath string) (*Dataset, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, faceerr.Resource("dataset.Load", "cannot open manifest", err).WithPath(manifestPath)
	}
	defer f.Close()

	entries, err := ParseManifest(f)
	if err != nil {
		if fe, ok := err.(*faceerr.Error); ok && fe.Path == "" {
			fe.WithPath(manifestPath)
		}
		return nil, err
	}
	return l.LoadEntries(entries)
}

// LoadEntries decodes the images of already parsed entries. Every image must
// share the dimensions of the first.
func (l *Loader) LoadEntries(entries []Entry) (*Dataset, error) {
	const op = "dataset.Load"
	log := logging.Component("dataset")

	if len(entries) == 0 {
		return nil, faceerr.InvalidArgument(op, "manifest lists no images")
	}

	ds := &Dataset{Images: make([]Image, 0, len(entries))}
	for i, e := range entries {
		path := l.resolve(e.Path)
		pix, err := LoadGray(path)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			ds.Width, ds.Height = pix.Width, pix.Height
		} else if pix.Width != ds.Width || pix.Height != ds.Height {
			return nil, faceerr.DimensionMismatch(op,
				fmt.Sprintf("image on line %d differs in size from the first image", e.Line),
				faceerr.Dims{Width: ds.Width, Height: ds.Height}, pix.Dims()).WithPath(path)
		}

		ds.Images = append(ds.Images, Image{
			ClassID:    e.ClassID,
			PersonName: e.PersonName,
			Path:       e.Path,
			Pixels:     pix,
		})
		log.WithFields(logging.Fields{"class": e.ClassID, "path": path}).Debug("image loaded")

		if l.OnImage != nil {
			l.OnImage(i+1, len(entries))
		}
	}

	ds.Groups = NewClassGroup(ds.ClassIDs())
	log.WithFields(logging.Fields{
		"images":  len(ds.Images),
		"classes": ds.Groups.NumClasses(),
		"size":    fmt.Sprintf("%dx%d", ds.Width, ds.Height),
	}).Info("dataset loaded")
	return ds, nil
}

func (l *Loader) resolve(path string) string {
	if l.BaseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.BaseDir, path)
}
