// Package model defines the persisted Fisherface model and its on-disk store.
package model

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/MrCodeEU/fisherface/pkg/dataset"
	"github.com/MrCodeEU/fisherface/pkg/faceerr"
	"github.com/MrCodeEU/fisherface/pkg/lda"
	"github.com/MrCodeEU/fisherface/pkg/pca"
)

// Model is everything recognition needs from a training run.
type Model struct {
	ModelID   string
	CreatedAt time.Time

	// ImagePaths and ClassIDs describe the training images, one per row.
	ImagePaths []string
	ClassIDs   []int

	// Classes lists the class ids in ascending order; PersonNames matches it.
	Classes     []int
	PersonNames []string

	AverageImage *dataset.Gray
	EigenVectors []*dataset.Gray
	EigenValues  []float64

	// ProjectedFaces is nImages × nEigens.
	ProjectedFaces   *mat.Dense
	AverageProjected []float64

	// LDAVectors is nFisherFaces × nEigens.
	LDAVectors *mat.Dense
	LDAValues  []float64
	// ClassProjections is nClasses × nFisherFaces.
	ClassProjections *mat.Dense

	EuclideanThreshold    float64
	PCAEuclideanThreshold float64
	MahalanobisThreshold  float64
}

// NumImages returns the number of training images.
func (m *Model) NumImages() int { return len(m.ImagePaths) }

// NumClasses returns the number of classes.
func (m *Model) NumClasses() int { return len(m.Classes) }

// NumEigens returns the PCA dimension.
func (m *Model) NumEigens() int { return len(m.EigenVectors) }

// NumFisherFaces returns the Fisher dimension.
func (m *Model) NumFisherFaces() int {
	if m.LDAVectors == nil {
		return 0
	}
	r, _ := m.LDAVectors.Dims()
	return r
}

// Dims returns the image size the model was trained on.
func (m *Model) Dims() faceerr.Dims {
	if m.AverageImage == nil {
		return faceerr.Dims{}
	}
	return m.AverageImage.Dims()
}

// Validate checks that every count agrees with the data it describes.
func (m *Model) Validate() error {
	const op = "model.Validate"
	corrupt := func(format string, args ...interface{}) error {
		return faceerr.CorruptModel(op, fmt.Sprintf(format, args...))
	}

	nImages := m.NumImages()
	nClasses := m.NumClasses()
	nEigens := m.NumEigens()

	if nImages == 0 {
		return corrupt("model has no images")
	}
	if len(m.ClassIDs) != nImages {
		return corrupt("%d class labels for %d images", len(m.ClassIDs), nImages)
	}
	if nClasses == 0 {
		return corrupt("model has no classes")
	}
	if len(m.PersonNames) != nClasses {
		return corrupt("%d person names for %d classes", len(m.PersonNames), nClasses)
	}
	known := make(map[int]bool, nClasses)
	for i, id := range m.Classes {
		if id <= 0 {
			return corrupt("class id %d is not positive", id)
		}
		if i > 0 && id <= m.Classes[i-1] {
			return corrupt("class ids are not strictly ascending at index %d", i)
		}
		known[id] = true
	}
	for i, id := range m.ClassIDs {
		if !known[id] {
			return corrupt("image %d has unknown class %d", i, id)
		}
	}

	if m.AverageImage == nil || len(m.AverageImage.Pix) == 0 ||
		len(m.AverageImage.Pix) != m.AverageImage.Width*m.AverageImage.Height {
		return corrupt("average image is missing or malformed")
	}
	if nEigens != nImages-nClasses {
		return corrupt("%d eigenvectors, expected nImages-nClasses = %d", nEigens, nImages-nClasses)
	}
	if len(m.EigenValues) != nEigens {
		return corrupt("%d eigenvalues for %d eigenvectors", len(m.EigenValues), nEigens)
	}
	for i, v := range m.EigenVectors {
		if v == nil || !v.SameSize(m.AverageImage) || len(v.Pix) != len(m.AverageImage.Pix) {
			return corrupt("eigenvector %d does not match the image size", i)
		}
	}
	if len(m.AverageProjected) != nEigens {
		return corrupt("average projection has %d components, expected %d", len(m.AverageProjected), nEigens)
	}
	if err := checkDims("projected face matrix", m.ProjectedFaces, nImages, nEigens); err != nil {
		return err
	}

	nFisher := m.NumFisherFaces()
	if nFisher != nClasses-1 {
		return corrupt("%d fisherfaces for %d classes", nFisher, nClasses)
	}
	if err := checkDims("LDA eigenvectors", m.LDAVectors, nFisher, nEigens); err != nil {
		return err
	}
	if len(m.LDAValues) != nFisher {
		return corrupt("%d LDA eigenvalues for %d fisherfaces", len(m.LDAValues), nFisher)
	}
	return checkDims("class projections", m.ClassProjections, nClasses, nFisher)
}

func checkDims(name string, d *mat.Dense, rows, cols int) error {
	if d == nil {
		return faceerr.CorruptModel("model.Validate", name+" is missing")
	}
	if r, c := d.Dims(); r != rows || c != cols {
		return faceerr.CorruptModel("model.Validate",
			fmt.Sprintf("%s is %dx%d, expected %dx%d", name, r, c, rows, cols))
	}
	return nil
}

// ClassIndex rebuilds the class grouping used during training.
func (m *Model) ClassIndex() *dataset.ClassGroup {
	return dataset.NewClassGroup(m.ClassIDs)
}

// PersonName returns the name of class id, or "" if unknown.
func (m *Model) PersonName(id int) string {
	for i, c := range m.Classes {
		if c == id {
			return m.PersonNames[i]
		}
	}
	return ""
}

// Subspace returns the PCA part of the model.
func (m *Model) Subspace() *pca.Subspace {
	return &pca.Subspace{
		Width:   m.AverageImage.Width,
		Height:  m.AverageImage.Height,
		Mean:    m.AverageImage,
		Vectors: m.EigenVectors,
		Values:  m.EigenValues,
	}
}

// Fisher returns the discriminant part of the model.
func (m *Model) Fisher() *lda.Fisher {
	return &lda.Fisher{
		Vectors:     m.LDAVectors,
		Values:      m.LDAValues,
		Projections: m.ClassProjections,
	}
}
