package recognition

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/MrCodeEU/fisherface/pkg/config"
	"github.com/MrCodeEU/fisherface/pkg/faceerr"
	"github.com/MrCodeEU/fisherface/pkg/lda"
	"github.com/MrCodeEU/fisherface/pkg/model"
)

// Classifier maps PCA coefficients into a comparison space and finds the
// closest known class there.
type Classifier interface {
	// Name returns the configuration name of the classifier.
	Name() string
	// Project maps PCA coefficients of a probe into the classifier space.
	Project(m *model.Model, pcaCoeffs []float64) ([]float64, error)
	// Nearest returns the class id of the closest gallery entry and its distance.
	Nearest(m *model.Model, probe []float64) (classID int, distance float64)
	// Threshold returns the unscaled rejection threshold stored in m.
	Threshold(m *model.Model) float64
}

// NewClassifier returns the classifier registered under name.
func NewClassifier(name string) (Classifier, error) {
	switch name {
	case config.ClassifierFisher, "":
		return FisherClassifier{}, nil
	case config.ClassifierEuclidean:
		return EuclideanClassifier{}, nil
	case config.ClassifierMahalanobis:
		return MahalanobisClassifier{}, nil
	default:
		return nil, faceerr.InvalidArgument("recognition.NewClassifier", fmt.Sprintf("unknown classifier %q", name))
	}
}

// FisherClassifier compares probes with the class centroids in Fisher space.
type FisherClassifier struct{}

func (FisherClassifier) Name() string { return config.ClassifierFisher }

func (FisherClassifier) Project(m *model.Model, pcaCoeffs []float64) ([]float64, error) {
	return m.Fisher().Project(pcaCoeffs)
}

func (FisherClassifier) Nearest(m *model.Model, probe []float64) (int, float64) {
	row, dist := nearestRow(m.ClassProjections, probe, lda.SquaredDistance)
	return m.Classes[row], dist
}

func (FisherClassifier) Threshold(m *model.Model) float64 { return m.EuclideanThreshold }

// EuclideanClassifier compares probes with every training image in PCA space.
type EuclideanClassifier struct{}

func (EuclideanClassifier) Name() string { return config.ClassifierEuclidean }

func (EuclideanClassifier) Project(m *model.Model, pcaCoeffs []float64) ([]float64, error) {
	return pcaSpace(m, pcaCoeffs)
}

func (EuclideanClassifier) Nearest(m *model.Model, probe []float64) (int, float64) {
	row, dist := nearestRow(m.ProjectedFaces, probe, lda.SquaredDistance)
	return m.ClassIDs[row], dist
}

func (EuclideanClassifier) Threshold(m *model.Model) float64 { return m.PCAEuclideanThreshold }

// MahalanobisClassifier is EuclideanClassifier with every PCA component
// scaled by its eigenvalue.
type MahalanobisClassifier struct{}

func (MahalanobisClassifier) Name() string { return config.ClassifierMahalanobis }

func (MahalanobisClassifier) Project(m *model.Model, pcaCoeffs []float64) ([]float64, error) {
	return pcaSpace(m, pcaCoeffs)
}

func (MahalanobisClassifier) Nearest(m *model.Model, probe []float64) (int, float64) {
	row, dist := nearestRow(m.ProjectedFaces, probe, func(a, b []float64) float64 {
		return lda.MahalanobisDistance(a, b, m.EigenValues)
	})
	return m.ClassIDs[row], dist
}

func (MahalanobisClassifier) Threshold(m *model.Model) float64 { return m.MahalanobisThreshold }

func pcaSpace(m *model.Model, pcaCoeffs []float64) ([]float64, error) {
	if len(pcaCoeffs) != m.NumEigens() {
		return nil, faceerr.InvalidArgument("recognition.Project",
			fmt.Sprintf("expected %d coefficients, got %d", m.NumEigens(), len(pcaCoeffs)))
	}
	return append([]float64(nil), pcaCoeffs...), nil
}

// nearestRow scans rows in ascending order; ties keep the first row.
func nearestRow(gallery *mat.Dense, probe []float64, dist func(a, b []float64) float64) (int, float64) {
	rows, _ := gallery.Dims()
	best, bestDist := 0, math.MaxFloat64
	for i := 0; i < rows; i++ {
		if d := dist(probe, gallery.RawRowView(i)); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
