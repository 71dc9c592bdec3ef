package recognition

import (
	"github.com/MrCodeEU/fisherface/pkg/model"
)

type MockClassifier struct {
	ProjectFunc   func(m *model.Model, pcaCoeffs []float64) ([]float64, error)
	NearestFunc   func(m *model.Model, probe []float64) (int, float64)
	ThresholdFunc func(m *model.Model) float64
}

func (c *MockClassifier) Name() string { return "mock" }

func (c *MockClassifier) Project(m *model.Model, pcaCoeffs []float64) ([]float64, error) {
	if c.ProjectFunc != nil {
		return c.ProjectFunc(m, pcaCoeffs)
	}
	return pcaCoeffs, nil
}

func (c *MockClassifier) Nearest(m *model.Model, probe []float64) (int, float64) {
	if c.NearestFunc != nil {
		return c.NearestFunc(m, probe)
	}
	return m.Classes[0], 0
}

func (c *MockClassifier) Threshold(m *model.Model) float64 {
	if c.ThresholdFunc != nil {
		return c.ThresholdFunc(m)
	}
	return 1
}
