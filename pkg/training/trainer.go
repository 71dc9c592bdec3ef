// Package training runs a Fisherface training session: it loads a manifest,
// builds the PCA and Fisher subspaces, computes rejection thresholds and
// writes the resulting model.
package training

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/MrCodeEU/fisherface/pkg/dataset"
	"github.com/MrCodeEU/fisherface/pkg/faceerr"
	"github.com/MrCodeEU/fisherface/pkg/lda"
	"github.com/MrCodeEU/fisherface/pkg/linalg"
	"github.com/MrCodeEU/fisherface/pkg/logging"
	"github.com/MrCodeEU/fisherface/pkg/model"
	"github.com/MrCodeEU/fisherface/pkg/pca"
)

// MinClasses is the smallest class count that yields two fisherfaces.
const MinClasses = 3

// Trainer holds the state of one training session. Stages must run in order;
// Run executes all of them.
type Trainer struct {
	Loader *dataset.Loader

	backend linalg.Backend
	store   *model.Store
	now     func() time.Time
	newID   func() string

	data      *dataset.Dataset
	subspace  *pca.Subspace
	projected *mat.Dense
	scatter   *lda.Scatter
	fisher    *lda.Fisher

	euclidean    float64
	pcaEuclidean float64
	mahalanobis  float64
	thresholds   bool

	model *model.Model
}

// New creates a trainer that computes with backend and writes through store.
func New(backend linalg.Backend, store *model.Store) *Trainer {
	return &Trainer{
		Loader:  dataset.NewLoader(),
		backend: backend,
		store:   store,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Train trains on the manifest at manifestPath and writes an unencrypted
// model to modelOutputPath using the gonum backend.
func Train(manifestPath, modelOutputPath string) error {
	store, err := model.NewStore("", false)
	if err != nil {
		return err
	}
	return New(linalg.NewGonum(), store).Run(manifestPath, modelOutputPath)
}

// Run executes every stage.
func (t *Trainer) Run(manifestPath, modelOutputPath string) error {
	log := logging.Component("training")
	stages := []struct {
		name string
		fn   func() error
	}{
		{"LoadImages", func() error { return t.LoadImages(manifestPath) }},
		{"CreateSubspace", t.CreateSubspace},
		{"ProjectOntoSubspace", t.ProjectOntoSubspace},
		{"DoLDA", t.DoLDA},
		{"CalculateThresholds", t.CalculateThresholds},
		{"StoreData", func() error { return t.StoreData(modelOutputPath) }},
	}

	start := time.Now()
	for _, stage := range stages {
		stageStart := time.Now()
		if err := stage.fn(); err != nil {
			log.WithError(err).WithField("stage", stage.name).Error("training failed")
			return err
		}
		log.WithFields(logging.Fields{
			"stage":    stage.name,
			"duration": time.Since(stageStart).String(),
		}).Debug("stage complete")
	}

	log.WithFields(logging.Fields{
		"manifest": manifestPath,
		"model":    modelOutputPath,
		"duration": time.Since(start).String(),
	}).Info("training complete")
	return nil
}

// LoadImages reads the manifest and its images.
func (t *Trainer) LoadImages(manifestPath string) error {
	const op = "training.LoadImages"

	ds, err := t.Loader.Load(manifestPath)
	if err != nil {
		return err
	}

	nClasses := ds.Groups.NumClasses()
	if nClasses < MinClasses {
		return faceerr.New(faceerr.KindInsufficientClasses, op,
			fmt.Sprintf("need at least %d classes, manifest has %d", MinClasses, nClasses)).WithPath(manifestPath)
	}
	if len(ds.Images) <= nClasses {
		return faceerr.InvalidArgument(op,
			fmt.Sprintf("need more images than classes, got %d images for %d classes", len(ds.Images), nClasses)).WithPath(manifestPath)
	}

	t.data = ds
	return nil
}

// CreateSubspace builds the PCA subspace with nImages-nClasses components.
func (t *Trainer) CreateSubspace() error {
	if t.data == nil {
		return stageOrder("CreateSubspace", "LoadImages")
	}
	nEigen := len(t.data.Images) - t.data.Groups.NumClasses()
	s, err := pca.Build(t.backend, t.data.Grays(), nEigen)
	if err != nil {
		return err
	}
	t.subspace = s
	return nil
}

// ProjectOntoSubspace projects every training image onto the PCA subspace.
func (t *Trainer) ProjectOntoSubspace() error {
	if t.subspace == nil {
		return stageOrder("ProjectOntoSubspace", "CreateSubspace")
	}
	projected, err := t.subspace.ProjectAll(t.data.Grays())
	if err != nil {
		return err
	}
	t.projected = projected
	return nil
}

// DoLDA computes the scatter matrices and the Fisher projection.
func (t *Trainer) DoLDA() error {
	if t.projected == nil {
		return stageOrder("DoLDA", "ProjectOntoSubspace")
	}
	sc, err := lda.ComputeScatter(t.backend, t.projected, t.data.Groups)
	if err != nil {
		return err
	}
	f, err := lda.ComputeFisher(t.backend, sc, t.data.Groups.NumClasses())
	if err != nil {
		return err
	}
	t.scatter, t.fisher = sc, f
	return nil
}

// CalculateThresholds derives the rejection thresholds.
func (t *Trainer) CalculateThresholds() error {
	if t.fisher == nil {
		return stageOrder("CalculateThresholds", "DoLDA")
	}
	t.euclidean = lda.EuclideanThreshold(t.fisher.Projections)

	pe, pm, err := lda.PCAThresholds(t.projected, t.subspace.Values)
	if err != nil {
		return err
	}
	t.pcaEuclidean, t.mahalanobis = pe, pm
	t.thresholds = true

	logging.Component("training").WithFields(logging.Fields{
		"euclidean":     t.euclidean,
		"pca_euclidean": t.pcaEuclidean,
		"mahalanobis":   t.mahalanobis,
	}).Info("thresholds calculated")
	return nil
}

// StoreData assembles the model and writes it to modelOutputPath.
func (t *Trainer) StoreData(modelOutputPath string) error {
	if !t.thresholds {
		return stageOrder("StoreData", "CalculateThresholds")
	}

	ids := t.data.Groups.IDs()
	names := t.data.ClassNames()
	personNames := make([]string, len(ids))
	for k, id := range ids {
		personNames[k] = names[id]
	}

	m := &model.Model{
		ModelID:               t.newID(),
		CreatedAt:             t.now().UTC(),
		ImagePaths:            t.data.Paths(),
		ClassIDs:              t.data.ClassIDs(),
		Classes:               ids,
		PersonNames:           personNames,
		AverageImage:          t.subspace.Mean,
		EigenVectors:          t.subspace.Vectors,
		EigenValues:           t.subspace.Values,
		ProjectedFaces:        t.projected,
		AverageProjected:      t.scatter.GlobalMean,
		LDAVectors:            t.fisher.Vectors,
		LDAValues:             t.fisher.Values,
		ClassProjections:      t.fisher.Projections,
		EuclideanThreshold:    t.euclidean,
		PCAEuclideanThreshold: t.pcaEuclidean,
		MahalanobisThreshold:  t.mahalanobis,
	}
	if err := t.store.Save(modelOutputPath, m); err != nil {
		return err
	}
	t.model = m
	return nil
}

// Model returns the model produced by StoreData, or nil before it ran.
func (t *Trainer) Model() *model.Model {
	return t.model
}

func stageOrder(stage, previous string) error {
	return faceerr.InvalidArgument("training."+stage, previous+" has not completed")
}
