// Package recognition identifies pre-processed face images against a trained
// Fisherface model.
//
// A Recognizer moves through four states: Unloaded, ModelLoaded,
// ProbeProjected and Classified. Each operation checks the state it needs
// and fails with an invalid argument error otherwise.
package recognition

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrCodeEU/fisherface/pkg/dataset"
	"github.com/MrCodeEU/fisherface/pkg/faceerr"
	"github.com/MrCodeEU/fisherface/pkg/logging"
	"github.com/MrCodeEU/fisherface/pkg/model"
)

// State is the lifecycle position of a Recognizer.
type State int

const (
	Unloaded State = iota
	ModelLoaded
	ProbeProjected
	Classified
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case ModelLoaded:
		return "model-loaded"
	case ProbeProjected:
		return "probe-projected"
	case Classified:
		return "classified"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the outcome of classifying one probe face. ClassID and
// PersonName are only set when Accepted is true.
type Result struct {
	Accepted   bool
	ClassID    int
	PersonName string
	Distance   float64
	Threshold  float64
	Classifier string
}

func (r *Result) String() string {
	if !r.Accepted {
		return fmt.Sprintf("no match (distance %.4g, threshold %.4g)", r.Distance, r.Threshold)
	}
	return fmt.Sprintf("%s (class %d, distance %.4g, threshold %.4g)", r.PersonName, r.ClassID, r.Distance, r.Threshold)
}

// Recognizer holds one recognition session.
type Recognizer struct {
	mu             sync.Mutex
	store          *model.Store
	classifier     Classifier
	thresholdScale float64

	state  State
	model  *model.Model
	probes [][]float64
	result *Result
}

// NewRecognizer creates a recognizer that loads models through store and
// compares probes with classifier.
func NewRecognizer(store *model.Store, classifier Classifier) *Recognizer {
	return &Recognizer{
		store:          store,
		classifier:     classifier,
		thresholdScale: 1.0,
	}
}

// SetThresholdScale multiplies the model threshold by scale when accepting.
func (r *Recognizer) SetThresholdScale(scale float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thresholdScale = scale
}

// State returns the current state.
func (r *Recognizer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Model returns the loaded model, or nil.
func (r *Recognizer) Model() *model.Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model
}

// LoadModel reads the model at path. Any earlier model and probes are
// discarded.
func (r *Recognizer) LoadModel(path string) error {
	m, err := r.store.Load(path)
	if err != nil {
		return err
	}

	logging.Component("recognition").WithFields(logging.Fields{
		"model":    path,
		"model_id": m.ModelID,
		"classes":  m.NumClasses(),
	}).Debug("model loaded")
	return r.UseModel(m)
}

// UseModel installs an in-memory model after validating it.
func (r *Recognizer) UseModel(m *model.Model) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = m
	r.probes = nil
	r.result = nil
	r.state = ModelLoaded
	return nil
}

// ProjectProbe projects the given faces into the classifier space. Faces are
// addressed by their position in Classify.
func (r *Recognizer) ProjectProbe(faces ...*dataset.Gray) error {
	const op = "recognition.ProjectProbe"

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Unloaded {
		return faceerr.InvalidArgument(op, "no model loaded")
	}
	if len(faces) == 0 {
		return faceerr.InvalidArgument(op, "no probe faces given")
	}

	subspace := r.model.Subspace()
	probes := make([][]float64, len(faces))
	for i, face := range faces {
		coeffs, err := subspace.Project(face)
		if err != nil {
			return err
		}
		p, err := r.classifier.Project(r.model, coeffs)
		if err != nil {
			return err
		}
		probes[i] = p
	}

	r.probes = probes
	r.result = nil
	r.state = ProbeProjected
	return nil
}

// ProjectProbeFile loads single-channel probe images and projects them.
func (r *Recognizer) ProjectProbeFile(paths ...string) error {
	faces := make([]*dataset.Gray, len(paths))
	for i, path := range paths {
		g, err := dataset.LoadProbe(path)
		if err != nil {
			return err
		}
		faces[i] = g
	}
	err := r.ProjectProbe(faces...)
	var fe *faceerr.Error
	if len(paths) == 1 && errors.As(err, &fe) && fe.Path == "" {
		fe.WithPath(paths[0])
	}
	return err
}

// Classify finds the class closest to projected face number face. The
// probe is accepted when its distance does not exceed the scaled threshold.
func (r *Recognizer) Classify(face int) (*Result, error) {
	const op = "recognition.Classify"

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state < ProbeProjected {
		return nil, faceerr.InvalidArgument(op, fmt.Sprintf("no probe projected (state %s)", r.state))
	}
	if face < 0 || face >= len(r.probes) {
		return nil, faceerr.InvalidArgument(op, fmt.Sprintf("face %d out of range [0, %d)", face, len(r.probes)))
	}

	classID, dist := r.classifier.Nearest(r.model, r.probes[face])
	threshold := r.classifier.Threshold(r.model) * r.thresholdScale

	res := &Result{
		Distance:   dist,
		Threshold:  threshold,
		Classifier: r.classifier.Name(),
	}
	if dist <= threshold {
		res.Accepted = true
		res.ClassID = classID
		res.PersonName = r.model.PersonName(classID)
	}

	logging.Component("recognition").WithFields(logging.Fields{
		"face":       face,
		"accepted":   res.Accepted,
		"class_id":   classID,
		"distance":   dist,
		"threshold":  threshold,
		"classifier": res.Classifier,
	}).Debug("probe classified")

	r.result = res
	r.state = Classified
	return res, nil
}

// Result returns the most recent classification, or nil.
func (r *Recognizer) Result() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

// Recognize classifies the face in probePath against the unencrypted model at
// modelPath with the Fisher classifier.
func Recognize(probePath, modelPath string) (*Result, error) {
	store, err := model.NewStore("", false)
	if err != nil {
		return nil, err
	}
	r := NewRecognizer(store, FisherClassifier{})
	if err := r.LoadModel(modelPath); err != nil {
		return nil, err
	}
	if err := r.ProjectProbeFile(probePath); err != nil {
		return nil, err
	}
	return r.Classify(0)
}
