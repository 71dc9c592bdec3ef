// Package detect finds the single face in a photo and turns it into the
// fixed-size, equalized grayscale image that training and recognition expect.
// It supports two backends: dlib through go-face, and the pure Go pigo
// cascade detector.
package detect

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/MrCodeEU/fisherface/pkg/config"
	"github.com/MrCodeEU/fisherface/pkg/logging"
)

// Backend names a face detection implementation.
type Backend string

const (
	BackendAuto Backend = config.DetectorAuto
	BackendDlib Backend = config.DetectorDlib
	BackendPigo Backend = config.DetectorPigo
)

// DlibModelFiles are the go-face model files required in the dlib model
// directory.
var DlibModelFiles = []string{
	"shape_predictor_5_face_landmarks.dat",
	"dlib_face_recognition_resnet_model_v1.dat",
	"mmod_human_face_detector.dat",
}

// ErrNoFaceDetected is returned when no face is found in the image.
var ErrNoFaceDetected = errors.New("no face detected")

// ErrMultipleFaces is returned when more than one face is found.
var ErrMultipleFaces = errors.New("multiple faces detected")

// ErrBackendNotAvailable is returned when the requested backend cannot run.
var ErrBackendNotAvailable = errors.New("detection backend not available")

// Detector turns an encoded photo into a normalized face image.
type Detector interface {
	DetectAndNormalize(data []byte) (*image.Gray, error)
	Backend() Backend
	Close() error
}

// Locator finds face rectangles in an encoded image and returns the decoded
// image they refer to.
type Locator interface {
	Locate(data []byte) (image.Image, []image.Rectangle, error)
	Close() error
}

// FaceDetector combines a Locator with a Normalizer.
type FaceDetector struct {
	mu         sync.Mutex
	locator    Locator
	backend    Backend
	normalizer Normalizer
}

// NewFaceDetector wraps locator.
func NewFaceDetector(locator Locator, backend Backend, n Normalizer) *FaceDetector {
	return &FaceDetector{locator: locator, backend: backend, normalizer: n}
}

// New builds the detector selected by cfg.Backend.
func New(cfg config.DetectionConfig) (*FaceDetector, error) {
	backends := DetectBackends(cfg)
	backend, err := SelectBackend(Backend(cfg.Backend), backends)
	if err != nil {
		return nil, err
	}

	var locator Locator
	switch backend {
	case BackendDlib:
		locator, err = NewDlibLocator(cfg.DlibModelPath)
	case BackendPigo:
		locator, err = LoadPigoLocator(cfg.CascadePath, cfg.MinFaceSize)
	}
	if err != nil {
		return nil, err
	}

	logging.Component("detect").WithFields(logging.Fields{
		"backend": backend,
		"path":    backends[backend].Path,
	}).Info("face detector initialized")

	return NewFaceDetector(locator, backend, NormalizerFromConfig(cfg)), nil
}

// Backend returns the backend in use.
func (d *FaceDetector) Backend() Backend {
	return d.backend
}

// DetectAndNormalize requires exactly one face in data and returns it
// normalized.
func (d *FaceDetector) DetectAndNormalize(data []byte) (*image.Gray, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, faces, err := d.locator.Locate(data)
	if err != nil {
		return nil, err
	}

	switch len(faces) {
	case 0:
		return nil, ErrNoFaceDetected
	case 1:
	default:
		logging.Component("detect").Debugf("found %d faces", len(faces))
		return nil, ErrMultipleFaces
	}

	return d.normalizer.Normalize(img, faces[0])
}

// Close releases the backend.
func (d *FaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locator.Close()
}

// BackendInfo describes whether a backend can run on this machine.
type BackendInfo struct {
	Backend   Backend
	Name      string
	Available bool
	Path      string
	Reason    string
}

// DetectBackends reports the availability of every backend.
func DetectBackends(cfg config.DetectionConfig) map[Backend]*BackendInfo {
	backends := map[Backend]*BackendInfo{
		BackendDlib: {Backend: BackendDlib, Name: "dlib (go-face)", Path: cfg.DlibModelPath},
		BackendPigo: {Backend: BackendPigo, Name: "pigo cascade", Path: cfg.CascadePath},
	}

	dlib := backends[BackendDlib]
	dlib.Available = true
	for _, name := range DlibModelFiles {
		if _, err := os.Stat(filepath.Join(cfg.DlibModelPath, name)); err != nil {
			dlib.Available = false
			dlib.Reason = fmt.Sprintf("missing %s", name)
			break
		}
	}

	pigo := backends[BackendPigo]
	if info, err := os.Stat(cfg.CascadePath); err != nil || info.IsDir() {
		pigo.Reason = "cascade file not found"
	} else {
		pigo.Available = true
	}

	return backends
}

// SelectBackend returns preferred when it is available. Auto prefers dlib
// over pigo.
func SelectBackend(preferred Backend, backends map[Backend]*BackendInfo) (Backend, error) {
	if preferred != BackendAuto && preferred != "" {
		info, ok := backends[preferred]
		if !ok {
			return "", fmt.Errorf("%w: unknown backend %q", ErrBackendNotAvailable, preferred)
		}
		if !info.Available {
			return "", fmt.Errorf("%w: %s: %s", ErrBackendNotAvailable, preferred, info.Reason)
		}
		return preferred, nil
	}

	for _, backend := range []Backend{BackendDlib, BackendPigo} {
		if info, ok := backends[backend]; ok && info.Available {
			return backend, nil
		}
	}
	return "", fmt.Errorf("%w: no dlib models or pigo cascade installed (run 'fisherface download-models')", ErrBackendNotAvailable)
}
