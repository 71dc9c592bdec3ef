package detect

import (
	"bytes"
	"fmt"
	"image"

	"github.com/Kagami/go-face"
	"github.com/disintegration/imaging"

	"github.com/MrCodeEU/fisherface/pkg/logging"
)

// FaceEngine is the part of go-face's Recognizer used for detection.
type FaceEngine interface {
	Recognize(imgData []byte) ([]face.Face, error)
	Close()
}

// EngineFactory creates a FaceEngine from a model directory.
type EngineFactory func(modelDir string) (FaceEngine, error)

func newGoFaceEngine(modelDir string) (FaceEngine, error) {
	rec, err := face.NewRecognizer(modelDir)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DlibLocator finds faces with dlib's HOG detector through go-face.
type DlibLocator struct {
	engine   FaceEngine
	modelDir string
}

// NewDlibLocator loads the go-face models from modelDir.
func NewDlibLocator(modelDir string) (*DlibLocator, error) {
	return newDlibLocator(modelDir, newGoFaceEngine)
}

func newDlibLocator(modelDir string, factory EngineFactory) (*DlibLocator, error) {
	logging.Component("detect").Debugf("loading dlib models from %s", modelDir)
	engine, err := factory(modelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load dlib models: %w", err)
	}
	return &DlibLocator{engine: engine, modelDir: modelDir}, nil
}

// Locate runs the dlib detector on data. go-face only accepts JPEG input.
func (l *DlibLocator) Locate(data []byte) (image.Image, []image.Rectangle, error) {
	if l.engine == nil {
		return nil, nil, fmt.Errorf("dlib locator is closed")
	}

	faces, err := l.engine.Recognize(data)
	if err != nil {
		return nil, nil, fmt.Errorf("face detection failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image: %w", err)
	}

	rects := make([]image.Rectangle, len(faces))
	for i, f := range faces {
		rects[i] = f.Rectangle
	}
	return img, rects, nil
}

// Close frees the dlib models.
func (l *DlibLocator) Close() error {
	if l.engine != nil {
		l.engine.Close()
		l.engine = nil
	}
	return nil
}
