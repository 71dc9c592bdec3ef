package detect

import (
	"image"

	"github.com/Kagami/go-face"
)

type MockFaceEngine struct {
	RecognizeFunc func(data []byte) ([]face.Face, error)
	CloseFunc     func()
}

func (m *MockFaceEngine) Recognize(data []byte) ([]face.Face, error) {
	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(data)
	}
	return nil, nil
}

func (m *MockFaceEngine) Close() {
	if m.CloseFunc != nil {
		m.CloseFunc()
	}
}

type MockLocator struct {
	LocateFunc func(data []byte) (image.Image, []image.Rectangle, error)
	CloseFunc  func() error
}

func (m *MockLocator) Locate(data []byte) (image.Image, []image.Rectangle, error) {
	if m.LocateFunc != nil {
		return m.LocateFunc(data)
	}
	return nil, nil, nil
}

func (m *MockLocator) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
