// Package config provides configuration management for fisherface.
// It loads configuration from YAML files with sensible defaults and lets
// FISHERFACE_* environment variables override individual settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Classifier names accepted by recognition.classifier.
const (
	ClassifierFisher      = "fisher"
	ClassifierEuclidean   = "euclidean"
	ClassifierMahalanobis = "mahalanobis"
)

// Detector backend names accepted by detection.backend.
const (
	DetectorAuto = "auto"
	DetectorDlib = "dlib"
	DetectorPigo = "pigo"
)

// Config holds all fisherface configuration.
type Config struct {
	Training    TrainingConfig    `yaml:"training"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Detection   DetectionConfig   `yaml:"detection"`
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// TrainingConfig holds training settings.
type TrainingConfig struct {
	// MaxCondition is the largest condition number accepted when inverting
	// the within-class scatter matrix.
	MaxCondition float64 `yaml:"max_condition"`
	ShowProgress bool    `yaml:"show_progress"`
}

// RecognitionConfig holds recognition settings.
type RecognitionConfig struct {
	Classifier string `yaml:"classifier"`
	// ThresholdScale multiplies the learned rejection threshold.
	ThresholdScale float64 `yaml:"threshold_scale"`
}

// DetectionConfig holds face detection and normalization settings.
type DetectionConfig struct {
	Backend       string `yaml:"backend"`
	DlibModelPath string `yaml:"dlib_model_path"`
	CascadePath   string `yaml:"cascade_path"`
	FaceWidth     int    `yaml:"face_width"`
	FaceHeight    int    `yaml:"face_height"`
	MinFaceSize   int    `yaml:"min_face_size"`
	Equalize      bool   `yaml:"equalize"`
}

// StorageConfig holds model storage settings.
type StorageConfig struct {
	DataDir           string `yaml:"data_dir"`
	EncryptionEnabled bool   `yaml:"encryption_enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Training: TrainingConfig{
			MaxCondition: 1e12,
			ShowProgress: true,
		},
		Recognition: RecognitionConfig{
			Classifier:     ClassifierFisher,
			ThresholdScale: 1.0,
		},
		Detection: DetectionConfig{
			Backend:       DetectorAuto,
			DlibModelPath: filepath.Join(homeDir, ".local/share/fisherface/dlib"),
			CascadePath:   filepath.Join(homeDir, ".local/share/fisherface/cascade/facefinder"),
			FaceWidth:     92,
			FaceHeight:    112,
			MinFaceSize:   60,
			Equalize:      true,
		},
		Storage: StorageConfig{
			DataDir:           filepath.Join(homeDir, ".local/share/fisherface"),
			EncryptionEnabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Format: "text",
		},
	}
}

// Load loads configuration from the specified file on top of the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return config, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return config, nil
}

// LoadDefault tries to load configuration from default locations.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat("/etc/fisherface/fisherface.yaml"); err == nil {
		return Load("/etc/fisherface/fisherface.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfig(), nil
	}

	userConfig := filepath.Join(homeDir, ".config/fisherface/fisherface.yaml")
	if _, err := os.Stat(userConfig); err == nil {
		return Load(userConfig)
	}

	return DefaultConfig(), nil
}

// ApplyEnv overrides settings from FISHERFACE_* environment variables.
// Unset or unparsable values leave the current setting untouched.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("FISHERFACE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FISHERFACE_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("FISHERFACE_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("FISHERFACE_CLASSIFIER"); v != "" {
		c.Recognition.Classifier = v
	}
	if v := os.Getenv("FISHERFACE_DETECTOR"); v != "" {
		c.Detection.Backend = v
	}
	c.Storage.EncryptionEnabled = envBool("FISHERFACE_ENCRYPTION", c.Storage.EncryptionEnabled)
	c.Recognition.ThresholdScale = envFloat("FISHERFACE_THRESHOLD_SCALE", c.Recognition.ThresholdScale)
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// ExpandPath expands ~ and environment variables in a path.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Training.MaxCondition <= 1 {
		return fmt.Errorf("max_condition must be greater than 1, got %g", c.Training.MaxCondition)
	}

	validClassifiers := map[string]bool{ClassifierFisher: true, ClassifierEuclidean: true, ClassifierMahalanobis: true}
	if !validClassifiers[c.Recognition.Classifier] {
		return fmt.Errorf("invalid classifier: %s (must be fisher, euclidean, or mahalanobis)", c.Recognition.Classifier)
	}
	if c.Recognition.ThresholdScale <= 0 {
		return fmt.Errorf("threshold_scale must be positive, got %f", c.Recognition.ThresholdScale)
	}

	validBackends := map[string]bool{DetectorAuto: true, DetectorDlib: true, DetectorPigo: true}
	if !validBackends[c.Detection.Backend] {
		return fmt.Errorf("invalid detection backend: %s (must be auto, dlib, or pigo)", c.Detection.Backend)
	}
	if c.Detection.FaceWidth <= 0 || c.Detection.FaceHeight <= 0 {
		return fmt.Errorf("invalid face size: %dx%d", c.Detection.FaceWidth, c.Detection.FaceHeight)
	}
	if c.Detection.MinFaceSize <= 0 {
		return fmt.Errorf("min_face_size must be positive, got %d", c.Detection.MinFaceSize)
	}

	if c.Storage.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}

	validLogLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be trace, debug, info, warn, or error)", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// ExpandPaths expands all paths in the configuration.
func (c *Config) ExpandPaths() {
	c.Detection.DlibModelPath = ExpandPath(c.Detection.DlibModelPath)
	c.Detection.CascadePath = ExpandPath(c.Detection.CascadePath)
	c.Storage.DataDir = ExpandPath(c.Storage.DataDir)
	if c.Logging.File != "" {
		c.Logging.File = ExpandPath(c.Logging.File)
	}
}

// EnsureDirectories creates the model and log directories.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.ModelDir(), 0700); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	if c.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.Logging.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	return nil
}

// ModelDir returns the directory holding named models.
func (c *Config) ModelDir() string {
	return filepath.Join(c.Storage.DataDir, "models")
}
