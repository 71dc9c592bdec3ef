package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Training.MaxCondition != 1e12 {
		t.Errorf("expected max condition 1e12, got %g", cfg.Training.MaxCondition)
	}

	if cfg.Recognition.Classifier != ClassifierFisher {
		t.Errorf("expected classifier fisher, got %s", cfg.Recognition.Classifier)
	}
	if cfg.Recognition.ThresholdScale != 1.0 {
		t.Errorf("expected threshold scale 1.0, got %f", cfg.Recognition.ThresholdScale)
	}

	if cfg.Detection.Backend != DetectorAuto {
		t.Errorf("expected detection backend auto, got %s", cfg.Detection.Backend)
	}
	if cfg.Detection.FaceWidth != 92 || cfg.Detection.FaceHeight != 112 {
		t.Errorf("expected face size 92x112, got %dx%d", cfg.Detection.FaceWidth, cfg.Detection.FaceHeight)
	}

	if cfg.Storage.EncryptionEnabled {
		t.Error("expected encryption to be disabled by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected log format 'text', got %s", cfg.Logging.Format)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "fisherface.yaml")

	configContent := `
training:
  max_condition: 1e10
  show_progress: false

recognition:
  classifier: mahalanobis
  threshold_scale: 0.8

detection:
  backend: pigo
  cascade_path: /custom/facefinder
  face_width: 64
  face_height: 80

storage:
  data_dir: /custom/data
  encryption_enabled: true

logging:
  level: debug
  format: json
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Training.MaxCondition != 1e10 {
		t.Errorf("expected max condition 1e10, got %g", cfg.Training.MaxCondition)
	}
	if cfg.Training.ShowProgress {
		t.Error("expected progress to be disabled")
	}
	if cfg.Recognition.Classifier != ClassifierMahalanobis {
		t.Errorf("expected classifier mahalanobis, got %s", cfg.Recognition.Classifier)
	}
	if cfg.Recognition.ThresholdScale != 0.8 {
		t.Errorf("expected threshold scale 0.8, got %f", cfg.Recognition.ThresholdScale)
	}
	if cfg.Detection.Backend != DetectorPigo {
		t.Errorf("expected backend pigo, got %s", cfg.Detection.Backend)
	}
	if cfg.Detection.CascadePath != "/custom/facefinder" {
		t.Errorf("expected cascade path /custom/facefinder, got %s", cfg.Detection.CascadePath)
	}
	if cfg.Detection.FaceWidth != 64 || cfg.Detection.FaceHeight != 80 {
		t.Errorf("expected face size 64x80, got %dx%d", cfg.Detection.FaceWidth, cfg.Detection.FaceHeight)
	}
	// unset keys keep their defaults
	if cfg.Detection.MinFaceSize != 60 {
		t.Errorf("expected default min face size 60, got %d", cfg.Detection.MinFaceSize)
	}
	if !cfg.Storage.EncryptionEnabled {
		t.Error("expected encryption to be enabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got %s", cfg.Logging.Format)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/fisherface.yaml")

	if cfg == nil {
		t.Error("expected default config on error")
	}
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := Load(configPath)
	if cfg == nil {
		t.Error("expected default config on error")
	}
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FISHERFACE_LOG_LEVEL", "trace")
	t.Setenv("FISHERFACE_DATA_DIR", "/srv/fisherface")
	t.Setenv("FISHERFACE_CLASSIFIER", "euclidean")
	t.Setenv("FISHERFACE_DETECTOR", "dlib")
	t.Setenv("FISHERFACE_ENCRYPTION", "true")
	t.Setenv("FISHERFACE_THRESHOLD_SCALE", "1.5")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Logging.Level != "trace" {
		t.Errorf("expected level trace, got %s", cfg.Logging.Level)
	}
	if cfg.Storage.DataDir != "/srv/fisherface" {
		t.Errorf("expected data dir /srv/fisherface, got %s", cfg.Storage.DataDir)
	}
	if cfg.Recognition.Classifier != ClassifierEuclidean {
		t.Errorf("expected classifier euclidean, got %s", cfg.Recognition.Classifier)
	}
	if cfg.Detection.Backend != DetectorDlib {
		t.Errorf("expected backend dlib, got %s", cfg.Detection.Backend)
	}
	if !cfg.Storage.EncryptionEnabled {
		t.Error("expected encryption enabled from env")
	}
	if cfg.Recognition.ThresholdScale != 1.5 {
		t.Errorf("expected threshold scale 1.5, got %f", cfg.Recognition.ThresholdScale)
	}
}

func TestApplyEnv_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("FISHERFACE_ENCRYPTION", "maybe")
	t.Setenv("FISHERFACE_THRESHOLD_SCALE", "-2")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Storage.EncryptionEnabled {
		t.Error("unparsable bool should keep the default")
	}
	if cfg.Recognition.ThresholdScale != 1.0 {
		t.Errorf("negative scale should keep the default, got %f", cfg.Recognition.ThresholdScale)
	}
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"absolute", "/absolute/path"},
		{"relative", "relative/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandPath(tt.input); got != tt.input {
				t.Errorf("unexpected expansion: got %s", got)
			}
		})
	}

	if got := ExpandPath("~/models"); strings.HasPrefix(got, "~") {
		t.Error("tilde was not expanded")
	}

	t.Setenv("FISHERFACE_TEST_ROOT", "/opt/ff")
	if got := ExpandPath("$FISHERFACE_TEST_ROOT/models"); got != "/opt/ff/models" {
		t.Errorf("expected env expansion, got %s", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
		errorMsg  string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:      "max condition too small",
			modify:    func(c *Config) { c.Training.MaxCondition = 0.5 },
			wantError: true,
			errorMsg:  "max_condition",
		},
		{
			name:      "invalid classifier",
			modify:    func(c *Config) { c.Recognition.Classifier = "knn" },
			wantError: true,
			errorMsg:  "invalid classifier",
		},
		{
			name:   "valid classifier mahalanobis",
			modify: func(c *Config) { c.Recognition.Classifier = ClassifierMahalanobis },
		},
		{
			name:      "threshold scale zero",
			modify:    func(c *Config) { c.Recognition.ThresholdScale = 0 },
			wantError: true,
			errorMsg:  "threshold_scale must be positive",
		},
		{
			name:      "invalid detection backend",
			modify:    func(c *Config) { c.Detection.Backend = "opencv" },
			wantError: true,
			errorMsg:  "invalid detection backend",
		},
		{
			name:      "invalid face size",
			modify:    func(c *Config) { c.Detection.FaceWidth = 0 },
			wantError: true,
			errorMsg:  "invalid face size",
		},
		{
			name:      "min face size zero",
			modify:    func(c *Config) { c.Detection.MinFaceSize = 0 },
			wantError: true,
			errorMsg:  "min_face_size",
		},
		{
			name:      "empty data dir",
			modify:    func(c *Config) { c.Storage.DataDir = "" },
			wantError: true,
			errorMsg:  "data_dir",
		},
		{
			name:      "invalid log level",
			modify:    func(c *Config) { c.Logging.Level = "invalid" },
			wantError: true,
			errorMsg:  "invalid log level",
		},
		{
			name:   "valid log level trace",
			modify: func(c *Config) { c.Logging.Level = "trace" },
		},
		{
			name:      "invalid log format",
			modify:    func(c *Config) { c.Logging.Format = "xml" },
			wantError: true,
			errorMsg:  "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantError {
				if err == nil {
					t.Error("expected error but got nil")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error message doesn't contain '%s': %v", tt.errorMsg, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_ExpandPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDir = "~/fisherface/data"
	cfg.Detection.CascadePath = "~/fisherface/facefinder"
	cfg.Logging.File = "~/fisherface/log.txt"

	cfg.ExpandPaths()

	if cfg.Storage.DataDir[0] == '~' {
		t.Error("Storage.DataDir tilde was not expanded")
	}
	if cfg.Detection.CascadePath[0] == '~' {
		t.Error("Detection.CascadePath tilde was not expanded")
	}
	if cfg.Logging.File[0] == '~' {
		t.Error("Logging.File tilde was not expanded")
	}
}

func TestConfig_EnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Storage.DataDir = filepath.Join(tmpDir, "data")
	cfg.Logging.File = filepath.Join(tmpDir, "logs", "fisherface.log")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	if _, err := os.Stat(cfg.ModelDir()); os.IsNotExist(err) {
		t.Error("models dir was not created")
	}
	if _, err := os.Stat(filepath.Dir(cfg.Logging.File)); os.IsNotExist(err) {
		t.Error("log dir was not created")
	}
}

func TestConfig_ModelDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDir = "/var/lib/fisherface"

	if got := cfg.ModelDir(); got != "/var/lib/fisherface/models" {
		t.Errorf("expected /var/lib/fisherface/models, got %s", got)
	}
}

func BenchmarkConfig_Validate(b *testing.B) {
	cfg := DefaultConfig()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		cfg.Validate()
	}
}
