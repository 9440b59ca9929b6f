// Package config loads hpmc settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hpmdl/internal/codegen"
)

// Config is the full hpmc configuration.
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Job      JobConfig      `yaml:"job"`
	Registry RegistryConfig `yaml:"registry"`
	Upload   UploadConfig   `yaml:"upload"`
	Log      LogConfig      `yaml:"log"`
}

// OutputConfig selects where artifacts go and which are written.
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Catalog bool   `yaml:"catalog"`
	CBOR    bool   `yaml:"cbor"` // binary catalog, written only alongside catalog.json
	Numeric bool   `yaml:"numeric"` // numeric.cbor
	Job     bool   `yaml:"job"`
	Report  bool   `yaml:"report"`
}

// JobConfig holds the evolution defaults for generated jobs.
type JobConfig struct {
	TimeStep         float64          `yaml:"time_step"`
	MaxSteps         int              `yaml:"max_steps"`
	Tolerance        float64          `yaml:"tolerance"`
	Truncation       TruncationConfig `yaml:"truncation"`
	Snapshots        []SnapshotConfig `yaml:"snapshots,omitempty"`
	FinalCertificate bool             `yaml:"final_certificate"`
	TopologyAnalysis bool             `yaml:"topology_analysis"`
}

// TruncationConfig is the default tensor-network truncation.
type TruncationConfig struct {
	Method     string  `yaml:"method"`
	MaxBondDim int     `yaml:"max_bond_dim"`
	Tolerance  float64 `yaml:"tolerance"`
}

// SnapshotConfig requests one state snapshot.
type SnapshotConfig struct {
	Time   float64 `yaml:"time"`
	Format string  `yaml:"format"`
}

// RegistryConfig locates the compilation registry. An empty path disables it.
type RegistryConfig struct {
	Path string `yaml:"path"`
}

// UploadConfig names the S3 destination for artifacts. An empty bucket
// disables uploading. Endpoint is set for S3-compatible stores such as MinIO.
type UploadConfig struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// LogConfig sets the default log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	opts := codegen.DefaultJobOptions()
	return &Config{
		Output: OutputConfig{
			Dir:     "build",
			Catalog: true,
			CBOR:    true,
			Numeric: true,
			Job:     true,
			Report:  true,
		},
		Job: JobConfig{
			TimeStep:  opts.TimeStep,
			MaxSteps:  opts.MaxSteps,
			Tolerance: opts.Tolerance,
			Truncation: TruncationConfig{
				Method:     opts.Truncation.Method,
				MaxBondDim: opts.Truncation.MaxBondDim,
				Tolerance:  opts.Truncation.Tolerance,
			},
			FinalCertificate: opts.FinalCertificate,
			TopologyAnalysis: opts.TopologyAnalysis,
		},
		Upload: UploadConfig{Region: "us-east-1"},
		Log:    LogConfig{Level: "info"},
	}
}

// JobOptions converts the job section for the job builder.
func (c *Config) JobOptions() codegen.JobOptions {
	snapshots := make([]codegen.SnapshotSpec, len(c.Job.Snapshots))
	for i, s := range c.Job.Snapshots {
		snapshots[i] = codegen.SnapshotSpec{Time: s.Time, Format: s.Format}
	}
	return codegen.JobOptions{
		TimeStep:  c.Job.TimeStep,
		MaxSteps:  c.Job.MaxSteps,
		Tolerance: c.Job.Tolerance,
		Truncation: codegen.TruncationParams{
			Method:     strings.ToUpper(c.Job.Truncation.Method),
			MaxBondDim: c.Job.Truncation.MaxBondDim,
			Tolerance:  c.Job.Truncation.Tolerance,
		},
		Snapshots:        snapshots,
		FinalCertificate: c.Job.FinalCertificate,
		TopologyAnalysis: c.Job.TopologyAnalysis,
	}
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	return levels[strings.ToLower(c.Log.Level)]
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return errors.New("output.dir is required")
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	if c.Upload.Bucket != "" && c.Upload.Region == "" {
		return errors.New("upload.region is required when upload.bucket is set")
	}
	if err := c.JobOptions().Validate(); err != nil {
		return fmt.Errorf("job: %w", err)
	}
	return nil
}

// LoadFromFile reads path over the defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes path onto c. Keys absent from the file keep their
// current values.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// SaveToFile writes c to path as YAML, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
