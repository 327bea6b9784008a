// Package config loads and validates the docgallery configuration.
//
// Configuration errors are fatal at load time, before any document processing
// starts.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
)

// Reference policies for links inside a clone whose target lives outside the
// example on the original page.
const (
	// RefPolicyBacklink rewrites the link to point at the original document.
	RefPolicyBacklink = "backlink"
	// RefPolicyError aborts the build instead.
	RefPolicyError = "error"
)

// DefaultGalleryDir is the gallery output directory relative to the content root.
const DefaultGalleryDir = "examples"

// Config is the top-level docgallery configuration.
type Config struct {
	// Source is the docs tree to read. Default "docs".
	Source string `yaml:"source"`
	// Output is the content tree to write for the host site generator.
	// Default "site/content".
	Output string `yaml:"output"`

	Gallery GalleryConfig `yaml:"gallery"`
	Watch   WatchConfig   `yaml:"watch"`
}

// GalleryConfig is the opt-in configuration surface of the example gallery.
type GalleryConfig struct {
	// Enabled turns gallery generation on. Extraction and validation run
	// regardless, so authors can adopt markers before publishing a gallery.
	Enabled bool `yaml:"enabled"`
	// OutputDirectory is the gallery location relative to Output.
	OutputDirectory string `yaml:"output_directory"`
	// UnresolvedReference selects the policy for links inside a clone that
	// resolve only on the originating page: "backlink" or "error".
	UnresolvedReference string `yaml:"unresolved_reference"`
}

// WatchConfig configures watch mode extras. All optional.
type WatchConfig struct {
	// Interval schedules periodic full rebuilds in addition to
	// change-triggered ones, e.g. "10m". Empty disables the schedule.
	Interval string `yaml:"interval"`
	// NATSURL enables publishing build-completed events when set.
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
	// MetricsAddr serves Prometheus metrics when set, e.g. ":9180".
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads, decodes, normalizes and validates a configuration file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI flag.
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read configuration").
			WithSeverity(errors.SeverityFatal).
			WithContext("path", path).
			Build()
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	// Strict decoding so a mistyped value (e.g. gallery.enabled: "yes please")
	// or an unknown key fails here instead of misbehaving mid-build.
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid configuration").
			WithSeverity(errors.SeverityFatal).
			WithContext("path", path).
			Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = "docs"
	}
	if c.Output == "" {
		c.Output = filepath.Join("site", "content")
	}
	if c.Gallery.OutputDirectory == "" {
		c.Gallery.OutputDirectory = DefaultGalleryDir
	}
	if c.Gallery.UnresolvedReference == "" {
		c.Gallery.UnresolvedReference = RefPolicyBacklink
	}
	if c.Watch.NATSSubject == "" {
		c.Watch.NATSSubject = "docgallery.builds"
	}
}

// Validate checks configuration shape. All violations are fatal.
func (c *Config) Validate() error {
	dir := c.Gallery.OutputDirectory
	clean := filepath.ToSlash(filepath.Clean(dir))
	if filepath.IsAbs(dir) || clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.NewError(errors.CategoryConfig, "gallery output_directory must be a relative path inside the output tree").
			WithSeverity(errors.SeverityFatal).
			WithContext("output_directory", dir).
			Build()
	}
	switch c.Gallery.UnresolvedReference {
	case RefPolicyBacklink, RefPolicyError:
	default:
		return errors.NewError(errors.CategoryConfig, "gallery unresolved_reference must be \"backlink\" or \"error\"").
			WithSeverity(errors.SeverityFatal).
			WithContext("unresolved_reference", c.Gallery.UnresolvedReference).
			Build()
	}
	if c.Watch.Interval != "" {
		if _, err := time.ParseDuration(c.Watch.Interval); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "watch interval is not a valid duration").
				WithSeverity(errors.SeverityFatal).
				WithContext("interval", c.Watch.Interval).
				Build()
		}
	}
	return nil
}

// IntervalDuration returns the parsed watch interval and whether one is set.
// Validate guarantees the value parses when non-empty.
func (c *Config) IntervalDuration() (time.Duration, bool) {
	if c.Watch.Interval == "" {
		return 0, false
	}
	d, err := time.ParseDuration(c.Watch.Interval)
	if err != nil {
		return 0, false
	}
	return d, true
}

// GalleryPath returns the absolute gallery output directory.
func (c *Config) GalleryPath() string {
	return filepath.Join(c.Output, filepath.FromSlash(c.Gallery.OutputDirectory))
}
