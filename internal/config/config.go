// Package config loads the YAML configuration shared by the MCP server and
// the replay tool, and builds the analyzers and driver options from it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/linefollow-vision/internal/contour"
	"github.com/ironsheep/linefollow-vision/internal/frame"
	"github.com/ironsheep/linefollow-vision/internal/perception"
	"github.com/ironsheep/linefollow-vision/internal/pilot"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// maxFileSize bounds config files read by Load.
const maxFileSize = 1 * 1024 * 1024

// Config is the root document.
type Config struct {
	Follow     FollowConfig            `yaml:"follow"`
	Marker     MarkerConfig            `yaml:"marker"`
	Adjust     AdjustConfig            `yaml:"adjust"`
	Extractor  ExtractorConfig         `yaml:"extractor"`
	Preprocess frame.PreprocessOptions `yaml:"preprocess"`
	Driver     DriverConfig            `yaml:"driver"`
}

// FollowConfig configures the line follower.
type FollowConfig struct {
	AreaThreshold   float64 `yaml:"area_threshold"`
	ErrorThreshold  int     `yaml:"error_threshold"`
	FullHeightBands bool    `yaml:"full_height_bands"`
}

// MarkerConfig configures marker detection and its settle delays.
type MarkerConfig struct {
	HThreshold    int     `yaml:"h_threshold"`
	VThreshold    int     `yaml:"v_threshold"`
	AreaThreshold float64 `yaml:"area_threshold"`
	Confirmations int     `yaml:"confirmations"`
	ResetOnMiss   bool    `yaml:"reset_on_miss"`

	SettleInterval       Duration `yaml:"settle_interval"`
	AdjustSettleInterval Duration `yaml:"adjust_settle_interval"`
}

// AdjustConfig configures the position adjuster.
type AdjustConfig struct {
	Strategy      perception.AdjustStrategy `yaml:"strategy"`
	AreaThreshold float64                   `yaml:"area_threshold"`
	MaxFrames     int                       `yaml:"max_frames"`
}

// ExtractorConfig configures contour extraction for every region.
type ExtractorConfig struct {
	Selection contour.Selection `yaml:"selection"`
	Epsilon   float64           `yaml:"epsilon"`
}

// DriverConfig configures the pilot driver.
type DriverConfig struct {
	NoDecision pilot.NoDecisionPolicy `yaml:"no_decision"`
}

// Default returns the configuration the vehicle was tuned with.
func Default() *Config {
	marker := perception.DefaultMarkerParams()
	opts := pilot.DefaultOptions()
	return &Config{
		Follow: FollowConfig{AreaThreshold: 500, ErrorThreshold: 15},
		Marker: MarkerConfig{
			HThreshold:           marker.HThreshold,
			VThreshold:           marker.VThreshold,
			AreaThreshold:        marker.AreaThreshold,
			Confirmations:        marker.Confirmations,
			SettleInterval:       Duration(opts.SettleInterval),
			AdjustSettleInterval: Duration(opts.AdjustSettleInterval),
		},
		Adjust:     AdjustConfig{Strategy: perception.BandFollow, AreaThreshold: 500},
		Extractor:  ExtractorConfig{Selection: contour.FirstMatch, Epsilon: contour.DefaultEpsilon},
		Preprocess: frame.DefaultPreprocessOptions(),
		Driver:     DriverConfig{NoDecision: opts.NoDecision},
	}
}

// Load reads a YAML file over the defaults, so a partial file only changes
// what it names. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write encodes the configuration as YAML.
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// Validate checks every threshold. All failures wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	if c.Follow.AreaThreshold <= 0 {
		errs = append(errs, fmt.Errorf("follow.area_threshold must be > 0, got %g", c.Follow.AreaThreshold))
	}
	if c.Follow.ErrorThreshold <= 0 {
		errs = append(errs, fmt.Errorf("follow.error_threshold must be > 0, got %d", c.Follow.ErrorThreshold))
	}
	if err := c.markerParams().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("marker: %w", err))
	}
	if c.Marker.SettleInterval < 0 || c.Marker.AdjustSettleInterval < 0 {
		errs = append(errs, errors.New("marker settle intervals must be >= 0"))
	}
	if c.Adjust.AreaThreshold <= 0 {
		errs = append(errs, fmt.Errorf("adjust.area_threshold must be > 0, got %g", c.Adjust.AreaThreshold))
	}
	if c.Adjust.MaxFrames < 0 {
		errs = append(errs, fmt.Errorf("adjust.max_frames must be >= 0, got %d", c.Adjust.MaxFrames))
	}
	if c.Extractor.Epsilon <= 0 || c.Extractor.Epsilon >= 1 {
		errs = append(errs, fmt.Errorf("extractor.epsilon must be in (0, 1), got %g", c.Extractor.Epsilon))
	}
	if err := c.Preprocess.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("preprocess: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (c *Config) layout() perception.Layout {
	return perception.Layout{FullHeightBands: c.Follow.FullHeightBands}
}

func (c *Config) markerParams() perception.MarkerParams {
	return perception.MarkerParams{
		HThreshold:    c.Marker.HThreshold,
		VThreshold:    c.Marker.VThreshold,
		AreaThreshold: c.Marker.AreaThreshold,
		Confirmations: c.Marker.Confirmations,
	}
}

// NewExtractor returns the configured contour extractor.
func (c *Config) NewExtractor() contour.Extractor {
	return contour.Extractor{Selection: c.Extractor.Selection, Epsilon: c.Extractor.Epsilon}
}

// Analyzers bundles the perception components built from one config.
type Analyzers struct {
	Follower  *perception.LineFollower
	Marker    *perception.MarkerDetector
	Adjuster  *perception.PositionAdjuster
	Debouncer *perception.Debouncer
}

// NewAnalyzers builds the line follower, marker detector, position adjuster
// and debouncer.
func (c *Config) NewAnalyzers() (*Analyzers, error) {
	follower, err := perception.NewLineFollower(c.layout(), c.NewExtractor(), c.Follow.AreaThreshold, c.Follow.ErrorThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	marker, err := perception.NewMarkerDetector(c.layout(), c.markerParams(), c.Extractor.Epsilon)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	adjuster, err := perception.NewPositionAdjuster(c.Adjust.Strategy, follower, marker, c.Adjust.AreaThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	debouncer, err := perception.NewDebouncer(c.Marker.Confirmations, c.Marker.ResetOnMiss)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &Analyzers{Follower: follower, Marker: marker, Adjuster: adjuster, Debouncer: debouncer}, nil
}

// DriverOptions returns the pilot timings and policies.
func (c *Config) DriverOptions() pilot.Options {
	return pilot.Options{
		SettleInterval:       time.Duration(c.Marker.SettleInterval),
		AdjustSettleInterval: time.Duration(c.Marker.AdjustSettleInterval),
		NoDecision:           c.Driver.NoDecision,
		MaxAdjustFrames:      c.Adjust.MaxFrames,
	}
}

// Duration is a time.Duration written as a Go duration string ("500ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"500ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
