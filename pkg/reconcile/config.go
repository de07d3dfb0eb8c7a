package reconcile

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/audiencekit/vendorlens/pkg/errors"
	"github.com/audiencekit/vendorlens/pkg/tables"
)

// Default thresholds and display limits.
const (
	DefaultRowCountHighPct      = 10.0
	DefaultDistributionMediumPP = 5.0
	DefaultDistributionHighPP   = 10.0
	DefaultTopN                 = 15
)

// Thresholds are the anomaly boundaries of a reconciliation run.
type Thresholds struct {
	// RowCountHighPct upgrades a row-count mismatch to high severity when
	// the absolute difference exceeds this percentage of the larger count.
	RowCountHighPct float64 `json:"row_count_high_pct" yaml:"row_count_high_pct"`
	// DistributionMediumPP flags a per-value delta at or above this many
	// percentage points as medium.
	DistributionMediumPP float64 `json:"distribution_medium_pp" yaml:"distribution_medium_pp"`
	// DistributionHighPP flags a per-value delta at or above this many
	// percentage points as high.
	DistributionHighPP float64 `json:"distribution_high_pp" yaml:"distribution_high_pp"`
}

// DefaultThresholds returns the standard anomaly boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RowCountHighPct:      DefaultRowCountHighPct,
		DistributionMediumPP: DefaultDistributionMediumPP,
		DistributionHighPP:   DefaultDistributionHighPP,
	}
}

// FieldKind classifies how a side's values are represented.
type FieldKind string

// Field kinds.
const (
	// KindCategorical fields carry discrete labels and are compared by
	// value-frequency distribution.
	KindCategorical FieldKind = "categorical"
	// KindNumeric fields carry continuous values and are summarized by
	// mean and median.
	KindNumeric FieldKind = "numeric"
)

// Field maps one logical attribute onto the flattened columns of both
// vendors. Alias lists are tried in order; the first column present wins
// regardless of how complete its data is.
type Field struct {
	Name string `json:"name" yaml:"name"`

	// Left and Right are ordered alias lists of candidate flattened paths.
	Left  []string `json:"left" yaml:"left"`
	Right []string `json:"right" yaml:"right"`

	// LeftContains and RightContains are optional path-substring fallbacks
	// used when no alias resolves.
	LeftContains  string `json:"left_contains,omitempty" yaml:"left_contains,omitempty"`
	RightContains string `json:"right_contains,omitempty" yaml:"right_contains,omitempty"`

	LeftKind  FieldKind `json:"left_kind" yaml:"left_kind"`
	RightKind FieldKind `json:"right_kind" yaml:"right_kind"`

	// Normalizer names a registered value normalizer applied before
	// counting, e.g. "gender".
	Normalizer string `json:"normalizer,omitempty" yaml:"normalizer,omitempty"`

	// TopN limits the per-side display summary; 0 means DefaultTopN.
	TopN int `json:"top_n,omitempty" yaml:"top_n,omitempty"`
}

func (f Field) topN() int {
	if f.TopN > 0 {
		return f.TopN
	}
	return DefaultTopN
}

func (f Field) normalizer() func(string) string {
	return lookupNormalizer(f.Normalizer)
}

// Config drives one reconciliation run.
type Config struct {
	LeftName  string `json:"left_name" yaml:"left_name"`
	RightName string `json:"right_name" yaml:"right_name"`

	// IdentityField is the flattened column both tables are joined on.
	IdentityField string `json:"identity_field" yaml:"identity_field"`

	Fields     []Field    `json:"fields" yaml:"fields"`
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
}

// withDefaults fills unset names and thresholds.
func (c Config) withDefaults() Config {
	if c.LeftName == "" {
		c.LeftName = "left"
	}
	if c.RightName == "" {
		c.RightName = "right"
	}
	if c.IdentityField == "" {
		c.IdentityField = tables.DefaultIdentityColumn
	}
	if c.Thresholds.RowCountHighPct == 0 {
		c.Thresholds.RowCountHighPct = DefaultRowCountHighPct
	}
	if c.Thresholds.DistributionMediumPP == 0 {
		c.Thresholds.DistributionMediumPP = DefaultDistributionMediumPP
	}
	if c.Thresholds.DistributionHighPP == 0 {
		c.Thresholds.DistributionHighPP = DefaultDistributionHighPP
	}
	return c
}

// Validate checks the config for caller mistakes that deserve a fatal
// configuration error rather than a partial run.
func (c Config) Validate() error {
	for i, f := range c.Fields {
		if f.Name == "" {
			return errors.NewConfigError("reconcile",
				fmt.Sprintf("field %d has no name", i), nil)
		}
		if len(f.Left) == 0 && f.LeftContains == "" {
			return errors.NewConfigError("reconcile",
				fmt.Sprintf("field %q has no left aliases", f.Name), nil)
		}
		if len(f.Right) == 0 && f.RightContains == "" {
			return errors.NewConfigError("reconcile",
				fmt.Sprintf("field %q has no right aliases", f.Name), nil)
		}
		if f.Normalizer != "" && !hasNormalizer(f.Normalizer) {
			return errors.NewConfigError("reconcile",
				fmt.Sprintf("field %q names unknown normalizer %q", f.Name, f.Normalizer), nil)
		}
	}
	if c.Thresholds.DistributionMediumPP > c.Thresholds.DistributionHighPP &&
		c.Thresholds.DistributionHighPP != 0 {
		return errors.NewConfigError("reconcile",
			"distribution medium threshold exceeds high threshold", nil)
	}
	return nil
}

// LoadConfigFile reads and validates a YAML reconciliation config.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WrapIO("read", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.WrapParse("yaml", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
