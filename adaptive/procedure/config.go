package procedure

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-psych/adaptive/maxlik"
	"github.com/cwbudde/algo-psych/adaptive/pest"
	"github.com/cwbudde/algo-psych/adaptive/psi"
	"github.com/cwbudde/algo-psych/adaptive/staircase"
)

// Config selects a procedure kind and holds the settings of every kind;
// only the section matching Kind is used.
type Config struct {
	Kind string `yaml:"kind"`
	// Label names the experimental condition; PSI posteriors are stored
	// under it.
	Label string `yaml:"label,omitempty"`
	// MaxTrials bounds the session. Required for psi and maxlik kinds.
	MaxTrials int `yaml:"maxTrials,omitempty"`

	PSI       psi.Config                `yaml:"psi"`
	Staircase staircase.Config          `yaml:"staircase"`
	Tracks    Tracks                    `yaml:"tracks,omitempty"`
	Scheduler staircase.SchedulerConfig `yaml:"scheduler"`
	Average   staircase.Average         `yaml:"average"`
	PEST      pest.Config               `yaml:"pest"`
	MaxLik    maxlik.Config             `yaml:"maxlik"`
}

// DefaultConfig returns a 2AFC PSI configuration and defaults for every
// other kind. MaxTrials is 0: staircase and PEST kinds end on their own, psi
// and maxlik kinds must set a budget.
func DefaultConfig() Config {
	return Config{
		Kind:      KindPSI,
		PSI:       psi.DefaultConfig(),
		Staircase: staircase.DefaultConfig(),
		PEST:      pest.DefaultConfig(),
		MaxLik:    maxlik.DefaultConfig(),
	}
}

// Tracks lists interleaved staircase tracks. Keys missing from a track in
// a YAML file keep staircase.DefaultConfig values.
type Tracks []staircase.Config

func (t *Tracks) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		return fmt.Errorf("%w: tracks must be a list (line %d)", ErrInvalidConfig, n.Line)
	}

	out := make(Tracks, len(n.Content))
	for i, item := range n.Content {
		out[i] = staircase.DefaultConfig()
		if err := decodeStrict(item, &out[i]); err != nil {
			return fmt.Errorf("track %d (line %d): %w", i, item.Line, err)
		}
	}

	*t = out

	return nil
}

// decodeStrict decodes n into v rejecting unknown keys. Node.Decode does not
// inherit KnownFields from the outer decoder, so n is re-encoded first.
func decodeStrict(n *yaml.Node, v any) error {
	data, err := yaml.Marshal(n)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	return dec.Decode(v)
}

// Load reads a YAML configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("procedure: read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML over DefaultConfig and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the section selected by Kind.
func (c Config) Validate() error {
	if c.MaxTrials < 0 {
		return fmt.Errorf("%w: max trials must be >= 0: %d", ErrInvalidConfig, c.MaxTrials)
	}

	if c.NeedsBudget() && c.MaxTrials == 0 {
		return fmt.Errorf("%w: %s needs maxTrials", ErrInvalidConfig, c.Kind)
	}

	var err error

	switch c.Kind {
	case KindPSI, KindPSIGuessRate:
		err = c.psiConfig().Validate()
	case KindStaircase:
		if err = c.Staircase.Validate(); err == nil {
			err = c.Average.Validate()
		}
	case KindInterleaved:
		if len(c.Tracks) == 0 {
			return fmt.Errorf("%w: interleaved needs tracks", ErrInvalidConfig)
		}

		for i, tc := range c.Tracks {
			if err := tc.Validate(); err != nil {
				return fmt.Errorf("%w: track %d: %w", ErrInvalidConfig, i, err)
			}
		}

		err = c.Average.Validate()
	case KindPEST:
		err = c.PEST.Validate()
	case KindMaxLik:
		err = c.MaxLik.Validate()
	case "":
		return fmt.Errorf("%w: kind is required", ErrInvalidConfig)
	default:
		return nil
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, c.Kind, err)
	}

	return nil
}

// NeedsBudget reports whether Kind never ends without MaxTrials.
func (c Config) NeedsBudget() bool {
	switch c.Kind {
	case KindPSI, KindPSIGuessRate, KindMaxLik:
		return true
	default:
		return false
	}
}

// psiConfig returns the PSI section with the variant implied by Kind.
func (c Config) psiConfig() psi.Config {
	cfg := c.PSI
	if c.Kind == KindPSIGuessRate {
		cfg.Variant = psi.VariantGuessRate
	} else {
		cfg.Variant = psi.VariantStandard
	}

	return cfg
}
