package tuning

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"voxelscan.ai/internal/echoes"
	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/sonar"
)

var ErrInvalidSettings = errors.New("invalid settings")

type Tuning struct {
	EchoesSize     int      `yaml:"echoes_size"`
	BlockDistance  int      `yaml:"block_distance"`
	BlockRadius    int      `yaml:"block_radius"`
	EchoLifetimeMs int      `yaml:"echo_lifetime_ms"`
	SliceDelayMs   int      `yaml:"slice_delay_ms"`
	InterestingIDs []string `yaml:"interesting_ids"`

	Palette string `yaml:"palette"`
}

func Defaults() Tuning {
	return Tuning{
		EchoesSize:     echoes.DefaultCapacity,
		BlockDistance:  sonar.DefaultDistance,
		BlockRadius:    sonar.DefaultRadius,
		EchoLifetimeMs: int(echoes.DefaultLifetime.Milliseconds()),
		SliceDelayMs:   int(sonar.DefaultSliceDelay.Milliseconds()),
		InterestingIDs: ids.NewSet(sonar.DefaultInteresting...).Strings(),
	}
}

// Load reads a YAML tuning file over the defaults; keys missing from the
// file keep their default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) validate() error {
	switch {
	case t.EchoesSize < 0:
		return fmt.Errorf("%w: echoes_size %d", ErrInvalidSettings, t.EchoesSize)
	case t.BlockDistance < 0:
		return fmt.Errorf("%w: block_distance %d", ErrInvalidSettings, t.BlockDistance)
	case t.BlockRadius < 0:
		return fmt.Errorf("%w: block_radius %d", ErrInvalidSettings, t.BlockRadius)
	case t.EchoLifetimeMs < 0:
		return fmt.Errorf("%w: echo_lifetime_ms %d", ErrInvalidSettings, t.EchoLifetimeMs)
	case t.SliceDelayMs < 0:
		return fmt.Errorf("%w: slice_delay_ms %d", ErrInvalidSettings, t.SliceDelayMs)
	}
	return nil
}

func (t Tuning) SliceDelay() time.Duration {
	return time.Duration(t.SliceDelayMs) * time.Millisecond
}

// SonarConfig converts the tuning into scan parameters.
func (t Tuning) SonarConfig() (sonar.Config, error) {
	set, err := ids.ParseSet(t.InterestingIDs)
	if err != nil {
		return sonar.Config{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return sonar.Config{
		Distance:    t.BlockDistance,
		Radius:      t.BlockRadius,
		Interesting: set,
		Capacity:    t.EchoesSize,
		Lifetime:    time.Duration(t.EchoLifetimeMs) * time.Millisecond,
	}, nil
}

// Apply overlays user settings on the tuning.
func (t Tuning) Apply(s Settings) Tuning {
	t.EchoesSize = s.EchoesSize
	t.BlockDistance = s.BlockDistance
	t.BlockRadius = s.BlockRadius
	t.InterestingIDs = s.Interesting.Strings()
	return t
}
