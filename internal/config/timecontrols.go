package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/kasupel/server/internal/domain/clock"
)

//go:embed timecontrols.yaml
var defaultFiles embed.FS

// ErrUnknownTimeControl is returned for a preset name that is not defined.
var ErrUnknownTimeControl = errors.New("unknown time control")

// TimeControl is a named clock.Control preset.
type TimeControl struct {
	Name    string
	Control clock.Control
}

type presetFile struct {
	TimeControls []presetEntry `yaml:"time_controls"`
}

type presetEntry struct {
	Name       string `yaml:"name"`
	Main       string `yaml:"main"`
	FixedExtra string `yaml:"fixed_extra"`
	Increment  string `yaml:"increment"`
}

// TimeControls is the ordered set of presets.
type TimeControls struct {
	list []TimeControl
}

// LoadTimeControls reads the embedded presets, then applies overrideFile
// when set: entries with a known name replace the built-in, new names are
// appended.
func LoadTimeControls(overrideFile string) (*TimeControls, error) {
	raw, err := fs.ReadFile(defaultFiles, "timecontrols.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded time controls: %w", err)
	}
	tc := &TimeControls{}
	if err := tc.apply(raw); err != nil {
		return nil, fmt.Errorf("embedded time controls: %w", err)
	}
	if strings.TrimSpace(overrideFile) != "" {
		b, err := os.ReadFile(overrideFile)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", overrideFile, err)
		}
		if err := tc.apply(b); err != nil {
			return nil, fmt.Errorf("parse %s: %w", overrideFile, err)
		}
	}
	return tc, nil
}

func (tc *TimeControls) apply(raw []byte) error {
	var f presetFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}
	for _, e := range f.TimeControls {
		preset, err := e.parse()
		if err != nil {
			return err
		}
		tc.put(preset)
	}
	return nil
}

func (e presetEntry) parse() (TimeControl, error) {
	name := strings.ToLower(strings.TrimSpace(e.Name))
	if name == "" {
		return TimeControl{}, errors.New("time control without a name")
	}
	var c clock.Control
	for _, f := range []struct {
		raw string
		dst *time.Duration
	}{
		{e.Main, &c.Main},
		{e.FixedExtra, &c.FixedExtra},
		{e.Increment, &c.Increment},
	} {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return TimeControl{}, fmt.Errorf("time control %s: %w", name, err)
		}
		*f.dst = d
	}
	if err := c.Validate(); err != nil {
		return TimeControl{}, fmt.Errorf("time control %s: %w", name, err)
	}
	return TimeControl{Name: name, Control: c}, nil
}

func (tc *TimeControls) put(p TimeControl) {
	for i := range tc.list {
		if tc.list[i].Name == p.Name {
			tc.list[i] = p
			return
		}
	}
	tc.list = append(tc.list, p)
}

// Lookup returns the preset called name.
func (tc *TimeControls) Lookup(name string) (clock.Control, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, p := range tc.list {
		if p.Name == key {
			return p.Control, nil
		}
	}
	return clock.Control{}, fmt.Errorf("%w: %q", ErrUnknownTimeControl, name)
}

// All returns the presets in definition order.
func (tc *TimeControls) All() []TimeControl {
	return append([]TimeControl(nil), tc.list...)
}
