package config

import (
	"bytes"
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
)

// MovementInfo names the movement a manifest describes.
type MovementInfo struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// Manifest is a TOML movement description:
//
//	[movement]
//	name = "regulator"
//
//	[pendulum]
//	period = 2
//
//	[escapement]
//	teeth = 30
//	diameter = 100
//
//	[going]
//	stages = 2
//
//	[power]
//	turns = 10
//	runtime_hours = 30
//
// Tables and keys left out keep their values from the base configuration.
// The power train is only built when a [power] table is present.
type Manifest struct {
	Movement   MovementInfo     `toml:"movement"`
	Pendulum   PendulumConfig   `toml:"pendulum"`
	Escapement EscapementConfig `toml:"escapement"`
	Going      GoingConfig      `toml:"going"`
	Power      PowerConfig      `toml:"power"`

	HasPower bool `toml:"-"`
}

// Config returns the manifest's settings as a Config with logging taken
// from base.
func (m Manifest) Config(base Config) Config {
	base.Pendulum = m.Pendulum
	base.Escapement = m.Escapement
	base.Going = m.Going
	base.Power = m.Power
	return base
}

// ParseManifest decodes manifest bytes over base. Unknown keys are an
// error so misspelt settings do not silently fall back to defaults.
func ParseManifest(data []byte, base Config) (Manifest, error) {
	m := Manifest{
		Pendulum:   base.Pendulum,
		Escapement: base.Escapement,
		Going:      base.Going,
		Power:      base.Power,
	}
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}

	var tables map[string]any
	if err := toml.Unmarshal(data, &tables); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	_, m.HasPower = tables["power"]

	if m.Movement.Name == "" {
		m.Movement.Name = "movement"
	}
	return m, nil
}

// MarshalManifest encodes m as TOML.
func MarshalManifest(m Manifest) ([]byte, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return data, nil
}
