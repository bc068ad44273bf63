// Package config holds the search and geometry settings shared by the CLI
// and movement manifests. Settings come from built-in defaults, an
// optional .horologe.toml, HOROLOGE_* environment variables and CLI flags,
// in rising order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/chazu/horologe/pkg/escapement"
	"github.com/chazu/horologe/pkg/fault"
	"github.com/chazu/horologe/pkg/geom"
	"github.com/chazu/horologe/pkg/timing"
	"github.com/chazu/horologe/pkg/train"
)

// EnvPrefix prefixes every environment override, e.g. HOROLOGE_GOING_STAGES.
const EnvPrefix = "HOROLOGE"

// PendulumConfig describes the pendulum. Length, in metres, is used only
// when Period is zero.
type PendulumConfig struct {
	Period float64 `mapstructure:"period" toml:"period"`
	Length float64 `mapstructure:"length" toml:"length"`
}

// EscapementConfig describes the escapement. Angles are in degrees. A zero
// Lift asks for the lift that gives 45° pallets.
type EscapementConfig struct {
	Family   string  `mapstructure:"family" toml:"family"`
	Teeth    int     `mapstructure:"teeth" toml:"teeth"`
	Diameter float64 `mapstructure:"diameter" toml:"diameter"`
	Lift     float64 `mapstructure:"lift" toml:"lift"`
	Drop     float64 `mapstructure:"drop" toml:"drop"`
	Lock     float64 `mapstructure:"lock" toml:"lock"`
	Run      float64 `mapstructure:"run" toml:"run"`
}

// GoingConfig configures the going train search.
type GoingConfig struct {
	Stages                   int         `mapstructure:"stages" toml:"stages"`
	Pinions                  train.Range `mapstructure:"pinions" toml:"pinions"`
	Wheels                   train.Range `mapstructure:"wheels" toml:"wheels"`
	MinuteWheelRatio         float64     `mapstructure:"minute_wheel_ratio" toml:"minute_wheel_ratio"`
	ErrorTolerance           float64     `mapstructure:"error_tolerance" toml:"error_tolerance"`
	Module                   float64     `mapstructure:"module" toml:"module"`
	ModuleReduction          float64     `mapstructure:"module_reduction" toml:"module_reduction"`
	AllowIntegerRatio        bool        `mapstructure:"allow_integer_ratio" toml:"allow_integer_ratio"`
	FavourSmallest           bool        `mapstructure:"favour_smallest" toml:"favour_smallest"`
	SecondsHand              bool        `mapstructure:"seconds_hand" toml:"seconds_hand"`
	PenultimateWheelMinRatio float64     `mapstructure:"penultimate_wheel_min_ratio" toml:"penultimate_wheel_min_ratio"`
}

// PowerConfig configures the power train search. The desired ratio is
// derived from Turns, RuntimeHours and MinuteWheelRatio.
type PowerConfig struct {
	Stages                 int         `mapstructure:"stages" toml:"stages"`
	Pinions                train.Range `mapstructure:"pinions" toml:"pinions"`
	Wheels                 train.Range `mapstructure:"wheels" toml:"wheels"`
	Turns                  float64     `mapstructure:"turns" toml:"turns"`
	RuntimeHours           float64     `mapstructure:"runtime_hours" toml:"runtime_hours"`
	MinuteWheelRatio       float64     `mapstructure:"minute_wheel_ratio" toml:"minute_wheel_ratio"`
	ErrorTolerance         float64     `mapstructure:"error_tolerance" toml:"error_tolerance"`
	Inaccurate             bool        `mapstructure:"inaccurate" toml:"inaccurate"`
	PreferLargeSecondWheel bool        `mapstructure:"prefer_large_second_wheel" toml:"prefer_large_second_wheel"`
	ToothRatio             float64     `mapstructure:"tooth_ratio" toml:"tooth_ratio"`
	Module                 float64     `mapstructure:"module" toml:"module"`
	ModuleReduction        float64     `mapstructure:"module_reduction" toml:"module_reduction"`
}

// LogConfig configures the slog handler installed by the CLI.
type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
}

// Config holds all runtime configuration.
type Config struct {
	Pendulum   PendulumConfig   `mapstructure:"pendulum"`
	Escapement EscapementConfig `mapstructure:"escapement"`
	Going      GoingConfig      `mapstructure:"going"`
	Power      PowerConfig      `mapstructure:"power"`
	Log        LogConfig        `mapstructure:"log"`
}

// Default returns the built-in configuration: a one second pendulum, a 30
// tooth deadbeat escape wheel and the solvers' own defaults.
func Default() Config {
	going := train.DefaultGoingOptions()
	power := train.DefaultPowerOptions(0)
	return Config{
		Pendulum: PendulumConfig{Period: 2},
		Escapement: EscapementConfig{
			Family:   "deadbeat",
			Teeth:    30,
			Diameter: 100,
			Lift:     4,
			Drop:     2,
			Lock:     2,
			Run:      geom.RadToDeg(escapement.DefaultRun),
		},
		Going: GoingConfig{
			Stages:           going.Stages,
			Pinions:          going.Pinions,
			Wheels:           going.Wheels,
			MinuteWheelRatio: 1,
			ErrorTolerance:   going.ErrorTolerance,
			Module:           going.Module,
			ModuleReduction:  going.ModuleReduction,
			FavourSmallest:   going.FavourSmallest,
		},
		Power: PowerConfig{
			Stages:                 power.Stages,
			Pinions:                power.Pinions,
			Wheels:                 power.Wheels,
			Turns:                  10,
			RuntimeHours:           30,
			MinuteWheelRatio:       1,
			ErrorTolerance:         power.ErrorTolerance,
			PreferLargeSecondWheel: power.PreferLargeSecondWheel,
			Module:                 power.Module,
			ModuleReduction:        power.ModuleReduction,
		},
		Log: LogConfig{Level: "info"},
	}
}

// SetDefaults registers every key of Default with v so environment
// variables and config files can override any of them.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("pendulum.period", d.Pendulum.Period)
	v.SetDefault("pendulum.length", d.Pendulum.Length)

	v.SetDefault("escapement.family", d.Escapement.Family)
	v.SetDefault("escapement.teeth", d.Escapement.Teeth)
	v.SetDefault("escapement.diameter", d.Escapement.Diameter)
	v.SetDefault("escapement.lift", d.Escapement.Lift)
	v.SetDefault("escapement.drop", d.Escapement.Drop)
	v.SetDefault("escapement.lock", d.Escapement.Lock)
	v.SetDefault("escapement.run", d.Escapement.Run)

	v.SetDefault("going.stages", d.Going.Stages)
	v.SetDefault("going.pinions.min", d.Going.Pinions.Min)
	v.SetDefault("going.pinions.max", d.Going.Pinions.Max)
	v.SetDefault("going.wheels.min", d.Going.Wheels.Min)
	v.SetDefault("going.wheels.max", d.Going.Wheels.Max)
	v.SetDefault("going.minute_wheel_ratio", d.Going.MinuteWheelRatio)
	v.SetDefault("going.error_tolerance", d.Going.ErrorTolerance)
	v.SetDefault("going.module", d.Going.Module)
	v.SetDefault("going.module_reduction", d.Going.ModuleReduction)
	v.SetDefault("going.allow_integer_ratio", d.Going.AllowIntegerRatio)
	v.SetDefault("going.favour_smallest", d.Going.FavourSmallest)
	v.SetDefault("going.seconds_hand", d.Going.SecondsHand)
	v.SetDefault("going.penultimate_wheel_min_ratio", d.Going.PenultimateWheelMinRatio)

	v.SetDefault("power.stages", d.Power.Stages)
	v.SetDefault("power.pinions.min", d.Power.Pinions.Min)
	v.SetDefault("power.pinions.max", d.Power.Pinions.Max)
	v.SetDefault("power.wheels.min", d.Power.Wheels.Min)
	v.SetDefault("power.wheels.max", d.Power.Wheels.Max)
	v.SetDefault("power.turns", d.Power.Turns)
	v.SetDefault("power.runtime_hours", d.Power.RuntimeHours)
	v.SetDefault("power.minute_wheel_ratio", d.Power.MinuteWheelRatio)
	v.SetDefault("power.error_tolerance", d.Power.ErrorTolerance)
	v.SetDefault("power.inaccurate", d.Power.Inaccurate)
	v.SetDefault("power.prefer_large_second_wheel", d.Power.PreferLargeSecondWheel)
	v.SetDefault("power.tooth_ratio", d.Power.ToothRatio)
	v.SetDefault("power.module", d.Power.Module)
	v.SetDefault("power.module_reduction", d.Power.ModuleReduction)

	v.SetDefault("log.level", d.Log.Level)
}

// Setup registers defaults and the HOROLOGE_ environment binding on v.
// Nested keys map to underscores: going.stages reads HOROLOGE_GOING_STAGES.
func Setup(v *viper.Viper) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the configuration held by v. Setup should have been called
// on v first.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if _, err := cfg.Log.SlogLevel(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SlogLevel parses Level. An empty level is info.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if c.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fault.InvalidConstraint("config.Log", "unknown log level %q", c.Level)
	}
	return l, nil
}

// EffectivePeriod returns Period, or the period of a pendulum of Length.
func (c PendulumConfig) EffectivePeriod() (float64, error) {
	switch {
	case c.Period > 0:
		return c.Period, nil
	case c.Length > 0:
		return timing.PendulumPeriod(c.Length), nil
	}
	return 0, fault.InvalidConstraint("config.Pendulum", "need a positive period or length")
}

// Geometry builds the escapement.
func (c EscapementConfig) Geometry() (escapement.Geometry, error) {
	family, ok := escapement.ParseFamily(c.Family)
	if !ok {
		return escapement.Geometry{}, fault.InvalidConstraint("config.Escapement", "unknown escapement family %q", c.Family)
	}
	var opts []escapement.Option
	if c.Run > 0 {
		opts = append(opts, escapement.WithRun(geom.DegToRad(c.Run)))
	}
	drop, lock := geom.DegToRad(c.Drop), geom.DegToRad(c.Lock)
	if c.Lift <= 0 && family == escapement.Deadbeat() {
		return escapement.With45DegPallets(c.Teeth, c.Diameter, drop, lock, opts...)
	}
	return escapement.New(family, c.Teeth, c.Diameter, geom.DegToRad(c.Lift), drop, lock, opts...)
}

// GoingOptions turns the going settings into solver options. The
// escapement time comes from the pendulum and escape wheel teeth.
func (c Config) GoingOptions() (train.GoingOptions, error) {
	period, err := c.Pendulum.EffectivePeriod()
	if err != nil {
		return train.GoingOptions{}, err
	}
	if c.Going.MinuteWheelRatio <= 0 {
		return train.GoingOptions{}, fault.InvalidConstraint("config.Going",
			"minute wheel ratio must be positive, got %g", c.Going.MinuteWheelRatio)
	}
	g := c.Going
	return train.GoingOptions{
		Stages:                   g.Stages,
		Pinions:                  g.Pinions,
		Wheels:                   g.Wheels,
		TargetTime:               timing.TargetTime(g.MinuteWheelRatio),
		EscapementTime:           timing.EscapementTime(period, c.Escapement.Teeth),
		ErrorTolerance:           g.ErrorTolerance,
		ModuleReduction:          g.ModuleReduction,
		Module:                   g.Module,
		AllowIntegerRatio:        g.AllowIntegerRatio,
		FavourSmallest:           g.FavourSmallest,
		SecondsHand:              g.SecondsHand,
		PenultimateWheelMinRatio: g.PenultimateWheelMinRatio,
	}, nil
}

// Options turns the power settings into solver options.
func (c PowerConfig) Options() (train.PowerOptions, error) {
	ratio, err := timing.DesiredPowerRatio(c.Turns, c.RuntimeHours, c.MinuteWheelRatio)
	if err != nil {
		return train.PowerOptions{}, err
	}
	return train.PowerOptions{
		Stages:                 c.Stages,
		Pinions:                c.Pinions,
		Wheels:                 c.Wheels,
		DesiredRatio:           ratio,
		ErrorTolerance:         c.ErrorTolerance,
		Inaccurate:             c.Inaccurate,
		PreferLargeSecondWheel: c.PreferLargeSecondWheel,
		ToothRatio:             c.ToothRatio,
		ModuleReduction:        c.ModuleReduction,
		Module:                 c.Module,
	}, nil
}
