// Package cli is the horologe command line: solvers, escapement and tooth
// profile reports, and movement script evaluation.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chazu/horologe/pkg/config"
)

// state is shared by the root command and its subcommands.
type state struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	log     *slog.Logger
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	st := &state{v: viper.New(), log: slog.Default()}

	root := &cobra.Command{
		Use:   "horologe",
		Short: "Clock gear train and escapement designer",
		Long: "Horologe searches going and power trains, builds cycloidal tooth profiles " +
			"and lays out deadbeat escapements.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.initConfig(cmd)
		},
	}

	root.PersistentFlags().StringVar(&st.cfgFile, "config", "", "config file (default .horologe.toml)")
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newGoingCmd(st),
		newPowerCmd(st),
		newEscapementCmd(st),
		newProfileCmd(st),
		newEvalCmd(st),
		newInitCmd(st),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (st *state) initConfig(cmd *cobra.Command) error {
	config.Setup(st.v)
	if st.cfgFile != "" {
		st.v.SetConfigFile(st.cfgFile)
		if err := st.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	} else {
		st.v.SetConfigName(".horologe")
		st.v.SetConfigType("toml")
		st.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			st.v.AddConfigPath(home)
		}
		// It's fine if no config file is found; we use defaults.
		if err := st.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("reading config: %w", err)
			}
		}
	}

	level := slog.LevelInfo
	if st.verbose {
		level = slog.LevelDebug
	} else if l, err := (config.LogConfig{Level: st.v.GetString("log.level")}).SlogLevel(); err == nil {
		level = l
	}
	st.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(st.log)
	return nil
}

// load binds the changed flags of cmd to their config keys and decodes the
// configuration.
func (st *state) load(cmd *cobra.Command, keys map[string]string) (config.Config, error) {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := st.v.BindPFlag(key, f); err != nil {
			return config.Config{}, fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return config.Load(st.v)
}

// changed reports whether the named flag was given.
func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}
