package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/horologe/pkg/config"
	"github.com/chazu/horologe/pkg/train"
)

var goingFlagKeys = map[string]string{
	"stages":             "going.stages",
	"minute-wheel-ratio": "going.minute_wheel_ratio",
	"tolerance":          "going.error_tolerance",
	"module":             "going.module",
	"allow-integer":      "going.allow_integer_ratio",
	"seconds-hand":       "going.seconds_hand",
	"pendulum-period":    "pendulum.period",
	"escapement-teeth":   "escapement.teeth",
}

func newGoingCmd(st *state) *cobra.Command {
	def := config.Default()
	var limit int

	cmd := &cobra.Command{
		Use:   "going",
		Short: "Search going trains from the escape wheel to the minute wheel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.load(cmd, goingFlagKeys)
			if err != nil {
				return err
			}
			opts, err := cfg.GoingOptions()
			if err != nil {
				return err
			}
			opts.Logger = st.log
			cands, err := train.GoingTrain(opts).Solve(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "escape wheel %.4g s, minute wheel %.4g s, %d trains\n",
				opts.EscapementTime, opts.TargetTime, len(cands))
			return printCandidates(out, cands, limit)
		},
	}

	f := cmd.Flags()
	f.Int("stages", def.Going.Stages, "meshing stages")
	f.Float64("minute-wheel-ratio", def.Going.MinuteWheelRatio, "minute wheel turns per hour")
	f.Float64("tolerance", def.Going.ErrorTolerance, "allowed timing error in seconds")
	f.Float64("module", def.Going.Module, "module of the first stage")
	f.Bool("allow-integer", def.Going.AllowIntegerRatio, "allow stages with integer ratios")
	f.Bool("seconds-hand", def.Going.SecondsHand, "turn the penultimate wheel once a minute")
	f.Float64("pendulum-period", def.Pendulum.Period, "pendulum period in seconds")
	f.Int("escapement-teeth", def.Escapement.Teeth, "escape wheel teeth")
	f.IntVar(&limit, "limit", 10, "trains to list, 0 for all")
	return cmd
}
