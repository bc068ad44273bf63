package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/horologe/pkg/config"
	"github.com/chazu/horologe/pkg/train"
)

var powerFlagKeys = map[string]string{
	"stages":             "power.stages",
	"turns":              "power.turns",
	"runtime-hours":      "power.runtime_hours",
	"minute-wheel-ratio": "power.minute_wheel_ratio",
	"inaccurate":         "power.inaccurate",
	"tooth-ratio":        "power.tooth_ratio",
}

func newPowerCmd(st *state) *cobra.Command {
	def := config.Default()
	var (
		limit int
		ratio float64
	)

	cmd := &cobra.Command{
		Use:   "power",
		Short: "Search power trains from the barrel or pulley to the minute wheel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.load(cmd, powerFlagKeys)
			if err != nil {
				return err
			}
			opts, err := cfg.Power.Options()
			if err != nil {
				return err
			}
			if changed(cmd.Flags(), "ratio") {
				opts.DesiredRatio = ratio
			}
			opts.Logger = st.log
			cands, err := train.PowerTrain(opts).Solve(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "desired ratio %.4f, %d trains\n", opts.DesiredRatio, len(cands))
			return printCandidates(out, cands, limit)
		},
	}

	f := cmd.Flags()
	f.Int("stages", def.Power.Stages, "meshing stages, 1 or 2")
	f.Float64("turns", def.Power.Turns, "barrel or pulley turns available")
	f.Float64("runtime-hours", def.Power.RuntimeHours, "hours the clock must run")
	f.Float64("minute-wheel-ratio", def.Power.MinuteWheelRatio, "minute wheel turns per hour")
	f.Bool("inaccurate", def.Power.Inaccurate, "accept any ratio within 1")
	f.Float64("tooth-ratio", def.Power.ToothRatio, "wanted first/second wheel teeth ratio")
	f.Float64Var(&ratio, "ratio", 0, "desired ratio, overriding turns and runtime")
	f.IntVar(&limit, "limit", 10, "trains to list, 0 for all")
	return cmd
}
