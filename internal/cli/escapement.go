package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/horologe/pkg/config"
	"github.com/chazu/horologe/pkg/kernel/sdfx"
	"github.com/chazu/horologe/pkg/tessellate"
)

var escapementFlagKeys = map[string]string{
	"family":   "escapement.family",
	"teeth":    "escapement.teeth",
	"diameter": "escapement.diameter",
	"lift":     "escapement.lift",
	"drop":     "escapement.drop",
	"lock":     "escapement.lock",
	"run":      "escapement.run",
}

func newEscapementCmd(st *state) *cobra.Command {
	def := config.Default()
	var autoLift, outline bool

	cmd := &cobra.Command{
		Use:   "escapement",
		Short: "Lay out an escape wheel and anchor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.load(cmd, escapementFlagKeys)
			if err != nil {
				return err
			}
			ec := cfg.Escapement
			if autoLift {
				ec.Lift = 0
			}
			geo, err := ec.Geometry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printEscapement(out, geo); err != nil {
				return err
			}
			if !outline {
				return nil
			}

			k := sdfx.New()
			anchor, err := tessellate.Outline(geo.AnchorOutline(), k)
			if err != nil {
				return fmt.Errorf("anchor outline: %w", err)
			}
			wheel, err := tessellate.Outline(geo.WheelToothOutline(), k)
			if err != nil {
				return fmt.Errorf("wheel outline: %w", err)
			}
			fmt.Fprintf(out, "anchor outline: %d vertices, %.1f mm²\n", anchor.VertexCount(), anchor.Area())
			fmt.Fprintf(out, "wheel outline: %d vertices, %.1f mm²\n", wheel.VertexCount(), wheel.Area())
			return nil
		},
	}

	f := cmd.Flags()
	f.String("family", def.Escapement.Family, "escapement family")
	f.Int("teeth", def.Escapement.Teeth, "escape wheel teeth")
	f.Float64("diameter", def.Escapement.Diameter, "escape wheel diameter in mm")
	f.Float64("lift", def.Escapement.Lift, "lift in degrees")
	f.Float64("drop", def.Escapement.Drop, "drop in degrees")
	f.Float64("lock", def.Escapement.Lock, "lock in degrees")
	f.Float64("run", def.Escapement.Run, "run in degrees")
	f.BoolVar(&autoLift, "auto-lift", false, "pick the lift that gives 45° pallets")
	f.BoolVar(&outline, "outline", false, "flatten the anchor and escape wheel outlines")
	return cmd
}
