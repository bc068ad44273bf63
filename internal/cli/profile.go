package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chazu/horologe/pkg/gearing"
	"github.com/chazu/horologe/pkg/kernel/sdfx"
	"github.com/chazu/horologe/pkg/tessellate"
)

func newProfileCmd(st *state) *cobra.Command {
	var (
		module     float64
		pinion     bool
		loose      bool
		reduceJams bool
		outline    bool
	)

	cmd := &cobra.Command{
		Use:   "profile <teeth> <partner-teeth>",
		Short: "Build the cycloidal tooth profile of a wheel or pinion",
		Long: "Builds the profile of a wheel meshing with a pinion of partner-teeth leaves, " +
			"or with --pinion, of a pinion driven by a wheel of partner-teeth teeth.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			teeth, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("teeth: %w", err)
			}
			partner, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("partner teeth: %w", err)
			}

			var opts []gearing.Option
			if loose {
				opts = append(opts, gearing.WithLooseArbours())
			}
			if reduceJams {
				opts = append(opts, gearing.WithReducedJamming())
			}
			p, err := gearing.Build(teeth, partner, module, !pinion, opts...)
			if err != nil {
				return err
			}
			st.log.Debug("profile built", "profile", p.String())

			out := cmd.OutOrStdout()
			if err := printProfile(out, p); err != nil {
				return err
			}
			if !outline {
				return nil
			}
			o, err := tessellate.Outline(p.Outline(), sdfx.New())
			if err != nil {
				return fmt.Errorf("outline: %w", err)
			}
			fmt.Fprintf(out, "outline: %d vertices, %.1f mm², perimeter %.1f mm\n",
				o.VertexCount(), o.Area(), o.Perimeter())
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64VarP(&module, "module", "m", 1, "module in mm")
	f.BoolVar(&pinion, "pinion", false, "build the pinion rather than the wheel")
	f.BoolVar(&loose, "loose", false, "allow for loose arbours")
	f.BoolVar(&reduceJams, "reduce-jamming", false, "thin the teeth to reduce jamming")
	f.BoolVar(&outline, "outline", false, "flatten the outline through the geometry kernel")
	return cmd
}
