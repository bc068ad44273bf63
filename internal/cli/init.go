package cli

import (
	"github.com/spf13/cobra"

	"github.com/chazu/horologe/pkg/config"
)

func newInitCmd(st *state) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Print a movement manifest filled in from the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.load(cmd, nil)
			if err != nil {
				return err
			}
			data, err := config.MarshalManifest(config.Manifest{
				Movement:   config.MovementInfo{Name: name, Description: description},
				Pendulum:   cfg.Pendulum,
				Escapement: cfg.Escapement,
				Going:      cfg.Going,
				Power:      cfg.Power,
			})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "movement", "movement name")
	cmd.Flags().StringVar(&description, "description", "", "movement description")
	return cmd
}
