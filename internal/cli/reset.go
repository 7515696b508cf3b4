package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewResetCmd clears the saved game so the next start begins fresh.
func NewResetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the saved game",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			b := &backends{}
			defer b.Close()
			store, err := b.snapshotStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			log.Info().Str("store", cfg.Store.Driver).Msg("saved game cleared")
			fmt.Fprintln(cmd.OutOrStdout(), "game reset")
			return nil
		},
	}
}
