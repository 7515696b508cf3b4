package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quiz-battle/internal/app"
	"quiz-battle/internal/domain"
)

// NewStatusCmd prints the saved scoreboard.
func NewStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the saved scoreboard",
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
			// Pools are not needed to read the scoreboard.
			service := app.NewGameService(cmd.Context(), store, nil, app.WithLogger(log.Logger))
			printScoreboard(cmd.OutOrStdout(), service.Scoreboard())
			return nil
		},
	}
}

func printScoreboard(w io.Writer, board domain.Scoreboard) {
	switch {
	case board.BonusActive:
		fmt.Fprintln(w, "Round: bonus pending (tie)")
	case board.Finished:
		fmt.Fprintln(w, "Round: finished")
	default:
		fmt.Fprintf(w, "Round: %d\n", *board.CurrentRound)
	}

	fmt.Fprintf(w, "%-16s %5s %5s %5s %5s %6s\n", "Team", "R1", "R2", "R3", "Bonus", "Total")
	for _, team := range domain.TeamKeys {
		fmt.Fprintf(w, "%-16s %5d %5d %5d %5d %6d\n",
			board.Teams.Name(team),
			board.Scores.Round(team, domain.RoundWord),
			board.Scores.Round(team, domain.RoundChoice),
			board.Scores.Round(team, domain.RoundImage),
			board.Scores.Round(team, domain.RoundBonus),
			board.Scores.Total(team))
	}

	if board.Standing.Draw {
		fmt.Fprintln(w, "Standing: draw")
		return
	}
	fmt.Fprintf(w, "Standing: %s leads\n", board.Teams.Name(board.Standing.Leader))
}
