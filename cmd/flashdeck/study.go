package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flashdeck/internal/app"
)

var studyCmd = &cobra.Command{
	Use:   "study DECK",
	Short: "Study a deck card by card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Study", func(ctx context.Context, a *app.FlashdeckApp) error {
			session, err := a.StartStudy(ctx, args[0])
			if err != nil {
				return err
			}

			in, out := cmd.InOrStdin(), cmd.OutOrStdout()
			fmt.Fprintf(out, "Studying %s\n", session.Deck().Title)
			for {
				for !session.Done() {
					n, total := session.Position()
					card := session.Current()
					fmt.Fprintf(out, "\n[%d/%d] %s\n(press Enter to reveal) ", n, total, card.Question)
					if _, err := readLine(in); err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\nDid you know it? [y/n] ", card.Answer)
					reply, err := readLine(in)
					if err != nil {
						return err
					}
					session.Answer(strings.HasPrefix(strings.ToLower(strings.TrimSpace(reply)), "y"))
				}

				r := session.Results()
				fmt.Fprintf(out, "\nKnown %d of %d, %d to review.\n", r.Known, r.Total, r.Review)
				for _, c := range session.ReviewCards() {
					fmt.Fprintf(out, "  review: %s\n", c.Question)
				}

				fmt.Fprint(out, "Study again? [y/N] ")
				reply, err := readLine(in)
				if err != nil || !strings.HasPrefix(strings.ToLower(strings.TrimSpace(reply)), "y") {
					return nil
				}
				session.Restart()
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(studyCmd)
}
