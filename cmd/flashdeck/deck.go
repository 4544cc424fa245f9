package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"flashdeck/internal/app"
	"flashdeck/internal/deck"
)

func printDeckLine(ctx context.Context, w io.Writer, a *app.FlashdeckApp, d *deck.Deck) {
	sub, err := a.CountChildren(ctx, d.ID)
	subdecks := fmt.Sprintf("%d", sub)
	if err != nil {
		subdecks = "?"
	}
	fmt.Fprintf(w, "%-36s  %-30s  %s  %d card(s), %s subdeck(s)\n", d.ID, d.Title, d.Color, len(d.Cards), subdecks)
}

func formatPath(path []deck.PathEntry) string {
	titles := make([]string, len(path))
	for i, p := range path {
		titles[i] = p.Title
	}
	return strings.Join(titles, " / ")
}

// deck command
var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Manage decks",
}

var deckListCmd = &cobra.Command{
	Use:   "list",
	Short: "List top-level decks or the subdecks of --parent",
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")
		return withApp(cmd, "ListDecks", func(ctx context.Context, a *app.FlashdeckApp) error {
			decks, err := a.ListDecks(ctx, parent)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(decks) == 0 {
				fmt.Fprintln(out, "No decks.")
				return nil
			}
			for _, d := range decks {
				printDeckLine(ctx, out, a, d)
			}
			return nil
		})
	},
}

var deckShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a deck with its cards and subdecks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ShowDeck", func(ctx context.Context, a *app.FlashdeckApp) error {
			d, path, err := a.ShowDeck(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", formatPath(path))
			fmt.Fprintf(out, "ID:          %s\n", d.ID)
			fmt.Fprintf(out, "Description: %s\n", d.Description)
			fmt.Fprintf(out, "Color:       %s\n", d.Color)

			children, err := a.ListDecks(ctx, d.ID)
			if err != nil {
				return err
			}
			if len(children) > 0 {
				fmt.Fprintf(out, "\nSubdecks:\n")
				for _, c := range children {
					printDeckLine(ctx, out, a, c)
				}
			}

			fmt.Fprintf(out, "\nCards (%d):\n", len(d.Cards))
			for _, c := range d.Cards {
				fmt.Fprintf(out, "  [%s] Q: %s\n       A: %s\n", c.ID, c.Question, c.Answer)
			}
			return nil
		})
	},
}

var deckPathCmd = &cobra.Command{
	Use:   "path ID",
	Short: "Print the breadcrumb from the root to a deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "GetPath", func(ctx context.Context, a *app.FlashdeckApp) error {
			path, err := a.DeckPath(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatPath(path))
			return nil
		})
	},
}

var deckCreateCmd = &cobra.Command{
	Use:   "create TITLE",
	Short: "Create a deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		color, _ := cmd.Flags().GetString("color")
		parent, _ := cmd.Flags().GetString("parent")

		return withApp(cmd, "CreateDeck", func(ctx context.Context, a *app.FlashdeckApp) error {
			d, err := a.CreateDeck(ctx, app.DeckForm{Title: args[0], Description: description, Color: color}, parent)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created deck %s (%s)\n", d.Title, d.ID)
			return nil
		})
	},
}

var deckUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change a deck's fields or move it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var form app.DeckUpdateForm
		flags := cmd.Flags()
		for name, dst := range map[string]**string{
			"title":       &form.Title,
			"description": &form.Description,
			"color":       &form.Color,
			"parent":      &form.ParentID,
		} {
			if flags.Changed(name) {
				v, _ := flags.GetString(name)
				*dst = &v
			}
		}
		form.Root, _ = flags.GetBool("root")

		return withApp(cmd, "UpdateDeck", func(ctx context.Context, a *app.FlashdeckApp) error {
			d, err := a.UpdateDeck(ctx, args[0], form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated deck %s (%s)\n", d.Title, d.ID)
			return nil
		})
	},
}

var deckDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a deck and all of its subdecks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "DeleteDeck", func(ctx context.Context, a *app.FlashdeckApp) error {
			if err := a.DeleteDeck(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck %s\n", args[0])
			return nil
		})
	},
}

var deckCountCmd = &cobra.Command{
	Use:   "count [ID]",
	Short: "Count the subdecks of a deck, or the top-level decks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent := ""
		if len(args) > 0 {
			parent = args[0]
		}
		return withApp(cmd, "CountChildren", func(ctx context.Context, a *app.FlashdeckApp) error {
			n, err := a.CountChildren(ctx, parent)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		})
	},
}

// card command
var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Manage the cards of a deck",
}

var cardAddCmd = &cobra.Command{
	Use:   "add DECK",
	Short: "Add a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, _ := cmd.Flags().GetString("question")
		ans, _ := cmd.Flags().GetString("answer")
		return withApp(cmd, "AddCard", func(ctx context.Context, a *app.FlashdeckApp) error {
			d, err := a.AddCard(ctx, args[0], app.CardForm{Question: q, Answer: ans})
			if err != nil {
				return err
			}
			c := d.Cards[len(d.Cards)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "Added card %s to %s\n", c.ID, d.Title)
			return nil
		})
	},
}

var cardUpdateCmd = &cobra.Command{
	Use:   "update DECK CARD",
	Short: "Replace a card's question and answer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, _ := cmd.Flags().GetString("question")
		ans, _ := cmd.Flags().GetString("answer")
		return withApp(cmd, "UpdateCard", func(ctx context.Context, a *app.FlashdeckApp) error {
			d, err := a.UpdateCard(ctx, args[0], args[1], app.CardForm{Question: q, Answer: ans})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated card %s in %s\n", args[1], d.Title)
			return nil
		})
	},
}

var cardDeleteCmd = &cobra.Command{
	Use:   "delete DECK CARD",
	Short: "Remove a card",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "DeleteCard", func(ctx context.Context, a *app.FlashdeckApp) error {
			d, err := a.DeleteCard(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d card(s)\n", d.Title, len(d.Cards))
			return nil
		})
	},
}

func init() {
	deckListCmd.Flags().String("parent", "", "List the subdecks of this deck")
	deckCreateCmd.Flags().String("description", "", "Deck description")
	deckCreateCmd.Flags().String("color", "", "Hex colour or palette name")
	deckCreateCmd.Flags().String("parent", "", "Create as a subdeck of this deck")
	deckUpdateCmd.Flags().String("title", "", "New title")
	deckUpdateCmd.Flags().String("description", "", "New description")
	deckUpdateCmd.Flags().String("color", "", "New hex colour or palette name")
	deckUpdateCmd.Flags().String("parent", "", "Move under this deck")
	deckUpdateCmd.Flags().Bool("root", false, "Move to the top level")
	deckUpdateCmd.MarkFlagsMutuallyExclusive("parent", "root")

	deckCmd.AddCommand(deckListCmd)
	deckCmd.AddCommand(deckShowCmd)
	deckCmd.AddCommand(deckPathCmd)
	deckCmd.AddCommand(deckCreateCmd)
	deckCmd.AddCommand(deckUpdateCmd)
	deckCmd.AddCommand(deckDeleteCmd)
	deckCmd.AddCommand(deckCountCmd)

	for _, c := range []*cobra.Command{cardAddCmd, cardUpdateCmd} {
		c.Flags().StringP("question", "q", "", "Question text")
		c.Flags().StringP("answer", "a", "", "Answer text")
		c.MarkFlagRequired("question")
		c.MarkFlagRequired("answer")
	}
	cardCmd.AddCommand(cardAddCmd)
	cardCmd.AddCommand(cardUpdateCmd)
	cardCmd.AddCommand(cardDeleteCmd)

	rootCmd.AddCommand(deckCmd)
	rootCmd.AddCommand(cardCmd)
}
