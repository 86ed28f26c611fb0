package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hovercard/internal/adapter/output"
	"github.com/jmylchreest/hovercard/internal/card"
	"github.com/jmylchreest/hovercard/internal/dbus"
)

var cardsOpts struct {
	format string
	remote bool
}

var cardsCmd = &cobra.Command{
	Use:   "cards [name...]",
	Short: "List hover cards",
	Long: `List the cards in the catalog with their popover size and fields.

Bundled cards are always available. Templates in the cards directory
(default ~/.config/hovercard/cards) are added, and replace bundled cards
with the same name. Required fields are marked with *.

Examples:
  hovercard cards
  hovercard cards essay speech --format yaml

  # List the names served by a running hovercardd
  hovercard cards --remote`,
	RunE: runCards,
}

func init() {
	rootCmd.AddCommand(cardsCmd)

	cardsCmd.Flags().StringVarP(&cardsOpts.format, "format", "f", "",
		"Output format (plain, json, yaml; default from config)")
	cardsCmd.Flags().BoolVar(&cardsOpts.remote, "remote", false,
		"List the card names of the hovercardd D-Bus service")
}

func runCards(cmd *cobra.Command, args []string) error {
	name := cardsOpts.format
	if name == "" {
		name = cfg.Output.Format
	}
	format, err := output.ParseFormat(strings.ToLower(name))
	if err != nil {
		return err
	}

	if cardsOpts.remote {
		names, err := remoteCardNames(cmd.Context(), args)
		if err != nil {
			return err
		}
		return output.WriteNames(cmd.OutOrStdout(), format, names)
	}

	cards := catalog.All()
	if len(args) > 0 {
		cards = make([]*card.Card, 0, len(args))
		for _, n := range args {
			c, err := catalog.Get(n)
			if err != nil {
				return err
			}
			cards = append(cards, c)
		}
	}

	logger.Debug("listing cards", "count", len(cards))
	return output.WriteCards(cmd.OutOrStdout(), format, cards)
}

// remoteCardNames asks the service for its catalog, narrowed to args when given.
func remoteCardNames(ctx context.Context, args []string) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	client, err := dbus.NewClient(cfg.DBus.BusName, logger)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	names, err := client.Cards(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("listing remote cards", "bus_name", cfg.DBus.BusName, "count", len(names))
	return filterNames(names, args)
}

// filterNames keeps the requested names in request order.
func filterNames(names, want []string) ([]string, error) {
	if len(want) == 0 {
		return names, nil
	}
	out := make([]string, 0, len(want))
	for _, n := range want {
		if !slices.Contains(names, n) {
			return nil, fmt.Errorf("%w: %s", card.ErrUnknownCard, n)
		}
		out = append(out, n)
	}
	return out, nil
}
