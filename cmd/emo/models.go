package main

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

func runListModels(cmd *cobra.Command, a *app) error {
	out := cmd.OutOrStdout()
	models := a.registry.List(cmd.Context())

	idWidth, nameWidth := 0, 0
	for _, m := range models {
		idWidth = max(idWidth, runewidth.StringWidth(m.ID))
		nameWidth = max(nameWidth, runewidth.StringWidth(m.Name))
	}

	fmt.Fprintln(out, "Available models:")
	fmt.Fprintln(out)
	for _, m := range models {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			runewidth.FillRight(m.ID, idWidth),
			runewidth.FillRight(m.Name, nameWidth),
			m.Description)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "To use a model, set it in your config file or use --model <id>")
	return nil
}
