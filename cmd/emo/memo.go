package main

import (
	"fmt"

	"github.com/4thel00z/emo/internal"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

func runSaveMemo(cmd *cobra.Command, a *app, cfg *internal.Config, term, ref string) error {
	svc := internal.NewMemoService(a.paths.ConfigPath(), a.dataset)

	memo, err := svc.Save(cfg, term, ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s ➡ %s ✅\n", memo.Term, memo.Glyph)
	return nil
}

func runErase(cmd *cobra.Command, a *app, cfg *internal.Config, term string) error {
	svc := internal.NewMemoService(a.paths.ConfigPath(), a.dataset)

	if err := svc.Erase(cfg, term); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Mapping for '%s' erased ✅\n", term)
	return nil
}

func runListMappings(cmd *cobra.Command, cfg *internal.Config) error {
	out := cmd.OutOrStdout()

	memos := cfg.Memos()
	if len(memos) == 0 {
		fmt.Fprintln(out, "No saved mappings.")
		return nil
	}

	width := 0
	for _, m := range memos {
		width = max(width, runewidth.StringWidth(m.Term))
	}

	fmt.Fprintln(out, "Saved mappings:")
	for _, m := range memos {
		fmt.Fprintf(out, "  %s → %s\n", runewidth.FillRight(m.Term, width), m.Glyph)
	}
	return nil
}
