package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/4thel00z/emo/internal"
	"github.com/spf13/cobra"
)

func runSelect(cmd *cobra.Command, a *app, cfg *internal.Config, req internal.Request, o options) error {
	resolver := internal.NewResolver(a.dataset, cfg.Mappings, nil, nil)

	res, err := resolver.Resolve(cmd.Context(), req)
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), req, res, o.number)
	reportResult(cmd.ErrOrStderr(), res)
	return nil
}

func runAI(cmd *cobra.Command, a *app, cfg *internal.Config, req internal.Request, o options) error {
	selector, err := a.selector(cmd.Context(), cfg, o.selection.Model)
	if err != nil {
		return err
	}
	defer selector.Close()

	resolver := internal.NewResolver(a.dataset, cfg.Mappings, selector, nil)

	res, err := resolver.Resolve(cmd.Context(), req)
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), req, res, o.number)
	reportResult(cmd.ErrOrStderr(), res)
	return nil
}

func printResult(w io.Writer, req internal.Request, res *internal.Result, number bool) {
	prefix := func(i int) string {
		if !number {
			return ""
		}
		return fmt.Sprintf("%d. ", i+1)
	}

	switch req.Mode {
	case internal.ModeAISentence:
		for i, sentence := range res.Sentences {
			var sb strings.Builder
			for _, c := range sentence {
				sb.WriteString(c.Glyph)
			}
			fmt.Fprintf(w, "%s%s\n", prefix(i), sb.String())
		}
	case internal.ModeDefine:
		for _, c := range res.Candidates {
			fmt.Fprintln(w, strings.TrimRight(fmt.Sprintf("%s - %s %s", c.Glyph, c.Name, c.Definition), " "))
		}
	case internal.ModeRandom:
		for i, c := range res.Candidates {
			fmt.Fprintf(w, "%s%s - %s\n", prefix(i), c.Glyph, c.Name)
		}
	default:
		for i, c := range res.Candidates {
			fmt.Fprintf(w, "%s%s\n", prefix(i), c.Glyph)
		}
	}
}

func reportResult(w io.Writer, res *internal.Result) {
	for _, msg := range res.Warnings {
		warnf(w, "%s", msg)
	}
	if res.Shortfall > 0 {
		warnf(w, "only %d of %d requested results found", res.Requested-res.Shortfall, res.Requested)
	}
}
