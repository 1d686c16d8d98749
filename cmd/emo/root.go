package main

import (
	"fmt"
	"strings"

	"github.com/4thel00z/emo/internal"
	"github.com/spf13/cobra"
)

type options struct {
	selection    internal.Flags
	memo         string
	memoSet      bool
	erase        bool
	number       bool
	listMappings bool
	listModels   bool
	debug        bool
}

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "emo [flags] <term...>",
		Short: "CLI for finding emojis",
		Long: `Find emoji by keyword, save your own shortcuts for them, or let a
language model pick the emoji that fits a situation.`,
		Example: `  emo fire
  emo -c 3 -n happy
  emo -m 🚀 deploy
  emo --ai "shipping on a friday"
  emo --ai -s 5 -c 2 "monday morning"`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          makeRootRunner(a),
	}

	addFlags(rootCmd)
	return rootCmd
}

func addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntP("count", "c", 1, "Number of results to show")
	f.BoolP("define", "d", false, "Define the specified emoji")
	f.StringP("memo", "m", "", "Save a mapping for the search term to an emoji or result index")
	f.IntP("sentence", "s", 0, "Length of each AI emoji sentence (use with -c for several sentences)")
	f.BoolP("erase", "e", false, "Erase the mapping for the search term")
	f.BoolP("number", "n", false, "Number the results")
	f.BoolP("list-mappings", "l", false, "List all saved mappings")
	f.BoolP("random", "r", false, "Get a random emoji")
	f.Bool("ai", false, "Use AI to select the best emoji for your situation")
	f.String("model", "", "AI model to use (saved as the default)")
	f.Bool("list-models", false, "List available AI models")
	f.Bool("debug", false, "Print diagnostics to stderr")
}

func readOptions(cmd *cobra.Command, args []string) options {
	f := cmd.Flags()

	var o options
	o.selection.Query = strings.TrimSpace(strings.Join(args, " "))
	o.selection.Count, _ = f.GetInt("count")
	o.selection.Sentence, _ = f.GetInt("sentence")
	o.selection.SentenceSet = f.Changed("sentence")
	o.selection.AI, _ = f.GetBool("ai")
	o.selection.Model, _ = f.GetString("model")
	o.selection.Random, _ = f.GetBool("random")
	o.selection.Define, _ = f.GetBool("define")
	o.memo, _ = f.GetString("memo")
	o.memoSet = f.Changed("memo")
	o.erase, _ = f.GetBool("erase")
	o.number, _ = f.GetBool("number")
	o.listMappings, _ = f.GetBool("list-mappings")
	o.listModels, _ = f.GetBool("list-models")
	o.debug, _ = f.GetBool("debug")
	return o
}

// makeRootRunner dispatches in this order: list models, list mappings,
// ai, random, erase, memo, define, search.
func makeRootRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		o := readOptions(cmd, args)

		a.debug = o.debug
		a.stderr = cmd.ErrOrStderr()
		setupLogging(cmd.ErrOrStderr(), o.debug)

		if o.selection.Count < 1 {
			return fmt.Errorf("--count must be at least 1, got %d", o.selection.Count)
		}

		if err := a.load(); err != nil {
			return err
		}

		if o.listModels {
			return runListModels(cmd, a)
		}

		cfg, err := internal.LoadConfig(a.paths.ConfigPath())
		if err != nil {
			return err
		}

		if o.listMappings {
			return runListMappings(cmd, cfg)
		}

		req := internal.NewRequest(o.selection)

		if req.Mode != internal.ModeRandom && req.Query == "" {
			return fmt.Errorf("%w: please provide a search term or situation", internal.ErrEmptyQuery)
		}

		// checked before a model is opened, which may mean a download
		if req.Mode == internal.ModeAISentence && req.SentenceLength <= 0 {
			return internal.ErrInvalidLength
		}

		switch {
		case req.Mode == internal.ModeAI || req.Mode == internal.ModeAISentence:
			return runAI(cmd, a, cfg, req, o)
		case req.Mode == internal.ModeRandom:
			return runSelect(cmd, a, cfg, req, o)
		case o.erase:
			return runErase(cmd, a, cfg, req.Query)
		case o.memoSet:
			return runSaveMemo(cmd, a, cfg, req.Query, o.memo)
		default:
			return runSelect(cmd, a, cfg, req, o)
		}
	}
}
