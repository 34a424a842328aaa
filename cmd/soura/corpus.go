package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"soura-masreya/internal/config"
	"soura-masreya/internal/scene"
)

func runCorpus(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("corpus: expected validate, schema or stats")
	}

	switch args[0] {
	case "validate":
		var (
			c   scene.Corpus
			err error
		)
		source := "built-in corpus"
		switch {
		case len(args) > 1:
			source = args[1]
			c, err = scene.LoadCorpusFile(args[1])
		case a.cfg.CorpusPath != "":
			source = a.cfg.CorpusPath
			c, err = scene.LoadCorpusFile(a.cfg.CorpusPath)
		default:
			c, err = scene.EgyptCorpus()
		}
		if err != nil {
			return err
		}
		total := 0
		for _, p := range c.Sizes() {
			total += p.Count
		}
		fmt.Fprintf(a.stdout, "%s: ok (%d fragments)\n", source, total)
		return nil

	case "schema":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scene.CorpusSchema())

	case "stats":
		gen, err := a.loadScenes()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "POOL\tFRAGMENTS")
		for _, p := range gen.Corpus().Sizes() {
			fmt.Fprintf(tw, "%s\t%d\n", p.Name, p.Count)
		}
		fmt.Fprintln(tw, "\t")
		fmt.Fprintln(tw, "PERSONA\tACTIVITIES\tCLOTHING\tDISTINCT SCENES")
		for _, p := range scene.Personas {
			activities, clothing := gen.Eligible(p.Class())
			n := 0
			for _, pool := range activities {
				n += len(pool)
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", p, n, len(clothing), gen.Combinations(p))
		}
		return tw.Flush()

	default:
		return fmt.Errorf("corpus: unknown action %q", args[0])
	}
}

func runEnv(ctx context.Context, a *app, args []string) error {
	out, err := config.Describe()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, out)
	return nil
}
