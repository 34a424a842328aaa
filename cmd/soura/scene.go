package main

import (
	"context"
	"flag"
	"fmt"

	"golang.org/x/sync/errgroup"

	"soura-masreya/internal/scene"
)

func runScene(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("scene", flag.ContinueOnError)
	personaTok := fs.String("persona", scene.RandomToken, "persona selector")
	shotTok := fs.String("shot", scene.RandomToken, "shot type selector")
	seed := fs.Uint64("seed", 0, "seed for reproducible output (0 = random)")
	n := fs.Int("n", 1, "number of scenes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n < 1 {
		return fmt.Errorf("-n must be at least 1")
	}

	gen, err := a.loadScenes()
	if err != nil {
		return err
	}
	persona, shot := a.selectors(*personaTok, *shotTok)

	scenes := make([]string, *n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MaxConcurrent)
	for i := range scenes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := scene.RuntimeSource()
			if *seed != 0 {
				src = scene.NewSource(*seed + uint64(i))
			}
			scenes[i] = gen.Generate(src, persona, shot)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, s := range scenes {
		if i > 0 {
			fmt.Fprintln(a.stdout)
		}
		fmt.Fprintln(a.stdout, s)
	}
	return nil
}
