package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"soura-masreya/internal/effects"
	"soura-masreya/internal/gemini"
	"soura-masreya/internal/history"
	"soura-masreya/internal/httpclient"
	"soura-masreya/internal/scene"
	"soura-masreya/internal/studio"
)

func runGenerate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	ref := fs.String("ref", "", "reference photo of the person (required)")
	prompt := fs.String("prompt", "", "scene idea; empty picks a random scene, short ideas are expanded")
	personaTok := fs.String("persona", scene.RandomToken, "persona selector")
	shotTok := fs.String("shot", scene.RandomToken, "shot type selector")
	aspect := fs.String("aspect", string(studio.AspectSquare), "aspect ratio: 1:1, 9:16 or 16:9")
	aesthetic := fs.String("aesthetic", string(studio.AestheticCandid), "candid or cinematic")
	outDir := fs.String("out", ".", "directory for the generated images")
	n := fs.Int("n", 1, "number of images")
	noHistory := fs.Bool("no-history", false, "do not archive results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*ref) == "" {
		return studio.ErrNoReference
	}
	if *n < 1 {
		return fmt.Errorf("-n must be at least 1")
	}
	ar, err := studio.ParseAspectRatio(*aspect)
	if err != nil {
		return err
	}
	ae, err := studio.ParseAesthetic(*aesthetic)
	if err != nil {
		return err
	}
	if err := a.cfg.RequireAPIKey(); err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	refData, err := os.ReadFile(*ref)
	if err != nil {
		return fmt.Errorf("read reference: %w", err)
	}

	st, err := a.newStudio(!*noHistory)
	if err != nil {
		return err
	}
	persona, shot := a.selectors(*personaTok, *shotTok)

	req := studio.Request{
		ReferencePath: *ref,
		Reference:     refData,
		Prompt:        *prompt,
		Persona:       persona,
		Shot:          shot,
		AspectRatio:   ar,
		Aesthetic:     ae,
	}

	results := make([]studio.Result, *n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MaxConcurrent)
	for i := range results {
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(gctx, a.cfg.RequestTimeout)
			defer cancel()

			res, err := st.Generate(reqCtx, req)
			if err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			results[i] = res
			a.logger.Info("image ready", "n", i+1, "source", res.Source, "took", res.Took.Round(time.Millisecond))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	now := time.Now()
	for i, res := range results {
		name := outputName(res, now, i, *n)
		path := filepath.Join(*outDir, name)
		if err := os.WriteFile(path, res.Image.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		fmt.Fprintf(a.stdout, "%s\n", path)
		fmt.Fprintf(a.stdout, "  source:  %s\n", res.Source)
		fmt.Fprintf(a.stdout, "  effect:  %s (%s)\n", res.Effect, res.Effect.Filter())
		if res.Entry != nil {
			fmt.Fprintf(a.stdout, "  history: %s\n", res.Entry.ID)
		}
		fmt.Fprintf(a.stdout, "  prompt:  %s\n", res.Prompt)
	}
	return nil
}

func (a *app) newStudio(archive bool) (*studio.Studio, error) {
	scenes, err := a.loadScenes()
	if err != nil {
		return nil, err
	}

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: a.cfg.PreferIPv4,
		Timeout:    a.cfg.HTTPTimeout,
	})

	gem := gemini.New(gemini.Options{
		APIKey:     a.cfg.GeminiAPIKey,
		BaseURL:    a.cfg.GeminiBaseURL,
		APIVersion: a.cfg.GeminiAPIVersion,
		TextModel:  a.cfg.TextModel,
		ImageModel: a.cfg.ImageModel,
		HTTPClient: httpClient,
		Logger:     a.logger,
	})

	opts := studio.Options{
		Model:     gem,
		Scenes:    scenes,
		Signature: a.cfg.Signature,
		Logger:    a.logger,
	}
	if archive {
		store, err := a.openHistory()
		if err != nil {
			return nil, err
		}
		opts.Archive = store
	}
	return studio.New(opts)
}

func (a *app) openHistory() (*history.Store, error) {
	return history.NewStore(history.Options{
		Dir:    a.cfg.HistoryDir,
		Limit:  a.cfg.HistoryLimit,
		Logger: a.logger,
	})
}

// outputName follows the download naming of the editor, numbering batch items.
func outputName(res studio.Result, at time.Time, i, total int) string {
	name := effects.FileName(effects.None, at)
	if total > 1 {
		name = strings.TrimSuffix(name, ".png") + fmt.Sprintf("_%d.png", i+1)
	}
	if ext := imageExt(res.Image.MimeType); ext != ".png" {
		name = strings.TrimSuffix(name, ".png") + ext
	}
	return name
}

func imageExt(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
