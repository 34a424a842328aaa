package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"soura-masreya/internal/effects"
)

func runHistory(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("history: expected list, show, export or clear")
	}

	store, err := a.openHistory()
	if err != nil {
		return err
	}

	switch args[0] {
	case "list":
		entries, err := store.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(a.stdout, "history is empty")
			return nil
		}
		tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tPERSONA\tSHOT\tEFFECT\tPROMPT")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.CreatedAt.Local().Format(time.DateTime), e.Persona, e.Shot, e.Effect, preview(e.Prompt, 60))
		}
		return tw.Flush()

	case "show":
		if len(args) != 2 {
			return errors.New("usage: soura history show ID")
		}
		e, err := store.Get(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "id:       %s\n", e.ID)
		fmt.Fprintf(a.stdout, "created:  %s\n", e.CreatedAt.Local().Format(time.RFC1123))
		fmt.Fprintf(a.stdout, "file:     %s (%s, %d bytes)\n", filepath.Join(store.Dir(), e.File), e.MimeType, e.Bytes)
		fmt.Fprintf(a.stdout, "persona:  %s\n", e.Persona)
		fmt.Fprintf(a.stdout, "shot:     %s\n", e.Shot)
		fmt.Fprintf(a.stdout, "aspect:   %s\n", e.AspectRatio)
		fmt.Fprintf(a.stdout, "source:   %s\n", e.Source)
		if eff, err := effects.Parse(e.Effect); err == nil {
			fmt.Fprintf(a.stdout, "effect:   %s (%s)\n", eff, eff.Filter())
		}
		fmt.Fprintf(a.stdout, "prompt:   %s\n", e.Prompt)
		return nil

	case "export":
		fs := flag.NewFlagSet("history export", flag.ContinueOnError)
		effectName := fs.String("effect", "", "preset used to name the file (default: the suggested one)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() < 1 || fs.NArg() > 2 {
			return errors.New("usage: soura history export [-effect E] ID [PATH]")
		}

		e, data, err := store.Open(fs.Arg(0))
		if err != nil {
			return err
		}

		edit := effects.NewEdit()
		name := *effectName
		if name == "" {
			name = e.Effect
		}
		if name != "" {
			eff, err := effects.Parse(name)
			if err != nil {
				return err
			}
			edit = edit.WithEffect(eff)
		}

		path := edit.FileName(time.Now())
		if fs.NArg() == 2 {
			path = fs.Arg(1)
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				path = filepath.Join(path, edit.FileName(time.Now()))
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Fprintln(a.stdout, path)
		fmt.Fprintf(a.stdout, "css filter: %s\n", edit.Filter())
		return nil

	case "clear":
		if err := store.Clear(); err != nil {
			return err
		}
		a.logger.Info("history cleared", "dir", store.Dir())
		return nil

	default:
		return fmt.Errorf("history: unknown action %q", args[0])
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
