package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soura-masreya/internal/config"
	"soura-masreya/internal/gemini"
	"soura-masreya/internal/history"
	"soura-masreya/internal/scene"
	"soura-masreya/internal/studio"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return &app{
		cfg: config.Config{
			MaxConcurrent: 2,
			HistoryDir:    t.TempDir(),
			HistoryLimit:  5,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout: out,
	}, out
}

func TestRunSceneSeeded(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, runScene(context.Background(), a, []string{"-persona", "child_girl", "-seed", "7", "-n", "3"}))
	first := out.String()

	out.Reset()
	require.NoError(t, runScene(context.Background(), a, []string{"-persona", "child_girl", "-seed", "7", "-n", "3"}))
	assert.Equal(t, first, out.String())

	scenes := strings.Split(strings.TrimSpace(first), "\n\n")
	require.Len(t, scenes, 3)
	for _, s := range scenes {
		assert.True(t, strings.HasPrefix(s, "A young girl "), s)
		assert.Contains(t, s, ". She is wearing ")
	}
}

func TestRunSceneRejectsBadCount(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Error(t, runScene(context.Background(), a, []string{"-n", "0"}))
}

func TestRunCorpus(t *testing.T) {
	a, out := newTestApp(t)

	require.NoError(t, runCorpus(context.Background(), a, []string{"validate"}))
	assert.Contains(t, out.String(), "built-in corpus: ok")

	out.Reset()
	require.NoError(t, runCorpus(context.Background(), a, []string{"schema"}))
	assert.Contains(t, out.String(), `"photo_effects"`)

	out.Reset()
	require.NoError(t, runCorpus(context.Background(), a, []string{"stats"}))
	assert.Contains(t, out.String(), "woman_hijabi")
	assert.Contains(t, out.String(), "locations")
	assert.Contains(t, out.String(), "ACTIVITIES")

	gen, err := a.loadScenes()
	require.NoError(t, err)
	c := gen.Corpus()
	manActivities := len(c.Activities.Male) + len(c.Activities.Shared)
	assert.Regexp(t, fmt.Sprintf(`(?m)^man\s+%d\s+%d\s+%d$`,
		manActivities, len(c.Clothing.Male), gen.Combinations(scene.PersonaMan)), out.String())

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"locations":[]}`), 0o644))
	assert.Error(t, runCorpus(context.Background(), a, []string{"validate", bad}))
}

func TestRunHistory(t *testing.T) {
	a, out := newTestApp(t)

	store, err := a.openHistory()
	require.NoError(t, err)
	e, err := store.Save(history.Entry{Prompt: "a lonely walk in the rain", MimeType: "image/png", Effect: "bw"}, []byte("img"))
	require.NoError(t, err)

	require.NoError(t, runHistory(context.Background(), a, []string{"list"}))
	assert.Contains(t, out.String(), e.ID)

	out.Reset()
	require.NoError(t, runHistory(context.Background(), a, []string{"show", e.ID}))
	assert.Contains(t, out.String(), "grayscale(1)")

	dir := t.TempDir()
	out.Reset()
	require.NoError(t, runHistory(context.Background(), a, []string{"export", "-effect", "vintage", e.ID, dir}))
	path := strings.SplitN(out.String(), "\n", 2)[0]
	assert.Contains(t, filepath.Base(path), "SouraMasreya_MHefny_vintage_")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), data)

	require.NoError(t, runHistory(context.Background(), a, []string{"clear"}))
	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, runHistory(context.Background(), a, []string{"show", e.ID}), history.ErrNotFound)
}

func TestRunGenerateRequiresReferenceAndKey(t *testing.T) {
	a, _ := newTestApp(t)

	err := runGenerate(context.Background(), a, nil)
	assert.ErrorIs(t, err, studio.ErrNoReference)

	err = runGenerate(context.Background(), a, []string{"-ref", "me.jpg", "-aspect", "4:3"})
	assert.ErrorIs(t, err, studio.ErrInvalidAspectRatio)

	err = runGenerate(context.Background(), a, []string{"-ref", "me.jpg"})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestOutputName(t *testing.T) {
	at := time.UnixMilli(1700000000000)

	assert.Equal(t, "SouraMasreya_MHefny_edited_1700000000000.png",
		outputName(studio.Result{Image: gemini.Image{MimeType: "image/png"}}, at, 0, 1))
	assert.Equal(t, "SouraMasreya_MHefny_edited_1700000000000_2.jpg",
		outputName(studio.Result{Image: gemini.Image{MimeType: "image/jpeg"}}, at, 1, 3))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger = newLogger(config.Config{LogLevel: "debug", LogFormat: "text"}, &buf)
	logger.Debug("visible", "k", "v")
	assert.Contains(t, buf.String(), "visible")
}
