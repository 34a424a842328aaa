// Package studio turns a reference photo and an idea into a finished
// Egyptian lifestyle photograph.
package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"soura-masreya/internal/effects"
	"soura-masreya/internal/gemini"
	"soura-masreya/internal/history"
	"soura-masreya/internal/scene"
)

// Prompts shorter than this many words are expanded by the text model.
const expandBelowWords = 6

var (
	ErrNoReference          = errors.New("reference photo is required")
	ErrInvalidAspectRatio   = errors.New("unsupported aspect ratio")
	ErrUnsupportedAesthetic = errors.New("unsupported aesthetic")
)

// Model is the generation backend. *gemini.Client implements it.
type Model interface {
	GenerateText(ctx context.Context, req gemini.TextRequest) (string, error)
	GenerateImage(ctx context.Context, req gemini.ImageRequest) (gemini.Image, error)
}

// Archive records finished images. *history.Store implements it.
type Archive interface {
	Save(e history.Entry, image []byte) (history.Entry, error)
}

type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "9:16"
	AspectLandscape AspectRatio = "16:9"
)

var AspectRatios = []AspectRatio{AspectSquare, AspectPortrait, AspectLandscape}

// ParseAspectRatio accepts the supported ratios; empty means square.
func ParseAspectRatio(s string) (AspectRatio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AspectSquare, nil
	}
	for _, ar := range AspectRatios {
		if string(ar) == s {
			return ar, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAspectRatio, s)
}

type Aesthetic string

const (
	AestheticCandid    Aesthetic = "candid"
	AestheticCinematic Aesthetic = "cinematic"
)

func ParseAesthetic(s string) (Aesthetic, error) {
	switch a := Aesthetic(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AestheticCandid, nil
	case AestheticCandid, AestheticCinematic:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAesthetic, s)
	}
}

func (a Aesthetic) instructions() string {
	if a == AestheticCandid || a == "" {
		return "Candid, documentary-style photography. Natural light, unposed, realistic expressions."
	}
	return "Clean cinematic photography with realistic colors and natural light."
}

// PromptSource tells where the final scene description came from.
type PromptSource string

const (
	SourceGenerated PromptSource = "generated"
	SourceExpanded  PromptSource = "expanded"
	SourceUser      PromptSource = "user"
)

type Request struct {
	// ReferencePath is read when Reference is empty. Its extension is the
	// MIME hint when ReferenceMime is empty.
	ReferencePath string
	Reference     []byte
	ReferenceMime string

	Prompt      string
	Persona     scene.Persona
	Shot        scene.ShotType
	AspectRatio AspectRatio
	Aesthetic   Aesthetic
}

type Result struct {
	Image  gemini.Image
	Prompt string
	Source PromptSource
	Effect effects.Effect
	// Entry is set when the image was archived.
	Entry *history.Entry
	Took  time.Duration
}

type Options struct {
	Model     Model
	Archive   Archive
	Scenes    *scene.Generator
	Signature string
	Logger    *slog.Logger
	// NewSource supplies randomness for each generated scene.
	NewSource func() scene.Source
}

type Studio struct {
	model     Model
	archive   Archive
	scenes    *scene.Generator
	signature string
	logger    *slog.Logger
	newSource func() scene.Source
}

func New(opts Options) (*Studio, error) {
	if opts.Model == nil {
		return nil, errors.New("studio: model is nil")
	}
	if opts.Scenes == nil {
		return nil, errors.New("studio: scene generator is nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	newSource := opts.NewSource
	if newSource == nil {
		newSource = scene.RuntimeSource
	}

	return &Studio{
		model:     opts.Model,
		archive:   opts.Archive,
		scenes:    opts.Scenes,
		signature: opts.Signature,
		logger:    logger,
		newSource: newSource,
	}, nil
}

// Randomize returns a fresh scene description for the given selectors.
func (s *Studio) Randomize(persona scene.Persona, shot scene.ShotType) string {
	return s.scenes.Generate(s.newSource(), persona, shot)
}

// Generate resolves the scene description, renders the photograph and
// archives it. Archive failures are logged and do not fail the call.
func (s *Studio) Generate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	if len(req.Reference) == 0 && strings.TrimSpace(req.ReferencePath) == "" {
		return Result{}, ErrNoReference
	}

	aspect, err := ParseAspectRatio(string(req.AspectRatio))
	if err != nil {
		return Result{}, err
	}
	aesthetic, err := ParseAesthetic(string(req.Aesthetic))
	if err != nil {
		return Result{}, err
	}

	var (
		ref      gemini.ImageInput
		resolved resolvedPrompt
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ref, err = loadReference(req)
		return err
	})
	g.Go(func() error {
		var err error
		resolved, err = s.resolvePrompt(gctx, req)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	s.logger.Debug("scene resolved",
		"source", resolved.source,
		"persona", resolved.persona.String(),
		"shot", resolved.shot.String(),
	)

	img, err := s.model.GenerateImage(ctx, gemini.ImageRequest{
		Prompt:      imagePrompt(resolved.text, aesthetic, aspect, s.signature),
		References:  []gemini.ImageInput{ref},
		AspectRatio: string(aspect),
	})
	if err != nil {
		return Result{}, fmt.Errorf("generate image: %w", err)
	}

	res := Result{
		Image:  img,
		Prompt: resolved.text,
		Source: resolved.source,
		Effect: effects.Suggest(resolved.text),
	}

	if s.archive != nil {
		entry, err := s.archive.Save(history.Entry{
			MimeType:    img.MimeType,
			Prompt:      resolved.text,
			Source:      string(resolved.source),
			Persona:     resolved.persona.String(),
			Shot:        resolved.shot.String(),
			AspectRatio: string(aspect),
			Effect:      string(res.Effect),
		}, img.Data)
		if err != nil {
			s.logger.Warn("archive image failed", "err", err)
		} else {
			res.Entry = &entry
		}
	}

	res.Took = time.Since(start)
	return res, nil
}

type resolvedPrompt struct {
	text    string
	source  PromptSource
	persona scene.Persona
	shot    scene.ShotType
}

func (s *Studio) resolvePrompt(ctx context.Context, req Request) (resolvedPrompt, error) {
	prompt := strings.TrimSpace(req.Prompt)

	switch {
	case prompt == "":
		sc := s.scenes.Draw(s.newSource(), req.Persona, req.Shot)
		return resolvedPrompt{
			text:    sc.String(),
			source:  SourceGenerated,
			persona: sc.Persona,
			shot:    sc.Shot,
		}, nil
	case len(strings.Fields(prompt)) < expandBelowWords:
		expanded, err := s.model.GenerateText(ctx, gemini.TextRequest{
			System:      expansionSystem(req.Shot),
			Prompt:      expansionPrompt(prompt, req.Persona),
			Temperature: expansionTemperature,
		})
		if err != nil {
			return resolvedPrompt{}, fmt.Errorf("expand prompt: %w", err)
		}
		return resolvedPrompt{text: expanded, source: SourceExpanded, persona: req.Persona, shot: req.Shot}, nil
	default:
		return resolvedPrompt{text: prompt, source: SourceUser, persona: req.Persona, shot: req.Shot}, nil
	}
}

func loadReference(req Request) (gemini.ImageInput, error) {
	data := req.Reference
	hint := req.ReferenceMime

	if len(data) == 0 {
		var err error
		data, err = os.ReadFile(req.ReferencePath)
		if err != nil {
			return gemini.ImageInput{}, fmt.Errorf("read reference: %w", err)
		}
	}
	if hint == "" && req.ReferencePath != "" {
		hint = mime.TypeByExtension(strings.ToLower(filepath.Ext(req.ReferencePath)))
	}
	if len(data) == 0 {
		return gemini.ImageInput{}, ErrNoReference
	}

	return gemini.NewImageInput(data, hint), nil
}
