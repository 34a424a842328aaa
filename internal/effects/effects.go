package effects

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Effect string

const (
	None      Effect = "none"
	BW        Effect = "bw"
	Vintage   Effect = "vintage"
	Sepia     Effect = "sepia"
	Cool      Effect = "cool"
	Warm      Effect = "warm"
	Cinematic Effect = "cinematic"
	Vibrant   Effect = "vibrant"
)

var recipes = map[Effect]string{
	None:      "none",
	BW:        "grayscale(1)",
	Vintage:   "sepia(0.5) contrast(1.1) brightness(1.1) saturate(1.2)",
	Sepia:     "sepia(1)",
	Cool:      "contrast(1.1) sepia(0.2) hue-rotate(-15deg)",
	Warm:      "sepia(0.4) saturate(1.2) brightness(1.05)",
	Cinematic: "contrast(1.2) saturate(0.85)",
	Vibrant:   "saturate(1.6) contrast(1.1)",
}

// All lists every effect, None first.
var All = []Effect{None, BW, Vintage, Sepia, Cool, Warm, Cinematic, Vibrant}

func Parse(s string) (Effect, error) {
	e := Effect(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := recipes[e]; !ok {
		return None, fmt.Errorf("unknown effect %q", s)
	}
	return e, nil
}

// Filter is the CSS filter expression for the effect preset.
func (e Effect) Filter() string {
	if f, ok := recipes[e]; ok {
		return f
	}
	return recipes[None]
}

func (e Effect) String() string { return string(e) }

const (
	DefaultLevel = 100
	MaxLevel     = 200
	MaxSharpen   = 100
)

// Adjustments are manual slider values in percent.
type Adjustments struct {
	Brightness int `json:"brightness"`
	Contrast   int `json:"contrast"`
	Saturation int `json:"saturation"`
	Sharpen    int `json:"sharpen"`
}

func DefaultAdjustments() Adjustments {
	return Adjustments{
		Brightness: DefaultLevel,
		Contrast:   DefaultLevel,
		Saturation: DefaultLevel,
	}
}

func (a Adjustments) Clamp() Adjustments {
	return Adjustments{
		Brightness: clamp(a.Brightness, MaxLevel),
		Contrast:   clamp(a.Contrast, MaxLevel),
		Saturation: clamp(a.Saturation, MaxLevel),
		Sharpen:    clamp(a.Sharpen, MaxSharpen),
	}
}

func (a Adjustments) IsDefault() bool {
	return a.Clamp() == DefaultAdjustments()
}

// Filter renders the adjustments as a CSS filter expression. Sharpening is
// approximated with a faint drop shadow.
func (a Adjustments) Filter() string {
	a = a.Clamp()
	parts := []string{
		"brightness(" + ratio(a.Brightness, 100) + ")",
		"contrast(" + ratio(a.Contrast, 100) + ")",
		"saturate(" + ratio(a.Saturation, 100) + ")",
	}
	if a.Sharpen > 0 {
		intensity := float64(a.Sharpen) / 100
		parts = append(parts, fmt.Sprintf("drop-shadow(0 0 %spx rgba(0,0,0,%s))",
			num(intensity*0.4), num(intensity*0.5)))
	}
	return strings.Join(parts, " ")
}

// Edit is the editor state of one image. Picking a preset resets the manual
// adjustments and touching an adjustment drops the preset.
type Edit struct {
	Effect      Effect      `json:"effect"`
	Adjustments Adjustments `json:"adjustments"`
}

func NewEdit() Edit {
	return Edit{Effect: None, Adjustments: DefaultAdjustments()}
}

func (e Edit) WithEffect(effect Effect) Edit {
	e.Effect = effect
	if effect != None {
		e.Adjustments = DefaultAdjustments()
	}
	return e
}

func (e Edit) WithAdjustments(a Adjustments) Edit {
	return Edit{Effect: None, Adjustments: a.Clamp()}
}

func (e Edit) Reset() Edit { return NewEdit() }

// Filter is the single CSS filter that renders this edit. An untouched edit
// renders as "none".
func (e Edit) Filter() string {
	if e.Effect != None && e.Effect != "" {
		return e.Effect.Filter()
	}
	if e.Adjustments.IsDefault() {
		return None.Filter()
	}
	return e.Adjustments.Filter()
}

// FileName is the download name for an image rendered with this edit.
func (e Edit) FileName(at time.Time) string {
	return FileName(e.Effect, at)
}

func FileName(effect Effect, at time.Time) string {
	tag := "edited"
	if effect != None && effect != "" {
		tag = string(effect)
	}
	return fmt.Sprintf("SouraMasreya_MHefny_%s_%d.png", tag, at.UnixMilli())
}

func clamp(v, hi int) int {
	return min(max(v, 0), hi)
}

func ratio(v, d int) string {
	return num(float64(v) / float64(d))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
