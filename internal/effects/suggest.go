package effects

import (
	"regexp"
	"strings"
)

type rule struct {
	effect Effect
	re     *regexp.Regexp
}

func wordRule(effect Effect, words ...string) rule {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return rule{effect: effect, re: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

// Evaluated in order; the first match wins.
var rules = []rule{
	wordRule(Cinematic, "night", "dark", "neon", "moon", "film noir"),
	wordRule(Vintage, "sunset", "sunrise", "golden hour", "nostalgic", "old", "ancient", "history"),
	wordRule(Warm, "warm", "cozy", "intimate", "fire", "lamp"),
	wordRule(BW, "sad", "melancholy", "rain", "rainy", "overcast", "grey", "lonely"),
	wordRule(Vibrant, "vibrant", "market", "celebration", "joyful", "colorful", "sweets"),
}

// Suggest picks a preset that fits the mood of a prompt.
func Suggest(prompt string) Effect {
	p := strings.ToLower(prompt)
	for _, r := range rules {
		if r.re.MatchString(p) {
			return r.effect
		}
	}
	return None
}
