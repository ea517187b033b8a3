package sentiment

import (
	"math"
	"strings"
)

// compoundAlpha normalizes raw lexicon sums into (-1, 1)
const compoundAlpha = 15.0

// Lexicon performs keyword-based headline scoring
type Lexicon struct {
	positiveWords map[string]float64
	negativeWords map[string]float64
}

// NewLexicon creates new headline lexicon
func NewLexicon() *Lexicon {
	return &Lexicon{
		positiveWords: buildPositiveWords(),
		negativeWords: buildNegativeWords(),
	}
}

// Score returns a compound score in (-1, 1) for one headline
func (l *Lexicon) Score(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	var raw float64
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:'\"()[]")
		raw += l.weight(word)
	}

	if raw == 0 {
		return 0
	}

	return raw / math.Sqrt(raw*raw+compoundAlpha)
}

// weight looks a word up, retrying without a plural or past-tense suffix
func (l *Lexicon) weight(word string) float64 {
	for _, w := range candidates(word) {
		if v, ok := l.positiveWords[w]; ok {
			return v
		}
		if v, ok := l.negativeWords[w]; ok {
			return -v
		}
	}
	return 0
}

func candidates(word string) []string {
	out := []string{word}
	for _, suffix := range []string{"es", "s", "ed", "d", "ing"} {
		if stem, ok := strings.CutSuffix(word, suffix); ok && len(stem) > 2 {
			out = append(out, stem)
		}
	}
	return out
}

func buildPositiveWords() map[string]float64 {
	return map[string]float64{
		// General positive
		"bullish":      1.0,
		"rally":        0.9,
		"surge":        0.8,
		"soar":         0.8,
		"jump":         0.7,
		"beat":         0.7,
		"record":       0.6,
		"gain":         0.6,
		"profit":       0.6,
		"win":          0.6,
		"rise":         0.5,
		"grow":         0.5,
		"growth":       0.5,
		"increase":     0.5,
		"positive":     0.5,
		"optimistic":   0.5,
		"strong":       0.5,
		"outperform":   0.6,
		"upgrade":      0.5,
		"breakthrough": 0.6,
		"adoption":     0.6,
		"partnership":  0.5,
		"innovation":   0.5,
		"approved":     0.6,

		// Crypto specific
		"halving":       0.6,
		"breakout":      0.7,
		"ath":           0.8,
		"institutional": 0.5,
		"etf":           0.7,
		"accumulation":  0.5,
	}
}

func buildNegativeWords() map[string]float64 {
	return map[string]float64{
		// General negative
		"bearish":     1.0,
		"crash":       1.0,
		"plunge":      0.8,
		"tumble":      0.7,
		"slump":       0.7,
		"fall":        0.6,
		"drop":        0.6,
		"decline":     0.6,
		"loss":        0.7,
		"miss":        0.6,
		"weak":        0.5,
		"down":        0.5,
		"negative":    0.5,
		"pessimistic": 0.5,
		"fear":        0.6,
		"panic":       0.8,
		"selloff":     0.7,
		"correction":  0.6,
		"downgrade":   0.6,
		"warning":     0.6,
		"layoff":      0.6,
		"recall":      0.5,

		// Legal and security
		"fraud":         1.0,
		"lawsuit":       0.7,
		"investigation": 0.6,
		"probe":         0.6,
		"breach":        0.8,
		"hack":          1.0,
		"exploit":       1.0,
		"scam":          1.0,
		"ban":           0.8,
		"regulation":    0.5,
		"crackdown":     0.7,

		// Crypto specific
		"liquidation":  0.8,
		"capitulation": 0.8,
		"fud":          0.7,
		"bubble":       0.6,
		"overvalued":   0.6,
	}
}
