package sentiment

import (
	"strings"

	"github.com/selivandex/risklattice/internal/stats"
	"github.com/selivandex/risklattice/pkg/models"
)

const maxImpact = 2.0

// riskKeywords double as theme labels, in reporting order
var riskKeywords = []string{
	"lawsuit", "regulation", "investigation", "decline", "loss", "miss",
	"warning", "breach", "fraud", "selloff", "crash", "drop",
}

var positiveKeywords = []string{
	"growth", "profit", "gain", "beat", "surge", "rally", "upgrade", "soar", "jump", "rise",
}

// ImpactScorer rates individual headlines on a -2..2 scale
type ImpactScorer struct {
	lexicon *Lexicon
}

// NewImpactScorer creates new impact scorer
func NewImpactScorer(lexicon *Lexicon) *ImpactScorer {
	return &ImpactScorer{lexicon: lexicon}
}

// ScoreHeadline returns the impact and reason for one title.
// Risk keywords pin the impact to -2, positive keywords to +2.
func (is *ImpactScorer) ScoreHeadline(title string) models.HeadlineImpact {
	lower := strings.ToLower(title)

	impact := models.HeadlineImpact{
		Title:  title,
		Impact: stats.Clamp(is.lexicon.Score(title), -maxImpact, maxImpact),
		Reason: "Sentiment analysis",
	}

	switch {
	case containsAny(lower, riskKeywords):
		impact.Impact = -maxImpact
		impact.Reason = "Contains risk keywords"
	case containsAny(lower, positiveKeywords):
		impact.Impact = maxImpact
		impact.Reason = "Contains positive keywords"
	}

	return impact
}

// Themes returns risk keywords present in any title, in keyword order, capped at MaxThemes
func Themes(items []models.NewsItem) []string {
	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = strings.ToLower(item.Title)
	}
	all := strings.Join(titles, " ")

	themes := make([]string, 0, models.MaxThemes)
	for _, kw := range riskKeywords {
		if len(themes) == models.MaxThemes {
			break
		}
		if strings.Contains(all, kw) {
			themes = append(themes, kw)
		}
	}

	return themes
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
