package forecast

import (
	"github.com/selivandex/risklattice/internal/stats"
	"github.com/selivandex/risklattice/pkg/models"
)

const (
	// MinPatternPoints is the fewest scores the recognizer will classify
	MinPatternPoints = 7

	spikeDelta           = 15.0
	volatileStdDev       = 10.0
	volatileFloor        = 65.0
	sustainedMean        = 70.0
	sustainedMaxStdDev   = 5.0
	patternEvaluationLen = 7
)

// RecognizePattern matches the last seven scores against the known shapes.
// The first match in priority order wins; nil means no match.
func RecognizePattern(scores []float64) *models.Pattern {
	if len(scores) < MinPatternPoints {
		return nil
	}

	window := scores[len(scores)-patternEvaluationLen:]
	last := window[len(window)-1]
	delta := last - window[len(window)-3]
	std := stats.PopStdDev(window)

	var p models.Pattern
	switch {
	case delta > spikeDelta:
		p = models.PatternRiskSpike
	case std > volatileStdDev && last > volatileFloor:
		p = models.PatternHighVolatility
	case stats.Mean(window) > sustainedMean && std < sustainedMaxStdDev:
		p = models.PatternSustainedHighRisk
	case delta < -spikeDelta:
		p = models.PatternRiskDeclining
	default:
		return nil
	}

	return &p
}

// patternAdjustment is the score bump applied for a matched pattern
func patternAdjustment(p *models.Pattern) float64 {
	if p == nil {
		return 0
	}

	switch *p {
	case models.PatternRiskSpike:
		return 5
	case models.PatternHighVolatility:
		return 3
	case models.PatternRiskDeclining:
		return -3
	default:
		return 0
	}
}
