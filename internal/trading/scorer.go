package trading

import (
	"fmt"
	"strings"
)

// Priority ladder. Lower is better.
const (
	PriorityFullConfirmation   = 1
	PriorityStrongConfirmation = 2
	PriorityMinConfirmation    = 3
	PriorityStrongTechnical    = 4
	PriorityWatch              = 5
)

// BuyDecision is the discrete recommendation attached to a composite score.
type BuyDecision string

const (
	DecisionStrongBuy BuyDecision = "STRONG_BUY"
	DecisionConsider  BuyDecision = "CONSIDER"
	DecisionWatch     BuyDecision = "WATCH"
)

// CompositeRecommendation is the fused view of one ticker. It is derived from
// its inputs and can be recomputed at any time.
type CompositeRecommendation struct {
	Ticker             string      `json:"ticker"`
	TechScore          float64     `json:"tech_score"`
	CompositeScore     float64     `json:"composite_score"`
	RiseProbabilityPct float64     `json:"rise_probability_pct"`
	Priority           int         `json:"priority"`
	Decision           BuyDecision `json:"buy_decision"`
	PrefilterPassed    bool        `json:"prefilter_passed"`
	Eligible           bool        `json:"eligible"`
	SentimentMissing   bool        `json:"sentiment_missing"`
	Rationale          string      `json:"rationale"`

	Technical  TechnicalSignal  `json:"technical"`
	Prediction PredictionSignal `json:"prediction"`
	Sentiment  SentimentSignal  `json:"sentiment"`
}

// Scorer fuses technical, prediction and sentiment signals.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer validates cfg and returns a scorer bound to it.
func NewScorer(cfg ScoringConfig) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the scoring configuration.
func (s *Scorer) Config() ScoringConfig {
	return s.cfg
}

// TechScore is the weighted count of satisfied technical buy conditions.
func (s *Scorer) TechScore(tech TechnicalSignal) float64 {
	w := s.cfg.TechScore
	score := 0.0
	if tech.GoldenCross {
		score += w.GoldenCross
	}
	if tech.RSI < s.cfg.Buy.RSIBuyBelow {
		score += w.RSIBelow
	}
	if tech.MACDBuySignal {
		score += w.MACDBuy
	}
	return score
}

// CompositeScore applies the weighted formula. The result is not clamped.
func (s *Scorer) CompositeScore(techScore, riseProbabilityPct, sentimentScore float64) float64 {
	w := s.cfg.Weights
	return w.RiseProbability*riseProbabilityPct +
		w.Technical*(techScore*w.TechnicalScale) +
		w.Sentiment*(sentimentScore*w.SentimentScale)
}

// Score fuses the three signals for one ticker. pred is required; a nil sent is
// treated as neutral. ErrMissingPrediction and ErrInvalidPriceData mean the
// ticker must be left out of the output rather than scored as zero.
func (s *Scorer) Score(tech TechnicalSignal, pred *PredictionSignal, sent *SentimentSignal) (CompositeRecommendation, error) {
	if pred == nil {
		return CompositeRecommendation{}, ErrMissingPrediction
	}
	if !validPrice(pred.LastActualPrice) {
		return CompositeRecommendation{}, fmt.Errorf("%w: last actual price %v", ErrInvalidPriceData, pred.LastActualPrice)
	}
	if !finite(pred.AccuracyPct) || !finite(pred.RiseProbabilityPct) {
		return CompositeRecommendation{}, fmt.Errorf("%w: accuracy %v, rise probability %v", ErrInvalidPrediction, pred.AccuracyPct, pred.RiseProbabilityPct)
	}

	ticker := NormalizeTicker(pred.Ticker)
	if ticker == "" {
		ticker = NormalizeTicker(tech.Ticker)
	}

	// a score that is not a number carries no information, same as no score
	sentiment := SentimentSignal{Ticker: ticker}
	missing := sent == nil || !finite(sent.AvgScore)
	if !missing {
		sentiment = *sent
	}

	techScore := s.TechScore(tech)
	composite := s.CompositeScore(techScore, pred.RiseProbabilityPct, sentiment.AvgScore)
	priority, ruleRationale := s.priority(techScore, sentiment.AvgScore)
	prefilterNotes := s.prefilter(tech, *pred)
	prefilterPassed := len(prefilterNotes) == 0
	eligible := prefilterPassed && priority <= s.cfg.Buy.MaxEligiblePriority

	rationale := ruleRationale
	if !prefilterPassed {
		rationale += "; not eligible: " + strings.Join(prefilterNotes, ", ")
	} else if !eligible {
		rationale += "; not eligible: priority above purchase limit"
	}
	if missing {
		rationale += "; no sentiment data, treated as neutral"
	}

	return CompositeRecommendation{
		Ticker:             ticker,
		TechScore:          techScore,
		CompositeScore:     composite,
		RiseProbabilityPct: pred.RiseProbabilityPct,
		Priority:           priority,
		Decision:           decisionFor(eligible, priority),
		PrefilterPassed:    prefilterPassed,
		Eligible:           eligible,
		SentimentMissing:   missing,
		Rationale:          rationale,
		Technical:          tech,
		Prediction:         *pred,
		Sentiment:          sentiment,
	}, nil
}

// priority walks the ladder; the first matching rule wins.
func (s *Scorer) priority(techScore, sentiment float64) (int, string) {
	b := s.cfg.Buy
	positive := sentiment >= b.PositiveSentiment
	switch {
	case positive && techScore >= b.FullTechScore:
		return PriorityFullConfirmation, "positive sentiment + full technical confirmation"
	case positive && techScore >= b.StrongTechScore:
		return PriorityStrongConfirmation, "positive sentiment + strong technical signal"
	case positive && techScore >= b.MinTechScore:
		return PriorityMinConfirmation, "positive sentiment + minimum technical signal"
	case !positive && techScore >= b.FullTechScore:
		return PriorityStrongTechnical, "strong technical signal overrides neutral/negative sentiment"
	default:
		return PriorityWatch, "watch: technical or sentiment support too weak"
	}
}

// prefilter returns one note per failed eligibility condition.
func (s *Scorer) prefilter(tech TechnicalSignal, pred PredictionSignal) []string {
	b := s.cfg.Buy
	var notes []string
	if !(pred.AccuracyPct >= b.MinAccuracyPct) {
		notes = append(notes, fmt.Sprintf("accuracy %.2f%% below %.2f%%", pred.AccuracyPct, b.MinAccuracyPct))
	}
	if !(pred.RiseProbabilityPct >= b.MinRiseProbabilityPct) {
		notes = append(notes, fmt.Sprintf("rise probability %.2f%% below %.2f%%", pred.RiseProbabilityPct, b.MinRiseProbabilityPct))
	}
	if !pred.PredictedRise {
		notes = append(notes, "no predicted rise")
	}
	if !tech.GoldenCross && !(tech.RSI < b.RSIBuyBelow) && !tech.MACDBuySignal {
		notes = append(notes, "no technical buy signal")
	}
	return notes
}

func decisionFor(eligible bool, priority int) BuyDecision {
	switch {
	case eligible && priority <= PriorityStrongConfirmation:
		return DecisionStrongBuy
	case eligible:
		return DecisionConsider
	default:
		return DecisionWatch
	}
}

// Less orders recommendations by priority, then composite score, then rise probability.
func Less(a, b CompositeRecommendation) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.CompositeScore != b.CompositeScore {
		return a.CompositeScore > b.CompositeScore
	}
	return a.RiseProbabilityPct > b.RiseProbabilityPct
}
