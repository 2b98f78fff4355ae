package trading

import (
	"math"
	"strings"
)

// CompositeWeights weights the three signal sources in the composite score.
type CompositeWeights struct {
	RiseProbability float64 `mapstructure:"rise_probability" json:"rise_probability"`
	Technical       float64 `mapstructure:"technical" json:"technical"`
	Sentiment       float64 `mapstructure:"sentiment" json:"sentiment"`
	// TechnicalScale lifts tech_score (0..3.5) onto the percentage scale.
	TechnicalScale float64 `mapstructure:"technical_scale" json:"technical_scale"`
	// SentimentScale lifts the sentiment score (-1..1) onto the percentage scale.
	SentimentScale float64 `mapstructure:"sentiment_scale" json:"sentiment_scale"`
}

// TechScoreWeights weights each satisfied technical buy condition.
type TechScoreWeights struct {
	GoldenCross float64 `mapstructure:"golden_cross" json:"golden_cross"`
	RSIBelow    float64 `mapstructure:"rsi_below" json:"rsi_below"`
	MACDBuy     float64 `mapstructure:"macd_buy" json:"macd_buy"`
}

// BuyThresholds drive the eligibility pre-filter and the priority ladder.
type BuyThresholds struct {
	MinAccuracyPct        float64 `mapstructure:"min_accuracy_pct" json:"min_accuracy_pct"`
	MinRiseProbabilityPct float64 `mapstructure:"min_rise_probability_pct" json:"min_rise_probability_pct"`
	RSIBuyBelow           float64 `mapstructure:"rsi_buy_below" json:"rsi_buy_below"`
	PositiveSentiment     float64 `mapstructure:"positive_sentiment" json:"positive_sentiment"`
	FullTechScore         float64 `mapstructure:"full_tech_score" json:"full_tech_score"`
	StrongTechScore       float64 `mapstructure:"strong_tech_score" json:"strong_tech_score"`
	MinTechScore          float64 `mapstructure:"min_tech_score" json:"min_tech_score"`
	// MaxEligiblePriority is the worst priority that can still be bought.
	MaxEligiblePriority int `mapstructure:"max_eligible_priority" json:"max_eligible_priority"`
}

// ScoringConfig bundles everything the composite scorer needs.
type ScoringConfig struct {
	Weights   CompositeWeights `mapstructure:"weights" json:"weights"`
	TechScore TechScoreWeights `mapstructure:"tech_score" json:"tech_score"`
	Buy       BuyThresholds    `mapstructure:"buy" json:"buy"`
}

// TrailingStopConfig configures the trailing stop trigger.
type TrailingStopConfig struct {
	Enabled               bool     `mapstructure:"enabled" json:"enabled"`
	DistancePct           float64  `mapstructure:"distance_pct" json:"distance_pct"`
	LeveragedDistancePct  float64  `mapstructure:"leveraged_distance_pct" json:"leveraged_distance_pct"`
	MinProfitPct          float64  `mapstructure:"min_profit_pct" json:"min_profit_pct"`
	LeveragedMinProfitPct float64  `mapstructure:"leveraged_min_profit_pct" json:"leveraged_min_profit_pct"`
	LeveragedTickers      []string `mapstructure:"leveraged_tickers" json:"leveraged_tickers"`
}

// SellThresholds drive the sell condition evaluator.
type SellThresholds struct {
	TakeProfitPct     float64 `mapstructure:"take_profit_pct" json:"take_profit_pct"`
	StopLossPct       float64 `mapstructure:"stop_loss_pct" json:"stop_loss_pct"`
	NegativeSentiment float64 `mapstructure:"negative_sentiment" json:"negative_sentiment"`
	RSIOverbought     float64 `mapstructure:"rsi_overbought" json:"rsi_overbought"`
	// TechnicalSellCount is how many of the three technical sell conditions
	// must hold for a pure technical exit.
	TechnicalSellCount int `mapstructure:"technical_sell_count" json:"technical_sell_count"`
	// SentimentTechnicalSellCount is the technical count required alongside negative sentiment.
	SentimentTechnicalSellCount int                 `mapstructure:"sentiment_technical_sell_count" json:"sentiment_technical_sell_count"`
	TrailingStop                TrailingStopConfig  `mapstructure:"trailing_stop" json:"trailing_stop"`
	PartialProfit               PartialProfitConfig `mapstructure:"partial_profit" json:"partial_profit"`
}

func DefaultCompositeWeights() CompositeWeights {
	return CompositeWeights{
		RiseProbability: 0.3,
		Technical:       0.4,
		Sentiment:       0.3,
		TechnicalScale:  10,
		SentimentScale:  100,
	}
}

func DefaultTechScoreWeights() TechScoreWeights {
	return TechScoreWeights{GoldenCross: 1.5, RSIBelow: 1.0, MACDBuy: 1.0}
}

func DefaultBuyThresholds() BuyThresholds {
	return BuyThresholds{
		MinAccuracyPct:        80,
		MinRiseProbabilityPct: 3,
		RSIBuyBelow:           50,
		PositiveSentiment:     0.15,
		FullTechScore:         3.5,
		StrongTechScore:       2.5,
		MinTechScore:          2.0,
		MaxEligiblePriority:   4,
	}
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:   DefaultCompositeWeights(),
		TechScore: DefaultTechScoreWeights(),
		Buy:       DefaultBuyThresholds(),
	}
}

func DefaultTrailingStopConfig() TrailingStopConfig {
	return TrailingStopConfig{
		Enabled:               false,
		DistancePct:           5,
		LeveragedDistancePct:  7,
		MinProfitPct:          3,
		LeveragedMinProfitPct: 5,
	}
}

func DefaultSellThresholds() SellThresholds {
	return SellThresholds{
		TakeProfitPct:               5,
		StopLossPct:                 -7,
		NegativeSentiment:           -0.15,
		RSIOverbought:               70,
		TechnicalSellCount:          3,
		SentimentTechnicalSellCount: 2,
		TrailingStop:                DefaultTrailingStopConfig(),
		PartialProfit:               DefaultPartialProfitConfig(),
	}
}

// Validate rejects weights that are negative or not finite.
func (w CompositeWeights) Validate() error {
	for _, nv := range []namedValue{
		{"weights.rise_probability", w.RiseProbability},
		{"weights.technical", w.Technical},
		{"weights.sentiment", w.Sentiment},
	} {
		if !finite(nv.value) || nv.value < 0 {
			return configErr(nv.name, nv.value, "must be a non-negative number")
		}
	}
	if !finite(w.TechnicalScale) || w.TechnicalScale <= 0 {
		return configErr("weights.technical_scale", w.TechnicalScale, "must be positive")
	}
	if !finite(w.SentimentScale) || w.SentimentScale <= 0 {
		return configErr("weights.sentiment_scale", w.SentimentScale, "must be positive")
	}
	return nil
}

func (w TechScoreWeights) Validate() error {
	for _, nv := range []namedValue{
		{"tech_score.golden_cross", w.GoldenCross},
		{"tech_score.rsi_below", w.RSIBelow},
		{"tech_score.macd_buy", w.MACDBuy},
	} {
		if !finite(nv.value) || nv.value < 0 {
			return configErr(nv.name, nv.value, "must be a non-negative number")
		}
	}
	return nil
}

func (b BuyThresholds) Validate() error {
	if !finite(b.MinAccuracyPct) || b.MinAccuracyPct < 0 || b.MinAccuracyPct > 100 {
		return configErr("buy.min_accuracy_pct", b.MinAccuracyPct, "must be within [0, 100]")
	}
	if !finite(b.MinRiseProbabilityPct) || b.MinRiseProbabilityPct < 0 {
		return configErr("buy.min_rise_probability_pct", b.MinRiseProbabilityPct, "must be non-negative")
	}
	if !finite(b.RSIBuyBelow) || b.RSIBuyBelow <= 0 || b.RSIBuyBelow > 100 {
		return configErr("buy.rsi_buy_below", b.RSIBuyBelow, "must be within (0, 100]")
	}
	if !finite(b.PositiveSentiment) || b.PositiveSentiment < -1 || b.PositiveSentiment > 1 {
		return configErr("buy.positive_sentiment", b.PositiveSentiment, "must be within [-1, 1]")
	}
	if !finite(b.MinTechScore) || b.MinTechScore < 0 {
		return configErr("buy.min_tech_score", b.MinTechScore, "must be non-negative")
	}
	if !finite(b.StrongTechScore) || b.StrongTechScore < b.MinTechScore {
		return configErr("buy.strong_tech_score", b.StrongTechScore, "must not be below min_tech_score")
	}
	if !finite(b.FullTechScore) || b.FullTechScore < b.StrongTechScore {
		return configErr("buy.full_tech_score", b.FullTechScore, "must not be below strong_tech_score")
	}
	if b.MaxEligiblePriority < 1 || b.MaxEligiblePriority > PriorityStrongTechnical {
		return configErr("buy.max_eligible_priority", b.MaxEligiblePriority, "must be within [1, 4]")
	}
	return nil
}

func (c ScoringConfig) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.TechScore.Validate(); err != nil {
		return err
	}
	return c.Buy.Validate()
}

func (t TrailingStopConfig) Validate() error {
	for _, nv := range []namedValue{
		{"trailing_stop.distance_pct", t.DistancePct},
		{"trailing_stop.leveraged_distance_pct", t.LeveragedDistancePct},
	} {
		if !finite(nv.value) || nv.value <= 0 || nv.value >= 100 {
			return configErr(nv.name, nv.value, "must be within (0, 100)")
		}
	}
	for _, nv := range []namedValue{
		{"trailing_stop.min_profit_pct", t.MinProfitPct},
		{"trailing_stop.leveraged_min_profit_pct", t.LeveragedMinProfitPct},
	} {
		if !finite(nv.value) || nv.value < 0 {
			return configErr(nv.name, nv.value, "must be non-negative")
		}
	}
	return nil
}

// IsLeveraged reports whether ticker is configured as a leveraged product.
func (t TrailingStopConfig) IsLeveraged(ticker string) bool {
	for _, l := range t.LeveragedTickers {
		if strings.EqualFold(strings.TrimSpace(l), ticker) {
			return true
		}
	}
	return false
}

// DistanceFor returns the trailing distance for a ticker class.
func (t TrailingStopConfig) DistanceFor(leveraged bool) float64 {
	if leveraged {
		return t.LeveragedDistancePct
	}
	return t.DistancePct
}

// MinProfitFor returns the minimum profit before the trailing stop arms.
func (t TrailingStopConfig) MinProfitFor(leveraged bool) float64 {
	if leveraged {
		return t.LeveragedMinProfitPct
	}
	return t.MinProfitPct
}

func (s SellThresholds) Validate() error {
	if !finite(s.TakeProfitPct) || s.TakeProfitPct <= 0 {
		return configErr("sell.take_profit_pct", s.TakeProfitPct, "must be positive")
	}
	if !finite(s.StopLossPct) || s.StopLossPct >= 0 {
		return configErr("sell.stop_loss_pct", s.StopLossPct, "must be negative")
	}
	if !finite(s.NegativeSentiment) || s.NegativeSentiment < -1 || s.NegativeSentiment > 0 {
		return configErr("sell.negative_sentiment", s.NegativeSentiment, "must be within [-1, 0]")
	}
	if !finite(s.RSIOverbought) || s.RSIOverbought <= 0 || s.RSIOverbought >= 100 {
		return configErr("sell.rsi_overbought", s.RSIOverbought, "must be within (0, 100)")
	}
	if s.TechnicalSellCount < 1 || s.TechnicalSellCount > technicalSellConditions {
		return configErr("sell.technical_sell_count", s.TechnicalSellCount, "must be within [1, 3]")
	}
	if s.SentimentTechnicalSellCount < 1 || s.SentimentTechnicalSellCount > technicalSellConditions {
		return configErr("sell.sentiment_technical_sell_count", s.SentimentTechnicalSellCount, "must be within [1, 3]")
	}
	if err := s.TrailingStop.Validate(); err != nil {
		return err
	}
	return s.PartialProfit.Validate()
}

type namedValue struct {
	name  string
	value float64
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
