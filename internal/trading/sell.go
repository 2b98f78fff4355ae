package trading

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const technicalSellConditions = 3

// SellPriority orders sell candidates. Lower sells first.
type SellPriority int

const (
	SellPriorityNone         SellPriority = 0
	SellPriorityStopLoss     SellPriority = 1
	SellPriorityTrailingStop SellPriority = 2
	SellPriorityTakeProfit   SellPriority = 3
	SellPriorityTechnical    SellPriority = 4
)

// SellTrigger identifies which condition produced a reason.
type SellTrigger string

const (
	TriggerTakeProfit   SellTrigger = "TAKE_PROFIT"
	TriggerStopLoss     SellTrigger = "STOP_LOSS"
	TriggerTrailingStop SellTrigger = "TRAILING_STOP"
	TriggerTechnical    SellTrigger = "TECHNICAL"
	TriggerSentiment    SellTrigger = "SENTIMENT"

	// TriggerPartialProfit sells one stage instead of the whole position.
	TriggerPartialProfit SellTrigger = "PARTIAL_PROFIT"
)

// SellReason is one triggered condition.
type SellReason struct {
	Trigger  SellTrigger  `json:"trigger"`
	Priority SellPriority `json:"priority"`
	Message  string       `json:"message"`
}

// SellDecision is the outcome for one holding. ShouldSell is true exactly when
// Reasons is non-empty. SellQuantity is the whole Quantity unless a partial
// profit stage is the only trigger, and zero on a hold.
type SellDecision struct {
	Ticker             string       `json:"ticker"`
	ShouldSell         bool         `json:"should_sell"`
	Reasons            []string     `json:"reasons"`
	Triggers           []SellReason `json:"triggers"`
	Priority           SellPriority `json:"priority"`
	PurchasePrice      float64      `json:"purchase_price"`
	CurrentPrice       float64      `json:"current_price"`
	PriceChangePct     float64      `json:"price_change_pct"`
	Quantity           int64        `json:"quantity"`
	SellQuantity       int64        `json:"sell_quantity"`
	Partial            *PartialSell `json:"partial,omitempty"`
	TechnicalSellCount int          `json:"technical_sell_count"`
	TechnicalDetails   []string     `json:"technical_details"`
	SentimentScore     *float64     `json:"sentiment_score,omitempty"`
}

// PositionState is the per-position state the evaluator reads. A nil field
// disables that part: no trailing stop check, or partial profit progress
// starting from the held quantity.
type PositionState struct {
	Trailing *TrailingStop
	Partial  *PartialProfit
}

// FullExit reports whether the decision closes the whole position.
func (d SellDecision) FullExit() bool {
	return d.ShouldSell && d.SellQuantity >= d.Quantity
}

// SellEvaluator checks the exit conditions of held positions.
type SellEvaluator struct {
	cfg SellThresholds
}

// NewSellEvaluator validates cfg and returns an evaluator bound to it.
func NewSellEvaluator(cfg SellThresholds) (*SellEvaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SellEvaluator{cfg: cfg}, nil
}

// Config returns the sell thresholds.
func (e *SellEvaluator) Config() SellThresholds {
	return e.cfg
}

// Evaluate collects every triggered sell condition for h at currentPrice.
// A nil tech contributes no technical sub-conditions; a nil sent disables
// the sentiment trigger. A current price that is zero, negative or not a
// number returns ErrPriceUnavailable.
func (e *SellEvaluator) Evaluate(h Holding, currentPrice float64, tech *TechnicalSignal, sent *SentimentSignal) (SellDecision, error) {
	return e.evaluate(h, currentPrice, tech, sent, PositionState{})
}

// EvaluateWithTrailingStop is Evaluate plus the trailing stop condition. The
// state is advanced with currentPrice observed at the given time before the
// check, and returned so the caller can persist it.
func (e *SellEvaluator) EvaluateWithTrailingStop(h Holding, currentPrice float64, tech *TechnicalSignal, sent *SentimentSignal, state TrailingStop, at time.Time) (SellDecision, TrailingStop, error) {
	d, next, err := e.EvaluatePosition(h, currentPrice, tech, sent, PositionState{Trailing: &state}, at)
	return d, *next.Trailing, err
}

// EvaluatePosition evaluates h against its stored state. A trailing stop is
// advanced before the check and returned for persisting. Partial profit
// progress is returned unchanged; the caller records a stage only once its
// order is accepted.
func (e *SellEvaluator) EvaluatePosition(h Holding, currentPrice float64, tech *TechnicalSignal, sent *SentimentSignal, st PositionState, at time.Time) (SellDecision, PositionState, error) {
	if !validPrice(currentPrice) {
		return SellDecision{}, st, fmt.Errorf("%w: %s", ErrPriceUnavailable, NormalizeTicker(h.Ticker))
	}
	if st.Trailing != nil {
		next, _ := st.Trailing.Observe(currentPrice, at)
		st.Trailing = &next
	}
	d, err := e.evaluate(h, currentPrice, tech, sent, st)
	return d, st, err
}

func (e *SellEvaluator) evaluate(h Holding, currentPrice float64, tech *TechnicalSignal, sent *SentimentSignal, st PositionState) (SellDecision, error) {
	ticker := NormalizeTicker(h.Ticker)
	if !validPrice(currentPrice) {
		return SellDecision{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, ticker)
	}
	if !validPrice(h.PurchasePrice) {
		return SellDecision{}, fmt.Errorf("%w: %s purchase price %v", ErrInvalidPriceData, ticker, h.PurchasePrice)
	}

	pct := PriceChangePct(h.PurchasePrice, currentPrice)
	d := SellDecision{
		Ticker:         ticker,
		PurchasePrice:  h.PurchasePrice,
		CurrentPrice:   currentPrice,
		PriceChangePct: pct,
		Quantity:       h.Quantity,
	}

	partial := NewPartialProfit(ticker, h.Quantity)
	if st.Partial != nil {
		partial = *st.Partial
	}
	staged := e.cfg.PartialProfit.Open(partial)

	if pct >= e.cfg.TakeProfitPct && !staged {
		d.add(TriggerTakeProfit, SellPriorityTakeProfit, fmt.Sprintf("익절 조건 충족: %.2f%% 상승", pct))
	}
	if staged {
		if ps, ok := e.cfg.PartialProfit.Next(partial, pct, h.Quantity); ok {
			d.add(TriggerPartialProfit, SellPriorityTakeProfit,
				fmt.Sprintf("부분 익절 %d단계 충족: %.2f%% 상승, %d주 매도", ps.Stage, pct, ps.Quantity))
			d.Partial = &ps
		}
	}
	if pct <= e.cfg.StopLossPct {
		d.add(TriggerStopLoss, SellPriorityStopLoss, fmt.Sprintf("손절 조건 충족: %.2f%% 하락", pct))
	}

	trailing := st.Trailing
	if trailing != nil && e.cfg.TrailingStop.Enabled {
		minProfit := e.cfg.TrailingStop.MinProfitFor(trailing.Leveraged)
		if trailing.Triggered(currentPrice, minProfit) {
			d.add(TriggerTrailingStop, SellPriorityTrailingStop,
				fmt.Sprintf("트레일링 스톱 조건 충족: 최고가 %.2f 대비 하락, 동적 익절가 %.2f", trailing.HighestPrice, trailing.DynamicStopPrice))
		}
	}

	if tech != nil {
		d.TechnicalDetails = e.technicalSellDetails(*tech)
		d.TechnicalSellCount = len(d.TechnicalDetails)
	}
	if d.TechnicalSellCount >= e.cfg.TechnicalSellCount {
		d.add(TriggerTechnical, SellPriorityTechnical, "기술적 매도 신호")
	}
	if sent != nil && finite(sent.AvgScore) {
		score := sent.AvgScore
		d.SentimentScore = &score
		if score < e.cfg.NegativeSentiment && d.TechnicalSellCount >= e.cfg.SentimentTechnicalSellCount {
			d.add(TriggerSentiment, SellPriorityTechnical, "감정 악화 + 기술적 매도 신호")
		}
	}

	d.ShouldSell = len(d.Reasons) > 0
	if d.Reasons == nil {
		d.Reasons = []string{}
	}
	d.SellQuantity = d.sellQuantity()
	return d, nil
}

// sellQuantity is the stage quantity when a partial stage is the only
// trigger. Any other trigger exits the whole position.
func (d *SellDecision) sellQuantity() int64 {
	if !d.ShouldSell {
		return 0
	}
	for _, t := range d.Triggers {
		if t.Trigger != TriggerPartialProfit {
			d.Partial = nil
			return d.Quantity
		}
	}
	return d.Partial.Quantity
}

func (e *SellEvaluator) technicalSellDetails(tech TechnicalSignal) []string {
	var details []string
	if !tech.GoldenCross {
		details = append(details, "데드 크로스")
	}
	if tech.RSI > e.cfg.RSIOverbought {
		details = append(details, fmt.Sprintf("RSI 과매수(%.2f)", tech.RSI))
	}
	if !tech.MACDBuySignal {
		details = append(details, "MACD 매도 신호")
	}
	return details
}

func (d *SellDecision) add(trigger SellTrigger, priority SellPriority, msg string) {
	d.Reasons = append(d.Reasons, msg)
	d.Triggers = append(d.Triggers, SellReason{Trigger: trigger, Priority: priority, Message: msg})
	if d.Priority == SellPriorityNone || priority < d.Priority {
		d.Priority = priority
	}
}

// SortSellDecisions orders decisions by sell priority, then by the size of the
// price move, largest first.
func SortSellDecisions(decisions []SellDecision) {
	sort.SliceStable(decisions, func(i, j int) bool {
		a, b := decisions[i], decisions[j]
		if a.Priority != b.Priority {
			if a.Priority == SellPriorityNone {
				return false
			}
			if b.Priority == SellPriorityNone {
				return true
			}
			return a.Priority < b.Priority
		}
		return math.Abs(a.PriceChangePct) > math.Abs(b.PriceChangePct)
	})
}
