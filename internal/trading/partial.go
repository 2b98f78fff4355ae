package trading

import (
	"fmt"
	"math"
	"sort"
)

// PartialProfitStage sells SellPct of the initial quantity once the gain
// reaches ProfitPct. Stages are numbered from 1 in configuration order.
type PartialProfitStage struct {
	ProfitPct float64 `mapstructure:"profit_pct" json:"profit_pct"`
	SellPct   float64 `mapstructure:"sell_pct" json:"sell_pct"`
}

// PartialProfitConfig replaces the single take-profit exit with staged sales
// while any stage is still open.
type PartialProfitConfig struct {
	Enabled bool                 `mapstructure:"enabled" json:"enabled"`
	Stages  []PartialProfitStage `mapstructure:"stages" json:"stages"`
}

func DefaultPartialProfitConfig() PartialProfitConfig {
	return PartialProfitConfig{
		Enabled: false,
		Stages: []PartialProfitStage{
			{ProfitPct: 5, SellPct: 30},
			{ProfitPct: 8, SellPct: 30},
			{ProfitPct: 12, SellPct: 40},
		},
	}
}

// Validate checks the stages only when the feature is on.
func (c PartialProfitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Stages) == 0 {
		return configErr("partial_profit.stages", 0, "must not be empty when enabled")
	}
	prev, total := 0.0, 0.0
	for i, st := range c.Stages {
		if !finite(st.ProfitPct) || st.ProfitPct <= prev {
			return configErr(fmt.Sprintf("partial_profit.stages[%d].profit_pct", i), st.ProfitPct, "must be positive and increasing")
		}
		if !finite(st.SellPct) || st.SellPct <= 0 || st.SellPct > 100 {
			return configErr(fmt.Sprintf("partial_profit.stages[%d].sell_pct", i), st.SellPct, "must be within (0, 100]")
		}
		prev = st.ProfitPct
		total += st.SellPct
	}
	if total > 100+1e-9 {
		return configErr("partial_profit.stages", total, "sell_pct must not add up to more than 100")
	}
	return nil
}

// Open reports whether state still has an unsold stage.
func (c PartialProfitConfig) Open(state PartialProfit) bool {
	if !c.Enabled {
		return false
	}
	for i := range c.Stages {
		if !state.Completed(i + 1) {
			return true
		}
	}
	return false
}

// Next returns the lowest unsold stage whose threshold pct has reached. One
// stage fires per evaluation. The last stage sells everything still held.
func (c PartialProfitConfig) Next(state PartialProfit, pct float64, held int64) (PartialSell, bool) {
	if !c.Enabled || held <= 0 || !finite(pct) {
		return PartialSell{}, false
	}
	initial := state.InitialQuantity
	if initial <= 0 {
		initial = held
	}
	for i, st := range c.Stages {
		stage := i + 1
		if state.Completed(stage) {
			continue
		}
		if pct < st.ProfitPct {
			return PartialSell{}, false
		}
		qty := int64(math.Floor(float64(initial) * st.SellPct / 100))
		if qty < 1 {
			qty = 1
		}
		if qty > held || stage == len(c.Stages) {
			qty = held
		}
		return PartialSell{Stage: stage, ProfitPct: st.ProfitPct, SellPct: st.SellPct, Quantity: qty}, true
	}
	return PartialSell{}, false
}

// PartialSell is one planned stage sale.
type PartialSell struct {
	Stage     int     `json:"stage"`
	ProfitPct float64 `json:"profit_pct"`
	SellPct   float64 `json:"sell_pct"`
	Quantity  int64   `json:"quantity"`
}

// PartialProfit is the staged selling progress of one position.
type PartialProfit struct {
	Ticker          string `json:"ticker"`
	InitialQuantity int64  `json:"initial_quantity"`
	CompletedStages []int  `json:"completed_stages"`
}

// NewPartialProfit starts tracking a freshly bought position.
func NewPartialProfit(ticker string, initialQuantity int64) PartialProfit {
	return PartialProfit{
		Ticker:          NormalizeTicker(ticker),
		InitialQuantity: initialQuantity,
		CompletedStages: []int{},
	}
}

func (p PartialProfit) Completed(stage int) bool {
	for _, s := range p.CompletedStages {
		if s == stage {
			return true
		}
	}
	return false
}

// Record returns a copy with stage marked as sold.
func (p PartialProfit) Record(stage int) PartialProfit {
	if p.Completed(stage) {
		return p
	}
	stages := make([]int, 0, len(p.CompletedStages)+1)
	stages = append(stages, p.CompletedStages...)
	stages = append(stages, stage)
	sort.Ints(stages)
	p.CompletedStages = stages
	return p
}
