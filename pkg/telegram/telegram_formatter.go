package telegram

import (
	"fmt"
	"strings"
	"time"

	"stock-auto-trader/internal/trading"
	"stock-auto-trader/pkg/utils"

	"github.com/shopspring/decimal"
)

// OrderNotice is what the formatter needs to describe a submitted order.
type OrderNotice struct {
	Ticker      string
	Quantity    int64
	Price       decimal.Decimal
	Accepted    bool
	DryRun      bool
	OrderNumber string
	Message     string
	At          time.Time
}

func orderStatusLine(n OrderNotice) string {
	switch {
	case n.DryRun:
		return "🧪 *Dry run*, no order sent"
	case n.Accepted:
		return fmt.Sprintf("✅ *Accepted* `#%s`", n.OrderNumber)
	default:
		return fmt.Sprintf("❌ *Rejected*: %s", n.Message)
	}
}

// FormatBuyOrderMessage formats an auto-buy order into a Markdown string for Telegram.
func FormatBuyOrderMessage(n OrderNotice, intent trading.OrderIntent) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🟢 *BUY* `%s`\n", n.Ticker))
	sb.WriteString(fmt.Sprintf("📦 Qty: %d @ $%s (≈ $%s)\n", n.Quantity, n.Price.StringFixed(2), n.Price.Mul(decimal.NewFromInt(n.Quantity)).StringFixed(2)))
	sb.WriteString(fmt.Sprintf("🎯 Score: %.2f | Priority: %d | %s\n", intent.CompositeScore, intent.Priority, intent.Decision))
	sb.WriteString(fmt.Sprintf("🧠 %s\n", intent.Rationale))
	sb.WriteString(orderStatusLine(n) + "\n")
	sb.WriteString(utils.PrettyDate(n.At))
	return sb.String()
}

// FormatSellOrderMessage formats a sell order with its triggering reasons.
func FormatSellOrderMessage(n OrderNotice, decision trading.SellDecision) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔴 *SELL* `%s`\n", n.Ticker))
	sb.WriteString(fmt.Sprintf("💰 Buy: $%.2f | Current: $%.2f (%+.2f%%)\n", decision.PurchasePrice, decision.CurrentPrice, decision.PriceChangePct))
	if decision.Partial != nil {
		sb.WriteString(fmt.Sprintf("📦 Qty: %d of %d (stage %d, %d left)\n",
			n.Quantity, decision.Quantity, decision.Partial.Stage, decision.Quantity-n.Quantity))
	} else {
		sb.WriteString(fmt.Sprintf("📦 Qty: %d\n", n.Quantity))
	}
	sb.WriteString("📌 *Reasons:*\n")
	for _, reason := range decision.Reasons {
		sb.WriteString(fmt.Sprintf("• %s\n", reason))
	}
	if len(decision.TechnicalDetails) > 0 {
		sb.WriteString(fmt.Sprintf("🔧 %s\n", strings.Join(decision.TechnicalDetails, ", ")))
	}
	sb.WriteString(orderStatusLine(n) + "\n")
	sb.WriteString(utils.PrettyDate(n.At))
	return sb.String()
}

// FormatNoBuyCandidatesMessage reports a buy run that found nothing to buy.
func FormatNoBuyCandidatesMessage(evaluated int, cash decimal.Decimal, at time.Time) string {
	return fmt.Sprintf("🟡 *Auto-buy*: no eligible candidates\n🔎 Evaluated: %d | 💵 Cash: $%s\n%s",
		evaluated, cash.StringFixed(2), utils.PrettyDate(at))
}

// FormatPriceUnavailableMessage reports a holding whose quote could not be fetched.
func FormatPriceUnavailableMessage(ticker string, attempts int64, at time.Time) string {
	return fmt.Sprintf("⚠️ [%s] current price unavailable after %d attempts, sell evaluation skipped\n%s",
		ticker, attempts, utils.PrettyDate(at))
}

func FormatErrorAlertMessage(time time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf(`📛 [ERROR ALERT] 
%s
🔧 %s
⚠️ %s	

📄 Data: %s
`, utils.PrettyDate(time), errType, errMsg, data)
}
