package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/config"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trading"
	"stock-auto-trader/pkg/logger"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	tokenCacheKey   = "kis:token"
	quoteCacheKey   = "kis:quote:%s"
	maxBalancePages = 10
)

// ErrBrokerRejected is returned when the broker answers with rt_cd other than "0".
var ErrBrokerRejected = errors.New("broker rejected request")

// balanceExchanges are the order-side exchange codes queried for holdings.
var balanceExchanges = []string{"NASD", "NYSE", "AMEX"}

// quoteExchanges maps order-side exchange codes to quotation codes.
var quoteExchanges = map[string]string{
	"NASD": "NAS",
	"NAS":  "NAS",
	"NYSE": "NYS",
	"NYS":  "NYS",
	"AMEX": "AMS",
	"AMS":  "AMS",
}

// BrokerRepository is the overseas brokerage account.
type BrokerRepository interface {
	GetHoldings(ctx context.Context) ([]trading.Holding, error)
	GetAvailableCash(ctx context.Context) (decimal.Decimal, error)
	GetCurrentPrice(ctx context.Context, ticker, exchange string) (float64, error)
	SubmitOrder(ctx context.Context, req dto.OrderRequest) (*dto.OrderResult, error)
}

type brokerRepository struct {
	cfg            config.Broker
	log            *logger.Logger
	client         *resty.Client
	requestLimiter *rate.Limiter
	inmemoryCache  *cache.Cache
	tokenMu        sync.Mutex
}

func NewBrokerRepository(cfg config.Broker, log *logger.Logger) BrokerRepository {
	perSecond := cfg.MaxRequestPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Content-Type", "application/json; charset=utf-8")
	return &brokerRepository{
		cfg:            cfg,
		log:            log,
		client:         client,
		requestLimiter: rate.NewLimiter(rate.Every(time.Second/time.Duration(perSecond)), 1),
		inmemoryCache:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

// GetHoldings merges the balances of every US exchange. Zero-quantity lines are dropped.
func (r *brokerRepository) GetHoldings(ctx context.Context) ([]trading.Holding, error) {
	trID := r.trID("TTTS3012R", "VTTS3012R")
	var holdings []trading.Holding
	seen := make(map[string]struct{})
	for _, exchange := range balanceExchanges {
		fk, nk := "", ""
		for page := 0; page < maxBalancePages; page++ {
			var resp dto.KISBalanceResponse
			raw, err := r.get(ctx, "/uapi/overseas-stock/v1/trading/inquire-balance", trID, map[string]string{
				"CANO":           r.cfg.AccountNumber,
				"ACNT_PRDT_CD":   r.cfg.AccountProductCode,
				"OVRS_EXCG_CD":   exchange,
				"TR_CRCY_CD":     "USD",
				"CTX_AREA_FK200": fk,
				"CTX_AREA_NK200": nk,
			}, page > 0, &resp)
			if err != nil {
				return nil, fmt.Errorf("failed to get balance for %s: %w", exchange, err)
			}
			for _, item := range resp.Output1 {
				h, ok := toHolding(item, exchange)
				if !ok {
					continue
				}
				if _, dup := seen[h.Ticker]; dup {
					continue
				}
				seen[h.Ticker] = struct{}{}
				holdings = append(holdings, h)
			}
			cont := raw.Header().Get("tr_cont")
			if cont != "M" && cont != "F" {
				break
			}
			fk, nk = resp.CtxAreaFK200, resp.CtxAreaNK200
		}
	}
	r.log.DebugContext(ctx, "Broker holdings fetched", logger.IntField("count", len(holdings)))
	return holdings, nil
}

func toHolding(item dto.KISBalanceItem, exchange string) (trading.Holding, bool) {
	qty, err := strconv.ParseFloat(strings.TrimSpace(item.Quantity), 64)
	if err != nil || qty < 1 {
		return trading.Holding{}, false
	}
	if item.ExchangeCode != "" {
		exchange = item.ExchangeCode
	}
	return trading.Holding{
		Ticker:        trading.NormalizeTicker(item.Ticker),
		Name:          item.Name,
		Exchange:      exchange,
		PurchasePrice: parseFloat(item.PurchasePrice),
		Quantity:      int64(qty),
		CurrentPrice:  parseFloat(item.CurrentPrice),
	}, true
}

func (r *brokerRepository) GetAvailableCash(ctx context.Context) (decimal.Decimal, error) {
	var resp dto.KISOrderableAmountResponse
	_, err := r.get(ctx, "/uapi/overseas-stock/v1/trading/inquire-psamount", r.trID("TTTS3007R", "VTTS3007R"), map[string]string{
		"CANO":          r.cfg.AccountNumber,
		"ACNT_PRDT_CD":  r.cfg.AccountProductCode,
		"OVRS_EXCG_CD":  "NASD",
		"OVRS_ORD_UNPR": "0",
		"ITEM_CD":       r.cfg.CashReferenceTicker,
	}, false, &resp)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get orderable amount: %w", err)
	}
	raw := resp.Output.OrderableForeignAmount
	if strings.TrimSpace(raw) == "" {
		raw = resp.Output.OverseasOrderableAmt
	}
	cash, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid orderable amount %q: %w", raw, err)
	}
	return cash, nil
}

// GetCurrentPrice returns the last trade price. Quotes are cached briefly.
// A non-positive quote is reported as trading.ErrPriceUnavailable.
func (r *brokerRepository) GetCurrentPrice(ctx context.Context, ticker, exchange string) (float64, error) {
	key := fmt.Sprintf(quoteCacheKey, ticker)
	if v, ok := r.inmemoryCache.Get(key); ok {
		return v.(float64), nil
	}
	excd, ok := quoteExchanges[strings.ToUpper(exchange)]
	if !ok {
		excd = "NAS"
	}
	var resp dto.KISPriceResponse
	if _, err := r.get(ctx, "/uapi/overseas-price/v1/quotations/price", "HHDFS00000300", map[string]string{
		"AUTH": "",
		"EXCD": excd,
		"SYMB": ticker,
	}, false, &resp); err != nil {
		return 0, fmt.Errorf("failed to get price for %s: %w", ticker, err)
	}
	price := parseFloat(resp.Output.Last)
	if price <= 0 {
		return 0, fmt.Errorf("%s: %w", ticker, trading.ErrPriceUnavailable)
	}
	if r.cfg.QuoteCacheTTL > 0 {
		r.inmemoryCache.Set(key, price, r.cfg.QuoteCacheTTL)
	}
	return price, nil
}

// SubmitOrder places a limit order. A broker-side rejection is returned as a
// result with Success false, not as an error.
func (r *brokerRepository) SubmitOrder(ctx context.Context, req dto.OrderRequest) (*dto.OrderResult, error) {
	trID := r.trID("TTTT1002U", "VTTT1002U")
	if req.Side == entity.OrderSideSell {
		trID = r.trID("TTTT1006U", "VTTT1001U")
	}
	exchange := req.Exchange
	if exchange == "" {
		exchange = "NASD"
	}
	body := dto.KISOrderRequest{
		AccountNumber:      r.cfg.AccountNumber,
		AccountProductCode: r.cfg.AccountProductCode,
		ExchangeCode:       exchange,
		Ticker:             req.Ticker,
		Quantity:           strconv.FormatInt(req.Quantity, 10),
		UnitPrice:          req.Price.StringFixed(2),
		ServerDivision:     "0",
		OrderDivision:      "00",
	}

	token, err := r.token(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	var resp dto.KISOrderResponse
	raw, err := r.client.R().
		SetContext(ctx).
		SetHeaders(r.headers(token, trID)).
		SetBody(body).
		SetResult(&resp).
		Post("/uapi/overseas-stock/v1/trading/order")
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to send order", logger.ErrorField(err), logger.StringField("ticker", req.Ticker))
		return nil, err
	}
	if raw.IsError() {
		return nil, fmt.Errorf("order endpoint returned %d: %s", raw.StatusCode(), raw.String())
	}
	if resp.RtCd != "0" {
		r.log.WarnContext(ctx, "Broker rejected order",
			logger.StringField("ticker", req.Ticker),
			logger.StringField("side", string(req.Side)),
			logger.StringField("msg", resp.Msg1))
		return &dto.OrderResult{Success: false, Message: resp.Msg1}, nil
	}
	return &dto.OrderResult{Success: true, OrderNumber: resp.Output.OrderNumber, Message: resp.Msg1}, nil
}

func (r *brokerRepository) get(ctx context.Context, path, trID string, params map[string]string, continued bool, result interface{}) (*resty.Response, error) {
	token, err := r.token(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		r.log.ErrorContext(ctx, "Failed to wait for request limit", logger.ErrorField(err), logger.StringField("path", path))
		return nil, err
	}
	req := r.client.R().
		SetContext(ctx).
		SetHeaders(r.headers(token, trID)).
		SetQueryParams(params).
		SetResult(result)
	if continued {
		req.SetHeader("tr_cont", "N")
	}
	resp, err := req.Get(path)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to send request to broker", logger.ErrorField(err), logger.StringField("path", path))
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s returned %d: %s", path, resp.StatusCode(), resp.String())
	}
	if h, ok := result.(interface{ Rejected() (string, bool) }); ok {
		if msg, bad := h.Rejected(); bad {
			return nil, fmt.Errorf("%w: %s", ErrBrokerRejected, msg)
		}
	}
	return resp, nil
}

func (r *brokerRepository) headers(token, trID string) map[string]string {
	return map[string]string{
		"authorization": "Bearer " + token,
		"appkey":        r.cfg.AppKey,
		"appsecret":     r.cfg.AppSecret,
		"tr_id":         trID,
		"custtype":      "P",
	}
}

// token returns the cached access token, issuing a new one when it is missing or near expiry.
func (r *brokerRepository) token(ctx context.Context) (string, error) {
	if v, ok := r.inmemoryCache.Get(tokenCacheKey); ok {
		return v.(string), nil
	}
	r.tokenMu.Lock()
	defer r.tokenMu.Unlock()
	if v, ok := r.inmemoryCache.Get(tokenCacheKey); ok {
		return v.(string), nil
	}

	var resp dto.KISTokenResponse
	raw, err := r.client.R().
		SetContext(ctx).
		SetBody(dto.KISTokenRequest{GrantType: "client_credentials", AppKey: r.cfg.AppKey, AppSecret: r.cfg.AppSecret}).
		SetResult(&resp).
		Post("/oauth2/tokenP")
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}
	if raw.IsError() || resp.AccessToken == "" {
		return "", fmt.Errorf("failed to issue access token: status %d: %s", raw.StatusCode(), raw.String())
	}
	ttl := time.Duration(resp.ExpiresIn)*time.Second - time.Minute
	if ttl <= 0 {
		ttl = time.Minute
	}
	r.inmemoryCache.Set(tokenCacheKey, resp.AccessToken, ttl)
	r.log.InfoContext(ctx, "Broker access token issued", logger.Field("expires_in", resp.ExpiresIn))
	return resp.AccessToken, nil
}

func (r *brokerRepository) trID(real, mock string) string {
	if r.cfg.Mock {
		return mock
	}
	return real
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
