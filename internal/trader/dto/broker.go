package dto

import (
	"stock-auto-trader/internal/entity"

	"github.com/shopspring/decimal"
)

// KISTokenRequest is the body of POST /oauth2/tokenP.
type KISTokenRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
}

type KISTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// KISResponseHeader is shared by every KIS trading response.
type KISResponseHeader struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`
}

// Rejected reports whether the broker refused the request, with its message.
func (h KISResponseHeader) Rejected() (string, bool) {
	if h.RtCd == "" || h.RtCd == "0" {
		return "", false
	}
	return h.Msg1, true
}

type KISBalanceItem struct {
	Ticker        string `json:"ovrs_pdno"`
	Name          string `json:"ovrs_item_name"`
	PurchasePrice string `json:"pchs_avg_pric"`
	CurrentPrice  string `json:"now_pric2"`
	Quantity      string `json:"ovrs_cblc_qty"`
	ExchangeCode  string `json:"ovrs_excg_cd"`
}

type KISBalanceResponse struct {
	KISResponseHeader
	CtxAreaFK200 string           `json:"ctx_area_fk200"`
	CtxAreaNK200 string           `json:"ctx_area_nk200"`
	Output1      []KISBalanceItem `json:"output1"`
}

type KISOrderableAmount struct {
	OrderableForeignAmount string `json:"ord_psbl_frcr_amt"`
	OverseasOrderableAmt   string `json:"ovrs_ord_psbl_amt"`
}

type KISOrderableAmountResponse struct {
	KISResponseHeader
	Output KISOrderableAmount `json:"output"`
}

type KISPrice struct {
	Last string `json:"last"`
	Base string `json:"base"`
}

type KISPriceResponse struct {
	KISResponseHeader
	Output KISPrice `json:"output"`
}

type KISOrderRequest struct {
	AccountNumber      string `json:"CANO"`
	AccountProductCode string `json:"ACNT_PRDT_CD"`
	ExchangeCode       string `json:"OVRS_EXCG_CD"`
	Ticker             string `json:"PDNO"`
	Quantity           string `json:"ORD_QTY"`
	UnitPrice          string `json:"OVRS_ORD_UNPR"`
	ServerDivision     string `json:"ORD_SVR_DVSN_CD"`
	OrderDivision      string `json:"ORD_DVSN"`
}

type KISOrderOutput struct {
	OrderNumber string `json:"ODNO"`
	OrderTime   string `json:"ORD_TMD"`
}

type KISOrderResponse struct {
	KISResponseHeader
	Output KISOrderOutput `json:"output"`
}

// OrderRequest is a broker-agnostic limit order.
type OrderRequest struct {
	Ticker   string
	Exchange string
	Side     entity.OrderSide
	Quantity int64
	Price    decimal.Decimal
}

// OrderResult is what the broker reported for a submitted order.
type OrderResult struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"order_number"`
	Message     string `json:"message"`
}
