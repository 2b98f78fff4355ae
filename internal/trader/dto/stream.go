package dto

// StreamDataSellEvaluation is one holding queued for sell evaluation.
type StreamDataSellEvaluation struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	Exchange      string  `json:"exchange"`
	PurchasePrice float64 `json:"purchase_price"`
	Quantity      int64   `json:"quantity"`
	BrokerPrice   float64 `json:"broker_price"`
	DryRun        bool    `json:"dry_run"`
}
