package request

// CurrencyRequest is the request body for currency grants and deductions
type CurrencyRequest struct {
	// Amount in Knuts
	Amount int64 `json:"amount"`
}
