package dto

// RunListParams represents query parameters for listing runs.
type RunListParams struct {
	Limit int `json:"limit"`
}

// LedgerListParams represents query parameters for listing ledger transactions.
// Dates are YYYY-MM-DD and inclusive.
type LedgerListParams struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Merchant string `json:"merchant"`
	Unedited bool   `json:"unedited"`
	Amount   string `json:"amount"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// DefaultRunListParams returns default values for run list params.
func DefaultRunListParams() RunListParams {
	return RunListParams{
		Limit: 20,
	}
}

// DefaultLedgerListParams returns default values for ledger list params.
func DefaultLedgerListParams() LedgerListParams {
	return LedgerListParams{
		Limit: 50,
	}
}
