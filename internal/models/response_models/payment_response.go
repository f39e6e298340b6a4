package response_models

// TransactionResponse is returned for every ledger operation, including
// failures: a rejected gateway call yields status "failed" here, never a hard
// error, so the caller can always inspect transaction state.
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	OrderID       string `json:"order_id,omitempty"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	AmountMinor   int64  `json:"amount_minor"`
	Currency      string `json:"currency"`

	RequiresAction bool   `json:"requires_action,omitempty"`
	FailureReason  string `json:"failure_reason,omitempty"`

	FraudScore float64 `json:"fraud_score,omitempty"`
	FraudLevel string  `json:"fraud_level,omitempty"`
}

type RefundResponse struct {
	RefundID      string `json:"refund_id"`
	TransactionID string `json:"transaction_id"`
	AmountMinor   int64  `json:"amount_minor"`
	Type          string `json:"type"`
	Status        string `json:"status"`
}

type ThreeDSChallengeResponse struct {
	ChallengeID   string `json:"challenge_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	ChallengeURL  string `json:"challenge_url"`
}

type WalletPaymentResponse struct {
	TransactionID   string `json:"transaction_id"`
	WalletPaymentID string `json:"wallet_payment_id"`
	Status          string `json:"status"`
}
