package dto

// OrderResponse represents an order as exposed via transport layers.
// Timestamps are epoch seconds; completed_at is omitted while the order
// is still open.
type OrderResponse struct {
	ID                  int64   `json:"id"`
	OrderNumber         int64   `json:"order_number"`
	UserTgID            int64   `json:"user_tg_id"`
	UserName            string  `json:"user_name,omitempty"`
	UserUsername        string  `json:"user_username,omitempty"`
	CryptoType          string  `json:"crypto_type"`
	CryptoDisplay       string  `json:"crypto_display,omitempty"`
	Amount              float64 `json:"amount"`
	WalletAddress       string  `json:"wallet_address"`
	AmountCurrency      float64 `json:"amount_currency"`
	CurrencySymbol      string  `json:"currency_symbol,omitempty"`
	DeliveryMethod      string  `json:"delivery_method,omitempty"`
	ProofPhotoFileID    string  `json:"proof_photo_file_id,omitempty"`
	ProofDocumentFileID string  `json:"proof_document_file_id,omitempty"`
	CreatedAt           int64   `json:"created_at"`
	CompletedAt         int64   `json:"completed_at,omitempty"`
}
