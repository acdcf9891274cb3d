package entity

import "github.com/uptrace/bun"

// Order is a purchase request placed through the storefront bot, stored
// in the orders table. Timestamps are epoch seconds; CompletedAt is NULL
// (zero) until the order is marked completed.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID          int64 `bun:"id,pk,autoincrement"`
	OrderNumber int64 `bun:"order_number,notnull"`

	// Requester reference plus a display snapshot taken at order time.
	// The users table itself is owned by the bot's user management.
	UserTgID     int64  `bun:"user_tg_id,notnull"`
	UserName     string `bun:"user_name"`
	UserUsername string `bun:"user_username"`

	CryptoType     string  `bun:"crypto_type,notnull"`
	CryptoDisplay  string  `bun:"crypto_display"`
	Amount         float64 `bun:"amount,notnull"`
	WalletAddress  string  `bun:"wallet_address,notnull"`
	AmountCurrency float64 `bun:"amount_currency"`
	CurrencySymbol string  `bun:"currency_symbol"`
	DeliveryMethod string  `bun:"delivery_method"`

	// Opaque references to proof-of-payment media held by the messaging
	// platform's file storage.
	ProofPhotoFileID    string `bun:"proof_photo_file_id"`
	ProofDocumentFileID string `bun:"proof_document_file_id"`

	CreatedAt   int64 `bun:"created_at,notnull"`
	CompletedAt int64 `bun:"completed_at,nullzero"`
}

// Completed reports whether the order has been marked completed.
func (o *Order) Completed() bool {
	return o.CompletedAt > 0
}
