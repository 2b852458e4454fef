package dto

import "pix-webhook-gateway/internal/core/domain"

// DepositWebhookRequest is the provider's deposit notification body.
// Field names follow the provider wire format; everything except qrId is
// optional and absent fields must not disturb stored details.
type DepositWebhookRequest struct {
	QrID            string  `json:"qrId" binding:"required"`
	Status          *string `json:"status,omitempty"`
	ValueInCents    *int64  `json:"valueInCents,omitempty"`
	BankTxID        *string `json:"bankTxId,omitempty"`
	BlockchainTxID  *string `json:"blockchainTxID,omitempty"`
	Expiration      *string `json:"expiration,omitempty"`
	PixKey          *string `json:"pixKey,omitempty"`
	PayerName       *string `json:"payerName,omitempty"`
	PayerEUID       *string `json:"payerEUID,omitempty"`
	PayerTaxNumber  *string `json:"payerTaxNumber,omitempty"`
	CustomerMessage *string `json:"customerMessage,omitempty"`
}

// ToNotification converts the request into the domain notification.
func (r DepositWebhookRequest) ToNotification() domain.DepositNotification {
	return domain.DepositNotification{
		QrID:            r.QrID,
		Status:          r.Status,
		ValueInCents:    r.ValueInCents,
		BankTxID:        r.BankTxID,
		BlockchainTxID:  r.BlockchainTxID,
		Expiration:      r.Expiration,
		PixKey:          r.PixKey,
		PayerName:       r.PayerName,
		PayerEuid:       r.PayerEUID,
		PayerTaxNumber:  r.PayerTaxNumber,
		CustomerMessage: r.CustomerMessage,
	}
}

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// TransactionListQuery holds the listing filters from the query string.
type TransactionListQuery struct {
	StoreID string `form:"store_id"`
	Status  string `form:"status"`
	Search  string `form:"search"`
	From    string `form:"from"` // YYYY-MM-DD or RFC 3339
	To      string `form:"to"`
}

// TransactionResponse is one row of the transaction listing.
type TransactionResponse struct {
	InvoiceID    string  `json:"invoice_id"`
	Created      string  `json:"created"`
	QrID         string  `json:"qr_id"`
	DepixAddress string  `json:"depix_address"`
	ValueInCents *int64  `json:"value_in_cents,omitempty"`
	StatusRaw    string  `json:"status_raw"`
	Status       *string `json:"status"` // parsed; null when the raw string does not parse
}

// TransactionListResponse wraps the capped transaction listing.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Count int                   `json:"count"`
}

// SecretStatusResponse reports whether a webhook secret exists for a
// scope. Never carries the secret itself.
type SecretStatusResponse struct {
	Scope      string `json:"scope"`
	Configured bool   `json:"configured"`
}

// RotateSecretRequest is the request body for secret rotation.
type RotateSecretRequest struct {
	Scope string `json:"scope" binding:"required"`
}

// RotateSecretResponse carries the one-shot plaintext secret. It is
// returned exactly once, immediately after generation, and is not
// recoverable afterward.
type RotateSecretResponse struct {
	Scope      string `json:"scope"`
	Secret     string `json:"secret"`
	WebhookURL string `json:"webhook_url"`
}
