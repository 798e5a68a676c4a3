package dto

// PaymentWebhook is the payment provider's billing notification.
type PaymentWebhook struct {
	Event string `json:"event"`
	Data  struct {
		ID       string            `json:"id"`
		Status   string            `json:"status"`
		Metadata map[string]string `json:"metadata"`
	} `json:"data"`
	DevMode bool `json:"devMode"`
}

type CheckoutRequest struct {
	Plan     string `json:"plan"`
	TaxID    string `json:"tax_id"`
	Cellular string `json:"cellphone"`
}

type CheckoutResponse struct {
	PaymentID     string `json:"payment_id"`
	QRCodeBase64  string `json:"qr_code_base64"`
	CopyPasteCode string `json:"copy_paste_code"`
	AmountCents   int    `json:"amount_cents"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

type PaymentStatusResponse struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}
