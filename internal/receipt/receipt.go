package receipt

import (
	"encoding/json"
	"os"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/emicollect/client/internal/models"
)

const qrSize = 256

// PNG renders a scannable QR image of a confirmed payment so the payer
// can keep or share the receipt.
func PNG(r models.PaymentReceipt) ([]byte, error) {
	payload := map[string]any{
		"transaction_id": r.TransactionID,
		"account_number": r.AccountNumber,
		"amount":         r.PaymentAmount.Decimal(),
		"issued_at":      time.Now().Unix(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(string(data), qrcode.Medium, qrSize)
}

// SavePNG writes the receipt QR to a file.
func SavePNG(r models.PaymentReceipt, path string) error {
	png, err := PNG(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0o600)
}
