package receipt

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/emicollect/client/internal/models"
)

var testReceipt = models.PaymentReceipt{
	TransactionID: "TXN-1",
	PaymentAmount: models.Money(500000),
	AccountNumber: "LN100200",
	CreatedAt:     time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
}

func TestPNG(t *testing.T) {
	data, err := PNG(testReceipt)
	assert.NoError(t, err)
	assert.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
	assert.Equal(t, qrSize, img.Bounds().Dx())
	assert.Equal(t, qrSize, img.Bounds().Dy())
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.png")

	assert.NoError(t, SavePNG(testReceipt, path))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}
