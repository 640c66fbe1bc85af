package ticket

import (
	"fmt"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/Skotchmaster/online_restaurant/internal/models"
)

const DefaultSize = 256

func Content(res models.Reservation, nickname string) string {
	return fmt.Sprintf("reservation=%d;table=%s;start=%s;guest=%s",
		res.ID, res.TypeTable, res.TimeStart.UTC().Format(time.RFC3339), nickname)
}

func PNG(res models.Reservation, nickname string) ([]byte, error) {
	return qrcode.Encode(Content(res, nickname), qrcode.Medium, DefaultSize)
}
