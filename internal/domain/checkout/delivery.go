package checkout

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber generates a customer-facing order number of the form
// #SH-<base36 millis><4 random base36 chars>.
func NewOrderNumber(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	var b strings.Builder
	b.Grow(len(ts) + 8)
	b.WriteString("#SH-")
	b.WriteString(ts)
	for range 4 {
		b.WriteByte(orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))])
	}
	return b.String()
}

// AddBusinessDays returns the date that is days business days after from,
// skipping Saturdays and Sundays.
func AddBusinessDays(from time.Time, days int) time.Time {
	d := from
	added := 0
	for added < days {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return d
}

// EstimateDelivery returns the estimated delivery window of 3 to 5 business
// days after now.
func EstimateDelivery(now time.Time) (from, to time.Time) {
	return AddBusinessDays(now, 3), AddBusinessDays(now, 5)
}
