// Package format holds presentation helpers shared by the admin and
// driver APIs: currency, address and elapsed-time rendering. Everything
// here is derived state, recomputed on demand and never persisted.
package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// OverdueThreshold is how long an order may stay undelivered before the
// driver view flags it.
const OverdueThreshold = 20 * time.Minute

var currencyPrinter = message.NewPrinter(language.BrazilianPortuguese)

// Price renders a monetary value as Brazilian real, e.g. "R$ 1.234,50".
func Price(v float64) string {
	return currencyPrinter.Sprintf("R$ %.2f", v)
}

// PricePerKg renders a weighable product price, e.g. "R$ 39,90/kg".
func PricePerKg(v float64) string {
	return Price(v) + "/kg"
}

// ElapsedMinutes returns whole minutes between createdAt and now.
// A future createdAt clamps to zero.
func ElapsedMinutes(createdAt, now time.Time) int {
	d := now.Sub(createdAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// ElapsedLabel renders elapsed time as "0h 45min".
func ElapsedLabel(createdAt, now time.Time) string {
	m := ElapsedMinutes(createdAt, now)
	return fmt.Sprintf("%dh %dmin", m/60, m%60)
}

// Overdue reports whether an order created at createdAt has been waiting
// longer than OverdueThreshold.
func Overdue(createdAt, now time.Time) bool {
	return now.Sub(createdAt) > OverdueThreshold
}

// AddressParts is the minimal shape needed to render a one-line address.
type AddressParts struct {
	Street       string
	Number       string
	Neighborhood string
	Complement   string
	City         string
}

// Address renders a single-line delivery address, skipping empty parts.
func Address(a AddressParts) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.Street))
	if n := strings.TrimSpace(a.Number); n != "" {
		b.WriteString(", ")
		b.WriteString(n)
	}
	if c := strings.TrimSpace(a.Complement); c != "" {
		b.WriteString(" (")
		b.WriteString(c)
		b.WriteString(")")
	}
	if n := strings.TrimSpace(a.Neighborhood); n != "" {
		b.WriteString(" - ")
		b.WriteString(n)
	}
	if c := strings.TrimSpace(a.City); c != "" {
		b.WriteString(" - ")
		b.WriteString(c)
	}
	return b.String()
}
