package domain

import "fmt"

// FormatPrice renders an amount in minor units with two decimals, prefixed
// by symbol. Negative amounts keep their sign ahead of the symbol.
func FormatPrice(cents int64, symbol string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, cents/100, cents%100)
}

