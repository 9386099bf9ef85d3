package engine

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ============================================================================
// FORMATTING: Locale-aware number rendering
// ============================================================================

// printer renders numbers with English digit grouping ("1,234.5").
var printer = message.NewPrinter(language.English)

// FormatNumber renders v with the given number of decimals and grouping.
func FormatNumber(v float64, decimals int) string {
	return printer.Sprintf("%.*f", decimals, v)
}

// FormatInt renders n with digit grouping.
func FormatInt(n int) string {
	return printer.Sprintf("%d", n)
}
