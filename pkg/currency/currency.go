package currency

import (
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts with the single currency symbol the dashboard is configured for.
type Formatter struct {
	symbol  string
	printer *message.Printer
}

// NewFormatter builds a formatter for symbol, grouping digits the way lang does.
// An unparsable language tag falls back to English grouping.
func NewFormatter(symbol, lang string) *Formatter {
	tag, err := language.Parse(lang)
	if err != nil {
		log.Warnf("unknown currency language %q, falling back to English: %v", lang, err)
		tag = language.English
	}
	return &Formatter{symbol: symbol, printer: message.NewPrinter(tag)}
}

func (f *Formatter) Symbol() string {
	return f.symbol
}

// Format prints amount with two decimals and thousands grouping, e.g. ₹1,234.50.
// Negative amounts keep the sign in front of the symbol.
func (f *Formatter) Format(amount decimal.Decimal) string {
	value := amount.Round(2).InexactFloat64()
	if value < 0 {
		return "-" + f.symbol + f.printer.Sprintf("%.2f", -value)
	}
	return f.symbol + f.printer.Sprintf("%.2f", value)
}

// Plain prints amount with two decimals and no grouping or symbol, suitable for CSV cells.
func Plain(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
