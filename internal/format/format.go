// Package format renders settlement amounts and summaries for people.
package format

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/number"

	"github.com/mmynk/settleup/internal/calculator"
)

const summaryKey = "%d payments needed to settle up"

// AllSettled is the summary shown when no payments are needed.
const AllSettled = "All settled up!"

var supported = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
}

var matcher = language.NewMatcher(supported)

var summaries = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	b.Set(language.English, summaryKey, plural.Selectf(1, "%d",
		"=0", AllSettled,
		"=1", "1 payment needed to settle up",
		plural.Other, "%d payments needed to settle up"))
	b.Set(language.German, summaryKey, plural.Selectf(1, "%d",
		"=0", "Alles ausgeglichen!",
		"=1", "1 Zahlung zum Ausgleichen nötig",
		plural.Other, "%d Zahlungen zum Ausgleichen nötig"))
	b.Set(language.French, summaryKey, plural.Selectf(1, "%d",
		"=0", "Tout est réglé !",
		"=1", "1 paiement nécessaire pour tout régler",
		plural.Other, "%d paiements nécessaires pour tout régler"))
	b.Set(language.Spanish, summaryKey, plural.Selectf(1, "%d",
		"=0", "¡Todo saldado!",
		"=1", "1 pago necesario para saldar cuentas",
		plural.Other, "%d pagos necesarios para saldar cuentas"))
	return b
}

// Formatter formats amounts and summaries for one locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Formatter for the given locale.
func New(tag language.Tag) *Formatter {
	return &Formatter{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(summaries)),
	}
}

// ForAcceptLanguage picks the best supported locale for an Accept-Language
// header value. Unparseable or empty headers yield English.
func ForAcceptLanguage(header string) *Formatter {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return New(language.English)
	}
	_, index, _ := matcher.Match(tags...)
	return New(supported[index])
}

// Language returns the locale this formatter renders for.
func (f *Formatter) Language() language.Tag {
	return f.tag
}

// FormatAmount renders amount with the currency's symbol and exactly two
// fraction digits. Unknown currency codes fall back to "<CODE> <amount>".
func (f *Formatter) FormatAmount(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %.2f", code, amount)
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return f.printer.Sprintf("%s%v%v", sign, currency.Symbol(unit), number.Decimal(amount, number.Scale(2)))
}

// Summarize describes how many payments settle the group.
func (f *Formatter) Summarize(settlements []calculator.Settlement) string {
	return f.printer.Sprintf(summaryKey, len(settlements))
}

var english = New(language.English)

// FormatAmount formats amount in English.
func FormatAmount(amount float64, code string) string {
	return english.FormatAmount(amount, code)
}

// Summarize summarizes settlements in English.
func Summarize(settlements []calculator.Settlement) string {
	return english.Summarize(settlements)
}
