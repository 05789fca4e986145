package reminder

import (
	"strings"

	"github.com/finassist-platform/finassist/internal/ledger"
)

// keywordAdvice maps normalized bill-name keywords to advice lines.
var keywordAdvice = []struct {
	keywords []string
	advice   string
}{
	{[]string{"electricity", "electric", "power"},
		"Electricity bills vary with usage. Comparing this amount against last season helps catch meter or tariff changes early."},
	{[]string{"internet", "broadband", "mobile", "phone"},
		"Internet and mobile plans are renegotiable. Providers often match competitor offers if you ask before renewal."},
	{[]string{"insurance", "premium"},
		"Insurance premiums creep up at renewal. A quick comparison quote once a year usually pays for itself."},
	{[]string{"water", "gas"},
		"Utility charges like water and gas are usage-driven. A sudden jump is worth checking against the meter reading."},
	{[]string{"rent", "mortgage", "lease"},
		"Housing payments are your largest fixed cost. Keeping them under a third of monthly income leaves room for savings."},
}

// Amount overlay thresholds, in minor units.
const (
	largeBillCents = 500000
	smallBillCents = 50000
)

const (
	largeBillAdvice = "This is a large payment. Make sure your balance covers it a few days before the due date."
	smallBillAdvice = "Small recurring bills add up. Consider autopay so this one never slips through."
)

// AdviceFor returns every advice line that applies to the bill: at most one
// keyword match plus any amount overlays. Overlays stack, they do not
// replace each other.
func AdviceFor(bill ledger.Bill) []string {
	var lines []string

	name := strings.ToLower(bill.Name)
	for _, rule := range keywordAdvice {
		matched := false
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				lines = append(lines, rule.advice)
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}

	if bill.AmountCents > largeBillCents {
		lines = append(lines, largeBillAdvice)
	}
	if bill.AmountCents < smallBillCents {
		lines = append(lines, smallBillAdvice)
	}

	return lines
}
