package intent

import "strings"

// Category labels what a billing question is about. The zero-signal fallback
// is General.
type Category string

const (
	BillComparison  Category = "bill_comparison"
	CostBreakdown   Category = "cost_breakdown"
	PaymentInquiry  Category = "payment_inquiry"
	ServiceAnalysis Category = "service_analysis"
	DiscountInquiry Category = "discount_inquiry"
	DeviceCharges   Category = "device_charges"
	General         Category = "general"
)

// Result is one classification outcome.
type Result struct {
	Category   Category
	Confidence float64
	Matches    []string
}

// keyword stems per category, Romanian first, English where users mix
// languages. Matching is case-insensitive substring, so stems cover
// inflected forms ("compara", "comparatie").
var table = []struct {
	category Category
	stems    []string
}{
	{BillComparison, []string{"compar", "diferent", "luna trecut", "lunile", "fata de", "versus", "evolutie"}},
	{CostBreakdown, []string{"detali", "defalc", "breakdown", "costuri", "categorii", "compozitie", "din ce"}},
	{PaymentInquiry, []string{"plat", "payment", "due", "scadent", "achit", "datorez", "sold", "restant"}},
	{ServiceAnalysis, []string{"servici", "consum", "abonament", "utiliza", "trafic", "minute", "roaming"}},
	{DiscountInquiry, []string{"discount", "reducer", "compensat", "bonus", "oferta", "promot"}},
	{DeviceCharges, []string{"terminal", "telefon", "rate", "device", "echipament", "aparat"}},
}

// Classify scores the question against the keyword table: one point per
// matched stem, highest score wins, ties broken by table order. A question
// with no matches is General at 0.5 confidence.
func Classify(question string) Result {
	q := strings.ToLower(question)

	best := Result{Category: General, Confidence: 0.5}
	bestScore := 0
	for _, row := range table {
		var matches []string
		for _, stem := range row.stems {
			if strings.Contains(q, stem) {
				matches = append(matches, stem)
			}
		}
		if len(matches) > bestScore {
			bestScore = len(matches)
			best = Result{
				Category:   row.category,
				Confidence: confidence(len(matches)),
				Matches:    matches,
			}
		}
	}
	return best
}

// confidence grows with the number of matched stems and saturates at 0.95.
func confidence(matches int) float64 {
	c := 0.6 + 0.15*float64(matches-1)
	if c > 0.95 {
		c = 0.95
	}
	return c
}
