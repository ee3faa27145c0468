package assemble

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/entity"
	"github.com/vchirila/billchat/internal/intent"
)

// Policy decides what happens when the assembled context exceeds the
// character budget.
type Policy string

const (
	// PolicyReject refuses the question instead of sending an oversized
	// prompt. Suits hosted backends where token cost is real money.
	PolicyReject Policy = "reject"
	// PolicyTruncate cuts the context down to the budget. Suits local
	// backends with a hard context window.
	PolicyTruncate Policy = "truncate"
)

// ErrContextTooLarge is returned under PolicyReject when the bills plus
// question do not fit the budget.
var ErrContextTooLarge = errors.New("assembled context exceeds budget")

// Context is one assembled prompt context.
type Context struct {
	Text        string
	Intent      intent.Result
	RelatedKeys []string
	Truncated   bool
}

// Assembler renders bill collections into a single instruction string under
// a fixed character budget.
type Assembler struct {
	maxChars int
	policy   Policy
	logger   *zap.Logger
}

// New builds an Assembler. maxChars must be positive; policy defaults to
// reject.
func New(maxChars int, policy Policy, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = PolicyReject
	}
	return &Assembler{maxChars: maxChars, policy: policy, logger: logger}
}

// RelatedKeys returns the stored bill keys mentioned by the question. Keys
// and question are compared lowercased with all whitespace removed, so the
// camel-cased key "amountDue" matches the question "what is my amount due".
func RelatedKeys(bills []entity.BillRecord, question string) []string {
	q := normalize(question)
	seen := make(map[string]struct{})
	var keys []string
	for _, b := range bills {
		for _, k := range b.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			if strings.Contains(q, normalize(k)) {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// Build assembles the full instruction for one question over the user's
// bills: intent-specific guidance, the bills as JSON, the question verbatim
// and the scope clause naming the related keys.
func (a *Assembler) Build(bills []entity.BillRecord, question string) (Context, error) {
	res := intent.Classify(question)
	keys := RelatedKeys(bills, question)

	data, err := json.Marshal(bills)
	if err != nil {
		return Context{}, fmt.Errorf("encode bills: %w", err)
	}

	scope := "dar numai cu informatii legate de factura"
	if len(keys) > 0 {
		scope = "dar numai cu informatii legate de: " + strings.Join(keys, ", ")
	}
	text := fmt.Sprintf(
		"%sCiteste informatiile despre costurile in lei facturate din dictionar: %s si raspunde la intrebarea: '%s' %s",
		guidance(res.Category), data, question, scope)

	// the budget counts characters, not bytes: diacritics in Romanian bill
	// labels must not eat into it
	ctx := Context{Text: text, Intent: res, RelatedKeys: keys}
	if utf8.RuneCountInString(ctx.Text) > a.maxChars {
		switch a.policy {
		case PolicyTruncate:
			ctx.Text = cut(ctx.Text, a.maxChars)
			ctx.Truncated = true
		default:
			a.logger.Warn("assemble.reject",
				zap.Int("chars", utf8.RuneCountInString(text)),
				zap.Int("max_chars", a.maxChars))
			return Context{}, ErrContextTooLarge
		}
	}
	a.logger.Info("assemble.ok",
		zap.String("intent", string(res.Category)),
		zap.Int("bills", len(bills)),
		zap.Int("related_keys", len(keys)),
		zap.Int("chars", utf8.RuneCountInString(ctx.Text)),
		zap.Bool("truncated", ctx.Truncated))
	return ctx, nil
}

// guidance prefixes category-specific instructions ahead of the data.
func guidance(c intent.Category) string {
	switch c {
	case intent.BillComparison:
		return "Compara valorile intre facturi si mentioneaza diferentele. "
	case intent.CostBreakdown:
		return "Detaliaza fiecare categorie de cost separat. "
	case intent.PaymentInquiry:
		return "Raspunde cu sumele de plata si termenele exacte. "
	case intent.ServiceAnalysis:
		return "Analizeaza serviciile si consumul facturat. "
	case intent.DiscountInquiry:
		return "Cauta reduceri, compensatii si bonusuri in date. "
	case intent.DeviceCharges:
		return "Raporteaza ratele si costurile pentru echipamente. "
	default:
		return ""
	}
}

// cut trims to max runes.
func cut(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
