package extract

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/entity"
)

// Extractor scans bill text line by line against an ordered rule table.
type Extractor struct {
	rules  []Rule
	logger *zap.Logger
}

// NewExtractor builds an extractor; nil rules fall back to DefaultRules.
func NewExtractor(rules []Rule, logger *zap.Logger) *Extractor {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{rules: rules, logger: logger}
}

// ParseText splits text on newlines and delegates to ParseLines.
func (e *Extractor) ParseText(text string) entity.BillRecord {
	return e.ParseLines(strings.Split(text, "\n"))
}

// ParseLines walks every line once. The first rule that matches a line
// claims it; a line whose value token does not parse is skipped, never
// fatal. A layout with no matching labels yields an empty record and no
// error.
func (e *Extractor) ParseLines(lines []string) entity.BillRecord {
	labels := make(map[string]any)
	matched, skipped := 0, 0
	for _, line := range lines {
		rule, ok := e.match(line)
		if !ok {
			continue
		}
		value, ok := parseValue(line, rule.Kind)
		if !ok {
			skipped++
			e.logger.Debug("extract.line.skip",
				zap.String("canonical", rule.Canonical),
				zap.String("line", strings.TrimSpace(line)))
			continue
		}
		labels[rule.Canonical] = value
		matched++
	}
	e.logger.Info("extract.ok",
		zap.Int("lines", len(lines)),
		zap.Int("matched", matched),
		zap.Int("skipped", skipped))
	return entity.BillRecord{Labels: labels}
}

func (e *Extractor) match(line string) (Rule, bool) {
	for _, r := range e.rules {
		if r.matches(line) {
			return r, true
		}
	}
	return Rule{}, false
}

// parseValue pulls the value token out of a matched line. Amounts sit in the
// second-to-last whitespace token (before the trailing currency marker) with
// a decimal comma; dates are the last token as printed.
func parseValue(line string, kind ValueKind) (any, bool) {
	toks := strings.Fields(line)
	switch kind {
	case KindAmount:
		if len(toks) < 2 {
			return nil, false
		}
		raw := strings.ReplaceAll(toks[len(toks)-2], ",", ".")
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case KindDate:
		if len(toks) < 1 {
			return nil, false
		}
		return toks[len(toks)-1], true
	}
	return nil, false
}
