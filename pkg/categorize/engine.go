package categorize

import (
	"sort"
	"strings"
)

const (
	// minimum sightings of a vendor before consistency is judged at all
	minObservations = 3
	// share of sightings the top category must own to be the vendor's mode
	dominanceRatio = 0.75

	confidenceExactPayee       = 1.0
	confidenceExactDescription = 0.9
	confidenceSubstring        = 0.7
	confidenceRule             = 0.7
)

// CategorizedTransaction is one observation from the committed ledger:
// a description resolved to a category.
type CategorizedTransaction struct {
	Description string
	Payee       string
	CategoryID  int64
	GroupName   string
	SubName     string
}

// Suggestion is a proposed category for an incoming row. A nil CategoryID
// means no suggestion, which is distinct from a low-confidence one.
// Confidence is a tier value, not a measured probability.
type Suggestion struct {
	CategoryID *int64
	GroupName  string
	SubName    string
	Confidence float64
}

type categoryCount struct {
	id    int64
	group string
	sub   string
	count int
}

// distribution counts how often a normalized vendor string resolved to each
// category.
type distribution struct {
	byCategory map[int64]*categoryCount
	total      int
}

// History is the request-scoped index of past categorizations. Build it once
// per import request and pass it into every Suggest call; it is never
// mutated after construction.
type History struct {
	distributions map[string]*distribution
	// normalized keys in sorted order so substring scans are deterministic
	keys []string
}

// BuildHistory folds the committed ledger into per-vendor category
// distributions keyed by normalized description (and payee, when present).
func BuildHistory(transactions []CategorizedTransaction) *History {
	h := &History{distributions: map[string]*distribution{}}

	for _, t := range transactions {
		h.observe(Normalize(t.Description), t)
		if t.Payee != "" {
			h.observe(Normalize(t.Payee), t)
		}
	}

	h.keys = make([]string, 0, len(h.distributions))
	for key := range h.distributions {
		h.keys = append(h.keys, key)
	}
	sort.Strings(h.keys)

	return h
}

func (h *History) observe(key string, t CategorizedTransaction) {
	if key == "" {
		return
	}

	d, ok := h.distributions[key]
	if !ok {
		d = &distribution{byCategory: map[int64]*categoryCount{}}
		h.distributions[key] = d
	}

	c, ok := d.byCategory[t.CategoryID]
	if !ok {
		c = &categoryCount{id: t.CategoryID, group: t.GroupName, sub: t.SubName}
		d.byCategory[t.CategoryID] = c
	}

	c.count++
	d.total++
}

// dominant resolves a distribution to its mode. With fewer than
// minObservations sightings the most frequent category is returned outright;
// with enough data the mode must own dominanceRatio of sightings, otherwise
// the vendor is high-variance and history-based suggestion is abandoned.
func (d *distribution) dominant() (top *categoryCount, highVariance bool) {
	for _, c := range d.byCategory {
		if top == nil || c.count > top.count || (c.count == top.count && c.id < top.id) {
			top = c
		}
	}

	if top == nil {
		return nil, false
	}

	if d.total < minObservations {
		return top, false
	}

	if float64(top.count) < dominanceRatio*float64(d.total) {
		return nil, true
	}

	return top, false
}

// Engine proposes categories for incoming rows, preferring the vendor's own
// history and falling back to the static merchant rule table.
type Engine struct {
	history *History
	rules   []Rule
	// category name pair -> id, for resolving rule-table hits against the
	// ledger's real categories
	categoryIDs map[string]int64
}

func NewEngine(history *History, categoryIDs map[string]int64) *Engine {
	return &Engine{
		history:     history,
		rules:       MerchantRules,
		categoryIDs: categoryIDs,
	}
}

// Suggest applies the precedence chain and stops at the first hit:
// exact payee match, exact description match, substring match, merchant rule
// table, no suggestion. A vendor whose history is high-variance skips the
// remaining history steps entirely and goes straight to the rule table.
func (e *Engine) Suggest(payee, description string) Suggestion {
	payeeKey := Normalize(payee)
	descriptionKey := Normalize(description)

	// rows without a payee column use their description as the vendor
	// identity, and an exact hit on it is as strong as a payee hit
	primaryKey := payeeKey
	if primaryKey == "" {
		primaryKey = descriptionKey
	}

	if primaryKey != "" {
		if d, ok := e.history.distributions[primaryKey]; ok {
			top, highVariance := d.dominant()
			if top != nil {
				return e.historySuggestion(top, confidenceExactPayee)
			}
			if highVariance {
				return e.ruleSuggestion(payeeKey, descriptionKey)
			}
		}
	}

	if descriptionKey != "" && descriptionKey != primaryKey {
		if d, ok := e.history.distributions[descriptionKey]; ok {
			top, highVariance := d.dominant()
			if top != nil {
				return e.historySuggestion(top, confidenceExactDescription)
			}
			if highVariance {
				return e.ruleSuggestion(payeeKey, descriptionKey)
			}
		}
	}

	if top := e.substringMatch(payeeKey, descriptionKey); top != nil {
		return e.historySuggestion(top, confidenceSubstring)
	}

	return e.ruleSuggestion(payeeKey, descriptionKey)
}

func (e *Engine) substringMatch(payeeKey, descriptionKey string) *categoryCount {
	for _, key := range e.history.keys {
		for _, needle := range []string{payeeKey, descriptionKey} {
			// very short needles would drown in false hits
			if len(needle) < 4 || key == needle {
				continue
			}

			if strings.Contains(key, needle) || strings.Contains(needle, key) {
				top, _ := e.history.distributions[key].dominant()
				if top != nil {
					return top
				}
			}
		}
	}

	return nil
}

func (e *Engine) historySuggestion(c *categoryCount, confidence float64) Suggestion {
	id := c.id
	return Suggestion{
		CategoryID: &id,
		GroupName:  c.group,
		SubName:    c.sub,
		Confidence: confidence,
	}
}

func (e *Engine) ruleSuggestion(payeeKey, descriptionKey string) Suggestion {
	for _, rule := range e.rules {
		if rule.Pattern.MatchString(payeeKey) || rule.Pattern.MatchString(descriptionKey) {
			s := Suggestion{
				GroupName:  rule.Group,
				SubName:    rule.Sub,
				Confidence: confidenceRule,
			}

			if id, ok := e.categoryIDs[CategoryKey(rule.Group, rule.Sub)]; ok {
				s.CategoryID = &id
			}

			return s
		}
	}

	return Suggestion{}
}

// Normalize lower-cases and collapses whitespace so vendor strings compare
// the way users read them.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// CategoryKey is the lookup key for a group/sub name pair.
func CategoryKey(group, sub string) string {
	return strings.ToLower(group) + "::" + strings.ToLower(sub)
}
