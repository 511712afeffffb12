// Package matcher maps a free-text shopper query onto a reply and a subset of
// the catalog. Rules are tried in a fixed order and the first that fires wins.
package matcher

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/shopspring/decimal"
)

type Intent string

const (
	IntentWedding  Intent = "wedding"
	IntentBudget   Intent = "budget"
	IntentSaree    Intent = "saree"
	IntentJewelry  Intent = "jewelry"
	IntentSpice    Intent = "spice"
	IntentCultural Intent = "cultural"
	IntentGift     Intent = "gift"
	IntentSearch   Intent = "search"
	IntentDefault  Intent = "default"
)

const (
	budgetLimit  = 6
	giftLimit    = 4
	searchLimit  = 6
	defaultLimit = 4
	minTokenLen  = 3
)

// Result is the matcher's answer to one query.
type Result struct {
	Response string              `json:"response"`
	Products []models.Product    `json:"products"`
	Type     models.ResponseType `json:"type"`
	Intent   Intent              `json:"intent"`
	Language models.Language     `json:"language"` // may differ from the request when Tamil was detected
}

// Rand is the randomness the cultural and default rules draw from.
// *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Matcher runs the rule cascade. It is safe for concurrent use.
type Matcher struct {
	mu  sync.Mutex
	rnd Rand
}

// New returns a Matcher drawing from rnd, or from a time-seeded source when rnd is nil.
func New(rnd Rand) *Matcher {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Matcher{rnd: rnd}
}

var tamilTriggers = []string{"திருமண", "புடவை", "நகை", "மசாலா"}

// query is the per-call state shared by the rules.
type query struct {
	raw     string
	lower   string
	catalog []models.Product
	phrases phrasebook
	budget  decimal.Decimal
}

type rule struct {
	intent Intent
	// fire reports whether the rule applies; answer may still decline by returning false.
	fire   func(q *query) bool
	answer func(m *Matcher, q *query) (Result, bool)
}

// rules is the priority order. Earlier entries shadow later ones, so a
// query naming both a wedding and a budget is answered by the wedding rule.
var rules = []rule{
	{IntentWedding, containsAny("wedding", "bridal", "marriage", "திருமண", "கல்யாண"), answerWedding},
	{IntentBudget, parseBudget, answerBudget},
	{IntentSaree, containsAny("saree", "புடவை"), answerCategory("saree", func(p phrasebook) string { return p.saree })},
	{IntentJewelry, containsAny("jewelry", "jewellery", "நகை"), answerCategory("jewelry", func(p phrasebook) string { return p.jewelry })},
	{IntentSpice, containsAny("spice", "masala", "cooking", "மசாலா", "சமையல்"), answerCategory("spice", func(p phrasebook) string { return p.spice })},
	{IntentCultural, containsAny("learn", "about", "culture", "story", "history", "கலாச்சார", "கதை", "வரலாறு"), answerCultural},
	{IntentGift, containsAny("gift", "present", "பரிசு"), answerGift},
	{IntentSearch, func(*query) bool { return true }, answerSearch},
}

// Match answers input against catalog. It never fails: unmatched queries and
// empty catalogs produce the documented fallback replies.
func (m *Matcher) Match(input string, catalog []models.Product, lang models.Language) Result {
	lang = DetectLanguage(input, lang)
	q := &query{
		raw:     input,
		lower:   strings.ToLower(input),
		catalog: catalog,
		phrases: phrasesFor(lang),
	}

	res, ok := Result{}, false
	for _, r := range rules {
		if !r.fire(q) {
			continue
		}
		if res, ok = r.answer(m, q); ok {
			res.Intent = r.intent
			break
		}
	}
	if !ok {
		res = m.answerDefault(q)
		res.Intent = IntentDefault
	}

	res.Language = lang
	if len(res.Products) == 0 {
		res.Response = q.phrases.noProducts
		res.Products = []models.Product{}
		res.Type = models.ResponseText
	}
	return res
}

// DetectLanguage switches to Tamil when input contains a Tamil trigger word.
func DetectLanguage(input string, current models.Language) models.Language {
	for _, t := range tamilTriggers {
		if strings.Contains(input, t) {
			return models.LanguageTamil
		}
	}
	return current
}

func containsAny(words ...string) func(q *query) bool {
	return func(q *query) bool {
		for _, w := range words {
			if strings.Contains(q.lower, w) {
				return true
			}
		}
		return false
	}
}

func products(text string, list []models.Product) (Result, bool) {
	return Result{Response: text, Products: list, Type: models.ResponseProducts}, true
}

func answerWedding(_ *Matcher, q *query) (Result, bool) {
	return products(q.phrases.wedding, filter(q.catalog, func(p models.Product) bool {
		return p.HasOccasion("wedding") || p.HasTag("bridal")
	}))
}

var (
	thousandsSep = regexp.MustCompile(`(\d),(\d)`)
	budgetRe     = regexp.MustCompile(`under (\d+)|below (\d+)|less than (\d+)|(\d+) rupees|₹(\d+)|(\d+) ரூபாய்|\$(\d+)|(\d+) dollars?`)
)

// parseBudget records the first amount the budget expression captured.
func parseBudget(q *query) bool {
	text := q.lower
	for thousandsSep.MatchString(text) {
		text = thousandsSep.ReplaceAllString(text, "$1$2")
	}
	m := budgetRe.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		b, err := decimal.NewFromString(g)
		if err != nil {
			return false
		}
		q.budget = b
		return true
	}
	return false
}

func answerBudget(_ *Matcher, q *query) (Result, bool) {
	list := filter(q.catalog, func(p models.Product) bool { return p.Price.LessThanOrEqual(q.budget) })
	return products(q.phrases.budget(q.budget.String()), limit(list, budgetLimit))
}

// answerCategory matches keyword against category, name and tags.
func answerCategory(keyword string, text func(phrasebook) string) func(*Matcher, *query) (Result, bool) {
	return func(_ *Matcher, q *query) (Result, bool) {
		list := filter(q.catalog, func(p models.Product) bool {
			return strings.Contains(strings.ToLower(p.Category), keyword) ||
				strings.Contains(strings.ToLower(p.Name), keyword) ||
				anyContains(p.Tags, keyword)
		})
		return products(text(q.phrases), list)
	}
}

// answerCultural declines on an empty catalog so later rules get a chance.
func answerCultural(m *Matcher, q *query) (Result, bool) {
	if len(q.catalog) == 0 {
		return Result{}, false
	}
	p := q.catalog[m.intn(len(q.catalog))]
	return Result{
		Response: q.phrases.cultural(p.Name, p.CulturalSignificance),
		Products: []models.Product{p},
		Type:     models.ResponseCultural,
	}, true
}

func answerGift(_ *Matcher, q *query) (Result, bool) {
	list := filter(q.catalog, func(p models.Product) bool {
		return p.HasOccasion("gift") || p.HasTag("gift")
	})
	return products(q.phrases.gift, limit(list, giftLimit))
}

// answerSearch looks for any longer word of the query in the product's
// searchable text, keeping first-seen order and dropping duplicates.
func answerSearch(_ *Matcher, q *query) (Result, bool) {
	seen := make(map[string]bool)
	var found []models.Product
	for _, term := range strings.Fields(q.lower) {
		if utf8.RuneCountInString(term) < minTokenLen {
			continue
		}
		for _, p := range q.catalog {
			if seen[p.ID] || !searchable(p, term) {
				continue
			}
			seen[p.ID] = true
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return Result{}, false
	}
	found = limit(found, searchLimit)
	return products(q.phrases.found(len(found)), found)
}

func searchable(p models.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Origin), term) ||
		anyContains(p.Tags, term) ||
		anyContains(p.Materials, term)
}

func (m *Matcher) answerDefault(q *query) Result {
	if len(q.catalog) == 0 {
		return Result{}
	}
	shuffled := append([]models.Product(nil), q.catalog...)
	m.mu.Lock()
	m.rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	m.mu.Unlock()
	res, _ := products(q.phrases.newProducts(len(q.catalog)), limit(shuffled, defaultLimit))
	return res
}

func (m *Matcher) intn(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rnd.Intn(n)
}

func filter(list []models.Product, keep func(models.Product) bool) []models.Product {
	var out []models.Product
	for _, p := range list {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func limit(list []models.Product, n int) []models.Product {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func anyContains(set []string, term string) bool {
	for _, s := range set {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}
