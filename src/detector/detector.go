// Package detector is the default implementation of the pattern-mining
// collaborator: a conservative heuristic that groups ledger history by
// normalized merchant name and infers a cadence from the gaps between
// occurrences. Any replacement plugs in behind services.Detector.
package detector

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"github.com/username/recurro/backend/src/cadence"
	"github.com/username/recurro/backend/src/models"
	"github.com/username/recurro/backend/src/services"
	"github.com/username/recurro/backend/src/utils"
)

const (
	defaultMinOccurrences = 3
	// Merchant keys within this edit distance are treated as one merchant
	// ("NETFLIX.COM 001" vs "NETFLIX COM").
	maxMerchantDistance = 2
)

// Heuristic mines series candidates from raw transaction history.
type Heuristic struct {
	MinOccurrences int
}

func NewHeuristic() *Heuristic {
	return &Heuristic{MinOccurrences: defaultMinOccurrences}
}

type group struct {
	key      string
	txs      []models.LedgerTransaction
	isIncome bool
}

// Detect implements services.Detector.
func (h *Heuristic) Detect(ctx context.Context, userID int64, q services.TransactionQuery, lookbackDays int) (*services.DetectionResult, error) {
	minOcc := h.MinOccurrences
	if minOcc <= 0 {
		minOcc = defaultMinOccurrences
	}
	since := utils.FormatDate(utils.Today().AddDate(0, 0, -lookbackDays))
	txs, err := q.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	var groups []*group
	for _, tx := range txs {
		key := normalizeMerchant(tx.Description)
		if key == "" {
			continue
		}
		isIncome := tx.Type == models.TxTypeIncome
		g := findGroup(groups, key, isIncome)
		if g == nil {
			g = &group{key: key, isIncome: isIncome}
			groups = append(groups, g)
		}
		g.txs = append(g.txs, tx)
	}

	result := &services.DetectionResult{Results: []services.SeriesCandidate{}}
	for _, g := range groups {
		if len(g.txs) < minOcc {
			continue
		}
		if cand, ok := g.candidate(); ok {
			result.Results = append(result.Results, cand)
		}
	}
	return result, nil
}

func findGroup(groups []*group, key string, isIncome bool) *group {
	for _, g := range groups {
		if g.isIncome != isIncome {
			continue
		}
		if g.key == key {
			return g
		}
		if len(key) > 3 && len(g.key) > 3 && levenshtein.ComputeDistance(g.key, key) <= maxMerchantDistance {
			return g
		}
	}
	return nil
}

func (g *group) candidate() (services.SeriesCandidate, bool) {
	dates := make([]string, 0, len(g.txs))
	for _, tx := range g.txs {
		dates = append(dates, tx.Date)
	}
	sort.Strings(dates)

	gaps := make([]int, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		a, errA := utils.ParseDate(dates[i-1])
		b, errB := utils.ParseDate(dates[i])
		if errA != nil || errB != nil {
			return services.SeriesCandidate{}, false
		}
		gap := int(b.Sub(a).Hours() / 24)
		if gap > 0 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return services.SeriesCandidate{}, false
	}
	cad := classifyGap(medianInt(gaps))

	lastSeen := dates[len(dates)-1]
	last, err := utils.ParseDate(lastSeen)
	if err != nil {
		return services.SeriesCandidate{}, false
	}

	amounts := make([]decimal.Decimal, 0, len(g.txs))
	for _, tx := range g.txs {
		amounts = append(amounts, decimal.NewFromFloat(math.Abs(tx.Amount)))
	}
	hint := medianDecimal(amounts).InexactFloat64()

	kind := models.KindBill
	if g.isIncome {
		kind = models.KindPaycheck
	} else if amountsStable(amounts) {
		kind = models.KindSubscription
	}

	cand := services.SeriesCandidate{
		Kind:       kind,
		Name:       titleCase(g.key),
		Merchant:   g.key,
		Cadence:    cad,
		AmountHint: &hint,
		LastSeen:   lastSeen,
		Confidence: confidence(len(g.txs), cad),
	}
	if cad == models.CadenceMonthly || cad == models.CadenceQuarterly || cad == models.CadenceYearly {
		day := mostCommonDay(dates)
		if day > 28 {
			day = 28
		}
		cand.DayOfMonth = &day
	}
	if cad == models.CadenceWeekly || cad == models.CadenceBiweekly {
		wd := int(last.Weekday())
		cand.Weekday = &wd
	}
	if next, ok := cadence.NextOccurrence(last, cad, derefOr(cand.DayOfMonth, 0)); ok {
		nextStr := utils.FormatDate(next)
		cand.NextDue = &nextStr
	}
	return cand, true
}

// classifyGap buckets a median day gap into a cadence. Anything that fits no
// bucket stays unknown and therefore never gets a projected due date.
func classifyGap(days int) models.Cadence {
	switch {
	case days >= 5 && days <= 9:
		return models.CadenceWeekly
	case days >= 12 && days <= 17:
		return models.CadenceBiweekly
	case days >= 26 && days <= 35:
		return models.CadenceMonthly
	case days >= 80 && days <= 100:
		return models.CadenceQuarterly
	case days >= 340 && days <= 395:
		return models.CadenceYearly
	default:
		return models.CadenceUnknown
	}
}

// confidence grows with the number of observations and drops when no
// cadence bucket fit. Explicit user matches are always 1; mined candidates
// never reach it.
func confidence(occurrences int, cad models.Cadence) float64 {
	c := 0.4 + 0.1*float64(occurrences)
	if cad == models.CadenceUnknown {
		c -= 0.3
	}
	return math.Min(math.Max(c, 0.1), 0.95)
}

func amountsStable(amounts []decimal.Decimal) bool {
	if len(amounts) < 2 {
		return false
	}
	med := medianDecimal(amounts)
	if med.IsZero() {
		return false
	}
	tolerance := med.Mul(decimal.NewFromFloat(0.01))
	for _, a := range amounts {
		if a.Sub(med).Abs().GreaterThan(tolerance) {
			return false
		}
	}
	return true
}

// normalizeMerchant lowercases, strips digits and punctuation and collapses
// whitespace so store numbers and reference suffixes do not split a
// merchant into many groups.
func normalizeMerchant(desc string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(desc) {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// mostCommonDay returns the day of month seen most often across the
// occurrence dates, preferring the earlier day on a tie.
func mostCommonDay(dates []string) int {
	counts := map[int]int{}
	for _, d := range dates {
		t, err := utils.ParseDate(d)
		if err != nil {
			continue
		}
		counts[t.Day()]++
	}
	best, bestCount := 1, 0
	for day := 1; day <= 31; day++ {
		if counts[day] > bestCount {
			best, bestCount = day, counts[day]
		}
	}
	return best
}

func medianInt(v []int) int {
	sorted := append([]int(nil), v...)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

func medianDecimal(v []decimal.Decimal) decimal.Decimal {
	sorted := append([]decimal.Decimal(nil), v...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	return sorted[len(sorted)/2]
}

func derefOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}
