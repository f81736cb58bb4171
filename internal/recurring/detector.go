// Package recurring mines the document record set for periodic vendor
// charges. Detection is a pure read-side analysis: it never mutates
// records and can safely run on stale snapshots.
package recurring

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/expenselens/backend/internal/model"
)

const (
	// minOccurrences is the smallest cluster that counts as recurring.
	minOccurrences = 2
	// Adjacent charges must be a month-ish apart. A 25-38 day window
	// tolerates early/late billing without admitting six-week gaps.
	minGapDays = 25
	maxGapDays = 38
	// dayTolerance is the day-of-month slack when clustering.
	dayTolerance = 1
)

// Candidate is a detected periodic vendor charge. Candidates are derived
// on demand and never persisted.
type Candidate struct {
	Vendor           string         `json:"vendor"`
	AverageAmount    float64        `json:"average_amount"`
	DayOfMonth       int            `json:"day_of_month"`
	OccurrenceCount  int            `json:"occurrence_count"`
	LastDate         time.Time      `json:"last_date"`
	Category         model.Category `json:"category,omitempty"`
	NextExpectedDate time.Time      `json:"next_expected_date"`
	InferredType     string         `json:"inferred_type,omitempty"`
}

// Detector finds monthly charge patterns in a record snapshot.
type Detector struct {
	excludeKeywords []string
	now             func() time.Time
}

// NewDetector creates a detector. Vendors whose normalized name contains
// any exclusion keyword (government fees, one-off payments) are dropped
// no matter how regular their pattern looks.
func NewDetector(excludeKeywords []string) *Detector {
	lowered := make([]string, 0, len(excludeKeywords))
	for _, k := range excludeKeywords {
		lowered = append(lowered, strings.ToLower(k))
	}
	return &Detector{excludeKeywords: lowered, now: time.Now}
}

// Detect returns recurring candidates for the given records, sorted by
// next expected date ascending. Records missing vendor, date, or amount
// are ignored; both finalized and in-review records participate.
func (d *Detector) Detect(records []*model.Document) []Candidate {
	groups := make(map[string][]*model.Document)
	display := make(map[string]string)

	for _, rec := range records {
		if rec.Vendor == nil || rec.Date == nil || rec.Amount == nil {
			continue
		}
		key := normalizeVendorKey(*rec.Vendor)
		if key == "" || d.excluded(key) {
			continue
		}
		groups[key] = append(groups[key], rec)
		display[key] = *rec.Vendor
	}

	var results []Candidate
	for key, group := range groups {
		if len(group) < minOccurrences {
			continue
		}
		cluster := bestDayCluster(group)
		if len(cluster) < minOccurrences {
			continue
		}
		if !consecutiveMonths(cluster) {
			continue
		}

		var total float64
		for _, rec := range cluster {
			total += *rec.Amount
		}
		day := cluster[0].Date.Day()
		last := *cluster[len(cluster)-1].Date

		results = append(results, Candidate{
			Vendor:           display[key],
			AverageAmount:    math.Round(total/float64(len(cluster))*100) / 100,
			DayOfMonth:       day,
			OccurrenceCount:  len(cluster),
			LastDate:         last,
			Category:         bestCategory(cluster),
			NextExpectedDate: nextOccurrence(day, d.now()),
			InferredType:     inferType(display[key], bestCategory(cluster)),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].NextExpectedDate.Equal(results[j].NextExpectedDate) {
			return results[i].Vendor < results[j].Vendor
		}
		return results[i].NextExpectedDate.Before(results[j].NextExpectedDate)
	})

	return results
}

func (d *Detector) excluded(vendorKey string) bool {
	for _, kw := range d.excludeKeywords {
		if strings.Contains(vendorKey, kw) {
			return true
		}
	}
	return false
}

// normalizeVendorKey groups vendor name variants case- and
// whitespace-insensitively.
func normalizeVendorKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// bestDayCluster clusters a vendor's records by day-of-month with ±1 day
// tolerance and returns the largest date-sorted cluster, or nil if no
// cluster has at least two members. Each record joins the first cluster
// whose representative day is within tolerance, else starts a new one.
func bestDayCluster(group []*model.Document) []*model.Document {
	sorted := append([]*model.Document(nil), group...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(*sorted[j].Date) })

	type cluster struct {
		day     int
		members []*model.Document
	}
	var clusters []*cluster

next:
	for _, rec := range sorted {
		day := rec.Date.Day()
		for _, c := range clusters {
			if dayDistance(day, c.day) <= dayTolerance {
				c.members = append(c.members, rec)
				continue next
			}
		}
		clusters = append(clusters, &cluster{day: day, members: []*model.Document{rec}})
	}

	var best *cluster
	for _, c := range clusters {
		if len(c.members) < minOccurrences {
			continue
		}
		if best == nil || len(c.members) > len(best.members) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return best.members
}

// dayDistance compares days of month, treating month ends as adjacent
// (the 1st is one day after the 31st).
func dayDistance(a, b int) int {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if wrapped := 31 - diff; wrapped < diff {
		diff = wrapped
	}
	return diff
}

// consecutiveMonths checks that every adjacent pair in the date-sorted
// cluster is a month-ish apart. One out-of-range gap disqualifies the
// vendor for the whole period; there is no partial-recurrence result.
func consecutiveMonths(cluster []*model.Document) bool {
	for i := 1; i < len(cluster); i++ {
		gap := cluster[i].Date.Sub(*cluster[i-1].Date).Hours() / 24
		if gap < minGapDays || gap > maxGapDays {
			return false
		}
	}
	return true
}

// nextOccurrence returns the next calendar occurrence of dayOfMonth
// strictly after now, clamping to the last day of short months.
func nextOccurrence(dayOfMonth int, now time.Time) time.Time {
	year, month, _ := now.Date()
	candidate := monthDay(year, month, dayOfMonth, now.Location())
	if !candidate.After(now) {
		candidate = monthDay(year, month+1, dayOfMonth, now.Location())
	}
	return candidate
}

// monthDay builds a date clamped so day 31 lands on the actual month end
// instead of rolling over.
func monthDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
}

func bestCategory(cluster []*model.Document) model.Category {
	counts := make(map[model.Category]int)
	for _, rec := range cluster {
		if rec.Category != nil {
			counts[*rec.Category]++
		}
	}
	var best model.Category
	maxCount := 0
	for cat, count := range counts {
		if count > maxCount || (count == maxCount && string(cat) < string(best)) {
			maxCount = count
			best = cat
		}
	}
	return best
}

// typeKeywords classifies a recurring charge for display. The label
// never affects inclusion.
var typeKeywords = []struct {
	label    string
	keywords []string
}{
	{"utility", []string{"dewa", "sewa", "addc", "fewa", "empower", "electric", "water", "cooling", "utility"}},
	{"telecom", []string{"etisalat", "du ", "virgin mobile", "mobile", "internet", "broadband", "telecom"}},
	{"subscription", []string{"netflix", "spotify", "microsoft", "adobe", "github", "zoom", "slack", "subscription", "saas", "hosting"}},
	{"insurance", []string{"insurance", "takaful", "daman", "axa", "sukoon"}},
	{"rent", []string{"rent", "lease", "ejari", "property"}},
}

func inferType(vendor string, category model.Category) string {
	haystack := strings.ToLower(vendor + " " + string(category))
	for _, t := range typeKeywords {
		for _, kw := range t.keywords {
			if strings.Contains(haystack, kw) {
				return t.label
			}
		}
	}
	return ""
}
