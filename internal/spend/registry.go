package spend

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/apicoin/apicoin/internal/paging"
)

// Record is the cumulative amount charged to one user.
type Record struct {
	User  string          `json:"user"`
	Spent decimal.Decimal `json:"spent"`
}

// Registry keeps one record per charged user in first-seen order. Records are
// updated in place and never reordered. Not safe for concurrent use.
type Registry struct {
	records []Record
	index   map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Record adds amount to user's cumulative spend, appending a record on first sight.
func (r *Registry) Record(user string, amount decimal.Decimal) {
	if pos, ok := r.index[user]; ok {
		r.records[pos].Spent = r.records[pos].Spent.Add(amount)
		return
	}
	r.index[user] = len(r.records)
	r.records = append(r.records, Record{User: user, Spent: amount})
}

// Spent returns the cumulative spend of user, zero if never charged.
func (r *Registry) Spent(user string) decimal.Decimal {
	if pos, ok := r.index[user]; ok {
		return r.records[pos].Spent
	}
	return decimal.Zero
}

// List returns a page in first-seen order and the number of distinct users.
func (r *Registry) List(offset, limit int) ([]Record, int) {
	return paging.Slice(r.records, offset, limit), len(r.records)
}

// Len reports the number of distinct users.
func (r *Registry) Len() int { return len(r.records) }

// Top returns up to n records ranked by spend, ties kept in first-seen order.
func (r *Registry) Top(n int) []Record {
	if n <= 0 {
		return []Record{}
	}
	ranked := make([]Record, len(r.records))
	copy(ranked, r.records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Spent.GreaterThan(ranked[j].Spent)
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Records returns every record in first-seen order.
func (r *Registry) Records() []Record {
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// FromRecords rebuilds a registry from records in first-seen order.
// Later duplicates of a user are folded into the first.
func FromRecords(records []Record) *Registry {
	r := NewRegistry()
	for _, rec := range records {
		r.Record(rec.User, rec.Spent)
	}
	return r
}
