package aggregator

import (
	"sort"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// aggregator implements the Aggregator interface.
type aggregator struct {
	config Config

	mu sync.Mutex

	totalCost decimal.Decimal
	todayCost decimal.Decimal

	byProject    map[string]decimal.Decimal
	byModel      map[string]decimal.Decimal
	todayByModel map[string]decimal.Decimal

	days []DayBucket

	tokens      TokenCounts
	todayTokens TokenCounts

	sessions      int
	todaySessions int
}

// New creates a new aggregator.
//
// With a zero Window no record is counted as today's and no days are tracked.
func New(cfg Config) Aggregator {
	a := &aggregator{config: cfg}
	a.reset()
	return a
}

// Fold implements Aggregator.Fold.
func (a *aggregator) Fold(rec Record) bool {
	if !rec.Cost.IsPositive() {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalCost = a.totalCost.Add(rec.Cost)
	addCost(a.byProject, rec.Project, rec.Cost)
	if rec.DisplayName != "" {
		addCost(a.byModel, rec.DisplayName, rec.Cost)
	}

	a.tokens.Add(rec.Usage)
	a.sessions++

	if OnDay(rec.Timestamp, a.config.Window.Today) {
		a.todayCost = a.todayCost.Add(rec.Cost)
		if rec.DisplayName != "" {
			addCost(a.todayByModel, rec.DisplayName, rec.Cost)
		}
		a.todayTokens.Add(rec.Usage)
		a.todaySessions++
	}

	if i := a.config.Window.Match(rec.Timestamp); i >= 0 {
		day := &a.days[i]
		day.Cost = day.Cost.Add(rec.Cost)
		day.Sessions++
		day.Tokens.Add(rec.Usage)
	}

	return true
}

// Result implements Aggregator.Result.
func (a *aggregator) Result() Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	days := make([]DayBucket, len(a.days))
	copy(days, a.days)

	return Result{
		Today:            a.config.Window.Today,
		TotalCost:        a.totalCost,
		TodayCost:        a.todayCost,
		CostByProject:    copyCosts(a.byProject),
		CostByModel:      copyCosts(a.byModel),
		TodayCostByModel: copyCosts(a.todayByModel),
		Days:             days,
		Tokens:           a.tokens,
		TodayTokens:      a.todayTokens,
		Sessions:         a.sessions,
		TodaySessions:    a.todaySessions,
	}
}

// Reset implements Aggregator.Reset.
func (a *aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.reset()
}

func (a *aggregator) reset() {
	a.totalCost = decimal.Zero
	a.todayCost = decimal.Zero
	a.byProject = make(map[string]decimal.Decimal)
	a.byModel = make(map[string]decimal.Decimal)
	a.todayByModel = make(map[string]decimal.Decimal)
	a.tokens = TokenCounts{}
	a.todayTokens = TokenCounts{}
	a.sessions = 0
	a.todaySessions = 0

	a.days = make([]DayBucket, len(a.config.Window.Dates))
	for i, date := range a.config.Window.Dates {
		a.days[i] = DayBucket{Date: date, Cost: decimal.Zero}
	}
}

func addCost(m map[string]decimal.Decimal, key string, cost decimal.Decimal) {
	if current, ok := m[key]; ok {
		m[key] = current.Add(cost)
		return
	}
	m[key] = cost
}

func copyCosts(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Empty reports whether no usage was counted.
func (r Result) Empty() bool {
	return r.Sessions == 0
}

// AverageCost returns the mean cost per counted record, or zero.
func (r Result) AverageCost() decimal.Decimal {
	if r.Sessions == 0 {
		return decimal.Zero
	}
	return r.TotalCost.Div(decimal.NewFromInt(int64(r.Sessions)))
}

// Share returns cost as a percentage of the total cost, or zero.
func (r Result) Share(cost decimal.Decimal) decimal.Decimal {
	if !r.TotalCost.IsPositive() {
		return decimal.Zero
	}
	return cost.Mul(decimal.NewFromInt(100)).Div(r.TotalCost)
}

// ModelsByCost returns the per-model costs, most expensive first.
func (r Result) ModelsByCost() []NamedCost {
	return ranked(r.CostByModel, 0)
}

// TopProjects returns the n most expensive projects. n <= 0 returns all.
func (r Result) TopProjects(n int) []NamedCost {
	return ranked(r.CostByProject, n)
}

// ranked orders m by descending cost, breaking ties by name.
func ranked(m map[string]decimal.Decimal, n int) []NamedCost {
	names := lo.Keys(m)
	sort.Slice(names, func(i, j int) bool {
		ci, cj := m[names[i]], m[names[j]]
		if !ci.Equal(cj) {
			return ci.GreaterThan(cj)
		}
		return names[i] < names[j]
	})

	if n > 0 && n < len(names) {
		names = names[:n]
	}

	out := make([]NamedCost, len(names))
	for i, name := range names {
		out[i] = NamedCost{Name: name, Cost: m[name]}
	}
	return out
}
