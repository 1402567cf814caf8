package cost

import (
	"fmt"
	"sync"
)

// BudgetExceededError is returned by Reserve when admitting a call would push
// cumulative spend past the budget. Fatal to the whole run, not just the
// target that triggered it.
type BudgetExceededError struct {
	Cumulative float64
	Budget     float64
	Estimated  float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf(
		"cost: budget exceeded: $%.4f + $%.4f reserved would exceed limit of $%.2f",
		e.Cumulative, e.Estimated, e.Budget,
	)
}

// Reservation is a held cost estimate. It must be resolved with exactly one
// Commit or Release.
type Reservation struct {
	id       int64
	estimate float64
}

// Ledger is the run-scoped cost counter shared by all workers. Reserve is a
// single check-and-hold under one mutex so two concurrent reservations cannot
// jointly pass a check whose sum exceeds the budget.
type Ledger struct {
	mu sync.Mutex

	budget     float64
	cumulative float64
	reserved   float64
	callCount  int

	inputTokens  int64
	outputTokens int64

	nextID int64
	held   map[int64]float64
}

// NewLedger creates a Ledger with the given budget in USD.
func NewLedger(budget float64) (*Ledger, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("cost: budget must be positive, got %v", budget)
	}
	return &Ledger{
		budget: budget,
		held:   make(map[int64]float64),
	}, nil
}

// Reserve holds estimated against the budget. The hold counts against later
// reservations until committed or released.
func (l *Ledger) Reserve(estimated float64) (*Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cumulative+l.reserved+estimated > l.budget {
		return nil, &BudgetExceededError{
			Cumulative: l.cumulative + l.reserved,
			Budget:     l.budget,
			Estimated:  estimated,
		}
	}

	l.nextID++
	l.reserved += estimated
	l.held[l.nextID] = estimated
	return &Reservation{id: l.nextID, estimate: estimated}, nil
}

// Commit replaces a reservation's estimate with the actual spend of the
// completed call.
func (l *Ledger) Commit(r *Reservation, actual float64, inputTokens, outputTokens int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.held[r.id]; ok {
		l.reserved -= held
		delete(l.held, r.id)
	}
	l.cumulative += actual
	l.callCount++
	l.inputTokens += inputTokens
	l.outputTokens += outputTokens
}

// Release drops a reservation without spending, used when the reserved call
// fails before incurring cost.
func (l *Ledger) Release(r *Reservation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.held[r.id]; ok {
		l.reserved -= held
		delete(l.held, r.id)
	}
}

// Summary is a point-in-time snapshot of ledger totals.
type Summary struct {
	Budget       float64
	Cumulative   float64
	Remaining    float64
	CallCount    int
	InputTokens  int64
	OutputTokens int64
}

// Snapshot returns the ledger totals for reporting.
func (l *Ledger) Snapshot() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	remaining := l.budget - l.cumulative
	if remaining < 0 {
		remaining = 0
	}
	return Summary{
		Budget:       l.budget,
		Cumulative:   l.cumulative,
		Remaining:    remaining,
		CallCount:    l.callCount,
		InputTokens:  l.inputTokens,
		OutputTokens: l.outputTokens,
	}
}
