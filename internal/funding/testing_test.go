package funding

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newState(id, goal, current string) State {
	return State{
		ID:             id,
		FundingGoal:    dec(goal),
		EquityOffered:  dec("10"),
		CurrentFunding: dec(current),
		StartDate:      testNow.Add(-10 * 24 * time.Hour),
		DurationDays:   30,
		Version:        1,
	}
}

// fakeAuthority 内存中的权威存储，按项目串行化入账
type fakeAuthority struct {
	mu          sync.Mutex
	projects    map[string]State
	fail        error
	before      func(Entry)
	submits     int
	fetches     int
	inflight    int
	maxInflight int
}

func newFakeAuthority(states ...State) *fakeAuthority {
	f := &fakeAuthority{projects: make(map[string]State)}
	for _, st := range states {
		f.projects[st.ID] = st
	}
	return f
}

func (f *fakeAuthority) credit(projectID string, amount decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.projects[projectID]
	st.CurrentFunding = st.CurrentFunding.Add(amount)
	st.Version++
	f.projects[projectID] = st
}

func (f *fakeAuthority) Submit(_ context.Context, e Entry, _ Contributor) (State, error) {
	f.mu.Lock()
	f.submits++
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if f.before != nil {
		f.before(e)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return State{}, f.fail
	}
	st, ok := f.projects[e.ProjectID]
	if !ok {
		return State{}, NewNotFoundError(e.ProjectID)
	}
	st.CurrentFunding = st.CurrentFunding.Add(e.Amount)
	st.Version++
	f.projects[e.ProjectID] = st
	return st, nil
}

func (f *fakeAuthority) Fetch(_ context.Context, projectID string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	st, ok := f.projects[projectID]
	if !ok {
		return State{}, NewNotFoundError(projectID)
	}
	return st, nil
}

func (f *fakeAuthority) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}
