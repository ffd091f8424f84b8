package swifttest

// Aggregator merges classified lines into one TestResult per Test.
//
// Failure details for a test arrive before its completion line, and a test
// may have any number of them, so every Apply creates or updates the
// result and never drops recorded errors. An Aggregator belongs to a
// single run and is not safe for concurrent use.
type Aggregator struct {
	results   map[Test]*TestResult
	order     []Test
	completed map[Test]bool
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		results:   make(map[Test]*TestResult),
		completed: make(map[Test]bool),
	}
}

// Apply merges the line into the results. It returns true when the line
// reports that a test finished, and false otherwise.
func (a *Aggregator) Apply(l Line) bool {
	switch l.Kind {
	case Completed:
		res := a.get(l.Test)
		switch l.Status {
		case StatusPassed:
			res.Passed = true
			res.Skipped = false
		case StatusFailed:
			res.Passed = false
			res.Skipped = false
		case StatusSkipped:
			res.Passed = true
			res.Skipped = true
		}
		if !a.completed[l.Test] {
			a.completed[l.Test] = true
			res.Duration = l.Duration
		}
		if res.Skipped {
			res.Duration = 0
		}
		return true

	case FailureDetail:
		res := a.get(l.Test)
		res.Passed = false
		res.Skipped = false
		res.Errors = append(res.Errors, Failure{Location: l.Location, Message: l.Reason})
		return false

	case SkipDetail:
		res := a.get(l.Test)
		res.Passed = true
		res.Skipped = true
		res.Duration = 0
		res.Errors = append(res.Errors, Failure{Location: l.Location, Message: l.Reason})
		return false
	}
	return false
}

// get returns the result for t, creating a provisional failed result with
// no duration if there is none yet.
func (a *Aggregator) get(t Test) *TestResult {
	res, ok := a.results[t]
	if !ok {
		res = &TestResult{Test: t}
		a.results[t] = res
		a.order = append(a.order, t)
	}
	return res
}

// Len returns the number of tests seen so far.
func (a *Aggregator) Len() int {
	return len(a.order)
}

// Results returns a copy of the results in the order the tests were first
// seen.
func (a *Aggregator) Results() []TestResult {
	out := make([]TestResult, 0, len(a.order))
	for _, t := range a.order {
		res := *a.results[t]
		if res.Errors != nil {
			res.Errors = append([]Failure(nil), res.Errors...)
		}
		out = append(out, res)
	}
	return out
}
