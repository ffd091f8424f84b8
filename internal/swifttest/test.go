package swifttest

import "time"

// Test identifies a single XCTest test case.
type Test struct {
	Suite string
	Name  string
}

// FullName returns "Suite.name".
func (t Test) FullName() string {
	return t.Suite + "." + t.Name
}

// Failure is one recorded failure (or skip reason) of a test together with
// the source location that reported it. Location may be empty.
type Failure struct {
	Location string
	Message  string
}

// TestResult is the outcome of a single test. A skipped test is also
// reported as passed and has a zero Duration.
type TestResult struct {
	Test     Test
	Passed   bool
	Skipped  bool
	Errors   []Failure
	Duration time.Duration
}

// Failed reports whether the test neither passed nor was skipped.
func (r TestResult) Failed() bool {
	return !r.Passed
}

// RunOutput is the final state of one "swift test" run.
type RunOutput struct {
	// Success reflects the exit status of "swift test". A run can fail
	// without any failed test, for example when the test process crashes.
	Success bool

	// Results holds one entry per test that produced output, in the order
	// they were first seen.
	Results []TestResult

	// BacktraceLines holds stdout from the first crash marker onwards. It
	// is nil unless the run failed after a crash marker was seen.
	BacktraceLines []string
}

// Crashed reports whether the run failed with a crash.
func (o *RunOutput) Crashed() bool {
	return !o.Success && len(o.BacktraceLines) > 0
}
