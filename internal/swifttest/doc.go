// Package swifttest runs "swift test" and interprets its output.
//
// The structured output of "swift test" (--xunit-output) cannot be relied
// on, so this package reads the human-readable XCTest log instead. That
// log has two grammars (one for XCTest on Darwin, one for
// swift-corelibs-xctest everywhere else) and reports a test's assertion
// failures before the line that says the test finished. Interpreting it
// takes three steps:
//
//  1. a Classifier turns each stdout line into a Line (a completion, a
//     failure detail, a skip detail, or nothing of interest),
//  2. an Aggregator merges those Lines into one TestResult per Test, and
//  3. a Runner drives the subprocess, the aggregator and the progress
//     bar, and captures crash backtraces and build diagnostics verbatim.
//
// Here is an example:
//
//	runner, err := swifttest.New("./MyPackage", swifttest.Output(os.Stdout))
//	if err != nil {
//	    return err
//	}
//	tests, err := runner.Enumerate(ctx)
//	if err != nil {
//	    return err
//	}
//	out, err := runner.Execute(ctx, len(tests))
//
// A Runner holds no state between calls: every Execute aggregates into a
// fresh result set that is returned in the RunOutput.
package swifttest
