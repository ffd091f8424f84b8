package swifttest

import (
	"fmt"
	"math"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
)

// Grammar selects the XCTest output dialect to interpret.
type Grammar int

const (
	// LinuxGrammar is the output of swift-corelibs-xctest, used on every
	// platform but Darwin. Tests are printed as "Suite.name".
	LinuxGrammar Grammar = iota + 1

	// MacGrammar is the output of Apple's XCTest. Tests are printed as
	// "-[Module.Suite name]".
	MacGrammar
)

// DefaultGrammar returns the grammar "swift test" uses on this platform.
func DefaultGrammar() Grammar {
	if runtime.GOOS == "darwin" {
		return MacGrammar
	}
	return LinuxGrammar
}

// ParseGrammar converts a grammar name to a Grammar. "auto" and the empty
// string select DefaultGrammar.
func ParseGrammar(name string) (Grammar, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return DefaultGrammar(), nil
	case "linux":
		return LinuxGrammar, nil
	case "mac", "macos", "darwin":
		return MacGrammar, nil
	}
	return 0, fmt.Errorf("unknown grammar %q (want auto, linux or mac)", name)
}

func (g Grammar) String() string {
	switch g {
	case LinuxGrammar:
		return "linux"
	case MacGrammar:
		return "mac"
	}
	return "Grammar(" + strconv.Itoa(int(g)) + ")"
}

// patterns are the run-mode line patterns of one grammar. Each uses the
// named groups suite, name, status, time, location and reason.
type patterns struct {
	completion *regexp.Regexp
	failure    *regexp.Regexp
	skip       *regexp.Regexp
}

var grammars = map[Grammar]patterns{
	LinuxGrammar: {
		completion: regexp.MustCompile(`Test Case '(?P<suite>[^ ]*)\.(?P<name>.*)' (?P<status>passed|failed|skipped) \(?(?P<time>\d*\.?\d+)?`),
		failure:    regexp.MustCompile(`^(?P<location>.*:[0-9]+): error: (?P<suite>[^ ]*)\.(?P<name>\S+) : (?P<reason>.*)$`),
		skip:       regexp.MustCompile(`^(?P<location>.*:[0-9]+): (?P<suite>[^ ]*)\.(?P<name>\S+) : Test skipped(?: - )?(?P<reason>.*)?$`),
	},
	MacGrammar: {
		completion: regexp.MustCompile(`^Test Case '-\[(?:[^ ]*)\.(?P<suite>[^ ]*) (?P<name>.*)\]' (?P<status>passed|failed|skipped) \(?(?P<time>\d*\.?\d+)?`),
		failure:    regexp.MustCompile(`^(?P<location>.*[0-9]+): error: -\[(?:\w+)\.(?P<suite>\w+) (?P<name>\w+)\] : (?P<reason>.*)$`),
		skip:       regexp.MustCompile(`^(?P<location>.*:[0-9]+): -\[(?:\w+).(?P<suite>[^ ]*) (?P<name>[^\]]+)\] : Test skipped(?: - )?(?P<reason>.*)?$`),
	},
}

// Kind is the kind of a classified Line.
type Kind int

const (
	// Unclassified lines are output peregrine does not interpret.
	Unclassified Kind = iota
	// Completed lines report that a test finished.
	Completed
	// FailureDetail lines report one failed assertion of a test.
	FailureDetail
	// SkipDetail lines report why a test was skipped.
	SkipDetail
)

func (k Kind) String() string {
	switch k {
	case Unclassified:
		return "unclassified"
	case Completed:
		return "completed"
	case FailureDetail:
		return "failure detail"
	case SkipDetail:
		return "skip detail"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Status is the outcome reported by a completion line.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Line is a classified line of "swift test" output. Which fields are set
// depends on Kind: Status and Duration for Completed lines, Location and
// Reason for FailureDetail and SkipDetail lines.
type Line struct {
	Kind     Kind
	Test     Test
	Status   Status
	Duration time.Duration
	Location string
	Reason   string
}

// Classifier classifies single lines of "swift test" output. It is
// stateless and safe for concurrent use.
type Classifier struct {
	grammar  Grammar
	patterns patterns
}

// NewClassifier returns a Classifier for the provided grammar.
func NewClassifier(g Grammar) (*Classifier, error) {
	p, ok := grammars[g]
	if !ok {
		return nil, fmt.Errorf("swifttest: invalid grammar: %v", g)
	}
	return &Classifier{grammar: g, patterns: p}, nil
}

// Grammar returns the grammar used by the Classifier.
func (c *Classifier) Grammar() Grammar {
	return c.grammar
}

// Classify classifies one line of output (without the trailing newline).
//
// Lines that match none of the known forms are returned as Unclassified
// with a nil error. A completion line without a parsable duration is an
// *UnexpectedLineFormatError.
func (c *Classifier) Classify(raw string) (Line, error) {
	line := normalize(raw)

	if m := c.patterns.completion.FindStringSubmatch(line); m != nil {
		g := groups(c.patterns.completion, m)
		secs := g["time"]
		if secs == "" {
			return Line{}, &UnexpectedLineFormatError{Line: raw, Detail: "could not parse time"}
		}
		d, err := parseSeconds(secs)
		if err != nil {
			return Line{}, &UnexpectedLineFormatError{Line: raw, Detail: err.Error()}
		}
		return Line{
			Kind:     Completed,
			Test:     Test{Suite: g["suite"], Name: g["name"]},
			Status:   Status(g["status"]),
			Duration: d,
		}, nil
	}

	if m := c.patterns.failure.FindStringSubmatch(line); m != nil {
		g := groups(c.patterns.failure, m)
		return Line{
			Kind:     FailureDetail,
			Test:     Test{Suite: g["suite"], Name: g["name"]},
			Location: g["location"],
			Reason:   strings.Trim(g["reason"], "- "),
		}, nil
	}

	if m := c.patterns.skip.FindStringSubmatch(line); m != nil {
		g := groups(c.patterns.skip, m)
		return Line{
			Kind:     SkipDetail,
			Test:     Test{Suite: g["suite"], Name: g["name"]},
			Location: g["location"],
			Reason:   g["reason"],
		}, nil
	}

	return Line{Kind: Unclassified}, nil
}

// normalize removes terminal escape sequences and a trailing carriage
// return.
func normalize(line string) string {
	return stripansi.Strip(strings.TrimRight(line, "\r"))
}

func groups(re *regexp.Regexp, match []string) map[string]string {
	g := make(map[string]string, len(match))
	for i, name := range re.SubexpNames() {
		if name != "" {
			g[name] = match[i]
		}
	}
	return g
}

func parseSeconds(s string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse time %q: %w", s, err)
	}
	if secs < 0 || math.IsInf(secs, 0) {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return time.Duration(math.Round(secs * float64(time.Second))), nil
}

// IsBuildErrorMarker reports whether the line is a compiler error tied to
// a Swift source file.
func IsBuildErrorMarker(line string) bool {
	line = normalize(line)
	return strings.Contains(line, "error:") && strings.Contains(line, ".swift")
}

var crashMarkers = []string{
	"Fatal error:",
	"Precondition failed:",
	"Assertion failed:",
}

// IsCrashMarker reports whether the line announces that the test process
// is about to crash.
func IsCrashMarker(line string) bool {
	line = normalize(line)
	for _, marker := range crashMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// catalogRegexp matches the lines of "swift test list": "Module.Suite/name".
var catalogRegexp = regexp.MustCompile(`^(?:[\w.]+\.)?(?P<suite>[A-Za-z_]\w*)/(?P<name>[A-Za-z_]\S*)$`)

// ParseCatalogLine parses a line of "swift test list" output. The second
// return value is false for lines that do not name a test, such as build
// progress.
func ParseCatalogLine(line string) (Test, bool) {
	m := catalogRegexp.FindStringSubmatch(strings.TrimSpace(normalize(line)))
	if m == nil {
		return Test{}, false
	}
	g := groups(catalogRegexp, m)
	return Test{Suite: g["suite"], Name: g["name"]}, true
}

// lineCollector captures every line from the first marker line onwards.
type lineCollector struct {
	isMarker   func(line string) bool
	collecting bool
	lines      []string
}

// Offer passes a line to the collector and reports whether it was
// captured.
func (c *lineCollector) Offer(line string) bool {
	if !c.collecting && c.isMarker(line) {
		c.collecting = true
	}
	if c.collecting {
		c.lines = append(c.lines, line)
	}
	return c.collecting
}

// Lines returns the captured lines, or nil if no marker was seen.
func (c *lineCollector) Lines() []string {
	return c.lines
}
