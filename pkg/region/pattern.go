package region

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Configuration errors returned while compiling match pairs.
var (
	ErrPairCountMismatch = errors.New("begin and end pattern counts don't match")
	ErrNoCaptures        = errors.New("pattern has no capture group")
	ErrNoTitleGroup      = errors.New("pattern has several capture groups and none named M")
)

// TitleGroupName is the capture group that supplies the title when a
// pattern declares more than one group.
const TitleGroupName = "M"

// PairID identifies a MatchPair by its declared position.
type PairID int

// TitleKind says how a title is extracted from a match.
type TitleKind uint8

const (
	// PositionalGroup takes the pattern's only capture group.
	PositionalGroup TitleKind = iota
	// NamedGroup takes the group named M.
	NamedGroup
)

func (k TitleKind) String() string {
	if k == NamedGroup {
		return "named"
	}
	return "positional"
}

// TitleRule is resolved once per pattern at compile time.
type TitleRule struct {
	Kind  TitleKind
	Group int // submatch index
}

// Extract returns the title from a FindStringSubmatch result.
func (r TitleRule) Extract(submatches []string) string {
	if r.Group < 0 || r.Group >= len(submatches) {
		return ""
	}
	return submatches[r.Group]
}

// Pattern is a compiled whole-line pattern with its title rule.
type Pattern struct {
	expr  string
	re    *regexp.Regexp
	Title TitleRule
}

// CompilePattern anchors expr to the whole line and resolves its title rule.
func CompilePattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile(anchor(expr))
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", expr, err)
	}

	rule := TitleRule{Kind: PositionalGroup, Group: 1}
	switch n := re.NumSubexp(); {
	case n == 0:
		return nil, fmt.Errorf("%w: %q", ErrNoCaptures, expr)
	case n > 1:
		idx := re.SubexpIndex(TitleGroupName)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoTitleGroup, expr)
		}
		rule = TitleRule{Kind: NamedGroup, Group: idx}
	}

	return &Pattern{expr: expr, re: re, Title: rule}, nil
}

// String returns the pattern as configured, without anchors.
func (p *Pattern) String() string { return p.expr }

// Match reports whether line matches and returns the extracted title.
func (p *Pattern) Match(line string) (string, bool) {
	sub := p.re.FindStringSubmatch(line)
	if sub == nil {
		return "", false
	}
	return p.Title.Extract(sub), true
}

func anchor(expr string) string {
	return "^(?:" + expr + ")$"
}

// PairSource is an uncompiled begin/end pair.
type PairSource struct {
	Begin string `yaml:"begin"`
	End   string `yaml:"end"`
}

// ZipPairs pairs begin and end expressions by position.
func ZipPairs(begins, ends []string) ([]PairSource, error) {
	if len(begins) != len(ends) {
		return nil, fmt.Errorf("%w: %d != %d", ErrPairCountMismatch, len(begins), len(ends))
	}
	pairs := make([]PairSource, len(begins))
	for i := range begins {
		pairs[i] = PairSource{Begin: begins[i], End: ends[i]}
	}
	return pairs, nil
}

// MatchPair is an immutable compiled begin/end pair.
type MatchPair struct {
	ID    PairID
	Start *Pattern
	End   *Pattern
}

// Side is the half of a pair that matched.
type Side uint8

const (
	SideStart Side = iota
	SideEnd
)

// Match describes a classified line.
type Match struct {
	Pair  PairID
	Side  Side
	Title string
}

// Matchers is the compiled pattern set shared by all sources.
type Matchers struct {
	pairs []MatchPair
	union *regexp.Regexp // nil when there are no pairs
}

// Compile builds the pattern set. Declared order is match priority.
func Compile(sources []PairSource) (*Matchers, error) {
	m := &Matchers{pairs: make([]MatchPair, 0, len(sources))}
	alternatives := make([]string, 0, 2*len(sources))

	for i, src := range sources {
		start, err := CompilePattern(src.Begin)
		if err != nil {
			return nil, fmt.Errorf("pair %d begin: %w", i, err)
		}
		end, err := CompilePattern(src.End)
		if err != nil {
			return nil, fmt.Errorf("pair %d end: %w", i, err)
		}
		m.pairs = append(m.pairs, MatchPair{ID: PairID(i), Start: start, End: end})
		alternatives = append(alternatives, "(?:"+anchor(src.Begin)+")", "(?:"+anchor(src.End)+")")
	}

	if len(alternatives) > 0 {
		// Go permits repeated group names, so the union always compiles
		// when every member did.
		union, err := regexp.Compile(strings.Join(alternatives, "|"))
		if err != nil {
			return nil, fmt.Errorf("combining patterns: %w", err)
		}
		m.union = union
	}
	return m, nil
}

// Pairs returns the compiled pairs in declared order.
func (m *Matchers) Pairs() []MatchPair { return m.pairs }

// Classify tests line against the pattern set. Start is tested before end
// within a pair, and the first matching pair wins.
func (m *Matchers) Classify(line string) (Match, bool) {
	if m == nil || m.union == nil || !m.union.MatchString(line) {
		return Match{}, false
	}
	for _, pair := range m.pairs {
		if title, ok := pair.Start.Match(line); ok {
			return Match{Pair: pair.ID, Side: SideStart, Title: title}, true
		}
		if title, ok := pair.End.Match(line); ok {
			return Match{Pair: pair.ID, Side: SideEnd, Title: title}, true
		}
	}
	return Match{}, false
}
