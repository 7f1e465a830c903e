package splitfix

import (
	"slices"
	"strings"

	"cocoprep/internal/dataset"
)

// Strategy resolves one split line against a mapping.
type Strategy interface {
	Name() string
	Match(m *Mapping, line string) (string, bool)
}

// keyStrategy looks up a single key derived from the line.
type keyStrategy struct {
	name string
	key  func(line string) string
}

func (s keyStrategy) Name() string { return s.name }

func (s keyStrategy) Match(m *Mapping, line string) (string, bool) {
	return m.Lookup(s.key(line))
}

// scanStemStrategy compares the stem of every key, in insertion order, with
// the line's stem and its lower-case form.
type scanStemStrategy struct{}

func (scanStemStrategy) Name() string { return "scan-stem" }

func (scanStemStrategy) Match(m *Mapping, line string) (string, bool) {
	lineStem := dataset.Stem(line)
	lineStemLower := lower(lineStem)
	var (
		found string
		ok    bool
	)
	m.Each(func(key, stem string) bool {
		keyStem := key
		if strings.Contains(key, ".") {
			keyStem = dataset.Stem(key)
		}
		if keyStem == lineStem || keyStem == lineStemLower {
			found, ok = stem, true
			return false
		}
		return true
	})
	return found, ok
}

var (
	ExactStrategy     Strategy = keyStrategy{name: "exact", key: func(line string) string { return line }}
	StemStrategy      Strategy = keyStrategy{name: "stem", key: dataset.Stem}
	LowerStrategy     Strategy = keyStrategy{name: "lower", key: lower}
	LowerStemStrategy Strategy = keyStrategy{name: "lower-stem", key: func(line string) string { return lower(dataset.Stem(line)) }}
	ScanStemStrategy  Strategy = scanStemStrategy{}
)

// DefaultStrategies returns the matcher order used by the fixer.
func DefaultStrategies() []Strategy {
	return []Strategy{ExactStrategy, StemStrategy, LowerStrategy, LowerStemStrategy, ScanStemStrategy}
}

// Match is one resolved line.
type Match struct {
	Line     string
	Stem     string
	Strategy string
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	// Matches lists resolved lines in input order.
	Matches []Match
	// Unresolved lists lines no strategy matched, in input order.
	Unresolved []string
}

// Stems returns the distinct resolved stems in ascending order.
func (r Resolution) Stems() []string {
	stems := make([]string, 0, len(r.Matches))
	for _, match := range r.Matches {
		stems = append(stems, match.Stem)
	}
	slices.Sort(stems)
	return slices.Compact(stems)
}

// CountByStrategy tallies matches per strategy name.
func (r Resolution) CountByStrategy() map[string]int {
	counts := make(map[string]int)
	for _, match := range r.Matches {
		counts[match.Strategy]++
	}
	return counts
}

// Resolve maps each line through strategies in order.
func Resolve(m *Mapping, strategies []Strategy, lines []string) Resolution {
	var res Resolution
	for _, line := range lines {
		matched := false
		for _, strategy := range strategies {
			if stem, ok := strategy.Match(m, line); ok {
				res.Matches = append(res.Matches, Match{Line: line, Stem: stem, Strategy: strategy.Name()})
				matched = true
				break
			}
		}
		if !matched {
			res.Unresolved = append(res.Unresolved, line)
		}
	}
	return res
}
