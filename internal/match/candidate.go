package match

import "sort"

// DefaultThreshold is the minimum similarity for a name to be suggested.
const DefaultThreshold = 0.6

// Candidate is a known name scored against a wanted one.
type Candidate struct {
	Name  string
	Score float64
}

// CandidateList is sorted by score, best first.
type CandidateList []Candidate

// Rank scores every name against want. Ties keep the order of names.
func Rank(want string, names []string) CandidateList {
	list := make(CandidateList, 0, len(names))
	for _, name := range names {
		list = append(list, Candidate{Name: name, Score: NameSimilarity(want, name)})
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})

	return list
}

// Top returns at most n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if len(c) <= n {
		return c
	}

	return c[:n]
}

// AboveThreshold keeps candidates scoring at least threshold.
func (c CandidateList) AboveThreshold(threshold float64) CandidateList {
	var out CandidateList

	for _, cand := range c {
		if cand.Score >= threshold {
			out = append(out, cand)
		}
	}

	return out
}

// Names returns the candidate names.
func (c CandidateList) Names() []string {
	names := make([]string, len(c))
	for i, cand := range c {
		names[i] = cand.Name
	}

	return names
}

// Suggest returns up to n names similar enough to want.
func Suggest(want string, names []string, n int) []string {
	return Rank(want, names).AboveThreshold(DefaultThreshold).Top(n).Names()
}
