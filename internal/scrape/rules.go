package scrape

import "regexp"

// MainFileRules is the allowlist of dist file names the scraper knows how to
// mine. A name passes when it equals one of Names, starts with a name plus
// ".", or matches one of Patterns.
type MainFileRules struct {
	Names    []string
	Patterns []*regexp.Regexp
}

// DefaultMainFileRules returns the rules for the current embed front ends.
func DefaultMainFileRules() MainFileRules {
	return MainFileRules{
		Names: []string{"app", "app.css"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\d+-[a-f0-9]{8,}\.js$`),
			regexp.MustCompile(`^[a-f0-9]{8,}\.css$`),
		},
	}
}

// Allows reports whether fileName is a known dist file.
func (r MainFileRules) Allows(fileName string) bool {
	for _, n := range r.Names {
		if fileName == n || len(fileName) > len(n) && fileName[:len(n)+1] == n+"." {
			return true
		}
	}
	for _, p := range r.Patterns {
		if p.MatchString(fileName) {
			return true
		}
	}
	return false
}
