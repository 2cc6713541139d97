package skill

import (
	"regexp"
	"sort"
)

var slashRef = regexp.MustCompile(`(?:^|[^\w/])/([a-zA-Z][\w-]*)`)

// Refs scans a skill body for /name mentions of other known skills and
// returns the matches, deduplicated and sorted. Pure function over
// (body, known): heuristic, presentation-only, and deliberately kept out of
// the hash and sync paths so a false match can never affect correctness.
func Refs(body string, known []string) []string {
	if len(known) == 0 {
		return nil
	}
	knownSet := make(map[string]bool, len(known))
	for _, n := range known {
		knownSet[n] = true
	}

	seen := map[string]bool{}
	var out []string
	for _, m := range slashRef.FindAllStringSubmatch(body, -1) {
		name := m[1]
		if knownSet[name] && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
