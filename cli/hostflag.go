package cli

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/pkgs/ferrors"
)

// parseHostsFlag splits a comma-separated --hosts value, trimming
// whitespace and dropping duplicates, per spec.md §6.
func parseHostsFlag(csv string) []string {
	if csv == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, raw := range strings.Split(csv, ",") {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// selectHosts filters hosts down to the requested names, preserving
// inventory order. An unknown name is a fatal usage error carrying a
// fuzzy "did you mean" suggestion against the resolved host set.
func selectHosts(hosts []*types.Host, requested []string) ([]*types.Host, error) {
	if requested == nil {
		return hosts, nil
	}

	byName := make(map[string]*types.Host, len(hosts))
	names := make([]string, 0, len(hosts))
	for _, h := range hosts {
		byName[h.Name] = h
		names = append(names, h.Name)
	}

	selected := make([]*types.Host, 0, len(requested))
	for _, name := range requested {
		h, ok := byName[name]
		if !ok {
			return nil, unknownHostError(name, names)
		}
		selected = append(selected, h)
	}
	return selected, nil
}

func unknownHostError(name string, candidates []string) error {
	suggestion := suggestHost(name, candidates)
	if suggestion == "" {
		return ferrors.Usage("unknown host %q", name)
	}
	return ferrors.Usage("unknown host %q (did you mean %q?)", name, suggestion)
}

// suggestHost returns the closest known host name to name, or "" when
// no candidate is close enough to be useful.
func suggestHost(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	// No candidate contains name as a subsequence (e.g. a transposition
	// typo): fall back to plain edit distance, within half of name's length.
	best, bestDist := "", -1
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(c))
		if d <= len(name)/2 && (bestDist < 0 || d < bestDist) {
			best, bestDist = c, d
		}
	}
	return best
}
