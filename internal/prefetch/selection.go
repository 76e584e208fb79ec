package prefetch

import (
	"sort"
	"strings"

	"crate/internal/catalog"
)

// SelectPreferredRelease picks the canonical release for an album: official
// releases when any exist, otherwise the whole list, ordered by release date
// ascending with undated entries last. Ties keep browse order.
func SelectPreferredRelease(releases []catalog.Release) (catalog.Release, bool) {
	if len(releases) == 0 {
		return catalog.Release{}, false
	}

	candidates := make([]catalog.Release, 0, len(releases))
	for _, release := range releases {
		if strings.EqualFold(release.Status, catalog.StatusOfficial) {
			candidates = append(candidates, release)
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, releases...)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].Date, candidates[j].Date
		if di == "" {
			return false
		}
		if dj == "" {
			return true
		}
		return di < dj
	})
	return candidates[0], true
}
