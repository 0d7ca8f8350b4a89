package gitlog

import (
	"strconv"
	"strings"

	"quantify/internal/projecttype"
)

// parseNumstat aggregates numstat log output into Stats.
//
// The output is a sequence of commit blocks, each opened by the marker line
// and followed by zero or more "<added>\t<removed>\t<path>" lines. Binary
// files carry "-" for both counts; they count as a changed file with no
// line delta. Malformed lines are skipped, never aborting the block.
func parseNumstat(output string, cls *projecttype.Classifier) Stats {
	var total Stats

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		if line == commitMarker {
			total.Commits++
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) != 3 {
			continue
		}
		addedStr, removedStr, path := parts[0], parts[1], parts[2]

		// Binary file: no line delta.
		if addedStr == "-" || removedStr == "-" {
			continue
		}

		if cls != nil && !cls.Classify(path).Included {
			continue
		}

		added, err := strconv.Atoi(addedStr)
		if err != nil {
			continue
		}
		removed, err := strconv.Atoi(removedStr)
		if err != nil {
			continue
		}

		total.Added += added
		total.Removed += removed
	}

	return total
}
