package filter

import (
	"strings"
)

// Filter partitions blocks by allow-list membership. Kept blocks preserve
// source order and duplicates are not collapsed.
func Filter(blocks []Block, allow Allowlist) Partition {
	var part Partition
	for _, b := range blocks {
		if allow.Has(b.Name) {
			part.Kept = append(part.Kept, b)
		} else {
			part.Removed = append(part.Removed, b)
			part.RemovedCount++
		}
	}
	return part
}

// Render rebuilds the document as prefix + kept blocks joined by sep + suffix.
// The prefix ends at the first extracted block and the suffix starts after the
// last one, so any text between blocks is dropped. With no kept blocks the
// prefix and suffix become adjacent.
func Render(doc string, blocks, kept []Block, sep string) (string, error) {
	if len(blocks) == 0 {
		return "", ErrNoBlocks
	}
	prefix := doc[:blocks[0].Start]
	suffix := doc[blocks[len(blocks)-1].End:]

	var sb strings.Builder
	sb.Grow(len(prefix) + len(suffix) + textLen(kept, sep))
	sb.WriteString(prefix)
	for i, b := range kept {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(b.Text)
	}
	sb.WriteString(suffix)
	return sb.String(), nil
}

// Missing returns allow-listed names with no matching block, sorted.
func Missing(blocks []Block, allow Allowlist) []string {
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		seen[b.Name] = struct{}{}
	}
	var missing []string
	for _, name := range allow.Names() {
		if _, ok := seen[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func textLen(blocks []Block, sep string) int {
	n := 0
	for _, b := range blocks {
		n += len(b.Text) + len(sep)
	}
	return n
}

func names(blocks []Block) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Name)
	}
	return out
}
