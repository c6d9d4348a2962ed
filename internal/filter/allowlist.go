package filter

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Allowlist is the set of tool names that survive filtering
type Allowlist map[string]struct{}

// NewAllowlist builds an allow-list from names, skipping empty entries.
func NewAllowlist(names ...string) Allowlist {
	allow := make(Allowlist, len(names))
	for _, name := range names {
		if name != "" {
			allow[name] = struct{}{}
		}
	}
	return allow
}

// LoadAllowlist reads one name per line. Surrounding whitespace is stripped,
// blank lines are dropped and duplicates collapse.
func LoadAllowlist(path string) (Allowlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: allow-list %s: %v", ErrMissingInput, path, err)
	}
	defer f.Close()

	allow := make(Allowlist)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			allow[name] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read allow-list %s: %w", path, err)
	}

	return allow, nil
}

// Has reports whether name is allow-listed. Matching is exact and case-sensitive.
func (a Allowlist) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Len returns the number of distinct names.
func (a Allowlist) Len() int { return len(a) }

// Names returns the allow-listed names in sorted order.
func (a Allowlist) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
