// Package channel handles benchmark channel identifiers of the form
// <logN>_<n>_<records> and their friendly tier names.
package channel

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Channel is one benchmark configuration directory.
type Channel struct {
	ID      string // e.g. "13_64_128"
	Path    string
	LogN    int // ring exponent, N = 2^LogN
	N       int // number of records packed per ciphertext row
	Records int // record size window
}

// DefaultLabels maps the measured channel ids to their tier names.
var DefaultLabels = map[string]string{
	"13_64_128":  "mini",
	"14_73_224":  "mid",
	"15_128_256": "rich",
}

// Friendly returns the tier label for id from labels, falling back to the
// id itself so unknown channels still chart.
func Friendly(id string, labels map[string]string) string {
	if labels == nil {
		labels = DefaultLabels
	}
	if l, ok := labels[id]; ok {
		return l
	}
	return id
}

// Parse splits an id into its three integer components.
func Parse(id string) (logN, n, records int, err error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadID, id)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		v, convErr := strconv.Atoi(p)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadID, id)
		}
		nums[i] = v
	}
	return nums[0], nums[1], nums[2], nil
}

// RecordCount extracts just the record count of an id, or 0 when the id
// does not parse. Used where an unknown id should degrade, not fail.
func RecordCount(id string) int {
	_, n, _, err := Parse(id)
	if err != nil {
		return 0
	}
	return n
}

// Discover scans root for channel directories and returns them sorted by
// ring exponent. Entries that do not match the <logN>_<n>_<records> pattern
// are ignored; a root that cannot be read is an error.
func Discover(root string) ([]Channel, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScanRoot, root, err)
	}
	var chans []Channel
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		logN, n, rec, err := Parse(e.Name())
		if err != nil {
			continue
		}
		chans = append(chans, Channel{
			ID:      e.Name(),
			Path:    filepath.Join(root, e.Name()),
			LogN:    logN,
			N:       n,
			Records: rec,
		})
	}
	sort.Slice(chans, func(i, j int) bool { return chans[i].LogN < chans[j].LogN })
	return chans, nil
}

// FindSubdir locates a child directory of path by case-insensitive name,
// returning "" when absent.
func FindSubdir(path, name string) string {
	entries, err := os.ReadDir(path)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() && strings.EqualFold(e.Name(), name) {
			return filepath.Join(path, e.Name())
		}
	}
	return ""
}
