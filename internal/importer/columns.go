package importer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	ColumnItemName    = "Item Name"
	ColumnDescription = "Description"
	ColumnCostPrice   = "Cost Price"

	// similarityCutoff is the minimum similarity for a header to be suggested for a required column.
	similarityCutoff = 0.7
)

// RequiredColumns lists the logical columns every import needs, in resolution order.
var RequiredColumns = []string{ColumnItemName, ColumnDescription, ColumnCostPrice}

var ErrColumnNotMapped = errors.New("essential column could not be mapped")

// Chooser resolves columns that have no exact header match.
type Chooser interface {
	// Confirm asks whether suggested should be used for required.
	Confirm(required, suggested string) (bool, error)
	// Choose asks for a header to use for required. An empty answer skips the column.
	Choose(required string, headers []string) (string, error)
}

// Mapping maps a required column to its index in the header row.
type Mapping map[string]int

// ResolveColumns maps each required column to a header: exact match first, then the closest
// header at or above the similarity cutoff (after confirmation), then an explicit choice.
func ResolveColumns(headers []string, chooser Chooser) (Mapping, error) {
	mapping := make(Mapping, len(RequiredColumns))

	for _, required := range RequiredColumns {
		if idx := slices.Index(headers, required); idx >= 0 {
			mapping[required] = idx
			continue
		}

		if suggested, ok := closestHeader(required, headers); ok {
			use, err := chooser.Confirm(required, suggested)
			if err != nil {
				return nil, err
			}
			if use {
				mapping[required] = slices.Index(headers, suggested)
				continue
			}
		}

		chosen, err := chooser.Choose(required, headers)
		if err != nil {
			return nil, err
		}

		idx := slices.Index(headers, strings.TrimSpace(chosen))
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q (available: %s)", ErrColumnNotMapped, required, strings.Join(headers, ", "))
		}
		mapping[required] = idx
	}

	return mapping, nil
}

// closestHeader returns the most similar header to required when it reaches the cutoff.
// Ties go to the header that appears first.
func closestHeader(required string, headers []string) (string, bool) {
	best, bestScore := "", -1.0
	for _, header := range headers {
		if score := similarity(required, header); score > bestScore {
			best, bestScore = header, score
		}
	}

	if bestScore < similarityCutoff {
		return "", false
	}
	return best, true
}

// similarity is the difflib ratio 2*M/T over the case-folded, trimmed strings, where M is the
// number of characters in matching blocks and T the total length of both strings.
func similarity(a, b string) float64 {
	r1 := []rune(strings.ToLower(strings.TrimSpace(a)))
	r2 := []rune(strings.ToLower(strings.TrimSpace(b)))

	total := len(r1) + len(r2)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingCharacters(r1, r2)) / float64(total)
}

// matchingCharacters counts characters in matching blocks: the longest common block,
// then recursively the blocks to its left and to its right.
func matchingCharacters(a, b []rune) int {
	i, j, k := longestMatch(a, b)
	if k == 0 {
		return 0
	}
	return k + matchingCharacters(a[:i], b[:j]) + matchingCharacters(a[i+k:], b[j+k:])
}

// longestMatch returns the start positions and size of the longest common block.
// Ties go to the block that starts first in a, then in b.
func longestMatch(a, b []rune) (int, int, int) {
	bestI, bestJ, bestK := 0, 0, 0
	prev := make([]int, len(b)+1)
	for i := range a {
		curr := make([]int, len(b)+1)
		for j := range b {
			if a[i] != b[j] {
				continue
			}
			curr[j+1] = prev[j] + 1
			if k := curr[j+1]; k > bestK {
				bestI, bestJ, bestK = i-k+1, j-k+1, k
			}
		}
		prev = curr
	}
	return bestI, bestJ, bestK
}
