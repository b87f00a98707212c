// Package synthetic produces deterministic stand-in data for areas that have
// no live transactions yet. Every output is a pure function of its inputs.
package synthetic

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/chrisdamba/foodlens/internal/models"
)

// seedFor hashes the rounded coordinates and category with 32-bit FNV-1a.
func seedFor(lat, lng float64, category string) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%.6f|%.6f|%s", lat, lng, category)
	return h.Sum32()
}

// mulberry32 is a small 32-bit generator with good distribution for its size.
type mulberry32 struct {
	state uint32
}

func newRand(seed uint32) *mulberry32 {
	return &mulberry32{state: seed}
}

// Float64 returns a value in [0, 1).
func (r *mulberry32) Float64() float64 {
	r.state += 0x6D2B79F5
	a := r.state
	t := (a ^ (a >> 15)) * (1 | a)
	t = (t + (t^(t>>7))*(61|t)) ^ t
	return float64(t^(t>>14)) / 4294967296
}

func normalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return models.CategoryFilterAll
	}
	return c
}
