// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package store

import (
	"math"
	"sort"
)

func sortFloats(v []float64) {
	sort.Float64s(v)
}

// Percentile returns the p-th percentile (p in [0, 100]) of sorted, a nearest-rank computation
// per §4.4: the value at index ceil(p/100 * (n-1)), with no interpolation. sorted must already be
// in ascending order. An empty slice returns 0.0; a single-element slice returns that value.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	idx := int(math.Ceil(p / 100 * float64(n-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
