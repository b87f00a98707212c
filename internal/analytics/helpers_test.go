package analytics

import "math"

func ptr(v float64) *float64 { return &v }

func nan() float64 { return math.NaN() }

func inf() float64 { return math.Inf(1) }
