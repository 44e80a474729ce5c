package utils

import (
	"fmt"
	"math"
)

// ApproxFraction returns num/den closest to x with 0 < den <= maxDen,
// walking the continued fraction expansion of x.
func ApproxFraction(x float64, maxDen int) (num, den int) {
	if maxDen < 1 {
		maxDen = 1
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, 1
	}
	sign := 1
	if x < 0 {
		sign, x = -1, -x
	}

	// convergents h/k
	h0, h1 := 0, 1
	k0, k1 := 1, 0
	f := x
	for {
		a := int(math.Floor(f))
		h2 := a*h1 + h0
		k2 := a*k1 + k0
		if k2 > maxDen {
			// best semiconvergent that still fits
			t := (maxDen - k0) / k1
			hs, ks := t*h1+h0, t*k1+k0
			if ks > 0 && math.Abs(x-float64(hs)/float64(ks)) < math.Abs(x-float64(h1)/float64(k1)) {
				h1, k1 = hs, ks
			}
			break
		}
		h0, h1 = h1, h2
		k0, k1 = k1, k2
		rem := f - float64(a)
		if rem < 1e-9 {
			break
		}
		f = 1 / rem
	}
	return sign * h1, k1
}

// FormatFraction renders x as a mixed number, e.g. 1.5 -> "1 1/2",
// 0.25 -> "1/4", 2 -> "2".
func FormatFraction(x float64, maxDen int) string {
	num, den := ApproxFraction(x, maxDen)
	sign := ""
	if num < 0 {
		sign, num = "-", -num
	}
	whole, rest := num/den, num%den
	switch {
	case rest == 0:
		return fmt.Sprintf("%s%d", sign, whole)
	case whole == 0:
		return fmt.Sprintf("%s%d/%d", sign, rest, den)
	default:
		return fmt.Sprintf("%s%d %d/%d", sign, whole, rest, den)
	}
}
