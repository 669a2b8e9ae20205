package pemeta

import "math"

// CalculateEntropy returns the Shannon entropy of data in bits per byte.
func CalculateEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0.0
	}
	freq := make([]int, 256)
	for _, b := range data {
		freq[b]++
	}
	entropy := 0.0
	length := float64(len(data))
	for _, count := range freq {
		if count > 0 {
			p := float64(count) / length
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// likelyPacked reports whether the module's sections look compressed or
// encrypted. Packed plugins routinely hide both their version resource
// and their export markers, so the flag marks absent metadata as
// low-confidence rather than definitive.
func likelyPacked(buf []byte, sections []section) bool {
	var (
		highEntropyCount int
		total            int
		sumEntropy       float64
	)
	for _, s := range sections {
		if s.sizeOfRawData == 0 {
			continue
		}
		start := int(s.pointerToRawData)
		end := start + int(s.sizeOfRawData)
		if start < 0 || end > len(buf) || start >= end {
			continue
		}
		entropy := CalculateEntropy(buf[start:end])
		total++
		sumEntropy += entropy
		if entropy > 7.0 {
			highEntropyCount++
		}
	}
	if total == 0 {
		return false
	}
	avgEntropy := sumEntropy / float64(total)
	percentHigh := float64(highEntropyCount) / float64(total)

	return percentHigh > 0.5 || avgEntropy > 6.8
}
