package quizgen

import "math"

// DefaultSimilarityThreshold is the cosine cutoff used when none is set.
const DefaultSimilarityThreshold = 0.95

// FilterUnique removes near-duplicate questions. vectors[i] is the embedding
// of questions[i]. The first question is always kept; each later question is
// dropped if its cosine similarity to any already-kept question is strictly
// greater than threshold.
//
// Order matters: of a cluster of near-duplicates, the earliest survives.
// A question with no vector is compared as a zero vector and so always kept.
func FilterUnique(questions []Question, vectors [][]float32, threshold float64) []Question {
	if len(questions) == 0 {
		return nil
	}

	kept := make([]Question, 0, len(questions))
	keptVecs := make([][]float32, 0, len(questions))

	for i, q := range questions {
		var v []float32
		if i < len(vectors) {
			v = vectors[i]
		}

		duplicate := false
		for _, kv := range keptVecs {
			if CosineSimilarity(v, kv) > threshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, q)
		keptVecs = append(keptVecs, v)
	}
	return kept
}

// CosineSimilarity returns the cosine of the angle between a and b.
// It is 0 when either vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
