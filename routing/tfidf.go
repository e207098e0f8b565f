package routing

import (
	"math"
	"sort"
)

// maxVocabulary caps the vocabulary at the most frequent corpus terms.
const maxVocabulary = 5000

// sparseVec is a TF-IDF weighted document vector keyed by vocabulary index.
type sparseVec map[int]float64

// vectorizer is a TF-IDF model using the smoothed-idf formulation:
// idf = ln((1+N)/(1+df)) + 1, raw term counts, L2-normalized vectors.
// It is fitted once over the domain profiles; requests are transformed
// against the frozen vocabulary and never trigger a refit.
type vectorizer struct {
	vocabulary map[string]int // term -> column index
	idf        []float64      // column index -> inverse document frequency
}

// fitVectorizer learns the vocabulary and idf weights from docs.
func fitVectorizer(docs []string) *vectorizer {
	df := make(map[string]int)
	total := make(map[string]int)

	for _, doc := range docs {
		for term, count := range termCounts(doc) {
			df[term]++
			total[term] += count
		}
	}

	terms := make([]string, 0, len(total))
	for term := range total {
		terms = append(terms, term)
	}
	// Most frequent corpus terms first; ties resolve alphabetically so
	// the vocabulary is deterministic across retrains.
	sort.Slice(terms, func(i, j int) bool {
		if total[terms[i]] != total[terms[j]] {
			return total[terms[i]] > total[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxVocabulary {
		terms = terms[:maxVocabulary]
	}

	v := &vectorizer{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
	}
	n := float64(len(docs))
	for idx, term := range terms {
		v.vocabulary[term] = idx
		v.idf[idx] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v
}

// transform maps text onto the fitted vocabulary, returning an
// L2-normalized vector. Terms outside the vocabulary are ignored.
func (v *vectorizer) transform(text string) sparseVec {
	vec := make(sparseVec)
	for term, count := range termCounts(text) {
		if idx, ok := v.vocabulary[term]; ok {
			vec[idx] = float64(count) * v.idf[idx]
		}
	}
	return vec.normalize()
}

func (vec sparseVec) normalize() sparseVec {
	var sumSq float64
	for _, w := range vec {
		sumSq += w * w
	}
	if sumSq == 0 {
		return vec
	}
	norm := math.Sqrt(sumSq)
	for i, w := range vec {
		vec[i] = w / norm
	}
	return vec
}

// cosine returns the cosine similarity of two sparse vectors.
// Zero-magnitude vectors yield 0 rather than NaN.
func cosine(a, b sparseVec) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	var dot float64
	for idx, w := range small {
		if w2, ok := large[idx]; ok {
			dot += w * w2
		}
	}

	var normA, normB float64
	for _, w := range a {
		normA += w * w
	}
	for _, w := range b {
		normB += w * w
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
