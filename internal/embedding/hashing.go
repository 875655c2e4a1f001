package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"
)

// HashingEmbedder is a bag-of-words feature-hashing embedder. It needs no
// model server, which makes it the offline fallback and the test backend.
// Words are folded through a stem table before hashing so that inflected
// Russian forms land in the same bucket.
type HashingEmbedder struct {
	dim      int
	synonyms map[string]string
	prefixes []string // longest first, so folding is deterministic
}

// NewHashingEmbedder creates an embedder with dim buckets. synonyms maps a
// word prefix to a canonical token; nil disables folding.
func NewHashingEmbedder(dim int, synonyms map[string]string) *HashingEmbedder {
	if dim <= 0 {
		dim = 256
	}
	if synonyms == nil {
		synonyms = make(map[string]string)
	}
	prefixes := make([]string, 0, len(synonyms))
	for p := range synonyms {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})
	return &HashingEmbedder{dim: dim, synonyms: synonyms, prefixes: prefixes}
}

// DefaultSynonyms folds the delivery and order vocabulary of the built-in
// reference set onto two shared concepts.
func DefaultSynonyms() map[string]string {
	return map[string]string{
		"достав":    "delivery",
		"привез":    "delivery",
		"приед":     "delivery",
		"курьер":    "delivery",
		"посылк":    "delivery",
		"трек":      "delivery",
		"транспорт": "delivery",
		"пути":      "delivery",
		"отслеж":    "delivery",
		"заказ":     "order",
		"оформ":     "order",
		"покупк":    "order",
		"статус":    "order",
		"состав":    "order",
	}
}

func (h *HashingEmbedder) Name() string { return "hashing" }
func (h *HashingEmbedder) Dim() int     { return h.dim }

func (h *HashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return h.vector(text), nil
}

func (h *HashingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *HashingEmbedder) vector(text string) []float32 {
	vec := make([]float32, h.dim)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		w = h.fold(w)
		if w == "" {
			continue
		}
		hash := fnv.New32a()
		_, _ = hash.Write([]byte(w))
		vec[hash.Sum32()%uint32(h.dim)] += 1.0
	}

	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq > 0 {
		norm := float32(1.0 / math.Sqrt(sumSq))
		for i := range vec {
			vec[i] *= norm
		}
	}
	return vec
}

// fold maps w to its canonical concept. Digits-only tokens are dropped so
// order numbers do not pull texts together.
func (h *HashingEmbedder) fold(w string) string {
	if isDigits(w) {
		return ""
	}
	for _, prefix := range h.prefixes {
		if strings.HasPrefix(w, prefix) {
			return h.synonyms[prefix]
		}
	}
	return w
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
