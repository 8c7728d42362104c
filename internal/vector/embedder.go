// Package vector embeds research summaries and ranks companies by
// cosine similarity.
package vector

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/pkg/gemini"
)

// Embedder turns text into fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// GenAIEmbedder embeds through the Gemini embedding model.
type GenAIEmbedder struct {
	client gemini.Client
}

// NewGenAIEmbedder wraps a Gemini client.
func NewGenAIEmbedder(c gemini.Client) *GenAIEmbedder {
	return &GenAIEmbedder{client: c}
}

func (e *GenAIEmbedder) Name() string { return "gemini" }

func (e *GenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := e.client.Embed(ctx, texts)
	if err != nil {
		return nil, eris.Wrap(err, "vector: embed")
	}
	return out, nil
}

// DefaultHashDimensions is used by NewHashEmbedder for a non-positive size.
const DefaultHashDimensions = 256

// HashEmbedder is an offline feature-hashing embedder. Texts that share
// words land close together; it needs no network access.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder returns a HashEmbedder producing dims-length vectors.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Name() string { return "hash" }

func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(w)) //nolint:errcheck
		sum := h.Sum32()
		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		vec[int(sum>>1)%e.dims] += sign
	}
	normalize(vec)
	return vec
}

func normalize(v []float32) {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	if sq == 0 {
		return
	}
	n := float32(math.Sqrt(sq))
	for i := range v {
		v[i] /= n
	}
}

// Cosine returns the cosine similarity of a and b, or 0 when the lengths
// differ or either vector is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
