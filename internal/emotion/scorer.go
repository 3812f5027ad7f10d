package emotion

import (
	"math/rand/v2"
	"strings"

	"github.com/pscheid92/moodscope/internal/domain"
)

const (
	// BaseNeutral is neutral's score before keywords and jitter. Being positive
	// keeps the normalization sum away from zero.
	BaseNeutral = 0.1
	// KeywordWeight is added per matched keyword; hits in one category accumulate.
	KeywordWeight = 0.3
	// MaxJitter bounds the per-category random term to [0, MaxJitter).
	MaxJitter = 0.2
)

// Scorer maps text to an emotion distribution. It holds no mutable state and is
// safe for concurrent use as long as its random source is.
type Scorer struct {
	lexicon Lexicon
	random  func() float64
}

type Option func(*Scorer)

// WithRandom replaces the random source. fn must return values in [0, 1).
func WithRandom(fn func() float64) Option {
	return func(s *Scorer) {
		s.random = fn
	}
}

// WithRand draws jitter from r. A *rand.Rand is not safe for concurrent use, so
// a scorer built this way must not be shared across goroutines.
func WithRand(r *rand.Rand) Option {
	return WithRandom(r.Float64)
}

// NewScorer builds a scorer over a private copy of lexicon.
func NewScorer(lexicon Lexicon, opts ...Option) *Scorer {
	s := &Scorer{
		lexicon: lexicon.Clone(),
		random:  rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score classifies text. It never fails; empty text is valid input.
func (s *Scorer) Score(text string) domain.EmotionResult {
	scores := s.RawScores(text)

	var total float64
	for _, e := range domain.Emotions {
		scores[e] += s.random() * MaxJitter
		total += scores[e]
	}

	for _, e := range domain.Emotions {
		scores[e] /= total
	}

	primary := domain.Emotions[0]
	for _, e := range domain.Emotions[1:] {
		if scores[e] > scores[primary] {
			primary = e
		}
	}

	return domain.EmotionResult{
		PrimaryEmotion: primary,
		Confidence:     scores[primary],
		Emotions:       scores,
	}
}

// RawScores returns the keyword scores before jitter and normalization.
func (s *Scorer) RawScores(text string) domain.Scores {
	lowered := strings.ToLower(text)

	scores := make(domain.Scores, len(domain.Emotions))
	for _, e := range domain.Emotions {
		scores[e] = 0
	}
	scores[domain.EmotionNeutral] = BaseNeutral

	for _, e := range domain.Emotions {
		for _, keyword := range s.lexicon[e] {
			if strings.Contains(lowered, keyword) {
				scores[e] += KeywordWeight
			}
		}
	}
	return scores
}
