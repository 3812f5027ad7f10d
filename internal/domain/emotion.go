package domain

import (
	"cmp"
	"slices"
)

// Emotion is one of the fixed emotion categories.
type Emotion string

const (
	EmotionHappy    Emotion = "happy"
	EmotionSad      Emotion = "sad"
	EmotionAngry    Emotion = "angry"
	EmotionFear     Emotion = "fear"
	EmotionSurprise Emotion = "surprise"
	EmotionNeutral  Emotion = "neutral"
)

// Emotions lists every category in declared order. Ties on the maximum score
// resolve to whichever category appears first here.
var Emotions = []Emotion{
	EmotionHappy,
	EmotionSad,
	EmotionAngry,
	EmotionFear,
	EmotionSurprise,
	EmotionNeutral,
}

var emotionEmoji = map[Emotion]string{
	EmotionHappy:    "😊",
	EmotionSad:      "😢",
	EmotionAngry:    "😠",
	EmotionFear:     "😨",
	EmotionSurprise: "😲",
	EmotionNeutral:  "😐",
}

// ParseEmotion converts a label to an Emotion. The second return value is false
// for labels outside the fixed category set.
func ParseEmotion(s string) (Emotion, bool) {
	e := Emotion(s)
	if slices.Contains(Emotions, e) {
		return e, true
	}
	return "", false
}

func (e Emotion) String() string { return string(e) }

// Emoji returns the display glyph for the category.
func (e Emotion) Emoji() string {
	if glyph, ok := emotionEmoji[e]; ok {
		return glyph
	}
	return "❔"
}

// Scores maps every emotion category to its normalized score.
type Scores map[Emotion]float64

// EmotionScore pairs a category with its score.
type EmotionScore struct {
	Emotion Emotion `json:"emotion"`
	Score   float64 `json:"score"`
}

// EmotionResult is the output of a single scoring call.
type EmotionResult struct {
	PrimaryEmotion Emotion `json:"primaryEmotion"`
	Confidence     float64 `json:"confidence"`
	Emotions       Scores  `json:"emotions"`
}

// Secondary returns the non-primary categories sorted by descending score.
// Equal scores keep declared order.
func (r EmotionResult) Secondary() []EmotionScore {
	return r.Emotions.ranked(r.PrimaryEmotion)
}

// Ranked returns every category sorted by descending score.
func (s Scores) Ranked() []EmotionScore {
	return s.ranked("")
}

func (s Scores) ranked(skip Emotion) []EmotionScore {
	out := make([]EmotionScore, 0, len(Emotions))
	for _, e := range Emotions {
		if e == skip {
			continue
		}
		out = append(out, EmotionScore{Emotion: e, Score: s[e]})
	}
	slices.SortStableFunc(out, func(a, b EmotionScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// EmotionScorer classifies free text into an EmotionResult.
type EmotionScorer interface {
	Score(text string) EmotionResult
}
