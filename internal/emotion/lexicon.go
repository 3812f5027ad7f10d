package emotion

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pscheid92/moodscope/internal/domain"
)

// Lexicon maps each category to its lowercase trigger keywords.
type Lexicon map[domain.Emotion][]string

// DefaultLexicon returns the built-in keyword table.
func DefaultLexicon() Lexicon {
	return Lexicon{
		domain.EmotionHappy:    {"happy", "joy", "excited", "great", "amazing", "wonderful", "fantastic", "love", "glad", "pleased"},
		domain.EmotionSad:      {"sad", "depressed", "unhappy", "disappointed", "upset", "down", "blue", "miserable"},
		domain.EmotionAngry:    {"angry", "mad", "furious", "hate", "annoyed", "frustrated", "irritated", "outraged"},
		domain.EmotionFear:     {"afraid", "scared", "worried", "anxious", "nervous", "terrified", "frightened", "panic"},
		domain.EmotionSurprise: {"surprised", "shocked", "amazed", "astonished", "stunned", "wow", "incredible"},
		domain.EmotionNeutral:  {"okay", "fine", "normal", "regular", "standard", "typical"},
	}
}

// Clone returns a deep copy.
func (l Lexicon) Clone() Lexicon {
	out := make(Lexicon, len(l))
	for e, keywords := range l {
		out[e] = slices.Clone(keywords)
	}
	return out
}

// Size returns the total number of keywords across all categories.
func (l Lexicon) Size() int {
	n := 0
	for _, keywords := range l {
		n += len(keywords)
	}
	return n
}

// LoadLexicon reads a YAML keyword table from path.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}
	lexicon, err := ParseLexicon(data)
	if err != nil {
		return nil, fmt.Errorf("invalid lexicon %s: %w", path, err)
	}
	return lexicon, nil
}

// ParseLexicon decodes a YAML document of the form
//
//	happy: [happy, joy]
//	sad: [sad]
//
// Keywords are trimmed, lower-cased and de-duplicated per category. Categories
// that are not listed get no keywords.
func ParseLexicon(data []byte) (Lexicon, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode lexicon: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("lexicon is empty")
	}

	lexicon := make(Lexicon, len(domain.Emotions))
	seen := make(map[domain.Emotion]map[string]struct{}, len(domain.Emotions))
	for label, keywords := range raw {
		e, ok := domain.ParseEmotion(strings.ToLower(strings.TrimSpace(label)))
		if !ok {
			return nil, fmt.Errorf("unknown emotion category %q", label)
		}

		if seen[e] == nil {
			seen[e] = make(map[string]struct{}, len(keywords))
		}
		for _, keyword := range keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword == "" {
				return nil, fmt.Errorf("empty keyword in category %q", label)
			}
			if _, dup := seen[e][keyword]; dup {
				continue
			}
			seen[e][keyword] = struct{}{}
			lexicon[e] = append(lexicon[e], keyword)
		}
	}
	return lexicon, nil
}
