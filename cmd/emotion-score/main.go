// Command emotion-score scores text offline with the same scorer the server uses.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pscheid92/moodscope/internal/domain"
	"github.com/pscheid92/moodscope/internal/emotion"
)

type options struct {
	seed        uint64
	lexiconPath string
	asJSON      bool
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "emotion-score [text...]",
		Short: "Score text against the emotion lexicon",
		Long: "Scores the given text, or stdin when no arguments are given, and prints the\n" +
			"primary emotion followed by the full normalized score vector.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(stdin, args)
			if err != nil {
				return err
			}

			scorer, err := buildScorer(opts, cmd.Flags().Changed("seed"))
			if err != nil {
				return err
			}

			result := scorer.Score(text)
			if opts.asJSON {
				return writeJSON(stdout, result)
			}
			return writeText(stdout, result)
		},
	}

	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed the jitter for reproducible output")
	cmd.Flags().StringVar(&opts.lexiconPath, "lexicon", "", "YAML keyword lexicon to use instead of the built-in one")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")

	return cmd
}

func inputText(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func buildScorer(opts options, seeded bool) (*emotion.Scorer, error) {
	lexicon := emotion.DefaultLexicon()
	if opts.lexiconPath != "" {
		var err error
		lexicon, err = emotion.LoadLexicon(opts.lexiconPath)
		if err != nil {
			return nil, err
		}
	}

	var scorerOpts []emotion.Option
	if seeded {
		scorerOpts = append(scorerOpts, emotion.WithRand(rand.New(rand.NewPCG(opts.seed, opts.seed))))
	}
	return emotion.NewScorer(lexicon, scorerOpts...), nil
}

func writeJSON(w io.Writer, result domain.EmotionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func writeText(w io.Writer, result domain.EmotionResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (confidence %.4f)\n", result.PrimaryEmotion.Emoji(), result.PrimaryEmotion, result.Confidence)
	for _, s := range result.Emotions.Ranked() {
		fmt.Fprintf(&b, "  %-9s %6.2f%%\n", s.Emotion, s.Score*100)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
