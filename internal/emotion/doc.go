// Package emotion implements the keyword-based emotion scorer.
//
// A Scorer looks up lowercase keyword substrings per category, adds a small random
// jitter to every category and normalizes the result into a distribution. The jitter
// is intentional: repeated calls on the same text produce different confidences.
// Tests pin the random source with WithRandom or WithRand.
package emotion
