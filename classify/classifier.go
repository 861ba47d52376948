// Package classify assigns source tier, category and severity to raw signals
// using bilingual keyword tables.
package classify

import (
	"time"

	"compass/logging"
	"compass/types"
)

// Classifier holds one set of keyword tables. It has no mutable state and is
// safe for concurrent use.
type Classifier struct {
	kw Keywords
}

// New builds a classifier from explicit tables.
func New(kw Keywords) *Classifier {
	return &Classifier{kw: kw}
}

// Default builds a classifier from the built-in tables.
func Default() *Classifier {
	return New(DefaultKeywords())
}

// FromFile builds a classifier from a YAML override file. An empty path
// yields the defaults.
func FromFile(path string) (*Classifier, error) {
	if path == "" {
		return Default(), nil
	}
	kw, err := LoadKeywords(path)
	if err != nil {
		return nil, err
	}
	return New(kw), nil
}

// Classify fills source tier, category and severity on one signal.
func (c *Classifier) Classify(sig types.Signal, ref time.Time) types.Signal {
	sig.SourceTier = c.SourceTier(sig)
	sig.Category = c.Category(sig)
	sig.Severity = c.Severity(sig, sig.SourceTier, ref)
	return sig
}

// ClassifyAll classifies every signal and returns a new slice.
func (c *Classifier) ClassifyAll(signals []types.Signal, ref time.Time) []types.Signal {
	out := make([]types.Signal, len(signals))
	counts := make(map[types.Category]int)
	for i, sig := range signals {
		out[i] = c.Classify(sig, ref)
		counts[out[i].Category]++
	}
	logging.Info("classified signals", "count", len(out), "categories", len(counts))
	return out
}
