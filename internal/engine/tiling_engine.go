package engine

import (
	"context"
	"fmt"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	DefaultKGramSize  = 12
	DefaultWindowSize = 8
	DefaultMinOverlap = 0.05
)

// TilingEngine is the in-process fingerprint engine: winnowed k-gram fingerprints
// select candidate file pairs, greedy string tiling produces the matched regions.
type TilingEngine struct {
	kgram      int
	window     int
	minOverlap float64
}

// NewTilingEngine creates a tiling engine; non-positive arguments fall back to defaults
func NewTilingEngine(kgram, window int, minOverlap float64) *TilingEngine {
	if kgram <= 0 {
		kgram = DefaultKGramSize
	}
	if window <= 0 {
		window = DefaultWindowSize
	}
	if minOverlap < 0 {
		minOverlap = DefaultMinOverlap
	}
	return &TilingEngine{
		kgram:      kgram,
		window:     window,
		minOverlap: minOverlap,
	}
}

type tokenizedFile struct {
	file   File
	tokens []Token
	texts  []string
}

func (e *TilingEngine) Analyze(ctx context.Context, files []File) ([]Match, error) {
	tokenized := make([]tokenizedFile, len(files))
	fingerprints := make([]Fingerprints, len(files))

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tokens := Tokenize(f.Content)
		tokenized[i] = tokenizedFile{file: f, tokens: tokens, texts: texts(tokens)}
		fingerprints[i] = BuildFingerprints(tokenized[i].texts, e.kgram, e.window)
	}

	gii := BuildGII(fingerprints)
	candidates := CandidatePairs(gii, fingerprints, e.minOverlap, func(i, j int) bool {
		return eligible(files[i], files[j])
	})

	log.Debug().
		Int("files", len(files)).
		Int("sharedHashes", len(gii)).
		Int("candidates", len(candidates)).
		Msg("Fingerprint index built")

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis interrupted: %w", err)
		}

		left, right := tokenized[c.i], tokenized[c.j]
		tiles := greedyStringTiling(left.texts, right.texts, e.kgram)
		if len(tiles) == 0 {
			continue
		}
		matches = append(matches, buildMatch(left, right, tiles))
	}

	return matches, nil
}

// eligible reports whether two files can form a pair: they come from
// different sources and share a category. Unset fields do not constrain.
func eligible(a, b File) bool {
	if a.Source != "" && a.Source == b.Source {
		return false
	}
	if a.Category != "" && b.Category != "" && a.Category != b.Category {
		return false
	}
	return true
}

func buildMatch(left, right tokenizedFile, tiles []Tile) Match {
	matched := 0
	longest := 0
	fragments := make([]models.Fragment, 0, len(tiles))

	for _, t := range tiles {
		matched += t.Length
		if t.Length > longest {
			longest = t.Length
		}

		firstL, lastL := left.tokens[t.StartA], left.tokens[t.StartA+t.Length-1]
		firstR, lastR := right.tokens[t.StartB], right.tokens[t.StartB+t.Length-1]
		fragments = append(fragments, models.Fragment{
			LeftStartRow:  firstL.Row,
			LeftStartCol:  firstL.Col,
			LeftEndRow:    lastL.EndRow,
			LeftEndCol:    lastL.EndCol,
			RightStartRow: firstR.Row,
			RightStartCol: firstR.Col,
			RightEndRow:   lastR.EndRow,
			RightEndCol:   lastR.EndCol,
		})
	}

	return Match{
		LeftID:          left.file.ID,
		RightID:         right.file.ID,
		Similarity:      TokenSimilarity(matched, len(left.tokens), len(right.tokens)),
		Overlap:         matched,
		LongestFragment: longest,
		Fragments:       fragments,
	}
}
