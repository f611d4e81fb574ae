package models

import (
	"time"
)

// Comparison is the persisted result of analyzing exactly two repositories
type Comparison struct {
	Sha            string    `bson:"sha" json:"sha"`
	RepositoryShas []string  `bson:"repositoryShas" json:"repositoryShas"`
	Similarity     float64   `bson:"similarity" json:"similarity"`
	MaxSimilarity  float64   `bson:"maxSimilarity" json:"maxSimilarity"`
	Risk           string    `bson:"risk" json:"risk"`
	PairCount      int       `bson:"pairCount" json:"pairCount"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// Involves reports whether the repository took part in the comparison
func (c *Comparison) Involves(repositorySha string) bool {
	for _, sha := range c.RepositoryShas {
		if sha == repositorySha {
			return true
		}
	}
	return false
}

// PairSide describes one file of a matched pair
type PairSide struct {
	FileSha       string   `bson:"fileSha" json:"fileSha"`
	RepositorySha string   `bson:"repositorySha" json:"repositorySha"`
	Filepath      string   `bson:"filepath" json:"filepath"`
	CharCount     int      `bson:"charCount" json:"charCount"`
	LineCount     int      `bson:"lineCount" json:"lineCount"`
	Category      Category `bson:"category" json:"category"`
}

func (s PairSide) FileKey() string {
	return FileKey(s.RepositorySha, s.FileSha)
}

// Fragment is one contiguous matched region of a pair
type Fragment struct {
	LeftStartRow  int `bson:"leftStartRow" json:"leftStartRow"`
	LeftEndRow    int `bson:"leftEndRow" json:"leftEndRow"`
	LeftStartCol  int `bson:"leftStartCol" json:"leftStartCol"`
	LeftEndCol    int `bson:"leftEndCol" json:"leftEndCol"`
	RightStartRow int `bson:"rightStartRow" json:"rightStartRow"`
	RightEndRow   int `bson:"rightEndRow" json:"rightEndRow"`
	RightStartCol int `bson:"rightStartCol" json:"rightStartCol"`
	RightEndCol   int `bson:"rightEndCol" json:"rightEndCol"`
}

// Swapped returns the fragment seen from the right file
func (f Fragment) Swapped() Fragment {
	return Fragment{
		LeftStartRow:  f.RightStartRow,
		LeftEndRow:    f.RightEndRow,
		LeftStartCol:  f.RightStartCol,
		LeftEndCol:    f.RightEndCol,
		RightStartRow: f.LeftStartRow,
		RightEndRow:   f.LeftEndRow,
		RightStartCol: f.LeftStartCol,
		RightEndCol:   f.LeftEndCol,
	}
}

// Pair is one matched file-to-file relationship inside a comparison
type Pair struct {
	ID              string     `bson:"id" json:"id"`
	ComparisonSha   string     `bson:"comparisonSha" json:"comparisonSha"`
	Similarity      float64    `bson:"similarity" json:"similarity"`
	TotalOverlap    int        `bson:"totalOverlap" json:"totalOverlap"`
	LongestFragment int        `bson:"longestFragment" json:"longestFragment"`
	Left            PairSide   `bson:"left" json:"left"`
	Right           PairSide   `bson:"right" json:"right"`
	Fragments       []Fragment `bson:"fragments" json:"fragments"`
}

// Touches reports whether the given file is one side of the pair
func (p *Pair) Touches(fileKey string) bool {
	return p.Left.FileKey() == fileKey || p.Right.FileKey() == fileKey
}

// Other returns the side opposite to the given file. ok is false when the
// file is not part of the pair.
func (p *Pair) Other(fileKey string) (PairSide, bool) {
	switch fileKey {
	case p.Left.FileKey():
		return p.Right, true
	case p.Right.FileKey():
		return p.Left, true
	default:
		return PairSide{}, false
	}
}

// Oriented returns a copy of the pair with the given file on the left side.
func (p *Pair) Oriented(fileKey string) Pair {
	out := *p
	if p.Right.FileKey() != fileKey {
		return out
	}
	out.Left, out.Right = p.Right, p.Left
	out.Fragments = make([]Fragment, len(p.Fragments))
	for i, f := range p.Fragments {
		out.Fragments[i] = f.Swapped()
	}
	return out
}
