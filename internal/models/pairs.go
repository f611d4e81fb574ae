package models

// LineRange is a matched row span on one side of a pair
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type PairFileView struct {
	Sha             string      `json:"sha"`
	RepositorySha   string      `json:"repositorySha"`
	RepositoryName  string      `json:"repositoryName"`
	RepositoryOwner string      `json:"repositoryOwner"`
	Filepath        string      `json:"filepath"`
	Category        Category    `json:"category"`
	LineCount       int         `json:"lineCount"`
	CharCount       int         `json:"charCount"`
	Fragments       []LineRange `json:"fragments"`
}

// PairDetail is a single pair with the matched row ranges of both files
type PairDetail struct {
	ID              string       `json:"id"`
	ComparisonSha   string       `json:"comparisonSha"`
	Similarity      float64      `json:"similarity"`
	TotalOverlap    int          `json:"totalOverlap"`
	LongestFragment int          `json:"longestFragment"`
	File1           PairFileView `json:"file1"`
	File2           PairFileView `json:"file2"`
}

type FilePairView struct {
	ID               string       `json:"id"`
	Similarity       float64      `json:"similarity"`
	TotalOverlap     int          `json:"totalOverlap"`
	LongestFragment  int          `json:"longestFragment"`
	NormalizedImpact float64      `json:"normalizedImpact"`
	SideFragments    []LineRange  `json:"sideFragments"`
	File             PairFileView `json:"file"`
}

type FilePairsRepository struct {
	Sha   string         `json:"sha"`
	Name  string         `json:"name"`
	Owner string         `json:"owner"`
	Pairs []FilePairView `json:"pairs"`
}

type FilePairsFile struct {
	Sha               string   `json:"sha"`
	RepositorySha     string   `json:"repositorySha"`
	Filepath          string   `json:"filepath"`
	Category          Category `json:"category"`
	LineCount         int      `json:"lineCount"`
	AverageSimilarity float64  `json:"averageSimilarity"`
}

// FilePairs lists the pairs of one file inside a group, bucketed by opposing repository
type FilePairs struct {
	File         FilePairsFile         `json:"file"`
	Repositories []FilePairsRepository `json:"repositories"`
}
