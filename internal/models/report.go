package models

import (
	"time"
)

// GroupReport is the hierarchical repository → category → file rollup of a group
type GroupReport struct {
	Sha                  string             `json:"sha"`
	Date                 time.Time          `json:"date"`
	NumberOfRepos        int                `json:"numberOfRepos"`
	NumberOfFiles        int                `json:"numberOfFiles"`
	GroupLines           int                `json:"groupLines"`
	ComparisonsCompleted int                `json:"comparisonsCompleted"`
	Repositories         []ReportRepository `json:"repositories"`
}

type ReportRepository struct {
	Sha             string           `json:"sha"`
	Name            string           `json:"name"`
	Owner           string           `json:"owner"`
	RepositoryLines int              `json:"repositoryLines"`
	NumberOfFiles   int              `json:"numberOfFiles"`
	Categories      []CategoryReport `json:"categories"`
}

type CategoryReport struct {
	Category          Category     `json:"category"`
	AverageMatch      float64      `json:"averageMatch"`
	StandardDeviation float64      `json:"standardDeviation"`
	NumberOfFiles     int          `json:"numberOfFiles"`
	CategoryLines     int          `json:"categoryLines"`
	Files             []FileReport `json:"files"`
}

type FileReport struct {
	Sha           string     `json:"sha"`
	RepositorySha string     `json:"repositorySha"`
	Filepath      string     `json:"filepath"`
	Category      Category   `json:"category"`
	LineCount     int        `json:"lineCount"`
	CategoryMatch float64    `json:"categoryMatch"`
	HasMatches    bool       `json:"hasMatches"`
	Top           *FilePair  `json:"top,omitempty"`
	Pairs         []FilePair `json:"pairs"`
}

// FilePair is a pair seen from one of its files: the remaining fields describe the opposing file
type FilePair struct {
	ID               string  `json:"id"`
	Similarity       float64 `json:"similarity"`
	TotalOverlap     int     `json:"totalOverlap"`
	NormalizedImpact float64 `json:"normalizedImpact"`
	LongestFragment  int     `json:"longestFragment"`
	Sha              string  `json:"sha"`
	Filepath         string  `json:"filepath"`
	LineCount        int     `json:"lineCount"`
	RepositorySha    string  `json:"repositorySha"`
	RepositoryName   string  `json:"repositoryName"`
	RepositoryOwner  string  `json:"repositoryOwner"`
}

// GroupSummary reports how far the comparison sweep of a group has progressed
type GroupSummary struct {
	Sha                  string    `json:"sha"`
	Date                 time.Time `json:"date"`
	NumberOfRepos        int       `json:"numberOfRepos"`
	ComparisonsCompleted int       `json:"comparisonsCompleted"`
	Progress             Progress  `json:"progress"`
}

type PairScore struct {
	ID              string  `json:"id"`
	Similarity      float64 `json:"similarity"`
	TotalOverlap    int     `json:"totalOverlap"`
	LongestFragment int     `json:"longestFragment"`
}

type OverallRepository struct {
	Sha             string `json:"sha"`
	Name            string `json:"name"`
	Owner           string `json:"owner"`
	RepositoryLines int    `json:"repositoryLines"`
	NumberOfFiles   int    `json:"numberOfFiles"`
}

type GroupOverall struct {
	Sha           string              `json:"sha"`
	Date          time.Time           `json:"date"`
	NumberOfRepos int                 `json:"numberOfRepos"`
	NumberOfFiles int                 `json:"numberOfFiles"`
	GroupLines    int                 `json:"groupLines"`
	Repositories  []OverallRepository `json:"repositories"`
	Pairs         []PairScore         `json:"pairs"`
}

type ComparisonListing struct {
	Sha          string       `json:"sha"`
	Similarity   float64      `json:"similarity"`
	Repositories []Repository `json:"repositories"`
	Pairs        []PairScore  `json:"pairs"`
}

type GroupListing struct {
	Sha           string              `json:"sha"`
	Date          time.Time           `json:"date"`
	NumberOfRepos int                 `json:"numberOfRepos"`
	Progress      Progress            `json:"progress"`
	Comparisons   []ComparisonListing `json:"comparisons"`
}

// PairSimilarity is a structural-category pair with the files on both sides
type PairSimilarity struct {
	ID         string       `json:"id"`
	Similarity float64      `json:"similarity"`
	Category   Category     `json:"category"`
	Files      []PairedFile `json:"files"`
}

type PairedFile struct {
	Sha             string   `json:"sha"`
	Filepath        string   `json:"filepath"`
	Category        Category `json:"category"`
	RepositorySha   string   `json:"repositorySha"`
	RepositoryName  string   `json:"repositoryName"`
	RepositoryOwner string   `json:"repositoryOwner"`
}
