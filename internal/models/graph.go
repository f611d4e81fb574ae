package models

import (
	"time"
)

// GroupGraph is the repository → folder → file tree used by visualizations
type GroupGraph struct {
	Sha             string            `json:"sha"`
	Date            time.Time         `json:"date"`
	NumberOfRepos   int               `json:"numberOfRepos"`
	NumberOfFolders int               `json:"numberOfFolders"`
	NumberOfFiles   int               `json:"numberOfFiles"`
	TotalLines      int               `json:"totalLines"`
	Repositories    []GraphRepository `json:"repositories"`
}

type GraphRepository struct {
	Type            string        `json:"type"`
	Class           string        `json:"class"`
	Name            string        `json:"name"`
	Sha             string        `json:"sha"`
	Repo            string        `json:"repo"`
	Owner           string        `json:"owner"`
	Fever           float64       `json:"fever"`
	NumberOfFolders int           `json:"numberOfFolders"`
	NumberOfFiles   int           `json:"numberOfFiles"`
	RepoLines       int           `json:"repoLines"`
	Children        []GraphFolder `json:"children"`
}

type GraphFolder struct {
	Type              string      `json:"type"`
	Class             string      `json:"class"`
	Name              string      `json:"name"`
	FolderPath        string      `json:"folderPath"`
	FolderType        Category    `json:"folderType"`
	Fever             float64     `json:"fever"`
	StandardDeviation float64     `json:"standardDeviation"`
	FolderLines       int         `json:"folderLines"`
	NumberOfFiles     int         `json:"numberOfFiles"`
	Children          []GraphFile `json:"children"`
}

type GraphFile struct {
	Type     string      `json:"type"`
	Class    string      `json:"class"`
	Name     string      `json:"name"`
	Sha      string      `json:"sha"`
	Filepath string      `json:"filepath"`
	FileType Category    `json:"fileType"`
	Lines    int         `json:"lines"`
	Value    int         `json:"value"`
	Fever    float64     `json:"fever"`
	Top      *GraphTop   `json:"top,omitempty"`
	Links    []GraphLink `json:"links"`
}

type GraphTop struct {
	PairID         string  `json:"pairId"`
	PairFilePath   string  `json:"pairFilePath"`
	Similarity     float64 `json:"similarity"`
	RepositoryName string  `json:"repositoryName"`
}

type GraphLink struct {
	PairID                  string     `json:"pairId"`
	Similarity              float64    `json:"similarity"`
	TotalOverlap            int        `json:"totalOverlap"`
	LongestFragment         int        `json:"longestFragment"`
	NormalizedImpact        float64    `json:"normalizedImpact"`
	PairFileSha             string     `json:"pairFileSha"`
	PairFileSide            string     `json:"pairFileSide"`
	PairFilePath            string     `json:"pairFilePath"`
	PairFileType            Category   `json:"pairFileType"`
	PairFileLines           int        `json:"pairFileLines"`
	PairFileRepository      string     `json:"pairFileRepository"`
	PairFileRepositoryName  string     `json:"pairFileRepositoryName"`
	PairFileRepositoryOwner string     `json:"pairFileRepositoryOwner"`
	Fragments               []Fragment `json:"fragments"`
}
