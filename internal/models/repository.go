package models

import (
	"time"
)

// RepositoryRef identifies a repository on the code hosting service
type RepositoryRef struct {
	Owner string `json:"owner" binding:"required"`
	Name  string `json:"name" binding:"required"`
}

func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// RawFile is a file as returned by the content loader, before classification
type RawFile struct {
	Path    string `json:"path"`
	Sha     string `json:"sha"`
	Content string `json:"content"`
}

// RepositoryContent is the realized, filtered content of one repository at one tree sha
type RepositoryContent struct {
	Sha   string    `json:"sha"`
	Owner string    `json:"owner"`
	Name  string    `json:"name"`
	Files []RawFile `json:"files"`
}

func (r *RepositoryContent) Empty() bool {
	return r == nil || len(r.Files) == 0
}

func (r *RepositoryContent) Ref() RepositoryRef {
	return RepositoryRef{Owner: r.Owner, Name: r.Name}
}

// Repository is the persisted identity of a compared repository
type Repository struct {
	Sha            string    `bson:"sha" json:"sha"`
	Owner          string    `bson:"owner" json:"owner"`
	Name           string    `bson:"name" json:"name"`
	TotalLines     int       `bson:"totalLines" json:"totalLines"`
	ComparisonShas []string  `bson:"comparisonShas" json:"comparisonShas"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// File is a classified source file that took part in at least one retained match
type File struct {
	Sha           string   `bson:"sha" json:"sha"`
	RepositorySha string   `bson:"repositorySha" json:"repositorySha"`
	Filepath      string   `bson:"filepath" json:"filepath"`
	CharCount     int      `bson:"charCount" json:"charCount"`
	LineCount     int      `bson:"lineCount" json:"lineCount"`
	Language      string   `bson:"language" json:"language"`
	Category      Category `bson:"category" json:"category"`
}

// Key is the store identity of a file: the blob sha scoped by its repository.
func (f *File) Key() string {
	return FileKey(f.RepositorySha, f.Sha)
}

func FileKey(repositorySha, fileSha string) string {
	return repositorySha + ":" + fileSha
}
