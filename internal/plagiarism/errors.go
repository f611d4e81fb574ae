package plagiarism

import "errors"

var (
	ErrGroupNotFound      = errors.New("group not found")
	ErrTooFewRepositories = errors.New("a group needs at least two distinct repositories")
	ErrSameRepository     = errors.New("cannot compare a repository with itself")
	ErrMissingContent     = errors.New("repository content is required")
)
