// Package loader realizes the filtered source content of a hosted repository.
package loader

import (
	"context"
	"errors"

	"github.com/RishiKendai/clonescope/internal/models"
)

// ContentLoader fetches the content of one repository on behalf of an actor.
// The returned content sha identifies the exact tree that was read.
type ContentLoader interface {
	Fetch(ctx context.Context, actor string, ref models.RepositoryRef) (*models.RepositoryContent, error)
}

// ErrRepositoryUnavailable marks failures of the code hosting service, as
// opposed to local persistence or validation failures.
var ErrRepositoryUnavailable = errors.New("repository could not be fetched")
