package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/RishiKendai/clonescope/internal/loader"
	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/RishiKendai/clonescope/internal/plagiarism"
	"github.com/RishiKendai/clonescope/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Groups is the write side of the service: group lifecycle and sweeps
type Groups interface {
	CreateGroup(ctx context.Context, actor string, refs []models.RepositoryRef) (*models.Group, error)
	UpdateGroupReusing(ctx context.Context, sha, actor string, refs []models.RepositoryRef) (*models.Group, error)
	UpdateGroupRecomputing(ctx context.Context, sha, actor string, refs []models.RepositoryRef) (*models.Group, error)
	CancelSweep(sha string) bool
	Progress(ctx context.Context, sha string) (models.Progress, error)
}

// Handler holds dependencies for handlers
type Handler struct {
	groups  Groups
	reports *report.Builder
}

// NewHandler creates a new handler
func NewHandler(groups Groups, reports *report.Builder) *Handler {
	return &Handler{
		groups:  groups,
		reports: reports,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var req models.GroupRequest
	if !bindGroupRequest(c, &req) {
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), c.GetString(actorKey), req.Repositories)
	if err != nil {
		h.fail(c, err, "Failed to create group")
		return
	}

	c.JSON(http.StatusAccepted, models.GroupResponse{
		Step:  group.Progress.State,
		Group: group,
	})
}

// UpdateGroup replaces the repositories of a group, reusing stored comparisons
func (h *Handler) UpdateGroup(c *gin.Context) {
	h.updateGroup(c, h.groups.UpdateGroupReusing)
}

// RecomputeGroup replaces the repositories of a group and recomputes every comparison
func (h *Handler) RecomputeGroup(c *gin.Context) {
	h.updateGroup(c, h.groups.UpdateGroupRecomputing)
}

type updateFunc func(ctx context.Context, sha, actor string, refs []models.RepositoryRef) (*models.Group, error)

func (h *Handler) updateGroup(c *gin.Context, update updateFunc) {
	var req models.GroupRequest
	if !bindGroupRequest(c, &req) {
		return
	}

	group, err := update(c.Request.Context(), c.Param("sha"), c.GetString(actorKey), req.Repositories)
	if err != nil {
		h.fail(c, err, "Failed to update group")
		return
	}

	c.JSON(http.StatusAccepted, models.GroupResponse{
		Step:  group.Progress.State,
		Group: group,
	})
}

func (h *Handler) CancelSweep(c *gin.Context) {
	sha := c.Param("sha")
	if !h.groups.CancelSweep(sha) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "No sweep is running for this group",
			Code:  "SWEEP_NOT_RUNNING",
		})
		return
	}
	log.Info().Str("groupSha", sha).Msg("Sweep cancelled on request")
	c.JSON(http.StatusAccepted, gin.H{"sha": sha, "cancelled": true})
}

func (h *Handler) GroupProgress(c *gin.Context) {
	sha := c.Param("sha")
	progress, err := h.groups.Progress(c.Request.Context(), sha)
	if err != nil {
		h.fail(c, err, "Failed to read group progress")
		return
	}
	c.JSON(http.StatusOK, models.ProgressResponse{
		Sha:      sha,
		Progress: progress,
		Pending:  progress.Pending(),
	})
}

func (h *Handler) ListGroups(c *gin.Context) {
	respond(c, h, "Failed to list groups", func(ctx context.Context) (any, error) {
		return h.reports.Groups(ctx)
	})
}

func (h *Handler) GroupSummary(c *gin.Context) {
	respond(c, h, "Failed to build group summary", func(ctx context.Context) (any, error) {
		return h.reports.Summary(ctx, c.Param("sha"))
	})
}

func (h *Handler) GroupOverall(c *gin.Context) {
	respond(c, h, "Failed to build group overview", func(ctx context.Context) (any, error) {
		return h.reports.Overall(ctx, c.Param("sha"))
	})
}

func (h *Handler) GroupReport(c *gin.Context) {
	respond(c, h, "Failed to build group report", func(ctx context.Context) (any, error) {
		return h.reports.Report(ctx, c.Param("sha"))
	})
}

func (h *Handler) GroupGraph(c *gin.Context) {
	respond(c, h, "Failed to build group graph", func(ctx context.Context) (any, error) {
		return h.reports.Graph(ctx, c.Param("sha"))
	})
}

func (h *Handler) GroupFiles(c *gin.Context) {
	respond(c, h, "Failed to list group files", func(ctx context.Context) (any, error) {
		return h.reports.Files(ctx, c.Param("sha"))
	})
}

func (h *Handler) GroupSimilarities(c *gin.Context) {
	respond(c, h, "Failed to list pair similarities", func(ctx context.Context) (any, error) {
		return h.reports.PairSimilarities(ctx, c.Param("sha"))
	})
}

func (h *Handler) FilePairs(c *gin.Context) {
	respond(c, h, "Failed to list file pairs", func(ctx context.Context) (any, error) {
		return h.reports.PairsByGroupAndFile(ctx, c.Param("sha"), c.Param("repoSha"), c.Param("fileSha"))
	})
}

func (h *Handler) ListPairs(c *gin.Context) {
	respond(c, h, "Failed to list pairs", func(ctx context.Context) (any, error) {
		return h.reports.AllPairs(ctx)
	})
}

func (h *Handler) GetPair(c *gin.Context) {
	respond(c, h, "Failed to load pair", func(ctx context.Context) (any, error) {
		return h.reports.PairByID(ctx, c.Param("id"))
	})
}

func (h *Handler) ListComparisons(c *gin.Context) {
	respond(c, h, "Failed to list comparisons", func(ctx context.Context) (any, error) {
		return h.reports.Comparisons(ctx)
	})
}

func respond(c *gin.Context, h *Handler, failure string, read func(ctx context.Context) (any, error)) {
	body, err := read(c.Request.Context())
	if err != nil {
		h.fail(c, err, failure)
		return
	}
	c.JSON(http.StatusOK, body)
}

func bindGroupRequest(c *gin.Context, req *models.GroupRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body: at least two repositories with owner and name are required",
			Code:  "INVALID_REQUEST",
		})
		return false
	}
	return true
}

// fail maps domain errors to their status codes. Anything unknown is logged
// and reported as an internal error.
func (h *Handler) fail(c *gin.Context, err error, message string) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, plagiarism.ErrGroupNotFound), errors.Is(err, report.ErrGroupNotFound):
		status, code, message = http.StatusNotFound, "GROUP_NOT_FOUND", "Group not found"
	case errors.Is(err, report.ErrPairNotFound):
		status, code, message = http.StatusNotFound, "PAIR_NOT_FOUND", "Pair not found"
	case errors.Is(err, report.ErrFileNotFound):
		status, code, message = http.StatusNotFound, "FILE_NOT_FOUND", "File not found"
	case errors.Is(err, plagiarism.ErrTooFewRepositories):
		status, code, message = http.StatusBadRequest, "TOO_FEW_REPOSITORIES", err.Error()
	case errors.Is(err, loader.ErrRepositoryUnavailable):
		status, code, message = http.StatusBadGateway, "REPOSITORY_UNAVAILABLE", err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "TIMEOUT"
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.FullPath()).
			Msg(message)
	}
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}
