package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/RishiKendai/clonescope/internal/models"
)

// StreamMessage is a raw entry read from the group request stream
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

type Mode string

const (
	ModeCreate    Mode = "create"
	ModeReuse     Mode = "reuse"
	ModeRecompute Mode = "recompute"
)

// GroupRequest asks for a group to be created, or for an existing group to
// be refreshed with a new repository list.
type GroupRequest struct {
	Actor        string
	GroupSha     string
	Mode         Mode
	Repositories []models.RepositoryRef
}

var ErrInvalidMessage = errors.New("invalid group request message")

// ParseGroupRequest reads a request from the message fields. The mode
// defaults to create without a group sha and to reuse with one.
func ParseGroupRequest(msg *StreamMessage) (*GroupRequest, error) {
	raw := msg.Fields["repositories"]
	if raw == "" {
		return nil, fmt.Errorf("%w: missing repositories", ErrInvalidMessage)
	}

	var refs []models.RepositoryRef
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil, fmt.Errorf("%w: repositories: %v", ErrInvalidMessage, err)
	}
	for i, ref := range refs {
		ref.Owner = strings.TrimSpace(ref.Owner)
		ref.Name = strings.TrimSpace(ref.Name)
		if ref.Owner == "" || ref.Name == "" {
			return nil, fmt.Errorf("%w: repository %d needs an owner and a name", ErrInvalidMessage, i)
		}
		refs[i] = ref
	}

	req := &GroupRequest{
		Actor:        msg.Fields["actor"],
		GroupSha:     msg.Fields["groupSha"],
		Mode:         Mode(msg.Fields["mode"]),
		Repositories: refs,
	}

	if req.Mode == "" {
		req.Mode = ModeCreate
		if req.GroupSha != "" {
			req.Mode = ModeReuse
		}
	}

	switch req.Mode {
	case ModeCreate:
	case ModeReuse, ModeRecompute:
		if req.GroupSha == "" {
			return nil, fmt.Errorf("%w: mode %s needs a groupSha", ErrInvalidMessage, req.Mode)
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidMessage, req.Mode)
	}

	return req, nil
}
