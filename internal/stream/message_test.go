package stream

import (
	"testing"

	"github.com/RishiKendai/clonescope/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupRequest(t *testing.T) {
	t.Run("should parse a create request", func(t *testing.T) {
		// given
		msg := &StreamMessage{ID: "1-0", Fields: map[string]string{
			"actor":        "rishi",
			"repositories": `[{"owner":"acme","name":"alpha"},{"owner":" acme ","name":"beta"}]`,
		}}

		// when
		req, err := ParseGroupRequest(msg)

		// then
		require.NoError(t, err)
		assert.Equal(t, ModeCreate, req.Mode)
		assert.Equal(t, "rishi", req.Actor)
		assert.Equal(t, []models.RepositoryRef{
			{Owner: "acme", Name: "alpha"},
			{Owner: "acme", Name: "beta"},
		}, req.Repositories)
	})

	t.Run("should default to reuse when a group sha is given", func(t *testing.T) {
		// given
		msg := &StreamMessage{Fields: map[string]string{
			"groupSha":     "g1",
			"repositories": `[{"owner":"acme","name":"alpha"}]`,
		}}

		// when
		req, err := ParseGroupRequest(msg)

		// then
		require.NoError(t, err)
		assert.Equal(t, ModeReuse, req.Mode)
		assert.Equal(t, "g1", req.GroupSha)
	})

	t.Run("should reject invalid messages", func(t *testing.T) {
		tests := []struct {
			name   string
			fields map[string]string
		}{
			{"missing repositories", map[string]string{"actor": "rishi"}},
			{"malformed json", map[string]string{"repositories": "[{"}},
			{"repository without name", map[string]string{"repositories": `[{"owner":"acme","name":""}]`}},
			{"unknown mode", map[string]string{"repositories": `[]`, "mode": "merge"}},
			{"recompute without group", map[string]string{"repositories": `[]`, "mode": "recompute"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseGroupRequest(&StreamMessage{Fields: tt.fields})

				assert.ErrorIs(t, err, ErrInvalidMessage)
			})
		}
	})
}
