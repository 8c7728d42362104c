// Package gateway asks a text-generation backend for research, scores and
// outreach copy, and decodes the replies into validated records.
package gateway

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	// ErrEmptyCompany is returned when research is requested for a blank name.
	ErrEmptyCompany = eris.New("gateway: company name is required")
	// ErrEmptyReply is returned when the backend answered with no text.
	ErrEmptyReply = eris.New("gateway: empty reply")
	// ErrInvalidSchema is returned when a reply is not JSON or misses required fields.
	ErrInvalidSchema = eris.New("gateway: reply does not match schema")
)

// Gateway produces stage content from a language model. Replies are decoded
// and validated but not normalized; the agents fill defaults.
type Gateway interface {
	Research(ctx context.Context, company string) (*ResearchReply, error)
	Score(ctx context.Context, research model.ResearchResult) (*ScoreReply, error)
	Outreach(ctx context.Context, req OutreachRequest) (*OutreachReply, error)
	// Provider names the backend, for logs and run metadata.
	Provider() string
}

// OutreachRequest carries everything the outreach prompt draws on.
type OutreachRequest struct {
	Research model.ResearchResult
	Score    model.ScoreResult
	Target   model.Contact
}
