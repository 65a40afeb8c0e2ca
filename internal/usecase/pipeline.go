package usecase

import (
	"context"
	"log/slog"
	"strings"

	"RfpFinder/internal/classify"
	"RfpFinder/internal/domain"
	"RfpFinder/internal/identity"
	"RfpFinder/internal/ports"
)

// IngestResult summarizes one source's batch.
type IngestResult struct {
	Inserted int
	Updated  int
	Rejected int // malformed candidates dropped before identity resolution
	Failed   int // storage failures, batch continued
}

// Pipeline turns raw candidates into persisted notices: validate, classify,
// resolve identity, upsert. It has no state of its own and is safe to share
// across concurrent collector workers.
type Pipeline struct {
	classifier *classify.Classifier
	notices    ports.NoticeRepository
	logger     *slog.Logger
}

// NewPipeline constructs the ingest component.
func NewPipeline(classifier *classify.Classifier, notices ports.NoticeRepository, logger *slog.Logger) *Pipeline {
	return &Pipeline{classifier: classifier, notices: notices, logger: logger}
}

// Ingest processes one source's candidates under the given id namespace.
// A failure on a single record never aborts its siblings; partial success is
// normal and reported through the result counts.
func (p *Pipeline) Ingest(ctx context.Context, namespace string, candidates []domain.Candidate) (IngestResult, error) {
	var result IngestResult

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if strings.TrimSpace(candidate.Title) == "" {
			result.Rejected++
			p.warn("rejecting candidate without title", "namespace", namespace, "url", candidate.URL)
			continue
		}

		notice := domain.Notice{
			Candidate:      candidate,
			Classification: p.classifier.Classify(candidate.Title, candidate.Description),
		}
		notice.ID = identity.Resolve(namespace, candidate)

		outcome, err := p.notices.Upsert(ctx, notice)
		if err != nil {
			result.Failed++
			p.warn("upsert failed", "id", notice.ID, "error", err)
			continue
		}

		switch outcome {
		case domain.OutcomeInserted:
			result.Inserted++
		case domain.OutcomeUpdated:
			result.Updated++
		}
	}

	return result, nil
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
