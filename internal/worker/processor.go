package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"statmatch/internal/analysis"
	"statmatch/internal/batch"
	"statmatch/internal/config"
	"statmatch/internal/fingerprint"
	"statmatch/internal/logging"
	"statmatch/internal/notifications"
	"statmatch/internal/services"
	"statmatch/internal/services/experiments"
)

// FingerprintStore is the document store surface the processor needs.
type FingerprintStore interface {
	Lookup(ctx context.Context, id string) (fingerprint.Document, error)
	CountExisting(ctx context.Context, ids []any) (int, error)
}

// Publisher appends result documents to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queueName string, body []byte) (int64, error)
}

// StatusFetcher looks up the candidate-search status of an experiment.
// Implemented by the experiments API client; nil disables the lookup.
type StatusFetcher interface {
	CandidateSearchStatus(ctx context.Context, experimentID string) (*experiments.SearchStatus, error)
}

// Processor handles one batch request end to end: envelope parsing, root
// and candidate resolution, ranking, verification, and result publishing.
type Processor struct {
	cfg      *config.Config
	store    FingerprintStore
	queue    Publisher
	statuses StatusFetcher
	notifier notifications.Service
	logger   *slog.Logger
}

// NewProcessor builds a processor. statuses may be nil when the experiment
// API is not configured; notifier may be nil to disable notifications.
func NewProcessor(cfg *config.Config, store FingerprintStore, queue Publisher, statuses StatusFetcher, notifier notifications.Service, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Processor{
		cfg:      cfg,
		store:    store,
		queue:    queue,
		statuses: statuses,
		notifier: notifier,
		logger:   logger,
	}
}

// Process handles a single inbound message body. Errors marked transient
// mean the message may be retried; everything else is permanent and the
// message must be discarded.
func (p *Processor) Process(ctx context.Context, body []byte) error {
	started := time.Now()

	env, err := batch.ParseEnvelope(body)
	if err != nil {
		return services.Wrap(services.ErrValidation, "worker", "parse-envelope", "malformed batch envelope", err)
	}

	ctx = services.WithExperimentID(ctx, env.ExperimentID)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("processing batch",
		logging.Int("candidates", len(env.CandidateIDs)),
	)
	if env.Skipped > 0 {
		logger.Warn("dropped fingerprint entries without an id",
			logging.Int("dropped", env.Skipped),
		)
	}

	p.reportSearchStatus(ctx, logger, env.ExperimentID)

	roots, err := p.resolveRoots(ctx)
	if err != nil {
		return err
	}

	candidates, err := p.resolveCandidates(ctx, logger, env.CandidateIDStrings())
	if err != nil {
		return err
	}

	ranking := analysis.Rank(candidates, roots)

	verified, err := p.store.CountExisting(ctx, env.CandidateIDs)
	if err != nil {
		return services.Wrap(services.ErrStore, "worker", "verify", "count existing fingerprints", err)
	}

	result := batch.NewResult(env.ExperimentID, len(env.CandidateIDs), ranking, verified)
	raw, err := result.Marshal()
	if err != nil {
		return services.Wrap(services.ErrValidation, "worker", "encode-result", "encode result document", err)
	}

	// A result that cannot be published is lost work; the batch is
	// permanently failed rather than silently retried against a broken
	// outbound path.
	if _, err := p.queue.Publish(ctx, p.cfg.Queue.OutboundQueue, raw); err != nil {
		return services.Wrap(services.ErrPublish, "worker", "publish-result",
			fmt.Sprintf("publish result to %s", p.cfg.Queue.OutboundQueue), err)
	}

	logger.Info("batch complete",
		logging.Int("verified", verified),
		logging.String("status", result.Status),
		logging.Duration("elapsed", time.Since(started)),
	)
	if err := p.notifier.NotifyBatchCompleted(ctx, env.ExperimentID, len(env.CandidateIDs), verified, time.Since(started)); err != nil {
		logger.Warn("batch notification failed", logging.Error(err))
	}
	return nil
}

func (p *Processor) reportSearchStatus(ctx context.Context, logger *slog.Logger, experimentID string) {
	if p.statuses == nil {
		return
	}
	status, err := p.statuses.CandidateSearchStatus(ctx, experimentID)
	if err != nil {
		logger.Warn("candidate search status unavailable", logging.Error(err))
		return
	}
	logger.Info("candidate search status", logging.String("status", status.Status))
}

// resolveRoots loads the configured root fingerprints from the store. A
// missing root document becomes a stat-less root that the ranker skips; a
// configuration with no usable roots at all cannot rank anything.
func (p *Processor) resolveRoots(ctx context.Context) ([]analysis.Root, error) {
	ids := p.cfg.RootFingerprintIDs()
	if len(ids) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "worker", "resolve-roots", "no root fingerprint ids configured", nil)
	}

	roots := make([]analysis.Root, 0, len(ids))
	for _, id := range ids {
		doc, err := p.store.Lookup(ctx, id)
		if err != nil {
			return nil, services.Wrap(services.ErrStore, "worker", "resolve-roots",
				fmt.Sprintf("load root fingerprint %s", id), err)
		}
		root := analysis.Root{ID: id}
		if doc != nil {
			root.Stats, root.HasStats = doc.ExtractStats()
			root.Field = doc.ExtractField()
		}
		roots = append(roots, root)
	}
	return roots, nil
}

// resolveCandidates loads candidate fingerprints from the store. Unknown
// ids are logged and skipped; they still count toward candidateCount but
// cannot participate in ranking.
func (p *Processor) resolveCandidates(ctx context.Context, logger *slog.Logger, ids []string) ([]fingerprint.Fingerprint, error) {
	candidates := make([]fingerprint.Fingerprint, 0, len(ids))
	for _, id := range ids {
		doc, err := p.store.Lookup(ctx, id)
		if err != nil {
			return nil, services.Wrap(services.ErrStore, "worker", "resolve-candidates",
				fmt.Sprintf("load candidate fingerprint %s", id), err)
		}
		if doc == nil {
			logger.Warn("candidate fingerprint not in store",
				logging.String(logging.FieldFingerprintID, id),
			)
			continue
		}
		candidate := fingerprint.Fingerprint{ID: id}
		candidate.Stats, candidate.HasStats = doc.ExtractStats()
		candidate.Field = doc.ExtractField()
		if !candidate.HasStats {
			logger.Debug("candidate fingerprint has no statistics",
				logging.String(logging.FieldFingerprintID, id),
			)
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
