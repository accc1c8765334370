// Package relevance runs the Wikipedia relevance classification pipeline: classify each
// article's location, score it, then keep, flag, relocate or remove it.
package relevance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domrel "github.com/kailas-cloud/estatesearch/internal/domain/relevance"
	"github.com/kailas-cloud/estatesearch/internal/metrics"
)

// Outcomes recorded per article.
const (
	OutcomeKept      = "kept"
	OutcomeFlagged   = "flagged"
	OutcomeRemoved   = "removed"
	OutcomeRelocated = "relocated"
	OutcomeError     = "error"
)

// Options controls one pipeline run.
type Options struct {
	// Limit caps the number of articles processed. Zero means all.
	Limit  int
	Offset int
	// DryRun classifies and scores without touching the store.
	DryRun bool
	// KeywordOnly scores from article text without calling the classifier.
	KeywordOnly bool
}

// Summary counts the outcomes of a run. Relocated articles are also counted as kept or flagged.
type Summary struct {
	RunID     string        `json:"run_id"`
	Processed int           `json:"processed"`
	Kept      int           `json:"kept"`
	Flagged   int           `json:"flagged"`
	Removed   int           `json:"removed"`
	Relocated int           `json:"relocated"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
}

// Config holds pipeline settings.
type Config struct {
	BatchSize int
	Decision  domrel.DecisionConfig
}

// Pipeline classifies stored articles and applies the resulting decisions.
type Pipeline struct {
	store      Store
	classifier Classifier
	scorer     *domrel.Scorer
	publisher  Publisher
	cfg        Config
	logger     *zap.Logger
}

// NewPipeline creates a pipeline. publisher may be nil.
func NewPipeline(
	store Store, classifier Classifier, scorer *domrel.Scorer, publisher Publisher, cfg Config, logger *zap.Logger,
) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Pipeline{
		store:      store,
		classifier: classifier,
		scorer:     scorer,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run processes articles page by page. Classifier failures are counted and skipped;
// store failures abort the run and are returned with the partial summary.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: uuid.NewString()}
	log := p.logger.With(zap.String("run_id", sum.RunID))

	log.Info("Relevance run started",
		zap.Int("limit", opts.Limit),
		zap.Int("offset", opts.Offset),
		zap.Bool("dry_run", opts.DryRun),
		zap.Bool("keyword_only", opts.KeywordOnly),
	)

	offset := opts.Offset
	for opts.Limit == 0 || sum.Processed < opts.Limit {
		batch := p.cfg.BatchSize
		if opts.Limit > 0 {
			batch = min(batch, opts.Limit-sum.Processed)
		}

		articles, err := p.store.ListArticles(ctx, batch, offset)
		if err != nil {
			sum.Duration = time.Since(start)
			return sum, fmt.Errorf("list articles: %w", err)
		}

		removedBefore := sum.Removed
		events := make([]domrel.Event, 0, len(articles))
		for _, a := range articles {
			if err := ctx.Err(); err != nil {
				sum.Duration = time.Since(start)
				return sum, err
			}
			ev, err := p.process(ctx, log, sum.RunID, a, opts, &sum)
			if err != nil {
				sum.Duration = time.Since(start)
				return sum, err
			}
			if ev != nil {
				events = append(events, *ev)
			}
		}
		p.publish(ctx, log, events)

		offset += len(articles)
		if !opts.DryRun {
			// removed rows shift later pages down
			offset -= sum.Removed - removedBefore
		}
		if len(articles) < batch {
			break
		}
	}

	sum.Duration = time.Since(start)
	log.Info("Relevance run finished",
		zap.Int("processed", sum.Processed),
		zap.Int("kept", sum.Kept),
		zap.Int("flagged", sum.Flagged),
		zap.Int("removed", sum.Removed),
		zap.Int("relocated", sum.Relocated),
		zap.Int("errors", sum.Errors),
		zap.Duration("duration", sum.Duration),
	)
	return sum, nil
}

// process classifies, scores and applies the decision for one article.
// A nil event with a nil error means the article was skipped.
func (p *Pipeline) process(
	ctx context.Context, log *zap.Logger, runID string, a domrel.Article, opts Options, sum *Summary,
) (*domrel.Event, error) {
	sum.Processed++
	log = log.With(zap.String("article_id", a.ID))

	var (
		score    domrel.Score
		cls      *domrel.LocationClassification
		decision = domrel.Decision{Action: domrel.ActionNone}
	)

	if opts.KeywordOnly {
		score = p.scorer.EvaluateArticle(a.ID, a.Title, a.Content)
	} else {
		c, err := p.classifier.Classify(ctx, a)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			sum.Errors++
			metrics.RelevanceArticlesTotal.WithLabelValues(OutcomeError).Inc()
			log.Warn("Classification failed, article skipped", zap.Error(err))
			return nil, nil
		}
		cls = &c

		metrics.LocationTypesTotal.WithLabelValues(strconv.FormatBool(c.Type.IsKnown())).Inc()
		if !c.Type.IsKnown() {
			log.Debug("Unknown location type", zap.String("type", string(c.Type)))
		}

		topics := c.KeyTopics
		if len(topics) == 0 {
			topics = a.KeyTopics
		}
		score = p.scorer.EvaluateWithLLMData(a.ID, c, topics, c.Confidence)
		decision = domrel.Decide(p.cfg.Decision, p.scorer, a.Location, c)
	}

	outcome, err := p.apply(ctx, runID, a, score, cls, decision, opts.DryRun)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case OutcomeRemoved:
		sum.Removed++
	case OutcomeFlagged:
		sum.Flagged++
	default:
		sum.Kept++
	}
	metrics.RelevanceArticlesTotal.WithLabelValues(outcome).Inc()
	if decision.Action == domrel.ActionUpdateLocation {
		sum.Relocated++
		metrics.RelevanceArticlesTotal.WithLabelValues(OutcomeRelocated).Inc()
	}

	log.Debug("Article processed",
		zap.String("outcome", outcome),
		zap.String("action", string(decision.Action)),
		zap.Float64("overall", score.Overall),
		zap.Strings("reasons_to_flag", score.ReasonsToFlag),
	)

	ev := &domrel.Event{
		RunID:     runID,
		ArticleID: a.ID,
		Title:     a.Title,
		Outcome:   outcome,
		Action:    decision.Action,
		Reason:    decision.Reason,
		Overall:   score.Overall,
		Category:  score.Category,
		DryRun:    opts.DryRun,
		Timestamp: time.Now().UTC(),
	}
	if decision.Action != domrel.ActionNone {
		target := decision.Target
		ev.Location = &target
	}
	return ev, nil
}

// apply performs the store mutations for one article and returns its outcome.
func (p *Pipeline) apply(
	ctx context.Context, runID string, a domrel.Article, score domrel.Score,
	cls *domrel.LocationClassification, d domrel.Decision, dryRun bool,
) (string, error) {
	if d.Action == domrel.ActionRemove {
		if !dryRun {
			if err := p.store.RemoveArticle(ctx, a.ID); err != nil {
				return "", fmt.Errorf("remove article %s: %w", a.ID, err)
			}
		}
		return OutcomeRemoved, nil
	}

	if d.Action == domrel.ActionUpdateLocation && !dryRun {
		loc, err := p.store.GetOrCreateLocation(ctx, d.Target)
		if err != nil {
			return "", fmt.Errorf("get or create location: %w", err)
		}
		if err := p.store.UpdateArticleLocation(ctx, a.ID, loc.ID); err != nil {
			return "", fmt.Errorf("update location of article %s: %w", a.ID, err)
		}
	}

	if !score.ShouldFlag() {
		return OutcomeKept, nil
	}
	if !dryRun {
		err := p.store.SaveFlagged(ctx, domrel.Flagged{RunID: runID, Article: a, Score: score, Classification: cls})
		if err != nil {
			return "", fmt.Errorf("save flagged article %s: %w", a.ID, err)
		}
	}
	return OutcomeFlagged, nil
}

// publish sends decision events. Failures are logged and never abort the run.
func (p *Pipeline) publish(ctx context.Context, log *zap.Logger, events []domrel.Event) {
	if p.publisher == nil || len(events) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, events...); err != nil {
		metrics.EnrichmentFailures.WithLabelValues("decision_events").Inc()
		log.Warn("Publishing decision events failed", zap.Int("events", len(events)), zap.Error(err))
	}
}
