package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/config"
	"github.com/kailas-cloud/estatesearch/internal/db/postgres"
	domrel "github.com/kailas-cloud/estatesearch/internal/domain/relevance"
	"github.com/kailas-cloud/estatesearch/internal/metrics"
	kafkaTransport "github.com/kailas-cloud/estatesearch/internal/transport/kafka"
	openaiTransport "github.com/kailas-cloud/estatesearch/internal/transport/openai"
	relevanceuc "github.com/kailas-cloud/estatesearch/internal/usecase/relevance"
)

func newClassifyCmd(a *app) *cobra.Command {
	var opts relevanceuc.Options

	cmd := &cobra.Command{
		Use:   "classify-wikipedia",
		Short: "Classify stored Wikipedia articles and keep, flag, relocate or remove them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum, err := a.classify(cmd.Context(), opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of articles to process (0 = all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of articles to skip")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "classify and score without modifying the database")
	cmd.Flags().BoolVar(&opts.KeywordOnly, "keyword-only", false, "score from article text without calling the LLM")
	return cmd
}

func (a *app) classify(ctx context.Context, opts relevanceuc.Options) (relevanceuc.Summary, error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.Database.DSN == "" {
		return relevanceuc.Summary{}, fmt.Errorf("database.dsn is required for classification")
	}
	metrics.Register()

	store, err := postgres.New(ctx, a.cfg.Database.DSN)
	if err != nil {
		return relevanceuc.Summary{}, err
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		return relevanceuc.Summary{}, err
	}

	llm := a.cfg.LLM
	classifier := relevanceuc.NewBreakerClassifier(
		openaiTransport.NewClassifier(&openaiTransport.ClassifierConfig{
			APIKey:          llm.APIKey,
			BaseURL:         llm.BaseURL,
			Model:           llm.Model,
			Temperature:     llm.Temperature,
			MaxExcerptChars: llm.MaxExcerptChars,
			Logger:          a.logger,
		}),
		relevanceuc.BreakerSettings{
			MaxRequests:         llm.Breaker.MaxRequests,
			Interval:            seconds(llm.Breaker.IntervalSec),
			Timeout:             seconds(llm.Breaker.TimeoutSec),
			ConsecutiveFailures: llm.Breaker.ConsecutiveFailures,
		},
		a.logger,
	)

	rc := a.cfg.Relevance
	scorer := domrel.NewScorer(domrel.ScorerConfig{
		AllowedStates:      rc.AllowedStates,
		TargetCounties:     rc.TargetCounties,
		TargetCities:       rc.TargetCities,
		RealEstateKeywords: rc.RealEstateKeywords,
		MinScore:           rc.MinScore,
		LLMWeights:         scorerWeights(rc.LLMWeights),
		KeywordWeights:     scorerWeights(rc.KeywordWeights),
	})

	// Pass nil interface (not typed nil pointer!) when Kafka is not configured.
	var publisher relevanceuc.Publisher
	if len(a.cfg.Kafka.Brokers) > 0 {
		p := kafkaTransport.NewPublisher(kafkaTransport.Config{
			Brokers: a.cfg.Kafka.Brokers,
			Topic:   a.cfg.Kafka.Topic,
			Logger:  a.logger,
		})
		defer func() {
			if err := p.Close(); err != nil {
				a.logger.Warn("Failed to close decision publisher", zap.Error(err))
			}
		}()
		publisher = p
	}

	pipeline := relevanceuc.NewPipeline(store, classifier, scorer, publisher, relevanceuc.Config{
		BatchSize: rc.BatchSize,
		Decision: domrel.DecisionConfig{
			ConfidenceThreshold: rc.ConfidenceThreshold,
			RemovalConfidence:   rc.RemovalConfidence,
		},
	}, a.logger)

	return pipeline.Run(ctx, opts)
}

func scorerWeights(w *config.WeightsConfig) *domrel.Weights {
	if w == nil {
		return nil
	}
	return &domrel.Weights{Location: w.Location, RealEstate: w.RealEstate, Geographic: w.Geographic}
}
