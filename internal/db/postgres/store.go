// Package postgres persists relevance pipeline state: articles, their locations and the
// flagged_content review table.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/estatesearch/internal/db"
	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/relevance"
)

// Error wraps a database failure with the operation name. It matches domain.ErrDatabase.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "postgres " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() []error { return []error{domain.ErrDatabase, e.Err} }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Store is a pgx-backed relevance store. Each method acquires its own pooled connection.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at dsn.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, wrap(db.OpConnect, fmt.Errorf("parse dsn: %w", err))
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, wrap(db.OpConnect, err)
	}
	return &Store{pool: pool}, nil
}

// Close releases all connections.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return wrap(db.OpPing, s.pool.Ping(ctx))
}

// Init creates the tables and indexes when missing.
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return wrap(db.OpExec, fmt.Errorf("init schema: %w", err))
		}
	}
	return nil
}

const listArticles = `
	SELECT a.id, a.title, a.content, a.html_hints, a.key_topics,
	       l.id, l.country, l.state, l.county, l.city, l.location_type
	FROM articles a
	LEFT JOIN locations l ON l.id = a.location_id
	ORDER BY a.id
	LIMIT $1 OFFSET $2`

// ListArticles returns a page of articles ordered by id, each with its linked location if any.
func (s *Store) ListArticles(ctx context.Context, limit, offset int) ([]relevance.Article, error) {
	rows, err := s.pool.Query(ctx, listArticles, limit, offset)
	if err != nil {
		return nil, wrap(db.OpQuery, err)
	}
	defer rows.Close()

	var out []relevance.Article
	for rows.Next() {
		var (
			a                                     relevance.Article
			locID                                 *int64
			country, state, county, city, locType *string
		)
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Content, &a.HTMLHints, &a.KeyTopics,
			&locID, &country, &state, &county, &city, &locType,
		); err != nil {
			return nil, wrap(db.OpQuery, err)
		}
		if locID != nil {
			a.Location = &relevance.Location{
				ID:      *locID,
				Country: deref(country),
				State:   deref(state),
				County:  deref(county),
				City:    deref(city),
				Type:    relevance.LocationType(deref(locType)),
			}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(db.OpQuery, err)
	}
	return out, nil
}

const upsertFlagged = `
	INSERT INTO flagged_content (
		article_id, run_id, title, overall_score, location_relevance, real_estate_relevance,
		geographic_scope, is_relevant, category, reasons_to_flag, reasons_to_keep,
		location_name, location_type, location_state, confidence, reasoning, flagged_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
	ON CONFLICT (article_id) DO UPDATE SET
		run_id = EXCLUDED.run_id,
		title = EXCLUDED.title,
		overall_score = EXCLUDED.overall_score,
		location_relevance = EXCLUDED.location_relevance,
		real_estate_relevance = EXCLUDED.real_estate_relevance,
		geographic_scope = EXCLUDED.geographic_scope,
		is_relevant = EXCLUDED.is_relevant,
		category = EXCLUDED.category,
		reasons_to_flag = EXCLUDED.reasons_to_flag,
		reasons_to_keep = EXCLUDED.reasons_to_keep,
		location_name = EXCLUDED.location_name,
		location_type = EXCLUDED.location_type,
		location_state = EXCLUDED.location_state,
		confidence = EXCLUDED.confidence,
		reasoning = EXCLUDED.reasoning,
		flagged_at = now()`

// SaveFlagged writes the review record of a flagged article, replacing any previous one.
func (s *Store) SaveFlagged(ctx context.Context, f relevance.Flagged) error {
	var (
		name, locType, state, reasoning string
		confidence                      *float64
	)
	if c := f.Classification; c != nil {
		name, locType, state, reasoning = c.Name, string(c.Type), c.State, c.Reasoning
		confidence = &c.Confidence
	}
	_, err := s.pool.Exec(ctx, upsertFlagged,
		f.Article.ID, f.RunID, f.Article.Title,
		f.Score.Overall, f.Score.LocationRelevance, f.Score.RealEstateRelevance, f.Score.GeographicScope,
		f.Score.IsRelevant, f.Score.Category, nonNil(f.Score.ReasonsToFlag), nonNil(f.Score.ReasonsToKeep),
		name, locType, state, confidence, reasoning,
	)
	return wrap(db.OpExec, err)
}

const (
	insertLocation = `
		INSERT INTO locations (country, state, county, city, location_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING`
	selectLocation = `
		SELECT id, country, state, county, city, location_type FROM locations
		WHERE lower(country) = lower($1) AND lower(state) = lower($2) AND lower(county) = lower($3)
		  AND lower(city) = lower($4) AND lower(location_type) = lower($5)`
)

// GetOrCreateLocation returns the location with the same identity as loc, inserting it first
// when missing. Identity is country, state, county, city and type, compared case-insensitively.
// Concurrent callers get the same row.
func (s *Store) GetOrCreateLocation(ctx context.Context, loc relevance.Location) (relevance.Location, error) {
	var out relevance.Location
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		out, err = getOrCreateLocation(ctx, tx, loc)
		return err
	})
	if err != nil {
		return relevance.Location{}, wrap(db.OpExec, err)
	}
	return out, nil
}

// execQuerier is the subset of pgx.Tx used by getOrCreateLocation.
type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// getOrCreateLocation inserts loc unless a row with its identity exists, then reads that row back.
func getOrCreateLocation(ctx context.Context, q execQuerier, loc relevance.Location) (relevance.Location, error) {
	if loc.Country == "" {
		loc.Country = relevance.DefaultCountry
	}
	args := []any{loc.Country, loc.State, loc.County, loc.City, string(loc.Type)}

	if _, err := q.Exec(ctx, insertLocation, args...); err != nil {
		return relevance.Location{}, fmt.Errorf("get or create location %s: %w", loc.Key(), err)
	}
	var (
		out relevance.Location
		typ string
	)
	if err := q.QueryRow(ctx, selectLocation, args...).Scan(
		&out.ID, &out.Country, &out.State, &out.County, &out.City, &typ,
	); err != nil {
		return relevance.Location{}, fmt.Errorf("get or create location %s: %w", loc.Key(), err)
	}
	out.Type = relevance.LocationType(typ)
	return out, nil
}

// UpdateArticleLocation links an article to a location.
func (s *Store) UpdateArticleLocation(ctx context.Context, articleID string, locationID int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE articles SET location_id = $2, updated_at = now() WHERE id = $1`, articleID, locationID)
	if err != nil {
		return wrap(db.OpExec, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %q: %w", articleID, domain.ErrNotFound)
	}
	return nil
}

// RemoveArticle deletes an article and its review record. Removing a missing article is a no-op.
func (s *Store) RemoveArticle(ctx context.Context, articleID string) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM flagged_content WHERE article_id = $1`, articleID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM articles WHERE id = $1`, articleID)
		return err
	})
	return wrap(db.OpExec, err)
}

// UpsertArticle inserts or replaces an article. Used to seed the articles table.
func (s *Store) UpsertArticle(ctx context.Context, a relevance.Article) error {
	var locID *int64
	if a.Location != nil && a.Location.ID > 0 {
		locID = &a.Location.ID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO articles (id, title, content, html_hints, key_topics, location_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, content = EXCLUDED.content, html_hints = EXCLUDED.html_hints,
			key_topics = EXCLUDED.key_topics, location_id = EXCLUDED.location_id, updated_at = now()`,
		a.ID, a.Title, a.Content, a.HTMLHints, nonNil(a.KeyTopics), locID)
	return wrap(db.OpExec, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
