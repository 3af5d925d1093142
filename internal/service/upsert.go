package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/article-ingest/internal/config"
	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/store"
	"github.com/rs/zerolog"
)

// Upserter writes canonical articles so that re-importing the same slug
// never produces a duplicate document.
type Upserter struct {
	store    store.Store
	strategy string
	docType  string
	idPrefix string
	log      zerolog.Logger
}

// NewUpserter creates an Upserter for the configured strategy and document type
func NewUpserter(st store.Store, cfg config.ImportConfig, log zerolog.Logger) *Upserter {
	return &Upserter{
		store:    st,
		strategy: cfg.Strategy,
		docType:  cfg.DocumentType,
		idPrefix: cfg.DraftIDPrefix,
		log:      log.With().Str("service", "upsert").Logger(),
	}
}

// Strategy returns the strategy the Upserter applies
func (u *Upserter) Strategy() string {
	return u.strategy
}

// WithStrategy returns a copy of u that applies strategy instead
func (u *Upserter) WithStrategy(strategy string) *Upserter {
	c := *u
	c.strategy = strategy
	return &c
}

// Upsert stamps the document type onto doc and writes it with the
// configured strategy. doc must already be validated and canonical.
func (u *Upserter) Upsert(ctx context.Context, doc *models.Article) (*models.Article, error) {
	doc.Type = u.docType
	if doc.Slug.Type == "" {
		doc.Slug.Type = "slug"
	}

	switch u.strategy {
	case config.StrategyReplace:
		doc.ID = DerivedID(u.idPrefix, doc.Slug.Current)
		return u.store.CreateOrReplace(ctx, doc)

	case config.StrategyDeleteCreate:
		q := store.Query{Type: u.docType, Slug: doc.Slug.Current}
		if err := u.store.Delete(ctx, q); err != nil {
			return nil, err
		}
		u.log.Warn().
			Str("slug", doc.Slug.Current).
			Str("query", q.String()).
			Msg("Removed existing documents for slug before create; the new document gets a fresh id")

		doc.ID = ""
		return u.store.Create(ctx, doc)

	default:
		return nil, fmt.Errorf("unknown import strategy %q", u.strategy)
	}
}

// DerivedID returns the deterministic document id for slug. Characters
// outside [A-Za-z0-9._-] are replaced by '-'.
func DerivedID(prefix, slug string) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(slug))
	b.WriteString(prefix)
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
