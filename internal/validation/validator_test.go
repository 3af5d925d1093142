package validation

import (
	"errors"
	"testing"

	"github.com/article-ingest/internal/models"
)

func validArticle() *models.Article {
	return &models.Article{
		Title: "Medicaid Expansion Outlook",
		Slug:  models.Slug{Current: "medicaid-expansion-outlook"},
		Body:  []interface{}{models.Block{"_type": "block"}},
	}
}

func TestValidateArticle(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(a *models.Article)
		wantField string
	}{
		{
			name:   "valid article",
			mutate: func(a *models.Article) {},
		},
		{
			name:      "missing title",
			mutate:    func(a *models.Article) { a.Title = "" },
			wantField: "title",
		},
		{
			name:      "missing slug",
			mutate:    func(a *models.Article) { a.Slug = models.Slug{} },
			wantField: "slug.current",
		},
		{
			name:      "missing body",
			mutate:    func(a *models.Article) { a.Body = nil },
			wantField: "body",
		},
		{
			name:      "empty body",
			mutate:    func(a *models.Article) { a.Body = []interface{}{} },
			wantField: "body",
		},
		{
			name: "title reported before body",
			mutate: func(a *models.Article) {
				a.Title = ""
				a.Body = nil
			},
			wantField: "title",
		},
		{
			name: "malformed blocks are not inspected",
			mutate: func(a *models.Article) {
				a.Body = []interface{}{models.Block{"unexpected": true}, "stray text"}
			},
		},
		{
			name: "enumerated fields are left to the store",
			mutate: func(a *models.Article) {
				a.Pillar = "Astrology"
				a.ImpactLevel = "Unknown"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article := validArticle()
			tt.mutate(article)

			err := ValidateArticle(article)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Expected field %q, got %q", tt.wantField, vErr.Field)
			}
		})
	}
}

func TestValidateArticle_Nil(t *testing.T) {
	var vErr *ValidationError
	if !errors.As(ValidateArticle(nil), &vErr) {
		t.Fatal("Expected ValidationError for nil article")
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "body", Message: "is required"}
	if err.Error() != "validation: body is required" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}
