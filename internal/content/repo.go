// Package content serves the read-mostly catalog tables: categories,
// articles and the nutrition list. Writes come from catalog imports rather
// than end users, so the API is upsert plus lookups.
package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mamacare/engine/internal/repo"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/validate"
)

// UpsertArticleDTO carries import input for one article.
type UpsertArticleDTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" validate:"required"`
	Content     string     `json:"content" validate:"required"`
	Category    string     `json:"category"`
	ImageURL    *string    `json:"image_url"`
	PublishedAt *time.Time `json:"published_at"`
}

// UpsertFoodDTO carries import input for one nutrition entry. Trimester 0
// means any trimester.
type UpsertFoodDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Trimester   int     `json:"trimester" validate:"min=0,max=3"`
	Benefits    string  `json:"benefits"`
	ImageURL    *string `json:"image_url"`
}

// Repository exposes catalog content persistence.
type Repository struct {
	repo.Base

	now func() time.Time
}

// NewRepository constructs a content repo.
func NewRepository(client *db.Client) *Repository {
	return &Repository{Base: repo.NewBase(client), now: time.Now}
}

// ListCategories returns every category in sort order.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := r.DB(ctx).Order("sort_order ASC, name ASC").Find(&out).Error; err != nil {
		return nil, db.Translate(err, schema.TableCategories)
	}
	return out, nil
}

// UpsertCategory writes one category keyed by its unique name.
func (r *Repository) UpsertCategory(ctx context.Context, name string, sortOrder int) error {
	if name == "" {
		return apperrors.New(apperrors.CodeValidation, "category name is required")
	}
	err := r.DB(ctx).Exec(`INSERT INTO categories (id, name, sort_order, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET sort_order = excluded.sort_order`,
		uuid.NewString(), name, sortOrder, r.now().UTC()).Error
	return db.Translate(err, schema.TableCategories)
}

// UpsertArticle writes one article.
func (r *Repository) UpsertArticle(ctx context.Context, dto UpsertArticleDTO) (*models.Article, error) {
	if err := validate.Struct(dto); err != nil {
		return nil, err
	}
	id := dto.ID
	if id == "" {
		id = uuid.NewString()
	}
	err := r.DB(ctx).Exec(`INSERT INTO articles
  (id, title, content, category, image_url, published_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  title = excluded.title,
  content = excluded.content,
  category = excluded.category,
  image_url = excluded.image_url,
  published_at = excluded.published_at`,
		id, dto.Title, dto.Content, dto.Category, dto.ImageURL, dto.PublishedAt, r.now().UTC()).Error
	if err != nil {
		return nil, db.Translate(err, schema.TableArticles)
	}
	return r.GetArticle(ctx, id)
}

// GetArticle loads one article.
func (r *Repository) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	if err := r.DB(ctx).First(&article, "id = ?", id).Error; err != nil {
		return nil, db.Translate(err, schema.TableArticles)
	}
	return &article, nil
}

// ListArticles returns articles newest first, optionally filtered by
// category.
func (r *Repository) ListArticles(ctx context.Context, category *string, limit int) ([]models.Article, error) {
	query := r.DB(ctx).Order("published_at DESC, created_at DESC")
	if category != nil && *category != "" {
		query = query.Where("category = ?", *category)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var out []models.Article
	if err := query.Find(&out).Error; err != nil {
		return nil, db.Translate(err, schema.TableArticles)
	}
	return out, nil
}

// UpsertFood writes one nutrition entry.
func (r *Repository) UpsertFood(ctx context.Context, dto UpsertFoodDTO) (*models.Food, error) {
	if err := validate.Struct(dto); err != nil {
		return nil, err
	}
	id := dto.ID
	if id == "" {
		id = uuid.NewString()
	}
	err := r.DB(ctx).Exec(`INSERT INTO foods
  (id, name, description, trimester, benefits, image_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  name = excluded.name,
  description = excluded.description,
  trimester = excluded.trimester,
  benefits = excluded.benefits,
  image_url = excluded.image_url`,
		id, dto.Name, dto.Description, dto.Trimester, dto.Benefits, dto.ImageURL, r.now().UTC()).Error
	if err != nil {
		return nil, db.Translate(err, schema.TableFoods)
	}
	var food models.Food
	if err := r.DB(ctx).First(&food, "id = ?", id).Error; err != nil {
		return nil, db.Translate(err, schema.TableFoods)
	}
	return &food, nil
}

// ListFoods returns nutrition entries for a trimester. Entries tagged 0
// apply to any trimester and are always included.
func (r *Repository) ListFoods(ctx context.Context, trimester int) ([]models.Food, error) {
	if trimester < 0 || trimester > 3 {
		return nil, apperrors.New(apperrors.CodeValidation, "trimester must be between 0 and 3")
	}
	query := r.DB(ctx).Order("name ASC")
	if trimester > 0 {
		query = query.Where("trimester IN (0, ?)", trimester)
	}
	var out []models.Food
	if err := query.Find(&out).Error; err != nil {
		return nil, db.Translate(err, schema.TableFoods)
	}
	return out, nil
}
