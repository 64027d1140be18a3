package repositories

import (
	"time"

	"github.com/devconnect/backend/internal/models"
	"gorm.io/gorm"
)

// SnippetFilter narrows ListSnippets. Private snippets are only listed for their author.
type SnippetFilter struct {
	AuthorID uint
	Language string
	Query    string
	ViewerID uint
}

// LanguageCount is the number of public snippets written in a language.
type LanguageCount struct {
	Language      string `json:"language"`
	SnippetsCount int64  `json:"snippets_count"`
}

// SnippetRepository covers snippets and their likes, comments and forks
type SnippetRepository interface {
	CreateSnippet(snippet *models.Snippet) error
	GetSnippetByID(id uint) (*models.Snippet, error)
	ListSnippets(filter SnippetFilter, offset, limit int) ([]models.Snippet, error)
	UpdateSnippet(snippet *models.Snippet) error
	DeleteSnippet(id uint) error
	IncrementViews(id uint) error
	Trending(since time.Time, limit int) ([]models.Snippet, error)
	LanguageCounts() ([]LanguageCount, error)
	Fork(source *models.Snippet, fork *models.Snippet) error

	CreateLike(like *models.SnippetLike) error
	DeleteLike(snippetID, userID uint) error
	HasUserLiked(snippetID, userID uint) (bool, error)

	CreateComment(comment *models.SnippetComment) error
	GetComments(snippetID uint) ([]models.SnippetComment, error)
}

type PostgresSnippetRepository struct {
	db *gorm.DB
}

func NewPostgresSnippetRepository(db *gorm.DB) *PostgresSnippetRepository {
	return &PostgresSnippetRepository{db: db}
}

func (r *PostgresSnippetRepository) CreateSnippet(snippet *models.Snippet) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snippet).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", snippet.AuthorID).
			UpdateColumn("snippets_count", gorm.Expr("snippets_count + 1")).Error
	})
}

func (r *PostgresSnippetRepository) GetSnippetByID(id uint) (*models.Snippet, error) {
	var snippet models.Snippet
	if err := r.db.First(&snippet, id).Error; err != nil {
		return nil, err
	}
	return &snippet, nil
}

func (r *PostgresSnippetRepository) ListSnippets(filter SnippetFilter, offset, limit int) ([]models.Snippet, error) {
	q := r.db.Model(&models.Snippet{})
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.Language != "" {
		q = q.Where("LOWER(language) = LOWER(?)", filter.Language)
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		q = q.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}
	if filter.ViewerID != 0 {
		q = q.Where("visibility = ? OR author_id = ?", models.VisibilityPublic, filter.ViewerID)
	} else {
		q = q.Where("visibility = ?", models.VisibilityPublic)
	}

	var snippets []models.Snippet
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&snippets).Error
	return snippets, err
}

func (r *PostgresSnippetRepository) UpdateSnippet(snippet *models.Snippet) error {
	return r.db.Save(snippet).Error
}

func (r *PostgresSnippetRepository) DeleteSnippet(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var snippet models.Snippet
		if err := tx.First(&snippet, id).Error; err != nil {
			return err
		}
		if err := tx.Where("snippet_id = ?", id).Delete(&models.SnippetLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("snippet_id = ?", id).Delete(&models.SnippetComment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&snippet).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ? AND snippets_count > 0", snippet.AuthorID).
			UpdateColumn("snippets_count", gorm.Expr("snippets_count - 1")).Error
	})
}

func (r *PostgresSnippetRepository) IncrementViews(id uint) error {
	return r.db.Model(&models.Snippet{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

// Trending returns public snippets created since the given time, most liked first.
func (r *PostgresSnippetRepository) Trending(since time.Time, limit int) ([]models.Snippet, error) {
	var snippets []models.Snippet
	err := r.db.Where("visibility = ? AND created_at >= ?", models.VisibilityPublic, since).
		Order("likes_count DESC, views_count DESC, id DESC").
		Limit(limit).
		Find(&snippets).Error
	return snippets, err
}

// LanguageCounts lists the languages of public snippets with how many each has.
func (r *PostgresSnippetRepository) LanguageCounts() ([]LanguageCount, error) {
	var counts []LanguageCount
	err := r.db.Model(&models.Snippet{}).
		Select("LOWER(language) AS language, COUNT(*) AS snippets_count").
		Where("visibility = ? AND language <> ''", models.VisibilityPublic).
		Group("LOWER(language)").
		Order("snippets_count DESC, language ASC").
		Scan(&counts).Error
	return counts, err
}

// Fork inserts fork as a copy of source and bumps source's forks_count in one
// transaction. The caller fills fork's author, title and slug.
func (r *PostgresSnippetRepository) Fork(source *models.Snippet, fork *models.Snippet) error {
	fork.ForkedFromID = &source.ID
	fork.Code = source.Code
	fork.Language = source.Language
	fork.Description = source.Description
	fork.Tags = source.Tags
	if fork.Visibility == "" {
		fork.Visibility = models.VisibilityPublic
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fork).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Snippet{}).Where("id = ?", source.ID).
			UpdateColumn("forks_count", gorm.Expr("forks_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", fork.AuthorID).
			UpdateColumn("snippets_count", gorm.Expr("snippets_count + 1")).Error
	})
}

func (r *PostgresSnippetRepository) CreateLike(like *models.SnippetLike) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(like).Error; err != nil {
			return err
		}
		return tx.Model(&models.Snippet{}).Where("id = ?", like.SnippetID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error
	})
}

func (r *PostgresSnippetRepository) DeleteLike(snippetID, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("snippet_id = ? AND user_id = ?", snippetID, userID).Delete(&models.SnippetLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.Snippet{}).Where("id = ? AND likes_count > 0", snippetID).
			UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).Error
	})
}

func (r *PostgresSnippetRepository) HasUserLiked(snippetID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.SnippetLike{}).Where("snippet_id = ? AND user_id = ?", snippetID, userID).Count(&count).Error
	return count > 0, err
}

func (r *PostgresSnippetRepository) CreateComment(comment *models.SnippetComment) error {
	return r.db.Create(comment).Error
}

func (r *PostgresSnippetRepository) GetComments(snippetID uint) ([]models.SnippetComment, error) {
	var comments []models.SnippetComment
	err := r.db.Where("snippet_id = ?", snippetID).Order("created_at ASC").Find(&comments).Error
	return comments, err
}
