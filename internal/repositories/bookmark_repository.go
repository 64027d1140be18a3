package repositories

import (
	"github.com/devconnect/backend/internal/models"
	"gorm.io/gorm"
)

// BookmarkRepository defines the interface for bookmarked post operations
type BookmarkRepository interface {
	CreateBookmark(bookmark *models.Bookmark) error
	DeleteBookmark(userID uint, postID string) error
	IsBookmarked(userID uint, postID string) (bool, error)
	GetBookmarksByUser(userID uint) ([]models.Bookmark, error)
	GetBookmarkedPostIDs(userID uint, postIDs []string) (map[string]bool, error)
	DeleteByPostID(postID string) error
}

type PostgresBookmarkRepository struct {
	db *gorm.DB
}

func NewPostgresBookmarkRepository(db *gorm.DB) *PostgresBookmarkRepository {
	return &PostgresBookmarkRepository{db: db}
}

func (r *PostgresBookmarkRepository) CreateBookmark(bookmark *models.Bookmark) error {
	return r.db.Create(bookmark).Error
}

func (r *PostgresBookmarkRepository) DeleteBookmark(userID uint, postID string) error {
	res := r.db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Bookmark{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresBookmarkRepository) IsBookmarked(userID uint, postID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Bookmark{}).Where("user_id = ? AND post_id = ?", userID, postID).Count(&count).Error
	return count > 0, err
}

func (r *PostgresBookmarkRepository) GetBookmarksByUser(userID uint) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&bookmarks).Error
	return bookmarks, err
}

// GetBookmarkedPostIDs reports which of postIDs the user has bookmarked.
func (r *PostgresBookmarkRepository) GetBookmarkedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(postIDs) == 0 {
		return result, nil
	}
	var ids []string
	err := r.db.Model(&models.Bookmark{}).Where("user_id = ? AND post_id IN ?", userID, postIDs).Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// DeleteByPostID removes every bookmark of a post
func (r *PostgresBookmarkRepository) DeleteByPostID(postID string) error {
	return r.db.Where("post_id = ?", postID).Delete(&models.Bookmark{}).Error
}
