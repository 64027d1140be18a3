package repositories

import (
	"github.com/devconnect/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for post comment operations
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentByID(id uint) (*models.Comment, error)
	GetCommentsByPostID(postID string) ([]models.Comment, error)
	UpdateComment(comment *models.Comment) error
	DeleteComment(id uint) (int, error)
	DeleteByPostID(postID string) error
}

type PostgresCommentRepository struct {
	db *gorm.DB
}

func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

func (r *PostgresCommentRepository) GetCommentByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetCommentsByPostID returns the thread oldest first so replies follow their parents.
func (r *PostgresCommentRepository) GetCommentsByPostID(postID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *PostgresCommentRepository) UpdateComment(comment *models.Comment) error {
	return r.db.Save(comment).Error
}

// DeleteComment removes the comment together with its replies and their likes,
// returning how many comments were removed.
func (r *PostgresCommentRepository) DeleteComment(id uint) (int, error) {
	var ids []uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Comment{}).Where("id = ? OR parent_id = ?", id, id).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrNotFound
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// DeleteByPostID removes a post's whole comment thread and the likes on it.
func (r *PostgresCommentRepository) DeleteByPostID(postID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		threadIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", postID)
		if err := tx.Where("comment_id IN (?)", threadIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error
	})
}
