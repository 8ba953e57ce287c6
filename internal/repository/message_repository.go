package repository

import (
	"context"

	"github.com/shinyyama/barter-backend/internal/model"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	FindByID(ctx context.Context, id uint64) (*model.Message, error)
	// MarkRead flips the read flag if it is still unset and reports whether
	// this call performed the flip.
	MarkRead(ctx context.Context, id uint64) (bool, error)
	ListReceived(ctx context.Context, uid uint64) ([]model.Message, error)
	ListSent(ctx context.Context, uid uint64) ([]model.Message, error)
	CountUnread(ctx context.Context, uid uint64) (int64, error)
	SetDB(db *gorm.DB)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Omit("Sender", "Recipient", "Listing").Create(msg).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uint64) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender", publicUserColumns).
		Preload("Recipient", publicUserColumns).
		Preload("Listing").
		First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id uint64) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *messageRepository) ListReceived(ctx context.Context, uid uint64) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender", publicUserColumns).
		Preload("Listing").
		Where("to_user_id = ?", uid).
		Order("created_at DESC").
		Order("id DESC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) ListSent(ctx context.Context, uid uint64) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Preload("Recipient", publicUserColumns).
		Preload("Listing").
		Where("from_user_id = ?", uid).
		Order("created_at DESC").
		Order("id DESC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, uid uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("to_user_id = ? AND is_read = ?", uid, false).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func publicUserColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}
