package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meetingminutes/backend/internal/domain/entities"
)

// ActionItemRepository handles action item data operations
type ActionItemRepository struct {
	db *gorm.DB
}

// NewActionItemRepository creates a new action item repository
func NewActionItemRepository(db *gorm.DB) *ActionItemRepository {
	return &ActionItemRepository{db: db}
}

// CreateBatch inserts all items in one transaction. A failed item rolls
// back the whole batch.
func (r *ActionItemRepository) CreateBatch(ctx context.Context, items []*entities.ActionItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(items).Error
	}); err != nil {
		return fmt.Errorf("failed to create action items: %w", err)
	}
	return nil
}

// ListByMeetingID returns all action items for a meeting
func (r *ActionItemRepository) ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error) {
	var items []*entities.ActionItem
	if err := r.db.WithContext(ctx).
		Preload("AssignedToUser").
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list action items: %w", err)
	}
	return items, nil
}

// CountByMeetingID returns the number of action items for a meeting
func (r *ActionItemRepository) CountByMeetingID(ctx context.Context, meetingID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.ActionItem{}).
		Where("meeting_id = ?", meetingID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count action items: %w", err)
	}
	return count, nil
}

// ExistsForAssignee reports whether any item in the meeting is assigned
// to the given user
func (r *ActionItemRepository) ExistsForAssignee(ctx context.Context, meetingID, userID uuid.UUID) (bool, error) {
	var item entities.ActionItem
	err := r.db.WithContext(ctx).
		Select("id").
		Where("meeting_id = ? AND assigned_to_user_id = ?", meetingID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check action item assignee: %w", err)
	}
	return true, nil
}
