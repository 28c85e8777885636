package store

import (
	"context"
	"fmt"

	"mangrovewatch/report-api/internal/model"

	"gorm.io/gorm"
)

type ReportFilter struct {
	UserID   string
	Category model.Category
	Status   model.Status
}

type Reports interface {
	// CreateWithAward inserts r and adds points to its owner in one
	// transaction. ErrNotFound means the owner row was missing and nothing
	// was written.
	CreateWithAward(ctx context.Context, r *model.Report, points int64) error
	// List returns one page ordered newest first together with the total
	// number of matching rows. withReporter preloads the owner's name.
	List(ctx context.Context, f ReportFilter, offset, limit int, withReporter bool) ([]model.Report, int64, error)
	FindByID(ctx context.Context, id string) (*model.Report, error)
	Update(ctx context.Context, id string, fields map[string]any) (*model.Report, error)
	Delete(ctx context.Context, id string) error
}

type reportStore struct {
	db *gorm.DB
}

func NewReports(db *gorm.DB) Reports {
	return &reportStore{db: db}
}

func (s *reportStore) CreateWithAward(ctx context.Context, r *model.Report, points int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("failed to create report, %w", translate(err))
		}

		res := tx.Model(&model.User{}).
			Where("id = ?", r.UserID).
			UpdateColumn("points", gorm.Expr("points + ?", points))
		if res.Error != nil {
			return fmt.Errorf("failed to award points, %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})

	return err
}

func (s *reportStore) filtered(ctx context.Context, f ReportFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.Report{})

	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}

	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	return q
}

func (s *reportStore) List(ctx context.Context, f ReportFilter, offset, limit int, withReporter bool) ([]model.Report, int64, error) {
	var total int64
	if err := s.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reports, %w", err)
	}

	reports := []model.Report{}
	if total == 0 {
		return reports, 0, nil
	}

	q := s.filtered(ctx, f).
		Order("created_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit)

	if withReporter {
		q = q.Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		})
	}

	if err := q.Find(&reports).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reports, %w", err)
	}

	return reports, total, nil
}

func (s *reportStore) FindByID(ctx context.Context, id string) (*model.Report, error) {
	var r model.Report

	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&r).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &r, nil
}

func (s *reportStore) Update(ctx context.Context, id string, fields map[string]any) (*model.Report, error) {
	var r model.Report

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Report{}).
			Where("id = ?", id).
			Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("failed to update report, %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		return translate(tx.Where("id = ?", id).First(&r).Error)
	})
	if err != nil {
		return nil, err
	}

	return &r, nil
}

func (s *reportStore) Delete(ctx context.Context, id string) error {
	r := s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Report{})
	if r.Error != nil {
		return fmt.Errorf("failed to delete report, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
