package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mangrovewatch/report-api/internal/model"
	"mangrovewatch/report-api/internal/store"
	"mangrovewatch/report-api/pkg/validators"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	PointsPerReport = 10

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PhotoStore keeps photo payloads outside the database. When the Reports
// service has none, photos are stored inline on the report row.
type PhotoStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Caller is the authenticated identity a request runs as.
type Caller struct {
	ID   string
	Role model.Role
}

func (c Caller) isAdmin() bool {
	return c.Role == model.RoleAdmin
}

func (c Caller) canAccess(r *model.Report) bool {
	return c.isAdmin() || r.UserID == c.ID
}

type SubmitInput struct {
	Category    model.Category
	Description string
	Latitude    *float64
	Longitude   *float64
	Address     string
	Photo       string
}

// ReportPatch holds the mutable fields. Nil means "leave unchanged".
type ReportPatch struct {
	Category    *model.Category
	Description *string
	Status      *model.Status
}

type ListQuery struct {
	Page     int
	PageSize int
	Category model.Category
	Status   model.Status
}

type Reports struct {
	reports store.Reports
	photos  PhotoStore
	now     func() time.Time
}

func NewReports(reports store.Reports, photos PhotoStore) *Reports {
	return &Reports{
		reports: reports,
		photos:  photos,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Reports) WithClock(now func() time.Time) *Reports {
	s.now = now
	return s
}

func (s *Reports) Submit(ctx context.Context, ownerID string, in SubmitInput) (*model.Report, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.Address = strings.TrimSpace(in.Address)
	in.Photo = strings.TrimSpace(in.Photo)

	var missing []string
	if ownerID == "" {
		missing = append(missing, "userId")
	}
	if in.Category == "" {
		missing = append(missing, "category")
	}
	if in.Description == "" {
		missing = append(missing, "description")
	}
	if in.Latitude == nil {
		missing = append(missing, "location.latitude")
	}
	if in.Longitude == nil {
		missing = append(missing, "location.longitude")
	}
	if in.Address == "" {
		missing = append(missing, "location.address")
	}
	if in.Photo == "" {
		missing = append(missing, "photo")
	}

	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	loc := model.Location{
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
		Address:   in.Address,
	}

	if err := validators.Report(in.Category, in.Description, loc, in.Photo); err != nil {
		return nil, err
	}

	reportID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report ID, %w", err)
	}

	now := s.now().UTC()

	r := &model.Report{
		ID:          reportID,
		UserID:      ownerID,
		Category:    in.Category,
		Description: in.Description,
		Location:    loc,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if s.photos != nil {
		raw, contentType, err := validators.DecodePhoto(in.Photo)
		if err != nil {
			return nil, err
		}

		key := "reports/" + reportID
		if err := s.photos.Put(ctx, key, raw, contentType); err != nil {
			return nil, fmt.Errorf("failed to store photo, %w", err)
		}

		r.PhotoKey = key
	} else {
		r.Photo = in.Photo
	}

	if err := s.reports.CreateWithAward(ctx, r, PointsPerReport); err != nil {
		s.dropPhoto(ctx, r.PhotoKey)

		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w, owner %s vanished before points were awarded", ErrInternal, ownerID)
		}

		return nil, err
	}

	zap.L().Debug("Report submitted", zap.String("reportID", r.ID), zap.String("userID", ownerID))

	return r, nil
}

func normalizePage(q *ListQuery) error {
	var errs validators.Errors

	if q.Page < 1 {
		errs = append(errs, validators.FieldError{Field: "page", Message: "must be at least 1"})
	}

	if q.PageSize < 1 {
		errs = append(errs, validators.FieldError{Field: "pageSize", Message: "must be at least 1"})
	}

	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}

	if q.Category != "" {
		errs.Add("category", validators.CategoryValidator(q.Category))
	}

	if q.Status != "" {
		errs.Add("status", validators.StatusValidator(q.Status))
	}

	return errs.Err()
}

func (s *Reports) ListOwn(ctx context.Context, ownerID string, q ListQuery) (*model.Page[model.Report], error) {
	// Category is only a community filter
	q.Category = ""

	if err := normalizePage(&q); err != nil {
		return nil, err
	}

	items, total, err := s.reports.List(ctx, store.ReportFilter{
		UserID: ownerID,
		Status: q.Status,
	}, (q.Page-1)*q.PageSize, q.PageSize, false)
	if err != nil {
		return nil, err
	}

	return &model.Page[model.Report]{
		Items:      items,
		Pagination: model.NewPagination(q.Page, q.PageSize, total),
	}, nil
}

func (s *Reports) ListCommunity(ctx context.Context, q ListQuery) (*model.Page[model.CommunityReport], error) {
	if err := normalizePage(&q); err != nil {
		return nil, err
	}

	items, total, err := s.reports.List(ctx, store.ReportFilter{
		Category: q.Category,
		Status:   q.Status,
	}, (q.Page-1)*q.PageSize, q.PageSize, true)
	if err != nil {
		return nil, err
	}

	out := make([]model.CommunityReport, 0, len(items))
	for i := range items {
		out = append(out, items[i].Community())
	}

	return &model.Page[model.CommunityReport]{
		Items:      out,
		Pagination: model.NewPagination(q.Page, q.PageSize, total),
	}, nil
}

func (s *Reports) Get(ctx context.Context, reportID string, caller Caller) (*model.Report, error) {
	return s.authorized(ctx, reportID, caller)
}

func (s *Reports) Update(ctx context.Context, reportID string, caller Caller, patch ReportPatch) (*model.Report, error) {
	if _, err := s.authorized(ctx, reportID, caller); err != nil {
		return nil, err
	}

	if patch.Status != nil && !caller.isAdmin() {
		return nil, ErrForbidden
	}

	var errs validators.Errors
	fields := map[string]any{}

	if patch.Category != nil {
		errs.Add("category", validators.CategoryValidator(*patch.Category))
		fields["category"] = *patch.Category
	}

	if patch.Description != nil {
		d := strings.TrimSpace(*patch.Description)
		errs.Add("description", validators.DescriptionValidator(d))
		fields["description"] = d
	}

	if patch.Status != nil {
		errs.Add("status", validators.StatusValidator(*patch.Status))
		fields["status"] = *patch.Status
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	fields["updated_at"] = s.now().UTC()

	r, err := s.reports.Update(ctx, reportID, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReportNotFound
		}

		return nil, err
	}

	return r, nil
}

func (s *Reports) Delete(ctx context.Context, reportID string, caller Caller) error {
	r, err := s.authorized(ctx, reportID, caller)
	if err != nil {
		return err
	}

	if err := s.reports.Delete(ctx, reportID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrReportNotFound
		}

		return err
	}

	s.dropPhoto(ctx, r.PhotoKey)

	return nil
}

func (s *Reports) authorized(ctx context.Context, reportID string, caller Caller) (*model.Report, error) {
	r, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReportNotFound
		}

		return nil, fmt.Errorf("failed to find report, %w", err)
	}

	if !caller.canAccess(r) {
		return nil, ErrForbidden
	}

	return r, nil
}

func (s *Reports) dropPhoto(ctx context.Context, key string) {
	if key == "" || s.photos == nil {
		return
	}

	if err := s.photos.Delete(ctx, key); err != nil {
		zap.L().Error("Failed to delete photo object", zap.Error(err), zap.String("key", key))
	}
}
