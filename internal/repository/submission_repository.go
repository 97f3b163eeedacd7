package repository

import (
	"context"
	"errors"
	"time"

	"modtraining_backend/internal/model"
	"modtraining_backend/internal/util"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

// SubmissionFilter 列表过滤条件，空值表示不过滤
type SubmissionFilter struct {
	Status model.SubmissionStatus
	UserID string
}

func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

// List 按创建时间倒序，id 作为同一时间戳下的稳定排序键
func (r *SubmissionRepository) List(ctx context.Context, f SubmissionFilter) ([]model.Submission, error) {
	var ss []model.Submission
	query := r.DB.WithContext(ctx).Model(&model.Submission{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	err := query.Order("created_at desc").Order("id desc").Find(&ss).Error
	return ss, err
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	var s model.Submission
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// TransitionStatus 以 compare-and-set 的方式把状态从 from 改为 to。
// 记录不存在返回 ErrNotFound；状态已不是 from 返回 ErrInvalidTransition。
func (r *SubmissionRepository) TransitionStatus(ctx context.Context, id string, from, to model.SubmissionStatus, reviewer string, at time.Time) (*model.Submission, error) {
	res := r.DB.WithContext(ctx).
		Model(&model.Submission{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":      to,
			"reviewed_by": reviewer,
			"reviewed_at": at,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, util.ErrInvalidTransition
	}

	return r.FindByID(ctx, id)
}

type statusCount struct {
	Status model.SubmissionStatus
	Count  int64
}

func (r *SubmissionRepository) CountByStatus(ctx context.Context) (map[model.SubmissionStatus]int64, error) {
	var rows []statusCount
	err := r.DB.WithContext(ctx).
		Model(&model.Submission{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[model.SubmissionStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
