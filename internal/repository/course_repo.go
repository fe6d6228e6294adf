package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/tutor-finance-backend/internal/common/database"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// CourseRepository 课程仓储
type CourseRepository struct {
	db *gorm.DB
}

// NewCourseRepository 创建课程仓储
func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *CourseRepository) WithTx(tx *gorm.DB) *CourseRepository {
	return &CourseRepository{db: tx}
}

// Create 创建课程
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

// GetByID 根据 ID 获取课程
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// UpdateFields 更新指定字段
func (r *CourseRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Updates(fields).Error
}

// ListByPeriod 获取创建时间落在 [start, end) 的课程，按 ID 升序
func (r *CourseRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]*models.Course, error) {
	var courses []*models.Course
	err := r.db.WithContext(ctx).
		Scopes(database.CreatedBetween("created_at", start, end), database.OrderByIDAsc).
		Find(&courses).Error
	return courses, err
}

// ListByEmployee 获取分配给员工且创建时间落在 [start, end) 的课程
func (r *CourseRepository) ListByEmployee(ctx context.Context, employeeID int64, start, end time.Time) ([]*models.Course, error) {
	var courses []*models.Course
	err := r.db.WithContext(ctx).
		Where("assigned_employee_id = ?", employeeID).
		Scopes(database.CreatedBetween("created_at", start, end), database.OrderByIDAsc).
		Find(&courses).Error
	return courses, err
}

// ListByCustomer 获取客户的全部课程
func (r *CourseRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*models.Course, error) {
	var courses []*models.Course
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Scopes(database.OrderByIDAsc).Find(&courses).Error
	return courses, err
}

// ListRefundsOf 获取针对某课程的退款记录
func (r *CourseRepository) ListRefundsOf(ctx context.Context, courseID int64) ([]*models.Course, error) {
	var refunds []*models.Course
	err := r.db.WithContext(ctx).Where("refund_of_course_id = ?", courseID).Scopes(database.OrderByIDAsc).Find(&refunds).Error
	return refunds, err
}

// ListByIDs 批量获取课程
func (r *CourseRepository) ListByIDs(ctx context.Context, ids []int64) ([]*models.Course, error) {
	var courses []*models.Course
	if len(ids) == 0 {
		return courses, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Scopes(database.OrderByIDAsc).Find(&courses).Error
	return courses, err
}

// CourseFilter 课程查询过滤条件
type CourseFilter struct {
	CustomerID  *int64
	EmployeeID  *int64
	Kind        string // trial / new_course / renewal / refund
	TrialStatus string
	Start       *time.Time
	End         *time.Time // 不含
}

// List 分页获取课程列表
func (r *CourseRepository) List(ctx context.Context, filter *CourseFilter, offset, limit int) ([]*models.Course, int64, error) {
	var courses []*models.Course
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Course{})
	if filter != nil {
		if filter.CustomerID != nil {
			query = query.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.EmployeeID != nil {
			query = query.Where("assigned_employee_id = ?", *filter.EmployeeID)
		}
		switch filter.Kind {
		case "trial":
			query = query.Where("is_trial = ?", true)
		case "renewal":
			query = query.Where("is_trial = ? AND is_renewal = ? AND sessions > 0", false, true)
		case "new_course":
			query = query.Where("is_trial = ? AND is_renewal = ? AND sessions > 0", false, false)
		case "refund":
			query = query.Where("is_trial = ? AND sessions = 0 AND refund_amount > 0", false)
		}
		if filter.TrialStatus != "" {
			query = query.Where("trial_status = ?", filter.TrialStatus)
		}
		if filter.Start != nil {
			query = query.Where("created_at >= ?", *filter.Start)
		}
		if filter.End != nil {
			query = query.Where("created_at < ?", *filter.End)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}
