package finance

import (
	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// Classification 课程分类
type Classification string

const (
	ClassTrial     Classification = "trial"
	ClassNewCourse Classification = "new_course"
	ClassRenewal   Classification = "renewal"
	ClassRefund    Classification = "refund"
)

// Classifications 报表中各分类的固定顺序
var Classifications = []Classification{ClassNewCourse, ClassRenewal, ClassTrial, ClassRefund}

// CourseVariant 课程记录在载入时确定的形态，下游只按形态分派
type CourseVariant interface {
	Record() *models.Course
	Classification() Classification
}

// TrialCourse 体验课
type TrialCourse struct {
	course *models.Course
}

func (v *TrialCourse) Record() *models.Course         { return v.course }
func (v *TrialCourse) Classification() Classification { return ClassTrial }

// Refunded 是否已退款
func (v *TrialCourse) Refunded() bool {
	return v.course.TrialStatus == models.TrialStatusRefunded
}

// FormalCourse 正式课，首购或续课
type FormalCourse struct {
	course  *models.Course
	renewal bool
}

func (v *FormalCourse) Record() *models.Course { return v.course }

func (v *FormalCourse) Classification() Classification {
	if v.renewal {
		return ClassRenewal
	}
	return ClassNewCourse
}

// RefundEntry 退款记录
type RefundEntry struct {
	course *models.Course
}

func (v *RefundEntry) Record() *models.Course         { return v.course }
func (v *RefundEntry) Classification() Classification { return ClassRefund }

// Classify 将课程记录转换为对应形态
//
// 体验课即使带有退款也仍归为体验课；非体验课且课时为 0、退款金额为正的记录为退款。
// 正式课课时必须大于 0，否则返回 ErrMalformedCourse。
func Classify(course *models.Course) (CourseVariant, error) {
	switch {
	case course.IsTrial:
		return &TrialCourse{course: course}, nil
	case course.IsRefundRecord():
		return &RefundEntry{course: course}, nil
	case course.Sessions <= 0:
		return nil, errors.ErrMalformedCourse.WithMessagef("课程 %d 课时数为 %d", course.ID, course.Sessions)
	case course.IsRenewal:
		return &FormalCourse{course: course, renewal: true}, nil
	default:
		return &FormalCourse{course: course}, nil
	}
}
