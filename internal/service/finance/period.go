package finance

import (
	"fmt"
	"time"

	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/common/utils"
)

// PeriodType 统计区间类型
type PeriodType string

const (
	PeriodMonth   PeriodType = "month"
	PeriodQuarter PeriodType = "quarter"
	PeriodYear    PeriodType = "year"
	PeriodRange   PeriodType = "range"
)

const dateLayout = "2006-01-02"

// Period 统计区间，起止日期均包含在内
type Period struct {
	Type  PeriodType
	Start time.Time
	End   time.Time
}

// MonthPeriod 自然月
func MonthPeriod(year, month int) (Period, error) {
	if year < 1 || month < 1 || month > 12 {
		return Period{}, errors.ErrPeriodInvalid.WithMessagef("无效的月份 %d-%d", year, month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	return Period{
		Type:  PeriodMonth,
		Start: start,
		End:   utils.LastDayOfMonth(year, time.Month(month), time.Local),
	}, nil
}

// QuarterPeriod 自然季度
func QuarterPeriod(year, quarter int) (Period, error) {
	if year < 1 || quarter < 1 || quarter > 4 {
		return Period{}, errors.ErrPeriodInvalid.WithMessagef("无效的季度 %d-Q%d", year, quarter)
	}
	firstMonth := time.Month((quarter-1)*3 + 1)
	return Period{
		Type:  PeriodQuarter,
		Start: time.Date(year, firstMonth, 1, 0, 0, 0, 0, time.Local),
		End:   utils.LastDayOfMonth(year, firstMonth+2, time.Local),
	}, nil
}

// YearPeriod 自然年
func YearPeriod(year int) (Period, error) {
	if year < 1 {
		return Period{}, errors.ErrPeriodInvalid.WithMessagef("无效的年份 %d", year)
	}
	return Period{
		Type:  PeriodYear,
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.Local),
	}, nil
}

// RangePeriod 任意日期区间
func RangePeriod(start, end time.Time) (Period, error) {
	start = utils.StartOfDay(start)
	end = utils.StartOfDay(end)
	if end.Before(start) {
		return Period{}, errors.ErrPeriodInvalid.WithMessage("结束日期不能早于开始日期")
	}
	return Period{Type: PeriodRange, Start: start, End: end}, nil
}

// Bounds 查询用的半开区间 [start, end+1天)
func (p Period) Bounds() (time.Time, time.Time) {
	return p.Start, p.End.AddDate(0, 0, 1)
}

// Days 区间包含的天数
func (p Period) Days() int {
	_, end := p.Bounds()
	return int(end.Sub(p.Start).Hours()/24 + 0.5)
}

// Contains 日期是否在区间内
func (p Period) Contains(t time.Time) bool {
	start, end := p.Bounds()
	return !t.Before(start) && t.Before(end)
}

func (p Period) String() string {
	return fmt.Sprintf("%s~%s", p.Start.Format(dateLayout), p.End.Format(dateLayout))
}
