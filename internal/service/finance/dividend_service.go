package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/common/logger"
	"github.com/dumeirei/tutor-finance-backend/internal/common/metrics"
	"github.com/dumeirei/tutor-finance-backend/internal/common/tracing"
	"github.com/dumeirei/tutor-finance-backend/internal/common/utils"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
)

// 分红确认结果，用作指标标签
const (
	confirmCreated   = "created"
	confirmUpdated   = "updated"
	confirmUnchanged = "unchanged"
	confirmConflict  = "conflict"
	confirmFailed    = "failed"
)

// DividendService 股东分红服务
type DividendService struct {
	db           *gorm.DB
	dividendRepo *repository.DividendRepository
	reports      *ReportService
	settings     ConfigSource
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewDividendService 创建股东分红服务
func NewDividendService(
	db *gorm.DB,
	dividendRepo *repository.DividendRepository,
	reports *ReportService,
	settings ConfigSource,
	m *metrics.Metrics,
	log *zap.Logger,
) *DividendService {
	return &DividendService{
		db:           db,
		dividendRepo: dividendRepo,
		reports:      reports,
		settings:     settings,
		metrics:      m,
		logger:       logger.OrDefault(log).With(logger.Module("finance.dividend")),
	}
}

// DistributionView 区间利润分成预览
type DistributionView struct {
	Period       PeriodInfo    `json:"period"`
	Profit       ProfitSection `json:"profit"`
	Distribution *Distribution `json:"distribution"`
	Warnings     []Warning     `json:"warnings"`
}

// Preview 计算区间分成但不落库
func (s *DividendService) Preview(ctx context.Context, period Period) (*DistributionView, error) {
	report, err := s.reports.Generate(ctx, period)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Effective(ctx)
	if err != nil {
		return nil, err
	}
	dist, err := Distribute(report.Profit, cfg)
	if err != nil {
		return nil, err
	}
	return &DistributionView{
		Period:       report.Period,
		Profit:       report.Profit,
		Distribution: dist,
		Warnings:     report.Warnings,
	}, nil
}

// ConfirmResult 月度分红确认结果
type ConfirmResult struct {
	Year         int                      `json:"year"`
	Month        int                      `json:"month"`
	Distribution *Distribution            `json:"distribution"`
	Records      []*models.DividendRecord `json:"records"`
	Created      int                      `json:"created"`
	Updated      int                      `json:"updated"`
	Unchanged    int                      `json:"unchanged"`
	Warnings     []Warning                `json:"warnings"`
}

// ConfirmMonth 确认月度分红
//
// 每位股东一条待支付记录，已存在的待支付记录按最新计算结果更新，数值相同则不写。
// 该月该股东存在已支付或已取消的记录时整体拒绝，不做任何写入。
// 记录与汇总在同一事务内完成。
func (s *DividendService) ConfirmMonth(ctx context.Context, year, month int) (result *ConfirmResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "finance.confirm_dividend", tracing.WithDividendMonth(year, month))
	defer func() { tracing.EndSpan(span, err) }()

	period, err := MonthPeriod(year, month)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.Generate(ctx, period)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Effective(ctx)
	if err != nil {
		return nil, err
	}
	dist, err := Distribute(report.Profit, cfg)
	if err != nil {
		return nil, err
	}

	result = &ConfirmResult{Year: year, Month: month, Distribution: dist, Warnings: report.Warnings}
	dividendDate := utils.LastDayOfMonth(year, time.Month(month), time.Local)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.dividendRepo.WithTx(tx)
		existing, err := repo.ListByMonth(ctx, year, month)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		shares := dist.Shares()
		current := make(map[string]*models.DividendRecord, len(shares))
		for _, share := range shares {
			for _, rec := range existing {
				if rec.ShareholderName != share.Name {
					continue
				}
				if rec.IsClosed() {
					return errors.ErrDividendConflict.WithMessagef("%s %04d-%02d 的分红%s", share.Name, year, month, statusLabel(rec.Status))
				}
				if current[share.Name] == nil {
					current[share.Name] = rec
				}
			}
		}

		for _, share := range shares {
			record, outcome, err := s.upsertRecord(ctx, repo, current[share.Name], share, report.Profit.Total, year, month, dividendDate)
			if err != nil {
				return err
			}
			switch outcome {
			case confirmCreated:
				result.Created++
			case confirmUpdated:
				result.Updated++
			default:
				result.Unchanged++
			}
			result.Records = append(result.Records, record)
		}

		for _, share := range shares {
			if _, err := s.refreshSummary(ctx, repo, share.Name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.ErrDividendConflict.Is(err) {
			s.metrics.RecordDividendConfirmation(confirmConflict)
		} else {
			s.metrics.RecordDividendConfirmation(confirmFailed)
		}
		s.logger.Warn("分红确认失败", logger.Int("year", year), logger.Int("month", month), logger.Err(err))
		return nil, err
	}

	outcome := confirmUnchanged
	switch {
	case result.Created > 0:
		outcome = confirmCreated
	case result.Updated > 0:
		outcome = confirmUpdated
	}
	s.metrics.RecordDividendConfirmation(outcome)
	s.logger.Info("分红已确认",
		logger.Int("year", year),
		logger.Int("month", month),
		logger.String("result", outcome),
		logger.Amount("profit_total", report.Profit.Total),
	)
	return result, nil
}

func (s *DividendService) upsertRecord(
	ctx context.Context,
	repo *repository.DividendRepository,
	existing *models.DividendRecord,
	share ShareholderShare,
	totalProfit decimal.Decimal,
	year, month int,
	dividendDate time.Time,
) (*models.DividendRecord, string, error) {
	if existing == nil {
		record := &models.DividendRecord{
			ShareholderName:     share.Name,
			PeriodYear:          year,
			PeriodMonth:         month,
			CalculatedProfit:    share.Amount,
			ActualDividend:      share.Amount,
			DividendDate:        dividendDate,
			Status:              models.DividendStatusPending,
			SnapshotTotalProfit: totalProfit,
			SnapshotProfitRatio: share.Ratio,
		}
		if err := repo.Create(ctx, record); err != nil {
			return nil, "", errors.ErrDatabaseError.WithError(err)
		}
		return record, confirmCreated, nil
	}

	if existing.CalculatedProfit.Equal(share.Amount) &&
		existing.ActualDividend.Equal(share.Amount) &&
		existing.SnapshotTotalProfit.Equal(totalProfit) &&
		existing.SnapshotProfitRatio == share.Ratio {
		return existing, confirmUnchanged, nil
	}

	fields := map[string]interface{}{
		"calculated_profit":     share.Amount,
		"actual_dividend":       share.Amount,
		"snapshot_total_profit": totalProfit,
		"snapshot_profit_ratio": share.Ratio,
	}
	if err := repo.UpdateFields(ctx, existing.ID, fields); err != nil {
		return nil, "", errors.ErrDatabaseError.WithError(err)
	}
	updated, err := repo.GetByID(ctx, existing.ID)
	if err != nil {
		return nil, "", errors.ErrDatabaseError.WithError(err)
	}
	return updated, confirmUpdated, nil
}

// PayRequest 标记支付请求
type PayRequest struct {
	ActualDividend *decimal.Decimal `json:"actual_dividend"`
	PaymentMethod  string           `json:"payment_method" binding:"required"`
	Remarks        string           `json:"remarks"`
}

// MarkPaid 待支付 → 已支付，支付后记录不再变动
func (s *DividendService) MarkPaid(ctx context.Context, id int64, req *PayRequest) (*models.DividendRecord, error) {
	if req.ActualDividend != nil && req.ActualDividend.IsNegative() {
		return nil, errors.ErrInvalidParams.WithMessage("实际分红不能为负数")
	}
	return s.transition(ctx, id, func(record *models.DividendRecord) map[string]interface{} {
		fields := map[string]interface{}{
			"status":         models.DividendStatusPaid,
			"payment_method": req.PaymentMethod,
		}
		if req.ActualDividend != nil {
			fields["actual_dividend"] = roundMoney(*req.ActualDividend)
		}
		if req.Remarks != "" {
			fields["remarks"] = req.Remarks
		}
		return fields
	})
}

// Cancel 待支付 → 已取消
func (s *DividendService) Cancel(ctx context.Context, id int64, remarks string) (*models.DividendRecord, error) {
	return s.transition(ctx, id, func(record *models.DividendRecord) map[string]interface{} {
		fields := map[string]interface{}{"status": models.DividendStatusCancelled}
		if remarks != "" {
			fields["remarks"] = remarks
		}
		return fields
	})
}

// transition 只允许从待支付状态流转，同一事务内刷新汇总
func (s *DividendService) transition(ctx context.Context, id int64, change func(*models.DividendRecord) map[string]interface{}) (*models.DividendRecord, error) {
	var updated *models.DividendRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.dividendRepo.WithTx(tx)
		record, err := repo.GetByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrDividendNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		if record.Status != models.DividendStatusPending {
			return errors.ErrDividendStatus.WithMessagef("分红记录当前状态为%s", statusLabel(record.Status))
		}

		if err := repo.UpdateFields(ctx, id, change(record)); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if updated, err = repo.GetByID(ctx, id); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		_, err = s.refreshSummary(ctx, repo, record.ShareholderName)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("分红状态变更",
		logger.Shareholder(updated.ShareholderName),
		logger.Int64("record_id", updated.ID),
		logger.String("status", updated.Status),
	)
	return updated, nil
}

// ListRecords 分页查询分红记录
func (s *DividendService) ListRecords(ctx context.Context, filter *repository.DividendFilter, offset, limit int) ([]*models.DividendRecord, int64, error) {
	records, total, err := s.dividendRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return records, total, nil
}

// ListSummaries 全部股东汇总
func (s *DividendService) ListSummaries(ctx context.Context) ([]*models.DividendSummary, error) {
	summaries, err := s.dividendRepo.ListSummaries(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return summaries, nil
}

// RefreshSummary 重算单个股东的汇总
func (s *DividendService) RefreshSummary(ctx context.Context, name string) (*models.DividendSummary, error) {
	var summary *models.DividendSummary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		summary, err = s.refreshSummary(ctx, s.dividendRepo.WithTx(tx), name)
		return err
	})
	return summary, err
}

// RefreshAll 重算全部股东汇总，每个股东一个事务
func (s *DividendService) RefreshAll(ctx context.Context) (int, error) {
	names, err := s.dividendRepo.ListShareholderNames(ctx)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	for _, name := range names {
		if _, err := s.RefreshSummary(ctx, name); err != nil {
			return 0, err
		}
	}
	return len(names), nil
}

// refreshSummary 由分红记录重算汇总，数值未变时不写
func (s *DividendService) refreshSummary(ctx context.Context, repo *repository.DividendRepository, name string) (*models.DividendSummary, error) {
	records, err := repo.ListByShareholder(ctx, name)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	next := &models.DividendSummary{
		ShareholderName: name,
		TotalCalculated: decimal.Zero,
		TotalPaid:       decimal.Zero,
		TotalPending:    decimal.Zero,
	}
	// 已取消的记录计入测算总额与条数，不计入已付和待付
	for _, rec := range records {
		next.RecordCount++
		next.TotalCalculated = next.TotalCalculated.Add(rec.CalculatedProfit)
		switch rec.Status {
		case models.DividendStatusPaid:
			next.TotalPaid = next.TotalPaid.Add(rec.ActualDividend)
		case models.DividendStatusPending:
			next.TotalPending = next.TotalPending.Add(rec.ActualDividend)
		}
		if next.LastDividendDate == nil || rec.DividendDate.After(*next.LastDividendDate) {
			date := rec.DividendDate
			next.LastDividendDate = &date
		}
	}

	current, err := repo.GetSummary(ctx, name)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if current != nil {
		if sameSummary(current, next) {
			return current, nil
		}
		next.ID = current.ID
	}
	if err := repo.SaveSummary(ctx, next); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return next, nil
}

func sameSummary(a, b *models.DividendSummary) bool {
	if !a.TotalCalculated.Equal(b.TotalCalculated) ||
		!a.TotalPaid.Equal(b.TotalPaid) ||
		!a.TotalPending.Equal(b.TotalPending) ||
		a.RecordCount != b.RecordCount {
		return false
	}
	if a.LastDividendDate == nil || b.LastDividendDate == nil {
		return a.LastDividendDate == nil && b.LastDividendDate == nil
	}
	return a.LastDividendDate.Equal(*b.LastDividendDate)
}

func statusLabel(status string) string {
	switch status {
	case models.DividendStatusPaid:
		return "已支付"
	case models.DividendStatusCancelled:
		return "已取消"
	case models.DividendStatusPending:
		return "待支付"
	}
	return status
}
