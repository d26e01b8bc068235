package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"github.com/wfunc/fruity-slot/internal/game/slot"
	"github.com/wfunc/fruity-slot/internal/logger"
	"github.com/wfunc/fruity-slot/internal/models"
	"gorm.io/gorm"
)

// SpinRepository 旋转流水仓储接口
type SpinRepository interface {
	BaseRepository
	Create(ctx context.Context, record *models.SpinRecord) error
	FindBySpinID(ctx context.Context, spinID string) (*models.SpinRecord, error)
	List(ctx context.Context, sessionID string, pagination *Pagination) ([]*models.SpinRecord, error)
	Stats(ctx context.Context, sessionID string) (*SpinStatistics, error)
	RecordSpin(ctx context.Context, sessionID string, result *slot.SpinResult, balanceAfter int64) error
}

// SpinStatistics 旋转统计
type SpinStatistics struct {
	TotalSpins   int64   `json:"total_spins"`
	TotalBet     int64   `json:"total_bet"`
	TotalPayout  int64   `json:"total_payout"`
	WinCount     int64   `json:"win_count"`
	MegaJackpots int64   `json:"mega_jackpots"`
	MaxWin       int64   `json:"max_win"`
	RTP          float64 `json:"rtp"`
	HitFrequency float64 `json:"hit_frequency"`
}

// spinRepo 旋转流水仓储实现
type spinRepo struct {
	*BaseRepo
}

// NewSpinRepository 创建旋转流水仓储
func NewSpinRepository(db *gorm.DB) SpinRepository {
	return &spinRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 写入一条流水
func (r *spinRepo) Create(ctx context.Context, record *models.SpinRecord) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Create(record).Error
	logger.LogDatabaseOperation("create", "spin_records", time.Since(start), err)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "写入旋转流水失败")
	}
	return nil
}

// RecordSpin 实现会话的流水记录接口
func (r *spinRepo) RecordSpin(ctx context.Context, sessionID string, result *slot.SpinResult, balanceAfter int64) error {
	return r.Create(ctx, models.NewSpinRecord(sessionID, result, balanceAfter))
}

// FindBySpinID 根据旋转ID查找
func (r *spinRepo) FindBySpinID(ctx context.Context, spinID string) (*models.SpinRecord, error) {
	var record models.SpinRecord
	err := r.db.WithContext(ctx).Where("spin_id = ?", spinID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrNotFound, "旋转记录不存在: %s", spinID)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &record, nil
}

// List 按时间倒序分页查询，sessionID 为空时查询全部
func (r *spinRepo) List(ctx context.Context, sessionID string, pagination *Pagination) ([]*models.SpinRecord, error) {
	if pagination == nil {
		pagination = NewPagination(1, 10)
	}

	if err := r.scope(ctx, sessionID).Count(&pagination.Total).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	var records []*models.SpinRecord
	err := r.scope(ctx, sessionID).
		Scopes(Paginate(pagination)).
		Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return records, nil
}

// Stats 汇总统计，sessionID 为空时统计全部
func (r *spinRepo) Stats(ctx context.Context, sessionID string) (*SpinStatistics, error) {
	var result struct {
		TotalSpins   int64
		TotalBet     int64
		TotalPayout  int64
		WinCount     int64
		MegaJackpots int64
		MaxWin       int64
	}

	err := r.scope(ctx, sessionID).Select(`
		COUNT(*) as total_spins,
		COALESCE(SUM(bet), 0) as total_bet,
		COALESCE(SUM(payout), 0) as total_payout,
		COALESCE(SUM(CASE WHEN payout > 0 THEN 1 ELSE 0 END), 0) as win_count,
		COALESCE(SUM(CASE WHEN mega_jackpot THEN 1 ELSE 0 END), 0) as mega_jackpots,
		COALESCE(MAX(payout), 0) as max_win
	`).Scan(&result).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	stats := &SpinStatistics{
		TotalSpins:   result.TotalSpins,
		TotalBet:     result.TotalBet,
		TotalPayout:  result.TotalPayout,
		WinCount:     result.WinCount,
		MegaJackpots: result.MegaJackpots,
		MaxWin:       result.MaxWin,
	}
	if stats.TotalBet > 0 {
		stats.RTP = float64(stats.TotalPayout) / float64(stats.TotalBet)
	}
	if stats.TotalSpins > 0 {
		stats.HitFrequency = float64(stats.WinCount) / float64(stats.TotalSpins)
	}
	return stats, nil
}

func (r *spinRepo) scope(ctx context.Context, sessionID string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.SpinRecord{})
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	return query
}

// WithTx 使用事务
func (r *spinRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &spinRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
