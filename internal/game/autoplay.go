package game

import (
	"context"
	"time"

	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"go.uber.org/zap"
)

// AutoPlayer 自动旋转
//
// 按固定节奏重复发起旋转，只在开启自动旋转、处于待机且余额足够时才真正旋转。
// 间隔随快速模式切换，在下一次触发后生效。
type AutoPlayer struct {
	session *Session
	logger  *zap.Logger
}

// NewAutoPlayer 创建自动旋转器
func NewAutoPlayer(session *Session) *AutoPlayer {
	return &AutoPlayer{
		session: session,
		logger:  session.logger.Named("autoplay"),
	}
}

// Run 阻塞运行直到 ctx 结束
func (a *AutoPlayer) Run(ctx context.Context) error {
	interval := a.session.AutoSpinInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.Tick(ctx)
			if next := a.session.AutoSpinInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// Tick 执行一次自动旋转判断，返回是否旋转
func (a *AutoPlayer) Tick(ctx context.Context) bool {
	if !a.session.AutoSpin() {
		return false
	}
	result, err := a.session.Spin(ctx)
	if err != nil {
		switch apperrors.GetCode(err) {
		case apperrors.ErrInsufficientCoins, apperrors.ErrSpinInProgress:
			a.logger.Debug("跳过自动旋转", zap.Error(err))
		default:
			a.logger.Error("自动旋转失败", zap.Error(err))
		}
		return false
	}
	a.logger.Debug("自动旋转", zap.String("spin_id", result.ID), zap.Int64("payout", result.Payout))
	return true
}
