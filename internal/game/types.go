package game

import (
	"context"
	"time"

	"github.com/wfunc/fruity-slot/internal/config"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"github.com/wfunc/fruity-slot/internal/game/slot"
)

// Settings 会话的下注与余额规则
type Settings struct {
	InitialBalance       int64         `json:"initial_balance"`
	DefaultBet           int64         `json:"default_bet"`
	BetStep              int64         `json:"bet_step"`
	MinBet               int64         `json:"min_bet"`
	TopUpAmount          int64         `json:"top_up_amount"`
	AutoSpinInterval     time.Duration `json:"auto_spin_interval"`
	FastAutoSpinInterval time.Duration `json:"fast_auto_spin_interval"`
	FastSpin             bool          `json:"fast_spin"`
}

// DefaultSettings 默认规则：余额10000，投注500起步，步长500
func DefaultSettings() Settings {
	return Settings{
		InitialBalance:       10000,
		DefaultBet:           500,
		BetStep:              500,
		MinBet:               500,
		TopUpAmount:          10000,
		AutoSpinInterval:     2 * time.Second,
		FastAutoSpinInterval: 800 * time.Millisecond,
	}
}

// SettingsFromConfig 由配置文件的 game 段构建
func SettingsFromConfig(c config.GameConfig) Settings {
	return Settings{
		InitialBalance:       c.InitialBalance,
		DefaultBet:           c.DefaultBet,
		BetStep:              c.BetStep,
		MinBet:               c.MinBet,
		TopUpAmount:          c.TopUpAmount,
		AutoSpinInterval:     c.AutoSpinInterval,
		FastAutoSpinInterval: c.FastAutoSpinInterval,
		FastSpin:             c.FastSpin,
	}
}

// Validate 校验规则
func (s Settings) Validate() error {
	switch {
	case s.MinBet <= 0 || s.BetStep <= 0:
		return apperrors.Newf(apperrors.ErrConfigValidate, "min_bet=%d bet_step=%d", s.MinBet, s.BetStep)
	case s.DefaultBet < s.MinBet:
		return apperrors.Newf(apperrors.ErrConfigValidate, "default_bet %d 小于 min_bet %d", s.DefaultBet, s.MinBet)
	case s.InitialBalance < 0 || s.TopUpAmount <= 0:
		return apperrors.Newf(apperrors.ErrConfigValidate, "initial_balance=%d top_up_amount=%d", s.InitialBalance, s.TopUpAmount)
	case s.AutoSpinInterval <= 0 || s.FastAutoSpinInterval <= 0:
		return apperrors.New(apperrors.ErrConfigValidate, "自动旋转间隔必须大于0")
	}
	return nil
}

// NewEngineFromConfig 按配置尺寸构建规则引擎，支付线与尺寸不符时立即失败
func NewEngineFromConfig(c config.GameConfig) (*slot.Engine, error) {
	mc := slot.GetDefaultConfig()
	mc.Reels = c.Reels
	mc.Rows = c.Rows
	engine, err := slot.NewEngine(mc, slot.NewRandomGenerator(c.Seed))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidMachine)
	}
	return engine, nil
}

// EventType 推送事件类型
type EventType string

const (
	EventTypeState         EventType = "state"
	EventTypeSpinStart     EventType = "spin_start"
	EventTypeReelStop      EventType = "reel_stop"
	EventTypeSpinResult    EventType = "spin_result"
	EventTypeBalanceUpdate EventType = "balance_update"
	EventTypeError         EventType = "error"
)

// Event 会话事件
type Event struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Listener 事件监听器，在会话锁内同步调用，不能回调会话
type Listener func(Event)

// SpinStartData spin_start 事件数据
type SpinStartData struct {
	SpinID   string `json:"spin_id"`
	Bet      int64  `json:"bet"`
	FastSpin bool   `json:"fast_spin"`
}

// ReelStopData reel_stop 事件数据
type ReelStopData struct {
	SpinID  string        `json:"spin_id"`
	Reel    int           `json:"reel"`
	Symbols []slot.Symbol `json:"symbols"`
}

// BalanceData balance_update 事件数据
type BalanceData struct {
	Balance int64  `json:"balance"`
	Bet     int64  `json:"bet"`
	Delta   int64  `json:"delta"`
	Reason  string `json:"reason"` // bet / payout / top_up / refund
}

// ErrorData error 事件数据
type ErrorData struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// SessionState 会话快照
type SessionState struct {
	SessionID        string           `json:"session_id"`
	State            GameState        `json:"state"`
	Spinning         bool             `json:"spinning"`
	Grid             slot.Grid        `json:"grid"`
	Balance          int64            `json:"balance"`
	Bet              int64            `json:"bet"`
	CanSpin          bool             `json:"can_spin"`
	LastPayout       int64            `json:"last_payout"`
	HighestMatch     int              `json:"highest_match"`
	WinningPositions []string         `json:"winning_positions"`
	MegaJackpot      bool             `json:"mega_jackpot"`
	LastResult       *slot.SpinResult `json:"last_result,omitempty"`
	AutoSpin         bool             `json:"auto_spin"`
	FastSpin         bool             `json:"fast_spin"`
	SpinCount        int              `json:"spin_count"`
	TotalBet         int64            `json:"total_bet"`
	TotalWin         int64            `json:"total_win"`
	ValidEvents      []string         `json:"valid_events"`
}

// SpinRecorder 旋转流水记录
type SpinRecorder interface {
	RecordSpin(ctx context.Context, sessionID string, result *slot.SpinResult, balanceAfter int64) error
}
