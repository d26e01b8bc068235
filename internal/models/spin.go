package models

import (
	"time"

	"github.com/wfunc/fruity-slot/internal/game/slot"
)

// SpinRecord 旋转流水
type SpinRecord struct {
	BaseModel
	SpinID           string                    `gorm:"uniqueIndex;size:64;not null" json:"spin_id"`
	SessionID        string                    `gorm:"index;size:64;not null" json:"session_id"`
	Bet              int64                     `gorm:"not null" json:"bet"`
	Payout           int64                     `gorm:"not null;default:0" json:"payout"`
	HighestMatch     int                       `gorm:"default:0" json:"highest_match"`
	MegaJackpot      bool                      `gorm:"default:false" json:"mega_jackpot"`
	Grid             JSONText[slot.Grid]       `gorm:"type:text" json:"grid"`
	WinningPositions JSONText[[]slot.Position] `gorm:"type:text" json:"winning_positions"`
	BalanceAfter     int64                     `json:"balance_after"`
	SpunAt           time.Time                 `json:"spun_at"`
}

// TableName 表名
func (SpinRecord) TableName() string {
	return "spin_records"
}

// NewSpinRecord 由旋转结果构建流水
func NewSpinRecord(sessionID string, result *slot.SpinResult, balanceAfter int64) *SpinRecord {
	return &SpinRecord{
		SpinID:           result.ID,
		SessionID:        sessionID,
		Bet:              result.Bet,
		Payout:           result.Payout,
		HighestMatch:     result.HighestMatch,
		MegaJackpot:      result.MegaJackpot,
		Grid:             NewJSONText(result.Grid),
		WinningPositions: NewJSONText(result.WinningPositions),
		BalanceAfter:     balanceAfter,
		SpunAt:           result.Timestamp,
	}
}

// IsWin 是否中奖
func (r *SpinRecord) IsWin() bool {
	return r.Payout > 0
}

// AllModels 需要迁移的模型
func AllModels() []interface{} {
	return []interface{}{
		&SpinRecord{},
	}
}
