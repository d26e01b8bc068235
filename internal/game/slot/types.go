package slot

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmptyPool         = errors.New("符号池为空")
	ErrInvalidDimensions = errors.New("无效的卷轴尺寸")
	ErrInvalidPayline    = errors.New("无效的支付线配置")
	ErrInvalidPayTable   = errors.New("无效的赔率表")
	ErrInvalidReel       = errors.New("无效的卷轴索引")
	ErrInvalidBet        = errors.New("无效的下注金额")
	ErrUnknownSymbol     = errors.New("未知符号")
)

// LineType 连线类型
type LineType int

const (
	LineTypeHorizontal LineType = iota // 水平线
	LineTypeDiagonal                   // 对角线
	LineTypeV                          // V型
	LineTypeZigzag                     // 之字形
)

// String 连线类型名称
func (t LineType) String() string {
	switch t {
	case LineTypeHorizontal:
		return "horizontal"
	case LineTypeDiagonal:
		return "diagonal"
	case LineTypeV:
		return "v"
	case LineTypeZigzag:
		return "zigzag"
	default:
		return "unknown"
	}
}

// MarshalText 以名称形式输出
func (t LineType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText 由名称解析
func (t *LineType) UnmarshalText(b []byte) error {
	for _, lt := range []LineType{LineTypeHorizontal, LineTypeDiagonal, LineTypeV, LineTypeZigzag} {
		if lt.String() == string(b) {
			*t = lt
			return nil
		}
	}
	return fmt.Errorf("未知连线类型: %q", b)
}

// Position 符号位置
type Position struct {
	Reel int `json:"reel"` // 卷轴索引 (0-based)
	Row  int `json:"row"`  // 行索引 (0-based)
}

// Key 高亮坐标键，格式 "reel,row"
func (p Position) Key() string {
	return fmt.Sprintf("%d,%d", p.Reel, p.Row)
}

// WinLine 中奖线
type WinLine struct {
	LineID     int        `json:"line_id"`    // 线ID
	LineName   string     `json:"line_name"`  // 线名称
	LineType   LineType   `json:"line_type"`  // 线类型
	Symbol     Symbol     `json:"symbol"`     // 中奖符号
	Count      int        `json:"count"`      // 连续个数
	Positions  []Position `json:"positions"`  // 连续部分的位置
	Multiplier int64      `json:"multiplier"` // 赔率倍数
	WinAmount  int64      `json:"win_amount"` // 中奖金额
}

// SpinResult 旋转结果
//
// Payout、HighestMatch、WinningPositions 三者一致：任一为零值则全部为零值。
type SpinResult struct {
	ID               string     `json:"id,omitempty"`
	Bet              int64      `json:"bet"`
	Payout           int64      `json:"payout"`
	HighestMatch     int        `json:"highest_match"`
	WinningPositions []Position `json:"winning_positions"`
	WinLines         []WinLine  `json:"win_lines"`
	Grid             Grid       `json:"grid"`
	MegaJackpot      bool       `json:"mega_jackpot"`
	Timestamp        time.Time  `json:"timestamp,omitempty"`
}

// IsWin 是否中奖
func (r *SpinResult) IsWin() bool {
	return r.Payout > 0
}

// WinningKeys 返回 "reel,row" 形式的中奖坐标，供前端高亮
func (r *SpinResult) WinningKeys() []string {
	keys := make([]string, len(r.WinningPositions))
	for i, pos := range r.WinningPositions {
		keys[i] = pos.Key()
	}
	return keys
}

// IsWinningPosition 判断坐标是否在中奖集合中
func (r *SpinResult) IsWinningPosition(pos Position) bool {
	for _, p := range r.WinningPositions {
		if p == pos {
			return true
		}
	}
	return false
}

// GetWinDescription 获取中奖描述
func (r *SpinResult) GetWinDescription() string {
	if r.MegaJackpot {
		return "MEGA JACKPOT!"
	}
	if r.Payout > 0 {
		return fmt.Sprintf("Total Win: %d", r.Payout)
	}
	return "未中奖"
}

// RandomGenerator 随机数生成器接口
type RandomGenerator interface {
	// Next 生成 [0,1) 的随机数
	Next() float64

	// NextInt 生成 [min,max) 范围内的随机整数
	NextInt(min, max int) int

	// Seed 设置种子
	Seed(seed int64)
}
