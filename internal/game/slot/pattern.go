package slot

import "sort"

// LineEvaluator 支付线赔付计算器
//
// 构造时校验支付线与赔率表，之后 Evaluate 对任何尺寸匹配的网格都不会失败。
type LineEvaluator struct {
	reels    int
	rows     int
	paylines []Payline
	payTable PayTable
}

// NewLineEvaluator 创建赔付计算器
func NewLineEvaluator(reels, rows int, paylines []Payline, payTable PayTable) (*LineEvaluator, error) {
	if err := ValidatePaylines(paylines, reels, rows); err != nil {
		return nil, err
	}
	if err := payTable.Validate(); err != nil {
		return nil, err
	}
	lines := make([]Payline, len(paylines))
	for i, l := range paylines {
		lines[i] = Payline{ID: l.ID, Name: l.Name, Type: l.Type, Positions: append([]Position(nil), l.Positions...)}
	}
	return &LineEvaluator{
		reels:    reels,
		rows:     rows,
		paylines: lines,
		payTable: payTable.Clone(),
	}, nil
}

// Paylines 支付线副本
func (m *LineEvaluator) Paylines() []Payline {
	lines := make([]Payline, len(m.paylines))
	copy(lines, m.paylines)
	return lines
}

// PayTable 赔率表副本
func (m *LineEvaluator) PayTable() PayTable {
	return m.payTable.Clone()
}

// Evaluate 计算一次旋转的赔付
//
// 按支付线顺序逐条检查从第一个位置开始的连续相同符号，
// 连续数>=3且赔率表有对应条目时累加 bet*倍率，并把连续部分的坐标加入中奖集合。
func (m *LineEvaluator) Evaluate(grid Grid, bet int64) *SpinResult {
	result := &SpinResult{
		Bet:              bet,
		Grid:             grid.Clone(),
		WinningPositions: []Position{},
		WinLines:         []WinLine{},
	}

	coords := make(map[Position]struct{})
	for _, line := range m.paylines {
		symbols := m.getSymbolsOnLine(grid, line.Positions)
		count := RunLength(symbols)
		if count < MinMatch {
			continue
		}

		first := symbols[0]
		multiplier, ok := m.payTable.Multiplier(first, count)
		if !ok {
			continue
		}

		win := bet * multiplier
		result.Payout += win
		if count > result.HighestMatch {
			result.HighestMatch = count
		}

		positions := make([]Position, count)
		copy(positions, line.Positions[:count])
		for _, pos := range positions {
			coords[pos] = struct{}{}
		}

		result.WinLines = append(result.WinLines, WinLine{
			LineID:     line.ID,
			LineName:   line.Name,
			LineType:   line.Type,
			Symbol:     first,
			Count:      count,
			Positions:  positions,
			Multiplier: multiplier,
			WinAmount:  win,
		})
	}

	for pos := range coords {
		result.WinningPositions = append(result.WinningPositions, pos)
	}
	sort.Slice(result.WinningPositions, func(i, j int) bool {
		a, b := result.WinningPositions[i], result.WinningPositions[j]
		if a.Reel != b.Reel {
			return a.Reel < b.Reel
		}
		return a.Row < b.Row
	})
	result.MegaJackpot = result.HighestMatch == 5

	return result
}

// RunLength 从第一个符号开始的连续相同符号数
//
// 遇到第一个不同的符号即停止，[A,B,A,A] 的结果是 1。
func RunLength(symbols []Symbol) int {
	if len(symbols) == 0 {
		return 0
	}
	count := 1
	for i := 1; i < len(symbols); i++ {
		if symbols[i] != symbols[0] {
			break
		}
		count++
	}
	return count
}

// getSymbolsOnLine 获取支付线上的符号
func (m *LineEvaluator) getSymbolsOnLine(grid Grid, pattern []Position) []Symbol {
	symbols := make([]Symbol, len(pattern))
	for i, pos := range pattern {
		if grid.Contains(pos) {
			symbols[i] = grid.At(pos)
		}
	}
	return symbols
}
