package slot

import "fmt"

// Payline 支付线
type Payline struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Type      LineType   `json:"type"`
	Positions []Position `json:"positions"` // 按卷轴从左到右的坐标
}

// Len 支付线长度
func (l Payline) Len() int {
	return len(l.Positions)
}

// DefaultPaylines 经典水果机的6条支付线
//
// 三条水平线、两条3格对角线、一条5格V型线。
func DefaultPaylines() []Payline {
	return []Payline{
		{ID: 0, Name: "top", Type: LineTypeHorizontal, Positions: createHorizontalLine(0, 5)},
		{ID: 1, Name: "middle", Type: LineTypeHorizontal, Positions: createHorizontalLine(1, 5)},
		{ID: 2, Name: "bottom", Type: LineTypeHorizontal, Positions: createHorizontalLine(2, 5)},
		{ID: 3, Name: "diagonal_down", Type: LineTypeDiagonal, Positions: createDiagonalLine(3, 3, true)},
		{ID: 4, Name: "diagonal_up", Type: LineTypeDiagonal, Positions: createDiagonalLine(3, 3, false)},
		{ID: 5, Name: "v", Type: LineTypeV, Positions: createVLine(5, 3)},
	}
}

// ValidatePaylines 校验支付线坐标
func ValidatePaylines(lines []Payline, reels, rows int) error {
	if err := validateDimensions(reels, rows); err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: 至少需要一条支付线", ErrInvalidPayline)
	}
	for i, line := range lines {
		if line.Len() == 0 {
			return fmt.Errorf("%w: 第%d条支付线为空", ErrInvalidPayline, i)
		}
		if line.Len() > reels {
			return fmt.Errorf("%w: 第%d条支付线长度 %d 超过卷轴数 %d", ErrInvalidPayline, i, line.Len(), reels)
		}
		seen := make(map[Position]bool, line.Len())
		for _, pos := range line.Positions {
			if pos.Reel < 0 || pos.Reel >= reels || pos.Row < 0 || pos.Row >= rows {
				return fmt.Errorf("%w: 第%d条支付线坐标 (%d,%d) 越界", ErrInvalidPayline, i, pos.Reel, pos.Row)
			}
			if seen[pos] {
				return fmt.Errorf("%w: 第%d条支付线坐标 (%d,%d) 重复", ErrInvalidPayline, i, pos.Reel, pos.Row)
			}
			seen[pos] = true
		}
	}
	return nil
}

// Line pattern creators

func createHorizontalLine(row, reels int) []Position {
	line := make([]Position, reels)
	for i := 0; i < reels; i++ {
		line[i] = Position{Reel: i, Row: row}
	}
	return line
}

func createDiagonalLine(reels, rows int, downward bool) []Position {
	line := make([]Position, 0, reels)
	for i := 0; i < reels && i < rows; i++ {
		row := i
		if !downward {
			row = rows - 1 - i
		}
		line = append(line, Position{Reel: i, Row: row})
	}
	return line
}

// createVLine 从左上沿对角线下行至底部，再折回顶部
func createVLine(reels, rows int) []Position {
	line := make([]Position, reels)
	period := 2 * (rows - 1)
	for i := 0; i < reels; i++ {
		row := 0
		if period > 0 {
			row = i % period
			if row >= rows {
				row = period - row
			}
		}
		line[i] = Position{Reel: i, Row: row}
	}
	return line
}
