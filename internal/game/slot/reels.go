package slot

import (
	"fmt"
	"strings"
)

// Grid 卷轴网格，按列存储：grid[reel][row]
type Grid [][]Symbol

// NewGrid 由行优先的二维数组构建网格，便于测试中按屏幕布局书写
func NewGrid(rows [][]Symbol) Grid {
	if len(rows) == 0 {
		return Grid{}
	}
	reels := len(rows[0])
	g := make(Grid, reels)
	for r := 0; r < reels; r++ {
		g[r] = make([]Symbol, len(rows))
		for row := range rows {
			g[r][row] = rows[row][r]
		}
	}
	return g
}

// Reels 卷轴数
func (g Grid) Reels() int {
	return len(g)
}

// Rows 行数
func (g Grid) Rows() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// At 读取指定位置的符号
func (g Grid) At(pos Position) Symbol {
	return g[pos.Reel][pos.Row]
}

// Contains 位置是否在网格内
func (g Grid) Contains(pos Position) bool {
	return pos.Reel >= 0 && pos.Reel < g.Reels() && pos.Row >= 0 && pos.Row < g.Rows()
}

// Clone 深拷贝
func (g Grid) Clone() Grid {
	cp := make(Grid, len(g))
	for i, reel := range g {
		cp[i] = make([]Symbol, len(reel))
		copy(cp[i], reel)
	}
	return cp
}

// String 按屏幕布局输出
func (g Grid) String() string {
	var b strings.Builder
	for row := 0; row < g.Rows(); row++ {
		for reel := 0; reel < g.Reels(); reel++ {
			if reel > 0 {
				b.WriteString(" ")
			}
			b.WriteString(g[reel][row].Display())
		}
		if row < g.Rows()-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// GenerateGrid 生成新的卷轴网格
//
// 每个格子独立地从符号池中均匀抽取一个位置。
func GenerateGrid(reels, rows int, pool *WeightedPool, rng RandomGenerator) (Grid, error) {
	if err := validateDimensions(reels, rows); err != nil {
		return nil, err
	}
	if pool == nil || pool.Size() == 0 {
		return nil, ErrEmptyPool
	}

	grid := make(Grid, reels)
	for i := 0; i < reels; i++ {
		grid[i] = generateReel(rows, pool, rng)
	}
	return grid, nil
}

// RegenerateReel 只重新生成一个卷轴（列），其他卷轴保持不变
//
// 依次对每个卷轴调用的结果与整体生成同分布，用于逐列停轮。
func RegenerateReel(grid Grid, reel int, pool *WeightedPool, rng RandomGenerator) error {
	if reel < 0 || reel >= grid.Reels() {
		return fmt.Errorf("%w: %d", ErrInvalidReel, reel)
	}
	if pool == nil || pool.Size() == 0 {
		return ErrEmptyPool
	}
	grid[reel] = generateReel(grid.Rows(), pool, rng)
	return nil
}

func generateReel(rows int, pool *WeightedPool, rng RandomGenerator) []Symbol {
	reel := make([]Symbol, rows)
	for j := 0; j < rows; j++ {
		reel[j] = pool.Draw(rng)
	}
	return reel
}

func validateDimensions(reels, rows int) error {
	if reels <= 0 || rows <= 0 {
		return fmt.Errorf("%w: reels=%d rows=%d", ErrInvalidDimensions, reels, rows)
	}
	return nil
}
