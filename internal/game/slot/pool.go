package slot

import "fmt"

// WeightedPool 加权符号池
//
// 符号重复出现的次数即其权重，每次抽取在池位置上均匀独立。
type WeightedPool struct {
	symbols []Symbol
}

// NewWeightedPool 创建加权符号池
func NewWeightedPool(symbols []Symbol) (*WeightedPool, error) {
	if len(symbols) == 0 {
		return nil, ErrEmptyPool
	}
	for i, s := range symbols {
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: 位置 %d 的符号 %q", ErrUnknownSymbol, i, s)
		}
	}
	cp := make([]Symbol, len(symbols))
	copy(cp, symbols)
	return &WeightedPool{symbols: cp}, nil
}

// NewWeightedPoolFromCounts 按符号计数构建符号池，顺序遵循 order
func NewWeightedPoolFromCounts(order []Symbol, counts map[Symbol]int) (*WeightedPool, error) {
	var symbols []Symbol
	for _, s := range order {
		for i := 0; i < counts[s]; i++ {
			symbols = append(symbols, s)
		}
	}
	return NewWeightedPool(symbols)
}

// DefaultPool 默认的22格水果符号池
func DefaultPool() *WeightedPool {
	pool, _ := NewWeightedPoolFromCounts(AllSymbols(), map[Symbol]int{
		SymbolStar:       1,
		SymbolWatermelon: 2,
		SymbolGrape:      2,
		SymbolLemon:      3,
		SymbolCherry:     4,
		SymbolPineapple:  5,
		SymbolKiwi:       5,
	})
	return pool
}

// Size 池大小
func (p *WeightedPool) Size() int {
	return len(p.symbols)
}

// Symbols 返回池内容副本
func (p *WeightedPool) Symbols() []Symbol {
	cp := make([]Symbol, len(p.symbols))
	copy(cp, p.symbols)
	return cp
}

// Draw 抽取一个符号
func (p *WeightedPool) Draw(rng RandomGenerator) Symbol {
	return p.symbols[rng.NextInt(0, len(p.symbols))]
}

// Count 符号在池中出现的次数
func (p *WeightedPool) Count(s Symbol) int {
	n := 0
	for _, v := range p.symbols {
		if v == s {
			n++
		}
	}
	return n
}

// Probability 单次抽取得到该符号的概率
func (p *WeightedPool) Probability(s Symbol) float64 {
	return float64(p.Count(s)) / float64(len(p.symbols))
}

// Weights 各符号权重
func (p *WeightedPool) Weights() map[Symbol]int {
	weights := make(map[Symbol]int)
	for _, s := range p.symbols {
		weights[s]++
	}
	return weights
}
