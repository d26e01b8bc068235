package slot

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
)

// CryptoRandomGenerator 加密安全的随机数生成器
type CryptoRandomGenerator struct{}

// NewCryptoRandomGenerator 创建加密随机数生成器
func NewCryptoRandomGenerator() *CryptoRandomGenerator {
	return &CryptoRandomGenerator{}
}

// Next 生成下一个随机数 (0-1)
func (g *CryptoRandomGenerator) Next() float64 {
	max := big.NewInt(1 << 53)
	n, _ := rand.Int(rand.Reader, max)
	return float64(n.Int64()) / float64(1<<53)
}

// NextInt 生成指定范围内的随机整数
func (g *CryptoRandomGenerator) NextInt(min, max int) int {
	if min >= max {
		return min
	}
	diff := big.NewInt(int64(max - min))
	n, _ := rand.Int(rand.Reader, diff)
	return min + int(n.Int64())
}

// Seed 加密随机数不需要种子
func (g *CryptoRandomGenerator) Seed(seed int64) {}

// SeededRandomGenerator 可复现的伪随机数生成器，用于测试与模拟
//
// 非并发安全，每个goroutine应持有自己的实例。
type SeededRandomGenerator struct {
	rng *mrand.Rand
}

// NewSeededRandomGenerator 创建带种子的随机数生成器
func NewSeededRandomGenerator(seed int64) *SeededRandomGenerator {
	return &SeededRandomGenerator{rng: mrand.New(mrand.NewSource(seed))}
}

// Next 生成下一个随机数 (0-1)
func (g *SeededRandomGenerator) Next() float64 {
	return g.rng.Float64()
}

// NextInt 生成指定范围内的随机整数
func (g *SeededRandomGenerator) NextInt(min, max int) int {
	if min >= max {
		return min
	}
	return min + g.rng.Intn(max-min)
}

// Seed 重新设置种子
func (g *SeededRandomGenerator) Seed(seed int64) {
	g.rng.Seed(seed)
}

// SequenceRandomGenerator 按给定序列循环返回索引，测试中用来构造确定的卷轴
type SequenceRandomGenerator struct {
	values []int
	pos    int
}

// NewSequenceRandomGenerator 创建序列随机数生成器
func NewSequenceRandomGenerator(values ...int) *SequenceRandomGenerator {
	return &SequenceRandomGenerator{values: values}
}

// Next 返回序列值映射到 [0,1)
func (g *SequenceRandomGenerator) Next() float64 {
	v := g.take()
	return float64(v%1000) / 1000
}

// NextInt 返回序列中的下一个值，超出范围时取模
func (g *SequenceRandomGenerator) NextInt(min, max int) int {
	if min >= max {
		return min
	}
	v := g.take()
	if v < 0 {
		v = -v
	}
	return min + v%(max-min)
}

// Seed 将序列指针重置到 seed 位置
func (g *SequenceRandomGenerator) Seed(seed int64) {
	g.pos = int(seed)
}

func (g *SequenceRandomGenerator) take() int {
	if len(g.values) == 0 {
		return 0
	}
	v := g.values[g.pos%len(g.values)]
	g.pos++
	return v
}

// NewRandomGenerator 种子为0时使用加密随机数，否则使用可复现的伪随机数
func NewRandomGenerator(seed int64) RandomGenerator {
	if seed == 0 {
		return NewCryptoRandomGenerator()
	}
	return NewSeededRandomGenerator(seed)
}
