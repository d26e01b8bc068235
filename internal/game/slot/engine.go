package slot

import (
	"sync"
)

// Engine 老虎机规则引擎：符号生成 + 赔付计算
//
// 引擎本身不持有余额，只负责出结果。
type Engine struct {
	mu        sync.Mutex
	config    *MachineConfig
	evaluator *LineEvaluator
	randomGen RandomGenerator
}

// NewEngine 创建规则引擎，配置错误在此处立即返回
func NewEngine(config *MachineConfig, rng RandomGenerator) (*Engine, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	evaluator, err := NewLineEvaluator(config.Reels, config.Rows, config.Paylines, config.PayTable)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewCryptoRandomGenerator()
	}
	return &Engine{
		config:    config,
		evaluator: evaluator,
		randomGen: rng,
	}, nil
}

// GetConfig 获取配置
func (e *Engine) GetConfig() *MachineConfig {
	return e.config
}

// Evaluator 获取赔付计算器
func (e *Engine) Evaluator() *LineEvaluator {
	return e.evaluator
}

// GenerateGrid 生成整盘新网格
func (e *Engine) GenerateGrid() Grid {
	e.mu.Lock()
	defer e.mu.Unlock()
	// 尺寸与符号池已在构造时校验
	grid, _ := GenerateGrid(e.config.Reels, e.config.Rows, e.config.Pool, e.randomGen)
	return grid
}

// RegenerateReel 重新生成单个卷轴
func (e *Engine) RegenerateReel(grid Grid, reel int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return RegenerateReel(grid, reel, e.config.Pool, e.randomGen)
}

// Evaluate 计算赔付
func (e *Engine) Evaluate(grid Grid, bet int64) *SpinResult {
	return e.evaluator.Evaluate(grid, bet)
}

// Spin 生成网格并计算赔付
func (e *Engine) Spin(bet int64) (*SpinResult, error) {
	if bet <= 0 {
		return nil, ErrInvalidBet
	}
	return e.Evaluate(e.GenerateGrid(), bet), nil
}
