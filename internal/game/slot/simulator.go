package slot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// SimulationConfig 模拟参数
type SimulationConfig struct {
	Spins   int   `json:"spins" yaml:"spins"`
	Bet     int64 `json:"bet" yaml:"bet"`
	Workers int   `json:"workers" yaml:"workers"`
	Seed    int64 `json:"seed" yaml:"seed"` // 0 表示使用加密随机数
}

// SimulationResult 模拟统计
type SimulationResult struct {
	Spins          int              `json:"spins" yaml:"spins"`
	TotalBet       int64            `json:"total_bet" yaml:"total_bet"`
	TotalWin       int64            `json:"total_win" yaml:"total_win"`
	RTP            float64          `json:"rtp" yaml:"rtp"`
	HitCount       int              `json:"hit_count" yaml:"hit_count"`
	HitFrequency   float64          `json:"hit_frequency" yaml:"hit_frequency"`
	MegaJackpots   int              `json:"mega_jackpots" yaml:"mega_jackpots"`
	BiggestWin     int64            `json:"biggest_win" yaml:"biggest_win"`
	MatchCounts    map[int]int      `json:"match_counts" yaml:"match_counts"`       // 最高连续数 -> 次数
	SymbolWins     map[Symbol]int64 `json:"symbol_wins" yaml:"symbol_wins"`         // 符号 -> 累计赢额
	SymbolLineHits map[Symbol]int   `json:"symbol_line_hits" yaml:"symbol_line_hits"` // 符号 -> 中奖线次数
	Duration       time.Duration    `json:"duration" yaml:"duration"`
}

func newSimulationResult() *SimulationResult {
	return &SimulationResult{
		MatchCounts:    make(map[int]int),
		SymbolWins:     make(map[Symbol]int64),
		SymbolLineHits: make(map[Symbol]int),
	}
}

func (r *SimulationResult) record(res *SpinResult) {
	r.Spins++
	r.TotalBet += res.Bet
	r.TotalWin += res.Payout
	if res.IsWin() {
		r.HitCount++
		r.MatchCounts[res.HighestMatch]++
	}
	if res.MegaJackpot {
		r.MegaJackpots++
	}
	if res.Payout > r.BiggestWin {
		r.BiggestWin = res.Payout
	}
	for _, line := range res.WinLines {
		r.SymbolWins[line.Symbol] += line.WinAmount
		r.SymbolLineHits[line.Symbol]++
	}
}

func (r *SimulationResult) merge(o *SimulationResult) {
	r.Spins += o.Spins
	r.TotalBet += o.TotalBet
	r.TotalWin += o.TotalWin
	r.HitCount += o.HitCount
	r.MegaJackpots += o.MegaJackpots
	if o.BiggestWin > r.BiggestWin {
		r.BiggestWin = o.BiggestWin
	}
	for k, v := range o.MatchCounts {
		r.MatchCounts[k] += v
	}
	for k, v := range o.SymbolWins {
		r.SymbolWins[k] += v
	}
	for k, v := range o.SymbolLineHits {
		r.SymbolLineHits[k] += v
	}
}

func (r *SimulationResult) finish() {
	if r.TotalBet > 0 {
		r.RTP = float64(r.TotalWin) / float64(r.TotalBet)
	}
	if r.Spins > 0 {
		r.HitFrequency = float64(r.HitCount) / float64(r.Spins)
	}
}

// Simulate 使用协程池批量旋转并统计返还率
//
// 每个分片持有独立的随机数生成器，给定非零种子时结果可复现。
func Simulate(ctx context.Context, config *MachineConfig, sc SimulationConfig) (*SimulationResult, error) {
	if sc.Spins <= 0 {
		return nil, fmt.Errorf("模拟次数必须大于0: %d", sc.Spins)
	}
	if sc.Bet <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBet, sc.Bet)
	}
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	evaluator, err := NewLineEvaluator(config.Reels, config.Rows, config.Paylines, config.PayTable)
	if err != nil {
		return nil, err
	}

	workers := sc.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > sc.Spins {
		workers = sc.Spins
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("创建协程池失败: %w", err)
	}
	defer pool.Release()

	return runSimulation(ctx, pool, config, evaluator, sc, workers)
}

// taskSubmitter 协程池提交接口
type taskSubmitter interface {
	Submit(task func()) error
}

// runSimulation 按 workers 切分任务并汇总，任何返回路径都会等待已提交的分片结束
func runSimulation(ctx context.Context, pool taskSubmitter, config *MachineConfig, evaluator *LineEvaluator,
	sc SimulationConfig, workers int) (*SimulationResult, error) {
	start := time.Now()
	total := newSimulationResult()
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	chunk := sc.Spins / workers
	for i := 0; i < workers; i++ {
		n := chunk
		if i == workers-1 {
			n = sc.Spins - chunk*(workers-1)
		}
		var rng RandomGenerator = NewCryptoRandomGenerator()
		if sc.Seed != 0 {
			rng = NewSeededRandomGenerator(sc.Seed + int64(i))
		}

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			part := newSimulationResult()
			for j := 0; j < n; j++ {
				if j%1024 == 0 && ctx.Err() != nil {
					break
				}
				grid, _ := GenerateGrid(config.Reels, config.Rows, config.Pool, rng)
				part.record(evaluator.Evaluate(grid, sc.Bet))
			}
			mu.Lock()
			total.merge(part)
			mu.Unlock()
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("提交模拟任务失败: %w", err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	total.finish()
	total.Duration = time.Since(start)
	return total, nil
}
