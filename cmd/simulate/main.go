package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/wfunc/fruity-slot/internal/config"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"github.com/wfunc/fruity-slot/internal/game"
	"github.com/wfunc/fruity-slot/internal/game/slot"
	"github.com/wfunc/fruity-slot/internal/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// report 输出内容
type report struct {
	Machine string                 `json:"machine" yaml:"machine"`
	Config  slot.SimulationConfig  `json:"config" yaml:"config"`
	Result  *slot.SimulationResult `json:"result" yaml:"result"`
}

func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径，用于读取卷轴尺寸和默认投注")
		spins      = flag.Int("spins", 1000000, "模拟旋转次数")
		bet        = flag.Int64("bet", 0, "每次投注，0 表示使用配置的默认投注")
		workers    = flag.Int("workers", runtime.NumCPU(), "并发协程数")
		seed       = flag.Int64("seed", 0, "随机种子，0 表示使用加密随机数")
		format     = flag.String("format", "yaml", "输出格式 json|yaml")
	)
	flag.Parse()

	if err := run(*configPath, *spins, *bet, *workers, *seed, *format, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "模拟失败: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, spins int, bet int64, workers int, seed int64, format string, out io.Writer) error {
	if format != "json" && format != "yaml" {
		return apperrors.Newf(apperrors.ErrInvalidParam, "不支持的输出格式: %s", format)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(&cfg.Log); err != nil {
		return err
	}
	defer logger.Cleanup()

	engine, err := game.NewEngineFromConfig(cfg.Game)
	if err != nil {
		return err
	}
	if bet == 0 {
		bet = cfg.Game.DefaultBet
	}

	sc := slot.SimulationConfig{Spins: spins, Bet: bet, Workers: workers, Seed: seed}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("开始模拟",
		zap.Int("spins", sc.Spins),
		zap.Int64("bet", sc.Bet),
		zap.Int("workers", sc.Workers),
		zap.Int64("seed", sc.Seed))

	result, err := slot.Simulate(ctx, engine.GetConfig(), sc)
	if err != nil {
		return err
	}

	logger.Info("模拟完成",
		zap.Float64("rtp", result.RTP),
		zap.Float64("hit_frequency", result.HitFrequency),
		zap.Duration("duration", result.Duration))

	return writeReport(out, format, report{
		Machine: engine.GetConfig().MachineID,
		Config:  sc,
		Result:  result,
	})
}

func writeReport(out io.Writer, format string, r report) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
