package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"github.com/wfunc/fruity-slot/internal/game/slot"
	"github.com/wfunc/fruity-slot/internal/logger"
	"go.uber.org/zap"
)

// Session 单个玩家的旋转会话
//
// 所有修改都在 mu 内串行执行。余额只存在于内存中。
type Session struct {
	mu       sync.Mutex
	id       string
	settings Settings
	engine   *slot.Engine
	sm       *StateMachine
	logger   *zap.Logger
	recorder SpinRecorder

	balance  int64
	bet      int64
	grid     slot.Grid
	spinGrid slot.Grid // 本次旋转正在停轮的网格
	prevGrid slot.Grid // 旋转前的网格，停轮失败时恢复
	nextReel int
	spinBet  int64
	spinID   string
	spinAt   time.Time

	lastResult *slot.SpinResult
	autoSpin   bool
	fastSpin   bool

	spinCount int
	totalBet  int64
	totalWin  int64

	listeners    map[int]Listener
	nextListener int
}

// Option 会话选项
type Option func(*Session)

// WithSessionID 指定会话ID
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithLogger 指定日志器
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRecorder 指定旋转流水记录器
func WithRecorder(r SpinRecorder) Option {
	return func(s *Session) { s.recorder = r }
}

// NewSession 创建会话并生成初始网格
func NewSession(engine *slot.Engine, settings Settings, opts ...Option) (*Session, error) {
	if engine == nil {
		return nil, apperrors.New(apperrors.ErrInvalidMachine, "engine is nil")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:        uuid.NewString(),
		settings:  settings,
		engine:    engine,
		balance:   settings.InitialBalance,
		bet:       settings.DefaultBet,
		fastSpin:  settings.FastSpin,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.GetModuleLogger("game")
	}
	s.logger = s.logger.With(zap.String("session_id", s.id))

	s.sm = NewStateMachine(s.id, s.logger)
	s.sm.OnStateChange(func(from, to GameState, event string) {
		s.logger.Info("状态转换",
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.String("event", event))
	})

	s.grid = engine.GenerateGrid()
	return s, nil
}

// ID 会话ID
func (s *Session) ID() string {
	return s.id
}

// Settings 会话规则
func (s *Session) Settings() Settings {
	return s.settings
}

// Engine 规则引擎
func (s *Session) Engine() *slot.Engine {
	return s.engine
}

// Subscribe 订阅会话事件，返回取消函数
func (s *Session) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) emit(t EventType, data interface{}) {
	ev := Event{Type: t, SessionID: s.id, Data: data, Timestamp: time.Now()}
	for _, l := range s.listeners {
		l(ev)
	}
}

func (s *Session) emitError(err error) {
	code := apperrors.GetCode(err)
	s.emit(EventTypeError, ErrorData{Code: code, Message: err.Error()})
}

// BeginSpin 扣除投注并进入旋转状态
//
// 旋转中或余额不足时返回错误，余额、网格、上次结果都不变。
func (s *Session) BeginSpin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginSpin()
}

func (s *Session) beginSpin() error {
	if s.sm.GetState() != StateIdle {
		return apperrors.Newf(apperrors.ErrSpinInProgress, "当前状态 %s", s.sm.GetState())
	}
	if s.balance < s.bet {
		return apperrors.Newf(apperrors.ErrInsufficientCoins, "余额 %d 小于投注 %d", s.balance, s.bet)
	}
	if err := s.sm.Trigger(EventSpin); err != nil {
		return err
	}

	s.spinBet = s.bet
	s.balance -= s.spinBet
	s.lastResult = nil
	s.spinID = uuid.NewString()
	s.spinAt = time.Now()
	s.prevGrid = s.grid
	s.spinGrid = s.grid.Clone()
	s.nextReel = 0

	s.emit(EventTypeSpinStart, SpinStartData{SpinID: s.spinID, Bet: s.spinBet, FastSpin: s.fastSpin})
	s.emit(EventTypeBalanceUpdate, BalanceData{Balance: s.balance, Bet: s.bet, Delta: -s.spinBet, Reason: "bet"})
	return nil
}

// StopReel 按从左到右的顺序停止下一个卷轴，返回卷轴索引
func (s *Session) StopReel(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopReel()
}

func (s *Session) stopReel() (int, error) {
	if s.nextReel >= s.spinGrid.Reels() || !s.sm.CanTransition(EventReelStop) {
		return -1, apperrors.Newf(apperrors.ErrGameStateError, "没有待停止的卷轴: 状态=%s", s.sm.GetState())
	}
	reel := s.nextReel
	if err := s.engine.RegenerateReel(s.spinGrid, reel); err != nil {
		return -1, apperrors.Wrap(err, apperrors.ErrGameStateError)
	}
	if err := s.sm.Trigger(EventReelStop); err != nil {
		return -1, err
	}
	s.nextReel++
	s.grid = s.spinGrid.Clone()

	symbols := make([]slot.Symbol, len(s.spinGrid[reel]))
	copy(symbols, s.spinGrid[reel])
	s.emit(EventTypeReelStop, ReelStopData{SpinID: s.spinID, Reel: reel, Symbols: symbols})
	return reel, nil
}

// StopAllReels 一次性生成剩余全部卷轴（快速模式）
func (s *Session) StopAllReels(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopAllReels()
}

func (s *Session) stopAllReels() error {
	if s.nextReel >= s.spinGrid.Reels() || !s.sm.CanTransition(EventReelStop) {
		return apperrors.Newf(apperrors.ErrGameStateError, "没有待停止的卷轴: 状态=%s", s.sm.GetState())
	}
	if s.nextReel == 0 {
		s.spinGrid = s.engine.GenerateGrid()
	} else {
		for reel := s.nextReel; reel < s.spinGrid.Reels(); reel++ {
			if err := s.engine.RegenerateReel(s.spinGrid, reel); err != nil {
				return apperrors.Wrap(err, apperrors.ErrGameStateError)
			}
		}
	}
	if err := s.sm.Trigger(EventReelStop); err != nil {
		return err
	}
	s.nextReel = s.spinGrid.Reels()
	s.grid = s.spinGrid.Clone()
	return nil
}

// Settle 所有卷轴停止后计算赔付并回到待机
func (s *Session) Settle(ctx context.Context) (*slot.SpinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settle(ctx)
}

func (s *Session) settle(ctx context.Context) (*slot.SpinResult, error) {
	if s.sm.GetState() != StateSettling || s.nextReel < s.spinGrid.Reels() {
		return nil, apperrors.Newf(apperrors.ErrGameStateError,
			"卷轴未全部停止: 状态=%s 已停止=%d", s.sm.GetState(), s.nextReel)
	}

	result := s.engine.Evaluate(s.spinGrid, s.spinBet)
	result.ID = s.spinID
	result.Timestamp = s.spinAt

	if err := s.sm.Trigger(EventSettle); err != nil {
		return nil, err
	}

	s.balance += result.Payout
	s.lastResult = result
	s.grid = result.Grid.Clone()
	s.spinGrid = nil
	s.prevGrid = nil
	s.spinCount++
	s.totalBet += result.Bet
	s.totalWin += result.Payout

	if s.recorder != nil {
		if err := s.recorder.RecordSpin(ctx, s.id, result, s.balance); err != nil {
			s.logger.Warn("记录旋转流水失败", zap.String("spin_id", result.ID), zap.Error(err))
		}
	}

	logger.LogGameEvent("spin_settled", s.id, map[string]interface{}{
		"spin_id":       result.ID,
		"bet":           result.Bet,
		"payout":        result.Payout,
		"highest_match": result.HighestMatch,
		"balance":       s.balance,
	})

	s.emit(EventTypeSpinResult, result)
	if result.Payout > 0 {
		s.emit(EventTypeBalanceUpdate, BalanceData{Balance: s.balance, Bet: s.bet, Delta: result.Payout, Reason: "payout"})
	}
	return result, nil
}

// Spin 完整执行一次旋转：扣注、停轮、结算
//
// 快速模式一次生成整盘，普通模式逐列停止并为每列发送 reel_stop 事件。
func (s *Session) Spin(ctx context.Context) (*slot.SpinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spin(ctx)
}

func (s *Session) spin(ctx context.Context) (*slot.SpinResult, error) {
	if err := s.beginSpin(); err != nil {
		s.emitError(err)
		return nil, err
	}
	if s.fastSpin {
		if err := s.stopAllReels(); err != nil {
			s.abortSpin(err)
			return nil, err
		}
	} else {
		for s.nextReel < s.spinGrid.Reels() {
			if _, err := s.stopReel(); err != nil {
				s.abortSpin(err)
				return nil, err
			}
		}
	}
	return s.settle(ctx)
}

// abortSpin 停轮失败时退回投注、恢复网格并回到待机
func (s *Session) abortSpin(cause error) {
	s.logger.Error("旋转中止", zap.String("spin_id", s.spinID), zap.Error(cause))

	s.balance += s.spinBet
	s.grid = s.prevGrid
	s.spinGrid = nil
	s.prevGrid = nil
	s.nextReel = 0
	s.sm.Reset()

	s.emit(EventTypeBalanceUpdate, BalanceData{Balance: s.balance, Bet: s.bet, Delta: s.spinBet, Reason: "refund"})
	s.spinBet = 0
	s.emitError(cause)
}

// HandleKey 键盘输入，空格或回车在可旋转时触发旋转，其他按键忽略
func (s *Session) HandleKey(ctx context.Context, key string) (*slot.SpinResult, bool, error) {
	switch key {
	case " ", "Space", "Spacebar", "Enter":
	default:
		return nil, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.canSpin() {
		return nil, false, nil
	}
	result, err := s.spin(ctx)
	return result, err == nil, err
}

// CanSpin 是否可以立即旋转
func (s *Session) CanSpin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSpin()
}

func (s *Session) canSpin() bool {
	return s.sm.GetState() == StateIdle && s.balance >= s.bet
}

// IncreaseBet 投注加一个步长，旋转中拒绝
func (s *Session) IncreaseBet() (int64, error) {
	return s.changeBet(func(bet int64) int64 {
		return bet + s.settings.BetStep
	})
}

// DecreaseBet 投注减一个步长，不低于最小投注
func (s *Session) DecreaseBet() (int64, error) {
	return s.changeBet(func(bet int64) int64 {
		if next := bet - s.settings.BetStep; next > s.settings.MinBet {
			return next
		}
		return s.settings.MinBet
	})
}

func (s *Session) changeBet(next func(int64) int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sm.GetState() != StateIdle {
		return s.bet, apperrors.New(apperrors.ErrSpinInProgress, "旋转中不能修改投注")
	}
	s.bet = next(s.bet)
	s.emit(EventTypeBalanceUpdate, BalanceData{Balance: s.balance, Bet: s.bet, Reason: "bet_change"})
	return s.bet, nil
}

// TopUp 充值固定金额，任何状态都可以
func (s *Session) TopUp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balance += s.settings.TopUpAmount
	s.emit(EventTypeBalanceUpdate, BalanceData{
		Balance: s.balance,
		Bet:     s.bet,
		Delta:   s.settings.TopUpAmount,
		Reason:  "top_up",
	})
	return s.balance
}

// SetAutoSpin 开关自动旋转
func (s *Session) SetAutoSpin(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoSpin = enabled
	s.emit(EventTypeState, s.snapshot())
}

// ToggleAutoSpin 切换自动旋转
func (s *Session) ToggleAutoSpin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoSpin = !s.autoSpin
	s.emit(EventTypeState, s.snapshot())
	return s.autoSpin
}

// AutoSpin 是否开启自动旋转
func (s *Session) AutoSpin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoSpin
}

// SetFastSpin 开关快速模式
func (s *Session) SetFastSpin(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fastSpin = enabled
	s.emit(EventTypeState, s.snapshot())
}

// ToggleFastSpin 切换快速模式
func (s *Session) ToggleFastSpin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fastSpin = !s.fastSpin
	s.emit(EventTypeState, s.snapshot())
	return s.fastSpin
}

// FastSpin 是否为快速模式
func (s *Session) FastSpin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fastSpin
}

// AutoSpinInterval 当前模式下的自动旋转间隔
func (s *Session) AutoSpinInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fastSpin {
		return s.settings.FastAutoSpinInterval
	}
	return s.settings.AutoSpinInterval
}

// Balance 当前余额
func (s *Session) Balance() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// Bet 当前投注
func (s *Session) Bet() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bet
}

// State 当前状态
func (s *Session) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sm.GetState()
}

// Snapshot 会话快照
func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() SessionState {
	st := SessionState{
		SessionID:        s.id,
		State:            s.sm.GetState(),
		Spinning:         s.sm.GetState() != StateIdle,
		Grid:             s.grid.Clone(),
		Balance:          s.balance,
		Bet:              s.bet,
		CanSpin:          s.canSpin(),
		WinningPositions: []string{},
		LastResult:       s.lastResult,
		AutoSpin:         s.autoSpin,
		FastSpin:         s.fastSpin,
		SpinCount:        s.spinCount,
		TotalBet:         s.totalBet,
		TotalWin:         s.totalWin,
		ValidEvents:      s.sm.GetValidEvents(),
	}
	if r := s.lastResult; r != nil {
		st.LastPayout = r.Payout
		st.HighestMatch = r.HighestMatch
		st.WinningPositions = r.WinningKeys()
		st.MegaJackpot = r.MegaJackpot
	}
	return st
}
