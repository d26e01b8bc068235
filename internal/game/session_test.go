package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/fruity-slot/internal/config"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"github.com/wfunc/fruity-slot/internal/game/slot"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

// 默认池索引: 0=STAR 1=WATERMELON 3=GRAPE 5=LEMON 8=CHERRY 12=PINEAPPLE 17=KIWI
var (
	// 顶行 S S K L G / 中行 C L G K P / 底行 G K P C W，没有任何支付线中奖
	losingSequence = []int{0, 8, 3, 0, 5, 17, 17, 3, 12, 5, 17, 8, 3, 12, 1}
	// 顶行 S S S K L / 中行 C G L K P / 底行 G K C L W，顶行三个星星
	starRowSequence = []int{0, 8, 3, 0, 3, 17, 0, 5, 8, 17, 17, 5, 5, 12, 1}
)

func newTestEngine(t require.TestingT, seq ...int) *slot.Engine {
	engine, err := slot.NewEngine(slot.GetDefaultConfig(), slot.NewSequenceRandomGenerator(seq...))
	require.NoError(t, err)
	return engine
}

func newTestSession(t require.TestingT, settings Settings, seq []int, opts ...Option) *Session {
	opts = append([]Option{WithLogger(zap.NewNop()), WithSessionID("test-session")}, opts...)
	s, err := NewSession(newTestEngine(t, seq...), settings, opts...)
	require.NoError(t, err)
	return s
}

type recordedSpin struct {
	sessionID string
	result    *slot.SpinResult
	balance   int64
}

type fakeRecorder struct {
	mu    sync.Mutex
	spins []recordedSpin
}

func (r *fakeRecorder) RecordSpin(ctx context.Context, sessionID string, result *slot.SpinResult, balanceAfter int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spins = append(r.spins, recordedSpin{sessionID: sessionID, result: result, balance: balanceAfter})
	return nil
}

// SessionTestSuite 会话测试套件
type SessionTestSuite struct {
	suite.Suite
	ctx    context.Context
	events []Event
}

func (s *SessionTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.events = nil
}

func (s *SessionTestSuite) capture(session *Session) {
	session.Subscribe(func(e Event) {
		s.events = append(s.events, e)
	})
}

func (s *SessionTestSuite) eventTypes() []EventType {
	types := make([]EventType, len(s.events))
	for i, e := range s.events {
		types[i] = e.Type
	}
	return types
}

func (s *SessionTestSuite) TestNewSession_Defaults() {
	session := newTestSession(s.T(), DefaultSettings(), losingSequence)
	st := session.Snapshot()

	s.Equal("test-session", st.SessionID)
	s.Equal(StateIdle, st.State)
	s.False(st.Spinning)
	s.Equal(int64(10000), st.Balance)
	s.Equal(int64(500), st.Bet)
	s.True(st.CanSpin)
	s.Equal(5, st.Grid.Reels())
	s.Equal(3, st.Grid.Rows())
	s.Nil(st.LastResult)
	s.Empty(st.WinningPositions)
	s.Equal([]string{EventSpin}, st.ValidEvents)
}

func (s *SessionTestSuite) TestNewSession_Invalid() {
	_, err := NewSession(nil, DefaultSettings())
	s.True(apperrors.Is(err, apperrors.ErrInvalidMachine))

	settings := DefaultSettings()
	settings.MinBet = 0
	_, err = NewSession(newTestEngine(s.T(), 0), settings)
	s.True(apperrors.Is(err, apperrors.ErrConfigValidate))

	settings = DefaultSettings()
	settings.DefaultBet = 100
	_, err = NewSession(newTestEngine(s.T(), 0), settings)
	s.True(apperrors.Is(err, apperrors.ErrConfigValidate))
}

func (s *SessionTestSuite) TestSpin_Losing() {
	session := newTestSession(s.T(), DefaultSettings(), losingSequence)

	result, err := session.Spin(s.ctx)
	s.Require().NoError(err)
	s.Zero(result.Payout)
	s.Zero(result.HighestMatch)
	s.Empty(result.WinningPositions)
	s.NotEmpty(result.ID)

	st := session.Snapshot()
	s.Equal(StateIdle, st.State)
	s.Equal(int64(9500), st.Balance)
	s.Equal(1, st.SpinCount)
	s.Equal(int64(500), st.TotalBet)
	s.Zero(st.TotalWin)
	s.Equal(result, st.LastResult)
}

func (s *SessionTestSuite) TestSpin_StarRow() {
	session := newTestSession(s.T(), DefaultSettings(), starRowSequence)
	s.capture(session)

	result, err := session.Spin(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(5000), result.Payout)
	s.Equal(3, result.HighestMatch)
	s.False(result.MegaJackpot)

	st := session.Snapshot()
	s.Equal(int64(10000-500+5000), st.Balance)
	s.Equal([]string{"0,0", "1,0", "2,0"}, st.WinningPositions)
	s.Equal(int64(5000), st.LastPayout)
	s.Equal(result.Grid, st.Grid)

	s.Equal([]EventType{
		EventTypeSpinStart,
		EventTypeBalanceUpdate,
		EventTypeReelStop, EventTypeReelStop, EventTypeReelStop, EventTypeReelStop, EventTypeReelStop,
		EventTypeSpinResult,
		EventTypeBalanceUpdate,
	}, s.eventTypes())

	for i := 0; i < 5; i++ {
		data, ok := s.events[2+i].Data.(ReelStopData)
		s.Require().True(ok)
		s.Equal(i, data.Reel)
		s.Equal(result.ID, data.SpinID)
		s.Equal(result.Grid[i], data.Symbols)
	}
}

func (s *SessionTestSuite) TestSpin_MegaJackpot() {
	session := newTestSession(s.T(), DefaultSettings(), []int{0})

	result, err := session.Spin(s.ctx)
	s.Require().NoError(err)
	s.True(result.MegaJackpot)
	s.Equal(5, result.HighestMatch)
	s.True(session.Snapshot().MegaJackpot)
}

func (s *SessionTestSuite) TestSpin_FastMode() {
	settings := DefaultSettings()
	settings.FastSpin = true
	session := newTestSession(s.T(), settings, starRowSequence)
	s.capture(session)

	result, err := session.Spin(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(5000), result.Payout)
	s.NotContains(s.eventTypes(), EventTypeReelStop)
	s.Contains(s.eventTypes(), EventTypeSpinResult)
}

func (s *SessionTestSuite) TestSpin_InsufficientBalance() {
	settings := DefaultSettings()
	settings.InitialBalance = 400
	session := newTestSession(s.T(), settings, losingSequence)
	s.capture(session)
	before := session.Snapshot()

	_, err := session.Spin(s.ctx)
	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.ErrInsufficientCoins))

	after := session.Snapshot()
	s.Equal(before.Balance, after.Balance)
	s.Equal(before.Grid, after.Grid)
	s.Equal(StateIdle, after.State)
	s.False(after.CanSpin)
	s.Equal([]EventType{EventTypeError}, s.eventTypes())

	// 充值后可以继续
	s.Equal(int64(10400), session.TopUp())
	_, err = session.Spin(s.ctx)
	s.NoError(err)
}

func (s *SessionTestSuite) TestSpin_RejectedWhileSpinning() {
	session := newTestSession(s.T(), DefaultSettings(), losingSequence)

	s.Require().NoError(session.BeginSpin(s.ctx))
	s.Equal(int64(9500), session.Balance())
	s.True(session.Snapshot().Spinning)

	_, err := session.Spin(s.ctx)
	s.True(apperrors.Is(err, apperrors.ErrSpinInProgress))
	s.True(apperrors.Is(session.BeginSpin(s.ctx), apperrors.ErrSpinInProgress))
	s.Equal(int64(9500), session.Balance())

	_, err = session.IncreaseBet()
	s.True(apperrors.Is(err, apperrors.ErrSpinInProgress))
	_, err = session.DecreaseBet()
	s.True(apperrors.Is(err, apperrors.ErrSpinInProgress))
	s.Equal(int64(500), session.Bet())

	// 充值不受旋转状态影响
	s.Equal(int64(19500), session.TopUp())

	s.Require().NoError(session.StopAllReels(s.ctx))
	_, err = session.Settle(s.ctx)
	s.Require().NoError(err)
	s.Equal(StateIdle, session.State())
}

func (s *SessionTestSuite) TestStagedReelStops() {
	session := newTestSession(s.T(), DefaultSettings(), starRowSequence)

	_, err := session.StopReel(s.ctx)
	s.True(apperrors.Is(err, apperrors.ErrGameStateError))

	s.Require().NoError(session.BeginSpin(s.ctx))
	_, err = session.Settle(s.ctx)
	s.True(apperrors.Is(err, apperrors.ErrGameStateError))

	for i := 0; i < 5; i++ {
		reel, err := session.StopReel(s.ctx)
		s.Require().NoError(err)
		s.Equal(i, reel)
		s.Equal(StateSettling, session.State())
		if i < 4 {
			_, err = session.Settle(s.ctx)
			s.True(apperrors.Is(err, apperrors.ErrGameStateError))
		}
	}
	_, err = session.StopReel(s.ctx)
	s.True(apperrors.Is(err, apperrors.ErrGameStateError))

	result, err := session.Settle(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(5000), result.Payout)
	s.Equal(StateIdle, session.State())

	_, err = session.Settle(s.ctx)
	s.True(apperrors.Is(err, apperrors.ErrGameStateError))
}

func (s *SessionTestSuite) TestBetChanges() {
	settings := DefaultSettings()
	settings.DefaultBet = 1500
	session := newTestSession(s.T(), settings, losingSequence)

	bet, err := session.DecreaseBet()
	s.Require().NoError(err)
	s.Equal(int64(1000), bet)

	bet, _ = session.DecreaseBet()
	s.Equal(int64(500), bet)
	bet, _ = session.DecreaseBet()
	s.Equal(int64(500), bet, "不低于最小投注")

	bet, _ = session.IncreaseBet()
	s.Equal(int64(1000), bet)
}

func (s *SessionTestSuite) TestBetAboveBalance() {
	settings := DefaultSettings()
	settings.InitialBalance = 1000
	session := newTestSession(s.T(), settings, losingSequence)

	_, err := session.IncreaseBet()
	s.Require().NoError(err)
	_, err = session.IncreaseBet()
	s.Require().NoError(err)
	s.Equal(int64(1500), session.Bet())
	s.False(session.CanSpin())

	_, err = session.Spin(s.ctx)
	s.True(apperrors.Is(err, apperrors.ErrInsufficientCoins))
	s.Equal(int64(1000), session.Balance())
}

func (s *SessionTestSuite) TestHandleKey() {
	settings := DefaultSettings()
	settings.InitialBalance = 500
	session := newTestSession(s.T(), settings, losingSequence)

	result, spun, err := session.HandleKey(s.ctx, "a")
	s.NoError(err)
	s.False(spun)
	s.Nil(result)

	result, spun, err = session.HandleKey(s.ctx, "Enter")
	s.Require().NoError(err)
	s.True(spun)
	s.NotNil(result)
	s.Zero(session.Balance())

	// 余额不足时按键被忽略
	_, spun, err = session.HandleKey(s.ctx, " ")
	s.NoError(err)
	s.False(spun)
}

func (s *SessionTestSuite) TestToggles() {
	session := newTestSession(s.T(), DefaultSettings(), losingSequence)

	s.Equal(2*time.Second, session.AutoSpinInterval())
	s.True(session.ToggleFastSpin())
	s.Equal(800*time.Millisecond, session.AutoSpinInterval())
	session.SetFastSpin(false)
	s.False(session.FastSpin())

	s.True(session.ToggleAutoSpin())
	s.False(session.ToggleAutoSpin())
	session.SetAutoSpin(true)
	s.True(session.AutoSpin())
}

func (s *SessionTestSuite) TestRecorder() {
	rec := &fakeRecorder{}
	session := newTestSession(s.T(), DefaultSettings(), starRowSequence, WithRecorder(rec))

	result, err := session.Spin(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rec.spins, 1)
	s.Equal("test-session", rec.spins[0].sessionID)
	s.Equal(result, rec.spins[0].result)
	s.Equal(int64(14500), rec.spins[0].balance)
}

func (s *SessionTestSuite) TestUnsubscribe() {
	session := newTestSession(s.T(), DefaultSettings(), losingSequence)
	var n int
	cancel := session.Subscribe(func(Event) { n++ })
	session.TopUp()
	cancel()
	session.TopUp()
	s.Equal(1, n)
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func TestStateMachine(t *testing.T) {
	sm := NewStateMachine("sm", nil)
	assert.Equal(t, StateIdle, sm.GetState())
	assert.False(t, sm.CanTransition(EventSettle))

	err := sm.Trigger(EventReelStop)
	assert.True(t, apperrors.Is(err, apperrors.ErrGameStateError))
	assert.Equal(t, StateIdle, sm.GetState())

	var changes []string
	sm.OnStateChange(func(from, to GameState, event string) {
		changes = append(changes, string(from)+">"+string(to))
	})
	require.NoError(t, sm.Trigger(EventSpin))
	require.NoError(t, sm.Trigger(EventReelStop))
	assert.Equal(t, []string{EventReelStop, EventSettle}, sm.GetValidEvents())
	require.NoError(t, sm.Trigger(EventReelStop))
	require.NoError(t, sm.Trigger(EventSettle))

	assert.Equal(t, []string{
		"idle>spinning",
		"spinning>settling",
		"settling>settling",
		"settling>idle",
	}, changes)
}

func TestNewEngineFromConfig(t *testing.T) {
	engine, err := NewEngineFromConfig(config.GameConfig{Reels: 5, Rows: 3, Seed: 9})
	require.NoError(t, err)
	assert.Equal(t, 5, engine.GenerateGrid().Reels())

	// 默认支付线需要 5x3
	_, err = NewEngineFromConfig(config.GameConfig{Reels: 5, Rows: 2})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidMachine))
	assert.ErrorIs(t, err, slot.ErrInvalidPayline)

	_, err = NewEngineFromConfig(config.GameConfig{Reels: 0, Rows: 3})
	assert.ErrorIs(t, err, slot.ErrInvalidDimensions)
}

func TestSettingsFromConfig(t *testing.T) {
	s := SettingsFromConfig(config.GameConfig{
		InitialBalance:       10000,
		DefaultBet:           500,
		BetStep:              500,
		MinBet:               500,
		TopUpAmount:          10000,
		AutoSpinInterval:     2 * time.Second,
		FastAutoSpinInterval: 800 * time.Millisecond,
	})
	assert.Equal(t, DefaultSettings(), s)
	assert.NoError(t, s.Validate())
}

// 任意指令序列下余额账目守恒且不会为负
func TestSession_BalanceConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		settings := DefaultSettings()
		settings.InitialBalance = rapid.Int64Range(0, 5000).Draw(t, "initial")
		seed := rapid.Int64Range(1, 1<<30).Draw(t, "seed")

		engine, err := slot.NewEngine(slot.GetDefaultConfig(), slot.NewSeededRandomGenerator(seed))
		if err != nil {
			t.Fatalf("engine: %v", err)
		}
		session, err := NewSession(engine, settings, WithLogger(zap.NewNop()))
		if err != nil {
			t.Fatalf("session: %v", err)
		}
		d := NewDispatcher(session)

		var topUps int64
		cmds := []CommandType{CmdSpin, CmdBetIncrease, CmdBetDecrease, CmdTopUp, CmdFastSpin, CmdKey}
		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			cmd := Command{Type: rapid.SampledFrom(cmds).Draw(t, "cmd"), Key: "Enter"}
			before := session.Balance()
			_, err := d.Dispatch(context.Background(), cmd)
			if cmd.Type == CmdTopUp {
				topUps += settings.TopUpAmount
			}
			if err != nil && session.Balance() != before {
				t.Fatalf("failed %s changed balance %d -> %d", cmd.Type, before, session.Balance())
			}

			st := session.Snapshot()
			if st.State != StateIdle {
				t.Fatalf("state %s after %s", st.State, cmd.Type)
			}
			if st.Balance < 0 {
				t.Fatalf("negative balance %d", st.Balance)
			}
			if want := settings.InitialBalance + topUps - st.TotalBet + st.TotalWin; st.Balance != want {
				t.Fatalf("balance %d, want %d", st.Balance, want)
			}
		}
	})
}

func TestSession_SpinFailureRefundsAndReturnsToIdle(t *testing.T) {
	engine := newTestEngine(t, starRowSequence...)
	s, err := NewSession(engine, DefaultSettings(), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	before := s.Snapshot()

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	pool := engine.GetConfig().Pool
	engine.GetConfig().Pool = nil

	_, err = s.Spin(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrGameStateError))

	st := s.Snapshot()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, before.Balance, st.Balance)
	assert.Equal(t, before.Grid, st.Grid)
	assert.Zero(t, st.SpinCount)

	require.NotEmpty(t, events)
	assert.Equal(t, EventTypeError, events[len(events)-1].Type)
	refund, ok := events[len(events)-2].Data.(BalanceData)
	require.True(t, ok)
	assert.Equal(t, "refund", refund.Reason)
	assert.Equal(t, before.Bet, refund.Delta)

	engine.GetConfig().Pool = pool
	result, err := s.Spin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.Payout)
}

func TestStateMachine_Reset(t *testing.T) {
	sm := NewStateMachine("sm", nil)
	var changes []string
	sm.OnStateChange(func(from, to GameState, event string) {
		changes = append(changes, string(from)+">"+string(to)+":"+event)
	})

	sm.Reset()
	assert.Empty(t, changes)

	require.NoError(t, sm.Trigger(EventSpin))
	require.NoError(t, sm.Trigger(EventReelStop))
	sm.Reset()
	assert.Equal(t, StateIdle, sm.GetState())
	assert.Equal(t, "settling>idle:reset", changes[len(changes)-1])
	assert.True(t, sm.CanTransition(EventSpin))
}
