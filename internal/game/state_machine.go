package game

import (
	"fmt"
	"sort"
	"time"

	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"go.uber.org/zap"
)

// GameState 游戏状态枚举
type GameState string

const (
	StateIdle     GameState = "idle"     // 待机
	StateSpinning GameState = "spinning" // 已扣注，卷轴转动中
	StateSettling GameState = "settling" // 卷轴逐列停止中
)

// 状态事件
const (
	EventSpin     = "spin"      // 开始旋转
	EventReelStop = "reel_stop" // 卷轴停止（快速模式一次停全部）
	EventSettle   = "settle"    // 结算并回到待机
)

// StateTransition 状态转换定义
type StateTransition struct {
	From  GameState
	Event string
	To    GameState
}

// StateMachine 旋转状态机
//
// 只负责合法转换和通知，状态数据保存在 Session 中。调用方负责加锁。
type StateMachine struct {
	currentState GameState
	sessionID    string
	transitions  map[string]StateTransition
	logger       *zap.Logger
	lastUpdate   time.Time

	onStateChange func(from, to GameState, event string)
}

// defaultTransitions 旋转流程的全部转换
var defaultTransitions = []StateTransition{
	{From: StateIdle, Event: EventSpin, To: StateSpinning},
	{From: StateSpinning, Event: EventReelStop, To: StateSettling},
	{From: StateSettling, Event: EventReelStop, To: StateSettling},
	{From: StateSettling, Event: EventSettle, To: StateIdle},
}

// NewStateMachine 创建状态机
func NewStateMachine(sessionID string, logger *zap.Logger) *StateMachine {
	if logger == nil {
		logger = zap.NewNop()
	}
	sm := &StateMachine{
		currentState: StateIdle,
		sessionID:    sessionID,
		transitions:  make(map[string]StateTransition),
		logger:       logger,
		lastUpdate:   time.Now(),
	}
	for _, t := range defaultTransitions {
		sm.transitions[sm.transitionKey(t.From, t.Event)] = t
	}
	return sm
}

// transitionKey 生成转换键
func (sm *StateMachine) transitionKey(state GameState, event string) string {
	return fmt.Sprintf("%s:%s", state, event)
}

// Trigger 触发事件，非法转换返回 ErrGameStateError 且状态不变
func (sm *StateMachine) Trigger(event string) error {
	transition, ok := sm.transitions[sm.transitionKey(sm.currentState, event)]
	if !ok {
		return apperrors.Newf(apperrors.ErrGameStateError, "无效的状态转换: 状态=%s, 事件=%s", sm.currentState, event)
	}

	from := sm.currentState
	sm.currentState = transition.To
	sm.lastUpdate = time.Now()

	if sm.onStateChange != nil {
		sm.onStateChange(from, sm.currentState, event)
	}

	sm.logger.Debug("状态转换",
		zap.String("session_id", sm.sessionID),
		zap.String("from", string(from)),
		zap.String("to", string(sm.currentState)),
		zap.String("event", event))
	return nil
}

// Reset 强制回到待机，用于中止一次失败的旋转
func (sm *StateMachine) Reset() {
	from := sm.currentState
	if from == StateIdle {
		return
	}
	sm.currentState = StateIdle
	sm.lastUpdate = time.Now()

	if sm.onStateChange != nil {
		sm.onStateChange(from, StateIdle, "reset")
	}
	sm.logger.Warn("状态机重置",
		zap.String("session_id", sm.sessionID),
		zap.String("from", string(from)))
}

// GetState 获取当前状态
func (sm *StateMachine) GetState() GameState {
	return sm.currentState
}

// LastUpdate 最后一次转换时间
func (sm *StateMachine) LastUpdate() time.Time {
	return sm.lastUpdate
}

// OnStateChange 设置状态变更回调
func (sm *StateMachine) OnStateChange(fn func(from, to GameState, event string)) {
	sm.onStateChange = fn
}

// CanTransition 检查是否可以转换
func (sm *StateMachine) CanTransition(event string) bool {
	_, ok := sm.transitions[sm.transitionKey(sm.currentState, event)]
	return ok
}

// GetValidEvents 获取当前状态下的有效事件
func (sm *StateMachine) GetValidEvents() []string {
	var events []string
	for _, t := range sm.transitions {
		if t.From == sm.currentState {
			events = append(events, t.Event)
		}
	}
	sort.Strings(events)
	return events
}
