package game

import (
	"context"

	apperrors "github.com/wfunc/fruity-slot/internal/errors"
)

// CommandType 指令类型
type CommandType string

const (
	CmdSpin        CommandType = "spin"
	CmdBetIncrease CommandType = "bet_increase"
	CmdBetDecrease CommandType = "bet_decrease"
	CmdTopUp       CommandType = "top_up"
	CmdAutoSpin    CommandType = "auto_spin"
	CmdFastSpin    CommandType = "fast_spin"
	CmdKey         CommandType = "key"
	CmdState       CommandType = "state"
)

// Command 玩家指令，Enabled 为空时表示切换
type Command struct {
	Type    CommandType `json:"type"`
	Key     string      `json:"key,omitempty"`
	Enabled *bool       `json:"enabled,omitempty"`
}

// Dispatcher 把指令分发到会话的状态转换函数
type Dispatcher struct {
	session *Session
}

// NewDispatcher 创建分发器
func NewDispatcher(session *Session) *Dispatcher {
	return &Dispatcher{session: session}
}

// Session 目标会话
func (d *Dispatcher) Session() *Session {
	return d.session
}

// Dispatch 执行指令
//
// 旋转类指令返回 *slot.SpinResult，其他指令返回会话快照。
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (interface{}, error) {
	s := d.session
	switch cmd.Type {
	case CmdSpin:
		result, err := s.Spin(ctx)
		if err != nil {
			return nil, err
		}
		return result, nil
	case CmdKey:
		result, spun, err := s.HandleKey(ctx, cmd.Key)
		if err != nil {
			return nil, err
		}
		if spun {
			return result, nil
		}
	case CmdBetIncrease:
		if _, err := s.IncreaseBet(); err != nil {
			return nil, err
		}
	case CmdBetDecrease:
		if _, err := s.DecreaseBet(); err != nil {
			return nil, err
		}
	case CmdTopUp:
		s.TopUp()
	case CmdAutoSpin:
		if cmd.Enabled != nil {
			s.SetAutoSpin(*cmd.Enabled)
		} else {
			s.ToggleAutoSpin()
		}
	case CmdFastSpin:
		if cmd.Enabled != nil {
			s.SetFastSpin(*cmd.Enabled)
		} else {
			s.ToggleFastSpin()
		}
	case CmdState:
	default:
		return nil, apperrors.Newf(apperrors.ErrUnknownCommand, "%q", cmd.Type)
	}
	return s.Snapshot(), nil
}
