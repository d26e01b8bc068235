package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"github.com/wfunc/fruity-slot/internal/game/slot"
)

func TestAutoPlayer_Tick(t *testing.T) {
	settings := DefaultSettings()
	settings.InitialBalance = 1000
	session := newTestSession(t, settings, losingSequence)
	ap := NewAutoPlayer(session)
	ctx := context.Background()

	// 未开启自动旋转
	assert.False(t, ap.Tick(ctx))
	assert.Equal(t, int64(1000), session.Balance())

	session.SetAutoSpin(true)
	assert.True(t, ap.Tick(ctx))
	assert.True(t, ap.Tick(ctx))
	assert.Zero(t, session.Balance())

	// 余额不足时跳过，自动旋转保持开启
	assert.False(t, ap.Tick(ctx))
	assert.Zero(t, session.Balance())
	assert.True(t, session.AutoSpin())

	session.TopUp()
	assert.True(t, ap.Tick(ctx))
}

func TestAutoPlayer_SkipsWhileSpinning(t *testing.T) {
	session := newTestSession(t, DefaultSettings(), losingSequence)
	session.SetAutoSpin(true)
	require.NoError(t, session.BeginSpin(context.Background()))

	assert.False(t, NewAutoPlayer(session).Tick(context.Background()))
	assert.Equal(t, int64(9500), session.Balance())
}

func TestAutoPlayer_Run(t *testing.T) {
	settings := DefaultSettings()
	settings.AutoSpinInterval = 5 * time.Millisecond
	settings.FastAutoSpinInterval = 2 * time.Millisecond
	session := newTestSession(t, settings, losingSequence)
	session.SetAutoSpin(true)
	session.SetFastSpin(true)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := NewAutoPlayer(session).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	st := session.Snapshot()
	assert.Greater(t, st.SpinCount, 0)
	assert.Equal(t, int64(10000)-st.TotalBet, st.Balance)
}

func TestDispatcher(t *testing.T) {
	session := newTestSession(t, DefaultSettings(), starRowSequence)
	d := NewDispatcher(session)
	ctx := context.Background()

	out, err := d.Dispatch(ctx, Command{Type: CmdBetIncrease})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), out.(SessionState).Bet)

	out, err = d.Dispatch(ctx, Command{Type: CmdBetDecrease})
	require.NoError(t, err)
	assert.Equal(t, int64(500), out.(SessionState).Bet)

	out, err = d.Dispatch(ctx, Command{Type: CmdSpin})
	require.NoError(t, err)
	result, ok := out.(*slot.SpinResult)
	require.True(t, ok)
	assert.Equal(t, int64(5000), result.Payout)

	out, err = d.Dispatch(ctx, Command{Type: CmdKey, Key: "Enter"})
	require.NoError(t, err)
	_, ok = out.(*slot.SpinResult)
	assert.True(t, ok)

	// 未绑定的按键返回快照
	out, err = d.Dispatch(ctx, Command{Type: CmdKey, Key: "x"})
	require.NoError(t, err)
	_, ok = out.(SessionState)
	assert.True(t, ok)

	out, err = d.Dispatch(ctx, Command{Type: CmdTopUp})
	require.NoError(t, err)
	assert.Equal(t, int64(10000-500+5000-500+5000+10000), out.(SessionState).Balance)

	enabled := true
	out, err = d.Dispatch(ctx, Command{Type: CmdAutoSpin, Enabled: &enabled})
	require.NoError(t, err)
	assert.True(t, out.(SessionState).AutoSpin)
	out, err = d.Dispatch(ctx, Command{Type: CmdAutoSpin})
	require.NoError(t, err)
	assert.False(t, out.(SessionState).AutoSpin)

	out, err = d.Dispatch(ctx, Command{Type: CmdFastSpin})
	require.NoError(t, err)
	assert.True(t, out.(SessionState).FastSpin)

	out, err = d.Dispatch(ctx, Command{Type: CmdState})
	require.NoError(t, err)
	assert.Equal(t, session.Snapshot(), out)

	_, err = d.Dispatch(ctx, Command{Type: "jump"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnknownCommand))
}

func TestDispatcher_SpinErrorHasNilResult(t *testing.T) {
	settings := DefaultSettings()
	settings.InitialBalance = 0
	d := NewDispatcher(newTestSession(t, settings, losingSequence))

	out, err := d.Dispatch(context.Background(), Command{Type: CmdSpin})
	assert.Nil(t, out)
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientCoins))
}
