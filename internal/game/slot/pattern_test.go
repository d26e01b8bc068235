package slot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const (
	S = SymbolStar
	W = SymbolWatermelon
	G = SymbolGrape
	L = SymbolLemon
	C = SymbolCherry
	P = SymbolPineapple
	K = SymbolKiwi
)

func newDefaultEvaluator(t *testing.T) *LineEvaluator {
	t.Helper()
	cfg := GetDefaultConfig()
	m, err := NewLineEvaluator(cfg.Reels, cfg.Rows, cfg.Paylines, cfg.PayTable)
	require.NoError(t, err)
	return m
}

func TestDefaultPaylines(t *testing.T) {
	lines := DefaultPaylines()
	require.Len(t, lines, 6)
	require.NoError(t, ValidatePaylines(lines, 5, 3))

	assert.Equal(t, []Position{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}, lines[0].Positions)
	assert.Equal(t, []Position{{0, 1}, {1, 1}, {2, 1}, {3, 1}, {4, 1}}, lines[1].Positions)
	assert.Equal(t, []Position{{0, 2}, {1, 2}, {2, 2}, {3, 2}, {4, 2}}, lines[2].Positions)
	assert.Equal(t, []Position{{0, 0}, {1, 1}, {2, 2}}, lines[3].Positions)
	assert.Equal(t, []Position{{0, 2}, {1, 1}, {2, 0}}, lines[4].Positions)
	assert.Equal(t, []Position{{0, 0}, {1, 1}, {2, 2}, {3, 1}, {4, 0}}, lines[5].Positions)
}

func TestRunLength(t *testing.T) {
	tests := []struct {
		name    string
		symbols []Symbol
		want    int
	}{
		{"空", nil, 0},
		{"单个", []Symbol{S}, 1},
		{"首个不同即停止", []Symbol{S, K, S, S}, 1},
		{"两连", []Symbol{C, C, K, C, C}, 2},
		{"三连", []Symbol{C, C, C, K, C}, 3},
		{"五连", []Symbol{K, K, K, K, K}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RunLength(tt.symbols))
		})
	}
}

func TestLineEvaluator_Evaluate(t *testing.T) {
	m := newDefaultEvaluator(t)

	tests := []struct {
		name         string
		rows         [][]Symbol
		bet          int64
		payout       int64
		highestMatch int
		positions    []Position
	}{
		{
			name: "顶行三个星星",
			rows: [][]Symbol{
				{S, S, S, K, L},
				{C, G, L, K, P},
				{G, K, C, L, W},
			},
			bet:          500,
			payout:       5000,
			highestMatch: 3,
			positions:    []Position{{0, 0}, {1, 0}, {2, 0}},
		},
		{
			name: "中行三个樱桃",
			rows: [][]Symbol{
				{K, L, G, S, W},
				{C, C, C, L, K},
				{G, P, K, C, L},
			},
			bet:          500,
			payout:       500,
			highestMatch: 3,
			positions:    []Position{{0, 1}, {1, 1}, {2, 1}},
		},
		{
			name: "顶行四个柠檬",
			rows: [][]Symbol{
				{L, L, L, L, K},
				{C, G, K, S, P},
				{G, K, C, P, W},
			},
			bet:          100,
			payout:       1000,
			highestMatch: 4,
			positions:    []Position{{0, 0}, {1, 0}, {2, 0}, {3, 0}},
		},
		{
			name: "两连不赔付",
			rows: [][]Symbol{
				{S, S, K, L, G},
				{C, L, G, K, P},
				{G, K, P, C, W},
			},
			bet:       500,
			payout:    0,
			positions: []Position{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := m.Evaluate(NewGrid(tt.rows), tt.bet)
			assert.Equal(t, tt.payout, result.Payout)
			assert.Equal(t, tt.highestMatch, result.HighestMatch)
			assert.Equal(t, tt.positions, result.WinningPositions)
			assert.False(t, result.MegaJackpot)
			assert.Equal(t, tt.payout > 0, result.IsWin())
		})
	}
}

func TestLineEvaluator_AllStars(t *testing.T) {
	m := newDefaultEvaluator(t)
	grid := NewGrid([][]Symbol{
		{S, S, S, S, S},
		{S, S, S, S, S},
		{S, S, S, S, S},
	})

	result := m.Evaluate(grid, 100)
	// 三条水平线 + V线 各500倍，两条对角线各10倍
	assert.Equal(t, int64(100*(500*4+10*2)), result.Payout)
	assert.Equal(t, 5, result.HighestMatch)
	assert.True(t, result.MegaJackpot)
	assert.Len(t, result.WinLines, 6)
	// 坐标集合去重
	assert.Len(t, result.WinningPositions, 15)
	assert.Equal(t, "MEGA JACKPOT!", result.GetWinDescription())
}

func TestLineEvaluator_MissingPayTableEntry(t *testing.T) {
	cfg := GetDefaultConfig()
	m, err := NewLineEvaluator(cfg.Reels, cfg.Rows, cfg.Paylines, PayTable{
		SymbolStar:   {5: 500},
		SymbolCherry: {4: 5, 3: 0},
	})
	require.NoError(t, err)

	grid := NewGrid([][]Symbol{
		{K, L, G, S, W},
		{C, C, C, L, K},
		{G, P, K, C, L},
	})
	result := m.Evaluate(grid, 500)
	assert.Zero(t, result.Payout)
	assert.Zero(t, result.HighestMatch)
	assert.Empty(t, result.WinningPositions)
	assert.NotNil(t, result.WinningPositions)
	assert.Equal(t, "未中奖", result.GetWinDescription())
}

func TestLineEvaluator_Deterministic(t *testing.T) {
	m := newDefaultEvaluator(t)
	grid, err := GenerateGrid(5, 3, DefaultPool(), NewSeededRandomGenerator(42))
	require.NoError(t, err)

	a := m.Evaluate(grid, 500)
	b := m.Evaluate(grid, 500)
	assert.Equal(t, a, b)

	// 输入网格不被修改，结果持有副本
	a.Grid[0][0] = "X"
	assert.NotEqual(t, Symbol("X"), grid[0][0])
}

func TestSpinResult_WinningKeys(t *testing.T) {
	m := newDefaultEvaluator(t)
	result := m.Evaluate(NewGrid([][]Symbol{
		{S, S, S, K, L},
		{C, G, L, K, P},
		{G, K, C, L, W},
	}), 500)

	assert.Equal(t, []string{"0,0", "1,0", "2,0"}, result.WinningKeys())
	assert.True(t, result.IsWinningPosition(Position{Reel: 1, Row: 0}))
	assert.False(t, result.IsWinningPosition(Position{Reel: 3, Row: 0}))
	assert.Equal(t, "Total Win: 5000", result.GetWinDescription())
}

func TestNewLineEvaluator_Invalid(t *testing.T) {
	table := DefaultPayTable()

	_, err := NewLineEvaluator(5, 3, nil, table)
	assert.ErrorIs(t, err, ErrInvalidPayline)

	_, err = NewLineEvaluator(5, 3, []Payline{{ID: 0, Positions: []Position{{0, 3}}}}, table)
	assert.ErrorIs(t, err, ErrInvalidPayline)

	_, err = NewLineEvaluator(5, 3, []Payline{{ID: 0, Positions: []Position{{0, 0}, {0, 0}}}}, table)
	assert.ErrorIs(t, err, ErrInvalidPayline)

	_, err = NewLineEvaluator(2, 3, DefaultPaylines(), table)
	assert.ErrorIs(t, err, ErrInvalidPayline)

	_, err = NewLineEvaluator(5, 3, DefaultPaylines(), PayTable{SymbolStar: {3: -1}})
	assert.ErrorIs(t, err, ErrInvalidPayTable)

	_, err = NewLineEvaluator(5, 3, DefaultPaylines(), PayTable{"BAR": {3: 1}})
	assert.ErrorIs(t, err, ErrInvalidPayTable)
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = NewLineEvaluator(0, 3, DefaultPaylines(), table)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestPayTable_Entries(t *testing.T) {
	entries := DefaultPayTable().Entries()
	require.Len(t, entries, 21)
	assert.Equal(t, PayTableEntry{Symbol: SymbolStar, Count: 5, Multiplier: 500}, entries[0])
	assert.Equal(t, SymbolKiwi, entries[len(entries)-1].Symbol)
	assert.Equal(t, 3, entries[len(entries)-1].Count)
}

func TestLineEvaluator_Property(t *testing.T) {
	m := newDefaultEvaluator(t)
	syms := AllSymbols()

	rapid.Check(t, func(t *rapid.T) {
		grid := make(Grid, 5)
		for reel := range grid {
			grid[reel] = make([]Symbol, 3)
			for row := range grid[reel] {
				grid[reel][row] = rapid.SampledFrom(syms).Draw(t, "symbol")
			}
		}
		bet := rapid.Int64Range(1, 100000).Draw(t, "bet")

		result := m.Evaluate(grid, bet)

		if result.Payout < 0 || result.Payout%bet != 0 {
			t.Fatalf("payout %d not a non-negative multiple of bet %d", result.Payout, bet)
		}
		zero := result.Payout == 0
		if zero != (result.HighestMatch == 0) || zero != (len(result.WinningPositions) == 0) {
			t.Fatalf("inconsistent result: payout=%d highest=%d positions=%d",
				result.Payout, result.HighestMatch, len(result.WinningPositions))
		}
		if !zero && (result.HighestMatch < MinMatch || result.HighestMatch > 5) {
			t.Fatalf("highest match %d out of range", result.HighestMatch)
		}
		if result.MegaJackpot != (result.HighestMatch == 5) {
			t.Fatalf("mega jackpot %v with highest match %d", result.MegaJackpot, result.HighestMatch)
		}
		for _, pos := range result.WinningPositions {
			if !grid.Contains(pos) {
				t.Fatalf("position %v outside grid", pos)
			}
		}
		var sum int64
		for _, line := range result.WinLines {
			sum += line.WinAmount
		}
		if sum != result.Payout {
			t.Fatalf("win lines sum %d != payout %d", sum, result.Payout)
		}
	})
}

func TestSpinResult_JSONRoundTrip(t *testing.T) {
	evaluator := newDefaultEvaluator(t)
	grid := NewGrid([][]Symbol{
		{S, S, S, G, C},
		{C, L, G, K, P},
		{G, K, P, C, W},
	})
	result := evaluator.Evaluate(grid, 500)
	require.NotEmpty(t, result.WinLines)

	b, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"line_type":"horizontal"`)

	var decoded SpinResult
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, result.WinLines, decoded.WinLines)
	assert.Equal(t, result.Grid, decoded.Grid)

	var lt LineType
	assert.Error(t, lt.UnmarshalText([]byte("spiral")))
}
