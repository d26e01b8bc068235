package slot

import (
	"fmt"
	"sort"
)

// MinMatch 最少连续个数，不足则不查赔率表
const MinMatch = 3

// PayTable 赔率表：符号 -> 连续个数 -> 倍率
//
// 缺失的条目表示不赔付，这是有意保留的空缺而不是错误。
type PayTable map[Symbol]map[int]int64

// PayTableEntry 赔率表条目（用于展示）
type PayTableEntry struct {
	Symbol     Symbol `json:"symbol"`
	Count      int    `json:"count"`
	Multiplier int64  `json:"multiplier"`
}

// DefaultPayTable 经典水果机赔率表
func DefaultPayTable() PayTable {
	return PayTable{
		SymbolStar:       {5: 500, 4: 100, 3: 10},
		SymbolWatermelon: {5: 200, 4: 40, 3: 5},
		SymbolGrape:      {5: 150, 4: 30, 3: 3},
		SymbolLemon:      {5: 50, 4: 10, 3: 2},
		SymbolCherry:     {5: 25, 4: 5, 3: 1},
		SymbolPineapple:  {5: 10, 4: 3, 3: 1},
		SymbolKiwi:       {5: 10, 4: 3, 3: 1},
	}
}

// Multiplier 查询倍率，零倍率视同缺失
func (t PayTable) Multiplier(s Symbol, count int) (int64, bool) {
	counts, ok := t[s]
	if !ok {
		return 0, false
	}
	m, ok := counts[count]
	if !ok || m <= 0 {
		return 0, false
	}
	return m, true
}

// Validate 校验倍率非负
func (t PayTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: 赔率表为空", ErrInvalidPayTable)
	}
	for s, counts := range t {
		if !s.IsValid() {
			return fmt.Errorf("%w: %w %q", ErrInvalidPayTable, ErrUnknownSymbol, s)
		}
		for count, m := range counts {
			if m < 0 {
				return fmt.Errorf("%w: %s x%d 倍率为负数 %d", ErrInvalidPayTable, s, count, m)
			}
			if count <= 0 {
				return fmt.Errorf("%w: %s 连续个数 %d 无效", ErrInvalidPayTable, s, count)
			}
		}
	}
	return nil
}

// Entries 按符号价值和连续个数排序输出
func (t PayTable) Entries() []PayTableEntry {
	var entries []PayTableEntry
	for s, counts := range t {
		for count, m := range counts {
			entries = append(entries, PayTableEntry{Symbol: s, Count: count, Multiplier: m})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		ri, rj := GetSymbolInfo(entries[i].Symbol).Rank, GetSymbolInfo(entries[j].Symbol).Rank
		if ri != rj {
			return ri < rj
		}
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// Clone 深拷贝
func (t PayTable) Clone() PayTable {
	cp := make(PayTable, len(t))
	for s, counts := range t {
		cp[s] = make(map[int]int64, len(counts))
		for c, m := range counts {
			cp[s][c] = m
		}
	}
	return cp
}
