package slot

import (
	"fmt"
	"strings"
)

// Symbol 游戏符号
type Symbol string

const (
	SymbolStar       Symbol = "STAR"       // 星星
	SymbolWatermelon Symbol = "WATERMELON" // 西瓜
	SymbolGrape      Symbol = "GRAPE"      // 葡萄
	SymbolLemon      Symbol = "LEMON"      // 柠檬
	SymbolCherry     Symbol = "CHERRY"     // 樱桃
	SymbolPineapple  Symbol = "PINEAPPLE"  // 菠萝
	SymbolKiwi       Symbol = "KIWI"       // 猕猴桃
)

// SymbolInfo 符号信息
type SymbolInfo struct {
	Symbol  Symbol `json:"symbol"`
	Name    string `json:"name"`
	Display string `json:"display"` // 显示字符
	Rank    int    `json:"rank"`    // 价值排序，0 最高
}

var symbolInfos = map[Symbol]*SymbolInfo{
	SymbolStar:       {Symbol: SymbolStar, Name: "星星", Display: "⭐", Rank: 0},
	SymbolWatermelon: {Symbol: SymbolWatermelon, Name: "西瓜", Display: "🍉", Rank: 1},
	SymbolGrape:      {Symbol: SymbolGrape, Name: "葡萄", Display: "🍇", Rank: 2},
	SymbolLemon:      {Symbol: SymbolLemon, Name: "柠檬", Display: "🍋", Rank: 3},
	SymbolCherry:     {Symbol: SymbolCherry, Name: "樱桃", Display: "🍒", Rank: 4},
	SymbolPineapple:  {Symbol: SymbolPineapple, Name: "菠萝", Display: "🍍", Rank: 5},
	SymbolKiwi:       {Symbol: SymbolKiwi, Name: "猕猴桃", Display: "🥝", Rank: 6},
}

// AllSymbols 按价值从高到低返回全部符号
func AllSymbols() []Symbol {
	return []Symbol{
		SymbolStar,
		SymbolWatermelon,
		SymbolGrape,
		SymbolLemon,
		SymbolCherry,
		SymbolPineapple,
		SymbolKiwi,
	}
}

// GetSymbolInfo 获取符号信息
func GetSymbolInfo(s Symbol) *SymbolInfo {
	if info, ok := symbolInfos[s]; ok {
		return info
	}
	return &SymbolInfo{Symbol: s, Name: "未知符号", Display: "?", Rank: len(symbolInfos)}
}

// IsValid 是否为已知符号
func (s Symbol) IsValid() bool {
	_, ok := symbolInfos[s]
	return ok
}

// Display 显示字符
func (s Symbol) Display() string {
	return GetSymbolInfo(s).Display
}

// ParseSymbol 解析符号名称或显示字符，大小写不敏感
func ParseSymbol(v string) (Symbol, error) {
	upper := Symbol(strings.ToUpper(strings.TrimSpace(v)))
	if upper.IsValid() {
		return upper, nil
	}
	for sym, info := range symbolInfos {
		if info.Display == v {
			return sym, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSymbol, v)
}
