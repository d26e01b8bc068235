package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/fruity-slot/internal/game/slot"
	"github.com/wfunc/fruity-slot/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 内存数据库
func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	// 每个连接都是独立的内存库
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		panic(err)
	}
	return db
}

func cleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

func newTestResult(bet, payout int64, mega bool) *slot.SpinResult {
	grid := slot.NewGrid([][]slot.Symbol{
		{slot.SymbolStar, slot.SymbolCherry, slot.SymbolKiwi, slot.SymbolLemon, slot.SymbolGrape},
		{slot.SymbolLemon, slot.SymbolGrape, slot.SymbolCherry, slot.SymbolKiwi, slot.SymbolPineapple},
		{slot.SymbolKiwi, slot.SymbolPineapple, slot.SymbolLemon, slot.SymbolCherry, slot.SymbolWatermelon},
	})
	result := &slot.SpinResult{
		ID:          uuid.NewString(),
		Bet:         bet,
		Payout:      payout,
		Grid:        grid,
		MegaJackpot: mega,
		Timestamp:   time.Now(),
	}
	if payout > 0 {
		result.HighestMatch = 3
		result.WinningPositions = []slot.Position{{Reel: 0, Row: 0}, {Reel: 1, Row: 0}, {Reel: 2, Row: 0}}
	}
	return result
}
