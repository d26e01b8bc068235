package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"github.com/wfunc/fruity-slot/internal/game"
	"github.com/wfunc/fruity-slot/internal/game/slot"
	"github.com/wfunc/fruity-slot/internal/repository"
	"go.uber.org/zap"
)

// SlotHandler 老虎机处理器
type SlotHandler struct {
	dispatcher *game.Dispatcher
	spins      repository.SpinRepository
	logger     *zap.Logger
}

// NewSlotHandler 创建老虎机处理器，spins 为空时不提供流水查询
func NewSlotHandler(dispatcher *game.Dispatcher, spins repository.SpinRepository, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{
		dispatcher: dispatcher,
		spins:      spins,
		logger:     logger,
	}
}

// ToggleRequest 开关请求，enabled 为空时切换
type ToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

// KeyRequest 按键请求
type KeyRequest struct {
	Key string `json:"key" binding:"required"`
}

// HistoryResponse 流水分页
type HistoryResponse struct {
	Records  interface{} `json:"records"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// StatsResponse 统计
type StatsResponse struct {
	Session game.SessionState          `json:"session"`
	Journal *repository.SpinStatistics `json:"journal"`
}

// SymbolView 符号展示信息
type SymbolView struct {
	slot.SymbolInfo
	Weight      int     `json:"weight"`
	Probability float64 `json:"probability"`
}

// PayTableResponse 赔率表
type PayTableResponse struct {
	Reels    int                  `json:"reels"`
	Rows     int                  `json:"rows"`
	PoolSize int                  `json:"pool_size"`
	Symbols  []SymbolView         `json:"symbols"`
	Paylines []slot.Payline       `json:"paylines"`
	Entries  []slot.PayTableEntry `json:"entries"`
}

// State 当前会话快照
func (h *SlotHandler) State(c *gin.Context) {
	ok(c, h.dispatcher.Session().Snapshot())
}

// Spin 旋转一次
func (h *SlotHandler) Spin(c *gin.Context) {
	h.dispatch(c, game.Command{Type: game.CmdSpin})
}

// IncreaseBet 加注
func (h *SlotHandler) IncreaseBet(c *gin.Context) {
	h.dispatch(c, game.Command{Type: game.CmdBetIncrease})
}

// DecreaseBet 减注
func (h *SlotHandler) DecreaseBet(c *gin.Context) {
	h.dispatch(c, game.Command{Type: game.CmdBetDecrease})
}

// TopUp 充值
func (h *SlotHandler) TopUp(c *gin.Context) {
	h.dispatch(c, game.Command{Type: game.CmdTopUp})
}

// AutoSpin 自动旋转开关
func (h *SlotHandler) AutoSpin(c *gin.Context) {
	h.toggle(c, game.CmdAutoSpin)
}

// FastSpin 快速模式开关
func (h *SlotHandler) FastSpin(c *gin.Context) {
	h.toggle(c, game.CmdFastSpin)
}

// Key 按键
func (h *SlotHandler) Key(c *gin.Context) {
	var req KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.Wrap(err, apperrors.ErrInvalidParam))
		return
	}
	h.dispatch(c, game.Command{Type: game.CmdKey, Key: req.Key})
}

// History 流水分页查询
func (h *SlotHandler) History(c *gin.Context) {
	if h.spins == nil {
		fail(c, apperrors.New(apperrors.ErrNotImplemented, "旋转流水未启用"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	pagination := repository.NewPagination(page, pageSize)

	records, err := h.spins.List(c.Request.Context(), h.sessionScope(c), pagination)
	if err != nil {
		h.logger.Error("查询流水失败", zap.Error(err))
		fail(c, err)
		return
	}
	ok(c, HistoryResponse{
		Records:  records,
		Total:    pagination.Total,
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	})
}

// Stats 会话与流水统计
func (h *SlotHandler) Stats(c *gin.Context) {
	resp := StatsResponse{Session: h.dispatcher.Session().Snapshot()}
	if h.spins != nil {
		stats, err := h.spins.Stats(c.Request.Context(), h.sessionScope(c))
		if err != nil {
			h.logger.Error("统计流水失败", zap.Error(err))
			fail(c, err)
			return
		}
		resp.Journal = stats
	}
	ok(c, resp)
}

// PayTable 符号、权重、支付线与赔率
func (h *SlotHandler) PayTable(c *gin.Context) {
	cfg := h.dispatcher.Session().Engine().GetConfig()

	weights := cfg.Pool.Weights()
	symbols := make([]SymbolView, 0, len(weights))
	for _, s := range slot.AllSymbols() {
		if weights[s] == 0 {
			continue
		}
		symbols = append(symbols, SymbolView{
			SymbolInfo:  *slot.GetSymbolInfo(s),
			Weight:      weights[s],
			Probability: cfg.Pool.Probability(s),
		})
	}

	ok(c, PayTableResponse{
		Reels:    cfg.Reels,
		Rows:     cfg.Rows,
		PoolSize: cfg.Pool.Size(),
		Symbols:  symbols,
		Paylines: cfg.Paylines,
		Entries:  cfg.PayTable.Entries(),
	})
}

// sessionScope 默认只看当前会话，all=true 时查看全部
func (h *SlotHandler) sessionScope(c *gin.Context) string {
	if c.Query("all") == "true" {
		return ""
	}
	return h.dispatcher.Session().ID()
}

func (h *SlotHandler) toggle(c *gin.Context, t game.CommandType) {
	var req ToggleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperrors.Wrap(err, apperrors.ErrInvalidParam))
			return
		}
	}
	h.dispatch(c, game.Command{Type: t, Enabled: req.Enabled})
}

func (h *SlotHandler) dispatch(c *gin.Context, cmd game.Command) {
	out, err := h.dispatcher.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}
