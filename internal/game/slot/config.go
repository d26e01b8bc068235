package slot

import "fmt"

// MachineConfig 老虎机配置
type MachineConfig struct {
	MachineID string        `json:"machine_id"` // 机器ID
	Name      string        `json:"name"`       // 名称
	Reels     int           `json:"reels"`      // 卷轴数
	Rows      int           `json:"rows"`       // 行数
	Pool      *WeightedPool `json:"-"`          // 加权符号池
	Paylines  []Payline     `json:"paylines"`   // 支付线
	PayTable  PayTable      `json:"-"`          // 赔率表
}

// GetDefaultConfig 获取默认配置（经典水果机 5x3）
func GetDefaultConfig() *MachineConfig {
	return &MachineConfig{
		MachineID: "fruity",
		Name:      "Fruity Slot",
		Reels:     5,
		Rows:      3,
		Pool:      DefaultPool(),
		Paylines:  DefaultPaylines(),
		PayTable:  DefaultPayTable(),
	}
}

// ValidateConfig 验证配置
func ValidateConfig(config *MachineConfig) error {
	if config == nil {
		return fmt.Errorf("%w: 配置为空", ErrInvalidDimensions)
	}
	if err := validateDimensions(config.Reels, config.Rows); err != nil {
		return err
	}
	if config.Pool == nil || config.Pool.Size() == 0 {
		return ErrEmptyPool
	}
	if err := ValidatePaylines(config.Paylines, config.Reels, config.Rows); err != nil {
		return err
	}
	return config.PayTable.Validate()
}
