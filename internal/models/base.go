package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// BaseModel 通用主键与时间戳
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONText 以 JSON 文本存储的任意值
type JSONText[T any] struct {
	Data T
}

// NewJSONText 包装值
func NewJSONText[T any](v T) JSONText[T] {
	return JSONText[T]{Data: v}
}

// Value 实现 driver.Valuer
func (j JSONText[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (j *JSONText[T]) Scan(value interface{}) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		var zero T
		j.Data = zero
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("JSONText: 不支持的类型 %T", value)
	}
	return json.Unmarshal(b, &j.Data)
}

// MarshalJSON 直接输出内部值
func (j JSONText[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Data)
}

// UnmarshalJSON 直接解析到内部值
func (j *JSONText[T]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &j.Data)
}
