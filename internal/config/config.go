package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
)

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Game      GameConfig      `mapstructure:"game"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// WebSocketConfig WebSocket配置
type WebSocketConfig struct {
	Path              string        `mapstructure:"path"`
	ReadBufferSize    int           `mapstructure:"read_buffer_size"`
	WriteBufferSize   int           `mapstructure:"write_buffer_size"`
	MaxMessageSize    int64         `mapstructure:"max_message_size"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
	PongTimeout       time.Duration `mapstructure:"pong_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	EnableCompression bool          `mapstructure:"enable_compression"`
}

// GameConfig 老虎机玩法配置
type GameConfig struct {
	Reels                int           `mapstructure:"reels"`
	Rows                 int           `mapstructure:"rows"`
	InitialBalance       int64         `mapstructure:"initial_balance"`
	DefaultBet           int64         `mapstructure:"default_bet"`
	BetStep              int64         `mapstructure:"bet_step"`
	MinBet               int64         `mapstructure:"min_bet"`
	TopUpAmount          int64         `mapstructure:"top_up_amount"`
	AutoSpinInterval     time.Duration `mapstructure:"auto_spin_interval"`
	FastAutoSpinInterval time.Duration `mapstructure:"fast_auto_spin_interval"`
	FastSpin             bool          `mapstructure:"fast_spin"`
	Seed                 int64         `mapstructure:"seed"` // 0 使用加密随机数
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化全局配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		var loaded *Config
		v, loaded, err = load(configPath)
		if err != nil {
			return
		}
		mu.Lock()
		cfg = loaded
		mu.Unlock()
	})
	return err
}

// Load 读取配置文件（不影响全局配置），文件不存在时使用默认值
func Load(configPath string) (*Config, error) {
	_, c, err := load(configPath)
	return c, err
}

func load(configPath string) (*viper.Viper, *Config, error) {
	vp := viper.New()

	if configPath != "" {
		vp.SetConfigFile(configPath)
	} else {
		vp.SetConfigName("config")
		vp.SetConfigType("yaml")
		vp.AddConfigPath("./config")
		vp.AddConfigPath(".")
	}

	vp.SetEnvPrefix("FRUITY_SLOT")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	setDefaults(vp)

	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, apperrors.Wrap(err, apperrors.ErrConfigLoad)
		}
	}

	c := &Config{}
	if err := vp.Unmarshal(c); err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrConfigParse)
	}
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	return vp, c, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// 旋转流水，默认进程内存库
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file::memory:?cache=shared")
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "0s")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("websocket.path", "/ws")
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.max_message_size", 8192)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.enable_compression", false)

	// 玩法
	v.SetDefault("game.reels", 5)
	v.SetDefault("game.rows", 3)
	v.SetDefault("game.initial_balance", 10000)
	v.SetDefault("game.default_bet", 500)
	v.SetDefault("game.bet_step", 500)
	v.SetDefault("game.min_bet", 500)
	v.SetDefault("game.top_up_amount", 10000)
	v.SetDefault("game.auto_spin_interval", "2s")
	v.SetDefault("game.fast_auto_spin_interval", "800ms")
	v.SetDefault("game.fast_spin", false)
	v.SetDefault("game.seed", 0)

	// 日志
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "fruity-slot.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)
}

// Validate 校验配置，不合法时返回 ErrConfigValidate
func (c *Config) Validate() error {
	g := c.Game
	switch {
	case g.Reels <= 0 || g.Rows <= 0:
		return apperrors.Newf(apperrors.ErrConfigValidate, "game.reels=%d game.rows=%d", g.Reels, g.Rows)
	case g.MinBet <= 0:
		return apperrors.Newf(apperrors.ErrConfigValidate, "game.min_bet 必须大于0: %d", g.MinBet)
	case g.BetStep <= 0:
		return apperrors.Newf(apperrors.ErrConfigValidate, "game.bet_step 必须大于0: %d", g.BetStep)
	case g.DefaultBet < g.MinBet:
		return apperrors.Newf(apperrors.ErrConfigValidate, "game.default_bet %d 小于 min_bet %d", g.DefaultBet, g.MinBet)
	case g.InitialBalance < 0 || g.TopUpAmount <= 0:
		return apperrors.Newf(apperrors.ErrConfigValidate, "game.initial_balance=%d game.top_up_amount=%d", g.InitialBalance, g.TopUpAmount)
	case g.AutoSpinInterval <= 0 || g.FastAutoSpinInterval <= 0:
		return apperrors.Newf(apperrors.ErrConfigValidate, "自动旋转间隔必须大于0")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return apperrors.Newf(apperrors.ErrConfigValidate, "不支持的数据库驱动: %s", c.Database.Driver)
	}
	return nil
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化，新配置校验失败时保留旧配置
func Watch(callback func(*Config)) {
	if v == nil {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}
		if err := newCfg.Validate(); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}

		mu.Lock()
		cfg = newCfg
		mu.Unlock()

		if callback != nil {
			callback(newCfg)
		}
		fmt.Printf("配置已重新加载: %s\n", e.Name)
	})
	v.WatchConfig()
}
