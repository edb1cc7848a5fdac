package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Game     GameConfig     `mapstructure:"game"`
	Security SecurityConfig `mapstructure:"security"`
	Resource ResourceConfig `mapstructure:"resource"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type ServerConfig struct {
	Addr     string `mapstructure:"addr"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	ReferenceTTL    time.Duration `mapstructure:"reference_ttl"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
}

type GameConfig struct {
	InventorySlots int `mapstructure:"inventory_slots"`
	LootRollMax    int `mapstructure:"loot_roll_max"`
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	// AdminAllowlist lists CIDRs permitted to reach admin endpoints.
	// Empty allows all (local development only).
	AdminAllowlist []string `mapstructure:"admin_allowlist"`
}

type ResourceConfig struct {
	// DataDir holds designer-authored reference data JSON files, imported at
	// boot. Empty disables the import.
	DataDir string `mapstructure:"data_dir"`
}

type AuditConfig struct {
	Retention time.Duration `mapstructure:"retention"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/dataport.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.reference_ttl", "5m")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("game.inventory_slots", 140)
	v.SetDefault("game.loot_roll_max", 9999)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("audit.retention", "2160h") // 90 days

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
