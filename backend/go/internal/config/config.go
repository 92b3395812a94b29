package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath 是默认的配置文件路径，可通过 ORBIT_CONFIG 环境变量覆盖。
const DefaultPath = "backend/go/internal/config/config.yaml"

// FieldConfig 定义了 Milvus 集合中字段的配置。
type FieldConfig struct {
	Name         string `yaml:"name"`                // 字段名称
	DataType     string `yaml:"dataType"`            // "Int64", "VarChar", "JSON", "FloatVector" 等
	IsPrimaryKey bool   `yaml:"isPrimaryKey"`        // 是否为主键
	IsAutoID     bool   `yaml:"isAutoID"`            // 是否自动生成ID
	Dim          int    `yaml:"dim,omitempty"`       // 向量维度 (仅适用于向量类型)
	MaxLength    int    `yaml:"maxLength,omitempty"` // 最大长度 (仅适用于VarChar类型)
}

// IndexConfig 定义了 Milvus 集合中索引的配置。
type IndexConfig struct {
	FieldName  string                 `yaml:"fieldName"`
	IndexType  string                 `yaml:"indexType"`  // "IVF_FLAT", "HNSW", "AUTOINDEX"
	MetricType string                 `yaml:"metricType"` // "COSINE", "IP", "L2"
	Params     map[string]interface{} `yaml:"params"`
}

// SchemaConfig 定义了 Milvus 集合的 Schema 配置。
type SchemaConfig struct {
	CollectionName string        `yaml:"collectionName"`
	Description    string        `yaml:"description"`
	VectorField    string        `yaml:"vectorField"`
	Fields         []FieldConfig `yaml:"fields"`
	Index          IndexConfig   `yaml:"index"`
}

// MilvusConfig 定义了 Milvus 数据库的连接和 Schema 配置。
type MilvusConfig struct {
	Address string       `yaml:"address"`
	Schema  SchemaConfig `yaml:"schema"`
}

// RedisConfig 定义了 Redis 的连接配置。Enabled 为 false 时不使用 embedding 缓存。
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 秒
}

// KafkaConfig 定义了 Kafka 的连接配置。Brokers 为空时不发布抓取事件。
type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	ScrapeTopic string   `yaml:"scrapeTopic"`
}

// DatabaseConfigs 包含所有存储组件的配置。
type DatabaseConfigs struct {
	MySQL  MySQLConfig  `yaml:"mysql"`
	Milvus MilvusConfig `yaml:"milvus"`
	Redis  RedisConfig  `yaml:"redis"`
	Kafka  KafkaConfig  `yaml:"kafka"`
}

// AppInfo 包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// ServerConfig 定义 HTTP 服务配置。
type ServerConfig struct {
	Address         string `yaml:"address"`
	ShutdownTimeout string `yaml:"shutdownTimeout"`
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" 或 "text"
}

// ScraperConfig 定义 BrightData 抓取客户端的配置。
type ScraperConfig struct {
	BaseURL             string               `yaml:"baseURL"`
	APIKey              string               `yaml:"apiKey"`
	Datasets            map[string]string    `yaml:"datasets"` // 键为抓取目标，例如 "linkedin_profile"
	MaxRetries          int                  `yaml:"maxRetries"`
	BaseDelay           string               `yaml:"baseDelay"`
	RequestTimeout      string               `yaml:"requestTimeout"`
	PostSuccessDelay    string               `yaml:"postSuccessDelay"`
	InstagramPostsLimit int                  `yaml:"instagramPostsLimit"`
	TikTokCountry       string               `yaml:"tiktokCountry"`
	CircuitBreaker      CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// EmbeddingConfig 定义 embedding 提供商的配置。
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "ollama", "huggingface", "gemini"
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	BaseURL   string `yaml:"baseURL"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batchSize"`
	CacheTTL  string `yaml:"cacheTTL"` // 为空表示不缓存
	CacheSize int    `yaml:"cacheSize"` // Redis 不可用时进程内缓存的条目上限
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了限流器的配置，使用令牌桶算法，PerClient 为 true 时按客户端 IP 分桶。
type RateLimiterConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Rate      float64 `yaml:"rate"` // 每秒令牌数
	Capacity  int     `yaml:"capacity"`
	PerClient bool    `yaml:"perClient"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// AppConfig 是整个 YAML 文件的根结构。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Logger     LoggerConfig     `yaml:"logger"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// DefaultDatasets 是 BrightData 各抓取目标的默认数据集 ID。
// facebook/twitter/youtube 暂无专用数据集，沿用 Instagram 主页数据集作为占位。
var DefaultDatasets = map[string]string{
	"linkedin_profile":  "gd_l1viktl72bvl7bjuj0",
	"linkedin_posts":    "gd_lyy3tktm25m4avu764",
	"instagram_profile": "gd_l1vikfch901nx3by4",
	"instagram_posts":   "gd_lk5ns7kz21pck8jpis",
	"tiktok_profile":    "gd_l1villgoiiidt09ci",
	"facebook_profile":  "gd_l1vikfch901nx3by4",
	"twitter_profile":   "gd_l1vikfch901nx3by4",
	"youtube_profile":   "gd_l1vikfch901nx3by4",
}

// LoadConfig 从指定路径加载 YAML 配置，随后应用环境变量覆盖和默认值。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 文件读取、解析或校验失败时返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// .env 文件是可选的，不存在时直接使用系统环境变量。
	_ = godotenv.Load()

	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolvePath 返回 ORBIT_CONFIG 指定的路径，未设置时返回 DefaultPath。
func ResolvePath() string {
	if p := os.Getenv("ORBIT_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// applyEnv 使用环境变量覆盖敏感信息和部署相关的配置。
func (c *AppConfig) applyEnv() {
	if v := os.Getenv("BRIGHTDATA_API_KEY"); v != "" {
		c.Scraper.APIKey = v
	}
	if v := os.Getenv("OPENAI_KEY"); v != "" && (c.Embedding.Provider == "" || c.Embedding.Provider == "openai") {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.Databases.MySQL.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			c.Server.Address = ":" + v
		}
	}
}

// applyDefaults 为未配置的项填充默认值。
func (c *AppConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}

	s := &c.Scraper
	if s.BaseURL == "" {
		s.BaseURL = "https://api.brightdata.com"
	}
	if s.Datasets == nil {
		s.Datasets = make(map[string]string, len(DefaultDatasets))
	}
	for k, v := range DefaultDatasets {
		if s.Datasets[k] == "" {
			s.Datasets[k] = v
		}
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = 3
	}
	if s.BaseDelay == "" {
		s.BaseDelay = "1s"
	}
	if s.RequestTimeout == "" {
		s.RequestTimeout = "30s"
	}
	if s.PostSuccessDelay == "" {
		s.PostSuccessDelay = "500ms"
	}
	if s.InstagramPostsLimit <= 0 {
		s.InstagramPostsLimit = 10
	}

	e := &c.Embedding
	if e.Provider == "" {
		e.Provider = "openai"
	}
	if e.Model == "" && e.Provider == "openai" {
		e.Model = "text-embedding-ada-002"
	}
	if e.Dimension <= 0 {
		e.Dimension = 1536
	}
	if e.BatchSize <= 0 {
		e.BatchSize = 32
	}
	if e.CacheSize <= 0 {
		e.CacheSize = 4096
	}

	if c.Databases.Kafka.ScrapeTopic == "" {
		c.Databases.Kafka.ScrapeTopic = "orbit.scrape.completed"
	}
}

// Validate 校验所有时长字段能够被解析。
func (c *AppConfig) Validate() error {
	durations := map[string]string{
		"server.shutdownTimeout":            c.Server.ShutdownTimeout,
		"scraper.baseDelay":                 c.Scraper.BaseDelay,
		"scraper.requestTimeout":            c.Scraper.RequestTimeout,
		"scraper.postSuccessDelay":          c.Scraper.PostSuccessDelay,
		"embedding.cacheTTL":                c.Embedding.CacheTTL,
		"middleware.circuitBreaker.timeout": c.Middleware.CircuitBreaker.Timeout,
		"scraper.circuitBreaker.timeout":    c.Scraper.CircuitBreaker.Timeout,
	}
	var errs []error
	for name, v := range durations {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Duration 解析时长字符串，为空或无效时返回 fallback。
func Duration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
