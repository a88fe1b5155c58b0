package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// ThumbnailSize 一个缩略图尺寸，Edge 为正方形边长（像素）
type ThumbnailSize struct {
	Name string
	Edge int
}

// ThumbnailSizes 按边长升序排列的尺寸列表
type ThumbnailSizes []ThumbnailSize

// DefaultThumbnailSizes small=200, medium=500, large=1000
var DefaultThumbnailSizes = ThumbnailSizes{
	{Name: "small", Edge: 200},
	{Name: "medium", Edge: 500},
	{Name: "large", Edge: 1000},
}

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`
	ServerMaxInflight  int64         `mapstructure:"server_max_inflight"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`

	// 日志配置
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 存储配置
	StorageType         string `mapstructure:"storage_type"`
	StorageLocalPath    string `mapstructure:"storage_local_path"`
	MinioEndpoint       string `mapstructure:"minio_endpoint"`
	MinioAccessKeyID    string `mapstructure:"minio_access_key_id"`
	MinioSecretKey      string `mapstructure:"minio_secret_access_key"`
	MinioBucket         string `mapstructure:"minio_bucket"`
	MinioUseSSL         bool   `mapstructure:"minio_use_ssl"`
	WebDAVURL           string `mapstructure:"webdav_url"`
	WebDAVUsername      string `mapstructure:"webdav_username"`
	WebDAVPassword      string `mapstructure:"webdav_password"`
	WebDAVRootPath      string `mapstructure:"webdav_root_path"`
	S3Endpoint          string `mapstructure:"s3_endpoint"`
	S3Region            string `mapstructure:"s3_region"`
	S3Bucket            string `mapstructure:"s3_bucket"`
	S3AccessKeyID       string `mapstructure:"s3_access_key_id"`
	S3SecretAccessKey   string `mapstructure:"s3_secret_access_key"`
	S3ForcePathStyle    bool   `mapstructure:"s3_force_path_style"`
	UploadURLPrefix     string `mapstructure:"upload_url_prefix"`
	UploadMaxSizeMB     int    `mapstructure:"upload_max_size_mb"`
	UploadOriginalDir   string `mapstructure:"upload_original_dir"`

	// 图片处理配置
	ImageProcessor    string         `mapstructure:"image_processor"`
	ImageQuality      int            `mapstructure:"image_quality"`
	ImageMaxPixels    int            `mapstructure:"image_max_pixels"`
	ImageThumbnails   ThumbnailSizes `mapstructure:"image_thumbnail_sizes"`
	ImageVariantLimit int            `mapstructure:"image_variant_concurrency"`

	// 缓存配置
	CacheType          string        `mapstructure:"cache_type"`
	CacheImageTTL      time.Duration `mapstructure:"cache_image_ttl"`
	CacheMaxCostMB     int64         `mapstructure:"cache_max_cost_mb"`
	CacheRedisAddr     string        `mapstructure:"cache_redis_addr"`
	CacheRedisPassword string        `mapstructure:"cache_redis_password"`
	CacheRedisDB       int           `mapstructure:"cache_redis_db"`

	// JWT
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTCookieName string        `mapstructure:"jwt_cookie_name"`
	JWTExpiresIn  time.Duration `mapstructure:"jwt_expires_in"`

	// 限流配置
	RateLimitApiRPS     float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst   int           `mapstructure:"rate_limit_api_burst"`
	RateLimitFileRPS    float64       `mapstructure:"rate_limit_file_rps"`
	RateLimitFileBurst  int           `mapstructure:"rate_limit_file_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`
}

// Load 读取配置：默认值 < 配置文件 < 环境变量
// path 为空时尝试当前目录下的 .env
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
	} else {
		v.SetConfigFile(path)
		if strings.HasSuffix(path, ".env") {
			v.SetConfigType("env")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		fmt.Fprintln(os.Stderr, "Info: .env file not found, using defaults and environment variables")
	}

	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		thumbnailSizesHook(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if len(cfg.ImageThumbnails) == 0 {
		cfg.ImageThumbnails = DefaultThumbnailSizes
	}
	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server_host", "127.0.0.1")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_domain", "")
	v.SetDefault("server_read_timeout", "15s")
	v.SetDefault("server_write_timeout", "60s")
	v.SetDefault("server_idle_timeout", "120s")
	v.SetDefault("server_max_inflight", 100)
	v.SetDefault("cors_allowed_origins", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("db_type", "sqlite")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_username", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "folio")
	v.SetDefault("db_file_path", "./data/folio.db")
	v.SetDefault("db_max_open_conns", 50)
	v.SetDefault("db_max_idle_conns", 10)
	v.SetDefault("db_conn_max_lifetime", 3600)

	v.SetDefault("storage_type", "local")
	v.SetDefault("storage_local_path", "./uploads")
	v.SetDefault("minio_endpoint", "")
	v.SetDefault("minio_access_key_id", "")
	v.SetDefault("minio_secret_access_key", "")
	v.SetDefault("minio_bucket", "folio")
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("webdav_url", "")
	v.SetDefault("webdav_username", "")
	v.SetDefault("webdav_password", "")
	v.SetDefault("webdav_root_path", "/folio")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_bucket", "folio")
	v.SetDefault("s3_access_key_id", "")
	v.SetDefault("s3_secret_access_key", "")
	v.SetDefault("s3_force_path_style", true)
	v.SetDefault("upload_url_prefix", "/uploads")
	v.SetDefault("upload_max_size_mb", 50)
	v.SetDefault("upload_original_dir", "original")

	v.SetDefault("image_processor", "imaging")
	v.SetDefault("image_quality", 85)
	v.SetDefault("image_max_pixels", 100_000_000)
	v.SetDefault("image_thumbnail_sizes", "small:200,medium:500,large:1000")
	v.SetDefault("image_variant_concurrency", 0)

	v.SetDefault("cache_type", "memory")
	v.SetDefault("cache_image_ttl", "5m")
	v.SetDefault("cache_max_cost_mb", 64)
	v.SetDefault("cache_redis_addr", "localhost:6379")
	v.SetDefault("cache_redis_password", "")
	v.SetDefault("cache_redis_db", 0)

	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_cookie_name", "access_token")
	v.SetDefault("jwt_expires_in", "24h")

	v.SetDefault("rate_limit_api_rps", 30.0)
	v.SetDefault("rate_limit_api_burst", 60)
	v.SetDefault("rate_limit_file_rps", 100.0)
	v.SetDefault("rate_limit_file_burst", 200)
	v.SetDefault("rate_limit_expire_time", "10m")
}

// thumbnailSizesHook 将 "small:200,medium:500" 解析为 ThumbnailSizes
func thumbnailSizesHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(ThumbnailSizes{}) {
			return data, nil
		}
		return ParseThumbnailSizes(data.(string))
	}
}

// ParseThumbnailSizes parses "name:edge" pairs separated by commas.
func ParseThumbnailSizes(raw string) (ThumbnailSizes, error) {
	var sizes ThumbnailSizes
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, edgeStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid thumbnail size %q, want name:edge", part)
		}
		name = strings.TrimSpace(name)
		edge, err := strconv.Atoi(strings.TrimSpace(edgeStr))
		if err != nil || edge <= 0 {
			return nil, fmt.Errorf("invalid thumbnail edge in %q", part)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate thumbnail size name %q", name)
		}
		seen[name] = struct{}{}
		sizes = append(sizes, ThumbnailSize{Name: name, Edge: edge})
	}
	sort.SliceStable(sizes, func(i, j int) bool { return sizes[i].Edge < sizes[j].Edge })
	return sizes, nil
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回基础 URL
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return strings.TrimRight(c.ServerDomain, "/")
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}

// UploadMaxBytes 单个上传文件的字节上限
func (c *Config) UploadMaxBytes() int64 {
	if c.UploadMaxSizeMB <= 0 {
		return 50 << 20
	}
	return int64(c.UploadMaxSizeMB) << 20
}
