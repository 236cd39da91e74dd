package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	// 服务配置
	ServiceName string
	Port        int
	Debug       bool
	StoragePath string
	Host        string // 服务监听地址
	GinMode     string // Gin运行模式

	// 转换管线配置
	DefaultLevel    int  // 未指定时的初始敬语等级
	HistoryCapacity int  // 转换历史上限（FIFO淘汰）
	EnableEmoji     bool // 等级4以上是否附加绝文字

	// LLM润色配置
	LLMEnabled     bool          // 是否启用LLM润色候选
	LLMProvider    string        // deepseek, openai
	LLMModel       string        // 模型名称
	LLMAPIKey      string        // API密钥
	LLMBaseURL     string        // API端点（空则用默认）
	LLMTimeout     time.Duration // 单次调用超时，默认15秒
	LLMMaxTokens   int           // 最大生成token数
	LLMTemperature float64       // 采样温度
	LLMRateLimit   int           // 每分钟请求上限
	LLMCacheTTL    time.Duration // 润色结果缓存TTL

	// 反馈学习配置
	LearnerStateKey  string // 学习器状态的存储键
	FeedbackMaxCount int    // 内存中保留的反馈记录上限
}

// Load 从环境变量加载配置
func Load() *Config {
	// 尝试加载.env文件，优先config目录，然后兼容根目录
	envPaths := []string{
		"config/.env",
		".env",
	}

	loaded := false
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				log.Printf("成功加载.env文件: %s", path)
				loaded = true
				break
			}
		}
	}

	if !loaded {
		log.Printf("警告: 未找到.env文件，尝试使用系统环境变量")
	}

	config := &Config{
		// 服务配置默认值
		ServiceName: getEnv("SERVICE_NAME", "keigo-bridge"),
		Port:        getEnvAsInt("PORT", 8090),
		Debug:       getEnvAsBool("DEBUG", false),
		StoragePath: getStoragePathDefault(),
		Host:        getEnv("HOST", "0.0.0.0"),
		GinMode:     getEnv("GIN_MODE", "release"),

		// 转换管线配置
		DefaultLevel:    getEnvAsInt("DEFAULT_LEVEL", 3),
		HistoryCapacity: getEnvAsInt("HISTORY_CAPACITY", 100),
		EnableEmoji:     getEnvAsBool("ENABLE_EMOJI", true),

		// LLM润色配置
		LLMEnabled:     getEnvAsBool("LLM_ENABLED", false), // 默认关闭，确定性管线自足
		LLMProvider:    getEnv("LLM_PROVIDER", "deepseek"),
		LLMModel:       getEnv("LLM_MODEL", "deepseek-chat"),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 15*time.Second),
		LLMMaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 512),
		LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.3),
		LLMRateLimit:   getEnvAsInt("LLM_RATE_LIMIT", 60),
		LLMCacheTTL:    getEnvAsDuration("LLM_CACHE_TTL", 30*time.Minute),

		// 反馈学习配置
		LearnerStateKey:  getEnv("LEARNER_STATE_KEY", "learner_state"),
		FeedbackMaxCount: getEnvAsInt("FEEDBACK_MAX_COUNT", 500),
	}

	// 确保存储路径存在
	if err := ensureDir(config.StoragePath); err != nil {
		log.Printf("警告: 创建存储目录失败: %v", err)
	}

	return config
}

// String 返回配置的字符串表示
func (c *Config) String() string {
	return fmt.Sprintf(
		"服务名称: %s, 端口: %d, 调试模式: %v, 存储路径: %s, 默认敬语等级: %d, "+
			"历史上限: %d, LLM: %v(%s/%s), LLM超时: %v",
		c.ServiceName, c.Port, c.Debug, c.StoragePath, c.DefaultLevel,
		c.HistoryCapacity, c.LLMEnabled, c.LLMProvider, maskString(c.LLMAPIKey),
		c.LLMTimeout,
	)
}

// 从环境变量获取字符串值
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// 从环境变量获取整数值
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return defaultValue
}

// 从环境变量获取布尔值
func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return defaultValue
}

// 从环境变量获取浮点值
func getEnvAsFloat(key string, defaultValue float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return defaultValue
}

// 从环境变量获取时间值
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return defaultValue
}

// 确保目录存在
func ensureDir(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, 0755)
	}
	return nil
}

// 掩码字符串，用于日志输出安全
func maskString(input string) string {
	if len(input) <= 8 {
		return "***"
	}
	return input[:4] + "..." + input[len(input)-4:]
}

// 获取存储路径的默认值（使用操作系统标准应用数据目录）
func getStoragePathDefault() string {
	appName := "keigo-bridge"

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("警告: 无法获取用户主目录: %v", err)
		return "./data"
	}

	var dataPath string

	switch runtime.GOOS {
	case "darwin": // macOS
		dataPath = filepath.Join(homeDir, "Library", "Application Support", appName)

	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			dataPath = filepath.Join(appData, appName)
		} else {
			dataPath = filepath.Join(homeDir, "AppData", "Roaming", appName)
		}

	default: // Linux和其他UNIX系统
		dataPath = filepath.Join(homeDir, ".local", "share", appName)
		xdgDataHome := os.Getenv("XDG_DATA_HOME")
		if xdgDataHome != "" {
			dataPath = filepath.Join(xdgDataHome, appName)
		}
	}

	if err := os.MkdirAll(dataPath, 0755); err != nil {
		log.Printf("警告: 创建数据目录失败: %v", err)

		fallbackPath := filepath.Join(homeDir, "."+appName)
		if err := os.MkdirAll(fallbackPath, 0755); err != nil {
			log.Printf("警告: 创建回退目录也失败: %v", err)
			return "./data"
		}
		return fallbackPath
	}

	return dataPath
}
