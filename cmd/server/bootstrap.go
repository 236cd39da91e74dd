package main

import (
	"log"

	"github.com/keigobridge/service/internal/config"
	"github.com/keigobridge/service/internal/llm"
	"github.com/keigobridge/service/internal/services"
	"github.com/keigobridge/service/internal/store"
	"github.com/keigobridge/service/internal/utils"
)

// initializeServices 初始化共享服务组件
// HTTP模式和STDIO模式共用同一套编排服务与学习器
func initializeServices() (*config.Config, *services.ConversionService, *services.FeedbackLearner) {
	cfg := config.Load()
	log.Printf("加载配置: %s", cfg.String())

	// 状态存储（文件存储失败时降级为内存存储）
	var stateStore store.StateStore
	fileStore, err := store.NewFileStateStore(cfg.StoragePath)
	if err != nil {
		log.Printf("⚠️ 文件存储初始化失败，降级为内存存储: %v", err)
		stateStore = store.NewMemoryStateStore()
	} else {
		stateStore = fileStore
	}

	// 反馈学习器
	log.Println("初始化反馈学习器...")
	feedbackLearner := services.NewFeedbackLearner(cfg, stateStore)

	// 转换编排服务
	log.Println("初始化转换编排服务...")
	conversionService := services.NewConversionService(cfg, utils.NewTimeRandomSource())
	conversionService.SetPreferenceProvider(feedbackLearner)

	// LLM润色器（可选）
	if cfg.LLMEnabled {
		var client llm.LLMClient
		var err error
		if cfg.LLMAPIKey != "" {
			client, err = llm.NewClient(&llm.LLMConfig{
				Provider:  llm.LLMProvider(cfg.LLMProvider),
				APIKey:    cfg.LLMAPIKey,
				BaseURL:   cfg.LLMBaseURL,
				Model:     cfg.LLMModel,
				Timeout:   cfg.LLMTimeout,
				RateLimit: cfg.LLMRateLimit,
			})
		} else {
			// 設定に鍵が無ければ <PROVIDER>_API_KEY → LLM_API_KEY の順で環境変数を探す
			client, err = llm.NewClientFromEnv(llm.ClientOptions{
				Provider:  cfg.LLMProvider,
				Model:     cfg.LLMModel,
				BaseURL:   cfg.LLMBaseURL,
				Timeout:   cfg.LLMTimeout,
				RateLimit: cfg.LLMRateLimit,
			})
		}
		if err != nil {
			log.Printf("⚠️ LLM客户端创建失败，润色功能不可用: %v", err)
		} else {
			cache := llm.NewCacheManager(cfg.LLMCacheTTL, 256)
			refiner := llm.NewRefiner(client, cache, cfg.LLMTimeout, cfg.LLMMaxTokens, cfg.LLMTemperature)
			conversionService.SetRefiner(refiner)
			log.Printf("🔥 LLM润色已启用: provider=%s, model=%s", cfg.LLMProvider, client.GetModel())
		}
	} else {
		log.Println("LLM润色未启用，使用纯确定性管线")
	}

	return cfg, conversionService, feedbackLearner
}
