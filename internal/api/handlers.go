package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keigobridge/service/internal/config"
	"github.com/keigobridge/service/internal/models"
	"github.com/keigobridge/service/internal/services"
	"github.com/keigobridge/service/internal/utils"
)

// 服务启动时间（健康检查的uptime用）
var startTime = time.Now()

// Handler HTTP请求处理器
type Handler struct {
	cfg        *config.Config
	conversion *services.ConversionService
	feedback   *services.FeedbackLearner
	hub        *ProgressHub
}

// NewHandler 创建请求处理器
func NewHandler(cfg *config.Config, conversion *services.ConversionService, feedback *services.FeedbackLearner, hub *ProgressHub) *Handler {
	return &Handler{
		cfg:        cfg,
		conversion: conversion,
		feedback:   feedback,
		hub:        hub,
	}
}

// RegisterRoutes 注册所有HTTP路由
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HandleHealth)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/convert", h.HandleConvert)
		apiGroup.POST("/feedback", h.HandleFeedback)
		apiGroup.POST("/score", h.HandleScore)
		apiGroup.GET("/history", h.HandleHistory)
	}

	if h.hub != nil {
		router.GET("/ws/progress", h.HandleProgressWebSocket)
	}
}

// HandleHealth 健康检查
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  models.StatusOK,
		"service": h.cfg.ServiceName,
		"uptime":  time.Since(startTime).String(),
	})
}

// HandleConvert 文本转换
func (h *Handler) HandleConvert(c *gin.Context) {
	traceID := utils.GetTraceIDFromGin(c)

	var req models.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("【%s】转换请求解析失败: %v", traceID, err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status": models.StatusError,
			"error":  "invalid request body: " + err.Error(),
		})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": models.StatusError,
			"error":  "text is required",
		})
		return
	}

	result := h.conversion.Convert(c.Request.Context(), req.Text, req.ToOptions())
	c.JSON(http.StatusOK, result)
}

// HandleFeedback 反馈提交
func (h *Handler) HandleFeedback(c *gin.Context) {
	traceID := utils.GetTraceIDFromGin(c)

	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("【%s】反馈请求解析失败: %v", traceID, err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status": models.StatusError,
			"error":  "invalid request body: " + err.Error(),
		})
		return
	}

	payload := models.FeedbackPayload{
		OriginalText:   req.OriginalText,
		ConvertedText:  req.ConvertedText,
		UserRating:     req.UserRating,
		UserCorrection: req.UserCorrection,
	}
	if req.Relationship != "" || req.Urgency != "" || req.Situation != "" {
		payload.Context = &models.ContextDescriptor{
			Intent:         models.IntentGeneral,
			Urgency:        models.Urgency(defaultString(req.Urgency, string(models.UrgencyNormal))),
			Relationship:   models.Relationship(defaultString(req.Relationship, string(models.RelationshipUnknown))),
			Situation:      models.Situation(defaultString(req.Situation, string(models.SituationGeneral))),
			FormalityLevel: models.FormalityNeutral,
		}
	}
	if req.Level > 0 {
		payload.Options = &models.ConvertOptions{Level: req.Level}
	}

	feedbackID, err := h.feedback.RecordFeedback(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": models.StatusError,
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.FeedbackResponse{
		FeedbackID: feedbackID,
		Status:     models.StatusOK,
	})
}

// HandleScore 质量评分
func (h *Handler) HandleScore(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": models.StatusError,
			"error":  "invalid request body: " + err.Error(),
		})
		return
	}
	if req.Original == "" || req.Converted == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": models.StatusError,
			"error":  "original and converted are required",
		})
		return
	}

	report := h.conversion.Score(req.Original, req.Converted, req.Level)
	c.JSON(http.StatusOK, report)
}

// HandleHistory 转换历史查询
func (h *Handler) HandleHistory(c *gin.Context) {
	entries := h.conversion.GetHistory()
	c.JSON(http.StatusOK, models.HistoryResponse{
		Entries: entries,
		Total:   len(entries),
	})
}

// defaultString 空文字列の時は既定値
func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
