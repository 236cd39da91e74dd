package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/keigobridge/service/internal/models"
	"github.com/keigobridge/service/internal/services"
)

// =============================================================================
// MCP工具注册 - stdio模式下把转换/反馈/评分暴露为MCP工具
// =============================================================================

// RegisterMCPTools 注册所有MCP工具到服务器
func RegisterMCPTools(s *server.MCPServer, conversion *services.ConversionService, feedback *services.FeedbackLearner) {
	// 工具：敬语转换
	convertTool := mcp.NewTool("convert_text",
		mcp.WithDescription("カジュアルな日本語を丁寧なビジネス日本語に変換する"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("変換対象のテキスト"),
		),
		mcp.WithNumber("level",
			mcp.Description("敬語レベル 1-5（省略時は自動判定）"),
		),
		mcp.WithString("relationship",
			mcp.Description("相手との関係: superior, colleague, subordinate, customer"),
		),
		mcp.WithString("situation",
			mcp.Description("場面: business, technical, casual"),
		),
	)
	s.AddTool(convertTool, convertHandler(conversion))

	// 工具：反馈提交
	feedbackTool := mcp.NewTool("submit_feedback",
		mcp.WithDescription("変換結果への評価・修正を学習させる"),
		mcp.WithString("originalText",
			mcp.Required(),
			mcp.Description("変換前のテキスト"),
		),
		mcp.WithString("convertedText",
			mcp.Required(),
			mcp.Description("変換後のテキスト"),
		),
		mcp.WithNumber("rating",
			mcp.Required(),
			mcp.Description("評価 1-5"),
		),
		mcp.WithString("correction",
			mcp.Description("ユーザーによる修正文"),
		),
	)
	s.AddTool(feedbackTool, feedbackHandler(feedback))

	// 工具：质量评分
	scoreTool := mcp.NewTool("score_quality",
		mcp.WithDescription("変換品質を4軸で採点する"),
		mcp.WithString("original",
			mcp.Required(),
			mcp.Description("変換前のテキスト"),
		),
		mcp.WithString("converted",
			mcp.Required(),
			mcp.Description("変換後のテキスト"),
		),
		mcp.WithNumber("level",
			mcp.Description("要求した敬語レベル"),
		),
	)
	s.AddTool(scoreTool, scoreHandler(conversion))

	log.Printf("MCP工具注册完成: convert_text, submit_feedback, score_quality")
}

// convertHandler 转换工具处理器
func convertHandler(conversion *services.ConversionService) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		text, ok := request.Params.Arguments["text"].(string)
		if !ok || text == "" {
			errMsg := "错误: text必须是非空字符串"
			log.Println(errMsg)
			return mcp.NewToolResultText(errMsg), nil
		}

		opts := &models.ConvertOptions{}
		if level, ok := request.Params.Arguments["level"].(float64); ok {
			opts.Level = int(level)
		}
		if relationship, ok := request.Params.Arguments["relationship"].(string); ok {
			opts.Relationship = relationship
		}
		if situation, ok := request.Params.Arguments["situation"].(string); ok {
			opts.Situation = situation
		}

		result := conversion.Convert(ctx, text, opts)
		log.Printf("MCP转换完成: id=%s, 耗时=%v", result.ID, time.Since(start))

		return toolResultJSON(result)
	}
}

// feedbackHandler 反馈工具处理器
func feedbackHandler(feedback *services.FeedbackLearner) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		originalText, ok := request.Params.Arguments["originalText"].(string)
		if !ok || originalText == "" {
			errMsg := "错误: originalText必须是非空字符串"
			log.Println(errMsg)
			return mcp.NewToolResultText(errMsg), nil
		}
		convertedText, ok := request.Params.Arguments["convertedText"].(string)
		if !ok || convertedText == "" {
			errMsg := "错误: convertedText必须是非空字符串"
			log.Println(errMsg)
			return mcp.NewToolResultText(errMsg), nil
		}
		rating, ok := request.Params.Arguments["rating"].(float64)
		if !ok {
			errMsg := "错误: rating必须是1-5的数字"
			log.Println(errMsg)
			return mcp.NewToolResultText(errMsg), nil
		}

		payload := models.FeedbackPayload{
			OriginalText:  originalText,
			ConvertedText: convertedText,
			UserRating:    int(rating),
		}
		if correction, ok := request.Params.Arguments["correction"].(string); ok {
			payload.UserCorrection = correction
		}

		feedbackID, err := feedback.RecordFeedback(payload)
		if err != nil {
			errMsg := fmt.Sprintf("错误: %v", err)
			log.Println(errMsg)
			return mcp.NewToolResultText(errMsg), nil
		}

		return toolResultJSON(models.FeedbackResponse{
			FeedbackID: feedbackID,
			Status:     models.StatusOK,
		})
	}
}

// scoreHandler 评分工具处理器
func scoreHandler(conversion *services.ConversionService) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		original, ok := request.Params.Arguments["original"].(string)
		if !ok || original == "" {
			errMsg := "错误: original必须是非空字符串"
			log.Println(errMsg)
			return mcp.NewToolResultText(errMsg), nil
		}
		converted, ok := request.Params.Arguments["converted"].(string)
		if !ok || converted == "" {
			errMsg := "错误: converted必须是非空字符串"
			log.Println(errMsg)
			return mcp.NewToolResultText(errMsg), nil
		}

		level := 0
		if v, ok := request.Params.Arguments["level"].(float64); ok {
			level = int(v)
		}

		report := conversion.Score(original, converted, level)
		return toolResultJSON(report)
	}
}

// toolResultJSON 把结果序列化为JSON文本返回
func toolResultJSON(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("错误: 序列化响应失败: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
