//go:build stdio

package main

import (
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/keigobridge/service/internal/api"
)

const serverVersion = "1.0.0"

func main() {
	// STDIO模式：标准输出被协议占用，日志写到标准错误
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags)
	log.Println("启动 keigo-bridge STDIO MCP 服务器...")

	_, conversionService, feedbackLearner := initializeServices()

	serverOptions := []server.ServerOption{
		server.WithLogging(),
	}

	s := server.NewMCPServer(
		"keigo-bridge",
		serverVersion,
		serverOptions...,
	)

	api.RegisterMCPTools(s, conversionService, feedbackLearner)

	log.Println("🚀 MCP服务器就绪，等待stdio请求...")
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("MCP服务器运行失败: %v", err)
	}
}
