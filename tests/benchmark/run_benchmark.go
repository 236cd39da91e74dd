package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/schollz/progressbar/v3"

	"github.com/keigobridge/service/internal/config"
	"github.com/keigobridge/service/internal/models"
	"github.com/keigobridge/service/internal/services"
	"github.com/keigobridge/service/internal/utils"
)

// =============================================================================
// 批量基准测试 - 直接驱动完整转换管线，测量吞吐与延迟分布
// 用法: go run tests/benchmark/run_benchmark.go -n 500 -o result.json
// =============================================================================

// Result 存储单项基准测试结果
type Result struct {
	Name        string        `json:"name"`
	Operations  int           `json:"operations"`
	TotalTime   time.Duration `json:"total_time"`
	AverageTime time.Duration `json:"average_time"`
	MinTime     time.Duration `json:"min_time"`
	MaxTime     time.Duration `json:"max_time"`
	SuccessRate float64       `json:"success_rate"`
}

// Suite 存储完整基准测试结果
type Suite struct {
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Results      []Result  `json:"results"`
	TestDataSize int       `json:"test_data_size"`
}

// 実際のカジュアル入力を模したテンプレート
var casualTemplates = []string{
	"アプデしといてくれる？",
	"バグった、どないしよ",
	"明日の会議って何時だっけ？",
	"まじで急ぎなんだけど、資料見といて",
	"了解、じゃあそれでお願い",
	"ごめん、ちょっと遅れる",
	"これNGだったら教えて",
	"めっちゃ助かった、サンキュー",
	"なんで動かないの？",
	"とりあえず共有しとくね",
}

func main() {
	count := flag.Int("n", 200, "各テストの実行回数")
	output := flag.String("o", "", "結果JSONの出力先（空なら標準出力のみ）")
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	cfg := config.Load()
	conversion := services.NewConversionService(cfg, utils.NewRandomSource(42))

	suite := Suite{
		StartTime:    time.Now(),
		TestDataSize: *count,
	}

	suite.Results = append(suite.Results, benchConvert(conversion, *count))
	suite.Results = append(suite.Results, benchScore(conversion, *count))
	suite.EndTime = time.Now()

	printSuite(suite)
	if *output != "" {
		data, err := json.MarshalIndent(suite, "", "  ")
		if err != nil {
			log.Fatalf("结果序列化失败: %v", err)
		}
		if err := os.WriteFile(*output, data, 0644); err != nil {
			log.Fatalf("结果写入失败: %v", err)
		}
		log.Printf("结果已写入: %s", *output)
	}
}

// benchConvert 转换管线吞吐测试
func benchConvert(conversion *services.ConversionService, count int) Result {
	bar := progressbar.Default(int64(count), "変換テスト")

	result := Result{Name: "convert", Operations: count, MinTime: time.Hour}
	success := 0
	start := time.Now()

	for i := 0; i < count; i++ {
		text := buildInput(i)
		opStart := time.Now()
		res := conversion.Convert(nil, text, &models.ConvertOptions{})
		elapsed := time.Since(opStart)

		if res != nil && res.Converted != "" {
			success++
		}
		if elapsed < result.MinTime {
			result.MinTime = elapsed
		}
		if elapsed > result.MaxTime {
			result.MaxTime = elapsed
		}
		bar.Add(1)
	}

	result.TotalTime = time.Since(start)
	result.AverageTime = result.TotalTime / time.Duration(count)
	result.SuccessRate = float64(success) / float64(count)
	return result
}

// benchScore 质量评分吞吐测试
func benchScore(conversion *services.ConversionService, count int) Result {
	bar := progressbar.Default(int64(count), "採点テスト")

	result := Result{Name: "score", Operations: count, MinTime: time.Hour}
	success := 0
	start := time.Now()

	for i := 0; i < count; i++ {
		original := buildInput(i)
		converted := original + "をお願いします。"
		opStart := time.Now()
		report := conversion.Score(original, converted, 3)
		elapsed := time.Since(opStart)

		if report != nil && report.Grade != "" {
			success++
		}
		if elapsed < result.MinTime {
			result.MinTime = elapsed
		}
		if elapsed > result.MaxTime {
			result.MaxTime = elapsed
		}
		bar.Add(1)
	}

	result.TotalTime = time.Since(start)
	result.AverageTime = result.TotalTime / time.Duration(count)
	result.SuccessRate = float64(success) / float64(count)
	return result
}

// buildInput 入力生成：テンプレートにランダムな語を混ぜて多様化する
func buildInput(i int) string {
	base := casualTemplates[i%len(casualTemplates)]
	if i%3 == 0 {
		return fmt.Sprintf("%sの件、%s", gofakeit.BuzzWord(), base)
	}
	return base
}

// printSuite 结果摘要输出
func printSuite(suite Suite) {
	fmt.Println("\n===== 基准测试结果 =====")
	for _, r := range suite.Results {
		fmt.Printf("%-10s ops=%d avg=%v min=%v max=%v success=%.1f%%\n",
			r.Name, r.Operations, r.AverageTime, r.MinTime, r.MaxTime, r.SuccessRate*100)
	}
	fmt.Printf("总耗时: %v\n", suite.EndTime.Sub(suite.StartTime))
}
