package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resume-extractor-go/internal/config"
	"resume-extractor-go/internal/extractor"

	"github.com/spf13/pflag"
)

// extractorctl 本地解析工具: 读取纯文本简历, 输出结构化JSON。
// 不依赖任何外部存储, 用于调试规则和批量离线验证。
func main() {
	var (
		filePath   string
		fileHint   string
		configPath string
		pretty     bool
	)
	pflag.StringVarP(&filePath, "file", "f", "", "简历文本文件路径, '-' 表示从stdin读取")
	pflag.StringVar(&fileHint, "filename", "", "用于姓名回退的原始文件名, 默认取--file的文件名")
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径, 为空时使用默认抽取配置")
	pflag.BoolVarP(&pretty, "pretty", "p", false, "缩进输出JSON")
	pflag.Parse()

	if filePath == "" {
		fmt.Fprintln(os.Stderr, "用法: extractorctl --file <resume.txt> [--pretty]")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	text, err := readInput(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取输入失败: %v\n", err)
		os.Exit(1)
	}

	engineCfg := extractor.DefaultConfig()
	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
			os.Exit(1)
		}
		engineCfg = cfg.Extractor
	}

	if fileHint == "" && filePath != "-" {
		fileHint = filepath.Base(filePath)
	}

	engine := extractor.NewEngine(engineCfg)
	result := engine.Parse(text, fileHint)

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "序列化结果失败: %v\n", err)
		os.Exit(1)
	}
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
