package router

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
	"go.opentelemetry.io/otel/trace"

	"resume-extractor-go/internal/api/handler"
	"resume-extractor-go/internal/config"
	"resume-extractor-go/internal/constants"
	"resume-extractor-go/internal/tracing"
	"resume-extractor-go/pkg/ratelimit"
)

// abortWithError 统一的错误响应出口, 错误同时记到当前请求的span上
func abortWithError(c context.Context, ctx *app.RequestContext, statusCode int, err error) {
	tracing.RecordHTTPError(trace.SpanFromContext(c), err, statusCode)
	ctx.JSON(statusCode, utils.H{"error": err.Error()})
}

// RegisterRoutes 注册API路由
func RegisterRoutes(h *server.Hertz, parseHandler *handler.ParseHandler, cfg *config.Config) {
	api := h.Group("/api/v1")

	// 健康检查不走鉴权
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	if cfg.Auth.Enabled {
		api.Use(newAPIKeyMiddleware(cfg.Auth.APIKeys))
	}

	// 上传接口限流, 解析接口是纯CPU操作不限
	var uploadLimiter *ratelimit.TokenBucket
	if cfg.Server.UploadQPM > 0 {
		uploadLimiter = ratelimit.NewTokenBucket(cfg.Server.UploadQPM, 0)
	}

	// 同步解析: 纯函数式, 不落库
	api.POST("/resume/parse", func(c context.Context, ctx *app.RequestContext) {
		var req handler.ParseRequest
		if err := ctx.BindJSON(&req); err != nil {
			abortWithError(c, ctx, consts.StatusBadRequest, fmt.Errorf("请求体格式错误"))
			return
		}

		result, err := parseHandler.HandleParse(c, &req)
		if err != nil {
			abortWithError(c, ctx, consts.StatusBadRequest, err)
			return
		}
		ctx.JSON(consts.StatusOK, result)
	})

	// 异步上传: 支持multipart文件或JSON文本两种形式。
	// 文件走流式上传(边传边算MD5), JSON文本走内存路径
	api.POST("/resume/upload", func(c context.Context, ctx *app.RequestContext) {
		if uploadLimiter != nil && !uploadLimiter.Allow() {
			abortWithError(c, ctx, consts.StatusTooManyRequests, fmt.Errorf("上传过于频繁, 请稍后重试"))
			return
		}

		var resp *handler.UploadResponse
		var err error

		if fileHeader, ferr := ctx.FormFile("file"); ferr == nil {
			file, oerr := fileHeader.Open()
			if oerr != nil {
				abortWithError(c, ctx, consts.StatusBadRequest, oerr)
				return
			}
			defer file.Close()
			resp, err = parseHandler.HandleUploadStream(c, file, fileHeader.Size, fileHeader.Filename, ctx.PostForm("source_channel"))
		} else {
			var req struct {
				Text          string `json:"text"`
				Filename      string `json:"filename"`
				SourceChannel string `json:"source_channel"`
			}
			if berr := ctx.BindJSON(&req); berr != nil {
				abortWithError(c, ctx, consts.StatusBadRequest, fmt.Errorf("请求体格式错误"))
				return
			}
			resp, err = parseHandler.HandleUploadText(c, req.Text, req.Filename, req.SourceChannel)
		}

		if err != nil {
			abortWithError(c, ctx, consts.StatusInternalServerError, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 最近提交列表
	api.GET("/resumes", func(c context.Context, ctx *app.RequestContext) {
		limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

		summaries, err := parseHandler.ListSubmissions(c, limit)
		if err != nil {
			abortWithError(c, ctx, consts.StatusInternalServerError, err)
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"submissions": summaries})
	})

	// 结果查询
	api.GET("/resume/:uuid", func(c context.Context, ctx *app.RequestContext) {
		submissionUUID := ctx.Param("uuid")

		result, status, err := parseHandler.GetResult(c, submissionUUID)
		if err != nil {
			abortWithError(c, ctx, consts.StatusNotFound, err)
			return
		}

		if result == nil {
			// 仍在处理中或已失败, 只返回状态
			ctx.JSON(consts.StatusOK, utils.H{
				"submission_uuid": submissionUUID,
				"status":          status,
			})
			return
		}

		ctx.JSON(consts.StatusOK, utils.H{
			"submission_uuid": submissionUUID,
			"status":          constants.StatusExtractionCompleted,
			"result":          result,
		})
	})

	// 原始文本预签名下载URL
	api.GET("/resume/:uuid/raw", func(c context.Context, ctx *app.RequestContext) {
		submissionUUID := ctx.Param("uuid")

		url, err := parseHandler.GetRawTextURL(c, submissionUUID)
		if err != nil {
			abortWithError(c, ctx, consts.StatusNotFound, err)
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{
			"submission_uuid": submissionUUID,
			"url":             url,
		})
	})

	// 重新解析: 规则或版本升级后刷新历史提交
	api.POST("/resume/:uuid/reparse", func(c context.Context, ctx *app.RequestContext) {
		submissionUUID := ctx.Param("uuid")

		resp, err := parseHandler.HandleReparse(c, submissionUUID)
		if err != nil {
			abortWithError(c, ctx, consts.StatusInternalServerError, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})
}

// newAPIKeyMiddleware 基于X-API-Key请求头的鉴权中间件
func newAPIKeyMiddleware(apiKeys []string) app.HandlerFunc {
	allowed := make(map[string]bool, len(apiKeys))
	for _, key := range apiKeys {
		allowed[key] = true
	}

	return keyauth.New(
		keyauth.WithKeyLookUp("header:X-API-Key", ""),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			return allowed[key], nil
		}),
	)
}
