package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	guuid "github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"resume-extractor-go/internal/config"
	"resume-extractor-go/internal/constants"
	"resume-extractor-go/internal/extractor"
	"resume-extractor-go/internal/logger"
	"resume-extractor-go/internal/storage"
	"resume-extractor-go/internal/storage/models"
	"resume-extractor-go/internal/tracing"
	"resume-extractor-go/internal/types"
	"resume-extractor-go/pkg/utils"
)

var handlerTracer = otel.Tracer("resume-extractor-go/api/handler")

// ParseHandler 简历抽取处理器, 协调同步解析与异步上传两条链路
type ParseHandler struct {
	cfg     *config.Config
	storage *storage.Storage
	engine  *extractor.Engine
}

// NewParseHandler 创建简历抽取处理器
func NewParseHandler(cfg *config.Config, st *storage.Storage, engine *extractor.Engine) *ParseHandler {
	return &ParseHandler{
		cfg:     cfg,
		storage: st,
		engine:  engine,
	}
}

// ParseRequest 同步解析请求体
type ParseRequest struct {
	Text     string `json:"text"`
	Filename string `json:"filename,omitempty"`
}

// UploadResponse 上传响应
type UploadResponse struct {
	SubmissionUUID string `json:"submission_uuid"`
	Status         string `json:"status"`
}

// requireAsyncStack 校验异步链路依赖。
// 存储组件允许部分初始化, 但落库相关接口需要全套组件就绪
func (h *ParseHandler) requireAsyncStack() error {
	if h.storage == nil || h.storage.Redis == nil || h.storage.MinIO == nil ||
		h.storage.MySQL == nil || h.storage.RabbitMQ == nil {
		return fmt.Errorf("存储组件未完全初始化, 当前仅支持同步解析接口")
	}
	return nil
}

// HandleParse 同步解析简历文本, 不落库
func (h *ParseHandler) HandleParse(ctx context.Context, req *ParseRequest) (*types.ParsedResumeResult, error) {
	if req == nil || strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("简历文本不能为空")
	}
	return h.engine.Parse(req.Text, req.Filename), nil
}

// HandleUploadText 处理简历文本上传: 去重、落对象存储、落库、发布抽取事件
func (h *ParseHandler) HandleUploadText(ctx context.Context, text, filename, sourceChannel string) (*UploadResponse, error) {
	if err := h.requireAsyncStack(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("简历文本不能为空")
	}
	if sourceChannel == "" {
		sourceChannel = "api_upload"
	}

	textMD5 := utils.CalculateMD5([]byte(text))

	// 原子地检查并登记MD5, 去重是整条链路的第一道闸
	exists, err := h.storage.Redis.CheckAndAddFileMD5(ctx, textMD5)
	if err != nil {
		logger.Error().
			Err(err).
			Str("md5", textMD5).
			Msg("查询Redis文件MD5失败")
		return nil, fmt.Errorf("检查文本MD5重复性失败: %w", err)
	}

	if exists {
		return h.duplicateResponse(ctx, textMD5, filename), nil
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	submissionUUID := uuidV7.String()

	// 上传原始文本到MinIO
	rawTextKey, err := h.storage.MinIO.UploadRawText(ctx, submissionUUID, text)
	if err != nil {
		// 入队前失败要把MD5从去重集合撤掉, 否则这份简历再也进不来
		h.rollbackDedup(ctx, textMD5)
		return nil, fmt.Errorf("上传简历文本到MinIO失败: %w", err)
	}

	return h.registerSubmission(ctx, submissionUUID, textMD5, rawTextKey, filename, sourceChannel)
}

// HandleUploadStream 处理multipart文件流上传。
// 边上传MinIO边算MD5, 上传完成后才能做去重判断, 重复时删掉刚传的对象
func (h *ParseHandler) HandleUploadStream(ctx context.Context, reader io.Reader, size int64, filename, sourceChannel string) (*UploadResponse, error) {
	if err := h.requireAsyncStack(); err != nil {
		return nil, err
	}
	if sourceChannel == "" {
		sourceChannel = "api_upload"
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	submissionUUID := uuidV7.String()

	rawTextKey, textMD5, err := h.storage.MinIO.UploadRawTextStreaming(ctx, submissionUUID, reader, size)
	if err != nil {
		return nil, fmt.Errorf("流式上传简历文本到MinIO失败: %w", err)
	}

	exists, err := h.storage.Redis.CheckAndAddFileMD5(ctx, textMD5)
	if err != nil {
		h.discardRawText(ctx, rawTextKey)
		return nil, fmt.Errorf("检查文本MD5重复性失败: %w", err)
	}

	if exists {
		// 对象已有同内容的首次提交, 刚传的这份没有保留价值
		h.discardRawText(ctx, rawTextKey)
		return h.duplicateResponse(ctx, textMD5, filename), nil
	}

	return h.registerSubmission(ctx, submissionUUID, textMD5, rawTextKey, filename, sourceChannel)
}

// duplicateResponse 构造重复提交的响应, 带上首次提交的UUID方便调用方直接查结果
func (h *ParseHandler) duplicateResponse(ctx context.Context, textMD5, filename string) *UploadResponse {
	firstUUID := h.firstSubmissionForMD5(ctx, textMD5)
	logger.Info().
		Str("md5", textMD5).
		Str("filename", filename).
		Str("first_submission", firstUUID).
		Msg("检测到重复的文本MD5, 跳过处理")
	return &UploadResponse{
		SubmissionUUID: firstUUID,
		Status:         constants.StatusDuplicateSkipped,
	}
}

// firstSubmissionForMD5 反查同内容的首次提交UUID。Redis映射过期后回退MySQL
func (h *ParseHandler) firstSubmissionForMD5(ctx context.Context, textMD5 string) string {
	firstUUID, err := h.storage.Redis.GetSubmissionUUIDByMD5(ctx, textMD5)
	if err == nil {
		return firstUUID
	}
	if !errors.Is(err, storage.ErrNotFound) {
		logger.Warn().Err(err).Str("md5", textMD5).Msg("从Redis反查首次提交UUID失败")
	}

	submission, dbErr := h.storage.MySQL.GetResumeSubmissionByMD5(ctx, textMD5)
	if dbErr != nil {
		if !errors.Is(dbErr, gorm.ErrRecordNotFound) {
			logger.Warn().Err(dbErr).Str("md5", textMD5).Msg("从MySQL反查首次提交失败")
		}
		return ""
	}
	return submission.SubmissionUUID
}

// rollbackDedup 撤销MD5去重登记, 失败只记日志
func (h *ParseHandler) rollbackDedup(ctx context.Context, textMD5 string) {
	if err := h.storage.Redis.RemoveFileMD5(ctx, textMD5); err != nil {
		logger.Warn().Err(err).Str("md5", textMD5).Msg("回滚MD5去重记录失败")
	}
}

// discardRawText 删除不再需要的原始文本对象, 失败只记日志
func (h *ParseHandler) discardRawText(ctx context.Context, rawTextKey string) {
	if err := h.storage.MinIO.DeleteRawText(ctx, rawTextKey); err != nil {
		logger.Warn().Err(err).Str("object_key", rawTextKey).Msg("删除多余的原始文本对象失败")
	}
}

// registerSubmission 登记提交记录并发布抽取事件, 上传两条链路的公共尾段
func (h *ParseHandler) registerSubmission(ctx context.Context, submissionUUID, textMD5, rawTextKey, filename, sourceChannel string) (*UploadResponse, error) {
	if err := h.storage.Redis.SetMD5ToSubmissionUUID(ctx, textMD5, submissionUUID); err != nil {
		logger.Warn().Err(err).Str("md5", textMD5).Msg("记录MD5到UUID映射失败")
	}

	now := time.Now()
	submission := &models.ResumeSubmission{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: now,
		SourceChannel:       sourceChannel,
		OriginalFilename:    filename,
		RawTextPathOSS:      rawTextKey,
		RawTextMD5:          textMD5,
		ProcessingStatus:    constants.StatusPendingExtraction,
	}
	if err := h.storage.MySQL.CreateResumeSubmission(ctx, submission); err != nil {
		h.rollbackDedup(ctx, textMD5)
		return nil, fmt.Errorf("创建简历提交记录失败: %w", err)
	}

	message := storage.ResumeUploadedMessage{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: now,
		SourceChannel:       sourceChannel,
		OriginalFilename:    filename,
		RawTextPathOSS:      rawTextKey,
		RawTextMD5:          textMD5,
	}

	err := h.storage.RabbitMQ.PublishJSON(
		ctx,
		h.cfg.RabbitMQ.ResumeEventsExchange,
		h.cfg.RabbitMQ.UploadedRoutingKey,
		message,
		true, // 持久化
	)
	if err != nil {
		// 行已落库但事件没发出去, 撤掉去重记录让调用方能重试同一份文本
		h.rollbackDedup(ctx, textMD5)
		return nil, fmt.Errorf("发布消息到RabbitMQ失败: %w", err)
	}

	return &UploadResponse{
		SubmissionUUID: submissionUUID,
		Status:         constants.StatusPendingExtraction,
	}, nil
}

// StartExtractionConsumer 启动抽取消费者, 订阅上传事件并执行解析
func (h *ParseHandler) StartExtractionConsumer(ctx context.Context) error {
	if err := h.requireAsyncStack(); err != nil {
		return err
	}
	logger.Info().
		Str("exchange", h.cfg.RabbitMQ.ResumeEventsExchange).
		Str("routing_key", h.cfg.RabbitMQ.UploadedRoutingKey).
		Str("queue", h.cfg.RabbitMQ.RawResumeQueue).
		Msg("初始化简历抽取消费者")

	if err := h.storage.RabbitMQ.SetupResumeTopology(); err != nil {
		return fmt.Errorf("声明RabbitMQ拓扑失败: %w", err)
	}

	prefetch := h.cfg.RabbitMQ.PrefetchCount
	if prefetch <= 0 {
		prefetch = 10
	}

	_, err := h.storage.RabbitMQ.StartConsumer(h.cfg.RabbitMQ.RawResumeQueue, prefetch, func(data []byte) bool {
		// 每条消息一个关联ID, 串起这次消费的所有日志
		correlationID := guuid.NewString()

		var message storage.ResumeUploadedMessage
		if err := json.Unmarshal(data, &message); err != nil {
			logger.Error().Err(err).Str("correlation_id", correlationID).Msg("解析上传消息失败")
			// 消息体坏了, 重试也没用
			return true
		}

		if err := h.processSubmission(ctx, message); err != nil {
			logger.Error().
				Err(err).
				Str("correlation_id", correlationID).
				Str("submission_uuid", message.SubmissionUUID).
				Msg("处理简历提交失败")
			if dbErr := h.storage.MySQL.MarkExtractionFailed(ctx, message.SubmissionUUID, err.Error()); dbErr != nil {
				logger.Error().Err(dbErr).Str("submission_uuid", message.SubmissionUUID).Msg("标记提交失败状态出错")
			}
			h.publishExtracted(ctx, storage.ResumeExtractedMessage{
				SubmissionUUID:   message.SubmissionUUID,
				ProcessingStatus: constants.StatusExtractionFailed,
				Error:            err.Error(),
			})
			// 失败已落库并广播, 不再重新入队
			return true
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("启动消费者失败: %w", err)
	}

	return nil
}

// processSubmission 消费单条上传事件: 取文本、解析、存结果、推进状态机
func (h *ParseHandler) processSubmission(ctx context.Context, message storage.ResumeUploadedMessage) (err error) {
	ctx, span := handlerTracer.Start(ctx, "ProcessSubmission", trace.WithAttributes(
		attribute.String("submission_uuid", message.SubmissionUUID),
		attribute.String("source_channel", message.SourceChannel),
	))
	defer func() {
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	text, err := h.storage.MinIO.GetRawText(ctx, message.RawTextPathOSS)
	if err != nil {
		return fmt.Errorf("从MinIO获取简历文本失败: %w", err)
	}

	logger.Debug().
		Str("submission_uuid", message.SubmissionUUID).
		Str("text_preview", tracing.SafeResumeContent(text)).
		Msg("开始解析简历文本")

	result := h.engine.Parse(text, message.OriginalFilename)

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化解析结果失败: %w", err)
	}

	resultKey, err := h.storage.MinIO.UploadResult(ctx, message.SubmissionUUID, resultJSON)
	if err != nil {
		return fmt.Errorf("上传解析结果到MinIO失败: %w", err)
	}

	// 有邮箱或电话才能做候选人归并, 否则提交保持无主状态
	var candidateID *string
	if result.PersonalDetails.EmailID != "" || result.PersonalDetails.PhoneNumber != "" {
		basicInfo := map[string]string{
			"name":             result.PersonalDetails.FullName,
			"email":            result.PersonalDetails.EmailID,
			"phone":            result.PersonalDetails.PhoneNumber,
			"current_location": joinLocation(result.PersonalDetails.City, result.PersonalDetails.State),
		}
		candidate, err := h.storage.MySQL.FindOrCreateCandidate(ctx, nil, basicInfo)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("submission_uuid", message.SubmissionUUID).
				Msg("候选人归并失败, 提交记录将不关联候选人")
		} else {
			candidateID = utils.StringPtr(candidate.CandidateID)
		}
	}

	parserVersion := result.ParsingMetadata.ParserVersion
	if err := h.storage.MySQL.SaveParsedResult(ctx, message.SubmissionUUID, resultJSON, resultKey, parserVersion, candidateID); err != nil {
		return fmt.Errorf("保存解析结果到MySQL失败: %w", err)
	}

	if err := h.storage.Redis.CacheParsedResult(ctx, message.SubmissionUUID, resultJSON); err != nil {
		logger.Warn().Err(err).Str("submission_uuid", message.SubmissionUUID).Msg("缓存解析结果失败")
	}

	h.publishExtracted(ctx, storage.ResumeExtractedMessage{
		SubmissionUUID:   message.SubmissionUUID,
		ResultPathOSS:    resultKey,
		ProcessingStatus: constants.StatusExtractionCompleted,
		ParserVersion:    parserVersion,
		FieldsExtracted:  result.ParsingMetadata.FieldsExtracted,
		ProcessingTimeMS: result.ParsingMetadata.ParsingTimeMS,
	})

	logger.Info().
		Str("submission_uuid", message.SubmissionUUID).
		Int("fields_extracted", result.ParsingMetadata.FieldsExtracted).
		Int64("parsing_time_ms", result.ParsingMetadata.ParsingTimeMS).
		Msg("简历抽取完成")
	return nil
}

// publishExtracted 发布抽取完成事件, 失败只记日志不影响主流程
func (h *ParseHandler) publishExtracted(ctx context.Context, msg storage.ResumeExtractedMessage) {
	err := h.storage.RabbitMQ.PublishJSON(
		ctx,
		h.cfg.RabbitMQ.ResumeEventsExchange,
		h.cfg.RabbitMQ.ExtractedRoutingKey,
		msg,
		true,
	)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("submission_uuid", msg.SubmissionUUID).
			Msg("发布抽取完成事件失败")
	}
}

// GetResult 查询解析结果。优先走Redis缓存, 未命中查MySQL, 最后回源MinIO
func (h *ParseHandler) GetResult(ctx context.Context, submissionUUID string) (*types.ParsedResumeResult, string, error) {
	if err := h.requireAsyncStack(); err != nil {
		return nil, "", err
	}
	if submissionUUID == "" {
		return nil, "", fmt.Errorf("submission_uuid 不能为空")
	}

	cached, err := h.storage.Redis.GetCachedResult(ctx, submissionUUID)
	if err == nil {
		var result types.ParsedResumeResult
		if err := json.Unmarshal(cached, &result); err == nil {
			return &result, constants.StatusExtractionCompleted, nil
		}
		// 缓存内容坏了就当未命中处理
		logger.Warn().Str("submission_uuid", submissionUUID).Msg("解析结果缓存内容无效, 回源查询")
	} else if !errors.Is(err, storage.ErrNotFound) {
		logger.Warn().Err(err).Str("submission_uuid", submissionUUID).Msg("查询解析结果缓存失败")
	}

	submission, err := h.storage.MySQL.GetResumeSubmission(ctx, submissionUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("提交记录不存在: %s", submissionUUID)
		}
		return nil, "", fmt.Errorf("查询提交记录失败: %w", err)
	}

	if submission.ProcessingStatus != constants.StatusExtractionCompleted {
		return nil, submission.ProcessingStatus, nil
	}

	resultJSON := []byte(submission.ParsedResultJSON)
	if len(resultJSON) == 0 && submission.ResultPathOSS != "" {
		resultJSON, err = h.storage.MinIO.GetResult(ctx, submission.ResultPathOSS)
		if err != nil {
			return nil, submission.ProcessingStatus, fmt.Errorf("从MinIO获取解析结果失败: %w", err)
		}
	}

	var result types.ParsedResumeResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, submission.ProcessingStatus, fmt.Errorf("反序列化解析结果失败: %w", err)
	}

	// 回填缓存
	if err := h.storage.Redis.CacheParsedResult(ctx, submissionUUID, resultJSON); err != nil {
		logger.Warn().Err(err).Str("submission_uuid", submissionUUID).Msg("回填解析结果缓存失败")
	}

	return &result, submission.ProcessingStatus, nil
}

// HandleReparse 把已有提交重新投入抽取队列。
// 解析规则或版本升级后, 用它刷新历史提交的结构化结果
func (h *ParseHandler) HandleReparse(ctx context.Context, submissionUUID string) (*UploadResponse, error) {
	if err := h.requireAsyncStack(); err != nil {
		return nil, err
	}
	if submissionUUID == "" {
		return nil, fmt.Errorf("submission_uuid 不能为空")
	}

	submission, err := h.storage.MySQL.GetResumeSubmission(ctx, submissionUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("提交记录不存在: %s", submissionUUID)
		}
		return nil, fmt.Errorf("查询提交记录失败: %w", err)
	}
	if submission.RawTextPathOSS == "" {
		return nil, fmt.Errorf("提交记录没有原始文本, 无法重新解析: %s", submissionUUID)
	}

	// 旧缓存必须先失效, 否则查询接口会继续返回老版本结果
	if err := h.storage.Redis.InvalidateCachedResult(ctx, submissionUUID); err != nil {
		logger.Warn().Err(err).Str("submission_uuid", submissionUUID).Msg("失效解析结果缓存失败")
	}

	if err := h.storage.MySQL.UpdateProcessingStatus(ctx, submissionUUID, constants.StatusPendingExtraction); err != nil {
		return nil, fmt.Errorf("重置提交状态失败: %w", err)
	}

	message := storage.ResumeUploadedMessage{
		SubmissionUUID:      submission.SubmissionUUID,
		SubmissionTimestamp: submission.SubmissionTimestamp,
		SourceChannel:       submission.SourceChannel,
		OriginalFilename:    submission.OriginalFilename,
		RawTextPathOSS:      submission.RawTextPathOSS,
		RawTextMD5:          submission.RawTextMD5,
	}
	err = h.storage.RabbitMQ.PublishJSON(
		ctx,
		h.cfg.RabbitMQ.ResumeEventsExchange,
		h.cfg.RabbitMQ.UploadedRoutingKey,
		message,
		true,
	)
	if err != nil {
		return nil, fmt.Errorf("发布重新解析消息失败: %w", err)
	}

	return &UploadResponse{
		SubmissionUUID: submissionUUID,
		Status:         constants.StatusPendingExtraction,
	}, nil
}

// GetRawTextURL 返回原始简历文本的预签名下载URL
func (h *ParseHandler) GetRawTextURL(ctx context.Context, submissionUUID string) (string, error) {
	if err := h.requireAsyncStack(); err != nil {
		return "", err
	}
	if submissionUUID == "" {
		return "", fmt.Errorf("submission_uuid 不能为空")
	}

	submission, err := h.storage.MySQL.GetResumeSubmission(ctx, submissionUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("提交记录不存在: %s", submissionUUID)
		}
		return "", fmt.Errorf("查询提交记录失败: %w", err)
	}
	if submission.RawTextPathOSS == "" {
		return "", fmt.Errorf("提交记录没有原始文本: %s", submissionUUID)
	}

	url, err := h.storage.MinIO.GetPresignedURL(ctx, h.storage.MinIO.RawTextBucket(), submission.RawTextPathOSS, 15*time.Minute)
	if err != nil {
		return "", fmt.Errorf("生成预签名URL失败: %w", err)
	}
	return url, nil
}

// SubmissionSummary 提交列表项
type SubmissionSummary struct {
	SubmissionUUID      string    `json:"submission_uuid"`
	SubmissionTimestamp time.Time `json:"submission_timestamp"`
	SourceChannel       string    `json:"source_channel"`
	OriginalFilename    string    `json:"original_filename"`
	ProcessingStatus    string    `json:"processing_status"`
	ParserVersion       string    `json:"parser_version,omitempty"`
}

// ListSubmissions 返回最近的提交记录摘要
func (h *ParseHandler) ListSubmissions(ctx context.Context, limit int) ([]SubmissionSummary, error) {
	if err := h.requireAsyncStack(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	submissions, err := h.storage.MySQL.ListRecentSubmissions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("查询提交列表失败: %w", err)
	}

	summaries := make([]SubmissionSummary, 0, len(submissions))
	for _, s := range submissions {
		summaries = append(summaries, SubmissionSummary{
			SubmissionUUID:      s.SubmissionUUID,
			SubmissionTimestamp: s.SubmissionTimestamp,
			SourceChannel:       s.SourceChannel,
			OriginalFilename:    s.OriginalFilename,
			ProcessingStatus:    s.ProcessingStatus,
			ParserVersion:       s.ParserVersion,
		})
	}
	return summaries, nil
}

func joinLocation(city, state string) string {
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	default:
		return state
	}
}
