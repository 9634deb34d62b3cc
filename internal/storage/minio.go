package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-extractor-go/internal/config"
	"resume-extractor-go/internal/constants"
	"resume-extractor-go/internal/tracing"
)

var minioTracer = otel.Tracer("resume-extractor-go/storage/minio")

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadRawText 上传原始简历文本，返回对象键
	UploadRawText(ctx context.Context, submissionUUID string, text string) (string, error)

	// UploadRawTextStreaming 流式上传原始文本并同时计算MD5，返回对象键和MD5
	UploadRawTextStreaming(ctx context.Context, submissionUUID string, reader io.Reader, size int64) (string, string, error)

	// GetRawText 按对象键取回原始文本
	GetRawText(ctx context.Context, objectKey string) (string, error)

	// UploadResult 上传解析结果JSON，返回对象键
	UploadResult(ctx context.Context, submissionUUID string, resultJSON []byte) (string, error)

	// GetResult 按对象键取回解析结果JSON
	GetResult(ctx context.Context, objectKey string) ([]byte, error)

	// GetPresignedURL 获取预签名下载URL
	GetPresignedURL(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error)

	// DeleteRawText 删除原始文本对象
	DeleteRawText(ctx context.Context, objectKey string) error
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供简历文本与解析结果的对象存储
type MinIO struct {
	client        *minio.Client
	cfg           *config.MinIOConfig
	rawTextBucket string
	resultBucket  string
	logger        *log.Logger
}

// NewMinIO 创建MinIO客户端并确保两个存储桶存在
func NewMinIO(cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	rawTextBucket := cfg.RawTextBucket
	if rawTextBucket == "" {
		rawTextBucket = "resume-raw-text"
	}
	resultBucket := cfg.ResultBucket
	if resultBucket == "" {
		resultBucket = "resume-parsed-results"
	}

	m := &MinIO{
		client:        client,
		cfg:           cfg,
		rawTextBucket: rawTextBucket,
		resultBucket:  resultBucket,
		logger:        logger,
	}

	if err := m.ensureBucketExists(rawTextBucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保原始文本存储桶 %s 存在失败: %w", rawTextBucket, err)
	}
	if err := m.ensureBucketExists(resultBucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保解析结果存储桶 %s 存在失败: %w", resultBucket, err)
	}

	// 生命周期规则：过期对象由MinIO自动清理
	if cfg.RawTextExpireDays > 0 || cfg.ResultExpireDays > 0 {
		if err := m.setupLifecycleRules(context.Background()); err != nil {
			logger.Printf("[MinIO] Warning: failed to set up lifecycle rules: %v", err)
		}
	}

	logger.Printf("[MinIO] Client initialized: endpoint=%s rawTextBucket=%s resultBucket=%s", cfg.Endpoint, rawTextBucket, resultBucket)
	return m, nil
}

// ensureBucketExists 确保存储桶存在，不存在则创建
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		if err := m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
		m.logger.Printf("[MinIO] Bucket %s created.", bucketName)
	}
	return nil
}

// setupLifecycleRules 为两个存储桶设置对象过期规则
func (m *MinIO) setupLifecycleRules(ctx context.Context) error {
	if m.cfg.RawTextExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.rawTextBucket, "expire-raw-text", m.cfg.RawTextExpireDays); err != nil {
			return fmt.Errorf("为原始文本存储桶 %s 设置生命周期失败: %w", m.rawTextBucket, err)
		}
	}
	if m.cfg.ResultExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.resultBucket, "expire-results", m.cfg.ResultExpireDays); err != nil {
			return fmt.Errorf("为解析结果存储桶 %s 设置生命周期失败: %w", m.resultBucket, err)
		}
	}
	return nil
}

func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	if err := m.client.SetBucketLifecycle(ctx, bucketName, lc); err != nil {
		return err
	}
	m.logger.Printf("[MinIO] Lifecycle rule %s set for bucket %s (%d days).", ruleID, bucketName, expiryDays)
	return nil
}

// UploadRawText 上传原始简历文本到rawTextBucket
func (m *MinIO) UploadRawText(ctx context.Context, submissionUUID string, text string) (string, error) {
	objectKey := fmt.Sprintf(constants.RawTextObjectFormat, submissionUUID)
	_, err := m.client.PutObject(ctx, m.rawTextBucket, objectKey, strings.NewReader(text), int64(len(text)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return "", fmt.Errorf("上传原始文本 %s 到存储桶 %s 失败: %w", objectKey, m.rawTextBucket, err)
	}
	return objectKey, nil
}

// UploadRawTextStreaming 流式上传原始文本，TeeReader边读边算MD5
// 返回: objectKey, md5Hex, error
func (m *MinIO) UploadRawTextStreaming(ctx context.Context, submissionUUID string, reader io.Reader, size int64) (string, string, error) {
	objectKey := fmt.Sprintf(constants.RawTextObjectFormat, submissionUUID)

	md5Hash := md5.New()
	teeReader := io.TeeReader(reader, md5Hash)

	info, err := m.client.PutObject(ctx, m.rawTextBucket, objectKey, teeReader, size,
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return "", "", fmt.Errorf("流式上传原始文本到MinIO失败: %w", err)
	}

	md5Hex := hex.EncodeToString(md5Hash.Sum(nil))
	m.logger.Printf("[MinIO] Streamed raw text %s (size=%d, md5=%s).", objectKey, info.Size, md5Hex)
	return objectKey, md5Hex, nil
}

// GetRawText 取回原始简历文本
func (m *MinIO) GetRawText(ctx context.Context, objectKey string) (string, error) {
	data, err := m.downloadObject(ctx, m.rawTextBucket, objectKey)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UploadResult 上传解析结果JSON到resultBucket
func (m *MinIO) UploadResult(ctx context.Context, submissionUUID string, resultJSON []byte) (string, error) {
	objectKey := fmt.Sprintf(constants.ResultObjectFormat, submissionUUID)
	_, err := m.client.PutObject(ctx, m.resultBucket, objectKey, bytes.NewReader(resultJSON), int64(len(resultJSON)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("上传解析结果 %s 到存储桶 %s 失败: %w", objectKey, m.resultBucket, err)
	}
	return objectKey, nil
}

// GetResult 取回解析结果JSON
func (m *MinIO) GetResult(ctx context.Context, objectKey string) ([]byte, error) {
	return m.downloadObject(ctx, m.resultBucket, objectKey)
}

// downloadObject 通用对象下载
func (m *MinIO) downloadObject(ctx context.Context, bucketName, objectKey string) ([]byte, error) {
	ctx, span := minioTracer.Start(ctx, "MinIO.GetObject",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("object.bucket", bucketName),
			attribute.String("object.key", objectKey),
		),
	)
	defer span.End()

	recordErr := func(err error) error {
		tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeObjectStorage,
			attribute.String("object.bucket", bucketName))
		return err
	}

	obj, err := m.client.GetObject(ctx, bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, recordErr(fmt.Errorf("获取对象 %s/%s 失败: %w", bucketName, objectKey, err))
	}
	defer obj.Close()

	// Stat能提前暴露对象不存在或无权限的问题
	if _, err := obj.Stat(); err != nil {
		return nil, recordErr(fmt.Errorf("获取对象 %s/%s 状态失败: %w", bucketName, objectKey, err))
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, recordErr(fmt.Errorf("读取对象 %s/%s 数据失败: %w", bucketName, objectKey, err))
	}

	span.SetAttributes(attribute.Int("object.size", len(data)))
	span.SetStatus(codes.Ok, "")
	return data, nil
}

// GetPresignedURL 获取预签名下载URL
func (m *MinIO) GetPresignedURL(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error) {
	presignedURL, err := m.client.PresignedGetObject(ctx, bucket, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成MinIO预签名URL失败: %w", err)
	}
	return presignedURL.String(), nil
}

// DeleteRawText 删除原始文本对象
func (m *MinIO) DeleteRawText(ctx context.Context, objectKey string) error {
	if err := m.client.RemoveObject(ctx, m.rawTextBucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象 %s 失败: %w", objectKey, err)
	}
	return nil
}

// RawTextBucket 返回原始文本存储桶名称
func (m *MinIO) RawTextBucket() string { return m.rawTextBucket }

// ResultBucket 返回解析结果存储桶名称
func (m *MinIO) ResultBucket() string { return m.resultBucket }
