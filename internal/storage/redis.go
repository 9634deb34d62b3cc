package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"resume-extractor-go/internal/config"
	"resume-extractor-go/internal/constants"
	"resume-extractor-go/internal/tracing"
)

// ErrNotFound 表示键不存在, 包装底层的 redis.Nil
var ErrNotFound = redis.Nil

// Redis操作专用tracer
var redisTracer = otel.Tracer("resume-extractor-go/storage/redis")

// Redis 封装去重集合与结果缓存
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端并验证连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		// 重试设置
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		// 连接生命周期
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	// OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查Redis连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// GetMD5ExpireDuration 返回配置的MD5去重记录过期时间
func (r *Redis) GetMD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// GetResultCacheDuration 返回配置的解析结果缓存过期时间
func (r *Redis) GetResultCacheDuration() time.Duration {
	minutes := r.config.ResultCacheExpireMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

// CheckAndAddFileMD5 原子地检查并登记原始文本MD5。
// 返回true表示MD5已存在(重复提交)
func (r *Redis) CheckAndAddFileMD5(ctx context.Context, md5Hex string) (exists bool, err error) {
	ctx, span := redisTracer.Start(ctx, "Redis.CheckAndAddFileMD5",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("db.redis.database", fmt.Sprintf("%d", r.config.DB)),
		attribute.String("net.peer.name", r.config.Address),
		attribute.String("db.operation", "EVAL"),
		attribute.String("db.redis.key", tracing.SafeRedisKey(constants.KeyFileMD5Set)),
		attribute.String("db.redis.member", md5Hex),
	)

	if r.Client == nil {
		err = fmt.Errorf("redis client is not initialized")
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, err
	}

	// Lua脚本保证SISMEMBER与SADD之间不被并发提交插队
	script := `
		local exists = redis.call('SISMEMBER', KEYS[1], ARGV[1])
		redis.call('SADD', KEYS[1], ARGV[1])
		redis.call('EXPIRE', KEYS[1], ARGV[2])
		return exists
	`

	expiry := r.GetMD5ExpireDuration().Seconds()

	res, err := r.Client.Eval(ctx, script, []string{constants.KeyFileMD5Set}, md5Hex, expiry).Result()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, fmt.Errorf("执行原子检查和添加操作失败: %w", err)
	}

	existsVal, ok := res.(int64)
	if !ok {
		err := fmt.Errorf("意外的Redis返回类型: %T", res)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	exists = existsVal == 1
	span.SetAttributes(attribute.Bool("already_exists", exists))
	span.SetStatus(codes.Ok, "")

	return exists, nil
}

// RemoveFileMD5 从去重集合移除MD5。提交入库失败后回滚用
func (r *Redis) RemoveFileMD5(ctx context.Context, md5Hex string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.SRem(ctx, constants.KeyFileMD5Set, md5Hex).Err()
}

// SetMD5ToSubmissionUUID 记录MD5到SubmissionUUID的映射，重复提交时可直接定位首次提交
func (r *Redis) SetMD5ToSubmissionUUID(ctx context.Context, md5Hex, submissionUUID string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyFileMD5ToSubmissionUUID, md5Hex)
	return r.Client.Set(ctx, key, submissionUUID, r.GetMD5ExpireDuration()).Err()
}

// GetSubmissionUUIDByMD5 按MD5反查首次提交的SubmissionUUID
func (r *Redis) GetSubmissionUUIDByMD5(ctx context.Context, md5Hex string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyFileMD5ToSubmissionUUID, md5Hex)
	return r.Client.Get(ctx, key).Result()
}

// CacheParsedResult 缓存解析结果JSON
func (r *Redis) CacheParsedResult(ctx context.Context, submissionUUID string, resultJSON []byte) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyParsedResult, submissionUUID)
	return r.Client.Set(ctx, key, resultJSON, r.GetResultCacheDuration()).Err()
}

// GetCachedResult 读取缓存的解析结果JSON，未命中返回 ErrNotFound
func (r *Redis) GetCachedResult(ctx context.Context, submissionUUID string) ([]byte, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyParsedResult, submissionUUID)
	val, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err // 包括 redis.Nil
	}
	return val, nil
}

// InvalidateCachedResult 删除解析结果缓存
func (r *Redis) InvalidateCachedResult(ctx context.Context, submissionUUID string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	key := fmt.Sprintf(constants.KeyParsedResult, submissionUUID)
	return r.Client.Del(ctx, key).Err()
}
