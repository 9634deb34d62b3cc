package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"resume-extractor-go/internal/config"
	"resume-extractor-go/internal/constants"
	"resume-extractor-go/internal/storage/models"
	"resume-extractor-go/internal/tracing"
)

var mysqlTracer = otel.Tracer("resume-extractor-go/storage/mysql")

// GormTracingPlugin GORM插件, 为数据库操作生成OpenTelemetry span
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	dbSystem       string
	disableErrSkip bool
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}

	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}

	if err := cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("otel:after_row", p.after()); err != nil {
		return err
	}

	if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()); err != nil {
		return err
	}

	return nil
}

// before 返回在GORM操作之前执行的回调
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		spanName := fmt.Sprintf("%s %s", operation, tableName)
		opts := []trace.SpanStartOption{
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		}

		sqlStatement := db.Statement.SQL.String()
		if sqlStatement != "" {
			opts = append(opts, trace.WithAttributes(
				attribute.String("db.statement", tracing.SafeSQL(sqlStatement)),
			))
		}

		newCtx, span := p.tracer.Start(ctx, spanName, opts...)

		// span存入上下文, after回调取出结束
		db.Statement.Context = context.WithValue(newCtx, "otel-span", span)
	}
}

// after 返回在GORM操作之后执行的回调
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value("otel-span").(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		if db.Error != nil {
			if db.Error == gorm.ErrRecordNotFound {
				// 未找到记录属于正常业务路径, 不算错误
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// NewGormTracingPlugin 创建GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		dbSystem:       "mysql",
		disableErrSkip: true,
	}
}

// WithDisableErrSkip 设置是否跳过SkipHooks语句的追踪
func (p *GormTracingPlugin) WithDisableErrSkip(disable bool) *GormTracingPlugin {
	p.disableErrSkip = disable
	return p
}

// Database 关系数据库接口
type Database interface {
	// DB 返回GORM数据库连接实例
	DB() *gorm.DB

	// Close 关闭数据库连接
	Close() error
}

// 确保MySQL实现了Database接口
var _ Database = (*MySQL)(nil)

// MySQL 提供候选人与简历提交记录的持久化
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 连接MySQL并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{
		db:  db,
		cfg: cfg,
	}

	tracingPlugin := NewGormTracingPlugin(cfg.Database).WithDisableErrSkip(true)
	if err := db.Use(tracingPlugin); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := m.autoMigrateSchema(); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移表结构。迁移期间关闭SQL日志
func (m *MySQL) autoMigrateSchema() error {
	silentLogger := logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})

	err := silentDB.AutoMigrate(
		&models.Candidate{},
		&models.ResumeSubmission{},
	)
	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// CreateResumeSubmission 创建简历提交记录。主键冲突时幂等跳过
func (m *MySQL) CreateResumeSubmission(ctx context.Context, submission *models.ResumeSubmission) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.CreateResumeSubmission",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		semconv.DBSystemMySQL,
		attribute.String("db.name", m.cfg.Database),
		attribute.String("db.sql.table", "resume_submissions"),
		attribute.String("submission.uuid", submission.SubmissionUUID),
	)

	// ON DUPLICATE KEY时对主键做无实际意义的更新, 实现幂等插入
	err := m.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_uuid"}},
			DoUpdates: clause.AssignmentColumns([]string{"submission_uuid"}),
		}).Create(submission).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetResumeSubmission 按UUID查询提交记录
func (m *MySQL) GetResumeSubmission(ctx context.Context, submissionUUID string) (*models.ResumeSubmission, error) {
	var submission models.ResumeSubmission
	err := m.db.WithContext(ctx).Where("submission_uuid = ?", submissionUUID).First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// GetResumeSubmissionByMD5 按原始文本MD5查询最早的提交记录
func (m *MySQL) GetResumeSubmissionByMD5(ctx context.Context, rawTextMD5 string) (*models.ResumeSubmission, error) {
	var submission models.ResumeSubmission
	err := m.db.WithContext(ctx).
		Where("raw_text_md5 = ?", rawTextMD5).
		Order("submission_timestamp ASC").
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// UpdateProcessingStatus 更新提交记录的处理状态。
// 状态回到待提取时同时清掉上一轮的失败原因, 避免重跑后还挂着旧错误
func (m *MySQL) UpdateProcessingStatus(ctx context.Context, submissionUUID string, status string) error {
	updates := map[string]interface{}{"processing_status": status}
	if status == constants.StatusPendingExtraction {
		updates["error_message"] = ""
	}
	return m.db.WithContext(ctx).Model(&models.ResumeSubmission{}).
		Where("submission_uuid = ?", submissionUUID).
		Updates(updates).Error
}

// MarkExtractionFailed 标记提交失败并记录原因
func (m *MySQL) MarkExtractionFailed(ctx context.Context, submissionUUID string, errMessage string) error {
	updates := map[string]interface{}{
		"processing_status": constants.StatusExtractionFailed,
		"error_message":     errMessage,
	}
	return m.db.WithContext(ctx).Model(&models.ResumeSubmission{}).
		Where("submission_uuid = ?", submissionUUID).
		Updates(updates).Error
}

// SaveParsedResult 在事务中保存解析结果并推进状态机。
// 同时写入结果JSON、结果对象路径、解析器版本和候选人关联
func (m *MySQL) SaveParsedResult(ctx context.Context, submissionUUID string, resultJSON []byte, resultPathOSS, parserVersion string, candidateID *string) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.SaveParsedResult",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		semconv.DBSystemMySQL,
		attribute.String("db.name", m.cfg.Database),
		attribute.String("submission.uuid", submissionUUID),
	)

	updates := map[string]interface{}{
		"parsed_result_json": models.StringToJSON(string(resultJSON)),
		"result_path_oss":    resultPathOSS,
		"parser_version":     parserVersion,
		"processing_status":  constants.StatusExtractionCompleted,
		"error_message":      "",
	}
	if candidateID != nil {
		updates["candidate_id"] = *candidateID
	}

	err := m.db.WithContext(ctx).Model(&models.ResumeSubmission{}).
		Where("submission_uuid = ?", submissionUUID).
		Updates(updates).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// FindOrCreateCandidate 按邮箱或电话查找候选人, 未找到则创建。
// 邮箱和电话至少要有一个, 否则无法做身份归并
func (m *MySQL) FindOrCreateCandidate(ctx context.Context, tx *gorm.DB, basicInfo map[string]string) (*models.Candidate, error) {
	email := basicInfo["email"]
	phone := basicInfo["phone"]

	// 联系方式是PII, 上报span前先掩码
	ctx, span := mysqlTracer.Start(ctx, "FindOrCreateCandidate", trace.WithAttributes(
		attribute.String("candidate.email", tracing.MaskPII(email)),
		attribute.String("candidate.phone", tracing.MaskPII(phone)),
	))
	defer span.End()

	if email == "" && phone == "" {
		err := fmt.Errorf("邮箱和电话至少需要一个")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var candidate models.Candidate
	db := m.db
	if tx != nil {
		db = tx
	}

	var conditions []string
	var args []interface{}
	if email != "" {
		conditions = append(conditions, "primary_email = ?")
		args = append(args, email)
	}
	if phone != "" {
		conditions = append(conditions, "primary_phone = ?")
		args = append(args, phone)
	}

	orQuery := db.WithContext(ctx).Model(&models.Candidate{}).Where(conditions[0], args[0])
	for i := 1; i < len(conditions); i++ {
		orQuery = orQuery.Or(conditions[i], args[i])
	}

	err := orQuery.First(&candidate).Error
	if err == nil {
		span.SetAttributes(attribute.Bool("candidate.found", true), attribute.String("candidate.id", candidate.CandidateID))
		return &candidate, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query candidate")
		return nil, fmt.Errorf("查询候选人失败: %w", err)
	}

	span.SetAttributes(attribute.Bool("candidate.found", false))

	newUUID, err := uuid.NewV7()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate UUIDv7")
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}

	newCandidate := &models.Candidate{
		CandidateID:     newUUID.String(),
		PrimaryName:     basicInfo["name"],
		PrimaryEmail:    email,
		PrimaryPhone:    phone,
		CurrentLocation: basicInfo["current_location"],
	}

	if err := db.WithContext(ctx).Create(newCandidate).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create candidate")
		return nil, fmt.Errorf("创建新候选人失败: %w", err)
	}

	span.SetAttributes(attribute.String("candidate.id", newCandidate.CandidateID))
	return newCandidate, nil
}

// ListRecentSubmissions 按提交时间倒序列出最近的提交记录
func (m *MySQL) ListRecentSubmissions(ctx context.Context, limit int) ([]models.ResumeSubmission, error) {
	if limit <= 0 {
		limit = 20
	}
	var submissions []models.ResumeSubmission
	err := m.db.WithContext(ctx).
		Order("submission_timestamp DESC").
		Limit(limit).
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}
