package storage

import "time"

// ResumeUploadedMessage 简历文本上传事件。
// 上传接口发布, 抽取消费者订阅
type ResumeUploadedMessage struct {
	SubmissionUUID      string    `json:"submission_uuid"`          // 提交UUID, 主键
	SubmissionTimestamp time.Time `json:"submission_timestamp"`     // 提交时间戳
	SourceChannel       string    `json:"source_channel,omitempty"` // 来源渠道
	OriginalFilename    string    `json:"original_filename"`        // 原始文件名
	RawTextPathOSS      string    `json:"raw_text_path_oss"`        // 原始文本在MinIO中的对象路径
	RawTextMD5          string    `json:"raw_text_md5,omitempty"`   // 原始文本MD5, 失败时回滚去重集合用
}

// ResumeExtractedMessage 抽取完成事件。
// 抽取消费者发布, 下游系统订阅
type ResumeExtractedMessage struct {
	SubmissionUUID   string `json:"submission_uuid"`             // 提交UUID
	ResultPathOSS    string `json:"result_path_oss,omitempty"`   // 解析结果在MinIO中的对象路径
	ProcessingStatus string `json:"processing_status"`           // 终态: EXTRACTION_COMPLETED / EXTRACTION_FAILED
	ParserVersion    string `json:"parser_version,omitempty"`    // 产出结果的解析器版本
	FieldsExtracted  int    `json:"fields_extracted,omitempty"`  // 抽取出的字段数
	ProcessingTimeMS int64  `json:"processing_time_ms,omitempty"` // 处理耗时(毫秒)
	Error            string `json:"error,omitempty"`             // 失败原因
}
