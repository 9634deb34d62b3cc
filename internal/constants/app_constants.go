package constants

// 简历提交状态机。状态只向前推进，不回退
const (
	StatusPendingExtraction   = "PENDING_EXTRACTION"
	StatusExtractionCompleted = "EXTRACTION_COMPLETED"
	StatusExtractionFailed    = "EXTRACTION_FAILED"
	StatusDuplicateSkipped    = "DUPLICATE_SKIPPED"
)

// MinIO对象键布局
const (
	// RawTextObjectFormat 原始简历文本对象键: raw/{submission_uuid}.txt
	RawTextObjectFormat = "raw/%s.txt"
	// ResultObjectFormat 结构化结果对象键: parsed/{submission_uuid}.json
	ResultObjectFormat = "parsed/%s.json"
)
