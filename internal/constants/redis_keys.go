package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"
	// FileModulePrefix 文件模块
	FileModulePrefix = "file"

	// EntityResult 解析结果实体
	EntityResult = "result"
	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityMD5ToUUID MD5到UUID的映射实体
	EntityMD5ToUUID = "md5_to_uuid"

	// KeyFileMD5Set 原始文本MD5集合，用于快速去重 (SET)
	// 格式: app:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyFileMD5ToSubmissionUUID MD5到SubmissionUUID的映射 (STRING)
	// 格式: app:file:md5_to_uuid:{md5}
	KeyFileMD5ToSubmissionUUID = AppPrefix + ":" + FileModulePrefix + ":" + EntityMD5ToUUID + ":%s"

	// KeyParsedResult 解析结果缓存 (STRING, JSON值)
	// 格式: app:resume:result:{submission_uuid}
	KeyParsedResult = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityResult + ":%s"
)
