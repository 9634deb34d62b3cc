package types

// SectionType 表示简历章节类型
type SectionType string

const (
	// SectionContact 联系方式/抬头章节
	SectionContact SectionType = "CONTACT"
	// SectionSummary 个人总结章节
	SectionSummary SectionType = "SUMMARY"
	// SectionExperience 工作经历章节
	SectionExperience SectionType = "EXPERIENCE"
	// SectionEducation 教育经历章节
	SectionEducation SectionType = "EDUCATION"
	// SectionSkills 技能章节
	SectionSkills SectionType = "SKILLS"
	// SectionCertifications 证书章节
	SectionCertifications SectionType = "CERTIFICATIONS"
	// SectionProjects 项目经历章节
	SectionProjects SectionType = "PROJECTS"
	// SectionAchievements 获奖/成就章节
	SectionAchievements SectionType = "ACHIEVEMENTS"
	// SectionLanguages 语言能力章节
	SectionLanguages SectionType = "LANGUAGES"
	// SectionUnknown 未分类内容
	SectionUnknown SectionType = "UNKNOWN"
)

// SectionZone 简历中一段连续行构成的章节区域
// FirstLine/LastLine 为基于0的行号，Lines 为区域内的非空行
type SectionZone struct {
	Type       SectionType // 章节类型
	HeaderText string      // 命中的章节标题原文
	FirstLine  int         // 区域起始行
	LastLine   int         // 区域结束行
	Lines      []string    // 区域内容行
}

// CandidateName 候选人姓名的解析结果
// Score 为规则打分结果，仅正分的候选会被接受
type CandidateName struct {
	Formatted string  `json:"FullName"`
	Given     string  `json:"FirstName"`
	Middle    string  `json:"MiddleName,omitempty"`
	Family    string  `json:"LastName"`
	Score     float64 `json:"-"`
}

// PhoneNumber 电话号码，Normalized 统一为 (XXX) XXX-XXXX 格式
type PhoneNumber struct {
	Raw         string `json:"Raw"`
	Normalized  string `json:"Normalized"`
	CountryCode string `json:"CountryCode,omitempty"`
}

// Location 地理位置（城市/州或省/国家）
type Location struct {
	Municipality string `json:"Municipality,omitempty"`
	Region       string `json:"Region,omitempty"`
	Country      string `json:"Country,omitempty"`
}

// ContactInfo 联系方式汇总
type ContactInfo struct {
	Emails   []string      `json:"Emails"`
	Phones   []PhoneNumber `json:"Phones"`
	Location Location      `json:"Location"`
}

// ExperienceEntry 一段工作经历
// 不变式: IsCurrent == true 当且仅当 EndDate 为空或为 "Present"
type ExperienceEntry struct {
	JobTitle           string `json:"JobTitle"`
	CompanyName        string `json:"CompanyName"`
	Location           string `json:"Location,omitempty"`
	StartDate          string `json:"StartDate,omitempty"`
	EndDate            string `json:"EndDate,omitempty"`
	IsCurrent          bool   `json:"IsCurrent"`
	Description        string `json:"Description,omitempty"`
	ExperienceDuration string `json:"ExperienceDuration,omitempty"`
}

// DegreeType 学位类型的封闭枚举
type DegreeType string

const (
	DegreeBachelors   DegreeType = "bachelors"
	DegreeMasters     DegreeType = "masters"
	DegreeDoctorate   DegreeType = "doctorate"
	DegreeAssociates  DegreeType = "associates"
	DegreeCertificate DegreeType = "certificate"
)

// EducationEntry 一条教育经历
type EducationEntry struct {
	DegreeName   string     `json:"DegreeName"`
	DegreeType   DegreeType `json:"DegreeType,omitempty"`
	FieldOfStudy string     `json:"FieldOfStudy,omitempty"`
	Institution  string     `json:"Institution,omitempty"`
	StartDate    string     `json:"StartDate,omitempty"`
	EndDate      string     `json:"EndDate,omitempty"`
	GPA          string     `json:"GPA,omitempty"`
}

// SkillEntry 一项技能，Name 为同义词表规范化后的标准名
type SkillEntry struct {
	Name             string `json:"SkillName"`
	Category         string `json:"Category,omitempty"`
	MonthsExperience int    `json:"MonthsExperience,omitempty"`
	LastUsed         string `json:"LastUsed,omitempty"`
}

// CertificationEntry 一条证书记录
type CertificationEntry struct {
	Name        string `json:"CertificationName"`
	Issuer      string `json:"Issuer,omitempty"`
	IssuedDate  string `json:"IssuedDate,omitempty"`
	ExpiryDate  string `json:"ExpiryDate,omitempty"`
	Description string `json:"Description,omitempty"`
}

// AchievementEntry 一条成就/获奖记录
type AchievementEntry struct {
	Description string `json:"Description"`
	Date        string `json:"Date,omitempty"`
}

// LanguageEntry 一条语言能力记录
type LanguageEntry struct {
	Language    string `json:"Language"`
	Proficiency string `json:"Proficiency,omitempty"`
}

// ProjectEntry 一条项目经历记录
type ProjectEntry struct {
	Name         string   `json:"ProjectName"`
	Description  string   `json:"Description,omitempty"`
	Technologies []string `json:"Technologies,omitempty"`
}

// PersonalDetails BRD输出中的个人信息块
type PersonalDetails struct {
	FullName    string `json:"FullName"`
	FirstName   string `json:"FirstName"`
	MiddleName  string `json:"MiddleName,omitempty"`
	LastName    string `json:"LastName"`
	EmailID     string `json:"EmailID"`
	PhoneNumber string `json:"PhoneNumber"`
	CountryCode string `json:"CountryCode,omitempty"`
	City        string `json:"City,omitempty"`
	State       string `json:"State,omitempty"`
	Country     string `json:"Country,omitempty"`
}

// OverallSummary BRD输出中的总体概要块
type OverallSummary struct {
	CurrentJobTitle      string   `json:"CurrentJobTitle,omitempty"`
	TotalExperienceYears float64  `json:"TotalExperienceYears,omitempty"`
	RelevantJobTitles    []string `json:"RelevantJobTitles,omitempty"`
	Summary              string   `json:"Summary,omitempty"`
}

// ParsingMetadata 解析过程的元数据
type ParsingMetadata struct {
	ParsingTimeMS    int64   `json:"parsing_time_ms"`
	Timestamp        string  `json:"timestamp"`
	ParserVersion    string  `json:"parser_version"`
	SourceFile       string  `json:"source_file,omitempty"`
	BRDCompliant     bool    `json:"brd_compliant"`
	FieldsExtracted  int     `json:"fields_extracted"`
	AccuracyEstimate float64 `json:"accuracy_estimate"`
}

// ParsedResumeResult 单次解析调用的唯一对外产物，固定为BRD约定的形状
// 所有字段均为本次调用新建的值对象，调用间不共享可变状态
type ParsedResumeResult struct {
	PersonalDetails   PersonalDetails      `json:"PersonalDetails"`
	OverallSummary    OverallSummary       `json:"OverallSummary"`
	ListOfExperiences []ExperienceEntry    `json:"ListOfExperiences"`
	ListOfSkills      []SkillEntry         `json:"ListOfSkills"`
	Education         []EducationEntry     `json:"Education"`
	Certifications    []CertificationEntry `json:"Certifications"`
	Languages         []LanguageEntry      `json:"Languages"`
	Achievements      []AchievementEntry   `json:"Achievements"`
	Projects          []ProjectEntry       `json:"Projects"`
	ParsingMetadata   ParsingMetadata      `json:"ParsingMetadata"`
}
