package models

import (
	"time"

	"gorm.io/datatypes"
)

// Candidate 候选人主表。同一人多次投递共享一条记录
type Candidate struct {
	CandidateID     string    `gorm:"type:char(36);primaryKey"`
	PrimaryName     string    `gorm:"type:varchar(255)"`
	PrimaryPhone    string    `gorm:"type:varchar(50);uniqueIndex:idx_candidates_primary_phone_unique"`
	PrimaryEmail    string    `gorm:"type:varchar(255);uniqueIndex:idx_candidates_primary_email_unique"`
	CurrentLocation string    `gorm:"type:varchar(255)"`
	ProfileSummary  string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// ResumeSubmission 简历提交/快照表。每次上传产生一条记录
type ResumeSubmission struct {
	SubmissionUUID      string         `gorm:"type:char(36);primaryKey"`
	CandidateID         *string        `gorm:"type:char(36);index:idx_rs_candidate_id"` // 可空, 候选人删除时置NULL
	SubmissionTimestamp time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_rs_submission_timestamp"`
	SourceChannel       string         `gorm:"type:varchar(100)"`
	OriginalFilename    string         `gorm:"type:varchar(255)"`
	RawTextPathOSS      string         `gorm:"type:varchar(1024)"`
	ResultPathOSS       string         `gorm:"type:varchar(1024)"`
	RawTextMD5          string         `gorm:"type:char(32);index:idx_rs_raw_text_md5"`
	ParsedResultJSON    datatypes.JSON `gorm:"type:json"`
	ProcessingStatus    string         `gorm:"type:varchar(50);default:'PENDING_EXTRACTION';index:idx_rs_processing_status"`
	ParserVersion       string         `gorm:"type:varchar(50)"`
	ErrorMessage        string         `gorm:"type:text"`
	CreatedAt           time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt           time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (ResumeSubmission) TableName() string {
	return "resume_submissions"
}

// StringToJSON 把字符串包装为 datatypes.JSON
func StringToJSON(s string) datatypes.JSON {
	return datatypes.JSON(s)
}

