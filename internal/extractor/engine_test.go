package extractor

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-extractor-go/internal/types"
)

func TestParseEmptyInput(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// 空输入不panic，返回结构完整的空结果
	result := engine.Parse("", "")
	require.NotNil(t, result)

	assert.Empty(t, result.PersonalDetails.FullName)
	assert.Empty(t, result.PersonalDetails.EmailID)
	assert.NotNil(t, result.ListOfExperiences)
	assert.Empty(t, result.ListOfExperiences)
	assert.NotNil(t, result.ListOfSkills)
	assert.NotNil(t, result.Education)
	assert.NotNil(t, result.Certifications)
	assert.NotNil(t, result.Languages)
	assert.NotNil(t, result.Achievements)
	assert.NotNil(t, result.Projects)

	assert.True(t, result.ParsingMetadata.BRDCompliant)
	assert.Zero(t, result.ParsingMetadata.FieldsExtracted)
	assert.NotEmpty(t, result.ParsingMetadata.ParserVersion)
}

func TestParseMinimalResume(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	text := "Jane Doe\njane.doe@example.com\n(555) 123-4567"
	result := engine.Parse(text, "")

	pd := result.PersonalDetails
	assert.Equal(t, "Jane Doe", pd.FullName)
	assert.Equal(t, "Jane", pd.FirstName)
	assert.Equal(t, "Doe", pd.LastName)
	assert.Equal(t, "jane.doe@example.com", pd.EmailID)
	assert.Equal(t, "(555) 123-4567", pd.PhoneNumber)

	assert.Empty(t, result.ListOfExperiences)
	assert.Equal(t, 3, result.ParsingMetadata.FieldsExtracted)
	assert.InDelta(t, 0.5, result.ParsingMetadata.AccuracyEstimate, 1e-9)
}

func TestParseFullResume(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	text := `Jane Doe
Austin, TX
jane.doe@example.com | (555) 123-4567

SUMMARY
Backend engineer focused on distributed systems.

EXPERIENCE
Senior Software Engineer at Acme Corp
June 2019 - Present
- Developed microservices using golang and Redis
- Led a team of 5 engineers

Software Developer | BetaSoft LLC | 2016 - 2019
- Built internal reporting tools in Python

EDUCATION
Bachelor of Science in Computer Science
Stanford University
2012 - 2016

SKILLS
Python, Node.js, Docker, Kubernetes

CERTIFICATIONS
AWS Certified Solutions Architect - Amazon, Jan 2022

LANGUAGES
English (Native), Spanish (Conversational)
`
	result := engine.Parse(text, "jane_doe_resume.txt")

	// 个人信息
	pd := result.PersonalDetails
	assert.Equal(t, "Jane Doe", pd.FullName)
	assert.Equal(t, "jane.doe@example.com", pd.EmailID)
	assert.Equal(t, "(555) 123-4567", pd.PhoneNumber)
	assert.Equal(t, "Austin", pd.City)
	assert.Equal(t, "TX", pd.State)

	// 经历
	require.Len(t, result.ListOfExperiences, 2)
	exp := result.ListOfExperiences[0]
	assert.Equal(t, "Senior Software Engineer", exp.JobTitle)
	assert.Equal(t, "Acme Corp", exp.CompanyName)
	assert.True(t, exp.IsCurrent)
	assert.Equal(t, "Present", exp.EndDate)
	assert.False(t, result.ListOfExperiences[1].IsCurrent)

	// 教育
	require.Len(t, result.Education, 1)
	assert.Equal(t, "Stanford University", result.Education[0].Institution)
	assert.Equal(t, "Computer Science", result.Education[0].FieldOfStudy)

	// 技能：同义写法归并后的规范名
	names := make([]string, 0, len(result.ListOfSkills))
	for _, s := range result.ListOfSkills {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Node.js")
	assert.Contains(t, names, "Python")
	assert.Contains(t, names, "Go")
	assert.Contains(t, names, "Redis")

	// 证书与语言
	require.Len(t, result.Certifications, 1)
	assert.Equal(t, "AWS Certified Solutions Architect", result.Certifications[0].Name)
	require.Len(t, result.Languages, 2)

	// 概要
	assert.Equal(t, "Senior Software Engineer", result.OverallSummary.CurrentJobTitle)
	assert.Greater(t, result.OverallSummary.TotalExperienceYears, 0.0)
	assert.Contains(t, result.OverallSummary.Summary, "distributed systems")

	// 元数据
	assert.True(t, result.ParsingMetadata.BRDCompliant)
	assert.Equal(t, "jane_doe_resume.txt", result.ParsingMetadata.SourceFile)
	assert.Greater(t, result.ParsingMetadata.AccuracyEstimate, 0.8)
}

func TestParseEducationOutsideZone(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// 抬头区的学位行也要收，不能只看Education分区
	text := "Jane Doe\nMBA in Finance\njane@x.com\n\nEDUCATION\nBachelor of Science in Physics\nStanford University"
	result := engine.Parse(text, "")

	require.Len(t, result.Education, 2)

	byType := map[types.DegreeType]types.EducationEntry{}
	for _, e := range result.Education {
		byType[e.DegreeType] = e
	}

	mba, ok := byType[types.DegreeMasters]
	require.True(t, ok)
	assert.Equal(t, "Finance", mba.FieldOfStudy)

	bs, ok := byType[types.DegreeBachelors]
	require.True(t, ok)
	assert.Equal(t, "Physics", bs.FieldOfStudy)
	assert.Equal(t, "Stanford University", bs.Institution)
}

func TestTruncateRunes(t *testing.T) {
	// 截断点落在多字节字符中间时回退到rune边界
	s := strings.Repeat("界", 250)
	got := truncateRunes(s, 601)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 600, len(got))

	assert.Equal(t, "abc", truncateRunes("abc", 600))
	assert.Equal(t, "ab", truncateRunes("abcd", 2))
}

func TestParseDeterministic(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	text := "Jane Doe\njane.doe@example.com\nEXPERIENCE\nEngineer at Acme Corp\n2018 - 2020"
	a := engine.Parse(text, "r.txt")
	b := engine.Parse(text, "r.txt")

	// 同一输入结果必须完全一致（时间戳类元数据除外）
	a.ParsingMetadata.ParsingTimeMS = 0
	b.ParsingMetadata.ParsingTimeMS = 0
	a.ParsingMetadata.Timestamp = ""
	b.ParsingMetadata.Timestamp = ""
	assert.Equal(t, a, b)
}

func TestEngineConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	assert.Equal(t, 30, cfg.MaxSkills)
	assert.Equal(t, 8, cfg.NameHeaderLines)
	assert.InDelta(t, 0.8, cfg.AchievementSimilarityThreshold, 1e-9)
	assert.NotEmpty(t, cfg.ParserVersion)
}
