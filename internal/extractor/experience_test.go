package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExperienceParser() *experienceParser {
	// 固定"当前年月"，保证时长断言稳定
	return newExperienceParser(newPatternLibrary(), 2025, 6)
}

func TestParseExperienceSection(t *testing.T) {
	p := newTestExperienceParser()

	lines := []string{
		"Senior Software Engineer at Acme Corp",
		"Austin, TX",
		"June 2019 - Present",
		"- Developed microservices using Go",
		"- Led a team of 5 engineers",
		"Software Developer | BetaSoft LLC | 2016 - 2019",
		"- Built internal reporting tools",
	}
	entries := p.Parse(lines)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "Senior Software Engineer", first.JobTitle)
	assert.Equal(t, "Acme Corp", first.CompanyName)
	assert.Equal(t, "Austin, TX", first.Location)
	assert.Equal(t, "2019-06-01", first.StartDate)
	assert.Equal(t, "Present", first.EndDate)
	assert.True(t, first.IsCurrent)
	assert.Contains(t, first.Description, "Developed microservices using Go")
	assert.Equal(t, "6 years", first.ExperienceDuration)

	second := entries[1]
	assert.Equal(t, "Software Developer", second.JobTitle)
	assert.Equal(t, "BetaSoft LLC", second.CompanyName)
	assert.Equal(t, "2016-01-01", second.StartDate)
	assert.False(t, second.IsCurrent)
	assert.Equal(t, "3 years", second.ExperienceDuration)
}

func TestLocationLineNeverBecomesCompany(t *testing.T) {
	p := newTestExperienceParser()

	// 独立的 "Austin, TX" 行永远归入Location字段
	lines := []string{
		"Engineer at Acme Corp",
		"Austin, TX",
	}
	entries := p.Parse(lines)
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme Corp", entries[0].CompanyName)
	assert.Equal(t, "Austin, TX", entries[0].Location)

	// 头部出现之前的地点行被忽略，不会开启条目
	entries = p.Parse([]string{"Austin, TX"})
	assert.Empty(t, entries)
}

func TestCurrentInvariant(t *testing.T) {
	p := newTestExperienceParser()

	// 完全没有日期的条目视为在职（end_date为空 ⟺ is_current）
	entries := p.Parse([]string{"Engineer at Acme Corp"})
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].EndDate)
	assert.True(t, entries[0].IsCurrent)

	// 有明确结束日期则不在职
	entries = p.Parse([]string{
		"Engineer at Acme Corp",
		"Jan 2018 - Dec 2019",
	})
	require.Len(t, entries, 1)
	assert.Equal(t, "2019-12-01", entries[0].EndDate)
	assert.False(t, entries[0].IsCurrent)
}

func TestDutyLineVeto(t *testing.T) {
	p := newTestExperienceParser()

	// 动作动词开头的行即便含职位词也不是头部
	_, ok := p.matchHeaderLine("Managed a team of engineers at the Austin office")
	assert.False(t, ok)

	// bullet行同理
	_, ok = p.matchHeaderLine("- Senior Engineer at Acme Corp")
	assert.False(t, ok)

	// 正常头部
	entry, ok := p.matchHeaderLine("Data Analyst at DataWorks Inc")
	require.True(t, ok)
	assert.Equal(t, "Data Analyst", entry.JobTitle)
	assert.Equal(t, "DataWorks Inc", entry.CompanyName)
}

func TestHeaderWithInlineDates(t *testing.T) {
	p := newTestExperienceParser()

	lines := []string{"Acme Inc - Backend Engineer", "March 2020 - Present"}
	entries := p.Parse(lines)
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme Inc", entries[0].CompanyName)
	assert.Equal(t, "Backend Engineer", entries[0].JobTitle)
	assert.Equal(t, "2020-03-01", entries[0].StartDate)
	assert.True(t, entries[0].IsCurrent)
}

func TestCompanyWithTrailingLocation(t *testing.T) {
	p := newTestExperienceParser()

	entry, ok := p.matchHeaderLine("Engineer at Acme Corp, Seattle, WA")
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", entry.CompanyName)
	assert.Equal(t, "Seattle, WA", entry.Location)
}

func TestParseExperienceEmpty(t *testing.T) {
	p := newTestExperienceParser()
	assert.Empty(t, p.Parse(nil))
	assert.Empty(t, p.Parse([]string{"没有任何经历结构的文本"}))
}
