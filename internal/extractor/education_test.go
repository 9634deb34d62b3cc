package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-extractor-go/internal/types"
)

func TestParseEducationEntry(t *testing.T) {
	p := newEducationParser(newPatternLibrary())

	lines := []string{
		"Bachelor of Science in Computer Science",
		"Stanford University",
		"2014 - 2018",
		"GPA: 3.8",
	}
	entries := p.Parse(lines)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "Bachelor of Science", e.DegreeName)
	assert.Equal(t, types.DegreeBachelors, e.DegreeType)
	assert.Equal(t, "Computer Science", e.FieldOfStudy)
	assert.Equal(t, "Stanford University", e.Institution)
	assert.Equal(t, "2014-01-01", e.StartDate)
	assert.Equal(t, "2018-01-01", e.EndDate)
	assert.Equal(t, "3.8", e.GPA)
}

func TestParseDegreeAbbreviations(t *testing.T) {
	p := newEducationParser(newPatternLibrary())

	cases := []struct {
		line       string
		degreeName string
		degreeType types.DegreeType
		field      string
	}{
		{"BS Computer Science", "Bachelor of Science", types.DegreeBachelors, "Computer Science"},
		{"M.S. Data Science", "Master of Science", types.DegreeMasters, "Data Science"},
		{"MBA", "Master of Business Administration", types.DegreeMasters, ""},
		{"PhD in Physics", "Doctor of Philosophy", types.DegreeDoctorate, "Physics"},
		{"B.Tech Electronics", "Bachelor of Technology", types.DegreeBachelors, "Electronics"},
	}

	for _, c := range cases {
		entry := p.parseDegreeLine(c.line)
		assert.Equal(t, c.degreeName, entry.DegreeName, "行: %s", c.line)
		assert.Equal(t, c.degreeType, entry.DegreeType, "行: %s", c.line)
		assert.Equal(t, c.field, entry.FieldOfStudy, "行: %s", c.line)
	}
}

func TestInstitutionOnlyEntry(t *testing.T) {
	p := newEducationParser(newPatternLibrary())

	// 窗口内没有学位行的孤立机构行也产出一条记录
	entries := p.Parse([]string{"University of Texas at Austin"})
	require.Len(t, entries, 1)
	assert.Equal(t, "University of Texas at Austin", entries[0].Institution)
	assert.Empty(t, entries[0].DegreeName)
}

func TestDegreeInstitutionMutualExclusion(t *testing.T) {
	p := newEducationParser(newPatternLibrary())

	// 同时含学位token与University的行按学位行处理，不会被双重分类
	assert.True(t, p.isDegreeLine("Bachelor of Science, MIT University"))
	assert.False(t, p.isInstitutionLine("Bachelor of Science, MIT University"))
}

func TestDedupEducation(t *testing.T) {
	a := types.EducationEntry{
		DegreeName:   "Bachelor of Science",
		DegreeType:   types.DegreeBachelors,
		FieldOfStudy: "Computer Science",
		Institution:  "Stanford University",
		GPA:          "3.8",
	}
	// 同一学历的不完整重复（抬头里常见的简写）
	b := types.EducationEntry{
		DegreeName:   "BS",
		DegreeType:   types.DegreeBachelors,
		FieldOfStudy: "Computer Science",
	}
	c := types.EducationEntry{
		DegreeName:   "Master of Science",
		DegreeType:   types.DegreeMasters,
		FieldOfStudy: "Data Science",
		Institution:  "MIT",
	}

	out := DedupEducation([]types.EducationEntry{a, b, c})
	require.Len(t, out, 2)
	// 合并保留信息更全的字段
	assert.Equal(t, "Stanford University", out[0].Institution)
	assert.Equal(t, "3.8", out[0].GPA)

	// 幂等：再跑一遍结果不变
	again := DedupEducation(out)
	assert.Equal(t, out, again)
}

func TestDedupEducationExactDuplicate(t *testing.T) {
	e := types.EducationEntry{
		DegreeType:   types.DegreeMasters,
		FieldOfStudy: "Data Science",
		Institution:  "MIT",
	}
	out := DedupEducation([]types.EducationEntry{e, e, e})
	assert.Len(t, out, 1)
}
