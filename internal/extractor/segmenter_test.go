package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-extractor-go/internal/types"
)

func TestMatchHeader(t *testing.T) {
	lib := newPatternLibrary()

	cases := []struct {
		line   string
		kind   sectionKind
		expect bool
	}{
		{"EXPERIENCE", kindExperience, true},
		{"Work Experience", kindExperience, true},
		{"Professional Experience:", kindExperience, true},
		{"Education", kindEducation, true},
		{"Technical Skills", kindSkills, true},
		{"Skills:", kindSkills, true},
		{"Certifications", kindCertifications, true},
		{"Awards & Honors", kindAchievements, true},
		{"Languages", kindLanguages, true},
		{"Summary", kindSummary, true},
		// 超过3个词的行不是章节标题
		{"I have experience in Java", "", false},
		{"5 years of professional experience", "", false},
		// 普通正文
		{"Developed web applications", "", false},
		{"", "", false},
	}

	for _, c := range cases {
		kind, ok := lib.matchHeader(c.line)
		assert.Equal(t, c.expect, ok, "行: %q", c.line)
		if c.expect {
			assert.Equal(t, c.kind, kind, "行: %q", c.line)
		}
	}
}

func TestSegmentZones(t *testing.T) {
	s := newSectionSegmenter(newPatternLibrary())

	lines := []string{
		"Jane Doe",
		"EXPERIENCE",
		"Engineer at Acme Corp",
		"Built things",
		"EDUCATION",
		"MIT",
	}
	zones := s.Segment(lines)

	require.Len(t, zones, 2)
	assert.Equal(t, types.SectionExperience, zones[0].Type)
	assert.Equal(t, []string{"Engineer at Acme Corp", "Built things"}, zones[0].Lines)
	assert.Equal(t, 2, zones[0].FirstLine)
	assert.Equal(t, 3, zones[0].LastLine)

	assert.Equal(t, types.SectionEducation, zones[1].Type)
	assert.Equal(t, []string{"MIT"}, zones[1].Lines)
	assert.Equal(t, 5, zones[1].LastLine)
}

func TestSegmentNoHeaders(t *testing.T) {
	s := newSectionSegmenter(newPatternLibrary())

	// 没有任何标题命中时返回空，由各抽取器自行走全文回退
	zones := s.Segment([]string{"随便一行", "another line"})
	assert.Empty(t, zones)
}

func TestZoneIndexFallback(t *testing.T) {
	s := newSectionSegmenter(newPatternLibrary())
	zones := s.Segment([]string{"SKILLS", "Python, Go"})
	idx := newZoneIndex(zones)

	assert.Equal(t, []string{"Python, Go"}, idx.linesOf(types.SectionSkills))
	assert.True(t, idx.has(types.SectionSkills))
	// 缺失的类型返回nil，区别于空区域
	assert.Nil(t, idx.linesOf(types.SectionExperience))
	assert.False(t, idx.has(types.SectionExperience))
}

func TestSplitLines(t *testing.T) {
	lines := splitLines("a\r\n\r\n b \rc\n")
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}
