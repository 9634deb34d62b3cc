package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestNameResolver() *nameResolver {
	return newNameResolver(newPatternLibrary(), 8, 250)
}

func TestResolveNameFromHeader(t *testing.T) {
	r := newTestNameResolver()

	lines := []string{"Jane Doe", "Software Engineer", "jane.doe@example.com"}
	name := r.Resolve(lines, strings.Join(lines, "\n"), "")

	assert.Equal(t, "Jane Doe", name.Formatted)
	assert.Equal(t, "Jane", name.Given)
	assert.Equal(t, "Doe", name.Family)
	assert.Greater(t, name.Score, 0.0)
}

func TestResolveNameRejectsInstitution(t *testing.T) {
	r := newTestNameResolver()

	// 机构名即使形状完全符合姓名模式也必须被关键词规则否决
	lines := []string{"Stanford University", "Computer Science Department"}
	name := r.Resolve(lines, strings.Join(lines, "\n"), "")

	assert.Empty(t, name.Formatted)
	assert.Empty(t, name.Given)
}

func TestResolveNameJobTitleNotName(t *testing.T) {
	r := newTestNameResolver()

	// "Senior Project Manager" 含职位关键词，不能被当成姓名
	lines := []string{"Senior Project Manager", "10 years of experience"}
	name := r.Resolve(lines, strings.Join(lines, "\n"), "")
	assert.Empty(t, name.Formatted)
}

func TestResolveNameFromEmail(t *testing.T) {
	r := newTestNameResolver()

	// 头部没有可用的姓名行时从邮箱local-part推导
	lines := []string{"Contact: john.smith@corp.com"}
	name := r.Resolve(lines, strings.Join(lines, "\n"), "")

	assert.Equal(t, "John Smith", name.Formatted)
	assert.Equal(t, "John", name.Given)
	assert.Equal(t, "Smith", name.Family)
}

func TestResolveNameFromFilename(t *testing.T) {
	r := newTestNameResolver()

	name := r.Resolve(nil, "", "Jane_Doe_Resume.pdf")
	assert.Equal(t, "Jane Doe", name.Formatted)
}

func TestResolveNameAllCapsHeader(t *testing.T) {
	r := newTestNameResolver()

	// 全大写抬头转成Title Case
	lines := []string{"JANE DOE", "Austin, TX"}
	name := r.Resolve(lines, strings.Join(lines, "\n"), "")
	assert.Equal(t, "Jane Doe", name.Formatted)
}

func TestResolveNameSkipsSectionHeaders(t *testing.T) {
	r := newTestNameResolver()

	// 全大写的章节标题形状上像姓名，必须整行排除而不是当候选
	cases := [][]string{
		{"WORK HISTORY", "Engineer at Acme Corp", "2019 - 2020"},
		{"EMPLOYMENT HISTORY", "Acme Corp"},
		{"PERSONAL INFORMATION", "Austin, TX"},
	}
	for _, lines := range cases {
		name := r.Resolve(lines, strings.Join(lines, "\n"), "")
		assert.Empty(t, name.Formatted, "lines: %v", lines)
	}
}

func TestResolveNameEmptyInput(t *testing.T) {
	r := newTestNameResolver()

	name := r.Resolve(nil, "", "")
	assert.Empty(t, name.Formatted)
	assert.Zero(t, name.Score)
}

func TestSplitName(t *testing.T) {
	name := splitName("Jane Marie Doe")
	assert.Equal(t, "Jane", name.Given)
	assert.Equal(t, "Marie", name.Middle)
	assert.Equal(t, "Doe", name.Family)
}
