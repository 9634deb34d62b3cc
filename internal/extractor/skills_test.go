package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSkillMatcher(maxCount int) *skillMatcher {
	return newSkillMatcher(newPatternLibrary(), maxCount, 2025)
}

func TestSkillSynonymCanonicalization(t *testing.T) {
	m := newTestSkillMatcher(30)

	// node / node.js / nodejs 三种写法必须归并为一条 Node.js
	entries := m.Match("Skills: node, Node.js, NodeJS, and some react work", nil)

	var nodeCount int
	var hasReact bool
	for _, e := range entries {
		if e.Name == "Node.js" {
			nodeCount++
		}
		if e.Name == "React" {
			hasReact = true
		}
	}
	assert.Equal(t, 1, nodeCount)
	assert.True(t, hasReact)
}

func TestSkillWordBoundary(t *testing.T) {
	m := newTestSkillMatcher(30)

	// "nodes" 里的 node 不是技能命中
	entries := m.Match("Managed compute nodes in the cluster", nil)
	for _, e := range entries {
		assert.NotEqual(t, "Node.js", e.Name)
	}

	// "golang" 规范化为 Go，但 "go" 单词本身不在同义表里（误报太多）
	entries = m.Match("Built services in golang", nil)
	require.Len(t, entries, 1)
	assert.Equal(t, "Go", entries[0].Name)
}

func TestSkillCategoriesAndCap(t *testing.T) {
	m := newTestSkillMatcher(3)

	entries := m.Match("Python Java Docker Kubernetes AWS Redis", nil)
	// 超出上限截断，按出现位置保留靠前的
	require.Len(t, entries, 3)
	assert.Equal(t, "Python", entries[0].Name)
	assert.Equal(t, catLanguages, entries[0].Category)
	assert.Equal(t, "Java", entries[1].Name)
	assert.Equal(t, "Docker", entries[2].Name)
	assert.Equal(t, catCloud, entries[2].Category)
}

func TestSkillMonthsFromYearsPhrase(t *testing.T) {
	m := newTestSkillMatcher(30)

	entries := m.Match("5 years of Python development experience", nil)
	require.NotEmpty(t, entries)
	assert.Equal(t, "Python", entries[0].Name)
	assert.Equal(t, 60, entries[0].MonthsExperience)
}

func TestSkillLastUsedYear(t *testing.T) {
	m := newTestSkillMatcher(30)

	entries := m.Match("Python projects from 2018 to 2023", nil)
	require.NotEmpty(t, entries)
	assert.Equal(t, "2023", entries[0].LastUsed)
}

func TestSkillZonePreferred(t *testing.T) {
	m := newTestSkillMatcher(30)

	// 技能区的内容和全文一起参与匹配
	entries := m.Match("Worked on various backend systems", []string{"Kafka, Terraform"})
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "Kafka")
	assert.Contains(t, names, "Terraform")
}

func TestWordOccurrences(t *testing.T) {
	first, count := wordOccurrences("go go gone ago", "go")
	assert.Equal(t, 0, first)
	assert.Equal(t, 2, count)

	first, count = wordOccurrences("nothing here", "java")
	assert.Equal(t, -1, first)
	assert.Equal(t, 0, count)
}
