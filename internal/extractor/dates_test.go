package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	lib := newPatternLibrary()

	// 各种常见写法都应归一化到 YYYY-MM-DD，日缺省为01
	cases := []struct {
		input  string
		expect string
		ok     bool
	}{
		{"January 2020", "2020-01-01", true},
		{"Jan 2020", "2020-01-01", true},
		{"Sept 2019", "2019-09-01", true},
		{"03/2021", "2021-03-01", true},
		{"2021-03", "2021-03-01", true},
		{"2019", "2019-01-01", true},
		{"Present", "Present", true},
		{"current", "Present", true},
		{"till date", "Present", true},
		{"不是日期", "不是日期", false},
	}

	for _, c := range cases {
		got, ok := lib.normalizeDate(c.input)
		assert.Equal(t, c.expect, got, "输入: %s", c.input)
		assert.Equal(t, c.ok, ok, "输入: %s", c.input)
	}
}

func TestNormalizeDateIdempotent(t *testing.T) {
	lib := newPatternLibrary()

	// 归一化结果再次归一化应保持不变
	once, ok := lib.normalizeDate("June 2019")
	assert.True(t, ok)
	twice, ok := lib.normalizeDate(once)
	assert.True(t, ok)
	assert.Equal(t, once, twice)
}

func TestFindDateRange(t *testing.T) {
	lib := newPatternLibrary()

	dr, ok := lib.findDateRange("June 2019 - Present")
	assert.True(t, ok)
	assert.Equal(t, "2019-06-01", dr.start)
	assert.Equal(t, "Present", dr.end)
	assert.True(t, dr.isCurrent)

	dr, ok = lib.findDateRange("2016 to 2019")
	assert.True(t, ok)
	assert.Equal(t, "2016-01-01", dr.start)
	assert.Equal(t, "2019-01-01", dr.end)
	assert.False(t, dr.isCurrent)

	_, ok = lib.findDateRange("负责团队日常管理")
	assert.False(t, ok)
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 24, monthsBetween("2019-06-01", "2021-06-01", 2026, 8))
	// Present 用当前年月计算
	assert.Equal(t, 86, monthsBetween("2019-06-01", "Present", 2026, 8))
	// 起始日期无效时返回0
	assert.Equal(t, 0, monthsBetween("", "2021-06-01", 2026, 8))
	// 倒序区间按0处理
	assert.Equal(t, 0, monthsBetween("2022-01-01", "2020-01-01", 2026, 8))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "", formatDuration(0))
	assert.Equal(t, "5 months", formatDuration(5))
	assert.Equal(t, "2 years", formatDuration(24))
	assert.Equal(t, "2 years 6 months", formatDuration(30))
}
