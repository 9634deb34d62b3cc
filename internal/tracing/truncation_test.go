package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPII(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"空值", "", ""},
		{"单字符", "x", "*"},
		{"双字符", "ab", "a*"},
		{"三字符", "abc", "a*c"},
		{"四字符", "abcd", "a**d"},
		{"邮箱", "jane@example.com", "ja************om"},
		{"电话", "(212) 555-0173", "(2**********73"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskPII(tt.input))
		})
	}
}

func TestTruncateString(t *testing.T) {
	// 不超长时原样返回
	assert.Equal(t, "hello", TruncateString("hello", 10))

	// 超长时保留首尾并用...连接, 结果不超过maxLength
	long := strings.Repeat("a", 50) + strings.Repeat("b", 50)
	got := TruncateString(long, 21)
	assert.LessOrEqual(t, len(got), 21)
	assert.Contains(t, got, "...")
	assert.True(t, strings.HasPrefix(got, "aaa"))
	assert.True(t, strings.HasSuffix(got, "bbb"))

	// maxLength太小时直接硬截断
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestSafeAttributeValue(t *testing.T) {
	// 属性名含敏感关键字时走掩码, 大小写不敏感
	masked := SafeAttributeValue("user.Email", "jane@example.com", DefaultMaxLength)
	assert.NotContains(t, masked, "example")
	assert.True(t, strings.HasPrefix(masked, "ja"))

	// 普通属性只做截断
	plain := SafeAttributeValue("queue", "resume.raw.queue", DefaultMaxLength)
	assert.Equal(t, "resume.raw.queue", plain)
}

func TestSafeHelpers(t *testing.T) {
	longSQL := strings.Repeat("SELECT * FROM resume_submissions; ", 40)
	assert.LessOrEqual(t, len([]rune(SafeSQL(longSQL))), MaxSQLLength)

	longKey := "app:resume:result:" + strings.Repeat("f", 200)
	assert.LessOrEqual(t, len([]rune(SafeRedisKey(longKey))), MaxRedisLength)

	longContent := strings.Repeat("工作经历 ", 100)
	assert.LessOrEqual(t, len([]rune(SafeResumeContent(longContent))), MaxResumeLength)
}
