package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	c := newContactResolver(newPatternLibrary(), 500)

	cases := []struct {
		input      string
		normalized string
		cc         string
		ok         bool
	}{
		{"(555) 123-4567", "(555) 123-4567", "", true},
		{"555.123.4567", "(555) 123-4567", "", true},
		{"555 123 4567", "(555) 123-4567", "", true},
		{"5551234567", "(555) 123-4567", "", true},
		// 11位且以1开头：剥国家码
		{"1-555-123-4567", "(555) 123-4567", "1", true},
		{"+1 (555) 123-4567", "(555) 123-4567", "1", true},
		// 区号以0或1开头的不是合法美国号码
		{"(055) 123-4567", "", "", false},
		{"(155) 123-4567", "", "", false},
		// 位数不对
		{"123-4567", "", "", false},
		{"12345678901234", "", "", false},
		{"", "", "", false},
	}

	for _, tc := range cases {
		normalized, cc, ok := c.NormalizePhone(tc.input)
		assert.Equal(t, tc.ok, ok, "输入: %q", tc.input)
		assert.Equal(t, tc.normalized, normalized, "输入: %q", tc.input)
		assert.Equal(t, tc.cc, cc, "输入: %q", tc.input)
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	c := newContactResolver(newPatternLibrary(), 500)

	once, _, ok := c.NormalizePhone("555-123-4567")
	require.True(t, ok)
	twice, _, ok := c.NormalizePhone(once)
	require.True(t, ok)
	assert.Equal(t, once, twice)
}

func TestResolveContact(t *testing.T) {
	c := newContactResolver(newPatternLibrary(), 500)

	text := "Jane Doe\nAustin, TX\nPhone: 555-123-4567\njane.doe@example.com"
	info := c.Resolve(text)

	require.Len(t, info.Emails, 1)
	assert.Equal(t, "jane.doe@example.com", info.Emails[0])

	require.Len(t, info.Phones, 1)
	assert.Equal(t, "(555) 123-4567", info.Phones[0].Normalized)

	assert.Equal(t, "Austin", info.Location.Municipality)
	assert.Equal(t, "TX", info.Location.Region)
	assert.Equal(t, "US", info.Location.Country)
}

func TestResolveLocationRejectsTechTerms(t *testing.T) {
	c := newContactResolver(newPatternLibrary(), 500)

	// "Java, SC" 形状上像 City, ST，但城市token是技术词，必须拒绝
	info := c.Resolve("Expert in Java, SC programming and more")
	assert.Empty(t, info.Location.Municipality)
	assert.Empty(t, info.Location.Region)
}

func TestResolveLocationScanWindow(t *testing.T) {
	c := newContactResolver(newPatternLibrary(), 40)

	// 位置出现在扫描窗口之外时不提取
	text := "这一行是填充内容，用来把地点推到窗口外面去。\nAustin, TX"
	info := c.Resolve(text)
	assert.Empty(t, info.Location.Municipality)
}
