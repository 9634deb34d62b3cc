package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-extractor-go/internal/types"
)

func newTestExtras() (*extrasParser, *sectionSegmenter) {
	lib := newPatternLibrary()
	return newExtrasParser(lib, 0.8), newSectionSegmenter(lib)
}

func zonesFor(s *sectionSegmenter, lines []string) *zoneIndex {
	return newZoneIndex(s.Segment(lines))
}

func TestCertificationsFromSection(t *testing.T) {
	e, s := newTestExtras()

	lines := []string{
		"CERTIFICATIONS",
		"AWS Certified Solutions Architect - Amazon, Jan 2022",
		"PMP",
	}
	out := e.Certifications(zonesFor(s, lines), lines)
	require.Len(t, out, 1)
	assert.Equal(t, "AWS Certified Solutions Architect", out[0].Name)
	assert.Equal(t, "Amazon", out[0].Issuer)
	assert.Equal(t, "2022-01-01", out[0].IssuedDate)
}

func TestCertificationsFullTextFallback(t *testing.T) {
	e, s := newTestExtras()

	// 没有证书分区时按关键词在全文里找
	lines := []string{
		"Jane Doe",
		"AWS Certified Developer Associate",
		"Developed many systems",
	}
	out := e.Certifications(zonesFor(s, lines), lines)
	require.Len(t, out, 1)
	assert.Equal(t, "AWS Certified Developer Associate", out[0].Name)
}

func TestAchievementsJaccardDedup(t *testing.T) {
	e, _ := newTestExtras()

	entries := e.dedupAchievements([]types.AchievementEntry{
		{Description: "Awarded Employee of the Year for outstanding delivery"},
		// 只差一个词的近重复，Jaccard > 0.8，应被去掉
		{Description: "Awarded Employee of the Year for outstanding delivery work"},
		{Description: "Won first place in the company hackathon"},
	})
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Description, "Employee of the Year")
	assert.Contains(t, entries[1].Description, "hackathon")
}

func TestJaccardSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, jaccardSimilarity("same words here", "same words here"), 1e-9)
	assert.InDelta(t, 1.0, jaccardSimilarity("Same Words", "same words"), 1e-9)
	assert.Equal(t, 0.0, jaccardSimilarity("alpha beta", "gamma delta"))
	// 幂等去重依赖相似度对称
	a, b := "led the platform migration", "platform migration led by me"
	assert.Equal(t, jaccardSimilarity(a, b), jaccardSimilarity(b, a))
}

func TestLanguagesFromSection(t *testing.T) {
	e, s := newTestExtras()

	lines := []string{
		"LANGUAGES",
		"Spanish (Fluent), French (Conversational)",
		"English - Native",
	}
	out := e.Languages(zonesFor(s, lines), lines)
	require.Len(t, out, 3)

	byName := map[string]string{}
	for _, l := range out {
		byName[l.Language] = l.Proficiency
	}
	assert.Equal(t, "Fluent", byName["Spanish"])
	assert.Equal(t, "Conversational", byName["French"])
	assert.Equal(t, "Native", byName["English"])
}

func TestLanguagesFallbackRequiresLevel(t *testing.T) {
	e, s := newTestExtras()

	// 无语言分区时，裸语言名（如 "English teacher"）不收，
	// 只认带熟练度的写法
	lines := []string{"English teacher for 5 years", "Spanish (Fluent)"}
	out := e.Languages(zonesFor(s, lines), lines)
	require.Len(t, out, 1)
	assert.Equal(t, "Spanish", out[0].Language)
}

func TestProjectsFromSection(t *testing.T) {
	e, s := newTestExtras()
	m := newTestSkillMatcher(30)

	lines := []string{
		"PROJECTS",
		"Inventory Tracker",
		"- Built a warehouse inventory system with Python and Redis",
		"Chat Server",
		"- Realtime messaging over websockets",
	}
	out := e.Projects(zonesFor(s, lines), m)
	require.Len(t, out, 2)

	assert.Equal(t, "Inventory Tracker", out[0].Name)
	assert.Contains(t, out[0].Description, "warehouse inventory system")
	assert.Contains(t, out[0].Technologies, "Python")
	assert.Contains(t, out[0].Technologies, "Redis")

	assert.Equal(t, "Chat Server", out[1].Name)
}

func TestProjectsNoSectionNoGuess(t *testing.T) {
	e, s := newTestExtras()
	m := newTestSkillMatcher(30)

	out := e.Projects(zonesFor(s, []string{"随便什么内容"}), m)
	assert.Empty(t, out)
}
