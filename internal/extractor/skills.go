package extractor

import (
	"fmt"
	"sort"
	"strings"

	"resume-extractor-go/internal/types"
)

// skillDef 一项规范技能：标准名、类别、同义表面形式
type skillDef struct {
	canonical string
	category  string
	synonyms  []string
}

// skillMatcher 基于同义词表的技能匹配器
type skillMatcher struct {
	lib      *patternLibrary
	defs     []skillDef
	maxCount int
	nowYear  int

	// 经验程度修饰词 → 月数估计的加成
	seniorityHints map[string]int
}

// 技能分类taxonomy
const (
	catLanguages  = "Programming Languages"
	catCloud      = "Cloud & DevOps"
	catDatabases  = "Databases"
	catFrameworks = "Frameworks"
	catData       = "Data & Analytics"
	catTools      = "Tools & Platforms"
	catPractices  = "Methodologies"
)

func newSkillMatcher(lib *patternLibrary, maxCount, nowYear int) *skillMatcher {
	m := &skillMatcher{
		lib:      lib,
		maxCount: maxCount,
		nowYear:  nowYear,
		seniorityHints: map[string]int{
			"expert": 72, "senior": 60, "advanced": 48,
			"proficient": 36, "experienced": 36,
			"intermediate": 24, "familiar": 12, "basic": 6,
		},
	}

	// 同义词表在构造时定死，之后只读
	m.defs = []skillDef{
		{"Python", catLanguages, []string{"python", "python3"}},
		{"Java", catLanguages, []string{"java"}},
		// "js"/"ts" 单独作同义词误报太多（node.js的js段、文件扩展名），不收
		{"JavaScript", catLanguages, []string{"javascript", "ecmascript"}},
		{"TypeScript", catLanguages, []string{"typescript"}},
		{"Go", catLanguages, []string{"golang", "go lang"}},
		{"C++", catLanguages, []string{"c++", "cpp"}},
		{"C#", catLanguages, []string{"c#", "csharp", ".net c#"}},
		{"Ruby", catLanguages, []string{"ruby"}},
		{"PHP", catLanguages, []string{"php"}},
		{"Scala", catLanguages, []string{"scala"}},
		{"Kotlin", catLanguages, []string{"kotlin"}},
		{"Swift", catLanguages, []string{"swift"}},
		{"R", catData, []string{"r programming", "rlang"}},
		{"SQL", catDatabases, []string{"sql"}},
		{"MySQL", catDatabases, []string{"mysql", "my sql"}},
		{"PostgreSQL", catDatabases, []string{"postgresql", "postgres"}},
		{"MongoDB", catDatabases, []string{"mongodb", "mongo db", "mongo"}},
		{"Redis", catDatabases, []string{"redis"}},
		{"Oracle", catDatabases, []string{"oracle db", "oracle database", "pl/sql"}},
		{"Cassandra", catDatabases, []string{"cassandra"}},
		{"Elasticsearch", catDatabases, []string{"elasticsearch", "elastic search"}},
		{"AWS", catCloud, []string{"aws", "amazon web services"}},
		{"Azure", catCloud, []string{"azure", "microsoft azure"}},
		{"GCP", catCloud, []string{"gcp", "google cloud", "google cloud platform"}},
		{"Docker", catCloud, []string{"docker"}},
		{"Kubernetes", catCloud, []string{"kubernetes", "k8s"}},
		{"Terraform", catCloud, []string{"terraform"}},
		{"Jenkins", catCloud, []string{"jenkins"}},
		{"Git", catTools, []string{"git", "github", "gitlab"}},
		{"Linux", catTools, []string{"linux", "unix"}},
		{"CI/CD", catCloud, []string{"ci/cd", "cicd", "continuous integration"}},
		{"React", catFrameworks, []string{"react", "react.js", "reactjs"}},
		{"Angular", catFrameworks, []string{"angular", "angularjs", "angular.js"}},
		{"Vue.js", catFrameworks, []string{"vue", "vue.js", "vuejs"}},
		{"Node.js", catFrameworks, []string{"node.js", "nodejs", "node js", "node"}},
		{"Django", catFrameworks, []string{"django"}},
		{"Flask", catFrameworks, []string{"flask"}},
		{"Spring", catFrameworks, []string{"spring boot", "spring framework", "springboot", "spring"}},
		{"Express", catFrameworks, []string{"express.js", "expressjs", "express js"}},
		{"Kafka", catData, []string{"kafka", "apache kafka"}},
		{"Spark", catData, []string{"spark", "apache spark", "pyspark"}},
		{"Hadoop", catData, []string{"hadoop"}},
		{"Tableau", catData, []string{"tableau"}},
		{"Power BI", catData, []string{"power bi", "powerbi"}},
		{"Machine Learning", catData, []string{"machine learning", "ml models"}},
		{"Agile", catPractices, []string{"agile", "scrum", "kanban"}},
		{"REST APIs", catPractices, []string{"rest api", "rest apis", "restful"}},
		{"Microservices", catPractices, []string{"microservices", "micro services", "microservice"}},
		{"GraphQL", catPractices, []string{"graphql"}},
		{"HTML/CSS", catFrameworks, []string{"html", "css", "html5", "css3"}},
	}
	return m
}

// Match 在文本中查找全部技能。skillZone 非空时优先扫描，
// 同一规范名只产出一条记录。结果按出现位置排序并截断到maxCount
func (m *skillMatcher) Match(fullText string, skillZoneLines []string) []types.SkillEntry {
	scanText := fullText
	if len(skillZoneLines) > 0 {
		// 技能区优先，但全文仍参与（工作描述里也会提技能）
		scanText = strings.Join(skillZoneLines, "\n") + "\n" + fullText
	}
	lower := strings.ToLower(scanText)
	lastUsed := m.latestYear(fullText)

	type hit struct {
		entry types.SkillEntry
		pos   int
	}
	var hits []hit

	for _, def := range m.defs {
		pos := -1
		count := 0
		for _, syn := range def.synonyms {
			p, n := wordOccurrences(lower, strings.ToLower(syn))
			if n > 0 {
				count += n
				if pos < 0 || p < pos {
					pos = p
				}
			}
		}
		if pos < 0 {
			continue
		}
		hits = append(hits, hit{
			entry: types.SkillEntry{
				Name:             def.canonical,
				Category:         def.category,
				MonthsExperience: m.estimateMonths(lower, def, count),
				LastUsed:         lastUsed,
			},
			pos: pos,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]types.SkillEntry, 0, len(hits))
	for _, h := range hits {
		if len(out) >= m.maxCount {
			break
		}
		out = append(out, h.entry)
	}
	return out
}

// estimateMonths 月数估计：
//  1. 技能附近出现 "X years" → X*12
//  2. 附近出现程度修饰词（expert/senior等）→ 对应档位
//  3. 否则按出现频次给保守默认值
func (m *skillMatcher) estimateMonths(lowerText string, def skillDef, occurrences int) int {
	window := m.windowAround(lowerText, def)
	if window != "" {
		if months := parseYearsPhrase(window); months > 0 {
			return months
		}
		// 程度词按强到弱的顺序检查，命中即取
		for _, hint := range []string{"expert", "senior", "advanced", "proficient", "experienced", "intermediate", "familiar", "basic"} {
			if strings.Contains(window, hint) {
				return m.seniorityHints[hint]
			}
		}
	}
	// 频次默认：每次出现约6个月，封顶36
	months := occurrences * 6
	if months > 36 {
		months = 36
	}
	return months
}

// windowAround 取第一个同义词命中位置前后120字符的窗口
func (m *skillMatcher) windowAround(lowerText string, def skillDef) string {
	for _, syn := range def.synonyms {
		if idx, n := wordOccurrences(lowerText, strings.ToLower(syn)); n > 0 {
			start := idx - 120
			if start < 0 {
				start = 0
			}
			end := idx + len(syn) + 120
			if end > len(lowerText) {
				end = len(lowerText)
			}
			return lowerText[start:end]
		}
	}
	return ""
}

// latestYear 文档中最近的4位年份；没有时用当前年
func (m *skillMatcher) latestYear(text string) string {
	latest := 0
	for _, y := range m.lib.yearOnly.FindAllString(text, -1) {
		n := 0
		fmt.Sscanf(y, "%d", &n)
		if n > latest && n <= m.nowYear {
			latest = n
		}
	}
	if latest == 0 {
		latest = m.nowYear
	}
	return fmt.Sprintf("%d", latest)
}

// parseYearsPhrase 解析 "5 years" / "5+ years" 短语为月数
func parseYearsPhrase(window string) int {
	idx := strings.Index(window, "year")
	if idx < 0 {
		return 0
	}
	// 回看数字
	j := idx - 1
	for j >= 0 && (window[j] == ' ' || window[j] == '+') {
		j--
	}
	end := j + 1
	for j >= 0 && window[j] >= '0' && window[j] <= '9' {
		j--
	}
	if j+1 == end {
		return 0
	}
	years := 0
	fmt.Sscanf(window[j+1:end], "%d", &years)
	if years <= 0 || years > 40 {
		return 0
	}
	return years * 12
}

// wordOccurrences 词边界敏感的出现统计，返回首个位置与次数。
// "node" 不会命中 "nodejs" 内部——词边界由非字母数字字符界定
func wordOccurrences(text, word string) (first, count int) {
	first = -1
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			break
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end >= len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			if first < 0 {
				first = start
			}
			count++
		}
		idx = start + 1
		if idx >= len(text) {
			break
		}
	}
	return first, count
}
