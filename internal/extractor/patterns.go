package extractor

import (
	"regexp"
	"strings"
)

// patternLibrary 全部字段抽取器共享的正则与查找表
// 在 NewEngine 中构建一次，之后只读，多个goroutine可安全共享
type patternLibrary struct {
	// 基础实体
	email      *regexp.Regexp
	urlPattern *regexp.Regexp

	// 电话模式，按优先级排列：带标签 > 美式格式 > 裸10位数字
	phoneLabeled *regexp.Regexp
	phoneUS      *regexp.Regexp
	phoneBare    *regexp.Regexp

	// 日期相关
	monthYear  *regexp.Regexp // "January 2020" / "Jan 2020" / "Jan. 2020"
	numericDMY *regexp.Regexp // "01/2020" / "2020-01"
	yearOnly   *regexp.Regexp
	dateRange  *regexp.Regexp // "X - Y"，Y 可为 Present/Current
	presentRe  *regexp.Regexp

	// 数额类
	money   *regexp.Regexp
	percent *regexp.Regexp

	// 教育相关
	gpa        *regexp.Regexp
	degreeLine *regexp.Regexp
	yearRange  *regexp.Regexp

	// 结构性标记
	bullet    *regexp.Regexp
	cityState *regexp.Regexp // "City, ST" 或 "City, ST 12345"

	// 姓名形状
	titleCaseName *regexp.Regexp // "First [M.] [Middle] Last"
	allCapsName   *regexp.Regexp

	// 查找表
	monthMap       map[string]string
	usStates       map[string]bool
	institutionKW  []string
	companySuffix  []string
	jobTitleWords  []string
	actionVerbs    map[string]bool
	techTerms      map[string]bool
	sectionHeaders []headerPattern
}

// headerPattern 章节标题的匹配规则，keyed by 规范章节类型
type headerPattern struct {
	re      *regexp.Regexp
	section sectionKind
}

type sectionKind string

const (
	kindContact        sectionKind = "contact"
	kindSummary        sectionKind = "summary"
	kindExperience     sectionKind = "experience"
	kindEducation      sectionKind = "education"
	kindSkills         sectionKind = "skills"
	kindCertifications sectionKind = "certifications"
	kindProjects       sectionKind = "projects"
	kindAchievements   sectionKind = "achievements"
	kindLanguages      sectionKind = "languages"
)

// newPatternLibrary 编译全部模式，失败直接panic（模式为编译期常量）
func newPatternLibrary() *patternLibrary {
	lib := &patternLibrary{
		email:      regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
		urlPattern: regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s]+`),

		phoneLabeled: regexp.MustCompile(`(?i)(?:phone|mobile|cell|tel|contact)[\s:.\-]*(\+?1?[\s.\-]?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4})`),
		phoneUS:      regexp.MustCompile(`(\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`),
		phoneBare:    regexp.MustCompile(`\b\d{10}\b`),

		monthYear:  regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t|tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?,?\s+(\d{4})\b`),
		numericDMY: regexp.MustCompile(`\b(\d{1,2})[/\-](\d{4})\b|\b(\d{4})[/\-](\d{1,2})\b`),
		yearOnly:   regexp.MustCompile(`\b(19[5-9]\d|20[0-4]\d)\b`),
		dateRange:  regexp.MustCompile(`(?i)((?:[a-z]{3,9}\.?,?\s+)?\d{4}|\d{1,2}[/\-]\d{4})\s*(?:-|–|—|to|till|until)\s*((?:[a-z]{3,9}\.?,?\s+)?\d{4}|\d{1,2}[/\-]\d{4}|present|current|now)`),
		presentRe:  regexp.MustCompile(`(?i)\b(present|current|now|till\s+date|ongoing)\b`),

		money:   regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d+)?\s?(?:[KMB]|million|billion)?`),
		percent: regexp.MustCompile(`\d+(?:\.\d+)?\s?%`),

		gpa:        regexp.MustCompile(`(?i)\bGPA[:\s]*([0-4]\.\d{1,2})(?:\s*/\s*4(?:\.0+)?)?`),
		degreeLine: regexp.MustCompile(`(?i)^(bachelor|master|doctor|ph\.?d|m\.?b\.?a|b\.?s\.?c?|m\.?s\.?c?|b\.?a\.?|m\.?a\.?|b\.?e\.?|m\.?e\.?|b\.?tech|m\.?tech|associate|diploma)\b`),
		yearRange:  regexp.MustCompile(`\b(19[5-9]\d|20[0-4]\d)\s*(?:-|–|to)\s*((?:19[5-9]\d|20[0-4]\d)|present|current)`),

		bullet:    regexp.MustCompile(`^\s*[•▪◦‣·*\-–—]\s+`),
		// 城市部分不允许跨行，否则上一行的姓名会被并进来
		cityState: regexp.MustCompile(`\b([A-Z][a-zA-Z. ]{1,25}?),[ \t]*([A-Z]{2})(?:\s+(\d{5}(?:-\d{4})?))?\b`),

		titleCaseName: regexp.MustCompile(`^([A-Z][a-z]+)\s+(?:([A-Z])\.?\s+)?([A-Z][a-z]+(?:\s[A-Z][a-z]+)?)$`),
		allCapsName:   regexp.MustCompile(`^([A-Z]{2,15})(\s+[A-Z]{1,15}){1,3}$`),
	}

	lib.monthMap = map[string]string{
		"jan": "01", "feb": "02", "mar": "03", "apr": "04",
		"may": "05", "jun": "06", "jul": "07", "aug": "08",
		"sep": "09", "oct": "10", "nov": "11", "dec": "12",
	}

	// 有效的美国州代码集合，用于 City, ST 位置识别
	lib.usStates = toSet([]string{
		"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
		"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
		"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
		"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
		"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
		"DC", "PR",
	})

	// 机构类关键词：姓名候选中出现任何一个都会被重罚
	lib.institutionKW = []string{
		"university", "college", "institute", "institution", "school",
		"academy", "department", "corporation", "company", "technologies", "solutions",
		"services", "systems", "consulting", "engineer", "engineering",
		"manager", "developer", "analyst", "resume", "curriculum",
		"vitae", "profile", "objective", "summary", "experience",
		"education", "skills", "inc", "llc", "ltd", "corp",
		"work", "history", "employment", "information",
	}

	lib.companySuffix = []string{
		"Inc", "Inc.", "LLC", "L.L.C.", "Ltd", "Ltd.", "Corp", "Corp.",
		"Corporation", "Company", "Co.", "Group", "Technologies",
		"Solutions", "Systems", "Consulting", "Services", "Labs",
		"Software", "Partners", "Associates",
	}

	lib.jobTitleWords = []string{
		"engineer", "developer", "manager", "director", "analyst",
		"consultant", "architect", "administrator", "specialist",
		"designer", "scientist", "lead", "intern", "officer",
		"coordinator", "technician", "programmer", "president",
		"vp", "head",
	}

	// 过去式动作动词：描述行/职责行的强信号
	lib.actionVerbs = toSet([]string{
		"developed", "designed", "implemented", "managed", "led",
		"created", "built", "maintained", "improved", "reduced",
		"increased", "delivered", "collaborated", "coordinated",
		"architected", "deployed", "automated", "optimized",
		"migrated", "integrated", "established", "launched",
		"mentored", "analyzed", "performed", "conducted",
		"responsible", "spearheaded", "streamlined", "supported",
	})

	// 技术词汇：用于过滤 "Python, Re..." 这类伪 City, ST 匹配
	lib.techTerms = toSet([]string{
		"python", "java", "javascript", "react", "angular", "node",
		"docker", "kubernetes", "aws", "azure", "linux", "redis",
		"mysql", "mongodb", "kafka", "spark", "hadoop", "git",
		"jenkins", "terraform", "html", "css", "sql", "golang",
	})

	// 章节标题表。匹配为行级全匹配（忽略大小写与冒号装饰）
	lib.sectionHeaders = []headerPattern{
		{regexp.MustCompile(`(?i)^(work\s+)?(experience|employment(\s+history)?|work\s+history|professional\s+experience|career\s+history)$`), kindExperience},
		{regexp.MustCompile(`(?i)^(education(al)?(\s+background)?|academic(\s+(background|qualifications))?|qualifications)$`), kindEducation},
		{regexp.MustCompile(`(?i)^((technical|core|key)\s+)?(skills?|competencies|expertise|technologies|technical\s+proficiencies)$`), kindSkills},
		{regexp.MustCompile(`(?i)^(certifications?|licenses?(\s+(and|&)\s+certifications?)?|professional\s+certifications?)$`), kindCertifications},
		{regexp.MustCompile(`(?i)^((personal|academic|key)\s+)?projects?(\s+experience)?$`), kindProjects},
		{regexp.MustCompile(`(?i)^(achievements?|awards?|honors?|accomplishments?|recognitions?|awards?\s+(and|&)\s+honors?)$`), kindAchievements},
		{regexp.MustCompile(`(?i)^(languages?(\s+(known|spoken))?)$`), kindLanguages},
		{regexp.MustCompile(`(?i)^((professional|career|executive)\s+)?(summary|profile|objective|about(\s+me)?)$`), kindSummary},
		{regexp.MustCompile(`(?i)^(contact(\s+(info|information|details))?|personal\s+(details|information))$`), kindContact},
	}

	return lib
}

// matchHeader 判断一行是否为章节标题。超过3个词的行不视为标题，
// 避免把 "5 years of experience in..." 这类句子误判成分界
func (p *patternLibrary) matchHeader(line string) (sectionKind, bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.Trim(trimmed, ":：-–—_|")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return "", false
	}
	if len(strings.Fields(trimmed)) > 3 {
		return "", false
	}
	for _, hp := range p.sectionHeaders {
		if hp.re.MatchString(trimmed) {
			return hp.section, true
		}
	}
	return "", false
}

// containsInstitutionKW 检查文本中是否含机构类关键词（词级匹配）
func (p *patternLibrary) containsInstitutionKW(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range p.institutionKW {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}

// hasCompanySuffix 检查一行是否带有公司后缀（Inc/LLC/Corp等）
func (p *patternLibrary) hasCompanySuffix(line string) bool {
	for _, s := range p.companySuffix {
		if containsWord(line, s) {
			return true
		}
	}
	return false
}

// hasJobTitleWord 检查一行是否含职位关键词
func (p *patternLibrary) hasJobTitleWord(line string) bool {
	lower := strings.ToLower(line)
	for _, w := range p.jobTitleWords {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

// startsWithActionVerb 检查一行是否以动作动词开头（职责描述的信号）
func (p *patternLibrary) startsWithActionVerb(line string) bool {
	fields := strings.Fields(strings.ToLower(strings.TrimLeft(line, "•▪◦‣·*-–— \t")))
	if len(fields) == 0 {
		return false
	}
	return p.actionVerbs[strings.Trim(fields[0], ".,;:")]
}

// isTechTerm 判断一个token是否是已知技术词汇
func (p *patternLibrary) isTechTerm(token string) bool {
	return p.techTerms[strings.ToLower(strings.TrimSpace(token))]
}

// containsWord 词边界感知的包含判断，避免 "co" 命中 "code" 这类误报
func containsWord(text, word string) bool {
	idx := 0
	lw := strings.ToLower(word)
	lt := strings.ToLower(text)
	for {
		i := strings.Index(lt[idx:], lw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(lw)
		beforeOK := start == 0 || !isWordChar(lt[start-1])
		afterOK := end >= len(lt) || !isWordChar(lt[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(lt) {
			return false
		}
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
