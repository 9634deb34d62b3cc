package extractor

import (
	"regexp"
	"strings"

	"resume-extractor-go/internal/types"
)

// extrasParser 次要区块的提取：证书、成就、语言、项目。
// 这些区块格式最松散，策略统一为：有对应分区就按行/分隔符切条，
// 否则退回全文关键词锚定
type extrasParser struct {
	lib *patternLibrary

	certKeywords  []string
	langNames     map[string]bool
	langLevels    []string
	achieveAnchor *regexp.Regexp

	similarityThreshold float64
}

func newExtrasParser(lib *patternLibrary, similarityThreshold float64) *extrasParser {
	return &extrasParser{
		lib: lib,
		certKeywords: []string{
			"certified", "certification", "certificate", "licensed",
			"aws certified", "pmp", "cissp", "ccna", "comptia", "scrum master",
		},
		langNames: toSet([]string{
			"english", "spanish", "french", "german", "mandarin", "chinese",
			"cantonese", "hindi", "arabic", "portuguese", "russian", "japanese",
			"korean", "italian", "dutch", "vietnamese", "tagalog", "bengali",
			"urdu", "punjabi", "tamil", "telugu", "polish", "turkish", "hebrew",
		}),
		langLevels: []string{
			"native", "fluent", "professional", "proficient",
			"conversational", "intermediate", "basic", "beginner",
		},
		achieveAnchor:       regexp.MustCompile(`(?i)\b(award|awarded|achieved|recognized|honou?r|winner|won|dean's list|scholarship)\b`),
		similarityThreshold: similarityThreshold,
	}
}

// ---- 证书 ----

func (e *extrasParser) Certifications(zones *zoneIndex, lines []string) []types.CertificationEntry {
	src := zones.linesOf(types.SectionCertifications)
	var out []types.CertificationEntry

	if src != nil {
		for _, line := range src {
			for _, item := range splitItems(line) {
				if entry, ok := e.parseCertLine(item); ok {
					out = append(out, entry)
				}
			}
		}
		return out
	}

	// 无证书分区：全文按关键词锚定，逐行判断
	for _, line := range lines {
		lower := strings.ToLower(line)
		matched := false
		for _, kw := range e.certKeywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if entry, ok := e.parseCertLine(stripBullet(line)); ok {
			out = append(out, entry)
		}
	}
	return out
}

func (e *extrasParser) parseCertLine(item string) (types.CertificationEntry, bool) {
	item = strings.TrimSpace(item)
	if len(item) < 5 || len(item) > 160 {
		return types.CertificationEntry{}, false
	}
	entry := types.CertificationEntry{Name: item}

	// 行内日期拆出来作为发证日期
	if m := e.lib.monthYear.FindString(item); m != "" {
		if d, ok := e.lib.normalizeDate(m); ok {
			entry.IssuedDate = d
			entry.Name = strings.TrimSpace(strings.TrimRight(strings.Replace(item, m, "", 1), " ,-–("))
			entry.Name = strings.TrimRight(entry.Name, ")")
		}
	} else if y := e.lib.yearOnly.FindString(item); y != "" {
		if d, ok := e.lib.normalizeDate(y); ok {
			entry.IssuedDate = d
			entry.Name = strings.TrimSpace(strings.TrimRight(strings.Replace(item, y, "", 1), " ,-–("))
			entry.Name = strings.TrimRight(entry.Name, ")")
		}
	}

	// "Name - Issuer" 或 "Name, Issuer" 形式拆发证方
	for _, sep := range []string{" - ", " – ", ", "} {
		if idx := strings.Index(entry.Name, sep); idx > 0 {
			issuer := strings.TrimSpace(entry.Name[idx+len(sep):])
			if issuer != "" && len(issuer) < 60 && !strings.Contains(issuer, sep) {
				entry.Issuer = issuer
				entry.Name = strings.TrimSpace(entry.Name[:idx])
			}
			break
		}
	}
	if len(entry.Name) < 3 {
		return types.CertificationEntry{}, false
	}
	return entry, true
}

// ---- 成就 ----

func (e *extrasParser) Achievements(zones *zoneIndex, lines []string) []types.AchievementEntry {
	src := zones.linesOf(types.SectionAchievements)
	var out []types.AchievementEntry

	collect := func(line string) {
		text := strings.TrimSpace(stripBullet(line))
		if len(text) < 10 || len(text) > 300 {
			return
		}
		entry := types.AchievementEntry{Description: text}
		if y := e.lib.yearOnly.FindString(text); y != "" {
			if d, ok := e.lib.normalizeDate(y); ok {
				entry.Date = d
			}
		}
		out = append(out, entry)
	}

	if src != nil {
		for _, line := range src {
			collect(line)
		}
	} else {
		for _, line := range lines {
			if e.achieveAnchor.MatchString(line) {
				collect(line)
			}
		}
	}
	return e.dedupAchievements(out)
}

// dedupAchievements 按token级Jaccard相似度去重，超过阈值视为同条。
// 保留先出现的一条，幂等
func (e *extrasParser) dedupAchievements(entries []types.AchievementEntry) []types.AchievementEntry {
	var out []types.AchievementEntry
	for _, cand := range entries {
		dup := false
		for _, kept := range out {
			if jaccardSimilarity(kept.Description, cand.Description) > e.similarityThreshold {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, cand)
		}
	}
	return out
}

// jaccardSimilarity 大小写折叠后按空白分词的Jaccard系数
func jaccardSimilarity(a, b string) float64 {
	ta := toSet(strings.Fields(strings.ToLower(a)))
	tb := toSet(strings.Fields(strings.ToLower(b)))
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// ---- 语言 ----

func (e *extrasParser) Languages(zones *zoneIndex, lines []string) []types.LanguageEntry {
	src := zones.linesOf(types.SectionLanguages)
	seen := map[string]bool{}
	var out []types.LanguageEntry

	// 语言行习惯用逗号并列（"Spanish (Fluent), French (Basic)"），
	// 这里比通用切分多拆一层逗号
	items := func(line string) []string {
		var out []string
		for _, item := range splitItems(line) {
			out = append(out, strings.Split(item, ",")...)
		}
		return out
	}

	scan := func(line string) {
		for _, item := range items(line) {
			item = strings.TrimSpace(stripBullet(item))
			if item == "" {
				continue
			}
			name, level := e.splitLanguageLevel(item)
			key := strings.ToLower(name)
			if !e.langNames[key] || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, types.LanguageEntry{
				Language:    titleCase(name),
				Proficiency: level,
			})
		}
	}

	if src != nil {
		for _, line := range src {
			scan(line)
		}
		return out
	}
	// 语言分区缺失时退回全文，但只认 "语言名 (级别)" 这种带级别的形式，
	// 避免把 "English teacher" 之类的职位行误收
	for _, line := range lines {
		for _, item := range items(line) {
			item = strings.TrimSpace(item)
			name, level := e.splitLanguageLevel(item)
			if level == "" {
				continue
			}
			key := strings.ToLower(name)
			if e.langNames[key] && !seen[key] {
				seen[key] = true
				out = append(out, types.LanguageEntry{Language: titleCase(name), Proficiency: level})
			}
		}
	}
	return out
}

// splitLanguageLevel 拆 "Spanish (Fluent)" / "Spanish - Fluent" / "Spanish: Native"
func (e *extrasParser) splitLanguageLevel(item string) (name, level string) {
	name = item
	lower := strings.ToLower(item)
	for _, lv := range e.langLevels {
		idx := strings.Index(lower, lv)
		if idx <= 0 {
			continue
		}
		level = titleCase(lv)
		name = strings.TrimRight(strings.TrimSpace(item[:idx]), "(-:–, ")
		break
	}
	return name, level
}

// ---- 项目 ----

func (e *extrasParser) Projects(zones *zoneIndex, matcher *skillMatcher) []types.ProjectEntry {
	src := zones.linesOf(types.SectionProjects)
	if src == nil {
		// 项目没有可靠的全文锚定词，缺分区就不猜
		return nil
	}

	var out []types.ProjectEntry
	var cur *types.ProjectEntry
	flush := func() {
		if cur != nil && cur.Name != "" {
			out = append(out, *cur)
		}
		cur = nil
	}

	for _, line := range src {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		// 非缩进且较短的行视为新项目名，bullet行归入当前项目描述
		if !e.lib.bullet.MatchString(trimmed) && len(trimmed) <= 80 && cur == nil {
			cur = &types.ProjectEntry{Name: strings.TrimRight(trimmed, ":")}
			continue
		}
		if !e.lib.bullet.MatchString(trimmed) && len(trimmed) <= 80 {
			flush()
			cur = &types.ProjectEntry{Name: strings.TrimRight(trimmed, ":")}
			continue
		}
		if cur == nil {
			cur = &types.ProjectEntry{Name: truncateWords(trimmed, 8)}
		}
		desc := strings.TrimSpace(stripBullet(trimmed))
		if cur.Description == "" {
			cur.Description = desc
		} else {
			cur.Description += " " + desc
		}
	}
	flush()

	// 项目描述里的技术词通过技能同义词表反查
	for i := range out {
		text := out[i].Name + " " + out[i].Description
		for _, s := range matcher.Match(text, nil) {
			out[i].Technologies = append(out[i].Technologies, s.Name)
		}
	}
	return out
}

// splitItems 按常见分隔符把一行拆成条目
func splitItems(line string) []string {
	line = stripBullet(line)
	seps := []string{"|", "•", ";", "·"}
	items := []string{line}
	for _, sep := range seps {
		var next []string
		for _, it := range items {
			next = append(next, strings.Split(it, sep)...)
		}
		items = next
	}
	var out []string
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			out = append(out, it)
		}
	}
	return out
}

func truncateWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) <= n {
		return s
	}
	return strings.Join(fields[:n], " ")
}
