package extractor

import (
	"regexp"
	"strings"

	"resume-extractor-go/internal/types"
)

// parserState 经历解析状态机的状态
type parserState int

const (
	stateSeekingHeader parserState = iota
	stateCollectingDates
	stateCollectingDescription
)

// experienceParser 工作经历区块的状态机解析器
type experienceParser struct {
	lib *patternLibrary

	// 头部行模式："Title at Company" / "Company | Title | Dates" / "Company – Title"
	titleAtCompany *regexp.Regexp
	pipeSeparated  *regexp.Regexp
	dashSeparated  *regexp.Regexp

	nowYear  int
	nowMonth int
}

func newExperienceParser(lib *patternLibrary, nowYear, nowMonth int) *experienceParser {
	return &experienceParser{
		lib:            lib,
		titleAtCompany: regexp.MustCompile(`(?i)^(.{2,60}?)\s+(?:at|@)\s+(.{2,60})$`),
		pipeSeparated:  regexp.MustCompile(`^([^|]{2,60})\|([^|]{2,60})(?:\|(.{2,60}))?$`),
		dashSeparated:  regexp.MustCompile(`^(.{2,60}?)\s+[-–—]\s+(.{2,60})$`),
		nowYear:        nowYear,
		nowMonth:       nowMonth,
	}
}

// Parse 在Experience区域（缺失时退化为全文）上运行状态机。
// 整个文档都找不到可识别的头部行时返回空列表，不做猜测
func (p *experienceParser) Parse(lines []string) []types.ExperienceEntry {
	var entries []types.ExperienceEntry
	var current *types.ExperienceEntry
	var descLines []string
	state := stateSeekingHeader
	lookahead := 0

	finalize := func() {
		if current == nil {
			return
		}
		current.Description = strings.Join(descLines, "\n")
		// 公司和职位都为空的条目无效；只有其一者仍然保留
		if current.JobTitle != "" || current.CompanyName != "" {
			p.applyCurrentInvariant(current)
			entries = append(entries, *current)
		}
		current = nil
		descLines = nil
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if entry, ok := p.matchHeaderLine(line); ok {
			finalize()
			current = &entry
			state = stateCollectingDates
			lookahead = 0

			// 头部后最多向前看3行补齐日期与地点
			continue
		}

		switch state {
		case stateSeekingHeader:
			// 头部之前的内容全部忽略

		case stateCollectingDates:
			lookahead++
			if dr, ok := p.lib.findDateRange(line); ok && current.StartDate == "" {
				current.StartDate = dr.start
				current.EndDate = dr.end
				current.IsCurrent = dr.isCurrent
				continue
			}
			if loc, ok := p.matchLocationLine(line); ok && current.Location == "" {
				current.Location = loc
				continue
			}
			if lookahead >= 3 || p.isDutyLine(line) {
				state = stateCollectingDescription
				descLines = append(descLines, stripBullet(line))
				continue
			}
			// 既不是日期也不是地点的短行，可能是职位/公司的补充行
			if current.JobTitle == "" && p.lib.hasJobTitleWord(line) && len(line) < 80 {
				current.JobTitle = line
				continue
			}
			if current.CompanyName == "" && p.lib.hasCompanySuffix(line) && len(line) < 80 {
				current.CompanyName = strings.TrimRight(line, ",.")
				continue
			}
			descLines = append(descLines, stripBullet(line))
			state = stateCollectingDescription

		case stateCollectingDescription:
			// 描述行持续累积到下一个头部或区域末尾
			if dr, ok := p.lib.findDateRange(line); ok && current != nil && current.StartDate == "" && len(descLines) == 0 {
				current.StartDate = dr.start
				current.EndDate = dr.end
				current.IsCurrent = dr.isCurrent
				continue
			}
			descLines = append(descLines, stripBullet(line))
		}
	}
	finalize()

	for i := range entries {
		months := monthsBetween(entries[i].StartDate, entries[i].EndDate, p.nowYear, p.nowMonth)
		entries[i].ExperienceDuration = formatDuration(months)
	}
	return entries
}

// matchHeaderLine 尝试把一行识别为一段经历的头部。
// 职责行启发式（动作动词开头、bullet行、超长行）具有否决权
func (p *experienceParser) matchHeaderLine(line string) (types.ExperienceEntry, bool) {
	if p.isDutyLine(line) {
		return types.ExperienceEntry{}, false
	}

	// "Title at Company"
	if m := p.titleAtCompany.FindStringSubmatch(line); m != nil {
		title := strings.TrimSpace(m[1])
		company := strings.TrimSpace(m[2])
		if p.lib.hasJobTitleWord(title) || p.lib.hasCompanySuffix(company) {
			entry := types.ExperienceEntry{JobTitle: title}
			entry.CompanyName, entry.Location = p.splitCompanyLocation(company)
			p.liftInlineDates(&entry, line)
			return entry, true
		}
	}

	// "Company | Title | Dates"
	if m := p.pipeSeparated.FindStringSubmatch(line); m != nil {
		first := strings.TrimSpace(m[1])
		second := strings.TrimSpace(m[2])
		entry := types.ExperienceEntry{}
		// 职位关键词决定哪边是Title
		if p.lib.hasJobTitleWord(first) && !p.lib.hasJobTitleWord(second) {
			entry.JobTitle = first
			entry.CompanyName, entry.Location = p.splitCompanyLocation(second)
		} else {
			entry.CompanyName, entry.Location = p.splitCompanyLocation(first)
			entry.JobTitle = second
		}
		if m[3] != "" {
			if dr, ok := p.lib.findDateRange(m[3]); ok {
				entry.StartDate, entry.EndDate, entry.IsCurrent = dr.start, dr.end, dr.isCurrent
			}
		}
		if entry.JobTitle != "" || entry.CompanyName != "" {
			return entry, true
		}
	}

	// "Company – Title" / "Title – Company"
	if m := p.dashSeparated.FindStringSubmatch(line); m != nil {
		first := strings.TrimSpace(m[1])
		second := strings.TrimSpace(m[2])
		// 两侧都不能是日期（避免把 "2019 - 2021" 识别为头部）
		if !p.lib.yearOnly.MatchString(first) && !p.lib.presentRe.MatchString(second) {
			entry := types.ExperienceEntry{}
			switch {
			case p.lib.hasJobTitleWord(first):
				entry.JobTitle = first
				entry.CompanyName, entry.Location = p.splitCompanyLocation(second)
			case p.lib.hasJobTitleWord(second):
				entry.CompanyName, entry.Location = p.splitCompanyLocation(first)
				entry.JobTitle = second
			case p.lib.hasCompanySuffix(first):
				entry.CompanyName, entry.Location = p.splitCompanyLocation(first)
				entry.JobTitle = second
			}
			if entry.JobTitle != "" || entry.CompanyName != "" {
				p.liftInlineDates(&entry, line)
				return entry, true
			}
		}
	}

	// 强公司指示词 + 逗号结构："Acme Inc, Austin, TX"
	if p.lib.hasCompanySuffix(line) && len(line) <= 100 {
		entry := types.ExperienceEntry{}
		entry.CompanyName, entry.Location = p.splitCompanyLocation(line)
		p.liftInlineDates(&entry, line)
		if entry.CompanyName != "" {
			return entry, true
		}
	}

	return types.ExperienceEntry{}, false
}

// isDutyLine 职责/描述行启发式：bullet、动作动词开头、密集技术词或超长
func (p *experienceParser) isDutyLine(line string) bool {
	if p.lib.bullet.MatchString(line) {
		return true
	}
	if p.lib.startsWithActionVerb(line) {
		return true
	}
	if len(line) > 100 {
		return true
	}
	// 技术词密度：逗号分隔列表里一半以上是已知技术词
	parts := strings.Split(line, ",")
	if len(parts) >= 3 {
		techCount := 0
		for _, part := range parts {
			if p.lib.isTechTerm(part) {
				techCount++
			}
		}
		if techCount*2 >= len(parts) {
			return true
		}
	}
	return false
}

// matchLocationLine 识别独立的 "Austin, TX" 行。
// 这类行永远归入Location，不会被当作公司名
func (p *experienceParser) matchLocationLine(line string) (string, bool) {
	m := p.lib.cityState.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	if !p.lib.usStates[m[2]] || p.lib.isTechTerm(m[1]) {
		return "", false
	}
	// 整行基本就是一个地点才算地点行
	if len(strings.TrimSpace(line)) > len(m[0])+6 {
		return "", false
	}
	return strings.TrimSpace(m[1]) + ", " + m[2], true
}

// splitCompanyLocation 把 "Acme Inc, Austin, TX" 拆成公司与地点
func (p *experienceParser) splitCompanyLocation(text string) (company, location string) {
	text = strings.TrimSpace(text)
	if m := p.lib.cityState.FindStringSubmatchIndex(text); m != nil {
		sub := p.lib.cityState.FindStringSubmatch(text)
		if p.lib.usStates[sub[2]] && !p.lib.isTechTerm(sub[1]) {
			location = strings.TrimSpace(sub[1]) + ", " + sub[2]
			company = strings.Trim(strings.TrimSpace(text[:m[0]]), ",.- ")
			if company == "" {
				// 整段只有地点：按规范这是Location而非公司
				return "", location
			}
			return company, location
		}
	}
	return strings.Trim(text, ",.- "), ""
}

// liftInlineDates 头部行内嵌日期范围时直接提取
func (p *experienceParser) liftInlineDates(entry *types.ExperienceEntry, line string) {
	if dr, ok := p.lib.findDateRange(line); ok {
		entry.StartDate, entry.EndDate, entry.IsCurrent = dr.start, dr.end, dr.isCurrent
	}
}

// applyCurrentInvariant 维护 is_current ⟺ end_date 为空或 Present
func (p *experienceParser) applyCurrentInvariant(entry *types.ExperienceEntry) {
	entry.IsCurrent = entry.EndDate == "" || entry.EndDate == presentMarker
}

func stripBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "•▪◦‣·*-–— \t"))
}
