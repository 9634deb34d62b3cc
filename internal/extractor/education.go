package extractor

import (
	"regexp"
	"strings"

	"resume-extractor-go/internal/types"
)

// educationParser 教育经历解析器。
// 学位行与机构行互斥分类，窗口内合并为一条记录
type educationParser struct {
	lib *patternLibrary

	degreeWithField *regexp.Regexp // "Bachelor of Science in Computer Science"
	institutionRe   *regexp.Regexp

	// 学位缩写到规范学位名的映射表
	degreeNames map[string]string
	// 规范学位名/缩写到学位类型的映射
	degreeTypes map[string]types.DegreeType
}

// mergeWindow 学位行与机构行视为同一条记录的最大行距
const mergeWindow = 3

func newEducationParser(lib *patternLibrary) *educationParser {
	p := &educationParser{
		lib: lib,
		// 专业用 "in" 分界："Bachelor of Science in Computer Science"
		// 的 of 属于学位名本身，不能在 of 处切
		degreeWithField: regexp.MustCompile(`(?i)^(.{2,40}?)\s+in\s+(.{2,60}?)(?:\s*[,|\(].*)?$`),
		institutionRe:   regexp.MustCompile(`(?i)\b(university|college|institute|school|academy|polytechnic)\b`),
	}

	// 缩写归一化表。查找键一律折叠为小写且去掉点号
	p.degreeNames = map[string]string{
		"bs":        "Bachelor of Science",
		"bsc":       "Bachelor of Science",
		"ba":        "Bachelor of Arts",
		"be":        "Bachelor of Engineering",
		"btech":     "Bachelor of Technology",
		"bba":       "Bachelor of Business Administration",
		"bca":       "Bachelor of Computer Applications",
		"ms":        "Master of Science",
		"msc":       "Master of Science",
		"ma":        "Master of Arts",
		"me":        "Master of Engineering",
		"mtech":     "Master of Technology",
		"mba":       "Master of Business Administration",
		"mca":       "Master of Computer Applications",
		"phd":       "Doctor of Philosophy",
		"dphil":     "Doctor of Philosophy",
		"md":        "Doctor of Medicine",
		"jd":        "Juris Doctor",
		"aa":        "Associate of Arts",
		"as":        "Associate of Science",
		"aas":       "Associate of Applied Science",
		"bachelor":  "Bachelor",
		"bachelors": "Bachelor",
		"master":    "Master",
		"masters":   "Master",
		"doctor":    "Doctor",
		"doctorate": "Doctorate",
		"associate": "Associate",
		"diploma":   "Diploma",
	}

	p.degreeTypes = map[string]types.DegreeType{
		"bs": types.DegreeBachelors, "bsc": types.DegreeBachelors,
		"ba": types.DegreeBachelors, "be": types.DegreeBachelors,
		"btech": types.DegreeBachelors, "bba": types.DegreeBachelors,
		"bca": types.DegreeBachelors, "bachelor": types.DegreeBachelors,
		"bachelors": types.DegreeBachelors,
		"ms":        types.DegreeMasters, "msc": types.DegreeMasters,
		"ma": types.DegreeMasters, "me": types.DegreeMasters,
		"mtech": types.DegreeMasters, "mba": types.DegreeMasters,
		"mca": types.DegreeMasters, "master": types.DegreeMasters,
		"masters": types.DegreeMasters,
		"phd":     types.DegreeDoctorate, "dphil": types.DegreeDoctorate,
		"md": types.DegreeDoctorate, "jd": types.DegreeDoctorate,
		"doctor": types.DegreeDoctorate, "doctorate": types.DegreeDoctorate,
		"aa": types.DegreeAssociates, "as": types.DegreeAssociates,
		"aas": types.DegreeAssociates, "associate": types.DegreeAssociates,
		"diploma": types.DegreeCertificate, "certificate": types.DegreeCertificate,
	}
	return p
}

// Parse 解析教育经历。输入通常是Education区域的行；
// 去重在全文档范围的调用方汇总后执行（有的简历在抬头也写学位）
func (p *educationParser) Parse(lines []string) []types.EducationEntry {
	type lineClass int
	const (
		classOther lineClass = iota
		classDegree
		classInstitution
	)

	classes := make([]lineClass, len(lines))
	for i, line := range lines {
		switch {
		case p.isDegreeLine(line):
			classes[i] = classDegree
		case p.isInstitutionLine(line):
			classes[i] = classInstitution
		}
	}

	var entries []types.EducationEntry
	used := make(map[int]bool)

	for i, line := range lines {
		if classes[i] != classDegree {
			continue
		}
		entry := p.parseDegreeLine(line)

		// 在±mergeWindow窗口内找最近的机构行
		for d := 1; d <= mergeWindow; d++ {
			for _, j := range []int{i + d, i - d} {
				if j < 0 || j >= len(lines) || used[j] || classes[j] != classInstitution {
					continue
				}
				entry.Institution = cleanInstitution(lines[j])
				used[j] = true
				d = mergeWindow // 跳出外层
				break
			}
		}

		// 同窗口内提取日期与GPA
		lo, hi := i-mergeWindow, i+mergeWindow
		if lo < 0 {
			lo = 0
		}
		if hi >= len(lines) {
			hi = len(lines) - 1
		}
		for j := lo; j <= hi; j++ {
			if entry.GPA == "" {
				if m := p.lib.gpa.FindStringSubmatch(lines[j]); m != nil {
					entry.GPA = m[1]
				}
			}
			if entry.StartDate == "" && entry.EndDate == "" {
				if m := p.lib.yearRange.FindStringSubmatch(lines[j]); m != nil {
					entry.StartDate, _ = p.lib.normalizeDate(m[1])
					entry.EndDate, _ = p.lib.normalizeDate(m[2])
				} else if j == i || j == i+1 {
					if y := p.lib.yearOnly.FindString(lines[j]); y != "" && !p.lib.gpa.MatchString(lines[j]) {
						entry.EndDate = y + "-01-01"
					}
				}
			}
		}

		entries = append(entries, entry)
	}

	// 孤立的机构行（窗口内无学位行）也产出一条仅有机构的记录
	for j, line := range lines {
		if classes[j] != classInstitution || used[j] {
			continue
		}
		orphan := true
		for d := 1; d <= mergeWindow; d++ {
			if j-d >= 0 && classes[j-d] == classDegree {
				orphan = false
			}
			if j+d < len(lines) && classes[j+d] == classDegree {
				orphan = false
			}
		}
		if orphan {
			entries = append(entries, types.EducationEntry{Institution: cleanInstitution(line)})
		}
	}

	return entries
}

// isDegreeLine 学位行：以已知学位token开头
func (p *educationParser) isDegreeLine(line string) bool {
	return p.lib.degreeLine.MatchString(strings.TrimSpace(stripBullet(line)))
}

// isInstitutionLine 机构行：含University/College等且不含学位token。
// 互斥条件避免 "Bachelor of Science, MIT University" 被双重分类
func (p *educationParser) isInstitutionLine(line string) bool {
	return p.institutionRe.MatchString(line) && !p.isDegreeLine(line)
}

// parseDegreeLine 拆解学位行为规范学位名/类型/专业
func (p *educationParser) parseDegreeLine(line string) types.EducationEntry {
	text := strings.TrimSpace(stripBullet(line))
	entry := types.EducationEntry{}

	// 先去掉行内日期和GPA，避免混入专业名
	text = p.lib.yearRange.ReplaceAllString(text, "")
	text = p.lib.gpa.ReplaceAllString(text, "")
	text = strings.Trim(text, " ,|-–")

	if m := p.degreeWithField.FindStringSubmatch(text); m != nil {
		entry.DegreeName = p.canonicalDegree(m[1])
		entry.FieldOfStudy = strings.Trim(m[2], " ,.")
		entry.DegreeType = p.classifyDegree(m[1])
		return entry
	}

	// 没有 in 结构："BS Computer Science" / "MBA" / "Bachelor of Science"
	fields := strings.Fields(text)
	switch {
	case len(fields) == 0:
		entry.DegreeName = text
	case len(fields) > 1 && strings.EqualFold(fields[1], "of"):
		// "Bachelor of Science" 整体是学位名，不含专业
		entry.DegreeName = text
		entry.DegreeType = p.classifyDegree(fields[0])
	default:
		entry.DegreeName = p.canonicalDegree(fields[0])
		entry.DegreeType = p.classifyDegree(fields[0])
		if len(fields) > 1 {
			entry.FieldOfStudy = strings.Trim(strings.Join(fields[1:], " "), " ,.")
		}
	}
	return entry
}

// canonicalDegree 缩写→规范学位名；未知token原样返回
func (p *educationParser) canonicalDegree(token string) string {
	key := degreeKey(token)
	if name, ok := p.degreeNames[key]; ok {
		return name
	}
	return strings.TrimSpace(token)
}

// classifyDegree token→封闭学位类型枚举。
// 整体查不到时退回首个词（"Bachelor of Science" 按 "bachelor" 分类）
func (p *educationParser) classifyDegree(token string) types.DegreeType {
	if t, ok := p.degreeTypes[degreeKey(token)]; ok {
		return t
	}
	if fields := strings.Fields(token); len(fields) > 1 {
		if t, ok := p.degreeTypes[degreeKey(fields[0])]; ok {
			return t
		}
	}
	return ""
}

// degreeKey 学位token的查找键：小写、去点、去空白
func degreeKey(token string) string {
	key := strings.ToLower(strings.TrimSpace(token))
	key = strings.ReplaceAll(key, ".", "")
	key = strings.ReplaceAll(key, " ", "")
	return strings.Trim(key, ",;:")
}

// cleanInstitution 去掉机构行中的日期/GPA噪声
func cleanInstitution(line string) string {
	text := strings.TrimSpace(stripBullet(line))
	text = regexp.MustCompile(`\b(19|20)\d{2}\b.*$`).ReplaceAllString(text, "")
	return strings.Trim(text, " ,|-–(")
}

// DedupEducation 全文档范围的教育记录去重。
// 两条记录视为相同：归一化 (degree_type, field, institution) 三元组相等，
// 或case-fold后其一是另一的子串。合并幂等：重复运行结果不变
func DedupEducation(entries []types.EducationEntry) []types.EducationEntry {
	var out []types.EducationEntry
	for _, e := range entries {
		dup := false
		for i, kept := range out {
			if sameEducation(kept, e) {
				// 保留信息更全的那条
				out[i] = mergeEducation(kept, e)
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}

func sameEducation(a, b types.EducationEntry) bool {
	ka := eduKey(a)
	kb := eduKey(b)
	if ka == kb {
		return true
	}
	if ka != "" && kb != "" && (strings.Contains(ka, kb) || strings.Contains(kb, ka)) {
		return true
	}
	return false
}

func eduKey(e types.EducationEntry) string {
	parts := []string{
		strings.ToLower(string(e.DegreeType)),
		strings.ToLower(strings.TrimSpace(e.FieldOfStudy)),
		strings.ToLower(strings.TrimSpace(e.Institution)),
	}
	return strings.Trim(strings.Join(parts, "|"), "|")
}

// mergeEducation 字段级取非空值合并两条重复记录
func mergeEducation(a, b types.EducationEntry) types.EducationEntry {
	if a.DegreeName == "" {
		a.DegreeName = b.DegreeName
	}
	if a.DegreeType == "" {
		a.DegreeType = b.DegreeType
	}
	if a.FieldOfStudy == "" {
		a.FieldOfStudy = b.FieldOfStudy
	}
	if a.Institution == "" {
		a.Institution = b.Institution
	}
	if a.StartDate == "" {
		a.StartDate = b.StartDate
	}
	if a.EndDate == "" {
		a.EndDate = b.EndDate
	}
	if a.GPA == "" {
		a.GPA = b.GPA
	}
	return a
}
