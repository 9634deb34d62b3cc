package extractor

import (
	"path/filepath"
	"strings"
	"unicode"

	"resume-extractor-go/internal/types"
)

// nameCandidate 姓名候选，source 标记来源策略，打分时参与加权
type nameCandidate struct {
	text           string
	source         string // header / contact_window / email_local / filename
	lineIndex      int    // 候选所在行号（header来源时有效）
	charOffset     int    // 候选在全文中的大致偏移
	emailLocalPart string // 邮箱local-part，用于token重合加分
}

// nameResolver 从多个策略产生候选并用规则打分挑选最优者
type nameResolver struct {
	lib         *patternLibrary
	scorer      *ruleScorer[nameCandidate]
	headerLines int
	windowChars int
}

func newNameResolver(lib *patternLibrary, headerLines, windowChars int) *nameResolver {
	r := &nameResolver{
		lib:         lib,
		headerLines: headerLines,
		windowChars: windowChars,
	}
	r.scorer = &ruleScorer[nameCandidate]{rules: []scoreRule[nameCandidate]{
		{
			// 机构类关键词是支配性的负项：University/Manager等出现即基本出局
			name:   "institutional_keyword",
			weight: -100,
			match:  func(c nameCandidate) bool { return lib.containsInstitutionKW(c.text) },
		},
		{
			name:   "strict_name_shape",
			weight: 30,
			match: func(c nameCandidate) bool {
				return lib.titleCaseName.MatchString(c.text)
			},
		},
		{
			name:   "near_document_start",
			weight: 20,
			match:  func(c nameCandidate) bool { return c.charOffset >= 0 && c.charOffset < 200 },
		},
		{
			name:   "email_token_overlap",
			weight: 25,
			match: func(c nameCandidate) bool {
				if c.emailLocalPart == "" {
					return false
				}
				local := strings.ToLower(c.emailLocalPart)
				for _, tok := range strings.Fields(strings.ToLower(c.text)) {
					if len(tok) >= 3 && strings.Contains(local, tok) {
						return true
					}
				}
				return false
			},
		},
		{
			name:   "reasonable_word_count",
			weight: 10,
			match: func(c nameCandidate) bool {
				n := len(strings.Fields(c.text))
				return n >= 2 && n <= 4
			},
		},
		{
			name:   "contains_digits",
			weight: -40,
			match: func(c nameCandidate) bool {
				return strings.IndexFunc(c.text, unicode.IsDigit) >= 0
			},
		},
		{
			name:   "overly_long",
			weight: -30,
			match:  func(c nameCandidate) bool { return len(c.text) > 40 },
		},
		{
			name:   "derived_source_discount",
			weight: -5,
			match: func(c nameCandidate) bool {
				return c.source == "email_local" || c.source == "filename"
			},
		},
	}}
	return r
}

// Resolve 依次执行4个候选策略，对全部候选统一打分，取最高正分者。
// 全部候选都非正分时返回空记录：宁可留空也不猜一个错误的名字
func (r *nameResolver) Resolve(lines []string, fullText, filename string) types.CandidateName {
	emailLocal := r.emailLocalPart(fullText)

	var candidates []nameCandidate
	candidates = append(candidates, r.headerCandidates(lines, fullText, emailLocal)...)
	candidates = append(candidates, r.contactWindowCandidates(fullText, emailLocal)...)
	if c, ok := r.emailCandidate(emailLocal); ok {
		candidates = append(candidates, c)
	}
	if c, ok := r.filenameCandidate(filename, emailLocal); ok {
		candidates = append(candidates, c)
	}

	best := types.CandidateName{}
	bestScore := 0.0
	for _, c := range candidates {
		score, _ := r.scorer.score(c)
		// 平局时先到先得，保持确定性
		if score > 0 && score > bestScore {
			bestScore = score
			best = splitName(c.text)
			best.Score = score
		}
	}
	return best
}

// headerCandidates 策略1：文档头部若干行中的姓名形状
func (r *nameResolver) headerCandidates(lines []string, fullText, emailLocal string) []nameCandidate {
	limit := r.headerLines
	if limit > len(lines) {
		limit = len(lines)
	}
	var out []nameCandidate
	for i := 0; i < limit; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.Contains(line, "@") || r.lib.phoneUS.MatchString(line) {
			continue
		}
		// 全大写的章节标题(WORK HISTORY等)满足allCapsName形状，必须先排除
		if _, isHeader := r.lib.matchHeader(line); isHeader {
			continue
		}
		if r.lib.titleCaseName.MatchString(line) || r.lib.allCapsName.MatchString(line) {
			out = append(out, nameCandidate{
				text:           canonicalCase(line),
				source:         "header",
				lineIndex:      i,
				charOffset:     strings.Index(fullText, line),
				emailLocalPart: emailLocal,
			})
		}
	}
	return out
}

// contactWindowCandidates 策略2：邮箱/电话附近文本窗口里的姓名形状
func (r *nameResolver) contactWindowCandidates(fullText, emailLocal string) []nameCandidate {
	var anchors []int
	if loc := r.lib.email.FindStringIndex(fullText); loc != nil {
		anchors = append(anchors, loc[0])
	}
	if loc := r.lib.phoneUS.FindStringIndex(fullText); loc != nil {
		anchors = append(anchors, loc[0])
	}

	var out []nameCandidate
	for _, anchor := range anchors {
		start := anchor - r.windowChars
		if start < 0 {
			start = 0
		}
		end := anchor + r.windowChars
		if end > len(fullText) {
			end = len(fullText)
		}
		for _, line := range splitLines(fullText[start:end]) {
			if strings.Contains(line, "@") {
				continue
			}
			if r.lib.titleCaseName.MatchString(line) {
				out = append(out, nameCandidate{
					text:           line,
					source:         "contact_window",
					charOffset:     strings.Index(fullText, line),
					emailLocalPart: emailLocal,
				})
			}
		}
	}
	return out
}

// emailCandidate 策略3：从邮箱local-part推导。
// 按 . 和 _ 切分，去掉尾部数字，至少得到两个长度>=2的字母段才算成立
func (r *nameResolver) emailCandidate(emailLocal string) (nameCandidate, bool) {
	if emailLocal == "" {
		return nameCandidate{}, false
	}
	segs := strings.FieldsFunc(emailLocal, func(ch rune) bool {
		return ch == '.' || ch == '_' || ch == '-'
	})
	var words []string
	for _, seg := range segs {
		seg = strings.TrimRightFunc(seg, unicode.IsDigit)
		if len(seg) >= 2 && isAlpha(seg) {
			words = append(words, titleCase(seg))
		}
	}
	if len(words) < 2 {
		return nameCandidate{}, false
	}
	return nameCandidate{
		text:           strings.Join(words, " "),
		source:         "email_local",
		charOffset:     -1,
		emailLocalPart: emailLocal,
	}, true
}

// filenameCandidate 策略4：从文件名推导（去扩展名、去resume/cv等噪声词）
func (r *nameResolver) filenameCandidate(filename, emailLocal string) (nameCandidate, bool) {
	if filename == "" {
		return nameCandidate{}, false
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)

	noise := map[string]bool{"resume": true, "cv": true, "of": true, "final": true, "updated": true, "new": true, "copy": true}
	var words []string
	for _, w := range strings.Fields(base) {
		w = strings.TrimFunc(w, func(ch rune) bool { return !unicode.IsLetter(ch) })
		if w == "" || noise[strings.ToLower(w)] {
			continue
		}
		if isAlpha(w) {
			words = append(words, titleCase(w))
		}
	}
	if len(words) < 2 || len(words) > 4 {
		return nameCandidate{}, false
	}
	return nameCandidate{
		text:           strings.Join(words, " "),
		source:         "filename",
		charOffset:     -1,
		emailLocalPart: emailLocal,
	}, true
}

// emailLocalPart 提取全文第一个邮箱的local-part
func (r *nameResolver) emailLocalPart(fullText string) string {
	email := r.lib.email.FindString(fullText)
	if email == "" {
		return ""
	}
	return email[:strings.Index(email, "@")]
}

// splitName 把 formatted 姓名拆为 given/middle/family
func splitName(formatted string) types.CandidateName {
	words := strings.Fields(formatted)
	name := types.CandidateName{Formatted: formatted}
	switch len(words) {
	case 0:
	case 1:
		name.Given = words[0]
	case 2:
		name.Given, name.Family = words[0], words[1]
	default:
		name.Given = words[0]
		name.Family = words[len(words)-1]
		name.Middle = strings.Join(words[1:len(words)-1], " ")
	}
	return name
}

// canonicalCase 把全大写的姓名行转为Title Case，其余保持原样
func canonicalCase(line string) string {
	if strings.ToUpper(line) != line {
		return line
	}
	words := strings.Fields(line)
	for i, w := range words {
		words[i] = titleCase(w)
	}
	return strings.Join(words, " ")
}

func titleCase(w string) string {
	if w == "" {
		return w
	}
	lower := strings.ToLower(w)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func isAlpha(s string) bool {
	for _, ch := range s {
		if !unicode.IsLetter(ch) {
			return false
		}
	}
	return len(s) > 0
}
