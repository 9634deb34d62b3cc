package extractor

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"resume-extractor-go/internal/logger"
	"resume-extractor-go/internal/types"
)

// Config 提取引擎的可调参数，零值字段在 NewEngine 时补默认值
type Config struct {
	MaxSkills                      int     `json:"max_skills" yaml:"max_skills"`
	NameHeaderLines                int     `json:"name_header_lines" yaml:"name_header_lines"`
	LocationScanChars              int     `json:"location_scan_chars" yaml:"location_scan_chars"`
	ContactWindowChars             int     `json:"contact_window_chars" yaml:"contact_window_chars"`
	AchievementSimilarityThreshold float64 `json:"achievement_similarity_threshold" yaml:"achievement_similarity_threshold"`
	ParserVersion                  string  `json:"parser_version" yaml:"parser_version"`
}

// DefaultConfig 返回引擎默认配置
func DefaultConfig() Config {
	return Config{
		MaxSkills:                      30,
		NameHeaderLines:                8,
		LocationScanChars:              500,
		ContactWindowChars:             250,
		AchievementSimilarityThreshold: 0.8,
		ParserVersion:                  "2.1.0",
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.MaxSkills <= 0 {
		c.MaxSkills = def.MaxSkills
	}
	if c.NameHeaderLines <= 0 {
		c.NameHeaderLines = def.NameHeaderLines
	}
	if c.LocationScanChars <= 0 {
		c.LocationScanChars = def.LocationScanChars
	}
	if c.ContactWindowChars <= 0 {
		c.ContactWindowChars = def.ContactWindowChars
	}
	if c.AchievementSimilarityThreshold <= 0 {
		c.AchievementSimilarityThreshold = def.AchievementSimilarityThreshold
	}
	if c.ParserVersion == "" {
		c.ParserVersion = def.ParserVersion
	}
}

// Engine 简历结构化提取引擎。
// 所有规则表在构造时建立，之后只读，单个实例可被多goroutine并发调用。
// 同一输入永远产出同一结果，内部不依赖随机源
type Engine struct {
	cfg Config
	lib *patternLibrary

	segmenter *sectionSegmenter
	names     *nameResolver
	contact   *contactResolver
	exp       *experienceParser
	edu       *educationParser
	skills    *skillMatcher
	extras    *extrasParser
}

// NewEngine 构造引擎，编译全部规则表
func NewEngine(cfg Config) *Engine {
	cfg.applyDefaults()
	lib := newPatternLibrary()
	now := time.Now()
	return &Engine{
		cfg:       cfg,
		lib:       lib,
		segmenter: newSectionSegmenter(lib),
		names:     newNameResolver(lib, cfg.NameHeaderLines, cfg.ContactWindowChars),
		contact:   newContactResolver(lib, cfg.LocationScanChars),
		exp:       newExperienceParser(lib, now.Year(), int(now.Month())),
		edu:       newEducationParser(lib),
		skills:    newSkillMatcher(lib, cfg.MaxSkills, now.Year()),
		extras:    newExtrasParser(lib, cfg.AchievementSimilarityThreshold),
	}
}

// Parse 对一份纯文本简历做一次完整提取。
// filename 仅作为姓名推断的兜底候选源和元数据记录，可以为空。
// 任意输入（包括空串和乱码）都返回结构完整的结果，不panic
func (e *Engine) Parse(text, filename string) *types.ParsedResumeResult {
	start := time.Now()

	lines := splitLines(text)
	zones := newZoneIndex(e.segmenter.Segment(lines))

	result := &types.ParsedResumeResult{
		ListOfExperiences: []types.ExperienceEntry{},
		ListOfSkills:      []types.SkillEntry{},
		Education:         []types.EducationEntry{},
		Certifications:    []types.CertificationEntry{},
		Languages:         []types.LanguageEntry{},
		Achievements:      []types.AchievementEntry{},
		Projects:          []types.ProjectEntry{},
	}

	// 联系方式与姓名在分区之前的抬头区提取
	contact := e.contact.Resolve(text)
	name := e.names.Resolve(lines, text, filename)
	result.PersonalDetails = buildPersonalDetails(name, contact)

	// 经历：有EXPERIENCE分区就只在分区内解析，否则全文扫描
	expLines := zones.linesOf(types.SectionExperience)
	if expLines == nil {
		expLines = lines
	}
	if entries := e.exp.Parse(expLines); entries != nil {
		result.ListOfExperiences = entries
	}

	// 教育：学历行也常出现在抬头等分区之外，分区内外一起收，整体去重。
	// 分区条目排在前面，去重时优先保留
	eduEntries := e.edu.Parse(lines)
	if zoneLines := zones.linesOf(types.SectionEducation); zoneLines != nil {
		eduEntries = append(e.edu.Parse(zoneLines), eduEntries...)
	}
	if entries := DedupEducation(eduEntries); entries != nil {
		result.Education = entries
	}

	// 技能
	if entries := e.skills.Match(text, zones.linesOf(types.SectionSkills)); entries != nil {
		result.ListOfSkills = entries
	}

	// 次要区块
	if entries := e.extras.Certifications(zones, lines); entries != nil {
		result.Certifications = entries
	}
	if entries := e.extras.Achievements(zones, lines); entries != nil {
		result.Achievements = entries
	}
	if entries := e.extras.Languages(zones, lines); entries != nil {
		result.Languages = entries
	}
	if entries := e.extras.Projects(zones, e.skills); entries != nil {
		result.Projects = entries
	}

	result.OverallSummary = e.buildSummary(result.ListOfExperiences, zones)
	result.ParsingMetadata = e.buildMetadata(result, filename, start)

	logger.Logger.Debug().
		Str("source_file", filename).
		Int("experiences", len(result.ListOfExperiences)).
		Int("skills", len(result.ListOfSkills)).
		Int("education", len(result.Education)).
		Int64("parsing_time_ms", result.ParsingMetadata.ParsingTimeMS).
		Msg("简历解析完成")

	return result
}

func buildPersonalDetails(name types.CandidateName, contact types.ContactInfo) types.PersonalDetails {
	pd := types.PersonalDetails{
		FullName:   name.Formatted,
		FirstName:  name.Given,
		MiddleName: name.Middle,
		LastName:   name.Family,
		City:       contact.Location.Municipality,
		State:      contact.Location.Region,
		Country:    contact.Location.Country,
	}
	if len(contact.Emails) > 0 {
		pd.EmailID = contact.Emails[0]
	}
	if len(contact.Phones) > 0 {
		pd.PhoneNumber = contact.Phones[0].Normalized
		pd.CountryCode = contact.Phones[0].CountryCode
	}
	return pd
}

// buildSummary 从经历条目汇总当前职位、总年限、相关职位列表
func (e *Engine) buildSummary(experiences []types.ExperienceEntry, zones *zoneIndex) types.OverallSummary {
	var s types.OverallSummary

	if summaryLines := zones.linesOf(types.SectionSummary); summaryLines != nil {
		s.Summary = truncateRunes(strings.Join(summaryLines, " "), 600)
	}

	totalMonths := 0
	seenTitles := map[string]bool{}
	for _, exp := range experiences {
		if exp.IsCurrent && s.CurrentJobTitle == "" {
			s.CurrentJobTitle = exp.JobTitle
		}
		if exp.JobTitle != "" && !seenTitles[strings.ToLower(exp.JobTitle)] {
			seenTitles[strings.ToLower(exp.JobTitle)] = true
			s.RelevantJobTitles = append(s.RelevantJobTitles, exp.JobTitle)
		}
		if exp.StartDate != "" {
			end := exp.EndDate
			if end == "" || end == presentMarker {
				end = ""
			}
			if m := monthsBetween(exp.StartDate, end, e.exp.nowYear, e.exp.nowMonth); m > 0 {
				totalMonths += m
			}
		}
	}
	// 没有标记在职的经历时取最近一段的职位
	if s.CurrentJobTitle == "" && len(experiences) > 0 {
		s.CurrentJobTitle = experiences[0].JobTitle
	}
	if totalMonths > 0 {
		// 保留一位小数
		s.TotalExperienceYears = float64(totalMonths/12*10+totalMonths%12*10/12) / 10
	}
	sort.Strings(s.RelevantJobTitles)
	return s
}

// truncateRunes 按字节上限截断，回退到rune边界避免切出半个UTF-8字符
func truncateRunes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// buildMetadata 统计产出字段数并给出粗略的完整度估计
func (e *Engine) buildMetadata(r *types.ParsedResumeResult, filename string, start time.Time) types.ParsingMetadata {
	fields := 0
	weight := 0.0
	if r.PersonalDetails.FullName != "" {
		fields++
		weight += 0.25
	}
	if r.PersonalDetails.EmailID != "" {
		fields++
		weight += 0.15
	}
	if r.PersonalDetails.PhoneNumber != "" {
		fields++
		weight += 0.10
	}
	if len(r.ListOfExperiences) > 0 {
		fields += len(r.ListOfExperiences)
		weight += 0.25
	}
	if len(r.Education) > 0 {
		fields += len(r.Education)
		weight += 0.10
	}
	if len(r.ListOfSkills) > 0 {
		fields += len(r.ListOfSkills)
		weight += 0.15
	}
	fields += len(r.Certifications) + len(r.Languages) + len(r.Achievements) + len(r.Projects)

	return types.ParsingMetadata{
		ParsingTimeMS:    time.Since(start).Milliseconds(),
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ParserVersion:    e.cfg.ParserVersion,
		SourceFile:       filename,
		BRDCompliant:     true,
		FieldsExtracted:  fields,
		AccuracyEstimate: weight,
	}
}
