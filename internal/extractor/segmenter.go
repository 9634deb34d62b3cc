package extractor

import (
	"strings"

	"resume-extractor-go/internal/types"
)

// sectionSegmenter 把按行组织的简历文本切分为带标签的章节区域
type sectionSegmenter struct {
	lib *patternLibrary
}

func newSectionSegmenter(lib *patternLibrary) *sectionSegmenter {
	return &sectionSegmenter{lib: lib}
}

// kindToType 规范章节类型到输出枚举的映射
var kindToType = map[sectionKind]types.SectionType{
	kindContact:        types.SectionContact,
	kindSummary:        types.SectionSummary,
	kindExperience:     types.SectionExperience,
	kindEducation:      types.SectionEducation,
	kindSkills:         types.SectionSkills,
	kindCertifications: types.SectionCertifications,
	kindProjects:       types.SectionProjects,
	kindAchievements:   types.SectionAchievements,
	kindLanguages:      types.SectionLanguages,
}

// Segment 扫描所有行，命中章节标题即开启新区域，区域在下一个标题或文末关闭。
// 标题采用首次匹配即生效策略，不做回溯；嵌套标题（如Experience区内的
// "Project Experience"）会按新区域处理。没有任何标题命中时返回空切片，
// 各抽取器需自行走全文回退路径。
func (s *sectionSegmenter) Segment(lines []string) []types.SectionZone {
	var zones []types.SectionZone
	var current *types.SectionZone

	for i, line := range lines {
		kind, ok := s.lib.matchHeader(line)
		if ok {
			// 关闭上一个区域
			if current != nil {
				current.LastLine = i - 1
				zones = append(zones, *current)
			}
			current = &types.SectionZone{
				Type:       kindToType[kind],
				HeaderText: strings.TrimSpace(line),
				FirstLine:  i + 1,
				LastLine:   i + 1,
			}
			continue
		}
		if current != nil {
			current.Lines = append(current.Lines, line)
		}
	}

	if current != nil {
		current.LastLine = len(lines) - 1
		zones = append(zones, *current)
	}

	return zones
}

// zoneIndex 按类型检索区域的辅助结构。同类型出现多次时按先后顺序保留
type zoneIndex struct {
	byType map[types.SectionType][]types.SectionZone
}

func newZoneIndex(zones []types.SectionZone) *zoneIndex {
	idx := &zoneIndex{byType: make(map[types.SectionType][]types.SectionZone)}
	for _, z := range zones {
		idx.byType[z.Type] = append(idx.byType[z.Type], z)
	}
	return idx
}

// linesOf 返回某类型全部区域的内容行；该类型缺失时返回nil，
// 调用方据此决定是否回退到全文扫描
func (z *zoneIndex) linesOf(t types.SectionType) []string {
	zones, ok := z.byType[t]
	if !ok {
		return nil
	}
	var lines []string
	for _, zone := range zones {
		lines = append(lines, zone.Lines...)
	}
	return lines
}

func (z *zoneIndex) has(t types.SectionType) bool {
	return len(z.byType[t]) > 0
}

// splitLines 把原始文本转成去除首尾空白的非空行列表
func splitLines(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	raw := strings.Split(normalized, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		trimmed := strings.TrimSpace(l)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
