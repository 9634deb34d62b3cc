package extractor

import (
	"fmt"
	"strconv"
	"strings"
)

// presentMarker 日期归一化中表示"至今"的字面量
const presentMarker = "Present"

// normalizeDate 把日期片段归一化为 YYYY-MM-DD（日缺省为01）。
// "Present"/"Current" 等归一化为 presentMarker。
// 无法识别时返回原始片段并置 ok=false，调用方按降级策略原样透传
func (p *patternLibrary) normalizeDate(fragment string) (string, bool) {
	frag := strings.TrimSpace(fragment)
	if frag == "" {
		return "", false
	}

	if p.presentRe.MatchString(frag) {
		return presentMarker, true
	}

	// "January 2020" / "Jan 2020"
	if m := p.monthYear.FindStringSubmatch(frag); m != nil {
		month := p.monthMap[strings.ToLower(m[1][:3])]
		if month != "" {
			return fmt.Sprintf("%s-%s-01", m[2], month), true
		}
	}

	// "01/2020" 或 "2020-01"
	if m := p.numericDMY.FindStringSubmatch(frag); m != nil {
		if m[1] != "" && m[2] != "" {
			if mm, ok := validMonth(m[1]); ok {
				return fmt.Sprintf("%s-%s-01", m[2], mm), true
			}
		}
		if m[3] != "" && m[4] != "" {
			if mm, ok := validMonth(m[4]); ok {
				return fmt.Sprintf("%s-%s-01", m[3], mm), true
			}
		}
	}

	// 纯年份，月与日均缺省为01
	if m := p.yearOnly.FindString(frag); m != "" && len(frag) <= 6 {
		return m + "-01-01", true
	}

	return frag, false
}

// validMonth 校验并补零月份数字
func validMonth(s string) (string, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 12 {
		return "", false
	}
	return fmt.Sprintf("%02d", n), true
}

// dateRangeResult 一段日期范围的解析结果
type dateRangeResult struct {
	start     string
	end       string
	isCurrent bool
}

// findDateRange 在一行中查找日期范围。end 为空或 Present 时 isCurrent 为 true。
// 归一化失败的片段原样保留
func (p *patternLibrary) findDateRange(line string) (dateRangeResult, bool) {
	if m := p.dateRange.FindStringSubmatch(line); m != nil {
		start, _ := p.normalizeDate(m[1])
		end, _ := p.normalizeDate(m[2])
		return dateRangeResult{
			start:     start,
			end:       end,
			isCurrent: end == presentMarker,
		}, true
	}

	// 没有显式范围但带"至今"标记的单日期，如 "Since Jan 2020" / "2020 - Present" 被上面覆盖，
	// 此处处理 "Jan 2020 Present" 这类缺分隔符的写法
	if p.presentRe.MatchString(line) {
		if m := p.monthYear.FindStringSubmatch(line); m != nil {
			start, _ := p.normalizeDate(m[0])
			return dateRangeResult{start: start, end: presentMarker, isCurrent: true}, true
		}
		if y := p.yearOnly.FindString(line); y != "" {
			return dateRangeResult{start: y + "-01-01", end: presentMarker, isCurrent: true}, true
		}
	}
	return dateRangeResult{}, false
}

// yearOf 提取归一化日期中的年份，失败返回0
func yearOf(normalized string) int {
	if len(normalized) < 4 {
		return 0
	}
	y, err := strconv.Atoi(normalized[:4])
	if err != nil {
		return 0
	}
	return y
}

// monthOf 提取归一化日期中的月份，失败返回0
func monthOf(normalized string) int {
	if len(normalized) < 7 {
		return 0
	}
	m, err := strconv.Atoi(normalized[5:7])
	if err != nil {
		return 0
	}
	return m
}

// monthsBetween 计算两个归一化日期之间的月数；end 为 Present 时用 nowYear/nowMonth
func monthsBetween(start, end string, nowYear, nowMonth int) int {
	sy, sm := yearOf(start), monthOf(start)
	if sy == 0 {
		return 0
	}
	if sm == 0 {
		sm = 1
	}
	ey, em := nowYear, nowMonth
	if end != presentMarker && end != "" {
		ey, em = yearOf(end), monthOf(end)
		if ey == 0 {
			return 0
		}
		if em == 0 {
			em = 1
		}
	}
	months := (ey-sy)*12 + (em - sm)
	if months < 0 {
		return 0
	}
	return months
}

// formatDuration 把月数格式化为 "X years Y months" 形式
func formatDuration(months int) string {
	if months <= 0 {
		return ""
	}
	years := months / 12
	rem := months % 12
	switch {
	case years == 0:
		return fmt.Sprintf("%d months", rem)
	case rem == 0:
		return fmt.Sprintf("%d years", years)
	default:
		return fmt.Sprintf("%d years %d months", years, rem)
	}
}
