package extractor

import (
	"fmt"
	"strings"

	"resume-extractor-go/internal/types"
)

// contactResolver 邮箱/电话/位置解析
type contactResolver struct {
	lib       *patternLibrary
	scanChars int // 位置识别只在文档前 scanChars 个字符内进行
}

func newContactResolver(lib *patternLibrary, scanChars int) *contactResolver {
	return &contactResolver{lib: lib, scanChars: scanChars}
}

// Resolve 从全文提取联系方式。所有字段均为尽力而为：找不到就留空
func (c *contactResolver) Resolve(fullText string) types.ContactInfo {
	info := types.ContactInfo{}

	// 邮箱：语法匹配，首个命中即用，不做DNS/MX校验
	for _, email := range c.lib.email.FindAllString(fullText, 3) {
		if !containsStr(info.Emails, email) {
			info.Emails = append(info.Emails, email)
		}
	}

	info.Phones = c.resolvePhones(fullText)
	info.Location = c.resolveLocation(fullText)
	return info
}

// resolvePhones 按优先级尝试电话模式：带标签形式优先，其次美式格式，最后裸10位。
// 全部命中都要过10位数字门禁
func (c *contactResolver) resolvePhones(fullText string) []types.PhoneNumber {
	var phones []types.PhoneNumber
	seen := make(map[string]bool)

	tryAdd := func(raw string) {
		normalized, cc, ok := c.NormalizePhone(raw)
		if !ok || seen[normalized] {
			return
		}
		seen[normalized] = true
		phones = append(phones, types.PhoneNumber{
			Raw:         strings.TrimSpace(raw),
			Normalized:  normalized,
			CountryCode: cc,
		})
	}

	for _, m := range c.lib.phoneLabeled.FindAllStringSubmatch(fullText, 2) {
		tryAdd(m[1])
	}
	if len(phones) == 0 {
		for _, m := range c.lib.phoneUS.FindAllString(fullText, 3) {
			tryAdd(m)
		}
	}
	if len(phones) == 0 {
		for _, m := range c.lib.phoneBare.FindAllString(fullText, 2) {
			tryAdd(m)
		}
	}
	return phones
}

// NormalizePhone 电话归一化。规则：
//   - 提取全部数字，恰好10位，或11位且以1开头（剥去国家码）
//   - 剥离后以0或1开头的区号视为不合法的美国号码，拒绝
//   - 输出统一为 (XXX) XXX-XXXX
//
// 幂等：对已归一化的字符串再次调用得到相同结果
func (c *contactResolver) NormalizePhone(raw string) (normalized, countryCode string, ok bool) {
	var digits []byte
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}

	switch len(digits) {
	case 10:
	case 11:
		if digits[0] != '1' {
			return "", "", false
		}
		digits = digits[1:]
		countryCode = "1"
	default:
		return "", "", false
	}

	if digits[0] == '0' || digits[0] == '1' {
		return "", "", false
	}

	d := string(digits)
	return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:]), countryCode, true
}

// resolveLocation 在文档开头查找 "City, ST [ZIP]" 模式。
// 州码必须在有效集合内；城市token为已知技术词时拒绝，
// 过滤 "Python, Re..." 这类伪匹配
func (c *contactResolver) resolveLocation(fullText string) types.Location {
	scan := fullText
	if len(scan) > c.scanChars {
		scan = scan[:c.scanChars]
	}

	for _, m := range c.lib.cityState.FindAllStringSubmatch(scan, 5) {
		city := strings.TrimSpace(m[1])
		state := m[2]
		if !c.lib.usStates[state] {
			continue
		}
		// 城市名最多3个词，且任何token都不能是技术词，
		// 过滤 "Expert in Java, SC" 这类伪匹配
		tokens := strings.Fields(city)
		if len(tokens) > 3 {
			continue
		}
		techHit := false
		for _, tok := range tokens {
			if c.lib.isTechTerm(tok) {
				techHit = true
				break
			}
		}
		if techHit {
			continue
		}
		// 城市里混入数字或@说明匹配到了别的结构
		if strings.ContainsAny(city, "@0123456789") {
			continue
		}
		return types.Location{
			Municipality: city,
			Region:       state,
			Country:      "US",
		}
	}
	return types.Location{}
}

func containsStr(list []string, s string) bool {
	for _, it := range list {
		if strings.EqualFold(it, s) {
			return true
		}
	}
	return false
}
