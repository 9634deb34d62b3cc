package extractor

// 评分层：把启发式判断表达为 (条件, 权重) 规则列表，
// 使每条规则可以单独测试，而不是一个不可拆分的打分函数

// scoreRule 一条可独立求值的打分规则
type scoreRule[T any] struct {
	name   string
	weight float64
	match  func(candidate T) bool
}

// ruleScorer 对候选对象依次应用全部规则并累加命中的权重
type ruleScorer[T any] struct {
	rules []scoreRule[T]
}

// score 返回总分和命中的规则名（用于调试日志）
func (s *ruleScorer[T]) score(candidate T) (float64, []string) {
	var total float64
	var hits []string
	for _, r := range s.rules {
		if r.match(candidate) {
			total += r.weight
			hits = append(hits, r.name)
		}
	}
	return total, hits
}
