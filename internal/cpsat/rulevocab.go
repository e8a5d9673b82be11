package cpsat

import (
	"regexp"
	"strconv"
	"strings"
)

// qualificationVocabulary 是从班次 requirements / 规则文本中提取资质要求时
// 匹配的固定关键词表。
var qualificationVocabulary = []string{
	"Facharzt",
	"Oberarzt",
	"Chefarzt",
	"Assistenzarzt",
	"ABS-zertifiziert",
	"Notfallzertifizierung",
	"Intensivmedizin",
	"Ultraschall-Zertifikat",
	"Endoskopie",
}

var firstIntRe = regexp.MustCompile(`\d+`)

// extractFirstInt 返回文本中出现的第一个整数；未找到时返回 defaultValue
func extractFirstInt(text string, defaultValue int) int {
	m := firstIntRe.FindString(text)
	if m == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return defaultValue
	}
	return n
}

// extractRequiredQualifications 扫描 requirements 列表，返回出现在固定词表中的资质
func extractRequiredQualifications(requirements []string) []string {
	var found []string
	for _, req := range requirements {
		for _, q := range qualificationVocabulary {
			if strings.Contains(req, q) {
				found = append(found, q)
			}
		}
	}
	return found
}

// minRequired 在 requirements 中查找 "Min." 或 "Mindestens" 子串后的第一个整数，
// 代表该班次的最低人手要求；未找到时默认 1。
func minRequired(requirements []string) int {
	for _, req := range requirements {
		if strings.Contains(req, "Min.") || strings.Contains(req, "Mindestens") {
			return extractFirstInt(req, 1)
		}
	}
	return 1
}

// shiftHours 解析 "HH:MM-HH:MM" 形式的班次时间，返回起始小时与结束小时
// （不做跨午夜处理，时长由 shiftDurationHours 计算）。解析失败时 ok=false。
func shiftHours(timeStr string) (startHour, endHour int, ok bool) {
	parts := strings.SplitN(timeStr, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	sh, sOk := parseHour(parts[0])
	eh, eOk := parseHour(parts[1])
	if !sOk || !eOk {
		return 0, 0, false
	}
	return sh, eh, true
}

func parseHour(hhmm string) (int, bool) {
	hhmm = strings.TrimSpace(hhmm)
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) == 0 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	return h, true
}

// isLateShift 判定班次是否为"晚班"：结束小时 >= 21 或 <= 8
func isLateShift(timeStr string) bool {
	_, endHour, ok := shiftHours(timeStr)
	if !ok {
		return false
	}
	return endHour >= 21 || endHour <= 8
}

// isEarlyShift 判定班次是否为"早班"：开始小时 < 9
func isEarlyShift(timeStr string) bool {
	startHour, _, ok := shiftHours(timeStr)
	if !ok {
		return false
	}
	return startHour < 9
}

// isDemandingShift 判定班次是否"高强度"：名称含 nacht/rufbereitschaft，或结束时间 <= 8 点
func isDemandingShift(name, timeStr string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "nacht") || strings.Contains(lower, "rufbereitschaft") {
		return true
	}
	_, endHour, ok := shiftHours(timeStr)
	return ok && endHour <= 8
}

// shiftDurationHours 解析班次时长（小时），处理跨午夜；解析失败默认 8 小时。
func shiftDurationHours(timeStr string) float64 {
	startHour, endHour, ok := shiftHours(timeStr)
	if !ok {
		return 8
	}
	if endHour <= startHour {
		return float64((24 - startHour) + endHour)
	}
	return float64(endHour - startHour)
}

// matchesEmployee 判断规则的 appliesTo 是否命中该员工：appliesTo=="all" 命中所有，
// 否则按姓名子串匹配。
func matchesEmployee(appliesTo, employeeName string) bool {
	if appliesTo == "all" {
		return true
	}
	return strings.Contains(employeeName, appliesTo)
}

// ruleWeight 总是返回固定权重 5，忽略 Rule.Weight 字段存储的值。与原始实现
// _get_rule_weight 保持一致的简化行为。
func ruleWeight() int {
	return 5
}

// isNoWorkRule 判断规则文本是否为"禁止工作日"类硬约束
func isNoWorkRule(text string) bool {
	return strings.Contains(text, "arbeitet nicht")
}

// noWorkDaySelector 返回规则文本所指定的禁止工作日判定函数；未命中任何关键词时返回 nil。
func noWorkDaySelector(text string) func(dayNum int) bool {
	lower := strings.ToLower(text)
	wantsSunday := strings.Contains(lower, "sonntag")
	wantsSaturday := strings.Contains(lower, "samstag")
	wantsWeekend := strings.Contains(lower, "wochenende")

	switch {
	case wantsWeekend:
		return isWeekend
	case wantsSunday && wantsSaturday:
		return isWeekend
	case wantsSunday:
		return isSunday
	case wantsSaturday:
		return isSaturday
	default:
		return nil
	}
}

// isConsecutiveDaysRule 判断规则文本是否为"最大连续工作天数"类硬约束
func isConsecutiveDaysRule(text string) bool {
	return strings.Contains(text, "aufeinanderfolgende") && strings.Contains(text, "arbeitstage")
}

// isPreferenceRule 判断规则文本是否为软性"偏好奖励"规则
func isPreferenceRule(text string) bool {
	return strings.Contains(text, "bevorzugt")
}

// isAvoidanceRule 判断规则文本是否为软性"规避惩罚"规则
func isAvoidanceRule(text string) bool {
	return strings.Contains(text, "vermeiden")
}

// containsFold 大小写不敏感的子串匹配
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
