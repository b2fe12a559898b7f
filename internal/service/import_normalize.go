package service

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ── 导入数据清洗 ──

// 土耳其字母中没有 Unicode 分解形式的部分需先行替换
var turkishLetters = strings.NewReplacer(
	"ı", "i", "İ", "I",
	"ğ", "g", "Ğ", "G",
	"ş", "s", "Ş", "S",
	"ç", "c", "Ç", "C",
	"ö", "o", "Ö", "O",
	"ü", "u", "Ü", "U",
)

var (
	spaceRun      = regexp.MustCompile(`\s+`)
	peopleSep     = regexp.MustCompile(`(?i),|;|/|\band\b|&|\n`)
	numberToken   = regexp.MustCompile(`[\d.]+`)
	countOnlyText = regexp.MustCompile(`^\+?\d+$`)
)

// cleanHeader 表头换行与连续空白折叠为单个空格
func cleanHeader(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// normalizeName 姓名转为 ASCII：替换土耳其字母，去除组合附加符号，折叠空白
func normalizeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = turkishLetters.Replace(s)
	// Transformer 带内部状态，每次调用单独构造
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(out, " "))
}

// nameKey 姓名匹配键：规范化后大小写折叠
func nameKey(s string) string {
	return cases.Fold().String(normalizeName(s))
}

// normalizeCourseCode "comp 100" → "COMP100"，保留斜杠
func normalizeCourseCode(s string) string {
	return strings.ToUpper(spaceRun.ReplaceAllString(strings.TrimSpace(s), ""))
}

// splitPeople 拆分包含多个姓名的单元格，支持逗号、分号、斜杠、& 与 and
func splitPeople(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	var out []string
	for _, p := range peopleSep.Split(cell, -1) {
		if name := normalizeName(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// isCountToken "2"、"+1" 这类只表示人数的偏好文本
func isCountToken(s string) bool {
	return countOnlyText.MatchString(strings.TrimSpace(s))
}

// parseCount 取第一个数字片段并向下取整，"12 students" → 12，无法解析时为 0
func parseCount(s string) int {
	m := numberToken.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

// normalizeDegree PhD 的各种写法统一为 "PhD"，其余为 "MS"
func normalizeDegree(s string) string {
	switch cases.Fold().String(strings.TrimSpace(s)) {
	case "phd", "ph.d", "ph.d.":
		return "PhD"
	default:
		return "MS"
	}
}
