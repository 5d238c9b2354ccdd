package utils

import "strings"

// EscapeLike 转义 LIKE 模式中的通配符,用户输入只作字面子串匹配
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ContainsPattern 构造大小写不敏感的子串匹配模式
func ContainsPattern(s string) string {
	return "%" + EscapeLike(strings.TrimSpace(s)) + "%"
}
