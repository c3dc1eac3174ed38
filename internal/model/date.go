package model

import (
	"regexp"
	"time"
)

// DateLayout 日期令牌格式 YYYYMMDD
const DateLayout = "20060102"

var dateExpr = regexp.MustCompile(`^\d{8}$`)

// ValidateDate 校验 YYYYMMDD，且必须是真实存在的日历日期
func ValidateDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// ParseDate 将 YYYYMMDD 解析为当天零点（UTC）
func ParseDate(s string) (time.Time, error) {
	if !dateExpr.MatchString(s) {
		return time.Time{}, invalid("date", "invalid date format: %q, expected YYYYMMDD", s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, invalid("date", "invalid calendar date: %q", s)
	}
	return t, nil
}

// FormatDate 格式化为 YYYYMMDD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today 返回本地时区的今日日期
func Today() string {
	return FormatDate(time.Now())
}
