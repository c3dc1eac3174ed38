package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/iWorld-y/news_analysis/internal/model"
)

// Format 报告输出格式
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
)

const timeLayout = "2006-01-02 15:04:05"

// ParseFormat 解析格式名，接受 md/txt 简写
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// Render 将报告渲染为指定格式
func Render(report *model.Report, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return renderMarkdown(report), nil
	case FormatText:
		return renderText(report), nil
	case FormatJSON:
		data, err := MarshalReport(report)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatCSV:
		return renderCSV(report)
	}
	return "", fmt.Errorf("unsupported format: %s", format)
}

func renderMarkdown(r *model.Report) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	list := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		line("### %s", title)
		line("")
		for _, item := range items {
			line("- %s", item)
		}
		line("")
	}

	line("# 《新闻联播》分析报告 - %s", r.Date)
	line("")
	line("**生成时间**: %s", r.GeneratedAt.Format(timeLayout))
	line("**分析版本**: %s", r.AnalysisVersion)
	line("")
	line("## 市场情绪")
	line("")
	line("**评分**: %d/100", r.Sentiment.Score)
	line("**分类**: %s", r.Sentiment.Category)
	line("**强度**: %s", r.Sentiment.Intensity)
	line("")
	line("### 关键新闻")
	line("")
	for _, news := range r.Sentiment.KeyNews {
		line("- %s", news)
	}
	line("")
	line("## 经济发展趋势")
	line("")
	line("%s", r.Trends.Summary)
	line("")
	list("政策方向", r.Trends.Policies)
	list("热点行业", r.Trends.Industries)
	list("经济指标", r.Trends.Indicators)

	if len(r.Recommendations) > 0 {
		line("## 推荐建议")
		line("")
		for i, rec := range r.Recommendations {
			line("### %d. %s", i+1, rec.Industry)
			line("")
			line("**推荐理由**: %s", rec.Reason)
			line("")
			if len(rec.Companies) > 0 {
				line("**相关A股头部公司**:")
				for _, c := range rec.Companies {
					line("- %s", c)
				}
				line("")
			}
			line("**风险等级**: %s", rec.RiskLevel)
			line("")
			line("**免责声明**: %s", rec.Disclaimer)
			line("")
		}
	}
	return b.String()
}

func renderText(r *model.Report) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("《新闻联播》分析报告 - %s", r.Date)
	line("生成时间: %s", r.GeneratedAt.Format(timeLayout))
	line("")
	line("市场情绪:")
	line("  评分: %d/100", r.Sentiment.Score)
	line("  分类: %s", r.Sentiment.Category)
	line("  强度: %s", r.Sentiment.Intensity)
	line("")
	line("关键新闻:")
	for _, news := range r.Sentiment.KeyNews {
		line("  - %s", news)
	}
	line("")
	line("经济发展趋势:")
	line("  %s", r.Trends.Summary)
	line("")

	for _, section := range []struct {
		title string
		items []string
	}{
		{"政策方向", r.Trends.Policies},
		{"热点行业", r.Trends.Industries},
	} {
		if len(section.items) == 0 {
			continue
		}
		line("%s:", section.title)
		for _, item := range section.items {
			line("  - %s", item)
		}
		line("")
	}

	if len(r.Recommendations) > 0 {
		line("推荐建议:")
		for _, rec := range r.Recommendations {
			line("  %s: %s", rec.Industry, rec.Reason)
			if len(rec.Companies) > 0 {
				line("  相关A股头部公司:")
				for _, c := range rec.Companies {
					line("    - %s", c)
				}
			}
			line("  风险等级: %s", rec.RiskLevel)
			line("  %s", rec.Disclaimer)
			line("")
		}
	}
	return b.String()
}

func renderCSV(r *model.Report) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := [][]string{
		{"日期", "情绪评分", "情绪分类", "趋势总结"},
		{r.Date, strconv.Itoa(r.Sentiment.Score), string(r.Sentiment.Category), r.Trends.Summary},
	}
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	return buf.String(), nil
}
