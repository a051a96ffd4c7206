package uiux

import (
	"fmt"
	"slices"
	"strings"
)

func localize(lang Lang, zh, en string) string {
	if lang.orDefault() == LangEn {
		return en
	}
	return zh
}

func errorText(lang Lang, message string) string {
	return localize(lang, "发生错误: "+message, "Error: "+message)
}

func beautifyText(lang Lang) string {
	return localize(lang, "已生成 UI 美化建议。", "UI beautify suggestions generated.")
}

func searchText(lang Lang, mode Mode, r SearchResult) string {
	if mode == ModeBeautify {
		return beautifyText(lang)
	}
	return localize(lang,
		fmt.Sprintf("已获取检索结果，领域：%s，共 %d 条。", r.Domain, r.Count),
		fmt.Sprintf("Search completed. Domain: %s. Results: %d.", r.Domain, r.Count))
}

func stackText(lang Lang, r SearchResult) string {
	stack := r.Stack
	if stack == "" {
		stack = "-"
	}
	return localize(lang,
		fmt.Sprintf("已获取栈指南：%s，共 %d 条。", stack, r.Count),
		fmt.Sprintf("Stack guidelines: %s. Results: %d.", stack, r.Count))
}

func designSystemText(lang Lang, mode Mode, name string, persisted bool) string {
	if mode == ModeBeautify {
		return beautifyText(lang)
	}
	if persisted {
		return localize(lang,
			fmt.Sprintf("已生成并写入设计系统：%s。", name),
			fmt.Sprintf("Design system generated and persisted: %s.", name))
	}
	return localize(lang,
		fmt.Sprintf("已生成设计系统建议：%s。", name),
		fmt.Sprintf("Design system recommendations generated: %s.", name))
}

func suggestText(lang Lang, r SuggestResult) string {
	if !r.ShouldSuggest {
		return localize(lang, "暂无明显 UI/UX 需求。", "No strong UI/UX signal detected.")
	}
	keywords := strings.Join(r.MatchedKeywords, ", ")
	return localize(lang,
		fmt.Sprintf("建议使用 UI/UX 工具，匹配关键词：%s。", keywords),
		fmt.Sprintf("UI/UX tool suggested. Matched keywords: %s.", keywords))
}

// rowsText lists rows as numbered lines of "column: value" pairs in column
// order.
func rowsText(rows []map[string]string) string {
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		cols := make([]string, 0, len(row))
		for col := range row {
			cols = append(cols, col)
		}
		slices.Sort(cols)
		pairs := make([]string, 0, len(cols))
		for _, col := range cols {
			pairs = append(pairs, col+": "+row[col])
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.Join(pairs, " | ")))
	}
	return strings.Join(lines, "\n")
}
