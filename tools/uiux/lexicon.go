package uiux

import (
	"slices"
	"strings"
	"unicode"
)

// zhTriggers mark a strong UI/UX intent in Chinese text. Style adjectives on
// their own are left out so they do not trigger suggestions.
var zhTriggers = []string{
	"美化", "优化", "改版", "重构",
	"界面", "页面", "登录", "注册", "落地页", "仪表盘",
	"布局", "配色", "颜色", "色彩", "字体", "排版", "动效", "动画", "交互",
	"按钮", "组件", "图标", "导航", "表单", "弹窗", "卡片", "列表", "表格", "图表",
	"无障碍", "可访问性", "可用性", "易用性", "一致性", "对齐", "间距", "响应式", "适配",
}

// enTriggers are matched as whole lowercase tokens.
var enTriggers = []string{
	"ui", "ux", "design", "redesign", "beautify", "layout", "style", "theme",
	"color", "palette", "typography", "font", "landing", "dashboard", "button",
	"form", "animation", "responsive", "accessibility", "tailwind", "css",
}

// zhDomainHints map Chinese keywords to a search domain. First match wins.
var zhDomainHints = []struct{ keyword, domain string }{
	{"配色", "color"}, {"颜色", "color"}, {"色彩", "color"}, {"色板", "color"},
	{"字体", "typography"}, {"排版", "typography"}, {"字重", "typography"}, {"字号", "typography"},
	{"图表", "chart"}, {"可视化", "chart"}, {"趋势图", "chart"},
	{"落地页", "landing"}, {"着陆页", "landing"}, {"首页", "landing"},
	{"图标", "icons"},
	{"无障碍", "ux"}, {"可访问性", "ux"}, {"可用性", "ux"}, {"易用性", "ux"}, {"交互", "ux"},
	{"提示词", "prompt"},
	{"性能", "react"},
}

// enDomainHints map English tokens to a search domain.
var enDomainHints = map[string]string{
	"color": "color", "colour": "color", "palette": "color", "contrast": "color",
	"font": "typography", "typography": "typography", "heading": "typography",
	"chart": "chart", "graph": "chart", "visualization": "chart",
	"landing": "landing", "hero": "landing", "cta": "landing",
	"icon": "icons", "icons": "icons", "svg": "icons",
	"accessibility": "ux", "usability": "ux", "wcag": "ux", "ux": "ux",
	"prompt": "prompt", "tailwind": "prompt", "css": "prompt",
	"react": "react", "nextjs": "react",
	"web": "web",
	"saas": "product", "product": "product", "ecommerce": "product",
}

const fallbackDomain = "style"

// zhExpansions add English tokens for Chinese phrases so catalog search
// matches mixed-language queries.
var zhExpansions = []struct {
	phrase string
	terms  []string
}{
	{"优雅", []string{"elegant", "refined", "premium", "minimalism", "swiss", "serif"}},
	{"高级", []string{"premium", "luxury", "elegant", "minimalism"}},
	{"专业", []string{"professional", "enterprise", "saas"}},
	{"简约", []string{"minimal", "minimalism", "clean"}},
	{"极简", []string{"minimal", "minimalism", "clean"}},
	{"清爽", []string{"clean", "minimal", "spacious"}},
	{"现代", []string{"modern", "clean", "minimal"}},
	{"科技感", []string{"futuristic", "neon", "hud", "cyberpunk", "retro-futurism", "aurora", "vaporwave"}},
	{"科幻", []string{"futuristic", "hud", "retro-futurism"}},
	{"赛博", []string{"cyberpunk", "neon", "retro-futurism"}},
	{"霓虹", []string{"neon", "glow"}},
	{"渐变", []string{"gradient", "aurora", "mesh"}},
	{"质感", []string{"premium", "luxury", "glassmorphism"}},
	{"未来", []string{"futuristic", "neon", "hud"}},
	{"暗黑", []string{"dark", "oled", "night"}},
	{"深色", []string{"dark", "oled", "night"}},
	{"毛玻璃", []string{"glassmorphism", "blur", "glass"}},
	{"玻璃", []string{"glassmorphism", "glass", "blur"}},
	{"新拟物", []string{"neumorphism", "soft", "embossed"}},
	{"扁平", []string{"flat", "design"}},
	{"新粗野", []string{"neubrutalism", "brutalism"}},
	{"粗野", []string{"brutalism", "stark"}},
	{"复古", []string{"retro", "vintage"}},
	{"可爱", []string{"playful", "soft"}},
	{"活泼", []string{"playful", "vibrant"}},
	{"立体", []string{"hyperrealism"}},
	{"登录", []string{"login", "auth", "signin"}},
	{"注册", []string{"signup", "register"}},
	{"落地页", []string{"landing", "cta", "hero", "conversion"}},
	{"仪表盘", []string{"dashboard", "analytics", "kpi"}},
	{"配色", []string{"color", "palette", "contrast"}},
	{"字体", []string{"typography", "font", "heading"}},
	{"排版", []string{"typography", "hierarchy", "heading"}},
	{"动效", []string{"animation", "motion", "transition"}},
	{"交互", []string{"usability", "navigation", "focus"}},
	{"无障碍", []string{"accessibility", "wcag", "aria"}},
	{"图表", []string{"chart", "graph", "visualization"}},
	{"图标", []string{"icon", "icons", "svg"}},
	{"按钮", []string{"button", "cta"}},
	{"表单", []string{"form", "input"}},
	{"间距", []string{"spacing", "grid"}},
	{"对齐", []string{"alignment", "grid"}},
}

// enSynonyms widen single English tokens.
var enSynonyms = map[string][]string{
	"modern":        {"contemporary", "clean", "minimal"},
	"futuristic":    {"neon", "cyberpunk", "hud"},
	"elegant":       {"refined", "premium", "luxury"},
	"glassmorphism": {"glass", "blur", "liquid"},
	"neumorphism":   {"soft", "embossed", "debossed"},
	"aurora":        {"gradient", "mesh", "iridescent"},
	"cyberpunk":     {"neon", "hud", "vaporwave", "retro-futurism"},
	"brutalism":     {"neubrutalism", "stark", "raw"},
	"dashboard":     {"analytics", "kpi", "chart"},
	"landing":       {"hero", "cta", "conversion"},
	"login":         {"auth", "signin"},
}

// tokens splits text into lowercase words of letters, digits and hyphens.
// Han runs are kept whole.
func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-')
	})
}

// DetectDomain picks the search domain for a query, preferring Chinese
// hints, then English tokens, then the style catalog.
func DetectDomain(query string) string {
	lower := strings.ToLower(query)
	for _, hint := range zhDomainHints {
		if strings.Contains(lower, hint.keyword) {
			return hint.domain
		}
	}
	for _, tok := range tokens(lower) {
		if domain, ok := enDomainHints[tok]; ok {
			return domain
		}
	}
	return fallbackDomain
}

// ExpandQuery returns the query's own tokens followed by English expansions
// for Chinese phrases and synonyms for English tokens, without duplicates.
func ExpandQuery(query string) []string {
	var terms []string
	add := func(t string) {
		if t != "" && !slices.Contains(terms, t) {
			terms = append(terms, t)
		}
	}

	own := tokens(query)
	for _, tok := range own {
		add(tok)
	}
	lower := strings.ToLower(query)
	for _, exp := range zhExpansions {
		if strings.Contains(lower, exp.phrase) {
			for _, t := range exp.terms {
				add(t)
			}
		}
	}
	for _, tok := range own {
		for _, t := range enSynonyms[tok] {
			add(t)
		}
	}
	return terms
}

// SuggestResult reports whether text reads like a UI/UX request.
type SuggestResult struct {
	ShouldSuggest   bool     `json:"should_suggest"`
	MatchedKeywords []string `json:"matched_keywords"`
	Domain          string   `json:"domain,omitempty"`
}

// Suggest scans text for UI/UX trigger words.
func Suggest(text string) SuggestResult {
	matched := []string{}
	lower := strings.ToLower(text)
	for _, trigger := range zhTriggers {
		if strings.Contains(lower, trigger) {
			matched = append(matched, trigger)
		}
	}
	words := tokens(lower)
	for _, trigger := range enTriggers {
		if slices.Contains(words, trigger) {
			matched = append(matched, trigger)
		}
	}
	result := SuggestResult{ShouldSuggest: len(matched) > 0, MatchedKeywords: matched}
	if result.ShouldSuggest {
		result.Domain = DetectDomain(text)
	}
	return result
}
