package feed

import (
	"strings"
	"unicode/utf8"
)

const (
	domesticEmptyMessage = "No domestic updates about BI / ChatBI / data / AI / competitors right now. Check the \"all\" tab or refresh."
	genericEmptyMessage  = "No items in this category yet. Try another tab or refresh."
)

// DomesticKeywords decide whether a domestic item is relevant enough to show.
var DomesticKeywords = []string{
	"BI", "chatBI", "ChatBI", "chat BI", "商业智能", "智能分析", "NL2SQL", "Text2SQL", "自然语言查询",
	"数据", "大数据", "数据分析", "数据处理", "数据智能", "dataagent", "DataAgent", "data agent",
	"AI", "人工智能", "大模型", "机器学习", "LLM", "语义层", "指标中台",
	"竞品", "ThoughtSpot", "Tableau", "Power BI", "帆软", "FineBI", "观远", "永洪", "Quick BI",
	"BI 工具", "分析平台", "对话式分析", "ask data", "conversational analytics",
}

type Filterer struct {
	keywords []string
}

func NewFilterer() *Filterer {
	return &Filterer{keywords: DomesticKeywords}
}

// Run selects the items shown under tab.
func (f *Filterer) Run(items []Item, tab string) []Item {
	if tab == "" || tab == TabAll {
		return items
	}

	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		if string(item.Category) != tab {
			continue
		}
		if item.Category == CategoryDomestic && !f.IsDomesticRelevant(item) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

func (f *Filterer) IsDomesticRelevant(item Item) bool {
	text := f.getFieldValue(item)
	if text == "" {
		return false
	}

	for _, keyword := range f.keywords {
		if utf8.RuneCountInString(keyword) <= 2 {
			if f.matchesFilter(text, keyword) {
				return true
			}
			continue
		}
		if strings.Contains(text, keyword) || f.matchesFilter(text, keyword) {
			return true
		}
	}
	return false
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(item Item) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{item.Title, item.Description, item.TitleTranslated, item.DescriptionTranslated} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

func EmptyMessage(tab string) string {
	if tab == string(CategoryDomestic) {
		return domesticEmptyMessage
	}
	return genericEmptyMessage
}

// ValidTab reports whether tab names "all" or a known category.
func ValidTab(tab string) bool {
	return tab == TabAll || Category(tab).Valid()
}
