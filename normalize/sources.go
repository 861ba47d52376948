package normalize

import (
	"slices"
	"strings"

	"compass/types"
)

var chineseSourceNames = []string{
	"xinhua", "新华社", "新华网", "people's daily", "人民日报",
	"global times", "环球时报", "cgtn", "china daily", "中国日报",
	"mfa china", "mofcom", "state council", "国务院", "商务部", "外交部",
	"caixin", "财新", "财新网", "the paper", "澎湃", "澎湃新闻",
	"jiemian", "界面", "界面新闻", "36kr", "36氪", "yibang", "亿邦动力",
	"south china morning post", "scmp", "南华早报",
	"rthk", "香港電台", "hong kong free press", "hkfp",
	"liberty times", "自由時報", "cna", "中央社", "focus taiwan",
	"taipei times", "taiwan news", "united daily news", "聯合報",
	"china digital times", "中国数字时代",
	"bbc china", "bbc中文", "bbc chinese",
}

var chineseDomains = []string{
	"xinhua", "news.cn", "people.com.cn", "globaltimes.cn",
	"chinadaily.com.cn", "cgtn.com", "scmp.com", "thepaper.cn",
	"caixin.com", "jiemian.com", "36kr.com", "yibang.com",
	"cna.com.tw", "focustaiwan.tw", "taipeitimes.com",
	"rthk.hk", "hongkongfp.com",
	"bbc.com/zhongwen", "bbc.co.uk/zhongwen",
}

var chineseRegions = map[string]bool{"mainland": true, "taiwan": true, "hongkong": true}

// sourceNames maps Chinese outlet names to the English name shown beside them.
var sourceNames = map[string]string{
	"人民日报":   "People's Daily",
	"新华社":    "Xinhua",
	"新华网":    "Xinhua",
	"环球时报":   "Global Times",
	"中国日报":   "China Daily",
	"外交部":    "MFA China",
	"商务部":    "MOFCOM",
	"国务院":    "State Council",
	"财新":     "Caixin",
	"财新网":    "Caixin",
	"澎湃":     "The Paper",
	"澎湃新闻":   "The Paper",
	"界面":     "Jiemian",
	"界面新闻":   "Jiemian",
	"36氪":    "36Kr",
	"亿邦动力":   "Yibang",
	"南华早报":   "SCMP",
	"香港電台":   "RTHK",
	"香港电台":   "RTHK",
	"自由時報":   "Liberty Times",
	"自由时报":   "Liberty Times",
	"中央社":    "CNA Taiwan",
	"聯合報":    "United Daily News",
	"联合报":    "United Daily News",
	"中国数字时代": "China Digital Times",
	"BBC中文":  "BBC Chinese",
	"BBC中文网": "BBC Chinese",
	"德国之声":   "DW Chinese",
	"德國之聲":   "DW Chinese",
}

// sourceNameKeys is sourceNames' keys, longest first, so substring lookups
// prefer the most specific outlet.
var sourceNameKeys = func() []string {
	keys := make([]string, 0, len(sourceNames))
	for k := range sourceNames {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return keys
}()

// IsChineseSource reports whether a signal comes from a Chinese-language or
// Greater China outlet, by language hint, region hint, outlet name or URL.
func IsChineseSource(s types.Signal) bool {
	if s.Language == "zh" || chineseRegions[s.Region] {
		return true
	}
	source := strings.ToLower(s.Source.EN + " " + s.Source.ZH)
	for _, name := range chineseSourceNames {
		if strings.Contains(source, name) {
			return true
		}
	}
	if link := strings.ToLower(s.Link()); link != "" {
		for _, domain := range chineseDomains {
			if strings.Contains(link, domain) {
				return true
			}
		}
	}
	return false
}

// TranslateSourceName pairs an outlet name with its English form. Unknown
// names fill both sides.
func TranslateSourceName(source string) types.Text {
	if source == "" {
		return types.Bilingual("", "")
	}
	if en, ok := sourceNames[source]; ok {
		return types.Bilingual(en, source)
	}
	for _, zh := range sourceNameKeys {
		if strings.Contains(source, zh) {
			return types.Bilingual(sourceNames[zh], source)
		}
	}
	return types.Bilingual(source, source)
}
