package filtering

import "regexp"

var relevanceKeywords = []string{
	"china", "chinese", "beijing", "prc", "taiwan", "hong kong",
	"xinjiang", "tibet", "shanghai", "shenzhen", "guangdong",
	"xi jinping", "cpc", "pla", "state council", "npc",
	"huawei", "tiktok", "yuan", "renminbi",
	"south china sea", "one country two systems",
	"canada-china", "sino-canadian", "sino-",
	"中国", "中华", "北京", "台湾", "香港",
	"新疆", "西藏", "上海", "深圳", "广东",
	"习近平", "国务院", "全国人大", "政协",
	"外交部", "商务部", "人民银行",
	"华为", "人民币", "南海",
	"一带一路", "一国两制",
	"加拿大", "渥太华", "特鲁多",
	"臺灣", "台灣", "維吾爾", "兩岸",
	"國務院", "習近平", "華為",
	"中共", "党中央", "中央军委", "解放军",
	"发改委", "财政部", "央行",
	"軍售", "國防部", "立法院", "民進黨", "國民黨",
	"美台", "美方", "反共",
}

var highValueKeywords = []string{
	"canada-china", "canadian government", "ottawa", "trudeau", "carney",
	"global affairs canada", "parliament", "bill c-",
	"xi jinping", "state council", "politburo", "communist party",
	"foreign ministry", "mfa", "ministry of foreign affairs",
	"sanctions", "tariff", "trade war", "export ban", "entity list",
	"five eyes", "aukus", "quad", "indo-pacific", "south china sea",
	"huawei", "tiktok", "semiconductor", "rare earth", "5g",
	"cyber", "espionage", "interference", "national security",
	"uyghur", "xinjiang", "hong kong", "tibet", "human rights",
	"censorship", "democracy", "crackdown",
	"习近平", "国务院", "中央军委", "政治局", "中共中央",
	"外交部", "商务部", "发改委",
	"制裁", "关税", "贸易战", "南海", "台海", "两岸",
	"华为", "半导体", "芯片", "稀土", "网络安全",
	"加拿大", "渥太华", "特鲁多", "加中关系",
}

var (
	canadaKeywords = []string{
		"canada", "canadian", "ottawa", "trudeau",
		"canola", "huawei", "meng wanzhou",
		"five eyes", "norad", "arctic",
		"bilateral", "canada-china",
		"加拿大", "渥太华", "特鲁多",
	}
	chinaKeywords = []string{
		"china", "chinese", "beijing", "prc",
		"xi jinping", "hong kong", "taiwan",
		"xinjiang", "tibet", "cpc",
		"中国", "中华", "北京", "习近平", "台湾", "香港",
	}

	titleCanadaTerms = []string{"canada", "canadian", "ottawa", "加拿大", "渥太华"}
	titleChinaTerms  = []string{"china", "chinese", "beijing", "中国", "北京"}
)

var canadianSources = []string{
	"globe and mail", "cbc", "cbc politics", "national post",
	"macdonald-laurier", "global affairs canada", "parliament of canada",
	"canadian press", "toronto star",
}

var (
	officialSources = []string{"global affairs", "parliament", "xinhua", "mfa", "mofcom"}
	chineseSources  = []string{
		"人民日报", "新华", "环球时报", "财新", "澎湃", "界面", "36氪",
		"自由時報", "中央社", "香港電台", "南华早报",
		"中国数字时代", "rthk", "scmp",
	}
)

// pattern flags low-value content. When unless is set, a hit only counts if
// unless does not match the text after the last hit.
type pattern struct {
	match  *regexp.Regexp
	unless *regexp.Regexp
}

func (p pattern) found(text string) bool {
	hits := p.match.FindAllStringIndex(text, -1)
	if len(hits) == 0 {
		return false
	}
	if p.unless == nil {
		return true
	}
	return !p.unless.MatchString(text[hits[len(hits)-1][1]:])
}

func lowValue(expr string) pattern {
	return pattern{match: regexp.MustCompile(`(?i)` + expr)}
}

func lowValueUnless(expr, unless string) pattern {
	return pattern{match: regexp.MustCompile(`(?i)` + expr), unless: regexp.MustCompile(`(?i)` + unless)}
}

var lowValuePatterns = []pattern{
	lowValue(`\b(?:car accident|traffic accident|car crash|killed in.*(?:crash|accident))\b`),
	lowValue(`\b(?:crash kills?|dead in|dies? in|death toll)\b`),
	lowValue(`\b(?:murder|stabbing|assault|robbery|theft|arson)\b`),
	lowValue(`\b(?:celebrity|gossip|dating|romance|wedding|divorce)\b`),
	lowValue(`\b(?:sports? (?:star|team)|athlete|tournament|championship|world cup)\b`),
	lowValue(`\b(?:fossil|dinosaur|archaeological? find|excavation|paleontolog)\b`),
	lowValue(`\b(?:species discovered|new species|wildlife|biodiversity)\b`),
	lowValue(`ecological resilience|marsh ecosystem|alpine ecosystem`),
	lowValue(`\b(?:movie|film release|box office|streaming|concert|music video)\b`),
	lowValue(`\b(?:fashion|beauty|makeup|cosmetic|skincare)\b`),
	lowValue(`\b(?:food|restaurant|recipe|cuisine|chef)\b`),
	lowValueUnless(`\b(?:earthquake|typhoon|flood|landslide)\b`, `policy|aid|relief|government`),
	lowValue(`\b(?:black hole|white dwarf|neutron star|supernova|pulsar|quasar)\b`),
	lowValue(`\b(?:astronomy|astrophysics|cosmology|exoplanet|telescope|observatory)\b`),
	lowValue(`\b(?:galaxy|galaxies|light-year|stellar|celestial)\b`),
	lowValue(`\b(?:skating|medal|luge|bobsled|ski jump|figure skat|speed skat|winter olymp)\b`),
	lowValue(`\b(?:horse rac|jockey|turf|derby|stakes race)\b`),
	lowValue(`\b(?:viral|went viral|became famous|internet sensation)\b`),
	lowValue(`\b(?:new year.{0,10}market|lunar new year.{0,10}fair|spring festival.{0,10}market)\b`),
	lowValue(`\b(?:harry potter|hogwarts|draco malfoy|marvel|avengers|star wars|anime)\b`),
	lowValue(`车祸|交通事故|撞车|坠机`),
	lowValue(`谋杀|刺伤|袭击|抢劫|盗窃|纵火`),
	lowValue(`明星|八卦|绯闻|网红|偶像|选秀`),
	lowValue(`体育|运动员|锦标赛|世界杯|联赛|奥运`),
	lowValue(`化石|恐龙|考古|古生物`),
	lowValue(`黑洞|白矮星|中子星|超新星|天文|望远镜`),
	lowValue(`电影|票房|上映|综艺|音乐会|演唱会`),
	lowValue(`美妆|化妆品|护肤|时尚|服饰`),
	lowValue(`美食|餐厅|食谱|烹饪|菜谱`),
	lowValue(`暴雨|降雨|天气预报|气象预警|雷暴`),
	lowValue(`楼市|房价|预售|楼盘`),
	lowValueUnless(`房地产`, `政策|调控`),
	lowValue(`滑冰|金牌|奖牌|冬奥|雪橇|短道速滑|花样滑冰`),
	lowValue(`赛马|賽馬|马会|馬會|赛狗`),
	lowValue(`又火了|走红|爆红|刷屏`),
	lowValue(`年宵市场|年货|花市|庙会|春节见闻|新春见闻`),
	lowValue(`菜农|蔬菜.*万斤|水果.*万斤`),
}
