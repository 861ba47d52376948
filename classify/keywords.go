package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"compass/types"
)

// Source reliability tiers.
const (
	TierOfficial   = "official"
	TierWire       = "wire"
	TierSpecialist = "specialist"
	TierMedia      = "media"
)

// Tiers lists the reliability tiers from most to least authoritative.
var Tiers = []string{TierOfficial, TierWire, TierSpecialist, TierMedia}

// Terms is a bilingual keyword list.
type Terms struct {
	EN []string `yaml:"en"`
	ZH []string `yaml:"zh"`
}

// SourceTerms maps one tier to the names and domains that belong to it.
type SourceTerms struct {
	Names   Terms    `yaml:"names"`
	Domains []string `yaml:"domains"`
}

// Modifier is a group of severity keywords. A group adds its weight once no
// matter how many of its terms appear.
type Modifier struct {
	Name   string `yaml:"name"`
	Weight int    `yaml:"weight"`
	Terms  `yaml:",inline"`
}

// Keywords holds every table the classifier consults.
type Keywords struct {
	Sources    map[string]SourceTerms   `yaml:"sources"`
	Categories map[types.Category]Terms `yaml:"categories"`
	Modifiers  []Modifier               `yaml:"severity_modifiers"`
}

// LoadKeywords reads a YAML keyword file. Sections present in the file replace
// the matching default section; absent sections keep the defaults.
func LoadKeywords(path string) (Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("failed to read keyword file: %w", err)
	}
	var override Keywords
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Keywords{}, fmt.Errorf("failed to parse keyword file %s: %w", path, err)
	}

	kw := DefaultKeywords()
	if len(override.Sources) > 0 {
		kw.Sources = override.Sources
	}
	if len(override.Categories) > 0 {
		for cat := range override.Categories {
			if !cat.Valid() {
				return Keywords{}, fmt.Errorf("unknown category %q in %s", cat, path)
			}
		}
		kw.Categories = override.Categories
	}
	if len(override.Modifiers) > 0 {
		kw.Modifiers = override.Modifiers
	}
	return kw, nil
}

// DefaultKeywords returns a fresh copy of the built-in tables.
func DefaultKeywords() Keywords {
	return Keywords{
		Sources: map[string]SourceTerms{
			TierOfficial: {
				Names: Terms{
					EN: []string{"Global Affairs Canada", "PMO", "State Council", "MOFCOM", "PBOC", "MFA",
						"Taiwan Ministry of National Defense", "Xinhua", "CAC", "SAMR"},
					ZH: []string{"加拿大全球事务部", "总理办公室", "国务院", "商务部", "中国人民银行", "外交部",
						"台湾国防部", "新华社", "网信办", "市场监管总局"},
				},
				Domains: []string{"international.gc.ca", "pm.gc.ca", "canada.ca", "gov.cn", "mofcom.gov.cn",
					"fmprc.gov.cn", "pbc.gov.cn", "xinhuanet.com", "news.cn"},
			},
			TierWire: {
				Names: Terms{
					EN: []string{"Reuters", "AP", "AFP", "Bloomberg", "Nikkei Asia"},
					ZH: []string{"路透社", "美联社", "法新社", "彭博"},
				},
				Domains: []string{"reuters.com", "apnews.com", "afp.com", "bloomberg.com", "asia.nikkei.com"},
			},
			TierSpecialist: {
				Names: Terms{
					EN: []string{"CSIS", "Sinocism", "China Brief", "MERICS", "OSINT", "The Diplomat", "Asia Times"},
					ZH: []string{"加拿大安全情报局", "开源情报"},
				},
				Domains: []string{"csis.org", "sinocism.com", "jamestown.org", "merics.org", "thediplomat.com", "asiatimes.com"},
			},
			TierMedia: {
				Names: Terms{
					EN: []string{"Globe and Mail", "CBC", "South China Morning Post", "SCMP", "BBC"},
					ZH: []string{"环球邮报", "南华早报"},
				},
				Domains: []string{"theglobeandmail.com", "cbc.ca", "scmp.com", "bbc.com", "bbc.co.uk"},
			},
		},
		Categories: map[types.Category]Terms{
			types.CategoryDiplomatic: {
				EN: []string{"ambassador", "diplomat", "diplomatic", "diplomacy", "embassy", "consulate", "consul",
					"summoned", "bilateral", "foreign minister", "foreign affairs", "envoy", "expelled",
					"persona non grata", "summit", "state visit"},
				ZH: []string{"大使", "外交", "使馆", "领事", "召见", "双边", "驱逐", "峰会", "访问"},
			},
			types.CategoryTrade: {
				EN: []string{"tariff", "tariffs", "trade", "export", "exports", "import", "imports", "wto",
					"dumping", "anti-dumping", "canola", "quota", "sanctions", "embargo", "trade deficit",
					"supply chain", "softwood lumber"},
				ZH: []string{"关税", "贸易", "出口", "进口", "制裁", "禁运", "反倾销", "油菜籽"},
			},
			types.CategoryMilitary: {
				EN: []string{"military", "pla", "navy", "army", "warship", "missile", "exercise", "drills",
					"fighter jet", "bomber", "taiwan strait", "troops", "defence", "defense", "frigate", "norad"},
				ZH: []string{"军事", "解放军", "海军", "军舰", "导弹", "演习", "台湾海峡", "国防", "战斗机"},
			},
			types.CategoryTechnology: {
				EN: []string{"huawei", "5g", "semiconductor", "semiconductors", "chip", "chips", "rare earth",
					"gallium", "germanium", "artificial intelligence", "ai", "cyber", "cybersecurity",
					"quantum", "tiktok", "critical minerals"},
				ZH: []string{"华为", "半导体", "芯片", "稀土", "镓", "锗", "人工智能", "网络安全", "量子"},
			},
			types.CategoryPolitical: {
				EN: []string{"parliament", "legislation", "election", "elections", "foreign interference",
					"ccp", "communist party", "politburo", "bill", "prime minister", "mp", "registry", "policy"},
				ZH: []string{"议会", "立法", "选举", "外国干预", "共产党", "政治局", "总理", "政策"},
			},
			types.CategoryEconomic: {
				EN: []string{"pboc", "interest rate", "reserve requirement", "gdp", "yuan", "renminbi",
					"inflation", "stimulus", "economy", "growth", "investment", "central bank", "property market"},
				ZH: []string{"央行", "利率", "经济", "人民币", "通胀", "投资", "增长"},
			},
			types.CategorySocial: {
				EN: []string{"university", "student", "students", "diaspora", "surveillance",
					"confucius institute", "cultural", "education", "human rights", "uyghur", "police station",
					"community"},
				ZH: []string{"大学", "学生", "侨民", "监控", "孔子学院", "文化", "教育", "人权", "维吾尔"},
			},
			types.CategoryLegal: {
				EN: []string{"extradition", "court", "judicial", "prosecution", "antitrust", "regulation",
					"samr", "compliance", "lawsuit", "sentenced", "trial", "ruling"},
				ZH: []string{"引渡", "法院", "司法", "起诉", "反垄断", "监管", "审判", "判决"},
			},
		},
		Modifiers: []Modifier{
			{
				Name:   "escalation",
				Weight: 3,
				Terms: Terms{
					EN: []string{"sanctions", "detention", "detained", "arrest", "arrested", "expelled", "expulsion",
						"crisis", "retaliation", "retaliatory", "ban", "banned", "confrontation", "threat",
						"espionage"},
					ZH: []string{"制裁", "拘留", "逮捕", "驱逐", "危机", "报复", "禁令", "对抗", "威胁", "间谍"},
				},
			},
			{
				Name:   "moderate_escalation",
				Weight: 2,
				Terms: Terms{
					EN: []string{"tension", "tensions", "dispute", "protest", "warning", "concern", "investigation",
						"inquiry", "tariff", "tariffs", "restrictions"},
					ZH: []string{"紧张", "争端", "抗议", "警告", "调查", "关税", "限制"},
				},
			},
			{
				Name:   "de_escalation",
				Weight: -2,
				Terms: Terms{
					EN: []string{"agreement", "cooperation", "dialogue", "normalized", "resolved", "eased",
						"talks", "released", "partnership"},
					ZH: []string{"协议", "合作", "对话", "缓和", "释放", "正常化"},
				},
			},
		},
	}
}
