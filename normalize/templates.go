package normalize

import (
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"compass/types"
)

// Severity tiers that pick a what-to-watch line.
const (
	TierCritical = "critical"
	TierHigh     = "high"
	TierDefault  = "default"
)

// Templates are the rule-based texts used when a signal carries no
// implications or quotable perspective of its own.
type Templates struct {
	Impact map[types.Category]types.Text
	Watch  map[string]map[types.Category]types.Text
	Canada map[types.Category]types.Text
	China  map[types.Category]types.Text
}

func bi(en, zh string) types.Text { return types.Bilingual(en, zh) }

// DefaultTemplates returns the built-in texts.
func DefaultTemplates() Templates {
	return Templates{
		Impact: map[types.Category]types.Text{
			types.CategoryDiplomatic: bi("Shifts the tone of Canada-China engagement and may affect consular and ministerial channels.", "影响加中接触的基调，可能波及领事和部长级渠道。"),
			types.CategoryTrade:      bi("Could affect Canadian exporters, market access and supply chains tied to China.", "可能影响加拿大出口商、市场准入以及与中国相关的供应链。"),
			types.CategoryMilitary:   bi("Bears on Canadian defence posture in the Indo-Pacific and allied commitments.", "关系到加拿大在印太地区的防务态势及盟友承诺。"),
			types.CategoryTechnology: bi("Touches Canadian technology security, research partnerships and export controls.", "涉及加拿大的技术安全、科研合作及出口管制。"),
			types.CategoryPolitical:  bi("May shape domestic debate in Ottawa over China policy.", "可能影响渥太华国内关于对华政策的辩论。"),
			types.CategoryEconomic:   bi("Has knock-on effects for Canadian investment and market exposure to China.", "对加拿大的投资及对华市场敞口产生连带影响。"),
			types.CategorySocial:     bi("Affects Chinese-Canadian communities, students and people-to-people ties.", "影响华裔加拿大人社区、留学生及民间往来。"),
			types.CategoryLegal:      bi("Raises legal and regulatory questions for Canadian institutions and citizens.", "给加拿大机构和公民带来法律及监管层面的问题。"),
		},
		Watch: map[string]map[types.Category]types.Text{
			TierCritical: {
				types.CategoryDiplomatic: bi("Watch for ambassador recalls, expulsions or suspended dialogue within days.", "关注未来数日内是否出现召回大使、驱逐外交官或中止对话。"),
				types.CategoryTrade:      bi("Watch for retaliatory measures and emergency support for affected sectors.", "关注报复性措施及对受影响行业的紧急支持。"),
				types.CategoryMilitary:   bi("Watch for escalation at sea or in the air and allied coordination.", "关注海空局势升级及盟友协调。"),
			},
			TierHigh: {
				types.CategoryDiplomatic: bi("Watch for formal protests and ministerial calls this week.", "关注本周的正式抗议和部长级通话。"),
				types.CategoryTrade:      bi("Watch for implementation dates and exemptions.", "关注实施日期及豁免安排。"),
				types.CategoryTechnology: bi("Watch for follow-on restrictions by allies.", "关注盟友的后续限制措施。"),
			},
			TierDefault: {
				types.CategoryDiplomatic: bi("Watch for official statements from Global Affairs Canada and the Chinese foreign ministry.", "关注加拿大全球事务部和中国外交部的官方表态。"),
				types.CategoryTrade:      bi("Watch for tariff notices, import data and industry responses.", "关注关税公告、进口数据及行业反应。"),
				types.CategoryMilitary:   bi("Watch for allied transits, exercises and defence statements.", "关注盟军过航、军演及防务声明。"),
				types.CategoryTechnology: bi("Watch for new export controls, security reviews and company responses.", "关注新的出口管制、安全审查及企业回应。"),
				types.CategoryPolitical:  bi("Watch for parliamentary debate and committee hearings.", "关注议会辩论和委员会听证。"),
				types.CategoryEconomic:   bi("Watch for market reaction and investment announcements.", "关注市场反应和投资公告。"),
				types.CategorySocial:     bi("Watch for community reaction and travel or visa advisories.", "关注社区反应以及旅行或签证提示。"),
				types.CategoryLegal:      bi("Watch for court rulings, appeals and regulatory guidance.", "关注法院裁决、上诉及监管指引。"),
			},
		},
		Canada: map[types.Category]types.Text{
			types.CategoryDiplomatic: bi("Ottawa seeks stable relations while defending Canadian interests and values.", "渥太华寻求稳定关系，同时维护加拿大的利益和价值观。"),
			types.CategoryTrade:      bi("Canada wants predictable, rules-based access for its exporters.", "加拿大希望其出口商获得可预期、基于规则的市场准入。"),
			types.CategoryMilitary:   bi("Canada stresses freedom of navigation and allied security.", "加拿大强调航行自由和盟友安全。"),
			types.CategoryTechnology: bi("Canada prioritizes protecting critical technology and research security.", "加拿大优先保护关键技术和科研安全。"),
			types.CategoryPolitical:  bi("Canadian officials frame the issue around sovereignty and democratic integrity.", "加拿大官员从主权和民主完整性的角度看待此事。"),
			types.CategoryEconomic:   bi("Canada weighs economic opportunity against national security risk.", "加拿大在经济机遇与国家安全风险之间权衡。"),
			types.CategorySocial:     bi("Canada emphasizes the rights and safety of affected communities.", "加拿大强调受影响社区的权利与安全。"),
			types.CategoryLegal:      bi("Canada points to the independence of its courts and the rule of law.", "加拿大强调其司法独立和法治。"),
		},
		China: map[types.Category]types.Text{
			types.CategoryDiplomatic: bi("Beijing calls for mutual respect and non-interference in internal affairs.", "北京呼吁相互尊重、不干涉内政。"),
			types.CategoryTrade:      bi("Beijing describes its measures as lawful responses to protect domestic industry.", "北京称其措施是保护国内产业的合法回应。"),
			types.CategoryMilitary:   bi("Beijing frames its activity as safeguarding sovereignty and territorial integrity.", "北京将其行动定位为维护主权和领土完整。"),
			types.CategoryTechnology: bi("Beijing opposes what it calls the politicization of technology and trade.", "北京反对其所称的科技和经贸问题政治化。"),
			types.CategoryPolitical:  bi("Beijing rejects the claims as interference in China's internal affairs.", "北京驳斥相关说法，称其干涉中国内政。"),
			types.CategoryEconomic:   bi("Beijing emphasizes win-win cooperation and open markets.", "北京强调合作共赢和开放市场。"),
			types.CategorySocial:     bi("Beijing says it protects the legitimate rights of Chinese citizens abroad.", "北京表示将维护海外中国公民的合法权益。"),
			types.CategoryLegal:      bi("Beijing says it handles cases in accordance with the law.", "北京表示依法处理相关案件。"),
		},
	}
}

// impact falls back to the diplomatic text for unknown categories.
func (t Templates) impact(c types.Category) types.Text {
	return lookup(t.Impact, c)
}

// watch picks the tier for sev, falling back to the default tier and then to
// the diplomatic line.
func (t Templates) watch(c types.Category, sev types.Severity) types.Text {
	tier := TierDefault
	switch sev {
	case types.SeverityCritical:
		tier = TierCritical
	case types.SeverityHigh:
		tier = TierHigh
	}
	if text, ok := t.Watch[tier][c]; ok {
		return text
	}
	return lookup(t.Watch[TierDefault], c)
}

func lookup(m map[types.Category]types.Text, c types.Category) types.Text {
	if text, ok := m[c]; ok {
		return text
	}
	return m[types.CategoryDiplomatic]
}

type pair struct {
	EN string `yaml:"en"`
	ZH string `yaml:"zh"`
}

type templateFile struct {
	Impact map[string]pair            `yaml:"impact"`
	Watch  map[string]map[string]pair `yaml:"watch"`
	Canada map[string]pair            `yaml:"canada_perspective"`
	China  map[string]pair            `yaml:"china_perspective"`
}

// LoadTemplates reads a YAML override and merges it over the defaults. An
// empty path returns the defaults.
func LoadTemplates(path string) (Templates, error) {
	t := DefaultTemplates()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read templates: %w", err)
	}
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return t, fmt.Errorf("failed to parse templates %s: %w", path, err)
	}

	merge(t.Impact, file.Impact)
	merge(t.Canada, file.Canada)
	merge(t.China, file.China)
	for tier, texts := range file.Watch {
		if t.Watch[tier] == nil {
			t.Watch[tier] = map[types.Category]types.Text{}
		}
		merge(t.Watch[tier], texts)
	}
	return t, nil
}

func merge(dst map[types.Category]types.Text, src map[string]pair) {
	overrides := make(map[types.Category]types.Text, len(src))
	for k, p := range src {
		overrides[types.Category(k)] = types.Bilingual(p.EN, p.ZH)
	}
	maps.Copy(dst, overrides)
}
