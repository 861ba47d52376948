package entities

// DefaultEntities returns the built-in alias dictionary.
func DefaultEntities() []Entity {
	return []Entity{
		{ID: "xi_jinping", Type: TypePeople, EN: []string{"Xi Jinping", "President Xi"}, ZH: []string{"习近平", "习主席"}},
		{ID: "wang_yi", Type: TypePeople, EN: []string{"Wang Yi"}, ZH: []string{"王毅"}},
		{ID: "two_michaels", Type: TypePeople, EN: []string{"Two Michaels", "Michael Kovrig", "Michael Spavor"}, ZH: []string{"两个迈克尔", "康明凯", "斯帕弗"}},
		{ID: "meng_wanzhou", Type: TypePeople, EN: []string{"Meng Wanzhou"}, ZH: []string{"孟晚舟"}},
		{ID: "mofcom", Type: TypeInstitution, EN: []string{"MOFCOM", "Ministry of Commerce"}, ZH: []string{"商务部"}},
		{ID: "mfa", Type: TypeInstitution, EN: []string{"Ministry of Foreign Affairs", "MFA"}, ZH: []string{"外交部"}},
		{ID: "csis", Type: TypeInstitution, EN: []string{"CSIS", "Canadian Security Intelligence Service"}, ZH: []string{"加拿大安全情报局"}},
		{ID: "ufwd", Type: TypeInstitution, EN: []string{"United Front Work Department", "UFWD", "United Front"}, ZH: []string{"统战部", "统一战线工作部"}},
		{ID: "mss", Type: TypeInstitution, EN: []string{"Ministry of State Security"}, ZH: []string{"国家安全部"}},
		{ID: "global_affairs_canada", Type: TypeInstitution, EN: []string{"Global Affairs Canada"}, ZH: []string{"加拿大全球事务部"}},
		{ID: "huawei", Type: TypeOrg, EN: []string{"Huawei"}, ZH: []string{"华为"}},
		{ID: "tiktok", Type: TypeOrg, EN: []string{"TikTok", "ByteDance"}, ZH: []string{"抖音", "字节跳动"}},
		{ID: "canola", Type: TypeCommodity, EN: []string{"canola", "oilseed", "rapeseed"}, ZH: []string{"油菜籽", "菜籽"}},
		{ID: "rare_earths", Type: TypeCommodity, EN: []string{"rare earth", "gallium", "germanium"}, ZH: []string{"稀土", "镓", "锗"}},
		{ID: "softwood_lumber", Type: TypeCommodity, EN: []string{"softwood lumber", "softwood"}, ZH: []string{"软木"}},
	}
}
