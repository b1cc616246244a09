package ui

// Skin names a visual theme preset.
type Skin string

// Skins.
const (
	SkinDefault Skin = "default"
	SkinBlue    Skin = "blue"
	SkinEmerald Skin = "emerald"
	SkinAmber   Skin = "amber"
	SkinViolet  Skin = "violet"
	SkinRose    Skin = "rose"
	SkinTeal    Skin = "teal"
	SkinSlate   Skin = "slate"
	SkinOcean   Skin = "ocean"
	SkinSunset  Skin = "sunset"
	SkinAurora  Skin = "aurora"
)

// Preset describes a skin for pickers.
type Preset struct {
	Value       Skin   `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var presets = []Preset{
	{Value: SkinDefault, Label: "默认", Description: "经典黑白配色"},
	{Value: SkinBlue, Label: "蓝色", Description: "专业科技感"},
	{Value: SkinEmerald, Label: "翡翠", Description: "清新自然"},
	{Value: SkinAmber, Label: "琥珀", Description: "温暖活力"},
	{Value: SkinViolet, Label: "紫罗兰", Description: "优雅神秘"},
	{Value: SkinRose, Label: "玫瑰", Description: "热情浪漫"},
	{Value: SkinTeal, Label: "青色", Description: "平静专注"},
	{Value: SkinSlate, Label: "石板", Description: "中性专业"},
	{Value: SkinOcean, Label: "海洋", Description: "深邃宁静"},
	{Value: SkinSunset, Label: "日落", Description: "温暖橙红"},
	{Value: SkinAurora, Label: "极光", Description: "梦幻多彩"},
}

// Presets returns every skin in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// Valid reports whether s is a known skin.
func (s Skin) Valid() bool {
	for _, p := range presets {
		if p.Value == s {
			return true
		}
	}
	return false
}
