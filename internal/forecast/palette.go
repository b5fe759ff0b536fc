package forecast

// Palette is the page color scheme for a condition and time of day.
type Palette struct {
	Background string
	Card       string
	CardBorder string
	Text       string
	TextMuted  string
	Accent     string
	AccentAlt  string
}

// DefaultPalette is the fallback dark theme.
var DefaultPalette = Palette{
	Background: "#0f0f1a",
	Card:       "#1a1a2e",
	CardBorder: "#2a2a4e",
	Text:       "#eeeeee",
	TextMuted:  "#8a8a9a",
	Accent:     "#a6d8f7",
	AccentAlt:  "#e07a5f",
}

// nightPalette is shared by every condition after dark.
var nightPalette = Palette{
	Background: "#060810",
	Card:       "#101420",
	CardBorder: "#1a2030",
	Text:       "#d0d8e8",
	TextMuted:  "#6070a0",
	Accent:     "#6688bb",
	AccentAlt:  "#cc7766",
}

// dayPalettes holds one light scheme per condition. Dawn and dusk reuse it
// with a darker background from twilightBackgrounds.
var dayPalettes = map[WeatherCondition]Palette{
	ConditionClearWarm: {
		Background: "#f5f0e8", Card: "#ffffff", CardBorder: "#e0d8c8",
		Text: "#2a2520", TextMuted: "#706050", Accent: "#d07020", AccentAlt: "#c04010",
	},
	ConditionClearCool: {
		Background: "#e8f0f5", Card: "#ffffff", CardBorder: "#c8d8e8",
		Text: "#1a2530", TextMuted: "#506070", Accent: "#2080b0", AccentAlt: "#c06030",
	},
	ConditionPartlyCloudy: {
		Background: "#eceff2", Card: "#ffffff", CardBorder: "#d0d6dc",
		Text: "#202830", TextMuted: "#5a6670", Accent: "#3a80b0", AccentAlt: "#c06a40",
	},
	ConditionMostlyCloudy: {
		Background: "#dfe3e6", Card: "#f4f6f7", CardBorder: "#c0c8cc",
		Text: "#222a30", TextMuted: "#5a6468", Accent: "#4a7890", AccentAlt: "#b0684a",
	},
	ConditionLightRain: {
		Background: "#d8e0e6", Card: "#eef2f5", CardBorder: "#b8c6d0",
		Text: "#1c2630", TextMuted: "#4c5c68", Accent: "#2f6f98", AccentAlt: "#b06040",
	},
	ConditionHeavyRain: {
		Background: "#2a3440", Card: "#36424e", CardBorder: "#4a5866",
		Text: "#e6eef4", TextMuted: "#98a8b4", Accent: "#7ab0d8", AccentAlt: "#e08a66",
	},
	ConditionStorm: {
		Background: "#1e2230", Card: "#2a3040", CardBorder: "#3c4458",
		Text: "#eceff6", TextMuted: "#8c94aa", Accent: "#b09ce0", AccentAlt: "#f0a040",
	},
	ConditionSnow: {
		Background: "#f2f6fa", Card: "#ffffff", CardBorder: "#d6e0ea",
		Text: "#18222e", TextMuted: "#56687a", Accent: "#3a88c8", AccentAlt: "#b86a58",
	},
	ConditionFog: {
		Background: "#e4e6e8", Card: "#f4f5f6", CardBorder: "#cccfd2",
		Text: "#2a2e32", TextMuted: "#6a7076", Accent: "#607888", AccentAlt: "#a87060",
	},
	ConditionHot: {
		Background: "#fbefe0", Card: "#fff8f0", CardBorder: "#f0d8b8",
		Text: "#30200e", TextMuted: "#806040", Accent: "#e06010", AccentAlt: "#c02010",
	},
	ConditionFrost: {
		Background: "#e4ecf4", Card: "#f4f8fc", CardBorder: "#c4d4e4",
		Text: "#102030", TextMuted: "#406080", Accent: "#2080b8", AccentAlt: "#c06040",
	},
}

var twilightBackgrounds = map[TimeOfDay]string{
	TimeDawn: "#2a2520",
	TimeDusk: "#201820",
}

// GetPalette returns the color palette for a weather condition and time of day.
func GetPalette(condition WeatherCondition, tod TimeOfDay) Palette {
	if tod == TimeNight {
		return nightPalette
	}
	p, ok := dayPalettes[condition]
	if !ok {
		return DefaultPalette
	}
	if bg, ok := twilightBackgrounds[tod]; ok {
		p = Palette{
			Background: bg,
			Card:       "#3a3530",
			CardBorder: "#554a40",
			Text:       "#fff8f0",
			TextMuted:  "#a09080",
			Accent:     p.Accent,
			AccentAlt:  p.AccentAlt,
		}
	}
	return p
}
