package chart

// Theme is an immutable palette value. Reconfiguration swaps the whole
// value; nothing mutates a shared palette map in place.
type Theme struct {
	Name       string `json:"name"`
	Background string `json:"background"`
	Grid       string `json:"grid"`
	Text       string `json:"text"`
	UpColor    string `json:"up_color"`
	DownColor  string `json:"down_color"`
	LineColor  string `json:"line_color"`
	AreaTop    string `json:"area_top"`
	AreaBottom string `json:"area_bottom"`
}

var darkTheme = Theme{
	Name:       "dark",
	Background: "#131722",
	Grid:       "#1e222d",
	Text:       "#d1d4dc",
	UpColor:    "#26a69a",
	DownColor:  "#ef5350",
	LineColor:  "#2962ff",
	AreaTop:    "rgba(41,98,255,0.28)",
	AreaBottom: "rgba(41,98,255,0.02)",
}

var lightTheme = Theme{
	Name:       "light",
	Background: "#ffffff",
	Grid:       "#f0f3fa",
	Text:       "#191919",
	UpColor:    "#089981",
	DownColor:  "#f23645",
	LineColor:  "#2962ff",
	AreaTop:    "rgba(41,98,255,0.20)",
	AreaBottom: "rgba(41,98,255,0.01)",
}

// ThemeByName returns the named theme, falling back to dark for unknown
// names. Malformed persisted preferences end up here, so the fallback is
// silent — never an error to the caller.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return lightTheme
	default:
		return darkTheme
	}
}
