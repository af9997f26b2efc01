package utils

import "github.com/pterm/pterm"

// PrintBanner prints the jshunter banner
func PrintBanner(version string) {
	banner := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("JS", pterm.NewStyle(pterm.FgLightCyan)),
		pterm.NewLettersFromStringWithStyle("HUNTER", pterm.NewStyle(pterm.FgLightMagenta)),
	)
	banner.Render()

	pterm.DefaultCenter.Printf("v%s - JavaScript & Endpoint Discovery\n", version)
	pterm.DefaultCenter.Println(pterm.LightYellow("JS Mining | API Endpoints | Secret Detection"))
	pterm.Println()
}

// PrintCompactBanner prints a compact banner for CI/CD
func PrintCompactBanner(version string) {
	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgDarkGray)).
		WithTextStyle(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold)).
		Printf(" jshunter v%s ", version)
	pterm.Println()
}

// PrintSection prints a section header
func PrintSection(title string) {
	pterm.DefaultSection.Println(title)
}

// PrintSensitive highlights an endpoint that matched the sensitive-path list.
func PrintSensitive(url string) {
	pterm.NewStyle(pterm.FgRed, pterm.Bold).Printf("[SENSITIVE API] ")
	pterm.Println(url)
}
