package reporter

import (
	"fmt"
	"strconv"

	"jshunter/pkg/store"
	"jshunter/pkg/utils"

	"github.com/pterm/pterm"
)

const urlWidth = 90

// PrintResults prints every section of the snapshot to the console.
func PrintResults(snap store.Snapshot) {
	printSummary(snap)

	utils.PrintSection("JavaScript Files")
	if len(snap.JS) == 0 {
		pterm.Info.Println("No JavaScript files found")
	} else {
		rows := pterm.TableData{{"URL", "Source", "Status"}}
		for _, a := range snap.JS {
			rows = append(rows, []string{
				utils.TruncateString(a.URL, urlWidth),
				utils.TruncateString(a.Source, 50),
				statusCell(a),
			})
		}
		pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}

	if len(snap.Links) > 0 {
		utils.PrintSection("URLs and APIs")
		rows := pterm.TableData{{"Type", "URL", "Status", "Title"}}
		for _, a := range snap.Links {
			u := utils.TruncateString(a.URL, urlWidth)
			if a.Sensitive {
				u = pterm.LightRed(u)
			}
			rows = append(rows, []string{a.Kind.String(), u, statusCell(a), utils.TruncateString(a.Title, 40)})
		}
		pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

		for _, a := range snap.Links {
			if a.Sensitive {
				utils.PrintSensitive(a.URL)
			}
		}
	}

	if len(snap.Findings) > 0 {
		utils.PrintSection("Sensitive Information")
		for _, f := range snap.Findings {
			for _, cat := range f.Categories() {
				for _, v := range f.Matches[cat] {
					pterm.Printfln("  %s  %s  %s", pterm.LightYellow(cat), v, pterm.Gray(f.Source))
				}
			}
		}
	}

	if len(snap.Domains) > 0 {
		utils.PrintSection("Domains")
		items := make([]pterm.BulletListItem, 0, len(snap.Domains))
		for _, d := range snap.Domains {
			items = append(items, pterm.BulletListItem{Level: 0, Text: d})
		}
		pterm.DefaultBulletList.WithItems(items).Render()
	}
}

// PrintCount prints only the headline numbers.
func PrintCount(c store.Counts) {
	pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"JS", "URL", "API", "Findings", "Domains"},
		{strconv.Itoa(c.JS), strconv.Itoa(c.URL), strconv.Itoa(c.API), strconv.Itoa(c.Findings), strconv.Itoa(c.Domains)},
	}).Render()
}

func printSummary(snap store.Snapshot) {
	var apis, sensitive int
	for _, a := range snap.Links {
		if a.Kind == store.KindAPI {
			apis++
			if a.Sensitive {
				sensitive++
			}
		}
	}

	utils.PrintSection("Summary")
	pterm.Info.Printfln("JS files: %d | URLs: %d | APIs: %d (%d sensitive) | Findings: %d | Domains: %d",
		len(snap.JS), len(snap.Links)-apis, apis, sensitive, len(snap.Findings), len(snap.Domains))
}

func statusCell(a store.Artifact) string {
	switch {
	case a.Status == 0:
		return "-"
	case a.SoftNotFound:
		return pterm.Gray(fmt.Sprintf("%d (soft 404)", a.Status))
	case a.Status >= 200 && a.Status < 300:
		return pterm.Green(strconv.Itoa(a.Status))
	case a.Status >= 300 && a.Status < 400:
		return pterm.Yellow(strconv.Itoa(a.Status))
	default:
		return pterm.LightRed(strconv.Itoa(a.Status))
	}
}
