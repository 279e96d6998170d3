package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"

	"orders-lake/internal/domain"
)

const stylesheet = `
body { font-family: Inter, sans-serif; margin: 2em; background-color: #f4f4f9; color: #24292f; }
h1 { color: #333; }
h2 { color: #555; border-bottom: 2px solid #ddd; padding-bottom: 5px; }
table { border-collapse: collapse; width: 80%; margin-top: 20px; box-shadow: 0 2px 5px rgba(0,0,0,0.1); }
th, td { border: 1px solid #ccc; padding: 10px; text-align: left; }
th { background-color: #007bff; color: white; }
tr:nth-child(even) { background-color: #f2f2f2; }
.muted { color: #57606a; font-size: 0.875em; }
.section-error { color: #cf222e; }
.filter { margin: 1em 0; }
.filter input { padding: 6px 10px; width: 320px; }
`

func appPage(title string, body ...Node) Node {
	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title)),
			Link(Rel("icon"), Href("data:,")),
			StyleEl(Raw(stylesheet)),
			Script(
				Type("module"),
				Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"),
			),
		),
		Body(Group(body)),
	)
}

func dashboardPage(report domain.Report) Node {
	title := report.Title
	if title == "" {
		title = "Orders Dashboard"
	}

	sections := make([]Node, 0, len(report.Sections))
	for _, sec := range report.Sections {
		sections = append(sections, sectionNode(sec))
	}

	return appPage(title,
		H1(Text(title)),
		P(Class("muted"), Text(generatedLabel(report))),
		Div(
			data.Signals(map[string]any{"q": ""}),
			Div(
				Class("filter"),
				Label(Text("Quick filter ")),
				Input(Type("text"), data.Bind("q"), Placeholder("Filter rows in every table")),
			),
			Group(sections),
		),
	)
}

func sectionNode(sec domain.ReportSection) Node {
	if !sec.Result.OK() {
		return Section(
			H2(Text(sec.Title)),
			P(Class("section-error"), Strong(Text("Error: ")), Text(sec.Result.Err)),
		)
	}

	headers := make([]Node, 0, len(sec.Result.Columns))
	for _, col := range sec.Result.Columns {
		headers = append(headers, Th(Text(col)))
	}
	rows := make([]Node, 0, len(sec.Result.Rows))
	for _, row := range sec.Result.Rows {
		cells := make([]Node, 0, len(row))
		for _, cell := range row {
			cells = append(cells, Td(Text(cell)))
		}
		rows = append(rows, Tr(data.Show(containsExpr(strings.Join(row, " "))), Group(cells)))
	}

	return Section(
		H2(Text(sec.Title)),
		Table(
			THead(Tr(Group(headers))),
			TBody(Group(rows)),
		),
		P(Class("muted"), Text(fmt.Sprintf("%d row(s)", len(sec.Result.Rows)))),
	)
}

func generatedLabel(report domain.Report) string {
	if report.GeneratedAt.IsZero() {
		return fmt.Sprintf("%d queries", len(report.Sections))
	}
	return fmt.Sprintf("%d queries, generated %s", len(report.Sections), report.GeneratedAt.Format(time.RFC3339))
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}
