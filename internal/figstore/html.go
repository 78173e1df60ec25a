package figstore

import (
	"html/template"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/census-choropleth/internal/figure"
)

// PlotlyURL is the plotly.js bundle standalone pages load.
const PlotlyURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var pageTmpl = template.Must(template.New("figure").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.PlotlyURL}}"></script>
</head>
<body style="margin:0">
<div id="figure"></div>
<script>
var figure = {{.Figure}};
Plotly.newPlot("figure", figure.data, figure.layout, {responsive: true});
</script>
</body>
</html>
`))

// RenderHTML writes a standalone interactive page for fig.
func RenderHTML(w io.Writer, title string, fig *figure.Figure) error {
	err := pageTmpl.Execute(w, struct {
		Title     string
		PlotlyURL string
		Figure    *figure.Figure
	}{title, PlotlyURL, fig})
	if err != nil {
		return eris.Wrap(err, "figstore: render html")
	}
	return nil
}
