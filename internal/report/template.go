package report

// ReportTemplate is the HTML template for an analysis run report.
// It is embedded as a Go constant with no external file dependencies.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --orange: #ea580c;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: center;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .meta {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(180px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
  }
  .meta .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .meta .value { font-weight: 600; }

  table { width: 100%; border-collapse: collapse; font-size: 0.85rem; margin: 8px 0; }
  th { background: var(--section-bg); text-align: left; padding: 6px 8px; border-bottom: 2px solid var(--border); }
  td { padding: 6px 8px; border-bottom: 1px solid var(--border); }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  tr.pooled td { font-weight: 600; border-top: 2px solid var(--border); }
  tr.best td { background: #eff6ff; }

  .status { padding: 1px 8px; border-radius: 10px; font-size: 0.75rem; font-weight: 600; }
  .status.ok { background: #dcfce7; color: var(--green); }
  .status.warn { background: #ffedd5; color: var(--orange); }
  .status.fail { background: #fee2e2; color: var(--red); }
  .sig { color: var(--accent); font-weight: 700; }
  .Positive { color: var(--green); }
  .Negative { color: var(--red); }

  .chart { margin: 16px 0; text-align: center; }
  .chart svg { max-width: 100%; height: auto; }
  .footer { margin-top: 32px; font-size: 0.75rem; color: var(--muted); text-align: center; }
  @media print { .chart { page-break-inside: avoid; } }
</style>
</head>
<body>

<div class="header">
  <div>
    <h1>{{.Title}}</h1>
    <div class="muted">Run {{.RunID}} &middot; {{upper .Mode}} &middot; {{.GeneratedAt}}</div>
  </div>
  <div>{{.Gauge}}</div>
</div>

<div class="meta">
  <div><div class="label">Tickers</div><div class="value">{{.Tickers}}</div></div>
  {{if .Sectors}}<div><div class="label">Sectors</div><div class="value">{{.Sectors}}</div></div>{{end}}
  <div><div class="label">Period</div><div class="value">{{.Period}}</div></div>
  <div><div class="label">Method</div><div class="value">{{.Method}}</div></div>
  <div><div class="label">Lag (sessions)</div><div class="value">{{.Lag}}</div></div>
  {{if .Duration}}<div><div class="label">Duration</div><div class="value">{{.Duration}}</div></div>{{end}}
</div>

<h2>Correlation</h2>
<table>
  <tr><th>Ticker</th><th>r</th><th>p-value</th><th>n</th><th>Avg sentiment</th><th>Articles</th><th>Status</th><th>Reading</th></tr>
  {{range .Results}}
  <tr>
    <td>{{.Ticker}}</td>
    <td class="num">{{.Coefficient}}{{if .Significant}} <span class="sig">*</span>{{end}}</td>
    <td class="num">{{.PValue}}</td>
    <td class="num">{{.SampleSize}}</td>
    <td class="num">{{.AvgSentiment}}</td>
    <td class="num">{{.Articles}}</td>
    <td><span class="status {{.StatusClass}}" title="{{.Message}}">{{.Status}}</span></td>
    <td>{{.Interpretation}}</td>
  </tr>
  {{end}}
  {{with .Pooled}}
  <tr class="pooled">
    <td>{{.Ticker}}</td>
    <td class="num">{{.Coefficient}}{{if .Significant}} <span class="sig">*</span>{{end}}</td>
    <td class="num">{{.PValue}}</td>
    <td class="num">{{.SampleSize}}</td>
    <td class="num">{{.AvgSentiment}}</td>
    <td class="num">{{.Articles}}</td>
    <td><span class="status {{.StatusClass}}" title="{{.Message}}">{{.Status}}</span></td>
    <td>{{.Interpretation}}</td>
  </tr>
  {{end}}
</table>
<p class="muted">* significant at p &lt; {{.Alpha}}</p>

{{if .Sentiment}}
<h2>Sentiment</h2>
<table>
  <tr><th>Ticker</th><th>Mean</th><th>Label</th><th>Positive</th><th>Neutral</th><th>Negative</th></tr>
  {{range .Sentiment}}
  <tr>
    <td>{{.Ticker}}</td><td class="num">{{.Mean}}</td><td>{{.Label}}</td>
    <td class="num">{{.Positive}}</td><td class="num">{{.Neutral}}</td><td class="num">{{.Negative}}</td>
  </tr>
  {{end}}
</table>
{{range .Terms}}<p><strong class="{{.Category}}">{{.Category}} terms:</strong> {{.Terms}}</p>{{end}}
{{end}}

{{if .LagRows}}
<h2>Lag Sweep</h2>
<table>
  <tr><th>Ticker</th><th>Lag</th><th>r</th><th>p-value</th><th>n</th></tr>
  {{range .LagRows}}
  <tr{{if .Best}} class="best"{{end}}>
    <td>{{.Ticker}}</td><td class="num">{{.Lag}}</td><td class="num">{{.Coefficient}}</td>
    <td class="num">{{.PValue}}</td><td class="num">{{.SampleSize}}</td>
  </tr>
  {{end}}
</table>
{{end}}

{{range .Charts}}
<div class="chart" id="{{.Name}}">{{.SVG}}</div>
{{end}}

{{if .Headlines}}
<h2>Strongest Headlines</h2>
<table>
  <tr><th>Date</th><th>Ticker</th><th>Headline</th><th>Source</th><th>Compound</th></tr>
  {{range .Headlines}}
  <tr>
    <td>{{.Date}}</td><td>{{.Ticker}}</td>
    <td>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</td>
    <td>{{.Source}}</td><td class="num {{.Category}}">{{.Compound}}</td>
  </tr>
  {{end}}
</table>
{{end}}

<div class="footer">
  Generated by newsimpact. Correlation is not causation. Not investment advice.
</div>

</body>
</html>
`
