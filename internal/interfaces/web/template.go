package web

const indexTemplate = `<!DOCTYPE html>
<html>
<head>
<title>Kraken Futures Monitor</title>
<meta http-equiv="refresh" content="20">
<style>
body { font-family: monospace; background: #1e1e1e; color: #d4d4d4; padding: 20px; }
h1, h2 { color: #569cd6; border-bottom: 1px solid #333; padding-bottom: 5px; }
.card { background: #252526; padding: 15px; margin-bottom: 20px; border-radius: 5px; border: 1px solid #333; }
table { width: 100%; border-collapse: collapse; margin-top: 10px; }
th { text-align: left; border-bottom: 1px solid #444; color: #ce9178; padding: 5px; }
td { border-bottom: 1px solid #333; padding: 5px; }
.timestamp { color: #6a9955; font-size: 0.9em; }
.empty { color: #888; font-style: italic; }
.error { color: #f44747; }
a { color: #569cd6; }
</style>
</head>
<body>
<h1>Kraken Futures Monitor</h1>
<p class="timestamp">generated {{.Generated.Format "2006-01-02 15:04:05"}} UTC - window {{.Window}}
 - <a href="/?window=24h">24h</a> <a href="/?window=72h">72h</a> <a href="/?window=168h">168h</a></p>

{{if .Err}}<div class="card"><p class="error">{{.Err}}</p></div>{{end}}

{{with .Latest}}
<div class="card">
<h2>Current State <span class="timestamp">({{.Timestamp.Format "2006-01-02 15:04:05"}})</span></h2>
<p>Margin equity: {{printf "%.2f" .Equity}}</p>
{{if .Positions}}
<table><thead><tr><th>Symbol</th><th>Size</th><th>Side</th><th>Signal</th></tr></thead><tbody>
{{range .Positions}}<tr><td>{{.Symbol}}</td><td>{{.Size}}</td><td>{{.Side}}</td><td>{{.Signal}}</td></tr>
{{end}}</tbody></table>
{{else}}<p class="empty">No open positions.</p>{{end}}
{{if .Signals}}
<table><thead><tr><th>Asset</th><th>Timeframe</th><th>Value</th><th>Updated</th></tr></thead><tbody>
{{range .Signals}}<tr><td>{{.Asset}}</td><td>{{.Timeframe}}</td><td>{{.Value}}</td><td>{{.UpdatedAt.Format "2006-01-02 15:04:05"}}</td></tr>
{{end}}</tbody></table>
{{else}}<p class="empty">No signals.</p>{{end}}
</div>
{{else}}
<div class="card"><p class="empty">No current snapshot yet.</p></div>
{{end}}

{{with .Equity}}
<div class="card">
<h2>Equity</h2>
{{if .Points}}
<p>last {{printf "%.2f" .Last}} / min {{printf "%.2f" .Min}} / max {{printf "%.2f" .Max}} over {{.Points}} samples</p>
{{else}}<p class="empty">No equity samples in window.</p>{{end}}
</div>
{{end}}

{{if .Symbols}}
<div class="card">
<h2>Positions in Window</h2>
<table><thead><tr><th>Symbol</th><th>Last Size</th><th>Last Signal</th><th>Samples</th></tr></thead><tbody>
{{range .Symbols}}<tr><td>{{.Symbol}}</td><td>{{.LastSize}}</td><td>{{.LastSignal}}</td><td>{{.Points}}</td></tr>
{{end}}</tbody></table>
</div>
{{end}}

</body>
</html>
`
