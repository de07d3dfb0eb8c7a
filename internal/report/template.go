package report

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background: #f5f5f5; color: #222; padding: 24px; }
        .container { max-width: 1000px; margin: 0 auto; }
        h1 { margin-bottom: 8px; color: #1a1a2e; }
        .subtitle { color: #666; margin-bottom: 24px; }
        section { background: #fff; border-radius: 12px; box-shadow: 0 2px 8px rgba(0,0,0,0.08); padding: 24px; margin-bottom: 24px; }
        section h2 { margin-bottom: 16px; color: #16213e; font-size: 1.25rem; border-bottom: 2px solid #e0e0e0; padding-bottom: 8px; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 10px 12px; border-bottom: 1px solid #eee; }
        th { background: #f8f9fa; font-weight: 600; }
        td:first-child { width: 28%; }
        tr.flagged { background: #fff8e6; }
        .anomaly-box { background: #fff3cd; border: 1px solid #ffc107; border-radius: 8px; padding: 16px; margin-bottom: 16px; }
        .anomaly-box h3 { margin-bottom: 12px; color: #856404; }
        .anomaly { margin-bottom: 8px; }
        .anomaly.high { color: #b71c1c; }
        .anomaly.medium { color: #e65100; }
        .anomaly.low { color: #666; }
        .metric { font-size: 1.1rem; margin-bottom: 8px; }
        .metric strong { color: #0d47a1; }
        .note { margin-top: 12px; font-size: 0.9rem; color: #666; }
        .two-col { display: grid; grid-template-columns: 1fr 1fr; gap: 24px; }
        @media (max-width: 700px) { .two-col { grid-template-columns: 1fr; } }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p class="subtitle">
            {{- if .Segment}}Segment: <strong>{{.Segment}}</strong> · {{end -}}
            Generated {{.Result.GeneratedAt.Format "January 02, 2006 15:04"}} UTC
        </p>

        <section>
            <h2>Record counts &amp; identity overlap</h2>
            <div class="two-col">
                <div>
                    <p class="metric"><strong>{{.Result.LeftName}}</strong>: {{num .Result.Identity.LeftRows}} records ({{num .Result.Identity.LeftUnique}} unique identities)</p>
                    <p class="metric"><strong>{{.Result.RightName}}</strong>: {{num .Result.Identity.RightRows}} records ({{num .Result.Identity.RightUnique}} unique identities)</p>
                </div>
                <div>
                    <p class="metric"><strong>In both</strong>: {{num .Result.Identity.Overlap}}</p>
                    <p class="metric"><strong>Only in {{.Result.LeftName}}</strong>: {{num .Result.Identity.OnlyLeft}}</p>
                    <p class="metric"><strong>Only in {{.Result.RightName}}</strong>: {{num .Result.Identity.OnlyRight}}</p>
                    <p class="metric"><strong>Union</strong>: {{num .Result.Identity.Union}}</p>
                </div>
            </div>
        </section>

        <section>
            <h2>Anomalies &amp; differences</h2>
            <p style="margin-bottom: 12px;">Metrics that differ meaningfully between the two sources (coverage, schema, or enrichment timing).</p>
            <div class="anomaly-box">
                {{- if .Result.Anomalies}}
                {{- range .Result.Anomalies}}
                <div class="anomaly {{.Severity}}"><strong>{{.Metric}}</strong>: {{.Detail}}</div>
                {{- end}}
                {{- else}}
                <p>No major anomalies detected; distributions are in line.</p>
                {{- end}}
            </div>
        </section>

        {{- range .Result.Fields}}
        <section>
            <h2>{{.Name}}</h2>
            {{- if eq .Status "no data"}}
            <p class="note">No resolvable column on
                {{- if not .Left.Column}} the {{$.Result.LeftName}} side{{end -}}
                {{- if and (not .Left.Column) (not .Right.Column)}} or{{end -}}
                {{- if not .Right.Column}} the {{$.Result.RightName}} side{{end}}.</p>
            {{- else if eq .Status "mixed"}}
            <table>
                <thead><tr><th>Metric</th><th>{{$.Result.LeftName}}</th><th>{{$.Result.RightName}}</th></tr></thead>
                <tbody>
                    <tr>
                        <td>{{.Name}}</td>
                        <td>{{if .Left.Numeric}}{{numeric .Left.Numeric}}{{else}}{{buckets .Left}}{{end}}</td>
                        <td>{{if .Right.Numeric}}{{numeric .Right.Numeric}}{{else}}{{buckets .Right}}{{end}}</td>
                    </tr>
                </tbody>
            </table>
            <p class="note">The two sources report this field in different units; side-by-side values are approximate and are never compared numerically.</p>
            {{- else}}
            <table>
                <thead><tr><th>Value</th><th>{{$.Result.LeftName}}</th><th>{{$.Result.RightName}}</th><th>Δ</th></tr></thead>
                <tbody>
                    {{- range .Distribution}}
                    <tr{{if ge .DeltaPP $.Result.Thresholds.DistributionMediumPP}} class="flagged"{{end}}>
                        <td>{{.Value}}</td>
                        <td>{{num .LeftCount}} ({{pct .LeftPct}})</td>
                        <td>{{num .RightCount}} ({{pct .RightPct}})</td>
                        <td>{{pct .DeltaPP}}</td>
                    </tr>
                    {{- else}}
                    <tr><td colspan="4">No data on either side</td></tr>
                    {{- end}}
                </tbody>
            </table>
            {{- end}}
        </section>
        {{- end}}
    </div>
</body>
</html>
`
