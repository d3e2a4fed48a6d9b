package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ladder-buttons/internal/logic"
	"github.com/sweeney/ladder-buttons/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"portBits": func(v uint8) string {
		return fmt.Sprintf("%08b", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Ladder Buttons</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Ladder Buttons</h1>

<h2>State</h2>
<table>
<tr><th>Buttons</th><td id="buttons">{{.Decoder.State}}</td></tr>
{{range .LEDs}}<tr><th>LED {{.N}}</th><td class="{{if .Lit}}on{{else}}off{{end}}">{{if .Lit}}ON{{else}}OFF{{end}}</td></tr>
{{end}}<tr><th>Last sample</th><td>{{.Decoder.LastSample}}</td></tr>
<tr><th>LED pattern</th><td>{{portBits .Pattern}} ({{.Polarity}})</td></tr>
<tr><th>Ready</th><td>{{if .Started}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Samples</th><td>{{.Decoder.Samples}}</td></tr>
<tr><th>Changes</th><td>{{.Decoder.Changes}}</td></tr>
<tr><th>Refreshes</th><td>{{.Decoder.Refreshes}}</td></tr>
<tr><th>Refresh failures</th><td>{{.Decoder.RefreshFails}}</td></tr>
{{range .PerState}}<tr><th>{{.State}}</th><td>{{.Count}}</td></tr>
{{end}}</table>

<h2>Debug Channel</h2>
<table>
<tr><th>Reported</th><td>{{.Decoder.Reported}}</td></tr>
<tr><th>Sent</th><td>{{.Debug.Sent}}</td></tr>
<tr><th>Dropped</th><td>{{.Debug.Dropped}}</td></tr>
<tr><th>Failed</th><td>{{.Debug.Failed}}</td></tr>
<tr><th>Sinks</th><td>{{range .Config.DebugSinks}}{{.}} {{else}}none{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Refresh</th><td>{{.Config.RefreshMs}}ms</td></tr>
<tr><th>Conversion</th><td>{{.Config.ConversionUs}}us</td></tr>
<tr><th>Throttle</th><td>{{if eq .Config.Throttle 0}}disabled{{else}}every {{.Config.Throttle}} samples{{end}}</td></tr>
<tr><th>Port</th><td>{{.Config.Port}}</td></tr>
<tr><th>Sampler</th><td>{{.Config.Sampler}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

type ledView struct {
	N   int
	Lit bool
}

type stateCount struct {
	State logic.ButtonState
	Count uint64
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	state := snap.Decoder.State
	enc := logic.DefaultEncoder

	leds := []ledView{
		{N: 1, Lit: state.Has(logic.Button1)},
		{N: 2, Lit: state.Has(logic.Button2)},
		{N: 3, Lit: state.Has(logic.Button3)},
	}
	perState := make([]stateCount, 0, len(logic.AllStates))
	for _, s := range logic.AllStates {
		perState = append(perState, stateCount{State: s, Count: snap.Decoder.PerState[s]})
	}

	data := struct {
		status.Snapshot
		Uptime   time.Duration
		LEDs     []ledView
		PerState []stateCount
		Pattern  uint8
		Polarity logic.Polarity
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		LEDs:     leds,
		PerState: perState,
		Pattern:  enc.Pattern(state),
		Polarity: enc.Polarity(),
	}
	indexTmpl.Execute(w, data)
}
