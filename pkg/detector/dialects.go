package detector

import "github.com/ccollicutt/driverlog/pkg/parser"

// monitorRuleName labels the structural protocol-monitor check, which runs
// before any line-scan rule.
const monitorRuleName = "protocol-monitor array"

// DialectRule describes one line-scan detection rule: literal markers that
// select a dialect when any sampled line contains one.
type DialectRule struct {
	Dialect  parser.Dialect // Selected dialect
	Name     string         // Human-readable rule name
	Markers  []string       // Literal markers searched per line
	Examples []string       // Example lines that match
}

// DefaultRules returns the built-in line-scan rules. Order matters: the
// ChromeDriver markers are loose substrings and must run last so they
// cannot shadow the more specific formats.
func DefaultRules() []DialectRule {
	return []DialectRule{
		{
			Dialect: parser.DialectTranscript,
			Name:    "transcript sentinels",
			Markers: []string{"SEND ►", "RECV ◀"},
			Examples: []string{
				`  puppeteer:protocol:SEND ► '{"method":"Browser.getVersion","id":1}'`,
				`  puppeteer:protocol:RECV ◀ '{"id":1,"result":{}}'`,
			},
		},
		{
			Dialect: parser.DialectWebPlatform,
			Name:    "webdriver.bidi prefix",
			Markers: []string{"DEBUG:webdriver.bidi:"},
			Examples: []string{
				`DEBUG:webdriver.bidi:→ {"id":1,"method":"session.new","params":{}}`,
			},
		},
		{
			Dialect: parser.DialectChromeDriver,
			Name:    "chromedriver markers",
			Markers: []string{"Starting ChromeDriver", "DevTools WebSocket"},
			Examples: []string{
				`[01-01-2024 12:00:00.001000][INFO]: Starting ChromeDriver 120.0.6099.109`,
				`[01-01-2024 12:00:00.002000][DEBUG]: DevTools WebSocket Command: Method: Target.createTarget (id=1)`,
			},
		},
	}
}
