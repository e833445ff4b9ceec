package uiagent

import (
	"encoding/json"
	"strings"
)

// Result is the payload returned by the UI-agent endpoint.
type Result struct {
	// AppliedHTML is inserted into the page's results container.
	AppliedHTML string `json:"appliedHTML"`
	// CodeSnippet is a function body the frontend runs with the container as its argument.
	CodeSnippet string `json:"codeSnippet"`
	// FullHTML is a standalone document showing the complete source.
	FullHTML string `json:"fullHTML"`
}

const (
	fallbackAppliedHTML = "<p>Error applying changes.</p>"
	fallbackFullHTML    = "<html><body><p>Error generating full HTML.</p></body></html>"
)

// Fallback is the fixed error-shaped result. The error text is embedded in a
// console.error call so the frontend surfaces it when running the snippet.
func Fallback(err error) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{
		AppliedHTML: fallbackAppliedHTML,
		CodeSnippet: "console.error('Error: " + jsEscaper.Replace(msg) + "');",
		FullHTML:    fallbackFullHTML,
	}
}

// jsEscaper makes text safe inside a single-quoted JS string literal.
var jsEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
	"</", `<\/`,
)

// parseOutput decodes the delegate's text as a JSON object and picks the
// result keys. Missing or null keys become empty strings; non-string values
// are relayed as their JSON text.
func parseOutput(raw string) (Result, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &fields); err != nil {
		return Result{}, malformed(err)
	}
	if fields == nil {
		return Result{}, malformed(errNotObject)
	}

	return Result{
		AppliedHTML: field(fields, "appliedHTML"),
		CodeSnippet: field(fields, "codeSnippet"),
		FullHTML:    field(fields, "fullHTML"),
	}, nil
}

func field(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
