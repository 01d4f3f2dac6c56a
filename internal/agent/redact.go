package agent

import "regexp"

// maxToolResultChars bounds how much of a single tool result is fed back
// into the provider's context; sandboxed tools can read arbitrary files
// or hit arbitrary HTTPS endpoints (§4.J), so an unbounded result could
// blow the working-memory token budget on its own.
const maxToolResultChars = 8000

// secretPatterns catches common credential shapes (API keys, bearer
// tokens, password/secret/token assignments, PEM private keys) that a
// filesystem or HTTP tool
// might read back verbatim from disk or a response body.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?[\w-]{20,}['"]?`),
	regexp.MustCompile(`(?i)bearer\s+[\w.-]+`),
	regexp.MustCompile(`(?i)(password|passwd|secret|token)\s*[:=]\s*['"]?[^\s'"]{8,}['"]?`),
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----[\s\S]*?-----END (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
}

const redactionText = "[redacted]"

// sanitizeToolResult redacts likely secrets out of a tool's output and
// truncates it to maxToolResultChars before it's handed back to the
// provider as a tool result.
func sanitizeToolResult(content string) string {
	for _, p := range secretPatterns {
		content = p.ReplaceAllString(content, redactionText)
	}
	if len(content) > maxToolResultChars {
		content = content[:maxToolResultChars] + "\n...(truncated)"
	}
	return content
}
