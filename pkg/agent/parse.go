package agent

import "strings"

// finalAnswerMarker terminates the loop; its check takes precedence
// over action parsing
const finalAnswerMarker = "Final Answer:"

// extractFinalAnswer returns the text following the final-answer marker
func extractFinalAnswer(output string) (string, bool) {
	idx := strings.Index(output, finalAnswerMarker)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(output[idx+len(finalAnswerMarker):]), true
}

// parseAction recognizes an action only in the form
// "Action: <ToolName>(<input>)". Anything else is treated as no
// recognized action.
func parseAction(output string) (name, input string, ok bool) {
	idx := strings.Index(output, "Action:")
	if idx < 0 {
		return "", "", false
	}

	line := output[idx+len("Action:"):]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	line = strings.TrimSpace(line)

	open := strings.IndexByte(line, '(')
	if open < 0 {
		return "", "", false
	}

	name = strings.TrimSpace(line[:open])
	if name == "" {
		return "", "", false
	}

	input = strings.TrimSpace(line[open+1:])
	input = strings.TrimSuffix(input, ")")
	input = trimQuotes(strings.TrimSpace(input))

	return name, input, true
}

// trimQuotes removes one matching pair of surrounding quotes
func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
