package latex

import "strings"

// Escape rewrites LaTeX special characters so user text cannot break out
// of the surrounding markup. The backslash is rewritten first; braces
// introduced by the backslash and caret rewrites are themselves hit by
// the later brace passes, so applying Escape twice does not round-trip.
// Callers escape each field exactly once.
func Escape(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, `\`, `\textbackslash{}`)
	text = strings.ReplaceAll(text, "&", `\&`)
	text = strings.ReplaceAll(text, "%", `\%`)
	text = strings.ReplaceAll(text, "$", `\$`)
	text = strings.ReplaceAll(text, "#", `\#`)
	text = strings.ReplaceAll(text, "^", `\textasciicircum{}`)
	text = strings.ReplaceAll(text, "_", `\_`)
	text = strings.ReplaceAll(text, "{", `\{`)
	text = strings.ReplaceAll(text, "}", `\}`)
	text = strings.ReplaceAll(text, "~", `\textasciitilde{}`)
	return text
}

// DateRange joins two displayed dates with an en dash. Both sides are
// escaped here; callers pass raw values.
func DateRange(start, end string) string {
	return Escape(start) + " – " + Escape(end)
}
