package latex

import (
	"errors"
	"strings"
)

// ErrTemplateMalformed reports a template without both document
// markers. This is an operator configuration problem, not a user input
// problem, and aborts the render.
var ErrTemplateMalformed = errors.New(`template missing \begin{document} or \end{document}`)

// ComposeDocument splices rendered fragments into the template between
// its document markers. The preamble and the \begin{document} line are
// preserved byte for byte; empty fragments are dropped; the kept
// fragments are separated by blank lines.
func ComposeDocument(template string, fragments []string) (string, error) {
	docStart := strings.Index(template, `\begin{document}`)
	docEnd := strings.Index(template, `\end{document}`)
	if docStart == -1 || docEnd == -1 {
		return "", ErrTemplateMalformed
	}

	header := template[:docStart]

	// Keep through the end of the \begin{document} line, newline included.
	startEnd := strings.Index(template[docStart:], "\n")
	if startEnd == -1 {
		startEnd = docStart + len(`\begin{document}`)
	} else {
		startEnd = docStart + startEnd + 1
	}

	kept := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		if fragment != "" {
			kept = append(kept, fragment)
		}
	}
	body := strings.Join(kept, "\n\n")

	return header + template[docStart:startEnd] + "\n\n" + body + "\n\n\\end{document}", nil
}
