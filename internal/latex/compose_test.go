package latex

import (
	"errors"
	"strings"
	"testing"
)

const testTemplate = "% preamble\n\\newcommand{\\x}{y}\n\\begin{document}\nplaceholder body\n\\end{document}\n"

func TestComposeDocument(t *testing.T) {
	got, err := ComposeDocument(testTemplate, []string{"SECTION A", "", "SECTION B"})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	want := "% preamble\n\\newcommand{\\x}{y}\n\\begin{document}\n\n\nSECTION A\n\nSECTION B\n\n\\end{document}"
	if got != want {
		t.Fatalf("composed document mismatch:\ngot:\n%q\nwant:\n%q", got, want)
	}
}

func TestComposeDropsTemplateBody(t *testing.T) {
	got, err := ComposeDocument(testTemplate, []string{"ONLY"})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if strings.Contains(got, "placeholder body") {
		t.Fatalf("template placeholder body must be replaced: %q", got)
	}
	if n := strings.Count(got, `\end{document}`); n != 1 {
		t.Fatalf("expected exactly one end marker, got %d", n)
	}
}

func TestComposeMissingMarkers(t *testing.T) {
	for _, template := range []string{
		"no markers at all",
		"\\begin{document}\nbody only",
		"body only\n\\end{document}",
	} {
		if _, err := ComposeDocument(template, []string{"X"}); !errors.Is(err, ErrTemplateMalformed) {
			t.Fatalf("template %q: expected ErrTemplateMalformed, got %v", template, err)
		}
	}
}

func TestComposeWithDefaultTemplate(t *testing.T) {
	got, err := ComposeDocument(DefaultTemplate, []string{"HEADING", "BODY"})
	if err != nil {
		t.Fatalf("compose with default template: %v", err)
	}
	if !strings.Contains(got, `\newcommand{\resumeSubheading}[4]`) {
		t.Fatalf("default preamble lost: %q", got[:120])
	}
	start := strings.Index(got, `\begin{document}`)
	if start == -1 || !strings.Contains(got[start:], "HEADING\n\nBODY") {
		t.Fatalf("fragments not spliced into body: %q", got[start:])
	}
}

func TestLoadTemplateDefault(t *testing.T) {
	got, err := LoadTemplate("")
	if err != nil {
		t.Fatalf("load default template: %v", err)
	}
	if got != DefaultTemplate {
		t.Fatal("empty path must yield the built-in template")
	}
}

func TestLoadTemplateMissingFile(t *testing.T) {
	if _, err := LoadTemplate("/does/not/exist.tex"); err == nil {
		t.Fatal("expected error for missing template file")
	}
}
