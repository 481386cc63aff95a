package extract

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a one-page document showing the given text with
// the built-in Helvetica font. Object offsets for the xref table are
// recorded as the objects are appended.
func minimalPDF(t *testing.T, text string) []byte {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	add := func(obj string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	buf.WriteString("%PDF-1.4\n")
	add("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	add("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	add("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
	add(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content))
	add("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

func TestTextFromGeneratedPDF(t *testing.T) {
	data := minimalPDF(t, "Hello World")

	text, err := Text(data)

	require.NoError(t, err)
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "World")
}

func TestTextRejectsNonPDF(t *testing.T) {
	_, err := Text([]byte("plain text, not a pdf"))
	require.Error(t, err)
}

func TestTextRejectsEmptyInput(t *testing.T) {
	_, err := Text(nil)
	require.Error(t, err)
}

func TestTextSurvivesTruncatedFile(t *testing.T) {
	data := minimalPDF(t, "Hello")

	_, err := Text(data[:len(data)/2])

	require.Error(t, err)
}
