// Package pdftest builds small, valid PDF documents in memory for tests.
package pdftest

import (
	"bytes"
	"fmt"
)

// Document returns a PDF with n pages. Odd pages are portrait A4, even pages landscape A4,
// so callers exercise mixed page sizes. Page i draws the text "Page i".
func Document(n int) []byte {
	var (
		buf     bytes.Buffer
		offsets []int
	)
	writeObject := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]byte, 0, n*8)
	for i := 0; i < n; i++ {
		kids = fmt.Appendf(kids, "%d 0 R ", 4+2*i)
	}
	writeObject("<< /Type /Catalog /Pages 2 0 R >>")
	writeObject(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", bytes.TrimSpace(kids), n))
	writeObject("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i := 1; i <= n; i++ {
		width, height := 595, 842
		if i%2 == 0 {
			width, height = height, width
		}
		writeObject(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			width, height, 5+2*(i-1)))

		content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (Page %d) Tj ET", i)
		writeObject(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)
	return buf.Bytes()
}
