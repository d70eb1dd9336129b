// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

// PDFProvider reads the text layer of a PDF with pdfcpu. It decodes the
// show-text operators of each page's content stream; scanned reports with
// no text layer yield ErrNoText.
type PDFProvider struct{}

// Name returns "pdf".
func (PDFProvider) Name() string { return "pdf" }

// Text returns the non-empty pages of the PDF joined by newlines.
func (PDFProvider) Text(ctx context.Context, path string) (string, error) {
	pages, err := PDFPages(ctx, path)
	if err != nil {
		return "", err
	}
	var nonEmpty []string
	for _, p := range pages {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrNoText)
	}
	return strings.Join(nonEmpty, "\n"), nil
}

// PDFPages returns the text of every page in order. Pages without text, or
// whose content stream cannot be read, are returned as "".
func PDFPages(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdf, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("reading PDF %s: %w", path, err)
	}

	pages := make([]string, 0, pdf.PageCount)
	for nr := 1; nr <= pdf.PageCount; nr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, pageText(pdf, nr))
	}
	return pages, nil
}

func pageText(pdf *model.Context, nr int) string {
	r, err := pdfcpu.ExtractPageContent(pdf, nr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return cleanText(contentText(data))
}

// kernSpace is the TJ displacement, in thousandths of an em, at or below
// which a gap between two strings is read as a word break.
const kernSpace = -250

// contentText scans a page content stream and returns the strings shown by
// Tj, TJ, ' and ". Text positioning operators become spaces or newlines.
// Glyph codes are read as PDFDocEncoding/WinAnsi, or UTF-16BE when the
// string carries a byte order mark; fonts with custom encodings are not
// mapped.
func contentText(data []byte) string {
	var (
		out      strings.Builder
		operands []string
		inArray  bool
	)

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isPDFSpace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			s, n := readLiteral(data[i:])
			operands = append(operands, s)
			i += n
		case c == '<' && i+1 < len(data) && data[i+1] == '<',
			c == '>' && i+1 < len(data) && data[i+1] == '>':
			i += 2
		case c == '<':
			s, n := readHex(data[i:])
			operands = append(operands, s)
			i += n
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		case c == '/':
			i += 1 + tokenLen(data[i+1:])
		case isPDFDelim(c):
			i++
		default:
			n := tokenLen(data[i:])
			tok := string(data[i : i+n])
			i += n
			if isNumber(tok) {
				if inArray {
					if v, err := strconv.ParseFloat(tok, 64); err == nil && v <= kernSpace {
						operands = append(operands, " ")
					}
				}
				continue
			}
			switch tok {
			case "true", "false", "null":
				continue
			case "Tj", "TJ":
				writeAll(&out, operands)
			case "'", `"`:
				out.WriteByte('\n')
				writeAll(&out, operands)
			case "Td", "TD", "Tm":
				separate(&out, ' ')
			case "T*", "ET":
				separate(&out, '\n')
			case "ID":
				i = skipInlineImage(data, i)
			}
			operands = operands[:0]
		}
	}
	return out.String()
}

func writeAll(out *strings.Builder, parts []string) {
	for _, p := range parts {
		out.WriteString(p)
	}
}

// separate appends sep unless the output is empty or already ends in
// whitespace.
func separate(out *strings.Builder, sep byte) {
	s := out.String()
	if s == "" {
		return
	}
	switch s[len(s)-1] {
	case ' ', '\n':
		return
	}
	out.WriteByte(sep)
}

// readLiteral decodes the parenthesized string at the start of b and
// returns it with the number of bytes consumed.
func readLiteral(b []byte) (string, int) {
	var raw []byte
	depth := 1
	i := 1
	for i < len(b) && depth > 0 {
		c := b[i]
		switch c {
		case '\\':
			i++
			if i >= len(b) {
				continue
			}
			e := b[i]
			switch e {
			case 'n':
				raw = append(raw, '\n')
			case 'r':
				raw = append(raw, '\r')
			case 't':
				raw = append(raw, '\t')
			case 'b':
				raw = append(raw, '\b')
			case 'f':
				raw = append(raw, '\f')
			case '\r':
				if i+1 < len(b) && b[i+1] == '\n' {
					i++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v, n := 0, 0
					for n < 3 && i < len(b) && b[i] >= '0' && b[i] <= '7' {
						v = v*8 + int(b[i]-'0')
						i++
						n++
					}
					raw = append(raw, byte(v))
					continue
				}
				raw = append(raw, e)
			}
			i++
		case '(':
			depth++
			raw = append(raw, c)
			i++
		case ')':
			depth--
			if depth > 0 {
				raw = append(raw, c)
			}
			i++
		default:
			raw = append(raw, c)
			i++
		}
	}
	return decodeText(raw), i
}

// readHex decodes the <...> string at the start of b. Strings that do not
// look like text, such as two-byte glyph IDs of composite fonts, decode to "".
func readHex(b []byte) (string, int) {
	var digits []byte
	i := 1
	for ; i < len(b) && b[i] != '>'; i++ {
		if isHexDigit(b[i]) {
			digits = append(digits, b[i])
		}
	}
	if i < len(b) {
		i++
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	raw := make([]byte, len(digits)/2)
	if _, err := hex.Decode(raw, digits); err != nil {
		return "", i
	}
	if !hasBOM(raw) {
		for _, c := range raw {
			if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
				return "", i
			}
		}
	}
	return decodeText(raw), i
}

func hasBOM(raw []byte) bool {
	return len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF
}

var utf16BE = xunicode.UTF16(xunicode.BigEndian, xunicode.ExpectBOM)

func decodeText(raw []byte) string {
	if hasBOM(raw) {
		if s, err := utf16BE.NewDecoder().Bytes(raw); err == nil {
			return string(s)
		}
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(s)
}

// skipInlineImage returns the offset just past the EI that closes the
// inline image whose data starts after offset i.
func skipInlineImage(data []byte, i int) int {
	for j := i + 1; j+2 <= len(data); j++ {
		if data[j] == 'E' && data[j+1] == 'I' && isPDFSpace(data[j-1]) &&
			(j+2 == len(data) || isPDFSpace(data[j+2])) {
			return j + 2
		}
	}
	return len(data)
}

func tokenLen(b []byte) int {
	n := 0
	for n < len(b) && !isPDFSpace(b[n]) && !isPDFDelim(b[n]) {
		n++
	}
	if n == 0 && len(b) > 0 {
		n = 1
	}
	return n
}

func isNumber(tok string) bool {
	switch tok[0] {
	case '+', '-', '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	}
	return false
}

func isPDFSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isPDFDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// cleanText applies NFC, drops control characters, and trims each line,
// removing lines left empty.
func cleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t' || r == '\r' || r == '\f':
			return ' '
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
			return -1
		}
		return r
	}, norm.NFC.String(s))

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
