package files

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	pdftext "github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// PDFReport is a generated report held in memory.
type PDFReport struct {
	Path string
	raw  []byte

	textOnce sync.Once
	text     string
	textErr  error
}

func OpenPDF(path string) (*PDFReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	return NewPDFReport(path, raw), nil
}

func NewPDFReport(name string, raw []byte) *PDFReport {
	disableConfigDir.Do(pdfapi.DisableConfigDir)
	return &PDFReport{Path: name, raw: raw}
}

func (p *PDFReport) reader() io.ReadSeeker { return bytes.NewReader(p.raw) }

// Validate checks the document structure.
func (p *PDFReport) Validate() error {
	if err := pdfapi.Validate(p.reader(), nil); err != nil {
		return fmt.Errorf("invalid pdf %s: %w", p.Path, err)
	}
	return nil
}

func (p *PDFReport) PageCount() (int, error) {
	n, err := pdfapi.PageCount(p.reader(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages of %s: %w", p.Path, err)
	}
	return n, nil
}

// Text returns the text shown on every page, one page per line block.
func (p *PDFReport) Text() (string, error) {
	p.textOnce.Do(func() { p.text, p.textErr = p.extractText() })
	return p.text, p.textErr
}

// Contains reports whether s occurs in the extracted text.
func (p *PDFReport) Contains(s string) (bool, error) {
	text, err := p.Text()
	if err != nil {
		return false, err
	}
	return strings.Contains(text, s), nil
}

// extractText decodes page text through the document fonts (ToUnicode maps,
// hex strings). Documents the decoder rejects go through the raw content
// stream scanner instead.
func (p *PDFReport) extractText() (string, error) {
	text, err := p.decodeText()
	if err == nil {
		return text, nil
	}
	return p.scanText()
}

func (p *PDFReport) decodeText() (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to decode text of %s: %v", p.Path, r)
		}
	}()
	r, err := pdftext.NewReader(bytes.NewReader(p.raw), int64(len(p.raw)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf %s: %w", p.Path, err)
	}
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdftext.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		s, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d of %s: %w", i, p.Path, err)
		}
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func (p *PDFReport) scanText() (string, error) {
	ctx, err := pdfapi.ReadValidateAndOptimize(p.reader(), model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("failed to read pdf %s: %w", p.Path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return "", err
	}
	var sb strings.Builder
	for page := 1; page <= ctx.PageCount; page++ {
		r, err := pdfcpu.ExtractPageContent(ctx, page)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d of %s: %w", page, p.Path, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		sb.WriteString(showText(content))
	}
	return sb.String(), nil
}

// showText pulls the literal and hex strings painted by the text operators of
// a content stream. Strings are taken byte for byte, without font encodings.
func showText(content []byte) string {
	var (
		sb      strings.Builder
		pending []string
		line    bool
	)
	flush := func() {
		if line {
			sb.WriteByte('\n')
			line = false
		}
	}
	for i := 0; i < len(content); i++ {
		switch c := content[i]; {
		case c == '(':
			s, end := literal(content, i)
			pending = append(pending, s)
			i = end
		case c == '<' && i+1 < len(content) && content[i+1] == '<':
			// dictionary, e.g. marked-content properties
			i++
		case c == '<':
			s, end := hexString(content, i)
			pending = append(pending, s)
			i = end
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case isDelimiter(c):
		default:
			start := i
			for i < len(content) && !isDelimiter(content[i]) && content[i] != '(' {
				i++
			}
			op := string(content[start:i])
			i--
			switch op {
			case "Tj", "TJ", "'", "\"":
				if op == "'" || op == "\"" {
					flush()
				}
				for _, s := range pending {
					sb.WriteString(s)
				}
				line = line || len(pending) > 0
			case "ET", "T*", "Td", "TD":
				flush()
			}
			if op != "" && !isNumber(op) {
				pending = pending[:0]
			}
		}
	}
	flush()
	return sb.String()
}

func literal(content []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 0
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case c == '\\' && i+1 < len(content):
			i++
			switch e := content[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
			default:
				if e >= '0' && e <= '7' {
					v, n := 0, 0
					for n < 3 && i < len(content) && content[i] >= '0' && content[i] <= '7' {
						v = v*8 + int(content[i]-'0')
						i++
						n++
					}
					i--
					sb.WriteByte(byte(v))
					continue
				}
				sb.WriteByte(e)
			}
		case c == '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return sb.String(), i
			}
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), len(content)
}

// hexString decodes <48656C6C6F>. Whitespace is ignored and an odd final digit
// is padded with 0.
func hexString(content []byte, start int) (string, int) {
	end := bytes.IndexByte(content[start:], '>')
	if end < 0 {
		end = len(content) - start
	}
	digits := make([]byte, 0, end)
	for _, c := range content[start+1 : start+end] {
		if !isDelimiter(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, hex.DecodedLen(len(digits)))
	n, _ := hex.Decode(out, digits)
	return string(out[:n]), start + end
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', '[', ']', '<', '>', '/', '{', '}':
		return true
	}
	return false
}

func isNumber(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' && c != '-' {
			return false
		}
	}
	return true
}
