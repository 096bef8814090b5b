package files

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLReport is an HTML report, usually taken out of a zipped download.
type HTMLReport struct {
	Path string
	doc  *goquery.Document
}

func OpenHTML(path string) (*HTMLReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html %s: %w", path, err)
	}
	return &HTMLReport{Path: path, doc: doc}, nil
}

func (h *HTMLReport) Title() string {
	return strings.TrimSpace(h.doc.Find("title").First().Text())
}

// Text returns the visible body text with whitespace runs collapsed.
func (h *HTMLReport) Text() string {
	body := h.doc.Find("body").Clone()
	body.Find("script, style").Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}

func (h *HTMLReport) Contains(s string) bool {
	return strings.Contains(h.Text(), s)
}

// Find gives direct access to the document for ad-hoc assertions.
func (h *HTMLReport) Find(selector string) *goquery.Selection {
	return h.doc.Find(selector)
}

// TableRows returns the cell texts of every row of the tables matching
// selector. Header cells are included.
func (h *HTMLReport) TableRows(selector string) [][]string {
	var rows [][]string
	h.doc.Find(selector).Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.Join(strings.Fields(td.Text()), " "))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}
