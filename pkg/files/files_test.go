package files

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gofpdf "github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/pkg/testerr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

const issuesCSV = "\ufeffApplication,Release,Severity,Audits\n" +
	"WebApp1,Release1,Critical,\"jdoe: Not an Issue\"\n" +
	"WebApp1,Release1,High,\n"

func TestCSV(t *testing.T) {
	c, err := OpenCSV(writeFile(t, t.TempDir(), "issues.csv", issuesCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Application", "Release", "Severity", "Audits"}, c.Headers())
	assert.Equal(t, 2, c.RowsCount())

	audits, err := c.ColumnValues("Audits")
	require.NoError(t, err)
	assert.Equal(t, []string{"jdoe: Not an Issue", ""}, audits)

	rows, err := c.AllRows("Severity", "Application")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Critical", "WebApp1"}, {"High", "WebApp1"}}, rows)

	_, err = c.ColumnValues("Missing")
	require.Error(t, err)
}

func TestCSVEmpty(t *testing.T) {
	_, err := OpenCSV(writeFile(t, t.TempDir(), "empty.csv", ""))
	require.Error(t, err)
}

func reportPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	for _, text := range pages {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", 12)
		pdf.Cell(40, 10, text)
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestPDFReport(t *testing.T) {
	p := NewPDFReport("report.pdf", reportPDF(t, "Executive Summary (WebApp1)", "Issue Breakdown"))

	require.NoError(t, p.Validate())
	n, err := p.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := p.Contains("Executive Summary (WebApp1)")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = p.Contains("Issue Breakdown")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = p.Contains("Static Scan")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPDFReportInvalid(t *testing.T) {
	p, err := OpenPDF(writeFile(t, t.TempDir(), "broken.pdf", "not a pdf"))
	require.NoError(t, err)
	require.Error(t, p.Validate())
}

func TestShowText(t *testing.T) {
	content := []byte("BT /F1 12 Tf 10 10 Td (Hello \\(a\\)) Tj ET\nBT [(Wor) -20 (ld)] TJ ET")
	assert.Equal(t, "Hello (a)\nWorld\n", showText(content))
}

func TestShowTextHexStrings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"literal", "BT /F1 12 Tf 72 712 Td (Hello) Tj ET", "Hello\n"},
		{"hex", "BT /F1 12 Tf 72 712 Td <48656C6C6F> Tj ET", "Hello\n"},
		{"hex with spaces and odd digit", "BT <48 65 6C 6C 6F 2> Tj ET", "Hello \n"},
		{"hex in array", "BT [<4973> -250 (sue)] TJ ET", "Issue\n"},
		{"marked content dictionary", "/Span <</MCID 0>> BDC BT <4869> Tj ET EMC", "Hi\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, showText([]byte(tt.content)))
		})
	}
}

const reportHTML = `<html><head><title> Release Report </title><style>.x{}</style></head>
<body><h1>WebApp1   Release1</h1>
<table id="issues"><tr><th>Severity</th><th>Count</th></tr>
<tr><td>Critical</td><td> 3 </td></tr></table>
<script>var x = 1;</script></body></html>`

func TestHTMLReport(t *testing.T) {
	h, err := OpenHTML(writeFile(t, t.TempDir(), "report.html", reportHTML))
	require.NoError(t, err)

	assert.Equal(t, "Release Report", h.Title())
	assert.True(t, h.Contains("WebApp1 Release1"))
	assert.False(t, h.Contains("var x"))
	assert.Equal(t, [][]string{{"Severity", "Count"}, {"Critical", "3"}}, h.TableRows("#issues"))
	assert.Equal(t, 1, h.Find("h1").Length())
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestUnzip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "report.zip")
	writeZip(t, zipPath, map[string]string{"report/index.html": reportHTML, "report/logo.png": "png"})

	entries, err := ZipEntries(zipPath)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"report/index.html", "report/logo.png"}, entries)

	html, err := UnzipSingle(zipPath, ".html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report", "index.html"), html)

	_, err = UnzipSingle(zipPath, ".pdf")
	require.Error(t, err)
}

func TestUnzipRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{"../evil.txt": "x"})
	_, err := Unzip(zipPath, filepath.Join(dir, "out"))
	require.Error(t, err)
}

const sbomJSON = `{"bomFormat":"CycloneDX","specVersion":"1.4","version":1,
"metadata":{"component":{"type":"application","name":"WebApp1"}},
"components":[{"type":"library","name":"log4j-core","group":"org.apache.logging.log4j","version":"2.14.1","purl":"pkg:maven/org.apache.logging.log4j/log4j-core@2.14.1"}]}`

func TestSBOM(t *testing.T) {
	s, err := OpenSBOM(writeFile(t, t.TempDir(), "sbom.json", sbomJSON))
	require.NoError(t, err)
	assert.Equal(t, "1.4", s.SpecVersion)
	assert.Len(t, s.Components(), 1)
	assert.True(t, s.HasComponent("Log4j-Core", ""))
	assert.True(t, s.HasComponent("log4j-core", "2.14.1"))
	assert.False(t, s.HasComponent("log4j-core", "2.17.0"))

	assert.Empty(t, s.Dependencies)
	assert.Zero(t, s.DependedOnBy("pkg:npm/qs@6.7.0"))

	_, err = ParseSBOM([]byte(`{"bomFormat":"SPDX"}`))
	require.Error(t, err)
}

const lockfileSBOM = `{"bomFormat":"CycloneDX","specVersion":"1.5","version":1,
"components":[{"type":"library","name":"qs","version":"6.7.0","purl":"pkg:npm/qs@6.7.0"}],
"dependencies":[
 {"ref":"pkg:npm/body-parser@1.19.0","dependsOn":["pkg:npm/qs@6.7.0","pkg:npm/bytes@3.1.0"]},
 {"ref":"pkg:npm/express@4.17.1","dependsOn":["pkg:npm\\/qs@6.7.0"]},
 {"ref":"pkg:npm/qs@6.7.0"}]}`

func TestSBOMDependencies(t *testing.T) {
	s, err := ParseSBOM([]byte(lockfileSBOM))
	require.NoError(t, err)
	assert.True(t, s.HasComponent("qs", "6.7.0"))
	assert.True(t, s.HasDependency("pkg:npm/qs@6.7.0"))
	assert.False(t, s.HasDependency("pkg:npm/lodash@4.17.21"))
	assert.Equal(t, 2, s.DependedOnBy("pkg:npm/qs@6.7.0"))
	assert.Equal(t, 1, s.DependedOnBy("pkg:npm/bytes@3.1.0"))
}

func TestWaitForFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export.csv.crdownload", "partial")
	go func() {
		time.Sleep(300 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "export.csv"), []byte(issuesCSV), 0o644)
	}()

	got, err := WaitForFile(context.Background(), dir, "export.csv*", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "export.csv"), got)
}

func TestWaitForFileTimeout(t *testing.T) {
	_, err := WaitForFile(context.Background(), t.TempDir(), "*.pdf", 300*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, testerr.ErrFileDownload))
}

func TestCleanDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	require.NoError(t, CleanDir(dir))
	writeFile(t, dir, "a.csv", "x")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, CleanDir(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
