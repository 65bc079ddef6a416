package silver

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	usNewsYearPattern = regexp.MustCompile(`USNEWS_(\d{4})`)
	fourDigitYear      = regexp.MustCompile(`(202\d|2030)`)
)

// ExtractionContext lazily parses a Bronze record's raw HTML and
// exposes the selector/regex/table helpers every tier shares. The DOM is parsed at most once per context.
type ExtractionContext struct {
	filePath string
	raw      []byte

	once   sync.Once
	doc    *goquery.Document
	parseErr error
}

// NewExtractionContext builds a context over one Bronze record's bytes.
func NewExtractionContext(filePath string, raw []byte) *ExtractionContext {
	return &ExtractionContext{filePath: filePath, raw: raw}
}

func (c *ExtractionContext) document() (*goquery.Document, error) {
	c.once.Do(func() {
		c.doc, c.parseErr = goquery.NewDocumentFromReader(bytes.NewReader(c.raw))
	})
	return c.doc, c.parseErr
}

// TextAt returns the trimmed text of the first element matching
// selector.
func (c *ExtractionContext) TextAt(selector string) (string, bool) {
	doc, err := c.document()
	if err != nil {
		return "", false
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return "", false
	}
	return text, true
}

// TextListAt returns the trimmed text of every element matching
// selector.
func (c *ExtractionContext) TextListAt(selector string) []string {
	doc, err := c.document()
	if err != nil {
		return nil
	}
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// AttrAt returns the named attribute of the first element matching
// selector.
func (c *ExtractionContext) AttrAt(selector, attr string) (string, bool) {
	doc, err := c.document()
	if err != nil {
		return "", false
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Attr(attr)
}

// Exists reports whether any element matches selector.
func (c *ExtractionContext) Exists(selector string) bool {
	doc, err := c.document()
	if err != nil {
		return false
	}
	return doc.Find(selector).Length() > 0
}

// Count returns the number of elements matching selector.
func (c *ExtractionContext) Count(selector string) int {
	doc, err := c.document()
	if err != nil {
		return 0
	}
	return doc.Find(selector).Length()
}

// InnerHTML returns the inner HTML of the first element matching
// selector.
func (c *ExtractionContext) InnerHTML(selector string) (string, bool) {
	doc, err := c.document()
	if err != nil {
		return "", false
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	html, err := sel.Html()
	if err != nil {
		return "", false
	}
	return html, true
}

// Match runs pattern against the raw content, returning the first
// capture group if the pattern has one, otherwise the full match.
func (c *ExtractionContext) Match(pattern string) (string, bool) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(string(c.raw))
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}

// MatchAll returns every match of pattern against the raw content
// (first group if present, else full match).
func (c *ExtractionContext) MatchAll(pattern string) []string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	matches := re.FindAllStringSubmatch(string(c.raw), -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) > 1 {
			out = append(out, m[1])
		} else {
			out = append(out, m[0])
		}
	}
	return out
}

// TableRow is one row of a TableRows result, keyed by header cell text.
type TableRow map[string]string

// TableRows converts the first table matching selector into a list of
// header-keyed row maps. headerRow is the zero-based row used for
// column names; skipRows additional rows are skipped after the header;
// maxRows caps the number of data rows returned (0 = unlimited).
func (c *ExtractionContext) TableRows(selector string, headerRow, skipRows, maxRows int) []TableRow {
	doc, err := c.document()
	if err != nil {
		return nil
	}
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil
	}

	rows := table.Find("tr")
	if headerRow >= rows.Length() {
		return nil
	}

	var headers []string
	rows.Eq(headerRow).Find("th,td").Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(s.Text()))
	})
	if len(headers) == 0 {
		return nil
	}

	var out []TableRow
	start := headerRow + 1 + skipRows
	for i := start; i < rows.Length(); i++ {
		if maxRows > 0 && len(out) >= maxRows {
			break
		}
		row := TableRow{}
		rows.Eq(i).Find("td,th").Each(func(col int, s *goquery.Selection) {
			if col < len(headers) {
				row[headers[col]] = strings.TrimSpace(s.Text())
			}
		})
		if len(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}

// SourceYear infers the capture source year from file_path: an explicit
// USNEWS_YYYY marker, else the first four-digit year in [2020,2030],
// else the current year.
func (c *ExtractionContext) SourceYear(now time.Time) int {
	if m := usNewsYearPattern.FindStringSubmatch(c.filePath); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return y
		}
	}
	if m := fourDigitYear.FindStringSubmatch(c.filePath); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return y
		}
	}
	return now.Year()
}

// RawContent returns the underlying bytes, e.g. for Tier 1's JSON-LD
// script scan.
func (c *ExtractionContext) RawContent() []byte {
	return c.raw
}

// Document exposes the parsed goquery document for Tier 2's selector
// table, forcing the lazy parse on first call.
func (c *ExtractionContext) Document() (*goquery.Document, error) {
	return c.document()
}

// Cleanup releases the parsed document. goquery holds no external
// resources, but this keeps the context's lifecycle explicit for
// callers that hold it across a long batch.
func (c *ExtractionContext) Cleanup() {
	c.doc = nil
}
