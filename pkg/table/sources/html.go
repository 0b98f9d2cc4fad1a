package sources

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
)

// ReadHTML reads the first <table> of an HTML document. The header is the
// first row containing <th> cells, or the first row when there is none.
func ReadHTML(r io.Reader) (*table.Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create document from HTML content")
	}

	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return nil, errors.New("no <table> element found")
	}

	var header []string
	var rows [][]any

	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if header == nil {
			cells := tr.Find("th")
			if cells.Length() == 0 {
				cells = tr.Find("td")
			}
			cells.Each(func(_ int, c *goquery.Selection) {
				header = append(header, strings.TrimSpace(c.Text()))
			})
			return
		}

		row := make([]any, len(header))
		tr.Find("td").Each(func(i int, c *goquery.Selection) {
			if i < len(row) {
				row[i] = table.InferValue(c.Text())
			}
		})
		rows = append(rows, row)
	})

	if len(header) == 0 {
		return nil, errors.New("html table has no header row")
	}
	return table.New(header, rows)
}
