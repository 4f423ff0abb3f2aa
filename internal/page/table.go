package page

import (
	"golang.org/x/net/html"
)

// MatrixClass marks the payment status table on a renter page.
const MatrixClass = "payment-matrix"

// Table is a header row plus body rows of cell text. Headers[0] labels the
// row-key column.
type Table struct {
	Headers []string
	Rows    [][]string
}

func parseTable(n *html.Node) *Table {
	table := &Table{}
	var walk func(*html.Node, string)
	walk = func(c *html.Node, section string) {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "thead", "tbody", "tfoot":
				section = c.Data
			case "tr":
				cells := rowCells(c)
				isHeader := section == "thead" || (section == "" && table.Headers == nil && allHeaderCells(c))
				if isHeader {
					if table.Headers == nil {
						table.Headers = cells
					}
				} else if section != "tfoot" {
					table.Rows = append(table.Rows, cells)
				}
				return
			}
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child, section)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, "")
	}
	return table
}

func rowCells(tr *html.Node) []string {
	cells := []string{}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, textContent(c))
		}
	}
	return cells
}

func allHeaderCells(tr *html.Node) bool {
	seen := false
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.Data != "th" {
			return false
		}
		seen = true
	}
	return seen
}
