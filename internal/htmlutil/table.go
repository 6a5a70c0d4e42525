package htmlutil

import (
	"github.com/PuerkitoBio/goquery"
)

// HTMLTableTo2D flattens a table into row-major cleaned cell text.
// Rows of nested tables are not included. Rows without cells are dropped.
func HTMLTableTo2D(table *goquery.Selection) [][]string {
	if table == nil || table.Length() == 0 {
		return nil
	}
	table = table.First()

	var grid [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if !tr.Closest("table").IsSelection(table) {
			return
		}
		cells := tr.ChildrenFiltered("th, td")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			row = append(row, CleanText(cell.Text()))
		})
		grid = append(grid, row)
	})

	return grid
}
