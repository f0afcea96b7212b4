package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

type LinkTableData struct {
	tview.TableContentReadOnly
}

type LinkStats struct {
	Receiving    bool
	Messages     int
	Characters   int
	Timeouts     int
	LevelDB      float64
	LevelPercent float64
	Speaking     bool
}

var overallLinkStats = LinkStats{}

func (l *LinkTableData) GetRowCount() int {
	return 5
}

func (l *LinkTableData) GetColumnCount() int {
	return 2
}

func (l *LinkTableData) GetCell(row, column int) *tview.TableCell {
	switch row {
	case 0:
		if column == 0 {
			return tview.NewTableCell("Receiving:")
		}

		color := tcell.ColorGreen
		if !overallLinkStats.Receiving {
			color = tcell.ColorRed
		}
		return tview.NewTableCell(fmt.Sprintf("%v", overallLinkStats.Receiving)).SetTextColor(color)
	case 1:
		if column == 0 {
			return tview.NewTableCell("Messages Rx'd:")
		}

		return tview.NewTableCell(fmt.Sprintf("%d", overallLinkStats.Messages))
	case 2:
		if column == 0 {
			return tview.NewTableCell("Characters Rx'd:")
		}

		return tview.NewTableCell(fmt.Sprintf("%d", overallLinkStats.Characters))
	case 3:
		if column == 0 {
			return tview.NewTableCell("Timeouts:")
		}

		return tview.NewTableCell(fmt.Sprintf("%d", overallLinkStats.Timeouts))
	case 4:
		if column == 0 {
			return tview.NewTableCell("Mic level:")
		}

		color := tcell.ColorGrey
		if overallLinkStats.Speaking {
			color = tcell.ColorGreen
		}
		return tview.NewTableCell(fmt.Sprintf("%.1f dB", overallLinkStats.LevelDB)).SetTextColor(color)
	}
	return tview.NewTableCell("ERROR")
}
