package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirplink/chirplink/analyzer"
	"github.com/chirplink/chirplink/config"
	"github.com/chirplink/chirplink/decode"
	"github.com/chirplink/chirplink/level"
	"github.com/gdamore/tcell/v2"
	"github.com/navidys/tvxwidgets"
	"github.com/rivo/tview"
)

var LogOut *tview.TextView

// StartUI runs the chat terminal: decoded conversation, transmit input,
// spectrum plot, mic level gauge and the log pane. send is invoked with the
// typed message and is expected to block for the transmission's duration.
func StartUI(dec *decode.Decoder, an *analyzer.Analyzer, mon *level.Monitor, send func(string), tuiConf config.TuiConf) {
	app := tview.NewApplication()

	LogOut = tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	conversation := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	conversation.SetBorder(true).SetTitle("Messages")

	linkData := &LinkTableData{}
	linkTable := tview.NewTable().SetContent(linkData)
	linkTable.SetSelectable(false, false).SetBorder(false)

	spectrumPlot := tvxwidgets.NewPlot()
	spectrumPlot.SetLineColor([]tcell.Color{tcell.ColorLightSkyBlue})
	spectrumPlot.SetMarker(tvxwidgets.PlotMarkerBraille)
	spectrumPlot.SetBorder(true)
	spectrumPlot.SetTitle("Spectrum")

	levelGauge := tvxwidgets.NewUtilModeGauge()
	levelGauge.SetLabel("Mic Level:     ")
	levelGauge.SetLabelColor(tcell.ColorLightSkyBlue)
	levelGauge.SetWarnPercentage(80)
	levelGauge.SetCritPercentage(95)
	levelGauge.SetEmptyColor(tcell.ColorBlack)
	levelGauge.SetBorder(false)

	input := tview.NewInputField().SetLabel("Send: ")
	input.SetBorder(true)
	input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := input.GetText()
		if text == "" {
			return
		}
		input.SetText("")
		fmt.Fprintf(conversation, "[yellow]>> %s[white]\n", text)
		go send(text)
	})

	LogOut.SetChangedFunc(func() {
		LogOut.ScrollToEnd()
		app.Draw()
	})
	LogOut.SetBorder(true).SetTitle("Log Output")
	log.SetOutput(LogOut)

	linkStatus := tview.NewFlex().SetDirection(tview.FlexRow)
	linkStatus.AddItem(linkTable, 0, 1, false)
	linkStatus.AddItem(levelGauge, 0, 1, false)
	linkStatus.SetBorder(true)
	linkStatus.SetTitle("Link Status")

	page := tview.NewFlex().SetDirection(tview.FlexColumn)

	leftCol := tview.NewFlex().SetDirection(tview.FlexRow)
	leftCol.AddItem(conversation, 0, 4, false)
	leftCol.AddItem(input, 3, 0, true)

	rightCol := tview.NewFlex().SetDirection(tview.FlexRow)
	rightCol.AddItem(linkStatus, 0, 2, false)
	if tuiConf.ShowSpectrum {
		rightCol.AddItem(spectrumPlot, 0, 2, false)
	}
	if tuiConf.EnableLogOutput {
		rightCol.AddItem(LogOut, 0, 2, false)
	}

	page.AddItem(leftCol, 0, 3, false)
	page.AddItem(rightCol, 0, 2, false)

	// Consume decoder events
	go func() {
		for ev := range dec.Events {
			switch ev.Kind {
			case decode.KindStart:
				fmt.Fprintf(conversation, "[grey]-- incoming --[white]\n")
			case decode.KindChar:
				overallLinkStats.Characters++
			case decode.KindEnd:
				overallLinkStats.Messages++
				if ev.Timeout {
					overallLinkStats.Timeouts++
					fmt.Fprintf(conversation, "[red]<< %s (timeout)[white]\n", ev.Text)
				} else {
					fmt.Fprintf(conversation, "[green]<< %s[white]\n", ev.Text)
				}
			}
			app.Draw()
		}
	}()

	// Update stats, gauge and spectrum
	go func() {
		for {
			overallLinkStats.Receiving = dec.Receiving()

			// Drain to the freshest level reading
			draining := true
			for draining {
				select {
				case lv := <-mon.Levels:
					overallLinkStats.LevelDB = lv.DB
					overallLinkStats.LevelPercent = lv.Percent
					overallLinkStats.Speaking = lv.Speaking
				default:
					draining = false
				}
			}
			levelGauge.SetValue(overallLinkStats.LevelPercent)

			if bins := an.Current(); len(bins) > 0 {
				step := len(bins) / 128
				if step < 1 {
					step = 1
				}
				var plot []float64
				for i := 0; i < len(bins); i += step {
					plot = append(plot, float64(bins[i]))
				}
				spectrumPlot.SetData([][]float64{plot})
			}

			app.Draw()
			time.Sleep(time.Duration(tuiConf.RefreshMs) * time.Millisecond)
		}
	}()

	if err := app.SetRoot(page, true).EnableMouse(true).Run(); err != nil {
		log.Fatalf("Could not start UI: %v", err)
	}
}
