package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/deliveryadvisor/advisor"
)

const (
	windowTitle         = "Asesor de pago contraentrega"
	logDebounceInterval = 150 * time.Millisecond
)

type tableColumn struct {
	Title  string
	Width  float32
	Render func(advisor.Outcome) string
}

type uiState struct {
	session *Session
	logger  *zap.Logger
	logs    *logCapture

	w            fyne.Window
	input        *widget.Entry
	bannerBg     *canvas.Rectangle
	bannerTitle  *canvas.Text
	narrative    *widget.Label
	status       *widget.Label
	histTbl      *widget.Table
	columns      []tableColumn
	logBind      binding.String
	logFlush     *logDebouncer
	recommendBtn *widget.Button
	exportBtn    *widget.Button
	clearBtn     *widget.Button
}

var historyColumns = []tableColumn{
	{Title: "Consulta", Width: 200, Render: func(o advisor.Outcome) string { return o.Query }},
	{Title: "Ciudad", Width: 200, Render: func(o advisor.Outcome) string { return o.Match.CandidateDisplay }},
	{Title: "Similitud", Width: 90, Render: func(o advisor.Outcome) string {
		if o.Match.CandidateDisplay == "" {
			return ""
		}
		return strconv.Itoa(o.Match.Similarity) + "%"
	}},
	{Title: "Predicción", Width: 100, Render: func(o advisor.Outcome) string {
		if o.Recommendation == nil {
			return ""
		}
		return fmt.Sprintf("%.4f", o.Recommendation.PredictedScore)
	}},
	{Title: "Resultado", Width: 150, Render: historyStatus},
}

func buildUI(a fyne.App, session *Session, logs *logCapture, logger *zap.Logger) *uiState {
	u := &uiState{session: session, logs: logs, logger: logger, columns: historyColumns}
	u.w = a.NewWindow(windowTitle)

	u.logBind = binding.NewString()
	u.logFlush = newLogDebouncer(logDebounceInterval, func() { _ = u.logBind.Set(u.logs.Text()) })
	logs.setNotify(u.logFlush.Request)
	u.w.SetOnClosed(func() {
		logs.setNotify(nil)
		u.logFlush.Stop()
	})

	u.input = widget.NewEntry()
	u.input.SetPlaceHolder("Ciudad de destino")
	u.input.OnSubmitted = func(string) { u.onRecommend() }

	u.recommendBtn = widget.NewButtonWithIcon("Recomendar", theme.ConfirmIcon(), func() { u.onRecommend() })
	u.exportBtn = widget.NewButtonWithIcon("Exportar CSV", theme.DocumentSaveIcon(), func() { u.onExport() })
	u.clearBtn = widget.NewButtonWithIcon("Limpiar historial", theme.DeleteIcon(), func() { u.onClear() })

	u.bannerBg = canvas.NewRectangle(bannerNone.color())
	u.bannerTitle = canvas.NewText("", theme.Color(theme.ColorNameForegroundOnPrimary))
	u.bannerTitle.TextStyle = fyne.TextStyle{Bold: true}
	u.bannerTitle.TextSize = theme.TextSubHeadingSize()
	u.narrative = widget.NewLabel("")
	u.narrative.Wrapping = fyne.TextWrapWord

	u.status = widget.NewLabel(catalogSummary(session.CatalogStats()))

	logView := widget.NewEntryWithData(u.logBind)
	logView.MultiLine = true
	logView.Wrapping = fyne.TextWrapWord
	logView.SetPlaceHolder("Registro")
	logView.Disable()

	u.histTbl = widget.NewTable(
		func() (int, int) { return u.session.Len() + 1, len(u.columns) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			if id.Row == 0 {
				lbl.SetText(u.columns[id.Col].Title)
				lbl.TextStyle = fyne.TextStyle{Bold: true}
				return
			}
			lbl.TextStyle = fyne.TextStyle{}
			o, ok := u.session.At(id.Row - 1)
			if !ok {
				lbl.SetText("")
				return
			}
			lbl.SetText(u.columns[id.Col].Render(o))
		},
	)
	for i, col := range u.columns {
		u.histTbl.SetColumnWidth(i, col.Width)
	}

	bannerBox := container.NewStack(u.bannerBg, container.NewPadded(u.bannerTitle))
	queryRow := container.NewBorder(nil, nil, nil, u.recommendBtn, u.input)
	top := container.NewVBox(
		widget.NewLabelWithStyle("Ciudad de destino", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		queryRow,
		bannerBox,
		u.narrative,
		widget.NewSeparator(),
	)
	history := container.NewBorder(
		container.NewHBox(widget.NewLabelWithStyle("Historial", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), u.exportBtn, u.clearBtn),
		nil, nil, nil, u.histTbl,
	)
	bottom := container.NewBorder(
		widget.NewLabelWithStyle("Registro", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.status, nil, nil, logView,
	)
	split := container.NewVSplit(history, bottom)
	split.Offset = 0.6

	u.w.SetContent(container.NewBorder(top, nil, nil, nil, split))
	u.w.Resize(fyne.NewSize(900, 720))
	u.w.Canvas().Focus(u.input)
	return u
}

func catalogSummary(stats advisor.CatalogStats) string {
	return fmt.Sprintf("Catálogo: %d ciudades indexadas, %d filas omitidas", stats.Indexed, stats.Skipped)
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		if b {
			u.recommendBtn.Disable()
			u.exportBtn.Disable()
			u.clearBtn.Disable()
		} else {
			u.recommendBtn.Enable()
			u.exportBtn.Enable()
			u.clearBtn.Enable()
		}
	})
}

func (u *uiState) showBanner(b banner) {
	fyne.Do(func() {
		u.bannerBg.FillColor = b.Kind.color()
		u.bannerBg.Refresh()
		u.bannerTitle.Text = b.Title
		u.bannerTitle.Refresh()
		u.narrative.SetText(b.Body)
	})
}

func (u *uiState) onRecommend() {
	query := strings.TrimSpace(u.input.Text)
	if query == "" {
		u.showBanner(bannerFor(advisor.Outcome{Err: advisor.ErrEmptyQuery}))
		return
	}
	u.setBusy(true)
	go func() {
		defer u.setBusy(false)
		o := u.session.Recommend(context.Background(), query)
		u.showBanner(bannerFor(o))
		fyne.Do(func() {
			u.histTbl.Refresh()
			u.input.SetText("")
		})
	}()
}

func (u *uiState) onExport() {
	if u.session.Len() == 0 {
		dialog.ShowInformation("Información", "No hay consultas para exportar", u.w)
		return
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		if err := u.session.ExportCSV(uc); err != nil {
			u.logger.Error("export history", zap.Error(err))
			dialog.ShowError(err, u.w)
			return
		}
		u.logger.Info("history exported", zap.String("uri", uc.URI().String()), zap.Int("rows", u.session.Len()))
	}, u.w)
	fd.SetFileName(fmt.Sprintf("recomendaciones_%s.csv", time.Now().Format("20060102150405")))
	fd.Show()
}

func (u *uiState) onClear() {
	u.session.Clear()
	u.histTbl.Refresh()
	u.showBanner(banner{})
}
