package app

import (
	"errors"
	"fmt"
	"image/color"

	"yashubustudio/deliveryadvisor/advisor"
)

type bannerKind int

const (
	bannerNone bannerKind = iota
	bannerSuccess
	bannerWarning
	bannerError
)

var (
	colorSuccess = color.NRGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff}
	colorWarning = color.NRGBA{R: 0xef, G: 0x6c, B: 0x00, A: 0xff}
	colorError   = color.NRGBA{R: 0xc6, G: 0x28, B: 0x28, A: 0xff}
)

func (k bannerKind) color() color.Color {
	switch k {
	case bannerSuccess:
		return colorSuccess
	case bannerWarning:
		return colorWarning
	case bannerError:
		return colorError
	default:
		return color.Transparent
	}
}

// banner is what the result area shows for one outcome.
type banner struct {
	Kind  bannerKind
	Title string
	Body  string
}

func bannerFor(o advisor.Outcome) banner {
	var notFound *advisor.NotFoundError
	switch {
	case o.Err == nil && o.Recommendation != nil:
		rec := o.Recommendation
		if rec.Label == advisor.LabelCOD {
			return banner{Kind: bannerSuccess, Title: "Se recomienda CONTRAENTREGA", Body: rec.Narrative()}
		}
		return banner{Kind: bannerWarning, Title: "Se recomienda PAGO ANTICIPADO", Body: rec.Narrative()}
	case errors.As(o.Err, &notFound):
		body := "No hay ninguna ciudad parecida en el catálogo."
		if notFound.Match.CandidateDisplay != "" {
			body = fmt.Sprintf("¿Quisiste decir %s? (similitud: %d%%, mínimo %d%%)",
				notFound.Match.CandidateDisplay, notFound.Match.Similarity, advisor.AcceptanceThreshold)
		}
		return banner{Kind: bannerWarning, Title: "Ciudad no encontrada", Body: body}
	case errors.Is(o.Err, advisor.ErrEmptyQuery):
		return banner{Kind: bannerWarning, Title: "Escribe una ciudad", Body: "La consulta está vacía."}
	default:
		return banner{Kind: bannerError, Title: "No se pudo calcular la predicción", Body: "Consulta el registro para más detalles."}
	}
}

// historyStatus is the short status cell of the history table.
func historyStatus(o advisor.Outcome) string {
	switch {
	case o.Recommendation != nil:
		if o.Recommendation.Label == advisor.LabelCOD {
			return "Contraentrega"
		}
		return "Pago anticipado"
	case errors.Is(o.Err, advisor.ErrNotFound):
		return "No encontrada"
	case errors.Is(o.Err, advisor.ErrEmptyQuery):
		return "Vacía"
	default:
		return "Error"
	}
}
