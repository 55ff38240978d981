package advisor

import "fmt"

// Label is the binary payment-method recommendation.
type Label string

const (
	// LabelCOD recommends collecting payment at delivery time.
	LabelCOD Label = "COD_RECOMMENDED"
	// LabelPrepaid recommends collecting payment before shipment.
	LabelPrepaid Label = "PREPAID_RECOMMENDED"
)

// CatalogEntry is one row of the reference dataset. Statistic fields hold
// the raw cell text; numeric coercion happens in the Assembler so that a
// malformed value never rejects the row.
type CatalogEntry struct {
	Line                  int    `json:"line"`
	CityNameRaw           string `json:"city"`
	CityNameNormalized    string `json:"cityNormalized"`
	OfficeFlag            string `json:"officeFlag"`
	AddressRiskFlag       string `json:"addressRiskFlag"`
	ViolentIncidentsFlag  string `json:"violentIncidentsFlag"`
	PartialPaymentPercent string `json:"partialPaymentPercent"`
	DeliveriesCount       string `json:"deliveriesCount"`
	ReturnsCount          string `json:"returnsCount"`
	// PercentScale converts PartialPaymentPercent to the canonical 0-100
	// unit. Zero means the source already uses percentages.
	PercentScale float64 `json:"-"`
}

// ResolvedMatch is the outcome of fuzzy resolution for one query.
type ResolvedMatch struct {
	Query           string `json:"query"`
	NormalizedQuery string `json:"normalizedQuery"`
	// Candidate is the best-scoring normalized name, set even when the
	// score is below the acceptance threshold.
	Candidate        string `json:"candidate,omitempty"`
	CandidateDisplay string `json:"candidateDisplay,omitempty"`
	Similarity       int    `json:"similarity"`
	Found            bool   `json:"found"`
	// Entry is nil unless Found. It points into the catalog and must not be
	// modified.
	Entry *CatalogEntry `json:"-"`
}

// Recommendation is the final decision for a query.
type Recommendation struct {
	Query          string        `json:"query"`
	MatchedCity    string        `json:"matchedCity"`
	Similarity     int           `json:"similarity"`
	Features       FeatureVector `json:"features"`
	PredictedScore float64       `json:"predictedScore"`
	Label          Label         `json:"label"`
}

// Narrative renders the match feedback and decision the way the delivery
// desk reads it.
func (r Recommendation) Narrative() string {
	head := fmt.Sprintf("Ciudad más parecida encontrada: %s (similitud: %d%%)\nPredicción del modelo: %.4f\n",
		r.MatchedCity, r.Similarity, r.PredictedScore)
	if r.Label == LabelCOD {
		return head + "Puedes hacer la entrega CONTRAENTREGA con alta probabilidad de éxito."
	}
	return head + "Se recomienda PAGO ANTICIPADO para evitar riesgo de devolución."
}
