package advisor

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FeatureSchemaVersion identifies the column contract the predictor was
// trained with. Bump it together with featureNames.
const FeatureSchemaVersion = "v1"

const (
	FeaturePartialPaymentPercent = "partial_payment_percent"
	FeatureOfficeFlag            = "office_flag"
	FeatureAddressRiskFlag       = "address_risk_flag"
	FeatureViolentIncidentsFlag  = "violent_incidents_flag"
	FeatureReturnRate            = "return_rate"
)

// featureNames is the training-time column order. The predictor reads
// columns by position, so reordering here silently corrupts predictions.
var featureNames = [...]string{
	FeaturePartialPaymentPercent,
	FeatureOfficeFlag,
	FeatureAddressRiskFlag,
	FeatureViolentIncidentsFlag,
	FeatureReturnRate,
}

// FeatureNames returns the pinned, ordered predictor columns.
func FeatureNames() []string {
	return slices.Clone(featureNames[:])
}

// CheckFeatureContract reports ErrSchemaMismatch unless version and names
// equal the pinned schema exactly.
func CheckFeatureContract(version string, names []string) error {
	if version != FeatureSchemaVersion {
		return eris.Wrapf(ErrSchemaMismatch, "schema version %q, want %q", version, FeatureSchemaVersion)
	}
	if !slices.Equal(names, featureNames[:]) {
		return eris.Wrapf(ErrSchemaMismatch, "columns %v, want %v", names, featureNames)
	}
	return nil
}

// FeatureVector holds the predictor inputs. Every value is finite.
type FeatureVector struct {
	PartialPaymentPercent float64 `json:"partialPaymentPercent"`
	OfficeFlag            float64 `json:"officeFlag"`
	AddressRiskFlag       float64 `json:"addressRiskFlag"`
	ViolentIncidentsFlag  float64 `json:"violentIncidentsFlag"`
	ReturnRate            float64 `json:"returnRate"`
	// Defaulted names the features whose source value was replaced by 0.
	Defaulted []string `json:"defaulted,omitempty"`
}

// Values returns the features in FeatureNames order.
func (v FeatureVector) Values() []float64 {
	return []float64{
		v.PartialPaymentPercent,
		v.OfficeFlag,
		v.AddressRiskFlag,
		v.ViolentIncidentsFlag,
		v.ReturnRate,
	}
}

// Table wraps the vector as the single-row table the predictor consumes.
func (v FeatureVector) Table() FeatureTable {
	return FeatureTable{
		SchemaVersion: FeatureSchemaVersion,
		Columns:       FeatureNames(),
		Rows:          [][]float64{v.Values()},
	}
}

// Assembler turns catalog rows into feature vectors, replacing missing or
// malformed values with 0. It never fails.
type Assembler struct {
	logger *zap.Logger
}

// NewAssembler builds an assembler. Substituted defaults are logged at
// debug level.
func NewAssembler(logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{logger: logger}
}

// Assemble builds the feature vector for entry without logging.
func Assemble(entry CatalogEntry) FeatureVector {
	return NewAssembler(nil).Assemble(entry)
}

// Assemble builds the feature vector for entry.
func (a *Assembler) Assemble(entry CatalogEntry) FeatureVector {
	var v FeatureVector
	coerce := func(feature, raw string) float64 {
		f, ok := parseNumber(raw)
		if !ok {
			v.Defaulted = append(v.Defaulted, feature)
			a.logDefault(entry, feature, raw, "missing or not numeric")
			return 0
		}
		return f
	}

	v.PartialPaymentPercent = coerce(FeaturePartialPaymentPercent, entry.PartialPaymentPercent)
	if entry.PercentScale > 0 {
		v.PartialPaymentPercent = finiteOrZero(v.PartialPaymentPercent * entry.PercentScale)
	}
	v.OfficeFlag = coerce(FeatureOfficeFlag, entry.OfficeFlag)
	v.AddressRiskFlag = coerce(FeatureAddressRiskFlag, entry.AddressRiskFlag)
	v.ViolentIncidentsFlag = coerce(FeatureViolentIncidentsFlag, entry.ViolentIncidentsFlag)
	v.ReturnRate = a.returnRate(entry, &v)
	return v
}

func (a *Assembler) returnRate(entry CatalogEntry, v *FeatureVector) float64 {
	deliveries, ok := a.parseCountCell(entry, "deliveries", entry.DeliveriesCount)
	if !ok || deliveries <= 0 {
		v.Defaulted = append(v.Defaulted, FeatureReturnRate)
		a.logDefault(entry, FeatureReturnRate, entry.DeliveriesCount, "no positive delivery count")
		return 0
	}
	returns, ok := a.parseCountCell(entry, "returns", entry.ReturnsCount)
	if !ok {
		v.Defaulted = append(v.Defaulted, FeatureReturnRate)
		a.logDefault(entry, FeatureReturnRate, entry.ReturnsCount, "returns count missing, treated as 0")
		return 0
	}
	return finiteOrZero(returns / deliveries)
}

func (a *Assembler) parseCountCell(entry CatalogEntry, column, raw string) (float64, bool) {
	n, ok := parseCount(raw)
	if ok && n != math.Trunc(n) {
		a.logger.Debug("count has a fractional part",
			zap.String("city", entry.CityNameRaw),
			zap.Int("line", entry.Line),
			zap.String("column", column),
			zap.String("raw", raw),
			zap.Float64("parsed", n),
		)
	}
	return n, ok
}

func (a *Assembler) logDefault(entry CatalogEntry, feature, raw, reason string) {
	a.logger.Debug("feature defaulted to 0",
		zap.String("city", entry.CityNameRaw),
		zap.Int("line", entry.Line),
		zap.String("feature", feature),
		zap.String("raw", raw),
		zap.String("reason", reason),
	)
}

var flagWords = map[string]float64{
	"si": 1, "s": 1, "yes": 1, "y": 1, "true": 1, "verdadero": 1, "x": 1,
	"no": 0, "n": 0, "false": 0, "falso": 0,
}

// parseNumber coerces a raw cell to a finite number. It accepts a trailing
// or leading percent sign, a decimal comma, thousands separators and
// yes/no words.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if f, ok := flagWords[NormalizeCity(s)]; ok {
		return f, true
	}
	s = strings.TrimSpace(strings.Trim(s, "%"))
	s = strings.ReplaceAll(s, " ", "")
	lastComma, lastDot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0 && strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var groupedInteger = regexp.MustCompile(`^(?:\d+|\d{1,3}(?:,\d{3})+|\d{1,3}(?:\.\d{3})+)$`)

// parseCount reads a count cell. Digit groups of three after a single
// separator kind are thousands, so "1,234" and "1.234" are both 1234.
// Anything else goes through parseNumber.
func parseCount(raw string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if groupedInteger.MatchString(s) {
		n, err := strconv.ParseInt(strings.NewReplacer(",", "", ".", "").Replace(s), 10, 64)
		if err == nil {
			return float64(n), true
		}
	}
	return parseNumber(raw)
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
