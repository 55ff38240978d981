package advisor

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

type catalogColumns struct {
	city, office, addressRisk, violent, partialPayment, deliveries, returns int
}

// LoadCatalog opens cfg.Path and reads it with ReadCatalog.
func LoadCatalog(cfg CatalogConfig, logger *zap.Logger) (*Catalog, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: open %s", filepath.Base(cfg.Path))
	}
	defer f.Close()
	return ReadCatalog(f, cfg, logger)
}

// ReadCatalog parses a delimited reference table. Rows that fail to parse
// or decode are skipped and counted; only an unreadable header or a
// missing city column aborts the load. The returned catalog may be empty.
func ReadCatalog(r io.Reader, cfg CatalogConfig, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	delim, err := cfg.DelimiterRune()
	if err != nil {
		return nil, err
	}
	scale, err := cfg.Scale()
	if err != nil {
		return nil, err
	}
	src, isUTF8, err := decodeSource(r, cfg.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(src)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = cfg.LazyQuotes

	headerRow, err := reader.Read()
	if errors.Is(err, io.EOF) {
		logger.Warn("catalog source is empty")
		return NewCatalog(nil), nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read header")
	}
	header := make([]string, len(headerRow))
	for i, cell := range headerRow {
		header[i] = normalizeHeader(cell)
	}
	cols, missing := bindColumns(header, cfg.Aliases.withDefaults())
	if cols.city < 0 {
		return nil, eris.Errorf("catalog: no city column in header %q", headerRow)
	}
	if len(missing) > 0 {
		logger.Warn("catalog columns not found, values default to 0", zap.Strings("columns", missing))
	}

	var entries []CatalogEntry
	var skipped []SkippedRow
	skip := func(line int, reason string) {
		skipped = append(skipped, SkippedRow{Line: line, Reason: reason})
		logger.Warn("catalog row skipped", zap.Int("line", line), zap.String("reason", reason))
	}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, eris.Wrap(err, "catalog: read row")
			}
			skip(parseErr.StartLine, parseErr.Err.Error())
			continue
		}
		line, _ := reader.FieldPos(0)
		if isUTF8 && !validRecord(record) {
			skip(line, "invalid utf-8")
			continue
		}
		entries = append(entries, CatalogEntry{
			Line:                  line,
			CityNameRaw:           cellAt(record, cols.city),
			OfficeFlag:            cellAt(record, cols.office),
			AddressRiskFlag:       cellAt(record, cols.addressRisk),
			ViolentIncidentsFlag:  cellAt(record, cols.violent),
			PartialPaymentPercent: cellAt(record, cols.partialPayment),
			DeliveriesCount:       cellAt(record, cols.deliveries),
			ReturnsCount:          cellAt(record, cols.returns),
			PercentScale:          scale,
		})
	}

	catalog := NewCatalog(entries)
	catalog.stats.Skipped = len(skipped)
	catalog.stats.SkippedRows = skipped
	catalog.stats.MissingColumns = missing
	logger.Info("catalog loaded",
		zap.Int("rows", catalog.stats.Rows),
		zap.Int("indexed", catalog.stats.Indexed),
		zap.Int("unnamed", catalog.stats.Unnamed),
		zap.Int("duplicates", catalog.stats.Duplicates),
		zap.Int("skipped", catalog.stats.Skipped),
	)
	return catalog, nil
}

func decodeSource(r io.Reader, encodingName string) (io.Reader, bool, error) {
	label := strings.TrimSpace(encodingName)
	if label == "" {
		return r, true, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, false, eris.Wrapf(err, "catalog: unsupported encoding %q", encodingName)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return r, true, nil
	}
	return enc.NewDecoder().Reader(r), false, nil
}

func bindColumns(header []string, aliases ColumnAliases) (catalogColumns, []string) {
	cols := catalogColumns{
		city:           findColumn(header, aliases.City),
		office:         findColumn(header, aliases.Office),
		addressRisk:    findColumn(header, aliases.AddressRisk),
		violent:        findColumn(header, aliases.ViolentIncidents),
		partialPayment: findColumn(header, aliases.PartialPayment),
		deliveries:     findColumn(header, aliases.Deliveries),
		returns:        findColumn(header, aliases.Returns),
	}
	var missing []string
	for _, c := range []struct {
		name string
		idx  int
	}{
		{"office", cols.office},
		{"address_risk", cols.addressRisk},
		{"violent_incidents", cols.violent},
		{"partial_payment", cols.partialPayment},
		{"deliveries", cols.deliveries},
		{"returns", cols.returns},
	} {
		if c.idx < 0 {
			missing = append(missing, c.name)
		}
	}
	return cols, missing
}

func cellAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return cleanCell(record[idx])
}

func validRecord(record []string) bool {
	for _, cell := range record {
		if !utf8.ValidString(cell) {
			return false
		}
	}
	return true
}

// QueryParseOptions selects the query column of a structured batch file.
type QueryParseOptions struct {
	// Column is a header name or a 1-based "#N" index. Empty means detect
	// it from the city aliases.
	Column string
}

var queryColumnCandidates = []string{"query", "consulta"}

// ParseQueryFile reads batch queries. CSV and TSV files yield one query per
// row from the detected or selected column, keeping blank cells so output
// rows line up with input rows; any other file yields one query per
// non-blank line.
func ParseQueryFile(path string, opts QueryParseOptions) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseDelimitedQueries(path, ',', opts)
	case ".tsv":
		return parseDelimitedQueries(path, '\t', opts)
	default:
		return parsePlainQueries(path)
	}
}

func parsePlainQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open query file")
	}
	defer f.Close()
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := cleanCell(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "scan query file")
	}
	return out, nil
}

func parseDelimitedQueries(path string, comma rune, opts QueryParseOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", filepath.Base(path))
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", filepath.Base(path))
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = normalizeHeader(cell)
	}
	col, start, err := resolveQueryColumn(header, opts.Column)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows)-start)
	for _, row := range rows[start:] {
		out = append(out, cellAt(row, col))
	}
	return out, nil
}

// resolveQueryColumn returns the column index and the first data row.
// Without a recognizable header the first column is used and no row is
// skipped.
func resolveQueryColumn(header []string, explicit string) (int, int, error) {
	trimmed := strings.TrimSpace(explicit)
	if trimmed != "" {
		if idx := findColumn(header, []string{trimmed}); idx >= 0 {
			return idx, 1, nil
		}
		if strings.HasPrefix(trimmed, "#") {
			idx, err := parseColumnIndex(trimmed)
			if err != nil {
				return -1, 0, err
			}
			return idx, 0, nil
		}
		return -1, 0, eris.Errorf("column %q not found", explicit)
	}
	candidates := append(DefaultColumnAliases().City, queryColumnCandidates...)
	if idx := findColumn(header, candidates); idx >= 0 {
		return idx, 1, nil
	}
	return 0, 0, nil
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, eris.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, eris.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}

var resultHeader = []string{"query", "matched_city", "similarity", "found", "predicted_score", "recommendation", "error"}

// WriteResultsCSV writes one row per outcome.
func WriteResultsCSV(w io.Writer, outcomes []Outcome) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(resultHeader); err != nil {
		return eris.Wrap(err, "write header")
	}
	for i, o := range outcomes {
		row := []string{
			o.Query,
			o.Match.CandidateDisplay,
			strconv.Itoa(o.Match.Similarity),
			strconv.FormatBool(o.Match.Found),
			"",
			"",
			"",
		}
		if o.Recommendation != nil {
			row[4] = strconv.FormatFloat(o.Recommendation.PredictedScore, 'f', 4, 64)
			row[5] = string(o.Recommendation.Label)
		}
		if o.Err != nil {
			row[6] = o.PublicError()
		}
		if err := writer.Write(row); err != nil {
			return eris.Wrapf(err, "write row %d", i)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return eris.Wrap(err, "flush results")
	}
	return nil
}
