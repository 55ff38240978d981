package advisor

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseQueryFile_PlainText(t *testing.T) {
	path := writeTemp(t, "queries.txt", "Bogotá\n\n  medellin \r\nCali\n")
	queries, err := ParseQueryFile(path, QueryParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bogotá", "medellin", "Cali"}, queries)
}

func TestParseQueryFile_CSVDetectsCityColumn(t *testing.T) {
	path := writeTemp(t, "pedidos.csv", "pedido,Ciudad Destino,valor\n1,Bogotá,10\n2,,20\n3,Pasto,30\n")
	queries, err := ParseQueryFile(path, QueryParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bogotá", "", "Pasto"}, queries)
}

func TestParseQueryFile_TSVExplicitColumn(t *testing.T) {
	path := writeTemp(t, "pedidos.tsv", "id\tdestino\tlugar\n1\tCali\tNeiva\n")

	queries, err := ParseQueryFile(path, QueryParseOptions{Column: "lugar"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Neiva"}, queries)

	queries, err = ParseQueryFile(path, QueryParseOptions{Column: "#3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lugar", "Neiva"}, queries)

	_, err = ParseQueryFile(path, QueryParseOptions{Column: "missing"})
	assert.Error(t, err)
	_, err = ParseQueryFile(path, QueryParseOptions{Column: "#0"})
	assert.Error(t, err)
}

func TestParseQueryFile_CSVWithoutHeader(t *testing.T) {
	path := writeTemp(t, "sin_encabezado.csv", "Bogotá,1\nCali,2\n")
	queries, err := ParseQueryFile(path, QueryParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bogotá", "Cali"}, queries)
}

func TestParseQueryFile_Missing(t *testing.T) {
	_, err := ParseQueryFile(filepath.Join(t.TempDir(), "nope.txt"), QueryParseOptions{})
	assert.Error(t, err)
}

func TestWriteResultsCSV(t *testing.T) {
	rec := Recommendation{MatchedCity: "Bogotá", Similarity: 100, PredictedScore: 0.7, Label: LabelCOD}
	notFound := ResolvedMatch{Query: "xyz", CandidateDisplay: "Yopal", Similarity: 22}
	outcomes := []Outcome{
		{Query: "bogota", Match: ResolvedMatch{CandidateDisplay: "Bogotá", Similarity: 100, Found: true}, Recommendation: &rec},
		{Query: "xyz", Match: notFound, Err: &NotFoundError{Match: notFound}},
		{Query: "", Err: ErrEmptyQuery},
		{Query: "cali", Match: ResolvedMatch{CandidateDisplay: "Cali", Similarity: 100, Found: true},
			Err: predictionFailed(errors.New("tensor shape [1 4]"))},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResultsCSV(&buf, outcomes))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"query", "matched_city", "similarity", "found", "predicted_score", "recommendation", "error"}, rows[0])
	assert.Equal(t, []string{"bogota", "Bogotá", "100", "true", "0.7000", "COD_RECOMMENDED", ""}, rows[1])
	assert.Equal(t, "false", rows[2][3])
	assert.Contains(t, rows[2][6], "Yopal")
	assert.Equal(t, "empty query", rows[3][6])
	assert.Equal(t, "prediction failed", rows[4][6])
}
