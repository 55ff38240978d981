package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bogotá", "bogota"},
		{"  Medellín  ", "medellin"},
		{"MEDELLÍN", "medellin"},
		{"Ñuñoa", "nunoa"},
		{"San   José\tdel Guaviare", "san jose del guaviare"},
		{"Straße", "strasse"},
		{"", ""},
		{" \t\n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCity(tt.in))
		})
	}
}

func TestNormalizeCity_Idempotent(t *testing.T) {
	inputs := []string{"Bogotá D.C.", "  CÚCUTA ", "Ñuñoa", "Ølstykke", "São Paulo", "", "   ", "Zipaquirá"}
	for _, in := range inputs {
		once := NormalizeCity(in)
		assert.Equal(t, once, NormalizeCity(once), "input %q", in)
	}
}

func TestNormalizeAll(t *testing.T) {
	assert.Equal(t, []string{"cali", "", "pasto"}, NormalizeAll([]string{"Cali", " ", "PASTO"}))
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "%_pm", normalizeHeader("% PM"))
	assert.Equal(t, "%pm", normalizeHeader("%PM"))
	assert.Equal(t, "direccion", normalizeHeader("Dirección"))
	assert.Equal(t, "hechos_violentos", normalizeHeader(" Hechos  Violentos "))
	assert.Equal(t, "ciudad", normalizeHeader("\ufeffCiudad"))
}
