package advisor

// ColumnAliases lists accepted header spellings for each recognized
// catalog field. Headers are compared after normalizeHeader, so case,
// accents, surrounding blanks and space-vs-underscore never matter.
type ColumnAliases struct {
	City             []string `json:"city" yaml:"city" mapstructure:"city"`
	Office           []string `json:"office" yaml:"office" mapstructure:"office"`
	AddressRisk      []string `json:"addressRisk" yaml:"address_risk" mapstructure:"address_risk"`
	ViolentIncidents []string `json:"violentIncidents" yaml:"violent_incidents" mapstructure:"violent_incidents"`
	PartialPayment   []string `json:"partialPayment" yaml:"partial_payment" mapstructure:"partial_payment"`
	Deliveries       []string `json:"deliveries" yaml:"deliveries" mapstructure:"deliveries"`
	Returns          []string `json:"returns" yaml:"returns" mapstructure:"returns"`
}

func defaultColumnAliases() ColumnAliases {
	return ColumnAliases{
		City:             []string{"ciudad", "city", "municipio", "ciudad destino", "destino"},
		Office:           []string{"oficina", "office", "office_flag", "tiene oficina"},
		AddressRisk:      []string{"dirección", "address", "address_risk_flag", "riesgo dirección"},
		ViolentIncidents: []string{"hechos violentos", "violent_incidents_flag", "violencia"},
		PartialPayment:   []string{"% pm", "%pm", "pm", "porcentaje pm", "partial_payment_percent"},
		Deliveries:       []string{"entregas", "envíos", "total entregas", "deliveries", "deliveries_count"},
		Returns:          []string{"devoluciones", "total devoluciones", "returns", "returns_count"},
	}
}

// DefaultColumnAliases returns the built-in alias table.
func DefaultColumnAliases() ColumnAliases {
	return defaultColumnAliases().clone()
}

// withDefaults appends the built-in aliases after any configured ones, so
// configuration can add spellings without losing the known ones.
func (c ColumnAliases) withDefaults() ColumnAliases {
	defaults := defaultColumnAliases()
	return ColumnAliases{
		City:             mergeStrings(c.City, defaults.City),
		Office:           mergeStrings(c.Office, defaults.Office),
		AddressRisk:      mergeStrings(c.AddressRisk, defaults.AddressRisk),
		ViolentIncidents: mergeStrings(c.ViolentIncidents, defaults.ViolentIncidents),
		PartialPayment:   mergeStrings(c.PartialPayment, defaults.PartialPayment),
		Deliveries:       mergeStrings(c.Deliveries, defaults.Deliveries),
		Returns:          mergeStrings(c.Returns, defaults.Returns),
	}
}

func (c ColumnAliases) clone() ColumnAliases {
	return ColumnAliases{
		City:             cloneStrings(c.City),
		Office:           cloneStrings(c.Office),
		AddressRisk:      cloneStrings(c.AddressRisk),
		ViolentIncidents: cloneStrings(c.ViolentIncidents),
		PartialPayment:   cloneStrings(c.PartialPayment),
		Deliveries:       cloneStrings(c.Deliveries),
		Returns:          cloneStrings(c.Returns),
	}
}

func mergeStrings(custom, fallback []string) []string {
	out := make([]string, 0, len(custom)+len(fallback))
	seen := make(map[string]struct{}, len(custom)+len(fallback))
	for _, list := range [][]string{custom, fallback} {
		for _, v := range list {
			key := normalizeHeader(v)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		key := normalizeHeader(cand)
		for i, col := range header {
			if col == key {
				return i
			}
		}
	}
	return -1
}
