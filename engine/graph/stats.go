package graph

// YearStats counts what was recorded in one year.
type YearStats struct {
	Year     int `json:"year"`
	Indexes  int `json:"indexes"`
	Catalogs int `json:"catalogs"`
}

// Stats summarizes the loaded graph.
type Stats struct {
	Years    int         `json:"years"`
	Catalogs int         `json:"catalogs"`
	Indexes  int         `json:"indexes"`
	Areas    int         `json:"areas"`
	Records  int         `json:"records"`
	PerYear  []YearStats `json:"per_year,omitempty"`
}

// Stats returns node and record counts.
func (s *Snapshot) Stats() Stats {
	st := Stats{
		Years:    len(s.yearList),
		Catalogs: len(s.catalogs),
		Indexes:  len(s.indexes),
		Areas:    len(s.areas),
		Records:  len(s.records),
	}
	for _, y := range s.yearList {
		st.PerYear = append(st.PerYear, YearStats{
			Year:     y,
			Indexes:  len(s.IndexesIn(y)),
			Catalogs: len(s.CatalogsIn(y)),
		})
	}
	return st
}
