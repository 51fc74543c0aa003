package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateQuery_Valid(t *testing.T) {
	cases := []Query{
		{Type: YearStatus, Years: []YearRef{Year(2011)}},
		{Type: IndexValue, Years: []YearRef{Year(11)}, Indexes: []string{"货邮周转量"}},
		{Type: IndexTimeDiff, Years: []YearRef{Year(2012), YearsAgo(1)}, Indexes: []string{"旅客周转量"}},
		{Type: AreaRatio, Years: []YearRef{Year(2011)}, Indexes: []string{"运输总周转量"}, Areas: []string{"国内", "港澳台"}},
		{Type: IndexTrend, Years: []YearRef{YearSpan(2011, 13)}, Indexes: []string{"运输总周转量"}},
		{Type: BeginStats, Indexes: []string{"事故征候"}},
	}
	for _, q := range cases {
		if err := ValidateQuery(q); err != nil {
			t.Errorf("expected valid for %s, got %v", q, err)
		}
	}
}

func TestValidateQuery_UnknownType(t *testing.T) {
	err := ValidateQuery(Query{Type: numQuestionTypes})
	if !errors.Is(err, ErrUnknownQuestionType) {
		t.Fatalf("expected ErrUnknownQuestionType, got %v", err)
	}
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery in chain, got %v", err)
	}
}

func TestValidateQuery_MissingEntities(t *testing.T) {
	cases := []struct {
		name  string
		q     Query
		field string
	}{
		{"no years", Query{Type: IndexValue, Indexes: []string{"x"}}, "years"},
		{"one year for two-year family", Query{Type: IndexTimeRatio, Years: []YearRef{Year(2011)}, Indexes: []string{"x"}}, "years"},
		{"one index for ratio", Query{Type: IndexRatio, Years: []YearRef{Year(2011)}, Indexes: []string{"x"}}, "indexes"},
		{"blank index", Query{Type: IndexValue, Years: []YearRef{Year(2011)}, Indexes: []string{" "}}, "indexes"},
		{"same index twice", Query{Type: IndexRatio, Years: []YearRef{Year(2011)}, Indexes: []string{"x", " x"}}, "indexes"},
		{"same area twice", Query{Type: AreaRatio, Years: []YearRef{Year(2011)}, Indexes: []string{"x"}, Areas: []string{"国内", "国内"}}, "areas"},
		{"no area", Query{Type: AreaValue, Years: []YearRef{Year(2011)}, Indexes: []string{"x"}}, "areas"},
		{"no catalog", Query{Type: CatalogStatus, Years: []YearRef{Year(2011)}}, "catalogs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateQuery(tc.q)
			if !errors.Is(err, ErrMissingEntity) {
				t.Fatalf("expected ErrMissingEntity, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestValidateQuery_InvalidYears(t *testing.T) {
	cases := []Query{
		{Type: YearStatus, Years: []YearRef{YearsAgo(1)}},
		{Type: YearStatus, Years: []YearRef{YearsAgo(0), Year(2011)}},
		{Type: IndexTrend, Years: []YearRef{YearSpan(2013, 2011)}, Indexes: []string{"x"}},
		{Type: YearStatus, Years: []YearRef{{Kind: 9, Year: 2011}}},
	}
	for _, q := range cases {
		if err := ValidateQuery(q); !errors.Is(err, ErrInvalidYear) {
			t.Errorf("expected ErrInvalidYear for %s, got %v", q, err)
		}
	}
}

func TestNormalizeYear(t *testing.T) {
	tests := []struct{ in, want int }{
		{11, 2011}, {0, 2000}, {99, 2099}, {2012, 2012},
	}
	for _, tt := range tests {
		if got := NormalizeYear(tt.in); got != tt.want {
			t.Errorf("NormalizeYear(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestQuestionTypeNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, qt := range QuestionTypes() {
		name := qt.String()
		if name == "" {
			t.Fatalf("question type %d has no name", qt)
		}
		if seen[name] {
			t.Fatalf("duplicate name %q", name)
		}
		seen[name] = true

		back, err := ParseQuestionType(name)
		if err != nil || back != qt {
			t.Fatalf("ParseQuestionType(%q) = %v, %v", name, back, err)
		}
	}
	if _, err := ParseQuestionType("nope"); !errors.Is(err, ErrUnknownQuestionType) {
		t.Fatalf("expected ErrUnknownQuestionType, got %v", err)
	}
}

func TestQueryJSON(t *testing.T) {
	raw := `{"question":"2011年的货邮周转量是多少？","type":"index_value","years":[{"kind":0,"year":2011}],"indexes":["货邮周转量"]}`
	var q Query
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatal(err)
	}
	if q.Type != IndexValue || len(q.Years) != 1 || q.Years[0].Year != 2011 {
		t.Fatalf("unexpected query: %+v", q)
	}

	if err := json.Unmarshal([]byte(`{"type":"bogus"}`), &q); !errors.Is(err, ErrUnknownQuestionType) {
		t.Fatalf("expected ErrUnknownQuestionType, got %v", err)
	}
}

// recorder notes which visitor method ran.
type recorder struct{}

func (recorder) YearStatus(Query) string       { return "YearStatus" }
func (recorder) CatalogStatus(Query) string    { return "CatalogStatus" }
func (recorder) ExistCatalog(Query) string     { return "ExistCatalog" }
func (recorder) IndexValue(Query) string       { return "IndexValue" }
func (recorder) AreaValue(Query) string        { return "AreaValue" }
func (recorder) IndexShare(Query) string       { return "IndexShare" }
func (recorder) IndexShareChange(Query) string { return "IndexShareChange" }
func (recorder) IndexRatio(Query) string       { return "IndexRatio" }
func (recorder) IndexTimeRatio(Query) string   { return "IndexTimeRatio" }
func (recorder) IndexDiff(Query) string        { return "IndexDiff" }
func (recorder) IndexTimeDiff(Query) string    { return "IndexTimeDiff" }
func (recorder) IndexGrowth(Query) string      { return "IndexGrowth" }
func (recorder) AreaShare(Query) string        { return "AreaShare" }
func (recorder) AreaShareChange(Query) string  { return "AreaShareChange" }
func (recorder) AreaRatio(Query) string        { return "AreaRatio" }
func (recorder) AreaTimeRatio(Query) string    { return "AreaTimeRatio" }
func (recorder) AreaDiff(Query) string         { return "AreaDiff" }
func (recorder) AreaTimeDiff(Query) string     { return "AreaTimeDiff" }
func (recorder) AreaGrowth(Query) string       { return "AreaGrowth" }
func (recorder) IndexCompose(Query) string     { return "IndexCompose" }
func (recorder) CatalogChange(Query) string    { return "CatalogChange" }
func (recorder) IndexChange(Query) string      { return "IndexChange" }
func (recorder) IndexesChange(Query) string    { return "IndexesChange" }
func (recorder) CatalogsChange(Query) string   { return "CatalogsChange" }
func (recorder) IndexTrend(Query) string       { return "IndexTrend" }
func (recorder) AreaTrend(Query) string        { return "AreaTrend" }
func (recorder) IndexShareTrend(Query) string  { return "IndexShareTrend" }
func (recorder) AreaShareTrend(Query) string   { return "AreaShareTrend" }
func (recorder) IndexExtreme(Query) string     { return "IndexExtreme" }
func (recorder) AreaExtreme(Query) string      { return "AreaExtreme" }
func (recorder) BeginStats(Query) string       { return "BeginStats" }

func TestDispatch_EveryTypeReachesDistinctMethod(t *testing.T) {
	seen := make(map[string]QuestionType)
	for _, qt := range QuestionTypes() {
		q := Query{
			Type:     qt,
			Years:    []YearRef{Year(2012), YearsAgo(1)},
			Indexes:  []string{"a", "b"},
			Areas:    []string{"x", "y"},
			Catalogs: []string{"c"},
		}
		got, err := Dispatch[string](q, recorder{})
		if err != nil {
			t.Fatalf("%s: %v", qt, err)
		}
		if prev, dup := seen[got]; dup {
			t.Fatalf("%s and %s both dispatched to %s", prev, qt, got)
		}
		seen[got] = qt
	}
	if len(seen) != int(numQuestionTypes) {
		t.Fatalf("dispatched to %d methods, want %d", len(seen), numQuestionTypes)
	}
}

func TestDispatch_InvalidQuery(t *testing.T) {
	_, err := Dispatch[string](Query{Type: IndexValue}, recorder{})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}
