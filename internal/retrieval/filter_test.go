package retrieval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"school-assistant/internal/domain/model"
)

const siswaCSV = "Nama,NISN,Rombel Saat Ini,JK\n" +
	"Budi,001,X 1,L\n" +
	"Siti,002,X-1,P\n" +
	"Andi,003,XI 2,L\n" +
	"Rina,004\n"

const presensiCSV = "NISN,Tanggal,Status\n001,2025-01-02,Hadir\n003,2025-01-02,Alpa\n002,2025-01-03,Hadir\n"

func snapshot() *model.DataSnapshot {
	return &model.DataSnapshot{
		Data: map[string]string{
			"SISWA":           siswaCSV,
			"PRESENSI SHALAT": presensiCSV,
		},
		Names: []string{"SISWA", "PRESENSI SHALAT"},
	}
}

func TestExecute_NoFiltersReturnsSourceVerbatim(t *testing.T) {
	ex := NewExecutor(nil, nil)
	plan := model.RetrievalPlan{Searches: []model.Search{{SourceName: "siswa"}}}

	out := ex.Execute(plan, snapshot())

	require.Equal(t, []string{"SISWA"}, out.Names())
	require.Equal(t, siswaCSV, out.Get("SISWA"))
}

func TestExecute_UnknownSourceIgnored(t *testing.T) {
	ex := NewExecutor(nil, nil)
	plan := model.RetrievalPlan{Searches: []model.Search{
		{SourceName: "GURU"},
		{SourceName: "'; DROP TABLE"},
	}}
	require.True(t, ex.Execute(plan, snapshot()).Empty())
}

func TestExecute_FiltersAreANDedAndCaseInsensitive(t *testing.T) {
	ex := NewExecutor(nil, nil)
	plan := model.RetrievalPlan{Searches: []model.Search{{
		SourceName: "SISWA",
		Filters: []model.Filter{
			{Column: "Rombel Saat Ini", Value: "x 1"},
			{Column: "jk", Value: "p"},
		},
	}}}

	out := ex.Execute(plan, snapshot())

	tbl, err := ParseTable(out.Get("SISWA"))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	require.Equal(t, "Siti", tbl.Rows[0][0])
}

func TestExecute_ClassNormalizationMatchesVariants(t *testing.T) {
	ex := NewExecutor(nil, nil)
	plan := model.RetrievalPlan{Searches: []model.Search{{
		SourceName: "SISWA",
		Filters:    []model.Filter{{Column: "Rombel Saat Ini", Value: "10.1"}},
	}}}

	tbl, err := ParseTable(ex.Execute(plan, snapshot()).Get("SISWA"))
	require.NoError(t, err)
	names := []string{}
	for _, r := range tbl.Rows {
		names = append(names, r[0])
	}
	require.Equal(t, []string{"Budi", "Siti"}, names)
}

func TestExecute_RowsMissingColumnExcluded(t *testing.T) {
	ex := NewExecutor(nil, nil)
	// Rina's row stops after NISN, so it has no JK field at all.
	plan := model.RetrievalPlan{Searches: []model.Search{{
		SourceName: "SISWA",
		Filters:    []model.Filter{{Column: "JK", Value: ""}, {Column: "NISN", Value: "00"}},
	}}}
	tbl, err := ParseTable(ex.Execute(plan, snapshot()).Get("SISWA"))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 4, "blank filter value is skipped, NISN filter keeps every row that has it")

	plan.Searches[0].Filters = []model.Filter{{Column: "JK", Value: "l"}}
	tbl, err = ParseTable(ex.Execute(plan, snapshot()).Get("SISWA"))
	require.NoError(t, err)
	for _, r := range tbl.Rows {
		require.NotEqual(t, "Rina", r[0])
	}
}

func TestExecute_EmptyResultOmittedAndUnknownColumnMatchesNothing(t *testing.T) {
	ex := NewExecutor(nil, nil)
	plan := model.RetrievalPlan{Searches: []model.Search{
		{SourceName: "SISWA", Filters: []model.Filter{{Column: "Nama", Value: "Zaki"}}},
		{SourceName: "SISWA", Filters: []model.Filter{{Column: "Alamat", Value: "Makassar"}}},
	}}
	require.True(t, ex.Execute(plan, snapshot()).Empty())
}

func TestExecute_DuplicateSourceFirstWins(t *testing.T) {
	ex := NewExecutor(nil, nil)
	plan := model.RetrievalPlan{Searches: []model.Search{
		{SourceName: "SISWA", Filters: []model.Filter{{Column: "Nama", Value: "budi"}}},
		{SourceName: "SISWA"},
	}}
	out := ex.Execute(plan, snapshot())
	require.Equal(t, 1, out.Len())
	require.NotEqual(t, siswaCSV, out.Get("SISWA"))
}

func TestExecute_RelationshipExpansion(t *testing.T) {
	ex := NewExecutor(ParseRelationships("SISWA.NISN=PRESENSI SHALAT.NISN"), nil)
	plan := model.RetrievalPlan{Searches: []model.Search{{
		SourceName: "SISWA",
		Filters:    []model.Filter{{Column: "Nama", Value: "budi"}},
	}}}

	out := ex.Execute(plan, snapshot())

	require.Equal(t, []string{"SISWA", "PRESENSI SHALAT"}, out.Names())
	pres, err := ParseTable(out.Get("PRESENSI SHALAT"))
	require.NoError(t, err)
	require.Len(t, pres.Rows, 1)
	require.Equal(t, "001", pres.Rows[0][0])
}

func TestParseRelationships(t *testing.T) {
	groups := ParseRelationships(" siswa.NISN = PRESENSI SHALAT.NISN , SISWA.Nama=PELANGGARAN.Nama.Lengkap, broken, A.x")
	require.Len(t, groups, 2)
	require.Equal(t, Link{Source: "SISWA", Column: "NISN"}, groups[0][0])
	require.Equal(t, Link{Source: "PRESENSI SHALAT", Column: "NISN"}, groups[0][1])
	require.Equal(t, "Nama.Lengkap", groups[1][1].Column)
	require.Empty(t, ParseRelationships(""))
}

func TestNormalizeClassName(t *testing.T) {
	cases := map[string]string{
		"10.1":       "X 1",
		"x-1":        "X 1",
		"X1":         "X 1",
		"xii ipa 2":  "XII IPA 2",
		"11  IPS-3":  "XI IPS 3",
		"":           "",
		"  12.MIPA ": "XII MIPA",
	}
	for in, want := range cases {
		if got := NormalizeClassName(in); got != want {
			t.Errorf("NormalizeClassName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseTable_LenientAndTrimmed(t *testing.T) {
	tbl, err := ParseTable("\ufeff Nama , Kelas\n\nBudi,X 1\nSiti\n")
	require.NoError(t, err)
	require.Equal(t, []string{"Nama", "Kelas"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	require.Equal(t, 1, tbl.Column("kelas"))
	require.Equal(t, -1, tbl.Column("Alamat"))
	_, ok := Cell(tbl.Rows[1], 1)
	require.False(t, ok)
	require.Equal(t, "Nama,Kelas\nBudi,X 1\n", tbl.Encode(tbl.Rows[:1]))
}

func TestExecute_ExplicitSearchWinsOverExpansion(t *testing.T) {
	// Arrange
	ex := NewExecutor(ParseRelationships("SISWA.NISN=PRESENSI SHALAT.NISN"), nil)
	plan := model.RetrievalPlan{Searches: []model.Search{
		{SourceName: "SISWA", Filters: []model.Filter{{Column: "Rombel Saat Ini", Value: "X 1"}}},
		{SourceName: "PRESENSI SHALAT", Filters: []model.Filter{{Column: "Status", Value: "Alpa"}}},
	}}

	// Act
	out := ex.Execute(plan, snapshot())

	// Assert
	require.Equal(t, []string{"SISWA", "PRESENSI SHALAT"}, out.Names())
	pres, err := ParseTable(out.Get("PRESENSI SHALAT"))
	require.NoError(t, err)
	require.Len(t, pres.Rows, 1)
	require.Equal(t, []string{"003", "2025-01-02", "Alpa"}, pres.Rows[0])
}

func TestExecute_PlannedSourceWithNoRowsIsNotRefilledByExpansion(t *testing.T) {
	ex := NewExecutor(ParseRelationships("SISWA.NISN=PRESENSI SHALAT.NISN"), nil)
	plan := model.RetrievalPlan{Searches: []model.Search{
		{SourceName: "SISWA", Filters: []model.Filter{{Column: "Nama", Value: "budi"}}},
		{SourceName: "PRESENSI SHALAT", Filters: []model.Filter{{Column: "Status", Value: "Sakit"}}},
	}}

	out := ex.Execute(plan, snapshot())

	require.Equal(t, []string{"SISWA"}, out.Names())
}
