package retrieval

import "strings"

// Link names one column of one source.
type Link struct {
	Source string
	Column string
}

// RelationGroup is a set of columns holding the same key across sources.
type RelationGroup []Link

// ParseRelationships reads "SISWA.NISN=PRESENSI SHALAT.NISN, SISWA.Nama=PELANGGARAN.Nama".
// Groups are comma separated, links inside a group are joined by '='. The first
// dot separates the source from the column, so column names may contain dots.
// Malformed links are dropped and groups with fewer than two links are ignored.
func ParseRelationships(def string) []RelationGroup {
	var groups []RelationGroup
	for _, rawGroup := range strings.Split(def, ",") {
		var g RelationGroup
		for _, part := range strings.Split(strings.TrimSpace(rawGroup), "=") {
			src, col, ok := strings.Cut(strings.TrimSpace(part), ".")
			src, col = strings.ToUpper(strings.TrimSpace(src)), strings.TrimSpace(col)
			if !ok || src == "" || col == "" {
				continue
			}
			g = append(g, Link{Source: src, Column: col})
		}
		if len(g) > 1 {
			groups = append(groups, g)
		}
	}
	return groups
}

// expandRelations adds, for every group linked to source, the rows of the
// other linked sources whose key column equals one of the surviving keys.
// Sources for which skip reports true are left alone.
func expandRelations(source string, table *Table, kept [][]string, groups []RelationGroup, tables func(string) (*Table, bool), skip func(string) bool, out *Subset) {
	for _, g := range groups {
		primary, ok := g.find(source)
		if !ok {
			continue
		}
		col := table.Column(primary.Column)
		if col < 0 {
			continue
		}
		keys := make(map[string]struct{})
		for _, row := range kept {
			if v, ok := Cell(row, col); ok && strings.TrimSpace(v) != "" {
				keys[strings.TrimSpace(v)] = struct{}{}
			}
		}
		if len(keys) == 0 {
			continue
		}
		for _, link := range g {
			if link.Source == source || skip(link.Source) {
				continue
			}
			related, ok := tables(link.Source)
			if !ok {
				continue
			}
			rcol := related.Column(link.Column)
			if rcol < 0 {
				continue
			}
			var rows [][]string
			for _, row := range related.Rows {
				if v, ok := Cell(row, rcol); ok {
					if _, hit := keys[strings.TrimSpace(v)]; hit {
						rows = append(rows, row)
					}
				}
			}
			if len(rows) > 0 {
				out.Add(link.Source, related.Encode(rows))
			}
		}
	}
}

func (g RelationGroup) find(source string) (Link, bool) {
	for _, l := range g {
		if l.Source == source {
			return l, true
		}
	}
	return Link{}, false
}
