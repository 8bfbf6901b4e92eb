package refdata

import (
	"path/filepath"
	"strings"
	"testing"

	"pedtrack/internal/ped"
)

const seedYAML = `
items:
  - name: Oil
    tt: "0.01"
  - name: Lysterium Ingot
    tt: "0.30"
  - name: Broken Row
    tt: "not a number"
blueprints:
  - name: Basic Filters
    result: Basic Filters
    result_tt: "0.40"
    materials:
      - item: Oil
        quantity: 2
      - item: Lysterium Ingot
        quantity: 1
`

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestImportAndLookup(t *testing.T) {
	c := openTestCatalog(t)

	stats, err := c.ImportYAML(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Items != 2 || stats.Blueprints != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 2 items, 1 blueprint, 1 skipped", stats)
	}

	tt, ok := c.LookupItem("Oil")
	if !ok || tt.Cmp(ped.MustParse("0.01")) != 0 {
		t.Errorf("LookupItem(Oil) = %s (ok=%t), want 0.01", tt, ok)
	}
	if _, ok := c.LookupItem("Broken Row"); ok {
		t.Error("row with malformed value was imported")
	}
	if _, ok := c.LookupItem("Unknown Thing"); ok {
		t.Error("lookup of absent item reported ok")
	}

	bp, ok := c.LookupBlueprint("Basic Filters")
	if !ok {
		t.Fatal("LookupBlueprint(Basic Filters) missed")
	}
	if bp.ResultTT.Cmp(ped.MustParse("0.40")) != 0 {
		t.Errorf("ResultTT = %s, want 0.40", bp.ResultTT)
	}
	if len(bp.Materials) != 2 {
		t.Fatalf("got %d materials, want 2", len(bp.Materials))
	}
	if bp.Materials[0].Item != "Oil" || bp.Materials[0].Quantity != 2 {
		t.Errorf("material[0] = %+v", bp.Materials[0])
	}
}

func TestReimportUpserts(t *testing.T) {
	c := openTestCatalog(t)
	if _, err := c.ImportYAML(strings.NewReader(seedYAML)); err != nil {
		t.Fatal(err)
	}

	// A second import with changed values updates in place, no duplicates.
	updated := `
items:
  - name: Oil
    tt: "0.02"
blueprints:
  - name: Basic Filters
    result: Basic Filters
    result_tt: "0.45"
    materials:
      - item: Oil
        quantity: 3
`
	if _, err := c.ImportYAML(strings.NewReader(updated)); err != nil {
		t.Fatal(err)
	}

	tt, ok := c.LookupItem("Oil")
	if !ok || tt.Cmp(ped.MustParse("0.02")) != 0 {
		t.Errorf("LookupItem(Oil) after reimport = %s, want 0.02", tt)
	}
	bp, ok := c.LookupBlueprint("Basic Filters")
	if !ok {
		t.Fatal("blueprint missing after reimport")
	}
	if bp.ResultTT.Cmp(ped.MustParse("0.45")) != 0 {
		t.Errorf("ResultTT = %s, want 0.45", bp.ResultTT)
	}
	// Material list replaced wholesale, not appended.
	if len(bp.Materials) != 1 || bp.Materials[0].Quantity != 3 {
		t.Errorf("materials after reimport = %+v, want single Oil x3", bp.Materials)
	}
}

func TestImportRejectsMalformedYAML(t *testing.T) {
	c := openTestCatalog(t)
	if _, err := c.ImportYAML(strings.NewReader("items: [not: valid: yaml")); err == nil {
		t.Error("malformed seed file imported without error")
	}
}
