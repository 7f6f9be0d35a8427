package listing

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/nativeways/pathways/pkg/models"
)

func parse(t *testing.T, rawQuery string, kind models.Kind) Criteria {
	t.Helper()
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		t.Fatalf("ParseQuery(%q): %v", rawQuery, err)
	}
	return ParseCriteria(q, kind, 20)
}

func TestParseCriteriaDefaults(t *testing.T) {
	c := parse(t, "", models.KindGrant)

	if c.Page != 1 {
		t.Errorf("Page = %d, want 1", c.Page)
	}
	if c.PageSize != 20 {
		t.Errorf("PageSize = %d, want 20", c.PageSize)
	}
	if c.Sort != SortDeadlineAsc {
		t.Errorf("Sort = %q, want %q", c.Sort, SortDeadlineAsc)
	}
	if c.Window.Mode != WindowUpcoming {
		t.Errorf("Window.Mode = %v, want WindowUpcoming", c.Window.Mode)
	}
	if c.Category != "" || c.Tags != nil || c.Amount != nil {
		t.Errorf("expected no filters, got %+v", c)
	}
}

func TestParseCriteriaResourceDefaultSort(t *testing.T) {
	if c := parse(t, "", models.KindResource); c.Sort != SortNewest {
		t.Errorf("resource default Sort = %q, want %q", c.Sort, SortNewest)
	}
}

func TestParseCriteriaPage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"page=3", 3},
		{"page=0", 1},
		{"page=-2", 1},
		{"page=abc", 1},
		{"", 1},
	}
	for _, tt := range tests {
		if c := parse(t, tt.raw, models.KindGrant); c.Page != tt.want {
			t.Errorf("%q: Page = %d, want %d", tt.raw, c.Page, tt.want)
		}
	}
}

func TestParseCriteriaUnknownSortFallsBack(t *testing.T) {
	bogus := parse(t, "sort=bogus", models.KindGrant)
	omitted := parse(t, "", models.KindGrant)

	if !reflect.DeepEqual(bogus, omitted) {
		t.Errorf("sort=bogus produced %+v, want identical to no sort %+v", bogus, omitted)
	}
}

func TestParseCriteriaSortKeys(t *testing.T) {
	for _, key := range []SortKey{SortDeadlineAsc, SortAmountDesc, SortAmountAsc, SortNewest, SortNameAsc, SortNameDesc} {
		c := parse(t, "sort="+string(key), models.KindGrant)
		if c.Sort != key {
			t.Errorf("sort=%s: Sort = %q", key, c.Sort)
		}
	}
}

func TestParseCriteriaTags(t *testing.T) {
	c := parse(t, "tags=stem,%20arts,,Youth", models.KindGrant)
	want := []string{"stem", "arts", "Youth"} // empties dropped, case preserved
	if !reflect.DeepEqual(c.Tags, want) {
		t.Errorf("Tags = %v, want %v", c.Tags, want)
	}
}

func TestParseCriteriaType(t *testing.T) {
	if c := parse(t, "type=education", models.KindGrant); c.Category != models.CategoryEducation {
		t.Errorf("Category = %q, want education", c.Category)
	}
	// Unknown categories silently become "no filter".
	if c := parse(t, "type=nonsense", models.KindGrant); c.Category != "" {
		t.Errorf("Category = %q, want empty for unknown type", c.Category)
	}
	// Categories are validated per kind.
	if c := parse(t, "type=undergraduate", models.KindGrant); c.Category != "" {
		t.Errorf("Category = %q, want empty for scholarship-only category on grants", c.Category)
	}
}

func TestParseCriteriaAmount(t *testing.T) {
	c := parse(t, "amount=1000-5000", models.KindGrant)
	if c.Amount == nil || c.Amount.Min != 1000 || c.Amount.Max == nil || *c.Amount.Max != 5000 {
		t.Fatalf("Amount = %+v, want [1000,5000]", c.Amount)
	}

	// Sentinel max means unbounded.
	c = parse(t, "amount=1000-999999999", models.KindGrant)
	if c.Amount == nil || c.Amount.Min != 1000 || c.Amount.Max != nil {
		t.Fatalf("Amount = %+v, want [1000,∞)", c.Amount)
	}

	for _, raw := range []string{"amount=abc-100", "amount=100", "amount=-5-100", "amount=100-xyz", "amount="} {
		if c := parse(t, raw, models.KindGrant); c.Amount != nil {
			t.Errorf("%q: Amount = %+v, want nil", raw, c.Amount)
		}
	}
}

func TestParseCriteriaDeadline(t *testing.T) {
	if c := parse(t, "deadline=rolling", models.KindGrant); c.Window.Mode != WindowRolling {
		t.Errorf("deadline=rolling: Mode = %v", c.Window.Mode)
	}

	c := parse(t, "deadline=next-30", models.KindGrant)
	if c.Window.Mode != WindowNextDays || c.Window.Days != 30 {
		t.Errorf("deadline=next-30: Window = %+v", c.Window)
	}

	// Malformed windows fall back to the default.
	for _, raw := range []string{"deadline=next-0", "deadline=next--5", "deadline=next-abc", "deadline=whenever"} {
		if c := parse(t, raw, models.KindGrant); c.Window.Mode != WindowUpcoming {
			t.Errorf("%q: Mode = %v, want WindowUpcoming", raw, c.Window.Mode)
		}
	}
}
