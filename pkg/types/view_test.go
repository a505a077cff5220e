package types

import (
	"testing"
)

func TestViewStateScan(t *testing.T) {
	t.Run("full blob", func(t *testing.T) {
		var s ViewState
		blob := `{"filters":{"3":{"contains":"door"}},"sort_field_id":3,"sort_dir":"ASC","search":"x","hidden_field_ids":[5],"col_widths":{"3":140}}`
		if err := s.Scan(blob); err != nil {
			t.Fatal(err)
		}
		f, ok := s.Filters[3]
		if !ok || f.Contains == nil || *f.Contains != "door" {
			t.Fatalf("unexpected filters %+v", s.Filters)
		}
		if s.SortFieldID != 3 || s.SortDir != "ASC" || s.Search != "x" {
			t.Fatalf("unexpected state %+v", s)
		}
		if len(s.HiddenFieldIDs) != 1 || s.HiddenFieldIDs[0] != 5 {
			t.Fatalf("unexpected hidden fields %v", s.HiddenFieldIDs)
		}
		if s.ColWidths[3] != 140 {
			t.Fatalf("unexpected col widths %v", s.ColWidths)
		}
	})

	t.Run("legacy blob with missing keys", func(t *testing.T) {
		var s ViewState
		if err := s.Scan(`{"search":"old"}`); err != nil {
			t.Fatal(err)
		}
		if s.Search != "old" || s.SortFieldID != 0 || len(s.Filters) != 0 {
			t.Fatalf("unexpected state %+v", s)
		}
	})

	t.Run("malformed blob degrades to zero state", func(t *testing.T) {
		s := ViewState{Search: "stale"}
		if err := s.Scan(`][`); err != nil {
			t.Fatal(err)
		}
		if s.Search != "" {
			t.Fatalf("expected zero state, got %+v", s)
		}
	})
}

func TestPrefsScan(t *testing.T) {
	var p Prefs
	if err := p.Scan(`{"hidden_field_ids":[2,7],"last_view_id":3}`); err != nil {
		t.Fatal(err)
	}
	if len(p.HiddenFieldIDs) != 2 || p.LastViewID != 3 {
		t.Fatalf("unexpected prefs %+v", p)
	}

	if err := p.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if p.LastViewID != 0 || len(p.HiddenFieldIDs) != 0 {
		t.Fatalf("expected zero prefs, got %+v", p)
	}
}

func TestRecordSnapshot(t *testing.T) {
	r := Record{
		ID:        9,
		CreatedAt: "2025-01-02T03:04:05Z",
		UpdatedAt: "2025-01-02T03:04:06Z",
		Values:    map[int64]any{1: "a", 2: float64(3)},
	}
	snap := r.Snapshot()
	snap.Values[1] = "mutated"
	if r.Values[1] != "a" {
		t.Fatal("Snapshot shares map state with the original")
	}
	if snap.ID != 9 || snap.CreatedAt != r.CreatedAt {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
