package domain

import (
	"encoding/json"
	"testing"
)

func TestProductID_NumberOrString(t *testing.T) {
	cases := []struct {
		body string
		want ProductID
	}{
		{`{"id": 632910392, "title": "x"}`, "632910392"},
		{`{"id": "gid-abc", "title": "x"}`, "gid-abc"},
		{`{"id": null, "title": "x"}`, ""},
	}
	for _, tc := range cases {
		var ev InboundEvent
		if err := json.Unmarshal([]byte(tc.body), &ev); err != nil {
			t.Fatalf("%s: %v", tc.body, err)
		}
		if ev.ProductID != tc.want {
			t.Errorf("%s: id = %q, want %q", tc.body, ev.ProductID, tc.want)
		}
	}
}

func TestProductID_RejectsNonScalar(t *testing.T) {
	var ev InboundEvent
	if err := json.Unmarshal([]byte(`{"id": {"nested": 1}}`), &ev); err == nil {
		t.Fatal("object id should not decode")
	}
	if err := json.Unmarshal([]byte(`{"id": 1.5}`), &ev); err == nil {
		t.Fatal("float id should not decode")
	}
}

func TestKnownField(t *testing.T) {
	for _, f := range FieldOrder {
		if !KnownField(f) {
			t.Errorf("%s should be known", f)
		}
	}
	if KnownField("vin") {
		t.Error("vin should be unknown")
	}
}

func TestDispatchError(t *testing.T) {
	inner := json.Unmarshal([]byte("{"), &struct{}{})
	e := &DispatchError{Op: "ensure_collection", Tag: "bmw e90", Err: inner}
	if e.Unwrap() != inner {
		t.Fatal("Unwrap lost the cause")
	}
	if e.Error() == "" {
		t.Fatal("empty error string")
	}
	flat := &DispatchError{Op: "apply_tags", Err: inner}
	if flat.Error() == "" {
		t.Fatal("empty error string for tagless op")
	}
}
