package ped

import (
	"encoding/json"
	"testing"
)

func TestFromString(t *testing.T) {
	a, err := FromString("0.05")
	if err != nil {
		t.Fatalf("FromString(0.05): %v", err)
	}
	if a.String() != "0.05" {
		t.Errorf("got %q, want 0.05", a.String())
	}

	if _, err := FromString("not a number"); err == nil {
		t.Error("expected error for malformed amount, got nil")
	}
	if _, err := FromString(""); err == nil {
		t.Error("expected error for empty amount, got nil")
	}
}

func TestAccumulationIsExact(t *testing.T) {
	// 1000 drops of 0.01 must sum to exactly 10, the case float64 gets wrong.
	cent := MustParse("0.01")
	sum := Zero()
	for i := 0; i < 1000; i++ {
		sum = sum.Add(cent)
	}
	if sum.Cmp(FromInt(10)) != 0 {
		t.Errorf("1000 * 0.01 = %s, want exactly 10", sum)
	}
}

func TestWithMarkup(t *testing.T) {
	got := MustParse("0.05").WithMarkup(FromInt(120))
	if got.Cmp(MustParse("0.11")) != 0 {
		t.Errorf("0.05 at 120%% markup = %s, want 0.11", got)
	}

	// Zero markup is the identity.
	if got := MustParse("3.14").WithMarkup(Zero()); got.Cmp(MustParse("3.14")) != 0 {
		t.Errorf("zero markup changed the amount: %s", got)
	}
}

func TestDivZeroGuard(t *testing.T) {
	if _, ok := FromInt(5).Div(Zero()); ok {
		t.Error("division by zero reported ok")
	}
	q, ok := FromInt(5).Div(FromInt(2))
	if !ok || q.Cmp(MustParse("2.5")) != 0 {
		t.Errorf("5/2 = %s (ok=%t), want 2.5", q, ok)
	}
}

func TestFormat(t *testing.T) {
	if got := MustParse("0.05").Format(); got != "0.05 PED" {
		t.Errorf("Format = %q, want \"0.05 PED\"", got)
	}
	if got := FromInt(7).Format(); got != "7.00 PED" {
		t.Errorf("Format = %q, want \"7.00 PED\"", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Value Amount `json:"value"`
	}
	in := wrapper{Value: MustParse("12.3456")}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"value":"12.3456"}` {
		t.Errorf("marshal = %s, want string encoding", data)
	}
	var out wrapper
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Value.Cmp(in.Value) != 0 {
		t.Errorf("round trip changed value: %s != %s", out.Value, in.Value)
	}
}
