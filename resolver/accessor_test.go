package resolver

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/internal/pdftest"
)

func accessorFixture(t *testing.T) (Accessor, *core.Dict) {
	t.Helper()
	b := pdftest.New("1.4")
	b.Object(1, "<< /Type /Catalog /Info 2 0 R >>")
	b.Object(2, "<< /Name 3 0 R /Count 4 0 R /Ratio 0.5 /Flag true /Title (t) /Kids 5 0 R /Res 6 0 R /Wrong 3 0 R /Gone 99 0 R >>")
	b.Object(3, "/Helvetica")
	b.Object(4, "7")
	b.Object(5, "[8 0 R 2.5 /x]")
	b.Object(6, "<< /Font << >> >>")
	b.Object(8, "1")
	b.XRefTable("/Root 1 0 R")
	r, _ := open(t, b.Bytes())
	ctx := context.Background()

	obj, err := r.Get(ctx, key(2))
	if err != nil {
		t.Fatal(err)
	}
	return r.Accessor(ctx), obj.(*core.Dict)
}

func TestAccessorGetters(t *testing.T) {
	a, d := accessorFixture(t)

	if v, ok := a.GetName(d, "Name"); !ok || v != "Helvetica" {
		t.Errorf("GetName = %q, %v", v, ok)
	}
	if v, ok := a.GetInt(d, "Count"); !ok || v != 7 {
		t.Errorf("GetInt = %d, %v", v, ok)
	}
	if v, ok := a.GetNumber(d, "Ratio"); !ok || v != 0.5 {
		t.Errorf("GetNumber = %v, %v", v, ok)
	}
	if v, ok := a.GetBool(d, "Flag"); !ok || !v {
		t.Errorf("GetBool = %v, %v", v, ok)
	}
	if v, ok := a.GetString(d, "Title"); !ok || v != "t" {
		t.Errorf("GetString = %q, %v", v, ok)
	}
	if v, ok := a.GetArray(d, "Kids"); !ok || v.Len() != 3 {
		t.Errorf("GetArray = %v, %v", v, ok)
	}
	if v, ok := a.GetDict(d, "Res"); !ok || !v.Has("Font") {
		t.Errorf("GetDict = %v, %v", v, ok)
	}
}

// Getters return zero values for missing keys and type mismatches
func TestAccessorDefaults(t *testing.T) {
	a, d := accessorFixture(t)

	if _, ok := a.GetInt(d, "Wrong"); ok {
		t.Error("int from name: expected ok=false")
	}
	if _, ok := a.GetName(d, "Count"); ok {
		t.Error("name from int: expected ok=false")
	}
	if _, ok := a.GetName(d, "Absent"); ok {
		t.Error("missing key: expected ok=false")
	}
	if _, ok := a.GetDict(d, "Gone"); ok {
		t.Error("dangling reference: expected ok=false")
	}
	if _, ok := a.GetStream(d, "Res"); ok {
		t.Error("stream from dict: expected ok=false")
	}

	if v, _ := a.GetInt(d, "Wrong"); v != 0 {
		t.Errorf("GetInt default = %d, want 0", v)
	}
	if def := a.GetDictionaryOrDefault(d, "Gone"); def == nil || def.Len() != 0 {
		t.Errorf("GetDictionaryOrDefault = %v, want empty dictionary", def)
	}
	if _, ok := a.GetName(nil, "Name"); ok {
		t.Error("nil dictionary should have no entries")
	}
}

func TestAccessorFloats(t *testing.T) {
	a, d := accessorFixture(t)

	got, ok := a.Floats(d.Get("Kids"))
	if !ok {
		t.Fatal("Floats reported non-array")
	}
	if diff := cmp.Diff([]float64{1, 2.5}, got); diff != "" {
		t.Errorf("Floats mismatch (-want +got):\n%s", diff)
	}
	if _, ok := a.Floats(core.Int(3)); ok {
		t.Error("Floats of an integer should fail")
	}
}

func TestResolveDeep(t *testing.T) {
	b := pdftest.New("1.4")
	b.Object(1, "<< /Type /Catalog /Self 1 0 R /Info << /Author 2 0 R >> /List [2 0 R 3] >>")
	b.Object(2, "(me)")
	b.XRefTable("/Root 1 0 R")
	r, _ := open(t, b.Bytes())
	ctx := context.Background()

	got, err := r.ResolveDeep(ctx, core.IndirectRef{Number: 1}, 10)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := got.(*core.Dict)
	if !ok {
		t.Fatalf("got %T", got)
	}
	if self := d.Get("Self"); self != (core.IndirectRef{Number: 1}) {
		t.Errorf("cyclic reference should stay a reference, got %v", self)
	}
	info, _ := d.GetDict("Info")
	if author, _ := info.GetString("Author"); author != "me" {
		t.Errorf("Author = %q", author)
	}
	want := core.Array{core.String("me"), core.Int(3)}
	if diff := cmp.Diff(want, d.Get("List")); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}
