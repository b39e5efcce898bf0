package engine

import (
	"encoding/binary"
	"math"
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/prismrt/prism/pkg/rt"
)

func num(v float64) zygo.Sexp   { return &zygo.SexpFloat{Val: v} }
func integer(v int64) zygo.Sexp { return &zygo.SexpInt{Val: v} }
func kw(name string) zygo.Sexp  { return &zygo.SexpStr{S: kwPrefix + name} }

func array(items ...zygo.Sexp) zygo.Sexp {
	return &zygo.SexpArray{Val: items}
}

func TestParseArgs(t *testing.T) {
	pa := parseArgs([]zygo.Sexp{
		integer(7),
		kw("width"), integer(640),
		kw("height"), num(480),
	})
	if len(pa.positional) != 1 {
		t.Fatalf("positional = %d, want 1", len(pa.positional))
	}
	if len(pa.kw) != 2 {
		t.Fatalf("keywords = %d, want 2", len(pa.kw))
	}
	w, err := toUint32(pa.kw["width"])
	if err != nil || w != 640 {
		t.Fatalf("width = %d (%v), want 640", w, err)
	}
}

func TestParseArgsTrailingKeyword(t *testing.T) {
	pa := parseArgs([]zygo.Sexp{kw("flag")})
	if v, ok := pa.kw["flag"]; !ok || v != zygo.SexpNull {
		t.Fatalf("trailing keyword = %v, want null flag", v)
	}
}

func TestToUint32Negative(t *testing.T) {
	if _, err := toUint32(integer(-1)); err == nil {
		t.Fatal("negative accepted")
	}
	if _, err := toUint32(&zygo.SexpStr{S: "12"}); err == nil {
		t.Fatal("string accepted as number")
	}
}

func TestFloatBuffer(t *testing.T) {
	buf, err := floatBuffer(array(num(1), integer(2), num(3.5)))
	if err != nil {
		t.Fatalf("floatBuffer: %v", err)
	}
	want := []float32{1, 2, 3.5}
	for i, f := range want {
		if buf[i] != f {
			t.Fatalf("buf = %v, want %v", buf, want)
		}
	}

	if _, err := floatBuffer(nil); err == nil {
		t.Error("missing buffer accepted")
	}
	if _, err := floatBuffer(array()); err == nil {
		t.Error("empty buffer accepted")
	}
	if _, err := floatBuffer(array(num(1), &zygo.SexpStr{S: "x"})); err == nil {
		t.Error("non-numeric element accepted")
	}
}

func TestSexpToSliceNull(t *testing.T) {
	items, err := sexpToSlice(zygo.SexpNull)
	if err != nil || items != nil {
		t.Fatalf("null list = %v (%v), want empty", items, err)
	}
	if _, err := sexpToSlice(integer(3)); err == nil {
		t.Fatal("scalar accepted as list")
	}
}

func TestTransform16Defaults(t *testing.T) {
	id := rt.Identity()

	if got := transform16(nil); got != id {
		t.Errorf("absent transform = %v, want identity", got)
	}
	if got := transform16(array(num(1), num(2))); got != id {
		t.Errorf("short transform = %v, want identity", got)
	}
	if got := transform16(&zygo.SexpStr{S: "x"}); got != id {
		t.Errorf("malformed transform = %v, want identity", got)
	}

	full := make([]zygo.Sexp, 16)
	for i := range full {
		full[i] = num(float64(i))
	}
	got := transform16(array(full...))
	if got[0] != 0 || got[15] != 15 {
		t.Errorf("full transform = %v, want 0..15", got)
	}
}

func TestUniformBytes(t *testing.T) {
	out, err := uniformBytes(array(num(1.5), num(-2)))
	if err != nil {
		t.Fatalf("uniformBytes: %v", err)
	}
	if len(out) != 8 {
		t.Fatalf("len = %d, want 8", len(out))
	}
	f0 := math.Float32frombits(binary.LittleEndian.Uint32(out[0:4]))
	f1 := math.Float32frombits(binary.LittleEndian.Uint32(out[4:8]))
	if f0 != 1.5 || f1 != -2 {
		t.Fatalf("decoded = %g, %g, want 1.5, -2", f0, f1)
	}
}

func TestTargetSize(t *testing.T) {
	tgt := NewTarget(320, 200)
	w, h := tgt.Size()
	if w != 320 || h != 200 {
		t.Fatalf("size = %dx%d, want 320x200", w, h)
	}
}
