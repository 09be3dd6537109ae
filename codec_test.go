package vesper_test

import (
	"testing"

	"github.com/vesperlang/vesper"
	"github.com/vesperlang/vesper/testutils"
)

// TestValueRoundtrip checks the primitive encodings through the in-memory
// codec.
func TestValueRoundtrip(t *testing.T) {
	r := testutils.TestingRuntime()
	values := []vesper.Value{
		r.Nil,
		r.True,
		r.False,
		vesper.NewNumber(3.25),
		vesper.NewStr("héllo"),
		vesper.NewList(vesper.NewNumber(1), vesper.NewStr("two"), r.Nil),
	}
	for _, v := range values {
		codec := testutils.NewMemCodec()
		if err := r.EncodeValue(codec, v); err != nil {
			t.Fatalf("encoding %v: %v", v, err)
		}
		codec.Rewind()
		got, err := r.DecodeValue(codec)
		if err != nil {
			t.Fatalf("decoding %v: %v", v, err)
		}
		if !vesper.Equal(r, v, got) {
			t.Errorf("roundtrip of %v produced %v", v, got)
		}
	}
}

// TestEncodeRejectsFunctions checks that a function value has no serialized
// form.
func TestEncodeRejectsFunctions(t *testing.T) {
	r := testutils.TestingRuntime()
	codec := testutils.NewMemCodec()
	fn := &vesper.Fn{Name: "f", Body: testutils.ConstValue(r.Nil)}
	if err := r.EncodeValue(codec, fn); err == nil {
		t.Error("encoding a function succeeded")
	}
}

// TestInstanceRoundtrip checks default instance serialization: the decoded
// instance compares equal to the original over its state members, including
// constructor-bound ones, while no constructor body runs again during
// decoding.
func TestInstanceRoundtrip(t *testing.T) {
	r := testutils.TestingRuntime()
	var ctorRuns int
	c := testutils.MustClass("RtPoint")
	c.SetConstructor([]vesper.Param{{Name: "x"}, {Name: "y"}}, vesper.BodyFunc(func(r *vesper.Runtime, s *vesper.Scope) (vesper.Value, vesper.Stop) {
		ctorRuns++
		return r.Nil, vesper.NoStop
	}))
	if err := c.DeclareField(r, "tag", &vesper.Member{Mutable: true, Kind: vesper.FieldKind}, testutils.ConstValue(vesper.NewStr("pt"))); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterClass(c); err != nil {
		t.Fatal(err)
	}

	v, stop := r.Construct(c, []vesper.Value{vesper.NewNumber(3), vesper.NewNumber(4)})
	if stop != vesper.NoStop {
		t.Fatalf("construction raised %v", v)
	}
	inst := v.(*vesper.Instance)
	if ctorRuns != 1 {
		t.Fatalf("constructor ran %d times before serialization", ctorRuns)
	}

	codec := testutils.NewMemCodec()
	if err := r.EncodeInstance(codec, inst); err != nil {
		t.Fatalf("encode: %v", err)
	}
	codec.Rewind()
	got, err := r.DecodeInstance(codec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ctorRuns != 1 {
		t.Errorf("constructor ran during deserialization")
	}
	if got.Class != c {
		t.Errorf("decoded class %v, want RtPoint", got.Class)
	}
	if ord, exc, stop := inst.Compare(r, got); stop != vesper.NoStop {
		t.Fatalf("compare raised %v", exc)
	} else if ord != vesper.OrderEqual {
		t.Errorf("decoded instance compares %v to the original", ord)
	}
	// The qualified constructor alias must be re-established.
	if m, ok := got.GetLocal(vesper.Qualify(c, "x")); !ok {
		t.Error("qualified constructor binding missing after decode")
	} else if m.Value.(*vesper.Number).Value != 3 {
		t.Errorf("qualified x = %v, want 3", m.Value)
	}
}

// TestTransientExcluded checks that transient members do not survive
// serialization.
func TestTransientExcluded(t *testing.T) {
	r := testutils.TestingRuntime()
	c := testutils.MustClass("RtSession")
	c.SetConstructor([]vesper.Param{{Name: "user"}, {Name: "token", Transient: true}}, nil)
	if err := r.RegisterClass(c); err != nil {
		t.Fatal(err)
	}
	v, stop := r.Construct(c, []vesper.Value{vesper.NewStr("ana"), vesper.NewStr("s3cret")})
	if stop != vesper.NoStop {
		t.Fatalf("construction raised %v", v)
	}
	codec := testutils.NewMemCodec()
	if err := r.EncodeInstance(codec, v.(*vesper.Instance)); err != nil {
		t.Fatal(err)
	}
	codec.Rewind()
	got, err := r.DecodeInstance(codec)
	if err != nil {
		t.Fatal(err)
	}
	if uv, stop := got.GetField(r, "user"); stop != vesper.NoStop || uv.(*vesper.Str).Value != "ana" {
		t.Errorf("user = %v after decode", uv)
	}
	if tv, stop := got.GetField(r, "token"); stop == vesper.NoStop {
		if s, ok := tv.(*vesper.Str); ok && s.Value == "s3cret" {
			t.Error("transient member survived serialization")
		}
	}
}

// TestAfterDeserializeHook checks that the post-deserialize hook runs on
// the restored instance, after its state is in place.
func TestAfterDeserializeHook(t *testing.T) {
	r := testutils.TestingRuntime()
	c := testutils.MustClass("RtHooked")
	c.SetConstructor([]vesper.Param{{Name: "n"}}, nil)
	var seen float64
	hook := &vesper.Fn{
		Name: "afterDeserialize",
		Body: vesper.BodyFunc(func(r *vesper.Runtime, s *vesper.Scope) (vesper.Value, vesper.Stop) {
			self := s.Receiver().(*vesper.Instance)
			v, stop := self.GetField(r, "n")
			if stop != vesper.NoStop {
				return v, stop
			}
			seen = v.(*vesper.Number).Value
			return r.Nil, vesper.NoStop
		}),
	}
	if err := c.DeclareMember(r, "afterDeserialize", &vesper.Member{Value: hook, Kind: vesper.FunKind}); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterClass(c); err != nil {
		t.Fatal(err)
	}
	v, _ := r.Construct(c, []vesper.Value{vesper.NewNumber(11)})
	codec := testutils.NewMemCodec()
	if err := r.EncodeInstance(codec, v.(*vesper.Instance)); err != nil {
		t.Fatal(err)
	}
	codec.Rewind()
	if _, err := r.DecodeInstance(codec); err != nil {
		t.Fatal(err)
	}
	if seen != 11 {
		t.Errorf("hook saw n = %v, want 11", seen)
	}
}

// TestDecodeUnknownClass checks that decoding an unregistered class name
// fails cleanly.
func TestDecodeUnknownClass(t *testing.T) {
	r := testutils.TestingRuntime()
	codec := testutils.NewMemCodec()
	if err := codec.EncodeSym("NoSuchClass"); err != nil {
		t.Fatal(err)
	}
	if err := codec.EncodeList(0); err != nil {
		t.Fatal(err)
	}
	codec.Rewind()
	if _, err := r.DecodeInstance(codec); err == nil {
		t.Error("decoding an unregistered class succeeded")
	}
}

// TestExceptionRoundtrip checks exception serialization: class, message,
// data, and the trace, which is carried as rendered and never regenerated
// on the decoding side.
func TestExceptionRoundtrip(t *testing.T) {
	r := testutils.TestingRuntime()
	r.PushFrame("codecSite", "wire.vsp", 12)
	e := r.NewException(r.ExceptionClass("SerializationError"), "bad frame")
	r.PopFrame()
	e.Data = vesper.NewNumber(5)
	origTrace := e.Trace()

	codec := testutils.NewMemCodec()
	if err := r.EncodeException(codec, e); err != nil {
		t.Fatal(err)
	}
	codec.Rewind()

	// Decode under a completely different frame chain; it must not leak
	// into the restored trace.
	r.PushFrame("elsewhere", "other.vsp", 1)
	got, err := r.DecodeException(codec)
	r.PopFrame()
	if err != nil {
		t.Fatal(err)
	}
	if got.Class != e.Class {
		t.Errorf("decoded class %s, want %s", got.Class.Name, e.Class.Name)
	}
	if got.Message != "bad frame" {
		t.Errorf("decoded message %q", got.Message)
	}
	if got.Data == nil || got.Data.(*vesper.Number).Value != 5 {
		t.Errorf("decoded data %v, want 5", got.Data)
	}
	trace := got.Trace()
	if len(trace) != len(origTrace) {
		t.Fatalf("decoded trace has %d frames, want %d", len(trace), len(origTrace))
	}
	for i := range trace {
		if trace[i] != origTrace[i] {
			t.Errorf("frame %d = %v, want %v", i, trace[i], origTrace[i])
		}
	}
	if again := got.Trace(); len(again) != len(trace) || (len(again) > 0 && &again[0] != &trace[0]) {
		t.Error("restored trace was regenerated")
	}
}

// TestSymbolCaching checks that the codec sees repeated symbols as
// back-references, keeping repeated class and member names cheap.
func TestSymbolCaching(t *testing.T) {
	r := testutils.TestingRuntime()
	c := testutils.MustClass("RtPair")
	c.SetConstructor([]vesper.Param{{Name: "v"}}, nil)
	if err := r.RegisterClass(c); err != nil {
		t.Fatal(err)
	}
	a, _ := r.Construct(c, []vesper.Value{vesper.NewNumber(1)})
	b, _ := r.Construct(c, []vesper.Value{vesper.NewNumber(2)})

	one := testutils.NewMemCodec()
	if err := r.EncodeInstance(one, a.(*vesper.Instance)); err != nil {
		t.Fatal(err)
	}
	if err := r.EncodeInstance(one, b.(*vesper.Instance)); err != nil {
		t.Fatal(err)
	}
	one.Rewind()
	for _, want := range []float64{1, 2} {
		got, err := r.DecodeInstance(one)
		if err != nil {
			t.Fatal(err)
		}
		if v := numField(t, r, got, "v"); v != want {
			t.Errorf("decoded v = %v, want %v", v, want)
		}
	}
}
