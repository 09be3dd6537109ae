package vesper_test

import (
	"testing"

	"github.com/vesperlang/vesper"
	"github.com/vesperlang/vesper/testutils"
)

// TestDeclareMember checks declaration rules: immutable members cannot be
// redeclared, mutable members can be replaced, and static names collide.
func TestDeclareMember(t *testing.T) {
	r := testutils.TestingRuntime()
	c := testutils.MustClass("DeclA")
	imm := &vesper.Member{Value: vesper.NewNumber(1), Kind: vesper.FieldKind}
	if err := c.DeclareMember(r, "rate", imm); err != nil {
		t.Fatalf("first declaration failed: %v", err)
	}
	err := c.DeclareMember(r, "rate", &vesper.Member{Value: vesper.NewNumber(2), Kind: vesper.FieldKind})
	if err == nil {
		t.Fatal("redeclaring an immutable member succeeded")
	}
	if _, ok := err.(*vesper.DefinitionError); !ok {
		t.Errorf("redeclaration error is %T, want *DefinitionError", err)
	}

	mut := &vesper.Member{Value: vesper.NewNumber(1), Mutable: true, Kind: vesper.FieldKind}
	if err := c.DeclareMember(r, "limit", mut); err != nil {
		t.Fatalf("mutable declaration failed: %v", err)
	}
	if err := c.DeclareMember(r, "limit", &vesper.Member{Value: vesper.NewNumber(9), Mutable: true, Kind: vesper.FieldKind}); err != nil {
		t.Errorf("replacing a mutable member failed: %v", err)
	}

	if err := c.DeclareStatic(r, "shared", &vesper.Member{Value: vesper.NewNumber(3), Kind: vesper.FieldKind}); err != nil {
		t.Fatalf("static declaration failed: %v", err)
	}
	if err := c.DeclareStatic(r, "shared", &vesper.Member{Value: vesper.NewNumber(4), Kind: vesper.FieldKind}); err == nil {
		t.Error("redeclaring a static member succeeded")
	}
}

// TestSubclassOverride checks that a subclass may redeclare a mutable
// inherited member on itself without touching the parent, while an
// immutable inherited member blocks nothing on the subclass's own table.
func TestSubclassOverride(t *testing.T) {
	r := testutils.TestingRuntime()
	parent := testutils.MustClass("OverP")
	if err := parent.DeclareMember(r, "greet", &vesper.Member{Value: vesper.NewStr("hi"), Mutable: true, Kind: vesper.FieldKind}); err != nil {
		t.Fatal(err)
	}
	child := testutils.MustClass("OverC", parent)
	if err := child.DeclareMember(r, "greet", &vesper.Member{Value: vesper.NewStr("hello"), Mutable: true, Kind: vesper.FieldKind}); err != nil {
		t.Fatalf("subclass override failed: %v", err)
	}
	if err := parent.DeclareMember(r, "kind", &vesper.Member{Value: vesper.NewStr("p"), Kind: vesper.FieldKind}); err != nil {
		t.Fatal(err)
	}
	if err := child.DeclareMember(r, "kind", &vesper.Member{Value: vesper.NewStr("c"), Kind: vesper.FieldKind}); err == nil {
		t.Error("redeclaring an inherited immutable member succeeded")
	}
	m := r.GetInstanceMemberOrNull(child, "greet")
	if m == nil {
		t.Fatal("override not resolved")
	}
	if s, ok := m.Value.(*vesper.Str); !ok || s.Value != "hello" {
		t.Errorf("resolved %v, want the subclass's value", m.Value)
	}
	if pm := r.GetInstanceMemberOrNull(parent, "greet"); pm == m {
		t.Error("override replaced the parent's member cell")
	}
}

// TestLayoutVersion checks that every declaration bumps the class's layout
// version.
func TestLayoutVersion(t *testing.T) {
	r := testutils.TestingRuntime()
	c := testutils.MustClass("LayoutA")
	v0 := c.Layout()
	if err := c.DeclareMember(r, "a", &vesper.Member{Value: r.Nil, Mutable: true, Kind: vesper.FieldKind}); err != nil {
		t.Fatal(err)
	}
	v1 := c.Layout()
	if v1 <= v0 {
		t.Errorf("layout %d after declaration, want greater than %d", v1, v0)
	}
	if err := c.DeclareStatic(r, "b", &vesper.Member{Value: r.Nil, Kind: vesper.FieldKind}); err != nil {
		t.Fatal(err)
	}
	if v2 := c.Layout(); v2 <= v1 {
		t.Errorf("layout %d after static declaration, want greater than %d", v2, v1)
	}
}

// TestMemberResolutionOrder checks that resolution follows the linearized
// ancestor order, so the diamond's left branch wins.
func TestMemberResolutionOrder(t *testing.T) {
	r := testutils.TestingRuntime()
	a := testutils.MustClass("ResA")
	b := testutils.MustClass("ResB", a)
	c := testutils.MustClass("ResC", a)
	d := testutils.MustClass("ResD", b, c)
	if err := a.DeclareMember(r, "tag", &vesper.Member{Value: vesper.NewStr("a"), Mutable: true, Kind: vesper.FieldKind}); err != nil {
		t.Fatal(err)
	}
	if err := b.DeclareMember(r, "tag", &vesper.Member{Value: vesper.NewStr("b"), Mutable: true, Kind: vesper.FieldKind}); err != nil {
		t.Fatal(err)
	}
	if err := c.DeclareMember(r, "tag", &vesper.Member{Value: vesper.NewStr("c"), Mutable: true, Kind: vesper.FieldKind}); err != nil {
		t.Fatal(err)
	}
	m := r.GetInstanceMemberOrNull(d, "tag")
	if m == nil {
		t.Fatal("tag not resolved")
	}
	if s := m.Value.(*vesper.Str); s.Value != "b" {
		t.Errorf("resolved tag %q, want %q from the first parent branch", s.Value, "b")
	}
	if dc := r.FindDeclaringClassOf(d, "tag"); dc != b {
		t.Errorf("declaring class is %v, want ResB", dc)
	}
}

// TestLookupCacheInvalidation checks that a cached dispatch result dies
// when a later declaration changes the answer.
func TestLookupCacheInvalidation(t *testing.T) {
	r := testutils.TestingRuntime()
	parent := testutils.MustClass("CacheP")
	child := testutils.MustClass("CacheC", parent)
	if err := parent.DeclareMember(r, "mode", &vesper.Member{Value: vesper.NewStr("old"), Mutable: true, Kind: vesper.FieldKind}); err != nil {
		t.Fatal(err)
	}
	m := r.GetInstanceMemberOrNull(child, "mode")
	if s := m.Value.(*vesper.Str); s.Value != "old" {
		t.Fatalf("resolved %q before override", s.Value)
	}
	// Repeat to make sure the cached entry is the one being served.
	if again := r.GetInstanceMemberOrNull(child, "mode"); again != m {
		t.Fatal("lookup not cached")
	}
	if err := child.DeclareMember(r, "mode", &vesper.Member{Value: vesper.NewStr("new"), Mutable: true, Kind: vesper.FieldKind}); err != nil {
		t.Fatal(err)
	}
	m = r.GetInstanceMemberOrNull(child, "mode")
	if s := m.Value.(*vesper.Str); s.Value != "new" {
		t.Errorf("resolved %q after override, want %q", s.Value, "new")
	}
}

// TestRootTypeFallback checks that a name defined nowhere in the hierarchy
// resolves against the runtime's root type.
func TestRootTypeFallback(t *testing.T) {
	r := testutils.TestingRuntime()
	c := testutils.MustClass("RootFall")
	m := r.GetInstanceMemberOrNull(c, "typeName")
	if m == nil {
		t.Fatal("typeName not resolved through the root type")
	}
	if m.Kind != vesper.FunKind {
		t.Errorf("typeName resolved to kind %v, want fun", m.Kind)
	}
}

// TestClassStatics checks static member access and mutation through the
// class's value interface, including inheritance of statics.
func TestClassStatics(t *testing.T) {
	r := testutils.TestingRuntime()
	parent := testutils.MustClass("StatP")
	child := testutils.MustClass("StatC", parent)
	if err := parent.DeclareStatic(r, "count", &vesper.Member{Value: vesper.NewNumber(0), Mutable: true, Kind: vesper.FieldKind}); err != nil {
		t.Fatal(err)
	}
	v, stop := child.GetField(r, "count")
	if stop != vesper.NoStop {
		t.Fatalf("reading inherited static raised %v", v)
	}
	if n := v.(*vesper.Number); n.Value != 0 {
		t.Errorf("inherited static is %v, want 0", n.Value)
	}
	if _, stop := parent.SetField(r, "count", vesper.NewNumber(7)); stop != vesper.NoStop {
		t.Fatal("writing mutable static raised")
	}
	v, _ = child.GetField(r, "count")
	if n := v.(*vesper.Number); n.Value != 7 {
		t.Errorf("subclass sees static %v after parent write, want 7", n.Value)
	}
	// The cell is shared, so a write through the subclass reaches the
	// declaring class too.
	if exc, stop := child.SetField(r, "count", vesper.NewNumber(11)); stop != vesper.NoStop {
		t.Fatalf("writing inherited static through subclass raised %v", exc)
	}
	v, _ = parent.GetField(r, "count")
	if n := v.(*vesper.Number); n.Value != 11 {
		t.Errorf("parent sees static %v after subclass write, want 11", n.Value)
	}

	if _, stop := child.GetField(r, "absent"); stop != vesper.ExceptionStop {
		t.Error("reading an absent static did not raise")
	}
	if err := parent.DeclareStatic(r, "fixed", &vesper.Member{Value: vesper.NewNumber(1), Kind: vesper.FieldKind}); err != nil {
		t.Fatal(err)
	}
	if _, stop := parent.SetField(r, "fixed", vesper.NewNumber(2)); stop != vesper.ExceptionStop {
		t.Error("writing an immutable static did not raise")
	}
}

// TestClassInvokeStatic checks calling a static function member through the
// class value.
func TestClassInvokeStatic(t *testing.T) {
	r := testutils.TestingRuntime()
	c := testutils.MustClass("StatFn")
	double := &vesper.Fn{
		Name:   "double",
		Params: []string{"n"},
		Body: vesper.BodyFunc(func(r *vesper.Runtime, s *vesper.Scope) (vesper.Value, vesper.Stop) {
			v, _ := s.Lookup("n")
			n := v.(*vesper.Number)
			return vesper.NewNumber(2 * n.Value), vesper.NoStop
		}),
	}
	if err := c.DeclareStatic(r, "double", &vesper.Member{Value: double, Kind: vesper.FunKind}); err != nil {
		t.Fatal(err)
	}
	v, stop := c.Invoke(r, "double", []vesper.Value{vesper.NewNumber(21)})
	if stop != vesper.NoStop {
		t.Fatalf("static call raised %v", v)
	}
	if n := v.(*vesper.Number); n.Value != 42 {
		t.Errorf("double(21) = %v, want 42", n.Value)
	}
}
