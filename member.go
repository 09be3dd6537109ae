package vesper

// Visibility is per-member access control, enforced at access time.
type Visibility int

const (
	// Public members are accessible from anywhere.
	Public Visibility = iota
	// Restricted members are accessible only from code running with the
	// declaring hierarchy as its receiver.
	Restricted
)

// String returns a string representation of the Visibility.
func (v Visibility) String() string {
	if v == Restricted {
		return "restricted"
	}
	return "public"
}

// Kind classifies a member. The classification controls whether the member
// participates in structural comparison and in default serialization.
type Kind int

// Member classifications.
const (
	// FieldKind is ordinary mutable or immutable state.
	FieldKind Kind = iota
	// ConstructorFieldKind is state introduced by a constructor parameter.
	ConstructorFieldKind
	// FunKind is a function member.
	FunKind
	// ClassKind is a nested class member.
	ClassKind
	// EnumKind is an enumeration constant member.
	EnumKind
	// OtherKind is anything else.
	OtherKind
)

var kindNames = [...]string{"field", "constructorField", "fun", "class", "enum", "other"}

// String returns a string representation of the Kind.
func (k Kind) String() string {
	if k < FieldKind || k > OtherKind {
		return "Kind(?)"
	}
	return kindNames[k]
}

// Member is a named, access-controlled storage cell owned by the class or
// instance environment that declares it. Members are never shared across
// unrelated classes.
type Member struct {
	// Value is the member's current value.
	Value Value
	// Mutable reports whether the member may be rebound after declaration.
	// An immutable member also may not be redeclared by a subclass.
	Mutable bool
	// Visibility is the member's access control.
	Visibility Visibility
	// Declarer is the class that declared the member, or nil for members
	// created directly on an instance environment.
	Declarer *Class
	// Kind is the member's classification.
	Kind Kind
	// Transient members are excluded from serialization regardless of kind.
	Transient bool
}

// Members is a name-indexed member table.
type Members map[string]*Member

// comparable reports whether the member participates in structural
// comparison of instances.
func (m *Member) comparable() bool {
	return (m.Kind == FieldKind || m.Kind == ConstructorFieldKind) && !m.Transient
}

// serializable reports whether the member participates in default
// serialization.
func (m *Member) serializable() bool {
	return m.comparable()
}

// copied returns a fresh cell holding the same value and attributes. Member
// cells are owned by a single table, so inheritance copies the cell rather
// than aliasing it.
func (m *Member) copied() *Member {
	c := *m
	return &c
}
