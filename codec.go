package vesper

import (
	"errors"
	"fmt"

	"github.com/zephyrtronium/contains"
)

// errNotSerializable reports a value whose type has no serialized form.
var errNotSerializable = errors.New("vesper: value has no serialized form")

// Encoder is the writing half of the binary codec boundary. The runtime
// persists instances and exceptions through these primitives and leaves the
// bit-level encoding to the codec. EncodeSym writes a cached reference: a
// codec is expected to emit a back-reference for a symbol it has already
// written, so repeated class and member names stay cheap.
type Encoder interface {
	EncodeInt(n int64) error
	EncodeString(s string) error
	EncodeSym(s string) error
	// EncodeList begins an ordered list of n elements, which the caller
	// then encodes one by one.
	EncodeList(n int) error
}

// Decoder is the reading half of the binary codec boundary.
type Decoder interface {
	DecodeInt() (int64, error)
	DecodeString() (string, error)
	DecodeSym() (string, error)
	DecodeList() (int, error)
}

// Value tags used by the default serialization.
const (
	tagNil      = "nil"
	tagBool     = "bool"
	tagNumber   = "num"
	tagStr      = "str"
	tagList     = "list"
	tagInstance = "obj"
	tagExc      = "exc"
)

// EncodeValue writes any serializable value with a leading type tag.
func (r *Runtime) EncodeValue(enc Encoder, v Value) error {
	switch v := v.(type) {
	case nil, nilValue:
		return enc.EncodeSym(tagNil)
	case Bool:
		if err := enc.EncodeSym(tagBool); err != nil {
			return err
		}
		return v.Encode(r, enc)
	case *Number:
		if err := enc.EncodeSym(tagNumber); err != nil {
			return err
		}
		return v.Encode(r, enc)
	case *Str:
		if err := enc.EncodeSym(tagStr); err != nil {
			return err
		}
		return v.Encode(r, enc)
	case *List:
		if err := enc.EncodeSym(tagList); err != nil {
			return err
		}
		return v.Encode(r, enc)
	case *Instance:
		if err := enc.EncodeSym(tagInstance); err != nil {
			return err
		}
		return r.EncodeInstance(enc, v)
	case *Exception:
		if err := enc.EncodeSym(tagExc); err != nil {
			return err
		}
		return r.EncodeException(enc, v)
	}
	return fmt.Errorf("vesper: cannot serialize %s: %w", v.VesperType(), errNotSerializable)
}

// DecodeValue reads a value written by EncodeValue.
func (r *Runtime) DecodeValue(dec Decoder) (Value, error) {
	tag, err := dec.DecodeSym()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagNil:
		return r.Nil, nil
	case tagBool:
		n, err := dec.DecodeInt()
		if err != nil {
			return nil, err
		}
		return r.Bool(n != 0), nil
	case tagNumber:
		n, err := dec.DecodeInt()
		if err != nil {
			return nil, err
		}
		return decodeNumber(n), nil
	case tagStr:
		s, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		return NewStr(s), nil
	case tagList:
		n, err := dec.DecodeList()
		if err != nil {
			return nil, err
		}
		elems := make([]Value, n)
		for i := range elems {
			if elems[i], err = r.DecodeValue(dec); err != nil {
				return nil, err
			}
		}
		return NewList(elems...), nil
	case tagInstance:
		return r.DecodeInstance(dec)
	case tagExc:
		return r.DecodeException(dec)
	}
	return nil, fmt.Errorf("vesper: unknown value tag %q", tag)
}

// EncodeInstance writes an instance: its class name, then its
// state-classified, non-transient members in sorted name order, each as
// (name, declaring class, value). Function members, transients, and the
// qualified parameter aliases are not part of the serialized form.
func (r *Runtime) EncodeInstance(enc Encoder, inst *Instance) error {
	if err := enc.EncodeSym(inst.Class.Name); err != nil {
		return err
	}
	names := inst.serializableNames()
	if err := enc.EncodeList(len(names)); err != nil {
		return err
	}
	for _, name := range names {
		m, _ := inst.GetLocal(name)
		if err := enc.EncodeSym(name); err != nil {
			return err
		}
		declarer := ""
		if m.Declarer != nil {
			declarer = m.Declarer.Name
		}
		if err := enc.EncodeSym(declarer); err != nil {
			return err
		}
		if err := r.EncodeValue(enc, m.Value); err != nil {
			return err
		}
	}
	return nil
}

// DecodeInstance restores an instance. The construction protocol runs with
// constructors disabled: the environment is seeded and parameters bound,
// but no initializer or constructor body executes. State members are then
// restored directly from the serialized form, qualified parameter aliases
// are re-established, and the post-deserialize hook runs if the class
// declares one.
func (r *Runtime) DecodeInstance(dec Decoder) (*Instance, error) {
	className, err := dec.DecodeSym()
	if err != nil {
		return nil, err
	}
	c := r.ClassNamed(className)
	if c == nil {
		return nil, fmt.Errorf("vesper: no registered class named %s", className)
	}
	inst, exc, stop := r.constructShell(c)
	if stop != NoStop {
		return nil, excErr(exc)
	}
	n, err := dec.DecodeList()
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		name, err := dec.DecodeSym()
		if err != nil {
			return nil, err
		}
		declarer, err := dec.DecodeSym()
		if err != nil {
			return nil, err
		}
		v, err := r.DecodeValue(dec)
		if err != nil {
			return nil, err
		}
		inst.restoreMember(r, name, declarer, v)
	}
	if m := inst.resolve(r, "afterDeserialize"); m != nil {
		if fn, ok := m.Value.(*Fn); ok {
			if exc, stop := fn.Activate(r, inst, nil); stop != NoStop {
				return nil, excErr(exc)
			}
		}
	}
	return inst, nil
}

// constructShell runs the construction protocol with constructors disabled.
func (r *Runtime) constructShell(c *Class) (*Instance, Value, Stop) {
	inst := newShell(c)
	s := NewScope().Child(inst)
	visited := contains.Set{}
	if exc, stop := r.initClass(inst, s, c, nil, &visited, false); stop != NoStop {
		return nil, exc, stop
	}
	return inst, nil, NoStop
}

// EncodeException writes an exception: class name, message, optional data,
// and the rendered trace. Serializing forces the trace, since the frame
// chain will not exist on the other side.
func (r *Runtime) EncodeException(enc Encoder, e *Exception) error {
	if err := enc.EncodeSym(e.Class.Name); err != nil {
		return err
	}
	if err := enc.EncodeString(e.Message); err != nil {
		return err
	}
	if e.Data == nil {
		if err := enc.EncodeInt(0); err != nil {
			return err
		}
	} else {
		if err := enc.EncodeInt(1); err != nil {
			return err
		}
		if err := r.EncodeValue(enc, e.Data); err != nil {
			return err
		}
	}
	trace := e.Trace()
	if err := enc.EncodeList(len(trace)); err != nil {
		return err
	}
	for _, f := range trace {
		if err := enc.EncodeSym(f.Name); err != nil {
			return err
		}
		if err := enc.EncodeSym(f.Source); err != nil {
			return err
		}
		if err := enc.EncodeInt(int64(f.Line)); err != nil {
			return err
		}
	}
	return nil
}

// DecodeException restores an exception. The serialized trace is installed
// as-is and is never regenerated: the frame chain present during
// deserialization has nothing to do with the original throw site.
func (r *Runtime) DecodeException(dec Decoder) (*Exception, error) {
	className, err := dec.DecodeSym()
	if err != nil {
		return nil, err
	}
	message, err := dec.DecodeString()
	if err != nil {
		return nil, err
	}
	e := &Exception{Class: r.ExceptionClass(className), Message: message}
	hasData, err := dec.DecodeInt()
	if err != nil {
		return nil, err
	}
	if hasData != 0 {
		if e.Data, err = r.DecodeValue(dec); err != nil {
			return nil, err
		}
	}
	n, err := dec.DecodeList()
	if err != nil {
		return nil, err
	}
	trace := make([]FrameInfo, n)
	for i := range trace {
		if trace[i].Name, err = dec.DecodeSym(); err != nil {
			return nil, err
		}
		if trace[i].Source, err = dec.DecodeSym(); err != nil {
			return nil, err
		}
		line, err := dec.DecodeInt()
		if err != nil {
			return nil, err
		}
		trace[i].Line = int(line)
	}
	e.restoreTrace(trace)
	return e, nil
}

// excErr converts a raised exception value to a Go error for the codec's
// error-return surface.
func excErr(v Value) error {
	if e, ok := v.(*Exception); ok {
		return e
	}
	return fmt.Errorf("vesper: construction failed: %v", v)
}
