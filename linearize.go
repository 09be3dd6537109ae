package vesper

// linearize computes the C3 linearization of c: merge the linearizations of
// each direct parent, in declared order, together with the direct parent
// list itself, by repeatedly taking the head of the first sequence whose
// head occurs in no other sequence's tail. The result always begins with c,
// places c before every ancestor, and preserves each parent's own internal
// order. Parent lineages are already memoized, so c's parents must be fully
// built before c.
func linearize(c *Class) ([]*Class, error) {
	if len(c.Parents) == 0 {
		return []*Class{c}, nil
	}
	seqs := make([][]*Class, 0, len(c.Parents)+1)
	for _, p := range c.Parents {
		seqs = append(seqs, append([]*Class(nil), p.lineage...))
	}
	seqs = append(seqs, append([]*Class(nil), c.Parents...))
	order := []*Class{c}
	for {
		live := seqs[:0]
		for _, s := range seqs {
			if len(s) > 0 {
				live = append(live, s)
			}
		}
		seqs = live
		if len(seqs) == 0 {
			return order, nil
		}
		next := pickHead(seqs)
		if next == nil {
			return nil, &DefinitionError{Class: c.Name, Reason: "inheritance hierarchy cannot be linearized"}
		}
		order = append(order, next)
		for i, s := range seqs {
			if s[0] == next {
				seqs[i] = s[1:]
			}
		}
	}
}

// pickHead selects the first sequence head that is in no sequence's tail,
// or nil if no head is valid, which means the hierarchy is inconsistent.
func pickHead(seqs [][]*Class) *Class {
	for _, s := range seqs {
		if inAnyTail(seqs, s[0]) {
			continue
		}
		return s[0]
	}
	return nil
}

func inAnyTail(seqs [][]*Class, c *Class) bool {
	for _, s := range seqs {
		for _, t := range s[1:] {
			if t == c {
				return true
			}
		}
	}
	return false
}
