package model

// BasisGroup holds the pairings of one painting that share a basis,
// in the order they appear on the painting.
type BasisGroup struct {
	Basis    string    `json:"basis"`
	Pairings []Pairing `json:"pairings"`
}

// Representative is the pairing shown when a user asks for "the <basis> pairing".
func (g BasisGroup) Representative() (Pairing, bool) {
	if len(g.Pairings) == 0 {
		return Pairing{}, false
	}
	return g.Pairings[0], true
}

// GroupByBasis buckets pairings by basis. Groups are ordered by the first
// occurrence of each basis.
func GroupByBasis(pairings []Pairing) []BasisGroup {
	if len(pairings) == 0 {
		return nil
	}
	idx := map[string]int{}
	var groups []BasisGroup
	for _, p := range pairings {
		i, ok := idx[p.Basis]
		if !ok {
			i = len(groups)
			idx[p.Basis] = i
			groups = append(groups, BasisGroup{Basis: p.Basis})
		}
		groups[i].Pairings = append(groups[i].Pairings, p)
	}
	return groups
}

func (p Painting) PairingGroups() []BasisGroup {
	return GroupByBasis(p.Pairings)
}

// RepresentativeFor returns the first pairing with the given basis.
func (p Painting) RepresentativeFor(basis string) (Pairing, bool) {
	for _, g := range p.PairingGroups() {
		if g.Basis == basis {
			return g.Representative()
		}
	}
	return Pairing{}, false
}
