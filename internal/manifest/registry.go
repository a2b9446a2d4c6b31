package manifest

import "sort"

// Registry maps canister names to rust canisters.
type Registry map[string]*Canister

// Names returns the canister names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a canister by name.
func (r Registry) Get(name string) (*Canister, bool) {
	c, ok := r[name]
	return c, ok
}

// ByPackage returns the canister built from the given cargo package.
// When several canisters share a package, the first by name wins.
func (r Registry) ByPackage(pkg string) (*Canister, bool) {
	for _, name := range r.Names() {
		if r[name].Package == pkg {
			return r[name], true
		}
	}
	return nil, false
}

// Filter narrows the registry to the requested names.
//
// A nil slice selects every canister. Names not in the registry are returned
// as missing, in request order and without duplicates. The receiver is never
// modified.
func (r Registry) Filter(names []string) (Registry, []string) {
	if names == nil {
		out := make(Registry, len(r))
		for name, c := range r {
			out[name] = c.Clone()
		}
		return out, nil
	}

	out := make(Registry)
	var missing []string
	reported := make(map[string]struct{})
	for _, name := range names {
		if c, ok := r[name]; ok {
			out[name] = c.Clone()
			continue
		}
		if _, seen := reported[name]; seen {
			continue
		}
		reported[name] = struct{}{}
		missing = append(missing, name)
	}

	return out, missing
}
