package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

// CanisterTypeRust is the dfx.json canister type this tool generates candid files for.
const CanisterTypeRust = "rust"

var (
	errMissingPackage = errors.New("missing \"package\" field")
	errMissingCandid  = errors.New("missing \"candid\" field")
)

// Canister represents a canister entry from dfx.json.
type Canister struct {
	// Name is the key of the entry under "canisters".
	Name string `json:"-"`

	// Package is the cargo package that builds the canister.
	Package string `json:"package"`

	// Candid is the path of the interface file, relative to the project root.
	Candid string `json:"candid"`

	// Type is the dfx canister type ("rust", "motoko", "custom", ...).
	Type string `json:"type"`

	// Extra holds every other field of the entry, verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

// NewCanister creates a rust canister whose package matches its name and whose
// candid file lives at the conventional src/<name>/<name>.did.
func NewCanister(name string) *Canister {
	return &Canister{
		Name:    name,
		Package: name,
		Candid:  path.Join("src", name, name+".did"),
		Type:    CanisterTypeRust,
		Extra:   map[string]json.RawMessage{},
	}
}

// CrateName returns the library crate name cargo derives from the package,
// which is also the stem of the produced wasm file.
func (c *Canister) CrateName() string {
	return strings.ReplaceAll(c.Package, "-", "_")
}

// Clone returns a deep copy of the canister.
func (c *Canister) Clone() *Canister {
	clone := *c
	clone.Extra = make(map[string]json.RawMessage, len(c.Extra))
	for k, v := range c.Extra {
		clone.Extra[k] = append(json.RawMessage(nil), v...)
	}
	return &clone
}

// UnmarshalJSON decodes a canister entry, keeping unknown fields in Extra.
func (c *Canister) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("canister entry must be an object")
	}

	pkg, ok, err := stringField(fields, "package")
	if err != nil {
		return err
	}
	if !ok || strings.TrimSpace(pkg) == "" {
		return errMissingPackage
	}

	candid, ok, err := stringField(fields, "candid")
	if err != nil {
		return err
	}
	if !ok {
		return errMissingCandid
	}

	canisterType, _, err := stringField(fields, "type")
	if err != nil {
		return err
	}

	delete(fields, "package")
	delete(fields, "candid")
	delete(fields, "type")

	c.Package = strings.TrimSpace(pkg)
	c.Candid = candid
	c.Type = canisterType
	c.Extra = fields
	return nil
}

// MarshalJSON encodes the canister together with its extra fields.
func (c *Canister) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Extra)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["package"] = c.Package
	out["candid"] = c.Candid
	if c.Type != "" {
		out["type"] = c.Type
	}
	return json.Marshal(out)
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool, error) {
	raw, ok := fields[key]
	if !ok {
		return "", false, nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", true, fmt.Errorf("field %q must be a string: %w", key, err)
	}
	return value, true, nil
}
