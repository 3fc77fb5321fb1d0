package contract

import (
	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

// treeAPI decodes whole numbers as int64 so the canonical walk can
// tell ids and counts apart from measured floats.
var treeAPI = sonic.Config{UseInt64: true}.Froze()

// stableAPI renders deterministic output: map keys sorted, ASCII only.
var stableAPI = sonic.Config{
	SortMapKeys:             true,
	EscapeHTML:              false,
	NoValidateJSONMarshaler: true,
}.Froze()

// ToTree round-trips a typed value into a generic JSON tree.
func ToTree(v any) (map[string]any, error) {
	raw, err := treeAPI.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}
	var tree map[string]any
	if err := treeAPI.Unmarshal(raw, &tree); err != nil {
		return nil, errors.Wrap(err, "decode payload tree")
	}
	return tree, nil
}

// StableJSON renders a payload as sorted-key two-space-indented JSON
// with a single trailing newline. Equal payloads produce equal bytes.
func StableJSON(payload any) ([]byte, error) {
	out, err := stableAPI.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "stable json")
	}
	return append(out, '\n'), nil
}
