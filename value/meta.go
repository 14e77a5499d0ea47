package value

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import "github.com/npillmayer/clove"

// MetaOf returns the metadata map of v, or nil for atoms and meta-less
// values.
func MetaOf(v Value) *Map {
	if mc, ok := v.(MetaCarrier); ok {
		return mc.Meta()
	}
	return nil
}

// AttachMeta attaches a metadata map to v. Successive attachments merge
// left-to-right: entries of m win over entries already present. The second
// return is false when v cannot carry metadata (atoms).
func AttachMeta(v Value, m *Map) (Value, bool) {
	mc, ok := v.(MetaCarrier)
	if !ok {
		return v, false
	}
	if prev := mc.Meta(); prev != nil {
		merged := prev.Copy().Merge(m)
		return mc.WithMeta(merged), true
	}
	return mc.WithMeta(m), true
}

// PosOf returns the source position of v, or the zero Pos for atoms.
func PosOf(v Value) clove.Pos {
	if pv, ok := v.(Positioned); ok {
		return pv.Pos()
	}
	return clove.Pos{}
}
