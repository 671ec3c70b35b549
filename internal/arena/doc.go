// Package arena provides append-only storage addressed by typed uint32 handles.
//
// Each arena is tagged with a marker type that reserves the top of the uint32
// space as a sentinel band: handles inside the band decode to well-known
// values without occupying a slot (the type system uses it for primitive
// types, the SSA constant pool for unit and boolean constants). Arenas whose
// marker has no sentinels reserve only math.MaxUint32 as their "no handle"
// value.
//
// Handles of different arenas are distinct Go types, so a type handle can not
// be used to index the node arena by mistake.
package arena
