// Package spec describes the shapes of construction parameters and the wire
// manifests that fill them.
//
// # Type specs
//
// A TypeSpec is a closed union of four variants:
//
//	Class(t)        a single value of Go type t
//	List(elem)      a slice of elem
//	Dict(key, val)  a map from key to val
//	Tuple(elems...) a fixed-length positional []any
//
// TypeSpecs are built with the constructors of the same name or parsed from a
// raw descriptor with Parse: a reflect.Type, a one-element []any, a one-entry
// map[any]any or a Tup.
//
// # Manifests
//
// A manifest is the decoded wire value for one parameter. For a Class it is
// either a direct value or an object spec naming a construction unit:
//
//	{"<key>": {<param>: <manifest>, ...}}
//	{"key": "<key>", "inputs": {<param>: <manifest>, ...}}
//
// Decompose splits List, Dict and Tuple manifests into (TypeSpec, manifest)
// pairs, and Compose packs the realized children back into a Go value.
package spec
