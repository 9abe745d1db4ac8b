// Package jtdbind is the runtime for generated JSON Type Definition wrapper
// types.
//
// A wrapper is a named type holding exactly one schema-typed value in a Value
// field:
//
//	type Name struct{ Value string }
//
// Its JSON form is the JSON form of Value, never {"Value": ...}. A Binding pairs
// the wrapper with the Shape of its payload (scalar, sequence or mapping) and
// the engine delegates to it whenever the exact wrapper type is encoded or
// decoded:
//
//	b := jtdbind.NewRegistryBuilder()
//	b.MustRegister(jtdbind.Bind(jtdbind.String(),
//		func(v string) Name { return Name{Value: v} },
//		func(n Name) string { return n.Value }))
//	reg := b.Build()
//
//	n, err := jtdbind.Unmarshal[Name](reg, []byte(`"Alice"`))
//	out, err := jtdbind.Marshal(reg, n) // `"Alice"`
//
// Design policy:
//   - Bindings are resolved by exact Go type only. A binding for one wrapper
//     never applies to another wrapper with the same layout.
//   - Registries are built once and immutable afterwards; share them freely
//     between goroutines.
//   - Nothing is recovered locally: type mismatches, malformed input and
//     registration conflicts are returned to the caller as typed errors.
//   - Token sources live under source/ (encoding/json by default, go-json and
//     YAML as alternatives); extra wire formats under codec/.
package jtdbind
