// Package analyze loads Go packages and builds the type graph the generator
// works on.
//
// Packages are loaded with golang.org/x/tools/go/packages and described from
// their go/types information. Only root packages are walked for profiles;
// dependencies contribute the types their fields reference.
//
// Key types:
//   - TypeID: import path and type name
//   - TypeInfo: kind, fields and element type of a described type
//   - Candidate: a struct type that embeds the marker Profile
package analyze
