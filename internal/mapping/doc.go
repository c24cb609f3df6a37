// Package mapping turns profile declarations into mapping specifications.
//
// A profile declares mappings inside its Configure method:
//
//	func (Profile) Configure(cfg *automap.Config) {
//		automap.Map[User, UserDto](cfg).
//			ForField(UserDto{}.FullName, func(u *User) any {
//				return u.FirstName + " " + u.LastName
//			}).
//			Reverse()
//	}
//
// # Pipeline
//
//   - Extractor walks Configure and produces one MappingSpec per Map chain.
//   - Normalize rewrites each override expression so it can be pasted into
//     generated code: the source parameter becomes "source", the context
//     parameter becomes "ctx", and qualifiers naming the package the
//     generated file lives in are dropped. A profile declared in another
//     package imports that package, so anything the expression takes from
//     the profile package makes the field a placeholder.
//   - Registry keeps the first spec per (source, destination) pair and
//     reports later ones as duplicates.
//
// # Override forms
//
//   - A function literal whose body is a single return statement is inlined.
//   - Any other literal body becomes a private helper in the generated file.
//   - A reference to a package-level function is called with the source
//     (and the context, for ForFieldAsync).
//
// Extraction problems never abort a pass; they are reported as diagnostics
// and the offending declaration or field is skipped.
package mapping
