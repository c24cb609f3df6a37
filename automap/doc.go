// Package automap holds the declarative markers read by the automap
// generator.
//
// A mapping profile is a struct type that embeds Profile and declares a
// Configure method. Inside Configure, mappings are declared with Map and
// refined with ForField, ForFieldAsync and Reverse:
//
//	type UserProfile struct{ automap.Profile }
//
//	func (UserProfile) Configure(cfg *automap.Config) {
//		automap.Map[User, UserDto](cfg).
//			ForField(UserDto{}.FullName, func(u *User) any {
//				return u.FirstName + " " + u.LastName
//			}).
//			Reverse()
//	}
//
// None of these functions do anything at runtime. The generator reads their
// call sites and writes one <Source>_To_<Dest>.g.go file per mapping, next to
// the source type.
package automap
