// Package family defines the record types consumed by the layout core and
// their JSON wire format.
//
// A [Snapshot] is the per-tree view handed over by the record store: an
// ordered list of [Person] records, each carrying the two edge lists it
// takes part in. The JSON field names follow the record API so that a
// snapshot fetched from the server can be fed to the CLI unchanged:
//
//	{
//	  "id": "tree-1",
//	  "name": "Lovelace",
//	  "people": [
//	    {
//	      "id": "ada",
//	      "firstName": "Ada",
//	      "lastName": "Lovelace",
//	      "gender": "female",
//	      "relationshipsAsPerson1": [],
//	      "relationshipsAsPerson2": [
//	        {"id": "r1", "person1Id": "anne", "person2Id": "ada", "type": "PARENT_CHILD"}
//	      ]
//	    }
//	  ]
//	}
//
// # Relationship kinds
//
// [Kind] is a closed set ([KindParentChild], [KindSpouse], [KindSibling]).
// Unknown kinds read from JSON are preserved verbatim so they survive a
// round trip, but [Kind.Known] reports false and the layout core ignores
// them. Strict validation for writes goes through [ParseKind].
//
// # Gender
//
// [Gender] is normalised on read: "M"/"male", "F"/"female", "O"/"other";
// anything else becomes [GenderUnspecified]. [ParseGender] is the strict
// variant used by the record store.
package family
