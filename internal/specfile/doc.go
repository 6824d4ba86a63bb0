// Package specfile reads command definitions from YAML or CUE files.
//
// A file names one table and any number of commands against it:
//
//	table:
//	  name: Entities
//	  columns: {Id: Id, Name: Name, Version: Version}
//	commands:
//	  - name: upsert_entity
//	    kind: upsert
//	    insert:
//	      Name: params.Name
//	      Version: params.Version
//	    conflict: [Name]
//	    update:
//	      Version: row.Version + 1
//	    where: row.Version < 0
//	    output: [Id, Version]
//
// Expressions use CEL syntax. Insert values may reference params, update
// values and predicates may reference row and params, and output
// expressions may reference row. Mapping order is the binding order.
package specfile
