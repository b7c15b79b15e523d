// Package scenario reads scenario files and runs them against a document store.
//
// A scenario is a TOML file:
//
//	name    = "profile"
//	initial = '{"user": {}}'
//	script  = '''
//	function handle(a)
//	  if a.tag == "document.set" and a.payload.path == "user.age" and a.payload.value < 0 then
//	    return false
//	  end
//	end
//	'''
//
//	[[steps]]
//	op    = "set"
//	path  = "user.name"
//	value = "Joe"
//
//	[[steps]]
//	op   = "load"
//	file = "address.json"
//	path = "user.address"
//
// Files ending in .yaml or .yml are read as YAML with the same keys.
// Step ops are set, set_raw, delete, replace, load and dispatch. Files named by
// load steps and script_file are resolved relative to the scenario file.
package scenario
