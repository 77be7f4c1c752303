// Package script classifies buffer lines with a user-supplied Lua script.
//
// The script must define a global function
//
//	function classify(line, lineno)
//	  if line:match("^#") then return "syntax.comment" end
//	  if line:find("TODO") then
//	    local i = line:find("TODO")
//	    return "syntax.keyword", i, i + 3
//	  end
//	end
//
// classify returns a classification name for the whole line, or a name
// with the first and last byte columns (1-based, inclusive) of the range to
// classify. Returning nil leaves the line unclassified. Line numbers start
// at 1.
//
// Each Source runs its own Lua state with only the base, string, table and
// math libraries opened.
package script
