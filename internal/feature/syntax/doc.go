// Package syntax classifies text buffers with chroma lexers.
//
// Lines are tokenised independently, so constructs spanning several lines
// (block comments, raw strings) are classified line by line as the lexer
// sees them in isolation. Token results are cached per distinct line text.
package syntax
