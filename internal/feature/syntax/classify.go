package syntax

import (
	"github.com/alecthomas/chroma/v2"

	"github.com/dshills/tagsource/internal/format"
)

// classNames lists every classification a token may map to.
var classNames = []string{
	format.ClassSyntaxKeyword,
	format.ClassSyntaxString,
	format.ClassSyntaxComment,
	format.ClassSyntaxNumber,
	format.ClassSyntaxOperator,
	format.ClassSyntaxPunctuation,
	format.ClassSyntaxName,
	format.ClassSyntaxFunction,
	format.ClassSyntaxType,
	format.ClassSyntaxLiteral,
}

// classFor maps a chroma token type to a classification name.
// Plain identifiers, text and whitespace map to "".
func classFor(t chroma.TokenType) string {
	switch {
	case t == chroma.KeywordType || t == chroma.NameClass:
		return format.ClassSyntaxType
	case t == chroma.NameFunction || t == chroma.NameFunctionMagic:
		return format.ClassSyntaxFunction
	case t.InCategory(chroma.Keyword):
		return format.ClassSyntaxKeyword
	case t.InCategory(chroma.Comment):
		return format.ClassSyntaxComment
	case t.InSubCategory(chroma.LiteralString):
		return format.ClassSyntaxString
	case t.InSubCategory(chroma.LiteralNumber):
		return format.ClassSyntaxNumber
	case t.InCategory(chroma.Literal):
		return format.ClassSyntaxLiteral
	case t.InCategory(chroma.Operator):
		return format.ClassSyntaxOperator
	case t == chroma.Punctuation:
		return format.ClassSyntaxPunctuation
	case t == chroma.Name || t == chroma.NameOther:
		return ""
	case t.InCategory(chroma.Name):
		return format.ClassSyntaxName
	}
	return ""
}
