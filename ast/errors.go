package ast

import (
	"fmt"

	"github.com/zengine-project/zengine/diag"
)

// ErrorCode enumerates the parser's error taxonomy (spec.md 4.3).
type ErrorCode int

const (
	ErrUnexpectedToken ErrorCode = iota
	ErrUnexpectedEndOfFile
	ErrInvalidSyntax
	ErrUndefinedSymbol
	ErrDuplicateDefinition
	ErrTypeError
	ErrExpectedAtom
	ErrExpectedRoutineName
	ErrExpectedObjectName
	ErrExpectedGlobalName
	ErrExpectedPropertyName
	ErrExpectedConstantName
	ErrExpectedFilename
	ErrExpectedVersionType
	ErrExpectedParameterName
	ErrExpectedObjectProperty
	ErrInvalidParameterSection
	ErrUnknownDeclaration
)

func (c ErrorCode) String() string {
	switch c {
	case ErrUnexpectedToken:
		return "unexpectedToken"
	case ErrUnexpectedEndOfFile:
		return "unexpectedEndOfFile"
	case ErrInvalidSyntax:
		return "invalidSyntax"
	case ErrUndefinedSymbol:
		return "undefinedSymbol"
	case ErrDuplicateDefinition:
		return "duplicateDefinition"
	case ErrTypeError:
		return "typeError"
	case ErrExpectedAtom:
		return "expectedAtom"
	case ErrExpectedRoutineName:
		return "expectedRoutineName"
	case ErrExpectedObjectName:
		return "expectedObjectName"
	case ErrExpectedGlobalName:
		return "expectedGlobalName"
	case ErrExpectedPropertyName:
		return "expectedPropertyName"
	case ErrExpectedConstantName:
		return "expectedConstantName"
	case ErrExpectedFilename:
		return "expectedFilename"
	case ErrExpectedVersionType:
		return "expectedVersionType"
	case ErrExpectedParameterName:
		return "expectedParameterName"
	case ErrExpectedObjectProperty:
		return "expectedObjectProperty"
	case ErrInvalidParameterSection:
		return "invalidParameterSection"
	case ErrUnknownDeclaration:
		return "unknownDeclaration"
	default:
		return "unknown"
	}
}

// ParseError is the concrete error type returned by the parser. It
// satisfies the error interface and formats identically to a
// diag.Diagnostic ("file:line:col: error: message").
type ParseError struct {
	Code     ErrorCode
	Location diag.Location
	Message  string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s: error: %s", e.Location, e.Message)
}

// Diagnostic converts a ParseError into a diag.Diagnostic.
func (e ParseError) Diagnostic() diag.Diagnostic {
	return diag.Diagnostic{Severity: diag.Error, Code: e.Code.String(), Message: e.Message, Location: e.Location}
}

func newError(code ErrorCode, loc diag.Location, format string, args ...any) ParseError {
	return ParseError{Code: code, Location: loc, Message: fmt.Sprintf(format, args...)}
}
