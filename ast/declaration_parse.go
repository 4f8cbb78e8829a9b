package ast

import "github.com/zengine-project/zengine/diag"

// declarationFromList dispatches a fully-parsed top-level list
// expression (whose head atom is a known declaration keyword) to its
// dedicated sub-parser.
func declarationFromList(head string, list Expr) (Declaration, error) {
	args := list.Elements[1:]
	loc := list.Location

	switch head {
	case "ROUTINE":
		return parseRoutine(args, loc)
	case "OBJECT", "ROOM":
		return parseObject(args, loc)
	case "GLOBAL":
		return parseGlobal(args, loc)
	case "CONSTANT":
		return parseConstant(args, loc)
	case "PROPDEF":
		return parsePropDef(args, loc)
	case "VERSION":
		return parseVersion(args, loc)
	case "INSERT-FILE":
		return parseFileDecl(args, loc, DeclInsertFile)
	case "INCLUDE":
		return parseFileDecl(args, loc, DeclInclude)
	}

	return Declaration{Kind: DeclRaw, Location: loc, Raw: list}, nil
}

func parseRoutine(args []Expr, loc diag.Location) (Declaration, error) {
	if len(args) == 0 {
		return Declaration{}, newError(ErrExpectedRoutineName, loc, "expected routine name")
	}
	if args[0].Kind != ExprAtom {
		return Declaration{}, newError(ErrExpectedRoutineName, args[0].Location, "expected routine name, found %s", kindName(args[0].Kind))
	}
	name := args[0].Name

	var paramList Expr
	bodyStart := 1
	if len(args) > 1 && args[1].Kind == ExprList {
		paramList = args[1]
		bodyStart = 2
	}

	params, optionals, auxiliaries, err := parseParameterSections(paramList)
	if err != nil {
		return Declaration{}, err
	}

	body := append([]Expr{}, args[bodyStart:]...)

	return Declaration{
		Kind:     DeclRoutine,
		Location: loc,
		Routine: Routine{
			Name:        name,
			Parameters:  params,
			Optionals:   optionals,
			Auxiliaries: auxiliaries,
			Body:        body,
		},
	}, nil
}

// parseParameterSections parses the ROUTINE parameter list
// "( required* "OPT" optional* "AUX" auxiliary* )" (synonyms OPTIONAL,
// AUXILIARY accepted).
func parseParameterSections(paramList Expr) (params, optionals, auxiliaries []string, err error) {
	const (
		sectionRequired = iota
		sectionOptional
		sectionAux
	)
	section := sectionRequired

	for _, elem := range paramList.Elements {
		name, isAtom := parameterElementName(elem)
		if !isAtom {
			return nil, nil, nil, newError(ErrExpectedParameterName, elem.Location, "expected parameter name")
		}

		switch name {
		case "OPT", "OPTIONAL":
			if section != sectionRequired {
				return nil, nil, nil, newError(ErrInvalidParameterSection, elem.Location, "unexpected %q parameter section", name)
			}
			section = sectionOptional
			continue
		case "AUX", "AUXILIARY":
			if section == sectionAux {
				return nil, nil, nil, newError(ErrInvalidParameterSection, elem.Location, "unexpected %q parameter section", name)
			}
			section = sectionAux
			continue
		}

		switch section {
		case sectionRequired:
			params = append(params, name)
		case sectionOptional:
			optionals = append(optionals, name)
		case sectionAux:
			auxiliaries = append(auxiliaries, name)
		}
	}

	return params, optionals, auxiliaries, nil
}

// parameterElementName extracts the parameter name from either a bare
// atom or a (NAME default-value) pair.
func parameterElementName(e Expr) (string, bool) {
	if e.Kind == ExprAtom {
		return e.Name, true
	}
	if e.Kind == ExprString {
		// "OPT"/"OPTIONAL"/"AUX"/"AUXILIARY" section markers are
		// conventionally written as quoted strings in ZIL parameter lists.
		return e.Str, true
	}
	if e.Kind == ExprList && len(e.Elements) > 0 && e.Elements[0].Kind == ExprAtom {
		return e.Elements[0].Name, true
	}
	return "", false
}

func parseObject(args []Expr, loc diag.Location) (Declaration, error) {
	if len(args) == 0 || args[0].Kind != ExprAtom {
		return Declaration{}, newError(ErrExpectedObjectName, loc, "expected object name")
	}
	name := args[0].Name

	obj := Object{Name: name}
	for _, elem := range args[1:] {
		if elem.Kind != ExprList || len(elem.Elements) == 0 || elem.Elements[0].Kind != ExprAtom {
			return Declaration{}, newError(ErrExpectedObjectProperty, elem.Location, "expected object property")
		}
		propName := elem.Elements[0].Name
		values := elem.Elements[1:]
		if propName == "FLAGS" {
			for _, v := range values {
				if v.Kind == ExprAtom {
					obj.Flags = append(obj.Flags, v.Name)
				}
			}
			continue
		}
		obj.Properties = append(obj.Properties, ObjectProperty{Name: propName, Values: values})
	}

	return Declaration{Kind: DeclObject, Location: loc, Object: obj}, nil
}

func parseGlobal(args []Expr, loc diag.Location) (Declaration, error) {
	if len(args) == 0 || args[0].Kind != ExprAtom {
		return Declaration{}, newError(ErrExpectedGlobalName, loc, "expected global name")
	}
	g := Global{Name: args[0].Name}
	if len(args) > 1 {
		g.Value = args[1]
	}
	return Declaration{Kind: DeclGlobal, Location: loc, Global: g}, nil
}

func parseConstant(args []Expr, loc diag.Location) (Declaration, error) {
	if len(args) == 0 || args[0].Kind != ExprAtom {
		return Declaration{}, newError(ErrExpectedConstantName, loc, "expected constant name")
	}
	c := Constant{Name: args[0].Name}
	if len(args) > 1 {
		c.Value = args[1]
	}
	return Declaration{Kind: DeclConstant, Location: loc, Constant: c}, nil
}

func parsePropDef(args []Expr, loc diag.Location) (Declaration, error) {
	if len(args) == 0 || args[0].Kind != ExprAtom {
		return Declaration{}, newError(ErrExpectedPropertyName, loc, "expected property name")
	}
	return Declaration{
		Kind:     DeclProperty,
		Location: loc,
		Property: PropertyDef{Name: args[0].Name, Pattern: args[1:]},
	}, nil
}

func parseVersion(args []Expr, loc diag.Location) (Declaration, error) {
	if len(args) == 0 {
		return Declaration{}, newError(ErrExpectedVersionType, loc, "expected version type")
	}
	var versionType string
	switch args[0].Kind {
	case ExprAtom:
		versionType = args[0].Name
	case ExprNumber:
		versionType = numberToken(args[0].Number)
	default:
		return Declaration{}, newError(ErrExpectedVersionType, args[0].Location, "expected version type")
	}
	return Declaration{Kind: DeclVersion, Location: loc, Version: VersionDecl{VersionType: versionType}}, nil
}

func numberToken(n int16) string {
	if n < 0 {
		return "-" + numberToken(-n)
	}
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func parseFileDecl(args []Expr, loc diag.Location, kind DeclKind) (Declaration, error) {
	if len(args) == 0 {
		return Declaration{}, newError(ErrExpectedFilename, loc, "expected filename")
	}
	var path string
	switch args[0].Kind {
	case ExprString:
		path = args[0].Str
	case ExprAtom:
		path = args[0].Name
	default:
		return Declaration{}, newError(ErrExpectedFilename, args[0].Location, "expected filename")
	}
	return Declaration{Kind: kind, Location: loc, IncludePath: path}, nil
}
