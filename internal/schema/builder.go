package schema

import (
	"fmt"

	language "github.com/hanpama/gqlbridge/internal/language"
)

// BuildFromSDL parses SDL and builds an executable schema. Type extensions
// are merged into their base definitions. Built-in scalars and directives are
// always present.
func BuildFromSDL(sources ...string) (*Schema, error) {
	docs := make([]*language.SchemaDocument, 0, len(sources))
	for i, src := range sources {
		doc, err := language.ParseSchema(fmt.Sprintf("schema-%d.graphql", i), src)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return BuildFromDocuments(docs...)
}

// BuildFromDocuments builds an executable schema from parsed SDL documents.
func BuildFromDocuments(docs ...*language.SchemaDocument) (*Schema, error) {
	s := &Schema{
		QueryType:  "Query",
		Types:      map[string]*Type{},
		Directives: map[string]*Directive{},
	}
	for _, t := range []*Type{stringType, intType, floatType, booleanType, idType} {
		s.Types[t.Name] = t
	}
	s.Directives[includeDirective.Name] = includeDirective
	s.Directives[skipDirective.Name] = skipDirective

	for _, doc := range docs {
		for _, def := range doc.Schema {
			applySchemaDef(s, def)
		}
		for _, def := range doc.SchemaExtension {
			applySchemaDef(s, def)
		}
		for _, def := range doc.Definitions {
			t, err := buildType(def)
			if err != nil {
				return nil, err
			}
			if t == nil {
				continue
			}
			if existing, ok := s.Types[t.Name]; ok && !isBuiltinType(existing) {
				return nil, fmt.Errorf("type %q defined more than once", t.Name)
			}
			s.Types[t.Name] = t
		}
		for _, dir := range doc.Directives {
			s.Directives[dir.Name] = buildDirective(dir)
		}
	}
	for _, doc := range docs {
		for _, ext := range doc.Extensions {
			if err := mergeExtension(s, ext); err != nil {
				return nil, err
			}
		}
	}

	if err := linkPossibleTypes(s); err != nil {
		return nil, err
	}
	if s.Types[s.QueryType] == nil {
		return nil, fmt.Errorf("query root type %q is not defined", s.QueryType)
	}
	return s, nil
}

func applySchemaDef(s *Schema, def *language.SchemaDefinition) {
	for _, op := range def.OperationTypes {
		switch op.Operation {
		case language.Query:
			s.QueryType = op.Type
		case language.Mutation:
			s.MutationType = op.Type
		case language.Subscription:
			s.SubscriptionType = op.Type
		}
	}
	if def.Description != "" {
		s.Description = def.Description
	}
}

func buildType(def *language.Definition) (*Type, error) {
	switch def.Kind {
	case language.Object:
		return buildComposite(def, TypeKindObject), nil
	case language.Interface:
		return buildComposite(def, TypeKindInterface), nil
	case language.Union:
		t := &Type{Name: def.Name, Kind: TypeKindUnion, Description: def.Description}
		t.PossibleTypes = append(t.PossibleTypes, def.Types...)
		return t, nil
	case language.Enum:
		t := &Type{Name: def.Name, Kind: TypeKindEnum, Description: def.Description}
		for _, v := range def.EnumValues {
			ev := &EnumValue{Name: v.Name, Description: v.Description}
			applyDeprecation(v.Directives, &ev.IsDeprecated, &ev.DeprecationReason)
			t.EnumValues = append(t.EnumValues, ev)
		}
		return t, nil
	case language.InputObject:
		t := &Type{Name: def.Name, Kind: TypeKindInputObject, Description: def.Description}
		t.OneOf = def.Directives.ForName("oneOf") != nil
		for _, f := range def.Fields {
			t.InputFields = append(t.InputFields, buildInputValue(f))
		}
		return t, nil
	case language.Scalar:
		t := &Type{Name: def.Name, Kind: TypeKindScalar, Description: def.Description}
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil {
				url := arg.Value.Raw
				t.SpecifiedByURL = &url
			}
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported definition kind %s for %q", def.Kind, def.Name)
	}
}

func buildComposite(def *language.Definition, kind TypeKind) *Type {
	t := &Type{Name: def.Name, Kind: kind, Description: def.Description}
	t.Interfaces = append(t.Interfaces, def.Interfaces...)
	for _, f := range def.Fields {
		t.Fields = append(t.Fields, buildField(f))
	}
	return t
}

func buildField(def *language.FieldDefinition) *Field {
	f := &Field{
		Name:        def.Name,
		Description: def.Description,
		Type:        typeRefFromAST(def.Type),
	}
	applyDeprecation(def.Directives, &f.IsDeprecated, &f.DeprecationReason)
	for _, arg := range def.Arguments {
		f.Arguments = append(f.Arguments, &InputValue{
			Name:         arg.Name,
			Description:  arg.Description,
			Type:         typeRefFromAST(arg.Type),
			DefaultValue: astDefault(arg.DefaultValue),
		})
	}
	return f
}

func buildInputValue(def *language.FieldDefinition) *InputValue {
	in := &InputValue{
		Name:         def.Name,
		Description:  def.Description,
		Type:         typeRefFromAST(def.Type),
		DefaultValue: astDefault(def.DefaultValue),
	}
	applyDeprecation(def.Directives, &in.IsDeprecated, &in.DeprecationReason)
	return in
}

func buildDirective(def *language.DirectiveDefinition) *Directive {
	d := &Directive{
		Name:         def.Name,
		Description:  def.Description,
		IsRepeatable: def.IsRepeatable,
	}
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range def.Arguments {
		d.Arguments = append(d.Arguments, &InputValue{
			Name:         arg.Name,
			Description:  arg.Description,
			Type:         typeRefFromAST(arg.Type),
			DefaultValue: astDefault(arg.DefaultValue),
		})
	}
	return d
}

func mergeExtension(s *Schema, ext *language.Definition) error {
	base, ok := s.Types[ext.Name]
	if !ok {
		return fmt.Errorf("cannot extend unknown type %q", ext.Name)
	}
	switch ext.Kind {
	case language.Object, language.Interface:
		for _, f := range ext.Fields {
			base.Fields = append(base.Fields, buildField(f))
		}
		base.Interfaces = append(base.Interfaces, ext.Interfaces...)
	case language.Union:
		base.PossibleTypes = append(base.PossibleTypes, ext.Types...)
	case language.Enum:
		for _, v := range ext.EnumValues {
			base.EnumValues = append(base.EnumValues, &EnumValue{Name: v.Name, Description: v.Description})
		}
	case language.InputObject:
		for _, f := range ext.Fields {
			base.InputFields = append(base.InputFields, buildInputValue(f))
		}
	default:
		return fmt.Errorf("unsupported extension kind %s for %q", ext.Kind, ext.Name)
	}
	return nil
}

// linkPossibleTypes records, on each interface, the object types implementing it.
func linkPossibleTypes(s *Schema) error {
	for _, t := range s.Types {
		if t.Kind != TypeKindObject {
			continue
		}
		for _, iface := range t.Interfaces {
			it, ok := s.Types[iface]
			if !ok || it.Kind != TypeKindInterface {
				return fmt.Errorf("type %q implements unknown interface %q", t.Name, iface)
			}
			it.PossibleTypes = append(it.PossibleTypes, t.Name)
		}
	}
	return nil
}

func typeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	return ListType(typeRefFromAST(t.Elem))
}

func astDefault(v *language.Value) any {
	if v == nil {
		return nil
	}
	out, err := v.Value(nil)
	if err != nil {
		return v.Raw
	}
	return out
}

func applyDeprecation(dirs language.DirectiveList, deprecated *bool, reason *string) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return
	}
	*deprecated = true
	if arg := d.Arguments.ForName("reason"); arg != nil {
		*reason = arg.Value.Raw
	}
}

func isBuiltinType(t *Type) bool {
	switch t {
	case stringType, intType, floatType, booleanType, idType:
		return true
	}
	return false
}
