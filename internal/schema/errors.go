package schema

import "fmt"

// Parser errors.

type MissingAttributeError struct {
	Element   string
	Attribute string
}

func (e MissingAttributeError) Error() string {
	return fmt.Sprintf("schema: <%s> missing required attribute %q", e.Element, e.Attribute)
}

type InvalidAttributeError struct {
	Element   string
	Attribute string
	Value     string
}

func (e InvalidAttributeError) Error() string {
	return fmt.Sprintf("schema: <%s> attribute %q has invalid value %q", e.Element, e.Attribute, e.Value)
}

type UnknownTypeError struct {
	TypeName string
	Field    string
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("schema: field %q references unknown type %q", e.Field, e.TypeName)
}

type DuplicateDefinitionError struct {
	Kind string
	Name string
}

func (e DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("schema: duplicate %s definition %q", e.Kind, e.Name)
}

type InvalidStructureError struct {
	Message string
}

func (e InvalidStructureError) Error() string {
	return fmt.Sprintf("schema: invalid structure: %s", e.Message)
}

// Validation errors.

type TypeNotFoundError struct {
	TypeName string
}

func (e TypeNotFoundError) Error() string {
	return fmt.Sprintf("schema: referenced type %q not found", e.TypeName)
}

type MessageNotFoundError struct {
	Name string
}

func (e MessageNotFoundError) Error() string {
	return fmt.Sprintf("schema: message %q not found", e.Name)
}

type InvalidOffsetError struct {
	Context string
	Offset  int
	Length  int
	Bound   int
}

func (e InvalidOffsetError) Error() string {
	return fmt.Sprintf("schema: %s: offset %d + length %d exceeds bound %d", e.Context, e.Offset, e.Length, e.Bound)
}

type BlockLengthMismatchError struct {
	Context  string
	Declared int
	Computed int
}

func (e BlockLengthMismatchError) Error() string {
	return fmt.Sprintf("schema: %s: declared block length %d is smaller than computed %d", e.Context, e.Declared, e.Computed)
}

type CircularReferenceError struct {
	Path []string
}

func (e CircularReferenceError) Error() string {
	return fmt.Sprintf("schema: circular type reference: %v", e.Path)
}

type InvalidEnumValueError struct {
	EnumName string
	Detail   string
}

func (e InvalidEnumValueError) Error() string {
	return fmt.Sprintf("schema: enum %q: %s", e.EnumName, e.Detail)
}

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("schema: %s", e.Message)
}
