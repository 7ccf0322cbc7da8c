package types

import "fmt"

// NotRepresentableError reports a surface type that has no base-type image.
// It indicates a translator or configuration defect.
type NotRepresentableError struct {
	Type SurfaceType
}

func (e *NotRepresentableError) Error() string {
	return fmt.Sprintf("surface type %s has no base-type image", e.Type)
}

// Project maps a surface type to its base-type image.
func Project(t SurfaceType) (BaseType, error) {
	switch t := t.(type) {
	case SurfaceBool:
		return Bool, nil
	case SurfaceInteger:
		return Integer, nil
	case SurfaceBV:
		return BV(t.Width), nil
	case SurfaceArray:
		return Array(t.Elem, t.Index...), nil
	case SurfaceSymStruct:
		return Struct(t.Fields...), nil
	default:
		return nil, &NotRepresentableError{Type: t}
	}
}

// ProjectAll projects every element of ts, preserving order. The first
// non-representable element aborts the projection.
func ProjectAll(ts []SurfaceType) ([]BaseType, error) {
	out := make([]BaseType, len(ts))
	for i, t := range ts {
		b, err := Project(t)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// Embed maps a base type into the surface universe. Project(Embed(t)) is
// always t.
func Embed(t BaseType) SurfaceType {
	switch t := t.(type) {
	case BoolType:
		return SurfaceBool{}
	case IntegerType:
		return SurfaceInteger{}
	case BVType:
		return SurfaceBV{Width: t.Width}
	case ArrayType:
		return SurfaceArray{Index: append([]BaseType(nil), t.Index...), Elem: t.Elem}
	case StructType:
		return SurfaceSymStruct{Fields: append([]BaseType(nil), t.Fields...)}
	default:
		panic(fmt.Sprintf("types.Embed: unknown base type %T", t))
	}
}

// EmbedAll embeds every element of ts, preserving order.
func EmbedAll(ts []BaseType) []SurfaceType {
	out := make([]SurfaceType, len(ts))
	for i, t := range ts {
		out[i] = Embed(t)
	}
	return out
}

// IsRepresentable reports whether t has a base-type image.
func IsRepresentable(t SurfaceType) bool {
	_, err := Project(t)
	return err == nil
}
