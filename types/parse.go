package types

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Parse reads the textual form of a surface type, as produced by String.
//
//	bool  int  bv32  array[bv32]bv8  struct{bv1,bv32}
//	record{bv32,bool}  unit  string  float64  vector{bv8}  intrinsic:Name
func Parse(s string) (SurfaceType, error) {
	p := &typeParser{src: strings.Join(strings.Fields(s), "")}
	t, err := p.parseType()
	if err != nil {
		return nil, fmt.Errorf("parse type %q: %w", s, err)
	}
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("parse type %q: trailing input at offset %d", s, p.pos)
	}
	return t, nil
}

// ParseBase reads the textual form of a base type.
func ParseBase(s string) (BaseType, error) {
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	b, err := Project(t)
	if err != nil {
		return nil, fmt.Errorf("parse base type %q: %w", s, err)
	}
	if err := Validate(b); err != nil {
		return nil, fmt.Errorf("parse base type %q: %w", s, err)
	}
	return b, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) parseType() (SurfaceType, error) {
	word := p.word()
	switch {
	case word == "bool":
		return SurfaceBool{}, nil
	case word == "int":
		return SurfaceInteger{}, nil
	case word == "unit":
		return SurfaceUnit{}, nil
	case word == "string":
		return SurfaceString{}, nil
	case word == "array":
		return p.parseArray()
	case word == "struct":
		fields, err := p.parseBaseList('{', '}')
		if err != nil {
			return nil, err
		}
		return SurfaceSymStruct{Fields: fields}, nil
	case word == "record":
		fields, err := p.parseSurfaceList('{', '}')
		if err != nil {
			return nil, err
		}
		return SurfaceStruct{Fields: fields}, nil
	case word == "vector":
		elems, err := p.parseSurfaceList('{', '}')
		if err != nil {
			return nil, err
		}
		if len(elems) != 1 {
			return nil, fmt.Errorf("vector takes exactly one element type")
		}
		return SurfaceVector{Elem: elems[0]}, nil
	case word == "intrinsic":
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		name := p.word()
		if name == "" {
			return nil, fmt.Errorf("intrinsic type needs a name")
		}
		return SurfaceIntrinsic{Name: name}, nil
	case strings.HasPrefix(word, "bv"):
		w, err := parseWidth(word[2:])
		if err != nil {
			return nil, err
		}
		return SurfaceBV{Width: w}, nil
	case strings.HasPrefix(word, "float"):
		w, err := parseWidth(word[5:])
		if err != nil {
			return nil, err
		}
		return SurfaceFloat{Bits: w}, nil
	case word == "":
		return nil, fmt.Errorf("expected type at offset %d", p.pos)
	default:
		return nil, fmt.Errorf("unknown type %q", word)
	}
}

func (p *typeParser) parseArray() (SurfaceType, error) {
	index, err := p.parseBaseList('[', ']')
	if err != nil {
		return nil, err
	}
	if len(index) == 0 {
		return nil, fmt.Errorf("array type must have at least one index")
	}
	elemSurface, err := p.parseType()
	if err != nil {
		return nil, err
	}
	elem, err := Project(elemSurface)
	if err != nil {
		return nil, err
	}
	return SurfaceArray{Index: index, Elem: elem}, nil
}

func (p *typeParser) parseBaseList(open, close byte) ([]BaseType, error) {
	surface, err := p.parseSurfaceList(open, close)
	if err != nil {
		return nil, err
	}
	return ProjectAll(surface)
}

func (p *typeParser) parseSurfaceList(open, close byte) ([]SurfaceType, error) {
	if err := p.expect(open); err != nil {
		return nil, err
	}
	var out []SurfaceType
	if p.peek() == close {
		p.pos++
		return out, nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, t)

		switch p.peek() {
		case ',':
			p.pos++
		case close:
			p.pos++
			return out, nil
		default:
			return nil, fmt.Errorf("expected ',' or %q at offset %d", close, p.pos)
		}
	}
}

func (p *typeParser) word() string {
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) expect(c byte) error {
	if p.peek() != c {
		return fmt.Errorf("expected %q at offset %d", c, p.pos)
	}
	p.pos++
	return nil
}

func parseWidth(s string) (int, error) {
	w, err := strconv.Atoi(s)
	if err != nil || w <= 0 {
		return 0, fmt.Errorf("invalid width %q", s)
	}
	return w, nil
}
