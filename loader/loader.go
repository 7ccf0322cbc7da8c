// Package loader reads architecture files: a location catalog and the
// routines of an architecture, each with its signature and body.
package loader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/isasem/arch"
	"github.com/sarchlab/isasem/sig"
	"github.com/sarchlab/isasem/sim"
	"github.com/sarchlab/isasem/types"
)

// Routine is a routine ready for extraction.
type Routine struct {
	// Signature describes the routine's arguments and results.
	Signature sig.Signature
	// Body is the routine's control-flow body.
	Body *sim.Body
}

// Architecture is the content of an architecture file.
type Architecture struct {
	// Name is the architecture name.
	Name string
	// Catalog holds every global location of the architecture.
	Catalog *sig.Catalog
	// Routines lists the routines in file order.
	Routines []Routine
}

// Routine finds a routine by name.
func (a *Architecture) Routine(name string) (Routine, bool) {
	for _, r := range a.Routines {
		if r.Signature.Name() == name {
			return r, true
		}
	}
	return Routine{}, false
}

// Load reads the architecture file at path.
func Load(path string) (*Architecture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read architecture file: %w", err)
	}
	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Parse decodes an architecture file.
func Parse(data []byte) (*Architecture, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse architecture file: %w", err)
	}
	if f.Arch == "" {
		return nil, fmt.Errorf("architecture file has no arch")
	}

	catalog, err := buildCatalog(&f)
	if err != nil {
		return nil, err
	}

	a := &Architecture{Name: f.Arch, Catalog: catalog}
	seen := make(map[string]bool, len(f.Routines))
	for i := range f.Routines {
		rn := &f.Routines[i]
		if seen[rn.Name] {
			return nil, fmt.Errorf("routine %s declared twice", rn.Name)
		}
		seen[rn.Name] = true

		r, err := buildRoutine(catalog, rn)
		if err != nil {
			return nil, fmt.Errorf("routine %s: %w", rn.Name, err)
		}
		a.Routines = append(a.Routines, r)
	}
	return a, nil
}

func buildCatalog(f *file) (*sig.Catalog, error) {
	if len(f.Globals) == 0 {
		return arch.Lookup(f.Arch)
	}
	locs := make([]sig.GlobalLocation, len(f.Globals))
	for i, g := range f.Globals {
		t, err := types.ParseBase(g.Type)
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", g.Name, err)
		}
		locs[i] = sig.GlobalLocation{Name: g.Name, Type: t}
	}
	return sig.NewCatalog(f.Arch, locs...)
}

func buildRoutine(catalog *sig.Catalog, rn *routineNode) (Routine, error) {
	args := make([]sig.Arg, len(rn.Args))
	params := make([]types.SurfaceType, len(rn.Args))
	for i, a := range rn.Args {
		t, err := types.Parse(a.Type)
		if err != nil {
			return Routine{}, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		args[i] = sig.Arg{Name: a.Name, Type: t}
		params[i] = t
	}

	kind := rn.Kind
	if kind == "" {
		kind = sig.KindProcedure.String()
		if rn.Returns != "" {
			kind = sig.KindFunction.String()
		}
	}

	var (
		s          sig.Signature
		defaultRet types.SurfaceType
	)
	switch kind {
	case sig.KindFunction.String():
		if len(rn.Footprint) > 0 {
			return Routine{}, fmt.Errorf("function has a footprint")
		}
		ret, err := types.ParseBase(rn.Returns)
		if err != nil {
			return Routine{}, fmt.Errorf("return type: %w", err)
		}
		fs, err := sig.NewFunctionSignature(rn.Name, args, ret)
		if err != nil {
			return Routine{}, err
		}
		s, defaultRet = fs, types.Embed(ret)

	case sig.KindProcedure.String():
		if rn.Returns != "" {
			return Routine{}, fmt.Errorf("procedure has a return type")
		}
		footprint, err := buildFootprint(catalog, rn.Footprint)
		if err != nil {
			return Routine{}, err
		}
		ps, err := sig.NewProcedureSignature(rn.Name, args, footprint)
		if err != nil {
			return Routine{}, err
		}
		fields := make([]types.SurfaceType, len(footprint))
		for i, l := range footprint {
			fields[i] = types.Embed(l.Type)
		}
		s, defaultRet = ps, types.SurfaceStruct{Fields: fields}

	default:
		return Routine{}, fmt.Errorf("unknown routine kind %q", kind)
	}

	body, err := buildBody(rn.Name, params, defaultRet, &rn.Body)
	if err != nil {
		return Routine{}, err
	}
	return Routine{Signature: s, Body: body}, nil
}

func buildFootprint(catalog *sig.Catalog, names []string) ([]sig.GlobalLocation, error) {
	out := make([]sig.GlobalLocation, len(names))
	for i, n := range names {
		if name, typ, ok := strings.Cut(n, ":"); ok {
			t, err := types.ParseBase(typ)
			if err != nil {
				return nil, fmt.Errorf("footprint %s: %w", name, err)
			}
			out[i] = sig.GlobalLocation{Name: name, Type: t}
			continue
		}
		loc, ok := catalog.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("footprint %s is not in the catalog and has no type", n)
		}
		out[i] = loc
	}
	return out, nil
}
