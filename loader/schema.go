package loader

// file is the top level of an architecture file.
type file struct {
	// Arch names the architecture.
	Arch string `yaml:"arch"`

	// Globals declares the location catalog. When omitted, the built-in
	// catalog of Arch is used.
	Globals []globalNode `yaml:"globals,omitempty"`

	// Routines lists the routines to extract.
	Routines []routineNode `yaml:"routines"`
}

type globalNode struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type argNode struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type routineNode struct {
	Name string `yaml:"name"`

	// Kind is "function" or "procedure". When omitted, a routine with a
	// return type is a function.
	Kind string `yaml:"kind,omitempty"`

	Args []argNode `yaml:"args,omitempty"`

	// Returns is the base result type of a function.
	Returns string `yaml:"returns,omitempty"`

	// Footprint lists the locations a procedure assigns, as "name" for a
	// catalog location or "name:type" for any other.
	Footprint []string `yaml:"footprint,omitempty"`

	Body bodyNode `yaml:"body"`
}

type bodyNode struct {
	// Return is the surface result type. It defaults to the embedding of
	// the function's result or to the record of the footprint's types.
	Return string      `yaml:"return,omitempty"`
	Blocks []blockNode `yaml:"blocks"`
}

type blockNode struct {
	Label  string      `yaml:"label"`
	Stmts  []stmtNode  `yaml:"stmts,omitempty"`
	Jump   string      `yaml:"jump,omitempty"`
	Branch *branchNode `yaml:"branch,omitempty"`
	Return *termNode   `yaml:"return,omitempty"`
	Fail   *string     `yaml:"fail,omitempty"`
}

type branchNode struct {
	Cond termNode `yaml:"cond"`
	Then string   `yaml:"then"`
	Else string   `yaml:"else"`
}

type stmtNode struct {
	Set     string    `yaml:"set,omitempty"`
	Write   string    `yaml:"write,omitempty"`
	Assert  *termNode `yaml:"assert,omitempty"`
	Value   *termNode `yaml:"value,omitempty"`
	Message string    `yaml:"message,omitempty"`
}

// termNode is one of: {arg}, {local}, {global}, {bv, width}, {int},
// {bool}, {op, args, indices}, {struct}, {field, of} or
// {call, args, returns}.
type termNode struct {
	Arg     *int       `yaml:"arg,omitempty"`
	Local   string     `yaml:"local,omitempty"`
	Global  string     `yaml:"global,omitempty"`
	BV      *string    `yaml:"bv,omitempty"`
	Width   int        `yaml:"width,omitempty"`
	Int     *string    `yaml:"int,omitempty"`
	Bool    *bool      `yaml:"bool,omitempty"`
	Op      string     `yaml:"op,omitempty"`
	Args    []termNode `yaml:"args,omitempty"`
	Indices []int      `yaml:"indices,omitempty"`
	Struct  []termNode `yaml:"struct,omitempty"`
	Field   *int       `yaml:"field,omitempty"`
	Of      *termNode  `yaml:"of,omitempty"`
	Call    string     `yaml:"call,omitempty"`
	Returns string     `yaml:"returns,omitempty"`
}
