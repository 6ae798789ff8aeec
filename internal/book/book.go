package book

// Book maps a definition name to its RawDef, by insertion order
// (iteration order matters for deterministic label-set computation and
// for the textual format parse.go reads).
type Book struct {
	order []string
	defs  map[string]*RawDef
}

// RawDef is the book-form (not-yet-addressed) shape of a definition,
// before internal/host assigns it a stable Def address. It mirrors Def
// but Rdex/instructions reference other definitions purely by name.
type RawDef struct {
	Name string
	Lab  uint16
	Net  *RawNet
}

// RawNet is a textual/pre-host net: a tree of RawTree nodes rooted at
// Root, plus a list of additional top-level redexes.
type RawNet struct {
	Root  *RawTree
	Rdex  []RawRedex
}

// RawRedex is a pair of trees that react against each other.
type RawRedex struct {
	A, B *RawTree
}

// RawTree is the textual-book-format net representation: constructor
// trees, references, numbers, variables and the eraser, before any of it
// is compiled into an Instruction stream.
type RawTree struct {
	Kind RawKind
	Lab  uint16      // Ctr label, or Op opcode for RawOp1/RawOp2
	Num  uint64      // RawNum payload
	Name string       // RawRef name, RawVar name
	Sub  [2]*RawTree // children, per Kind
}

// RawKind discriminates the shape of a RawTree node.
type RawKind uint8

const (
	RawVar RawKind = iota
	RawRef
	RawNum
	RawEra
	RawCtr
	RawOp2
	RawOp1
	RawMat
)

// New creates an empty book.
func New() *Book {
	return &Book{defs: make(map[string]*RawDef)}
}

// Insert adds or replaces a definition, preserving first-insertion order.
func (b *Book) Insert(def *RawDef) {
	if _, ok := b.defs[def.Name]; !ok {
		b.order = append(b.order, def.Name)
	}
	b.defs[def.Name] = def
}

// Get looks up a definition by name.
func (b *Book) Get(name string) (*RawDef, bool) {
	d, ok := b.defs[name]
	return d, ok
}

// Names returns definition names in insertion order.
func (b *Book) Names() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Len reports the number of definitions.
func (b *Book) Len() int { return len(b.defs) }
