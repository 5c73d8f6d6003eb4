// Package token defines the reusable Token variants the tokenizer (C2)
// emits, and the named-entity resolver (C3) it calls into for character
// references.
package token

// Type discriminates which of Token's variant pointers is populated.
type Type uint8

const (
	// ErrorTok marks a sentinel "no token"/EOF condition. It carries no
	// payload; Tokenizer.Err reports why.
	ErrorTok Type = iota
	DoctypeTok
	StartTagTok
	EndTagTok
	CommentTok
	CharacterTok
	XmlDeclTok
)

func (t Type) String() string {
	switch t {
	case DoctypeTok:
		return "Doctype"
	case StartTagTok:
		return "StartTag"
	case EndTagTok:
		return "EndTag"
	case CommentTok:
		return "Comment"
	case CharacterTok:
		return "Character"
	case XmlDeclTok:
		return "XmlDecl"
	default:
		return "Error"
	}
}

// Attribute is one name/value pair from a start tag or XML declaration, in
// source order.
type Attribute struct {
	Key, Val string
	// Namespace is left empty by the tokenizer, and neither tree builder
	// sets it; xmlparse records prefixed-attribute namespaces on the element
	// instead (see xmlparse.AttrNamespace).
	Namespace string

	NameStart, NameEnd int
	ValStart, ValEnd   int
}

// Doctype is the reusable Doctype token slot.
type Doctype struct {
	Name, PublicID, SystemID string
	// PubSysKey is the keyword literal as written ("PUBLIC" or "SYSTEM"),
	// preserved for round-tripping; empty if neither was present.
	PubSysKey   string
	ForceQuirks bool
	StartPos    int
	EndPos      int
}

func (d *Doctype) reset() {
	d.Name, d.PublicID, d.SystemID, d.PubSysKey = "", "", "", ""
	d.ForceQuirks = false
	d.StartPos, d.EndPos = 0, 0
}

// StartTagType is the reusable StartTag token slot.
type StartTagType struct {
	TagName, NormalName string
	Attr                []Attribute
	SelfClosing         bool
	StartPos, EndPos    int
}

func (s *StartTagType) reset() {
	s.TagName, s.NormalName = "", ""
	s.Attr = s.Attr[:0]
	s.SelfClosing = false
	s.StartPos, s.EndPos = 0, 0
}

// AddAttr appends a new attribute, unless its key duplicates one already
// present (first-seen wins per spec, including its source range).
func (s *StartTagType) AddAttr(a Attribute) {
	for i := range s.Attr {
		if s.Attr[i].Key == a.Key {
			return
		}
	}
	s.Attr = append(s.Attr, a)
}

// EndTagType is the reusable EndTag token slot.
type EndTagType struct {
	TagName, NormalName string
	StartPos, EndPos    int
}

func (e *EndTagType) reset() {
	e.TagName, e.NormalName = "", ""
	e.StartPos, e.EndPos = 0, 0
}

// CommentType is the reusable Comment token slot.
type CommentType struct {
	Data             string
	Bogus            bool
	StartPos, EndPos int
}

func (c *CommentType) reset() {
	c.Data = ""
	c.Bogus = false
	c.StartPos, c.EndPos = 0, 0
}

// CharacterType is the reusable Character token slot. Consecutive character
// emissions from the tokenizer's perspective are coalesced by the caller
// (the Data builder accumulates across Append calls); it's only released
// (cleared) when a non-character token is about to be emitted.
type CharacterType struct {
	Data             string
	IsCData          bool
	StartPos, EndPos int
}

func (c *CharacterType) reset() {
	c.Data = ""
	c.IsCData = false
	c.StartPos, c.EndPos = 0, 0
}

func (c *CharacterType) Append(s string) { c.Data += s }

// XmlDeclType is the reusable XmlDecl token slot, covering both `<!...>`
// declarations and `<?...?>` processing instructions in XML mode.
type XmlDeclType struct {
	Name             string
	Attr             []Attribute
	IsDeclaration    bool
	StartPos, EndPos int
}

func (x *XmlDeclType) reset() {
	x.Name = ""
	x.Attr = x.Attr[:0]
	x.IsDeclaration = false
	x.StartPos, x.EndPos = 0, 0
}

// Token is the tagged value a consumer sees after a Next() call. Its
// variant pointers alias the Tokenizer's own reusable slots and must not be
// retained past the next Next() call.
type Token struct {
	Type      Type
	Doctype   *Doctype
	StartTag  *StartTagType
	EndTag    *EndTagType
	Comment   *CommentType
	Character *CharacterType
	XmlDecl   *XmlDeclType
}

// StartPos and EndPos return the active variant's source range, or (0, 0)
// for ErrorTok.
func (t Token) StartPos() int {
	switch t.Type {
	case DoctypeTok:
		return t.Doctype.StartPos
	case StartTagTok:
		return t.StartTag.StartPos
	case EndTagTok:
		return t.EndTag.StartPos
	case CommentTok:
		return t.Comment.StartPos
	case CharacterTok:
		return t.Character.StartPos
	case XmlDeclTok:
		return t.XmlDecl.StartPos
	default:
		return 0
	}
}

func (t Token) EndPos() int {
	switch t.Type {
	case DoctypeTok:
		return t.Doctype.EndPos
	case StartTagTok:
		return t.StartTag.EndPos
	case EndTagTok:
		return t.EndTag.EndPos
	case CommentTok:
		return t.Comment.EndPos
	case CharacterTok:
		return t.Character.EndPos
	case XmlDeclTok:
		return t.XmlDecl.EndPos
	default:
		return 0
	}
}
