package tagset

// Built-in option tables, one per namespace. Categorizations mirror the
// tag lists golang.org/x/net/html's tokenizer/renderer consult (and that
// the teacher's chtml/html fork switches on by DataAtom): void elements
// per the HTML5 "void elements" list, RCDATA/RAWTEXT per the "contentModel
// overrides" the tree builder installs on the tokenizer at start-tag
// insertion, and block/inline per common CSS UA-stylesheet defaults (used
// only for pretty-printing decisions, not conformance).

var builtinHTML = map[string]Option{
	"area": Void, "base": Void, "br": Void, "col": Void, "embed": Void,
	"hr": Void, "img": Void, "input": Void | FormSubmittable, "link": Void,
	"meta": Void, "param": Void, "source": Void, "track": Void, "wbr": Void,

	"title": RcData, "textarea": RcData | FormSubmittable,

	"style": Data, "script": Data, "xmp": Data, "iframe": Data,
	"noembed": Data, "noframes": Data, "plaintext": Data,

	"address": Block, "article": Block, "aside": Block, "blockquote": Block,
	"details": Block, "dialog": Block, "dd": Block, "div": Block, "dl": Block,
	"dt": Block, "fieldset": Block, "figcaption": Block, "figure": Block,
	"footer": Block, "form": Block | FormSubmittable, "h1": Block, "h2": Block,
	"h3": Block, "h4": Block, "h5": Block, "h6": Block, "header": Block,
	"hgroup": Block, "li": Block, "main": Block, "nav": Block,
	"ol": Block, "p": Block, "pre": Block | PreserveWhitespace, "section": Block,
	"table": Block, "ul": Block, "body": Block, "html": Block, "head": Block,
	"tr": Block, "td": Block, "th": Block, "thead": Block, "tbody": Block,
	"tfoot": Block, "caption": Block, "colgroup": Block, "option": Block,
	"optgroup": Block, "select": Block | FormSubmittable, "button": FormSubmittable,

	"a": InlineContainer, "abbr": InlineContainer, "b": InlineContainer,
	"bdi": InlineContainer, "bdo": InlineContainer, "cite": InlineContainer,
	"code": InlineContainer, "data": InlineContainer, "dfn": InlineContainer,
	"em": InlineContainer, "i": InlineContainer, "kbd": InlineContainer,
	"mark": InlineContainer, "q": InlineContainer, "rp": InlineContainer,
	"rt": InlineContainer, "ruby": InlineContainer, "s": InlineContainer,
	"samp": InlineContainer, "small": InlineContainer, "span": InlineContainer,
	"strong": InlineContainer, "sub": InlineContainer, "sup": InlineContainer,
	"time": InlineContainer, "u": InlineContainer, "var": InlineContainer,

	"output": FormSubmittable,
}

var builtinSVG = map[string]Option{
	"svg": Block, "g": 0, "path": Void, "rect": Void, "circle": Void,
	"ellipse": Void, "line": Void, "polyline": Void, "polygon": Void,
	"use": Void, "foreignObject": Block, "title": RcData, "script": Data,
	"style": Data,
}

var builtinMathML = map[string]Option{
	"math": Block, "mi": 0, "mo": 0, "mn": 0, "ms": 0, "mtext": 0,
	"annotation-xml": Block, "malignmark": Void, "mglyph": Void,
}
