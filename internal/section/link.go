package section

// Linker renders the reference for a section. The result is opaque to the
// extractor and copied verbatim into Section.Link.
type Linker interface {
	SectionLink(docName, heading string) string
}

// LinkerFunc adapts a function to Linker.
type LinkerFunc func(docName, heading string) string

func (f LinkerFunc) SectionLink(docName, heading string) string { return f(docName, heading) }

// WikiLinker renders wiki-style section links: [[doc#heading|heading]].
type WikiLinker struct{}

func (WikiLinker) SectionLink(docName, heading string) string {
	return "[[" + docName + "#" + heading + "|" + heading + "]]"
}
