package model

const NavID = "nav"

// ContentItem is one readable XHTML page of the package.
type ContentItem struct {
	ID       string
	FileName string
	Title    string
	Content  string
}

type NavEntry struct {
	ID       string
	Title    string
	FileName string
}

// Document is the in-memory EPUB model. Items[0] is always the summary page.
// Spine starts with NavID followed by every item ID in Items order, and TOC
// lists the same items.
type Document struct {
	ID         string
	UUID       string
	Title      string
	Author     string
	Language   string
	Cover      *Cover
	Stylesheet string
	Items      []ContentItem
	Spine      []string
	TOC        []NavEntry
}
