package model

// StoryURL is a story address that passed validation.
type StoryURL struct {
	Raw    string
	Scheme string
	Host   string
	Path   string
}

func (u *StoryURL) String() string {
	return u.Raw
}

// Chapter holds one chapter in reading order. Content is an HTML fragment
// that keeps the formatting of the source page.
type Chapter struct {
	Name    string
	Content string
}

type StoryMetadata struct {
	Title   string
	Author  string
	Summary string
}

// Story is what a Source returns for a single story URL.
type Story struct {
	StoryMetadata
	Chapters []Chapter
}

type Cover struct {
	FileName  string
	MediaType string
	Data      []byte
}
