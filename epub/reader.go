package epub

import (
	"archive/zip"
	"encoding/xml"
	"fanfic-downloader/model"
	"fmt"
	"io"
	"net/url"
	"path"
)

// Book is a package read back from disk.
type Book struct {
	Identifier string
	Title      string
	Creator    string
	Language   string
	Manifest   []model.ManifestItem
	Spine      []string
	TOC        []model.NavEntry

	files   map[string][]byte
	baseDir string
}

type containerDocument struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type dcValue struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr"`
}

type opfDocument struct {
	UniqueIdentifier string `xml:"unique-identifier,attr"`
	Metadata         struct {
		Identifiers []dcValue `xml:"http://purl.org/dc/elements/1.1/ identifier"`
		Titles      []dcValue `xml:"http://purl.org/dc/elements/1.1/ title"`
		Creators    []dcValue `xml:"http://purl.org/dc/elements/1.1/ creator"`
		Languages   []dcValue `xml:"http://purl.org/dc/elements/1.1/ language"`
	} `xml:"metadata"`
	Manifest []model.ManifestItem `xml:"manifest>item"`
	Spine    struct {
		Toc   string            `xml:"toc,attr"`
		Items []model.SpineItem `xml:"itemref"`
	} `xml:"spine"`
}

// Open reads the EPUB file at filePath.
func Open(filePath string) (*Book, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer r.Close()

	book := &Book{files: make(map[string][]byte, len(r.File))}
	for _, f := range r.File {
		data, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		book.files[f.Name] = data
	}

	if mimetype := string(book.files["mimetype"]); mimetype != "application/epub+zip" {
		return nil, fmt.Errorf("not an epub: mimetype %q", mimetype)
	}

	var container containerDocument
	if err := book.decode("META-INF/container.xml", &container); err != nil {
		return nil, err
	}
	if len(container.Rootfiles) == 0 {
		return nil, fmt.Errorf("container.xml lists no rootfile")
	}
	opfPath := container.Rootfiles[0].FullPath
	book.baseDir = path.Dir(opfPath)

	var opf opfDocument
	if err := book.decode(opfPath, &opf); err != nil {
		return nil, err
	}
	for _, id := range opf.Metadata.Identifiers {
		if book.Identifier == "" || id.ID == opf.UniqueIdentifier {
			book.Identifier = id.Value
		}
	}
	book.Title = first(opf.Metadata.Titles)
	book.Creator = first(opf.Metadata.Creators)
	book.Language = first(opf.Metadata.Languages)
	book.Manifest = opf.Manifest
	for _, item := range opf.Spine.Items {
		book.Spine = append(book.Spine, item.IDref)
	}

	if item, ok := book.Item(opf.Spine.Toc); ok {
		var ncx model.Ncx
		if err := book.decode(book.resolve(item.Link), &ncx); err != nil {
			return nil, err
		}
		for _, point := range ncx.NavMap.Points {
			fileName, err := url.PathUnescape(point.Content.Src)
			if err != nil {
				fileName = point.Content.Src
			}
			book.TOC = append(book.TOC, model.NavEntry{ID: point.Id, Title: point.Label, FileName: fileName})
		}
	}

	return book, nil
}

// Item returns the manifest item with the given id.
func (b *Book) Item(id string) (model.ManifestItem, bool) {
	for _, item := range b.Manifest {
		if item.ID == id {
			return item, true
		}
	}
	return model.ManifestItem{}, false
}

// ReadItem returns the raw bytes of the manifest item with the given id.
func (b *Book) ReadItem(id string) ([]byte, error) {
	item, ok := b.Item(id)
	if !ok {
		return nil, fmt.Errorf("no manifest item %q", id)
	}
	data, ok := b.files[b.resolve(item.Link)]
	if !ok {
		return nil, fmt.Errorf("manifest item %q points to missing file %s", id, item.Link)
	}
	return data, nil
}

func (b *Book) resolve(link string) string {
	if unescaped, err := url.PathUnescape(link); err == nil {
		link = unescaped
	}
	return path.Join(b.baseDir, link)
}

func (b *Book) decode(name string, v any) error {
	data, ok := b.files[name]
	if !ok {
		return fmt.Errorf("missing %s", name)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func first(values []dcValue) string {
	if len(values) == 0 {
		return ""
	}
	return values[0].Value
}
