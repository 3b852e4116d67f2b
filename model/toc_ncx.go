package model

import "encoding/xml"

// Ncx is the EPUB2 navigation document kept for older readers.
type Ncx struct {
	XMLName  xml.Name   `xml:"ncx"`
	Xmlns    string     `xml:"xmlns,attr"`
	Version  string     `xml:"version,attr"`
	Head     TocNCXHead `xml:"head"`
	DocTitle string     `xml:"docTitle>text"`
	NavMap   NavMap     `xml:"navMap"`
}

func (n *Ncx) Marshal() (string, error) {
	xmlBytes, err := xml.MarshalIndent(n, "", "  ")
	if err != nil {
		return "", err
	}
	return string(xmlBytes), nil
}

type TocNCXHead struct {
	Meta []TocNCXHeadMeta `xml:"meta"`
}

type TocNCXHeadMeta struct {
	Content string `xml:"content,attr"`
	Name    string `xml:"name,attr"`
}

type NavPoint struct {
	Id        string          `xml:"id,attr"`
	PlayOrder int             `xml:"playOrder,attr"`
	Label     string          `xml:"navLabel>text"`
	Content   NavPointContent `xml:"content"`
	NavPoints []*NavPoint     `xml:"navPoint"`
}

type NavPointContent struct {
	Src string `xml:"src,attr"`
}

type NavMap struct {
	Points []*NavPoint `xml:"navPoint"`
}
