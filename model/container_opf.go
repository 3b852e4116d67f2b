package model

import "encoding/xml"

// Package is the root <package> element of content.opf.
type Package struct {
	XMLName          xml.Name           `xml:"package"`
	Xmlns            string             `xml:"xmlns,attr"`
	Version          string             `xml:"version,attr"`
	UniqueIdentifier string             `xml:"unique-identifier,attr"`
	Lang             string             `xml:"xml:lang,attr,omitempty"`
	Metadata         DublinCoreMetadata `xml:"metadata"`
	Manifest         Manifest           `xml:"manifest"`
	Spine            Spine              `xml:"spine"`
	Guide            *Guide             `xml:"guide,omitempty"`
}

func (p *Package) Marshal() (string, error) {
	xmlBytes, err := xml.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	return string(xmlBytes), nil
}

type DublinCoreMetadata struct {
	XMLName  xml.Name `xml:"metadata"`
	XmlnsDC  string   `xml:"xmlns:dc,attr"`
	XmlnsOPF string   `xml:"xmlns:opf,attr"`

	// required
	Titles      []DCTitle      `xml:"dc:title"`
	Identifiers []DCIdentifier `xml:"dc:identifier"`
	Languages   []DCLanguage   `xml:"dc:language"`

	Creators []DCCreator `xml:"dc:creator"`

	// EPUB3 <meta> refinements
	Metas []DublinCoreMeta `xml:"meta"`
}

type DCTitle struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr,omitempty"`
}

type DCIdentifier struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr,omitempty"`
}

type DCLanguage struct {
	Value string `xml:",chardata"`
}

type DCCreator struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr,omitempty"`
}

type DublinCoreMeta struct {
	Name     string `xml:"name,attr,omitempty"`
	Content  string `xml:"content,attr,omitempty"`
	Value    string `xml:",chardata"`
	Property string `xml:"property,attr,omitempty"`
	Refines  string `xml:"refines,attr,omitempty"`
}

type Manifest struct {
	Items []ManifestItem `xml:"item"`
}

type ManifestItem struct {
	ID         string `xml:"id,attr"`
	Link       string `xml:"href,attr"`
	Media      string `xml:"media-type,attr,omitempty"`
	Properties string `xml:"properties,attr,omitempty"`
}

type Spine struct {
	Toc   string      `xml:"toc,attr,omitempty"`
	Items []SpineItem `xml:"itemref"`
}

type SpineItem struct {
	IDref  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr,omitempty"`
}

type Guide struct {
	Items []GuideItem `xml:"reference"`
}

type GuideItem struct {
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
	Link  string `xml:"href,attr"`
}
