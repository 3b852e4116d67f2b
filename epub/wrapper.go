package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fanfic-downloader/model"
	"fanfic-downloader/template"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/a-h/templ"
	"go.uber.org/zap"
)

const (
	contentDir    = "EPUB"
	opfFile       = "content.opf"
	ncxFile       = "toc.ncx"
	navFile       = "nav.xhtml"
	coverPageFile = "cover.xhtml"
	coverImageID  = "cover-image"
	bookIDRef     = "book-id"
)

// ValidateDestination fails with ErrInvalidDestination unless dir is an
// existing directory.
func ValidateDestination(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return model.Errorf(model.ErrInvalidDestination, "invalid destination directory: %s", dir)
	}
	return nil
}

// Write packs doc into a scratch file and then moves it to
// destDir/filename. The destination path never holds a partial file.
func Write(ctx context.Context, doc *model.Document, filename, destDir string, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Writing ebook", zap.String("name", filename), zap.String("destination", destDir))

	scratchDir, err := os.MkdirTemp("", "fanfic-downloader-*")
	if err != nil {
		return "", model.Errorf(model.ErrWriteFailed, "failed to create scratch directory: %v", err)
	}
	defer os.RemoveAll(scratchDir)

	scratchPath := filepath.Join(scratchDir, filename)
	if err := PackEpub(ctx, doc, scratchPath); err != nil {
		return "", model.Errorf(model.ErrWriteFailed, "failed to pack epub %s: %v", filename, err)
	}

	destPath := filepath.Join(destDir, filename)
	if err := moveFile(scratchPath, destPath); err != nil {
		return "", model.Errorf(model.ErrWriteFailed, "failed to move epub to %s: %v", destPath, err)
	}
	return destPath, nil
}

// PackEpub serializes doc as an EPUB file at savePath.
func PackEpub(ctx context.Context, doc *model.Document, savePath string) (err error) {
	zipFile, err := os.Create(savePath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := zipFile.Close(); err == nil {
			err = cerr
		}
	}()

	zipWriter := zip.NewWriter(zipFile)
	if err := writeEntries(ctx, zipWriter, doc); err != nil {
		zipWriter.Close()
		return err
	}
	return zipWriter.Close()
}

func writeEntries(ctx context.Context, zipWriter *zip.Writer, doc *model.Document) error {
	// mimetype must be the first entry and stored uncompressed
	err := addStringToZip(zipWriter, "mimetype", "application/epub+zip", zip.Store)
	if err != nil {
		return err
	}

	err = addComponentToZip(ctx, zipWriter, "META-INF/container.xml", template.ContainerXML(path.Join(contentDir, opfFile)))
	if err != nil {
		return err
	}

	err = addComponentToZip(ctx, zipWriter, path.Join(contentDir, opfFile), template.ContentOPF(buildPackage(doc)))
	if err != nil {
		return err
	}

	err = addComponentToZip(ctx, zipWriter, path.Join(contentDir, ncxFile), template.TocNCX(buildNcx(doc)))
	if err != nil {
		return err
	}

	entries := make([]model.NavEntry, 0, len(doc.TOC))
	for _, entry := range doc.TOC {
		entry.FileName = href(entry.FileName)
		entries = append(entries, entry)
	}
	err = addComponentToZip(ctx, zipWriter, path.Join(contentDir, navFile), template.NavXHTML(doc.Language, doc.Title, entries))
	if err != nil {
		return err
	}

	if doc.Cover != nil {
		err = addComponentToZip(ctx, zipWriter, path.Join(contentDir, coverPageFile), template.CoverXHTML(doc.Language, href(doc.Cover.FileName)))
		if err != nil {
			return err
		}
		err = addBytesToZip(zipWriter, path.Join(contentDir, doc.Cover.FileName), doc.Cover.Data, zip.Store)
		if err != nil {
			return err
		}
	}

	err = addStringToZip(zipWriter, path.Join(contentDir, template.StylePath), doc.Stylesheet, zip.Deflate)
	if err != nil {
		return err
	}

	for _, item := range doc.Items {
		page := template.ContentXHTML(doc.Language, item.Title, template.StylePath, item.Content)
		if item.ID == SummaryID {
			page = template.SummaryXHTML(doc.Language, item.Title, template.StylePath, item.Content)
		}
		if err := addComponentToZip(ctx, zipWriter, path.Join(contentDir, item.FileName), page); err != nil {
			return err
		}
	}
	return nil
}

func buildPackage(doc *model.Document) *model.Package {
	dc := model.DublinCoreMetadata{
		XmlnsDC:  "http://purl.org/dc/elements/1.1/",
		XmlnsOPF: "http://www.idpf.org/2007/opf",
		Titles:   []model.DCTitle{{Value: doc.Title, ID: "title"}},
		Identifiers: []model.DCIdentifier{
			{Value: doc.ID, ID: bookIDRef},
			{Value: "urn:uuid:" + doc.UUID, ID: "uuid-id"},
		},
		Languages: []model.DCLanguage{{Value: doc.Language}},
		Creators:  []model.DCCreator{{Value: doc.Author, ID: "creator"}},
		Metas: []model.DublinCoreMeta{
			{Property: "dcterms:modified", Value: time.Now().UTC().Format("2006-01-02T15:04:05Z")},
			{Property: "role", Refines: "#creator", Value: "aut"},
		},
	}

	manifest := model.Manifest{Items: make([]model.ManifestItem, 0, len(doc.Items)+5)}
	manifest.Items = append(manifest.Items,
		model.ManifestItem{ID: ncxFileID, Link: ncxFile, Media: "application/x-dtbncx+xml"},
		model.ManifestItem{ID: model.NavID, Link: navFile, Media: "application/xhtml+xml", Properties: "nav"},
		model.ManifestItem{ID: "style_nav", Link: template.StylePath, Media: "text/css"},
	)
	var guide *model.Guide
	if doc.Cover != nil {
		dc.Metas = append(dc.Metas, model.DublinCoreMeta{Name: "cover", Content: coverImageID})
		manifest.Items = append(manifest.Items,
			model.ManifestItem{ID: coverImageID, Link: href(doc.Cover.FileName), Media: doc.Cover.MediaType, Properties: "cover-image"},
			model.ManifestItem{ID: "cover", Link: coverPageFile, Media: "application/xhtml+xml"},
		)
		guide = &model.Guide{Items: []model.GuideItem{{Title: "Cover", Type: "cover", Link: coverPageFile}}}
	}
	for _, item := range doc.Items {
		manifest.Items = append(manifest.Items, model.ManifestItem{
			ID:    item.ID,
			Link:  href(item.FileName),
			Media: "application/xhtml+xml",
		})
	}

	spine := model.Spine{Toc: ncxFileID, Items: make([]model.SpineItem, 0, len(doc.Spine))}
	for _, idref := range doc.Spine {
		spine.Items = append(spine.Items, model.SpineItem{IDref: idref})
	}

	return &model.Package{
		Xmlns:            "http://www.idpf.org/2007/opf",
		Version:          "3.0",
		UniqueIdentifier: bookIDRef,
		Lang:             doc.Language,
		Metadata:         dc,
		Manifest:         manifest,
		Spine:            spine,
		Guide:            guide,
	}
}

const ncxFileID = "ncx"

func buildNcx(doc *model.Document) *model.Ncx {
	ncx := &model.Ncx{
		Xmlns:    "http://www.daisy.org/z3986/2005/ncx/",
		Version:  "2005-1",
		DocTitle: doc.Title,
		Head: model.TocNCXHead{Meta: []model.TocNCXHeadMeta{
			{Name: "dtb:uid", Content: doc.ID},
			{Name: "dtb:depth", Content: "1"},
			{Name: "dtb:totalPageCount", Content: "0"},
			{Name: "dtb:maxPageNumber", Content: "0"},
		}},
	}
	for i, entry := range doc.TOC {
		ncx.NavMap.Points = append(ncx.NavMap.Points, &model.NavPoint{
			Id:        entry.ID,
			PlayOrder: i + 1,
			Label:     entry.Title,
			Content:   model.NavPointContent{Src: href(entry.FileName)},
		})
	}
	return ncx
}

// href escapes a file name for use in package references.
func href(fileName string) string {
	return (&url.URL{Path: fileName}).EscapedPath()
}

func addComponentToZip(ctx context.Context, zipWriter *zip.Writer, relPath string, component templ.Component) error {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return fmt.Errorf("failed to render %s: %w", relPath, err)
	}
	return addBytesToZip(zipWriter, relPath, buf.Bytes(), zip.Deflate)
}

func addStringToZip(zipWriter *zip.Writer, relPath, content string, method uint16) error {
	return addBytesToZip(zipWriter, relPath, []byte(content), method)
}

func addBytesToZip(zipWriter *zip.Writer, relPath string, content []byte, method uint16) error {
	header := &zip.FileHeader{
		Name:   relPath,
		Method: method,
	}
	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = writer.Write(content)
	return err
}

// moveFile renames src to dst. When they are on different devices the file
// is copied next to dst first and renamed from there.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
