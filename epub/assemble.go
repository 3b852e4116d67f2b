package epub

import (
	"crypto/sha256"
	"encoding/hex"
	"fanfic-downloader/model"
	"fanfic-downloader/template"
	"fanfic-downloader/utils"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

const (
	Language    = "en"
	SummaryID   = "summary"
	summaryFile = "summary.xhtml"
)

// reserved file names of the generated pages
var reservedFiles = []string{summaryFile, navFile, coverPageFile}

// BookID is the hex SHA-256 of "{title} by {author}", the same for every
// download of one story.
func BookID(title, author string) string {
	sum := sha256.Sum256([]byte(bookKey(title, author)))
	return hex.EncodeToString(sum[:])
}

func bookKey(title, author string) string {
	return fmt.Sprintf("%s by %s", title, author)
}

// Assemble builds the document of one story and the file name it is saved
// under. The summary page comes first, chapters follow in the given order.
// Fragments are rendered again as XHTML and text loses runes XML forbids.
func Assemble(meta model.StoryMetadata, chapters []model.Chapter, cover *model.Cover) (*model.Document, string) {
	doc := &model.Document{
		ID:         BookID(meta.Title, meta.Author),
		UUID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte(bookKey(meta.Title, meta.Author))).String(),
		Title:      utils.XMLChars(meta.Title),
		Author:     utils.XMLChars(meta.Author),
		Language:   Language,
		Cover:      cover,
		Stylesheet: template.StyleCSS,
		Items:      make([]model.ContentItem, 0, len(chapters)+1),
	}

	doc.Items = append(doc.Items, model.ContentItem{
		ID:       SummaryID,
		FileName: summaryFile,
		Title:    "Summary",
		Content:  utils.CleanFragment(meta.Summary),
	})

	used := make(map[string]bool, len(chapters)+len(reservedFiles))
	for _, name := range reservedFiles {
		used[name] = true
	}
	for i, chapter := range chapters {
		name := utils.XMLChars(chapter.Name)
		doc.Items = append(doc.Items, model.ContentItem{
			ID:       fmt.Sprintf("chapter_%04d", i+1),
			FileName: chapterFileName(name, used),
			Title:    name,
			Content:  utils.CleanFragment(chapter.Content),
		})
	}

	doc.Spine = make([]string, 0, len(doc.Items)+1)
	doc.Spine = append(doc.Spine, model.NavID)
	doc.TOC = make([]model.NavEntry, 0, len(doc.Items))
	for _, item := range doc.Items {
		doc.Spine = append(doc.Spine, item.ID)
		doc.TOC = append(doc.TOC, model.NavEntry{
			ID:       item.ID,
			Title:    item.Title,
			FileName: item.FileName,
		})
	}

	return doc, utils.StoryFileName(meta.Title, meta.Author)
}

// chapterFileName derives "{name}.xhtml". A name seen before gets "-2",
// "-3", ... appended so every chapter keeps its own file.
func chapterFileName(name string, used map[string]bool) string {
	base := utils.CleanDirName(name)
	if base == "" {
		base = "chapter"
	}
	fileName := base + ".xhtml"
	for n := 2; used[fileName]; n++ {
		fileName = base + "-" + strconv.Itoa(n) + ".xhtml"
	}
	used[fileName] = true
	return fileName
}
