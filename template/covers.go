package template

import (
	"embed"
	"fanfic-downloader/model"
	"path"
)

//go:embed covers/*.png
var covers embed.FS

// Cover returns one of the bundled cover images, or nil when name is unknown.
func Cover(name string) *model.Cover {
	data, err := covers.ReadFile(path.Join("covers", name))
	if err != nil {
		return nil
	}
	return &model.Cover{
		FileName:  name,
		MediaType: "image/png",
		Data:      data,
	}
}
