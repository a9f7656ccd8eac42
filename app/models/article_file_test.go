package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func int64Ptr(n int64) *int64 { return &n }

func TestArticleFileBeforeSaveVariants(t *testing.T) {
	stored := ArticleFile{
		FileType: FILE_TYPE_PDF,
		FilePath: strPtr("articles/1/a.pdf"),
		FileURL:  strPtr("https://cdn.example.org/articles/1/a.pdf"),
		FileSize: int64Ptr(1024),
	}
	assert.NoError(t, stored.BeforeSave(nil))

	video := ArticleFile{
		FileType:       FILE_TYPE_YOUTUBE,
		YoutubeURL:     strPtr("https://youtu.be/dQw4w9WgXcQ"),
		YoutubeEmbedID: strPtr("dQw4w9WgXcQ"),
	}
	assert.NoError(t, video.BeforeSave(nil))

	tests := []struct {
		name string
		file ArticleFile
	}{
		{"stored file without path", ArticleFile{FileType: FILE_TYPE_IMAGE}},
		{"youtube without url", ArticleFile{FileType: FILE_TYPE_YOUTUBE}},
		{
			"youtube carrying storage fields",
			ArticleFile{
				FileType:   FILE_TYPE_YOUTUBE,
				YoutubeURL: strPtr("https://youtu.be/dQw4w9WgXcQ"),
				FilePath:   strPtr("articles/1/a.pdf"),
			},
		},
		{
			"stored file carrying youtube fields",
			ArticleFile{
				FileType:   FILE_TYPE_PDF,
				FilePath:   strPtr("articles/1/a.pdf"),
				YoutubeURL: strPtr("https://youtu.be/dQw4w9WgXcQ"),
			},
		},
		{"unknown type", ArticleFile{FileType: "torrent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.file.BeforeSave(nil))
		})
	}
}
