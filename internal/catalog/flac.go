package catalog

import (
	"errors"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

// errNoPicture is returned when a file carries no embedded picture.
var errNoPicture = errors.New("no embedded picture")

// readFLACTags reads Vorbis comments straight from the metadata blocks.
func readFLACTags(path string) (*tags, error) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return nil, err
	}
	for _, meta := range f.Meta {
		if meta.Type != goflac.VorbisComment {
			continue
		}
		cmts, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			return nil, err
		}
		artist := firstComment(cmts, flacvorbis.FIELD_ARTIST)
		if artist == "" {
			artist = firstComment(cmts, "ALBUMARTIST")
		}
		return &tags{
			Title:  firstComment(cmts, flacvorbis.FIELD_TITLE),
			Artist: artist,
			Album:  firstComment(cmts, flacvorbis.FIELD_ALBUM),
		}, nil
	}
	return &tags{}, nil
}

func firstComment(cmts *flacvorbis.MetaDataBlockVorbisComment, key string) string {
	values, err := cmts.Get(key)
	if err != nil || len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// readFLACPicture returns the front cover, or the first picture block when
// none is marked as the front cover.
func readFLACPicture(path string) ([]byte, string, error) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return nil, "", err
	}
	var found *flacpicture.MetadataBlockPicture
	for _, meta := range f.Meta {
		if meta.Type != goflac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*meta)
		if err != nil || len(pic.ImageData) == 0 {
			continue
		}
		if pic.PictureType == flacpicture.PictureTypeFrontCover {
			found = pic
			break
		}
		if found == nil {
			found = pic
		}
	}
	if found == nil {
		return nil, "", errNoPicture
	}
	return found.ImageData, mimeExt(found.MIME), nil
}

func mimeExt(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	}
	return "jpg"
}
