package archive

import (
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"bindery/internal/services"
)

// decodeImage decodes one page payload. The registered formats cover every
// extension isImageEntry accepts.
func decodeImage(name string, r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "extract", "decode page", name, err)
	}
	return img, nil
}

func wrapOpenErr(op, detail string, err error) error {
	return services.Wrap(services.ErrValidation, "extract", op, detail, err)
}
