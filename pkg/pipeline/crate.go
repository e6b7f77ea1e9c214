package pipeline

import (
	"bytes"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/httputil"
	"github.com/matzehuels/cratetree/pkg/jsonld"
)

// zipMagic starts the local file header of every zip archive.
var zipMagic = []byte("PK\x03\x04")

// unpackCrate returns the metadata document of a zipped RO-Crate. Data that
// is not a zip archive is returned unchanged. When the archive nests the
// crate in a directory, the shallowest metadata file wins.
func unpackCrate(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, zipMagic) {
		return data, nil
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open crate archive")
	}

	var meta *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch path.Base(f.Name) {
		case jsonld.DescriptorID, jsonld.LegacyDescriptorID:
		default:
			continue
		}
		if meta == nil || strings.Count(f.Name, "/") < strings.Count(meta.Name, "/") {
			meta = f
		}
	}
	if meta == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "crate archive holds no %s", jsonld.DescriptorID)
	}

	rc, err := meta.Open()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", meta.Name)
	}
	defer rc.Close()

	out, err := io.ReadAll(io.LimitReader(rc, httputil.MaxDocumentSize+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", meta.Name)
	}
	if len(out) > httputil.MaxDocumentSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s exceeds %d bytes", meta.Name, httputil.MaxDocumentSize)
	}
	return out, nil
}
