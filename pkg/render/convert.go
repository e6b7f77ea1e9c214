package render

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/matzehuels/cratetree/pkg/errors"
)

// rsvgBinary is the librsvg command line converter.
const rsvgBinary = "rsvg-convert"

// ToPDF converts an SVG document to PDF.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(svg []byte) ([]byte, error) {
	return rsvgConvert(svg, "pdf")
}

// ToPNG converts an SVG document to PNG at the given scale; 2.0 suits
// high-DPI displays.
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

func rsvgConvert(svg []byte, format string, extraArgs ...string) ([]byte, error) {
	bin, err := exec.LookPath(rsvgBinary)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"%s export requires librsvg; install with `brew install librsvg` (macOS) or `apt install librsvg2-bin` (Linux)", format)
	}

	cmd := exec.Command(bin, append([]string{"-f", format}, extraArgs...)...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s: %s", rsvgBinary, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
