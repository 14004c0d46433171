package exchange

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// segmentWriter collects the multipart framing in memory and splices file
// readers in between, so file contents are streamed and the total length is
// known up front.
type segmentWriter struct {
	buf      bytes.Buffer
	segments []io.Reader
	length   int64
}

func (w *segmentWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *segmentWriter) cut() {
	if w.buf.Len() == 0 {
		return
	}
	b := make([]byte, w.buf.Len())
	copy(b, w.buf.Bytes())
	w.segments = append(w.segments, bytes.NewReader(b))
	w.length += int64(len(b))
	w.buf.Reset()
}

func (w *segmentWriter) splice(r io.Reader, n int64) {
	w.cut()
	w.segments = append(w.segments, io.LimitReader(r, n))
	w.length += n
}

type multipartReader struct {
	io.Reader
	body *MultipartBody
}

func (r *multipartReader) Close() error {
	return r.body.Close()
}

func encodeMultipartBody(body *MultipartBody) (bodyTuple, error) {
	sw := &segmentWriter{}
	mw := multipart.NewWriter(sw)
	for _, part := range body.Parts {
		header := make(textproto.MIMEHeader)
		disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(part.Name))
		if part.IsFile() {
			disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(part.FileName))
			if part.ContentType != "" {
				header.Set("Content-Type", part.ContentType)
			}
		}
		header.Set("Content-Disposition", disposition)

		w, err := mw.CreatePart(header)
		if err != nil {
			return bodyTuple{}, errors.Wrap(err, "creating multipart section")
		}
		if part.IsFile() {
			sw.splice(part.File, part.Length)
		} else if _, err := io.WriteString(w, part.Text); err != nil {
			return bodyTuple{}, errors.Wrap(err, "writing multipart section")
		}
	}
	if err := mw.Close(); err != nil {
		return bodyTuple{}, errors.Wrap(err, "closing multipart body")
	}
	sw.cut()

	return bodyTuple{
		body:          &multipartReader{Reader: io.MultiReader(sw.segments...), body: body},
		contentLength: sw.length,
		contentType:   mw.FormDataContentType(),
	}, nil
}
