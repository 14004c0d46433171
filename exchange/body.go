package exchange

import (
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sthagen/ducaale-xh/input"
)

const (
	JSONContentType = "application/json"
	JSONAccept      = "application/json, */*;q=0.5"
	FormContentType = "application/x-www-form-urlencoded"

	defaultFileContentType = "application/octet-stream"
)

// Body is the request payload. Implementations are *JSONBody, *FormBody,
// *MultipartBody and *RawBody.
type Body interface {
	IsEmpty() bool
	body()
}

type FormBody struct {
	Fields []input.Field
}

type MultipartBody struct {
	Parts []Part
}

// Part is a multipart section holding either Text or an open File.
type Part struct {
	Name        string
	Text        string
	File        io.ReadCloser
	Length      int64
	FileName    string
	ContentType string
}

type RawBody struct {
	Data []byte
}

func (p *Part) IsFile() bool {
	return p.File != nil
}

func (b *JSONBody) IsEmpty() bool { return b.Len() == 0 }
func (b *FormBody) IsEmpty() bool { return len(b.Fields) == 0 }
func (b *RawBody) IsEmpty() bool  { return len(b.Data) == 0 }

// IsEmpty is always false: multipart framing is sent even without parts.
func (b *MultipartBody) IsEmpty() bool { return false }

func (*JSONBody) body()      {}
func (*FormBody) body()      {}
func (*MultipartBody) body() {}
func (*RawBody) body()       {}

// Close closes every file part.
func (b *MultipartBody) Close() error {
	var firstErr error
	for _, part := range b.Parts {
		if part.IsFile() {
			if err := part.File.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// PickMethod returns POST for a non-empty body and GET otherwise.
func PickMethod(body Body) input.Method {
	if body.IsEmpty() {
		return input.Method("GET")
	}
	return input.Method("POST")
}

// BuildBody assembles the body items into the encoding selected by
// requestType. Form requests that carry files become multipart.
func BuildBody(items input.RequestItems, requestType input.RequestType) (Body, error) {
	switch requestType {
	case input.MultipartRequest:
		return buildMultipartBody(items)
	case input.FormRequest:
		if items.HasFormFiles() {
			return buildMultipartBody(items)
		}
		return buildFormBody(items)
	case input.JSONRequest, input.UnspecifiedRequest:
		return buildJSONBody(items)
	default:
		return nil, errors.Errorf("unknown request type: %v", requestType)
	}
}

func buildJSONBody(items input.RequestItems) (*JSONBody, error) {
	body := NewJSONBody()
	for _, item := range items {
		switch item := item.(type) {
		case input.JSONField:
			body.Set(item.Name, item.Value)
		case input.DataField:
			body.Set(item.Name, item.Value)
		case input.FormFile:
			return nil, errors.WithStack(&ConflictError{
				Message: "Sending files is not supported when the request body is in JSON format",
			})
		case input.HTTPHeader, input.HTTPHeaderToUnset, input.URLParam:
		default:
			return nil, errors.Errorf("unknown request item: %T", item)
		}
	}
	return body, nil
}

func buildFormBody(items input.RequestItems) (*FormBody, error) {
	body := &FormBody{}
	for _, item := range items {
		switch item := item.(type) {
		case input.JSONField:
			return nil, errors.WithStack(&ConflictError{Message: "JSON values are not supported in form fields"})
		case input.DataField:
			body.Fields = append(body.Fields, input.Field{Name: item.Name, Value: item.Value})
		case input.FormFile:
			return nil, errors.New("form files must be sent as multipart")
		case input.HTTPHeader, input.HTTPHeaderToUnset, input.URLParam:
		default:
			return nil, errors.Errorf("unknown request item: %T", item)
		}
	}
	return body, nil
}

func buildMultipartBody(items input.RequestItems) (body *MultipartBody, err error) {
	body = &MultipartBody{}
	defer func() {
		if err != nil {
			body.Close()
			body = nil
		}
	}()
	for _, item := range items {
		switch item := item.(type) {
		case input.JSONField:
			return body, errors.WithStack(&ConflictError{Message: "JSON values are not supported in multipart fields"})
		case input.DataField:
			body.Parts = append(body.Parts, Part{Name: item.Name, Text: item.Value})
		case input.FormFile:
			part, err := openFilePart(item)
			if err != nil {
				return body, err
			}
			body.Parts = append(body.Parts, part)
		case input.HTTPHeader, input.HTTPHeaderToUnset, input.URLParam:
		default:
			return body, errors.Errorf("unknown request item: %T", item)
		}
	}
	return body, nil
}

func openFilePart(item input.FormFile) (Part, error) {
	contentType := item.MIMEType
	if contentType != "" {
		if _, _, err := mime.ParseMediaType(contentType); err != nil {
			return Part{}, errors.Wrapf(err, "invalid content type for '%s'", item.Name)
		}
	} else if contentType = mime.TypeByExtension(filepath.Ext(item.Path)); contentType == "" {
		contentType = defaultFileContentType
	}

	file, err := os.Open(item.Path)
	if err != nil {
		return Part{}, errors.WithStack(&FileError{Path: item.Path, Err: err})
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return Part{}, errors.WithStack(&FileError{Path: item.Path, Err: err})
	}
	return Part{
		Name:        item.Name,
		File:        file,
		Length:      info.Size(),
		FileName:    filepath.Base(item.Path),
		ContentType: contentType,
	}, nil
}
