package gateway

import (
	"io"
	"net/http"
	"net/url"
)

// Request описывает исходящий запрос до применения перехватчиков.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	// Body кодируется в JSON. Для слияния branch_id он приводится к объекту.
	Body any
	// Multipart используется вместо Body для загрузки файлов.
	Multipart *Multipart
}

// Multipart — тело multipart/form-data, собранное вызывающим через
// mime/multipart.Writer. ContentType берётся из Writer.FormDataContentType()
// и содержит boundary, поэтому клиент его не переписывает.
type Multipart struct {
	Body        io.Reader
	ContentType string
}

// IsWrite сообщает, что метод передаёт данные в теле запроса.
func (r *Request) IsWrite() bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func (r *Request) query() url.Values {
	if r.Query == nil {
		r.Query = url.Values{}
	}
	return r.Query
}

func (r *Request) header() http.Header {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	return r.Header
}
