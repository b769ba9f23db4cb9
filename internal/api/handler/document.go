package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/ingestion/connectors"
	"github.com/maraichr/ontograph/pkg/apierr"
)

// documentRequest is the JSON form of a submitted document.
type documentRequest struct {
	Text     string `json:"text"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	limitsRequest
}

// readDocument accepts either a JSON body or a multipart form with a "file"
// field. Limits come from the JSON body or from form values.
func readDocument(w http.ResponseWriter, r *http.Request) (ingestion.Document, limitsRequest, *apierr.Error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		return readMultipart(r)
	}

	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isTooLarge(err) {
			return ingestion.Document{}, limitsRequest{}, apierr.DocumentTooLarge(maxDocumentBytes)
		}
		return ingestion.Document{}, limitsRequest{}, apierr.InvalidRequestBody()
	}
	if strings.TrimSpace(req.Text) == "" {
		return ingestion.Document{}, limitsRequest{}, apierr.DocumentRequired()
	}
	mt := req.MimeType
	if mt == "" {
		mt = "text/plain"
	}
	doc, e := newDocument(req.Name, mt, []byte(req.Text))
	if e != nil {
		return ingestion.Document{}, limitsRequest{}, e
	}
	if e := validateLimits(req.limitsRequest); e != nil {
		return ingestion.Document{}, limitsRequest{}, e
	}
	return doc, req.limitsRequest, nil
}

func readMultipart(r *http.Request) (ingestion.Document, limitsRequest, *apierr.Error) {
	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		if isTooLarge(err) {
			return ingestion.Document{}, limitsRequest{}, apierr.DocumentTooLarge(maxDocumentBytes)
		}
		return ingestion.Document{}, limitsRequest{}, apierr.InvalidRequestBody()
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return ingestion.Document{}, limitsRequest{}, apierr.DocumentRequired()
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return ingestion.Document{}, limitsRequest{}, apierr.InvalidRequestBody()
	}
	if len(data) == 0 {
		return ingestion.Document{}, limitsRequest{}, apierr.DocumentRequired()
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	mt := r.FormValue("mime_type")
	if mt == "" {
		mt = header.Header.Get("Content-Type")
	}
	if mt == "" || mt == "application/octet-stream" {
		mt, _ = connectors.MimeType(header.Filename)
	}

	doc, e := newDocument(name, mt, data)
	if e != nil {
		return ingestion.Document{}, limitsRequest{}, e
	}
	limits, e := formLimits(r)
	if e != nil {
		return ingestion.Document{}, limitsRequest{}, e
	}
	return doc, limits, nil
}

func newDocument(name, mimeType string, data []byte) (ingestion.Document, *apierr.Error) {
	if e := validateName(name); e != nil {
		return ingestion.Document{}, e
	}
	mt, e := normalizeMimeType(mimeType)
	if e != nil {
		return ingestion.Document{}, e
	}
	return ingestion.Document{ID: uuid.New(), Name: name, MimeType: mt, Data: data}, nil
}

func formLimits(r *http.Request) (limitsRequest, *apierr.Error) {
	var l limitsRequest
	var ok bool
	if l.MaxVisits, ok = formInt(r, "max_visits"); !ok {
		return l, apierr.InvalidRequestBody()
	}
	if l.MaxChunks, ok = formInt(r, "max_chunks"); !ok {
		return l, apierr.InvalidRequestBody()
	}
	if v := r.FormValue("skip_ontology_development"); v != "" {
		b := v == "true" || v == "1"
		l.SkipOntologyDevelopment = &b
	}
	if e := validateLimits(l); e != nil {
		return l, e
	}
	return l, nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
