package handler

import "net/http"

// Info describes the running service.
type Info struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Domain   string   `json:"domain"`
	Backends []string `json:"backends"`
	LLM      string   `json:"llm_model"`
	Async    bool     `json:"async_enabled"`
}

type InfoHandler struct {
	info     Info
	registry OntologySource
}

func NewInfoHandler(info Info, registry OntologySource) *InfoHandler {
	return &InfoHandler{info: info, registry: registry}
}

func (h *InfoHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Info
		Ontologies int `json:"ontologies"`
	}{h.info, len(h.registry.List())})
}
