package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/docintake/internal/extraction"
	"github.com/nikhilbhutani/docintake/internal/llm"
)

type ProviderStatuser interface {
	Status() []llm.ProviderStatus
}

type ExtractionStatuser interface {
	Status() []extraction.StrategyStatus
}

type StatusHandler struct {
	providers  ProviderStatuser
	extraction ExtractionStatuser
}

func NewStatusHandler(providers ProviderStatuser, ex ExtractionStatuser) *StatusHandler {
	return &StatusHandler{providers: providers, extraction: ex}
}

func (h *StatusHandler) Providers(w http.ResponseWriter, r *http.Request) {
	list := h.providers.Status()
	active := 0
	for _, p := range list {
		if p.Active {
			active++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": list, "active": active})
}

func (h *StatusHandler) Extraction(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"strategies": h.extraction.Status()})
}
