package routes

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

type ContentProxy struct {
	Proxy
}

func RegisterContentRoutes(router *mux.Router, proxy *ContentProxy) {
	if proxy == nil || proxy.Client == nil || proxy.Cfg == nil {
		panic("content proxy requires client and config")
	}

	router.HandleFunc("/generate", proxy.handleGenerate).Methods(http.MethodPost)
	router.HandleFunc("/contents/{id}/regenerate", proxy.handleRegenerate).Methods(http.MethodPost)
	router.HandleFunc("/artifacts/{id}", proxy.handleGetArtifact).Methods(http.MethodGet)
	router.HandleFunc("/attempts", proxy.handleListAttempts).Methods(http.MethodGet)
}

func (p *ContentProxy) handleGenerate(w http.ResponseWriter, r *http.Request) {
	p.forward(w, r, http.MethodPost, fmt.Sprintf("%s/api/v1/generate", p.Cfg.ContentBaseURL))
}

func (p *ContentProxy) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p.forward(w, r, http.MethodPost, fmt.Sprintf("%s/api/v1/contents/%s/regenerate", p.Cfg.ContentBaseURL, id))
}

func (p *ContentProxy) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p.forward(w, r, http.MethodGet, fmt.Sprintf("%s/api/v1/artifacts/%s", p.Cfg.ContentBaseURL, id))
}

func (p *ContentProxy) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	url := fmt.Sprintf("%s/api/v1/attempts", p.Cfg.ContentBaseURL)
	if raw := r.URL.RawQuery; raw != "" {
		url += "?" + raw
	}
	p.forward(w, r, http.MethodGet, url)
}
