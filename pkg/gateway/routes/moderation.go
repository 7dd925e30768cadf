package routes

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

type ModerationProxy struct {
	Proxy
}

func RegisterModerationRoutes(router *mux.Router, proxy *ModerationProxy) {
	if proxy == nil || proxy.Client == nil || proxy.Cfg == nil {
		panic("moderation proxy requires client and config")
	}

	router.HandleFunc("/moderation/pending", proxy.handleListPending).Methods(http.MethodGet)
	router.HandleFunc("/moderation/{id}/request", proxy.handleRequestReview).Methods(http.MethodPost)
	router.HandleFunc("/moderation/{id}/decide", proxy.handleDecide).Methods(http.MethodPost)
	router.HandleFunc("/moderation/{id}/approved", proxy.handleFetchApproved).Methods(http.MethodGet)
}

func (p *ModerationProxy) handleListPending(w http.ResponseWriter, r *http.Request) {
	url := fmt.Sprintf("%s/api/v1/moderation/pending", p.Cfg.ModerationBaseURL)
	if raw := r.URL.RawQuery; raw != "" {
		url += "?" + raw
	}
	p.forward(w, r, http.MethodGet, url)
}

func (p *ModerationProxy) handleRequestReview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p.forward(w, r, http.MethodPost, fmt.Sprintf("%s/api/v1/moderation/%s/request", p.Cfg.ModerationBaseURL, id))
}

func (p *ModerationProxy) handleDecide(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p.forward(w, r, http.MethodPost, fmt.Sprintf("%s/api/v1/moderation/%s/decide", p.Cfg.ModerationBaseURL, id))
}

func (p *ModerationProxy) handleFetchApproved(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p.forward(w, r, http.MethodGet, fmt.Sprintf("%s/api/v1/moderation/%s/approved", p.Cfg.ModerationBaseURL, id))
}
