package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/edumint-ai/platform/pkg/common/config"
	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/gateway/httpclient"
	"github.com/google/uuid"
)

// Proxy forwards requests to a backing service, carrying the request ID and
// the identity headers stamped by the authentication middleware.
type Proxy struct {
	Client *http.Client
	Cfg    *config.Config
}

func (p *Proxy) forward(w http.ResponseWriter, r *http.Request, method, url string) {
	corrID := r.Header.Get("X-Request-ID")
	if corrID == "" {
		corrID = uuid.New().String()
	}

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, p.Cfg.MaxRequestBody))
		if err != nil {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
	}

	header := make(http.Header)
	for k, v := range r.Header {
		header[k] = v
	}
	header.Set("Content-Type", "application/json")
	header.Set("X-Request-ID", corrID)

	ctx, cancel := context.WithTimeout(r.Context(), p.Cfg.GatewayRequestTimeout)
	defer cancel()

	// Each attempt gets a fresh request: the previous attempt may have
	// consumed the body reader before failing.
	var resp *http.Response
	reqErr := httpclient.Retry(ctx, 3, 200*time.Millisecond, func() error {
		var reqBody io.Reader
		if len(body) > 0 {
			reqBody = bytes.NewReader(body)
		}
		outReq, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return err
		}
		outReq.Header = header.Clone()

		var doErr error
		resp, doErr = p.Client.Do(outReq)
		return doErr
	})
	if reqErr != nil {
		logger.Log.WithError(reqErr).WithField("url", url).Error("failed to forward request")
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	logger.Log.WithFields(map[string]interface{}{
		"url":        url,
		"status":     resp.StatusCode,
		"request_id": corrID,
	}).Info("Forwarded request")

	var out interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		out = map[string]interface{}{"status": resp.Status}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_ = json.NewEncoder(w).Encode(out)
}
