package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/atinyakov/AgriVision/internal/app"
	"github.com/atinyakov/AgriVision/internal/models"
)

// MaxImageSize bounds uploaded leaf images.
const MaxImageSize = 10 << 20

// Home returns the dashboard.
func (h *AppHandler) Home(w http.ResponseWriter, r *http.Request) {
	d, err := h.App.Home(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

// DetectResponse is a diagnosis with its presentation.
type DetectResponse struct {
	Result    models.DiseaseResult `json:"result"`
	Outcome   app.Outcome          `json:"outcome"`
	ShareText string               `json:"shareText,omitempty"`
}

// Detect diagnoses the multipart "image" file.
func (h *AppHandler) Detect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(file, MaxImageSize+1)); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if buf.Len() > MaxImageSize {
		http.Error(w, "image too large", http.StatusRequestEntityTooLarge)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}
	result, outcome, err := h.App.Analyze(r.Context(), buf.Bytes(), mimeType)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := DetectResponse{Result: result, Outcome: outcome}
	if outcome != app.OutcomeUnrecognized {
		resp.ShareText = app.ShareText(result)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// amount accepts a JSON number or string; the calculator parses it leniently.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("amount must be a number or string")
	}
	*a = amount(n)
	return nil
}

// ProfitRequest carries the calculator inputs.
type ProfitRequest struct {
	Investment amount `json:"investment"`
	Revenue    amount `json:"revenue"`
}

// Profit runs the calculator.
func (h *AppHandler) Profit(w http.ResponseWriter, r *http.Request) {
	var req ProfitRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.App.Calculate(string(req.Investment), string(req.Revenue))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// History lists past scans newest-first.
func (h *AppHandler) History(w http.ResponseWriter, r *http.Request) {
	scans, err := h.App.History(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, scans)
}
