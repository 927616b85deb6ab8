package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"garimpo-backend/lib/scrapers/retail"
	"garimpo-backend/services/offers"
	"garimpo-backend/services/offers/db"
)

type offerView struct {
	Id              string   `json:"id"`
	Source          string   `json:"source"`
	Url             string   `json:"url"`
	ExtractUrl      string   `json:"extract_url"`
	Title           string   `json:"title"`
	PriceOriginal   *float64 `json:"price_original,omitempty"`
	PriceDiscounted *float64 `json:"price_discounted,omitempty"`
	Discount        string   `json:"discount,omitempty"`
	Installments    string   `json:"installments,omitempty"`
	Currency        string   `json:"currency"`
	Images          []string `json:"images"`
	Description     string   `json:"description,omitempty"`
	Category        string   `json:"category,omitempty"`
	Tags            []string `json:"tags"`
	Note            string   `json:"note,omitempty"`
	Status          string   `json:"status"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
}

func viewOffer(o db.Offer) offerView {
	return offerView{
		Id:              o.ID,
		Source:          o.Source,
		Url:             o.Url,
		ExtractUrl:      o.ExtractUrl,
		Title:           o.Title,
		PriceOriginal:   floatPtr(o.PriceOriginal),
		PriceDiscounted: floatPtr(o.PriceDiscounted),
		Discount:        o.Discount,
		Installments:    o.Installments,
		Currency:        o.Currency,
		Images:          offers.DecodeStrings(o.Images),
		Description:     o.Description,
		Category:        o.Category,
		Tags:            offers.DecodeStrings(o.Tags),
		Note:            o.Note,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type pricePointView struct {
	PriceOriginal   *float64 `json:"price_original,omitempty"`
	PriceDiscounted *float64 `json:"price_discounted,omitempty"`
	Discount        string   `json:"discount,omitempty"`
	Currency        string   `json:"currency"`
	Source          string   `json:"source"`
	CreatedAt       int64    `json:"created_at"`
}

func viewPricePoint(p db.PriceHistory) pricePointView {
	return pricePointView{
		PriceOriginal:   floatPtr(p.PriceOriginal),
		PriceDiscounted: floatPtr(p.PriceDiscounted),
		Discount:        p.Discount,
		Currency:        p.Currency,
		Source:          p.Source,
		CreatedAt:       p.CreatedAt,
	}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

type Api struct {
	offers offers.Service
}

func (a Api) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /offers/extract", a.Extract)
	mux.HandleFunc("POST /offers/ingest", a.Ingest)
	mux.HandleFunc("GET /offers", a.ListOffers)
	mux.HandleFunc("GET /offers/{id}", a.GetOffer)
	mux.HandleFunc("GET /offers/{id}/history", a.PriceHistory)
	mux.HandleFunc("PATCH /offers/{id}/status", a.SetOfferStatus)
}

type urlRequest struct {
	Url string `json:"url"`
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, retail.ErrUnsupportedDomain):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, offers.ErrInvalidUrl),
		errors.Is(err, offers.ErrUnknownStatus):
		status = http.StatusBadRequest
	case retail.IsNetworkError(err):
		status = http.StatusBadGateway
	case errors.Is(err, sql.ErrNoRows):
		status = http.StatusNotFound
	}
	writeJson(w, status, map[string]string{"error": err.Error()})
}

func readUrl(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req urlRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.Url == "" {
		writeJson(w, http.StatusBadRequest, map[string]string{"error": "expected a json body with a url field"})
		return "", false
	}
	return req.Url, true
}

func (a Api) Extract(w http.ResponseWriter, r *http.Request) {
	rawUrl, ok := readUrl(w, r)
	if !ok {
		return
	}
	extraction, err := a.offers.Extract(r.Context(), rawUrl)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, extraction)
}

func (a Api) Ingest(w http.ResponseWriter, r *http.Request) {
	rawUrl, ok := readUrl(w, r)
	if !ok {
		return
	}
	result, err := a.offers.Ingest(r.Context(), rawUrl)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJson(w, status, result)
}

func (a Api) ListOffers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	var rows []db.Offer
	var err error
	if status := r.URL.Query().Get("status"); status != "" {
		rows, err = a.offers.ListOffersByStatus(r.Context(), status, limit)
	} else {
		rows, err = a.offers.ListOffers(r.Context(), limit)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]offerView, 0, len(rows))
	for _, row := range rows {
		views = append(views, viewOffer(row))
	}
	writeJson(w, http.StatusOK, views)
}

func (a Api) GetOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := a.offers.GetOffer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, viewOffer(offer))
}

func (a Api) SetOfferStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.Status == "" {
		writeJson(w, http.StatusBadRequest, map[string]string{"error": "expected a json body with a status field"})
		return
	}

	err = a.offers.SetOfferStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (a Api) PriceHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	since := time.Unix(0, 0)
	if raw := r.URL.Query().Get("since"); raw != "" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJson(w, http.StatusBadRequest, map[string]string{"error": "since must be a unix timestamp"})
			return
		}
		since = time.Unix(unix, 0)
	}

	history, err := a.offers.PriceHistory(r.Context(), id, since)
	if err != nil {
		writeError(w, err)
		return
	}
	lowest, err := a.offers.LowestPrice(r.Context(), id, since)
	if err != nil {
		writeError(w, err)
		return
	}
	variation, err := a.offers.PriceVariation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	points := make([]pricePointView, 0, len(history))
	for _, p := range history {
		points = append(points, viewPricePoint(p))
	}
	writeJson(w, http.StatusOK, map[string]any{
		"history":   points,
		"lowest":    lowest,
		"variation": variation,
	})
}
