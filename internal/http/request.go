package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"drinklog/internal/core"
)

// maxUploadSize caps multipart request bodies, photo included.
const maxUploadSize = 10 << 20 // 10 MiB

type drinkRequestPayload struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// parseEntryForm reads an entry payload from a multipart form. The drinks
// field is a JSON array; group_id is optional.
func parseEntryForm(r *http.Request) (core.EntryRequest, error) {
	var req core.EntryRequest

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return req, fmt.Errorf("parse form: %w", err)
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("user_id")), 10, 64)
	if err != nil {
		return req, errors.New("invalid user_id")
	}
	req.UserID = userID

	if v := strings.TrimSpace(r.FormValue("group_id")); v != "" {
		groupID, err := strconv.ParseInt(v, 10, 64)
		if err != nil || groupID <= 0 {
			return req, errors.New("invalid group_id")
		}
		req.GroupID = &groupID
	}

	date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(r.FormValue("drinking_date")), time.UTC)
	if err != nil {
		return req, errors.New("invalid drinking_date, want YYYY-MM-DD")
	}
	req.DrinkingDate = date

	if v := strings.TrimSpace(r.FormValue("total_price")); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, errors.New("invalid total_price")
		}
		req.TotalPrice = price
	}

	req.Memo = r.FormValue("memo")

	if v := strings.TrimSpace(r.FormValue("drinks")); v != "" {
		var payload []drinkRequestPayload
		if err := json.Unmarshal([]byte(v), &payload); err != nil {
			return req, errors.New("invalid drinks, want a JSON array")
		}
		for _, d := range payload {
			req.Drinks = append(req.Drinks, core.DrinkRequest{Type: d.Type, Quantity: d.Quantity})
		}
	}

	return req, nil
}

// uploadImage stores the optional image form part and returns its URL, or
// empty when no image was sent.
func (s *Server) uploadImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read image part: %w", err)
	}
	defer file.Close()

	url, err := s.images.Upload(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		return "", err
	}
	return url, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
