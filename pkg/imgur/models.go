package imgur

import (
	"encoding/json"
	"strings"
)

// envelope is the wrapper around every Imgur API v3 response
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Status  int             `json:"status"`
}

// Album is the subset of album metadata imgurdl uses
type Album struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	ImagesCount int    `json:"images_count"`
	Privacy     string `json:"privacy"`
}

// Image is one image record of an album
type Image struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Size        int64  `json:"size"`
	Animated    bool   `json:"animated"`
	Link        string `json:"link"`
}

// apiError is the body of a failed call. Imgur reports data.error either as
// a bare string or as an object with a message.
type apiError struct {
	Message string
	Type    string
	Code    int
}

func (e *apiError) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		e.Message = s
		return nil
	}

	var obj struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	e.Message, e.Type, e.Code = obj.Message, obj.Type, obj.Code
	return nil
}

type errorData struct {
	Error   *apiError `json:"error"`
	Request string    `json:"request"`
	Method  string    `json:"method"`
}

// errorMessage extracts a readable message from a failed response body
func errorMessage(data json.RawMessage) string {
	var ed errorData
	if err := json.Unmarshal(data, &ed); err != nil || ed.Error == nil {
		return ""
	}
	return strings.TrimSpace(ed.Error.Message)
}
