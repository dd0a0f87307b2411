package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient makes the plain request/response calls that bypass the event
// channel. Classroom creation is the only one the server exposes.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBaseURL retargets the client, used when the endpoint changes.
func (c *HTTPClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// CreateClassroomResponse is the server's reply to a create call.
type CreateClassroomResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    struct {
		RoomID string `json:"roomId"`
	} `json:"data"`
}

// CreateClassroom sends POST /classroom/create and returns the new room id.
func (c *HTTPClient) CreateClassroom(name string) (*CreateClassroomResponse, error) {
	body := map[string]string{"name": name}
	var out CreateClassroomResponse
	if err := c.post("/classroom/create", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) post(path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
