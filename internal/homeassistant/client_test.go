package homeassistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testToken = "secret-token"

// fakeAPI records the last request and answers with canned responses.
type fakeAPI struct {
	status   int
	response string

	method string
	path   string
	auth   string
	body   map[string]any
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.method = r.Method
	f.path = r.URL.Path
	f.auth = r.Header.Get("Authorization")
	f.body = nil

	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &f.body)
	}

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(f.response))
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return NewClient(Config{Endpoint: server.URL, Token: testToken}, nil)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		code int
		want APIStatus
	}{
		{http.StatusOK, StatusOK},
		{http.StatusUnauthorized, StatusInvalidToken},
		{http.StatusInternalServerError, StatusUnknown},
		{http.StatusNotFound, StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			api := &fakeAPI{status: tt.code}
			client := newTestClient(t, api)

			got, err := client.Status(context.Background())
			if err != nil {
				t.Fatalf("Status() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
			if api.path != "/api/" {
				t.Errorf("path = %q, want /api/", api.path)
			}
			if api.auth != "Bearer "+testToken {
				t.Errorf("Authorization = %q", api.auth)
			}
		})
	}
}

func TestStatusCannotConnect(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	client := NewClient(Config{Endpoint: endpoint, Token: testToken}, nil)
	got, err := client.Status(context.Background())
	if err == nil {
		t.Fatal("Expected error for closed server")
	}
	if got != StatusCannotConnect {
		t.Errorf("Status() = %v, want %v", got, StatusCannotConnect)
	}
}

func TestSetState(t *testing.T) {
	api := &fakeAPI{status: http.StatusCreated, response: `{}`}
	client := newTestClient(t, api)

	attrs := map[string]any{"friendly_name": "Desktop"}
	if err := client.SetState(context.Background(), "input_text.desktop_dye", "255,0,0", attrs, true); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	if api.method != http.MethodPost {
		t.Errorf("method = %s, want POST", api.method)
	}
	if api.path != "/api/states/input_text.desktop_dye" {
		t.Errorf("path = %q", api.path)
	}
	if api.body["state"] != "255,0,0" {
		t.Errorf("state = %v", api.body["state"])
	}
	if api.body["force_update"] != true {
		t.Errorf("force_update = %v, want true", api.body["force_update"])
	}
	gotAttrs, ok := api.body["attributes"].(map[string]any)
	if !ok || gotAttrs["friendly_name"] != "Desktop" {
		t.Errorf("attributes = %v", api.body["attributes"])
	}
}

func TestSetStateOmitsNilAttributes(t *testing.T) {
	api := &fakeAPI{}
	client := newTestClient(t, api)

	if err := client.SetState(context.Background(), "input_text.x", "on", nil, false); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if _, ok := api.body["attributes"]; ok {
		t.Error("attributes should be omitted when nil")
	}
	if api.body["force_update"] != false {
		t.Errorf("force_update = %v, want false", api.body["force_update"])
	}
}

func TestSetStateRejected(t *testing.T) {
	api := &fakeAPI{status: http.StatusBadRequest}
	client := newTestClient(t, api)

	err := client.SetState(context.Background(), "input_text.x", "on", nil, true)
	if err == nil {
		t.Fatal("Expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error %q should include the status code", err)
	}
}

func TestState(t *testing.T) {
	api := &fakeAPI{response: `{"entity_id":"light.desk","state":"on","attributes":{"brightness":200}}`}
	client := newTestClient(t, api)

	state, err := client.State(context.Background(), "light.desk")
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state.EntityID != "light.desk" || state.State != "on" {
		t.Errorf("State() = %+v", state)
	}
	if api.path != "/api/states/light.desk" {
		t.Errorf("path = %q", api.path)
	}
	if got := state.Attributes["brightness"]; got != float64(200) {
		t.Errorf("brightness attribute = %v, want 200", got)
	}
}

func TestStatesAndServices(t *testing.T) {
	api := &fakeAPI{response: `[{"entity_id":"a.b","state":"1"},{"entity_id":"c.d","state":"2"}]`}
	client := newTestClient(t, api)

	states, err := client.States(context.Background())
	if err != nil {
		t.Fatalf("States() error = %v", err)
	}
	if len(states) != 2 || states[1].EntityID != "c.d" {
		t.Errorf("States() = %+v", states)
	}

	api.response = `[{"domain":"light","services":{"turn_on":{}}}]`
	services, err := client.Services(context.Background())
	if err != nil {
		t.Fatalf("Services() error = %v", err)
	}
	if len(services) != 1 || services[0].Domain != "light" {
		t.Errorf("Services() = %+v", services)
	}
	if api.path != "/api/services" {
		t.Errorf("path = %q", api.path)
	}

	api.status = http.StatusUnauthorized
	if _, err := client.States(context.Background()); err == nil {
		t.Error("Expected error for 401 response")
	}
}

func TestCallService(t *testing.T) {
	api := &fakeAPI{response: `[]`}
	client := newTestClient(t, api)

	data := map[string]any{"entity_id": "light.desk", "rgb_color": []int{255, 0, 0}}
	if err := client.CallService(context.Background(), "light", "turn_on", data); err != nil {
		t.Fatalf("CallService() error = %v", err)
	}
	if api.path != "/api/services/light/turn_on" {
		t.Errorf("path = %q", api.path)
	}
	if api.body["entity_id"] != "light.desk" {
		t.Errorf("body = %v", api.body)
	}

	api.status = http.StatusBadRequest
	api.response = "unknown entity"
	err := client.CallService(context.Background(), "light", "turn_on", nil)
	if err == nil {
		t.Fatal("Expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "unknown entity") {
		t.Errorf("error %q should include the response body", err)
	}
}
