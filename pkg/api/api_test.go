package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
	"github.com/vanderheijden86/pedigree/pkg/store/sqlite"
	"github.com/vanderheijden86/pedigree/pkg/store/sqlstore"
	"github.com/vanderheijden86/pedigree/pkg/store/storetest"
)

func newBackend(t *testing.T, policy store.DeletePolicy) store.RecordStore {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"),
		sqlstore.Options{DeletePolicy: policy})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return s
}

// remote wraps a backend in a test server and returns a client for it.
// Closing the client also shuts down the server and backend.
type remote struct {
	*Client
	srv     *httptest.Server
	backend store.RecordStore
}

func (r *remote) Close() error {
	_ = r.Client.Close()
	r.srv.Close()
	return r.backend.Close()
}

func newRemote(t *testing.T, policy store.DeletePolicy) *remote {
	t.Helper()
	backend := newBackend(t, policy)
	srv := httptest.NewServer(NewServer(backend))
	c, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	return &remote{Client: c, srv: srv, backend: backend}
}

func TestClientContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, policy store.DeletePolicy) store.RecordStore {
		return newRemote(t, policy)
	})
}

func seededServer(t *testing.T) (*httptest.Server, store.SeedResult) {
	t.Helper()
	backend := newBackend(t, store.DeleteDetach)
	t.Cleanup(func() { _ = backend.Close() })
	res, err := store.Seed(context.Background(), backend)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(NewServer(backend))
	t.Cleanup(srv.Close)
	return srv, res
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func TestAncestorsEndpoint(t *testing.T) {
	srv, res := seededServer(t)
	bob := res.Horses["Bob"]

	status, body := get(t, srv.URL+"/horses/"+itoa(bob.ID)+"/ancestors?generations=2")
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %s", status, body)
	}
	var tree model.TreeNode
	if err := json.Unmarshal(body, &tree); err != nil {
		t.Fatal(err)
	}
	if tree.Name != "Bob" || tree.Father == nil || tree.Mother == nil || tree.Mother.Name != "Alice" {
		t.Errorf("tree = %+v", tree)
	}
	if !strings.Contains(string(body), `"dateOfBirth":"2018-05-01"`) {
		t.Errorf("body missing ISO birth date: %s", body)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv, res := seededServer(t)
	bob := itoa(res.Horses["Bob"].ID)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantMsg    string
	}{
		{"missing generations", "/horses/" + bob + "/ancestors", http.StatusUnprocessableEntity, "Ancestor generations are missing"},
		{"zero generations", "/horses/" + bob + "/ancestors?generations=0", http.StatusUnprocessableEntity, "Ancestor generations must be at least 1"},
		{"too many generations", "/horses/" + bob + "/ancestors?generations=65", http.StatusUnprocessableEntity, "Ancestor generations must be at most 64"},
		{"bad id", "/horses/abc", http.StatusUnprocessableEntity, "Invalid horse id given"},
		{"unknown horse", "/horses/9999/ancestors?generations=1", http.StatusNotFound, "Could not find horse with id 9999"},
		{"bad sex filter", "/horses?sex=pony", http.StatusUnprocessableEntity, "sex must be FEMALE or MALE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, srv.URL+tt.path)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", status, tt.wantStatus, body)
			}
			var eb ErrorBody
			if err := json.Unmarshal(body, &eb); err != nil {
				t.Fatal(err)
			}
			if len(eb.Errors) == 0 || eb.Errors[0] != tt.wantMsg {
				t.Errorf("errors = %v, want %q", eb.Errors, tt.wantMsg)
			}
		})
	}
}

func TestDeleteEndpoint(t *testing.T) {
	srv, res := seededServer(t)
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/horses/"+itoa(res.Horses["Alice"].ID), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestCreateHorseMalformedJSON(t *testing.T) {
	srv, _ := seededServer(t)
	resp, err := http.Post(srv.URL+"/horses", "application/json", strings.NewReader(`{"name":`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := seededServer(t)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/horses/1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	srv, _ := seededServer(t)
	if status, _ := get(t, srv.URL+"/healthz"); status != http.StatusOK {
		t.Fatalf("healthz status = %d", status)
	}
	get(t, srv.URL+"/horses?name=bob")

	status, body := get(t, srv.URL+"/metrics")
	if status != http.StatusOK {
		t.Fatalf("metrics status = %d", status)
	}
	text := string(body)
	if !strings.Contains(text, "pv_http_requests_total") {
		t.Error("request counter not exported")
	}
	if !strings.Contains(text, `route="/horses"`) {
		t.Errorf("route label missing:\n%s", text)
	}
}

// failingStore returns a raw error from every call.
type failingStore struct{ store.RecordStore }

func (failingStore) Tree(context.Context, int64, int) (*model.TreeNode, error) {
	return nil, errors.New("disk on fire")
}

func TestInternalErrorsHideDetails(t *testing.T) {
	srv := httptest.NewServer(NewServer(failingStore{}))
	defer srv.Close()

	status, body := get(t, srv.URL+"/horses/1/ancestors?generations=1")
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d", status)
	}
	if strings.Contains(string(body), "disk on fire") {
		t.Errorf("internal error leaked: %s", body)
	}

	c, _ := NewClient(srv.URL, nil)
	_, err := c.Tree(context.Background(), 1, 1)
	if !errors.Is(err, model.ErrTransport) {
		t.Errorf("client err = %v, want ErrTransport", err)
	}
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteHorse(context.Background(), 1); !errors.Is(err, model.ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

func TestClientConflictMessages(t *testing.T) {
	r := newRemote(t, store.DeleteRestrict)
	defer r.Close()
	res, err := store.Seed(context.Background(), r)
	if err != nil {
		t.Fatal(err)
	}
	err = r.DeleteHorse(context.Background(), res.Horses["Alice"].ID)
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if msgs := model.MessagesOf(err); len(msgs) != 1 || msgs[0] != store.HasChildrenMessage {
		t.Errorf("messages = %v", msgs)
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, u := range []string{"localhost:8080", "ftp://x", "://"} {
		if _, err := NewClient(u, nil); err == nil {
			t.Errorf("NewClient(%q) should fail", u)
		}
	}
}

func TestKindForStatus(t *testing.T) {
	tests := map[int]error{
		400: model.ErrInvalidInput,
		422: model.ErrInvalidInput,
		404: model.ErrNotFound,
		409: model.ErrConflict,
		500: model.ErrTransport,
		502: model.ErrTransport,
	}
	for status, want := range tests {
		if got := KindForStatus(status); got != want {
			t.Errorf("KindForStatus(%d) = %v, want %v", status, got, want)
		}
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
