package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

// Client is a RecordStore backed by a remote pv server.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ store.RecordStore = (*Client)(nil)

// NewClient targets baseURL, e.g. "http://localhost:8080". A nil hc uses a
// client with a 10s timeout.
func NewClient(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote url %q: scheme must be http or https", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: u, http: hc}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// do sends one request and decodes a 2xx body into out (when non-nil).
// Non-2xx responses become classified model.Errors.
func (c *Client) do(ctx context.Context, op string, id int64, method, path string, q url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), body)
	if err != nil {
		return model.Wrap(op, id, model.ErrTransport, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Wrap(op, id, model.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return model.Wrap(op, id, model.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(op, id, resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return model.Wrap(op, id, model.ErrTransport, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func responseError(op string, id int64, status int, data []byte) error {
	e := &model.Error{Op: op, ID: id, Kind: KindForStatus(status)}
	var body ErrorBody
	if err := json.Unmarshal(data, &body); err == nil && (body.Message != "" || len(body.Errors) > 0) {
		e.Messages = body.Errors
		if len(e.Messages) == 0 {
			e.Messages = []string{body.Message}
		}
	}
	e.Err = fmt.Errorf("HTTP %d", status)
	return e
}

func idPath(id int64) string {
	return "/horses/" + strconv.FormatInt(id, 10)
}

// Tree implements store.RecordStore.
func (c *Client) Tree(ctx context.Context, id int64, generations int) (*model.TreeNode, error) {
	if err := model.ValidateTreeRequest(id, generations); err != nil {
		return nil, err
	}
	var tree model.TreeNode
	q := url.Values{"generations": {strconv.Itoa(generations)}}
	if err := c.do(ctx, "tree", id, http.MethodGet, idPath(id)+"/ancestors", q, nil, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// GetHorse implements store.RecordStore.
func (c *Client) GetHorse(ctx context.Context, id int64) (model.Horse, error) {
	var h model.Horse
	err := c.do(ctx, "get horse", id, http.MethodGet, idPath(id), nil, nil, &h)
	return h, err
}

// SearchHorses implements store.RecordStore.
func (c *Client) SearchHorses(ctx context.Context, search model.HorseSearch) ([]model.Horse, error) {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("name", search.Name)
	set("description", search.Description)
	set("ownerName", search.OwnerName)
	set("sex", strings.ToUpper(string(search.Sex)))
	if search.BornBefore != nil {
		set("bornBefore", search.BornBefore.String())
	}
	if search.Limit > 0 {
		set("limit", strconv.Itoa(search.Limit))
	}
	var horses []model.Horse
	err := c.do(ctx, "search horses", 0, http.MethodGet, "/horses", q, nil, &horses)
	return horses, err
}

// CreateHorse implements store.RecordStore.
func (c *Client) CreateHorse(ctx context.Context, h model.Horse) (model.Horse, error) {
	var created model.Horse
	err := c.do(ctx, "create horse", 0, http.MethodPost, "/horses", nil, h, &created)
	return created, err
}

// UpdateHorse implements store.RecordStore.
func (c *Client) UpdateHorse(ctx context.Context, h model.Horse) (model.Horse, error) {
	if h.ID <= 0 {
		return model.Horse{}, model.Newf("update horse", model.ErrInvalidInput, "No ID given")
	}
	var updated model.Horse
	err := c.do(ctx, "update horse", h.ID, http.MethodPut, idPath(h.ID), nil, h, &updated)
	return updated, err
}

// DeleteHorse implements store.RecordStore.
func (c *Client) DeleteHorse(ctx context.Context, id int64) error {
	return c.do(ctx, "delete horse", id, http.MethodDelete, idPath(id), nil, nil, nil)
}

// SearchOwners implements store.RecordStore.
func (c *Client) SearchOwners(ctx context.Context, name string, limit int) ([]model.Owner, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	if limit > 0 {
		q.Set("maxAmount", strconv.Itoa(limit))
	}
	var owners []model.Owner
	err := c.do(ctx, "search owners", 0, http.MethodGet, "/owners", q, nil, &owners)
	return owners, err
}

// CreateOwner implements store.RecordStore.
func (c *Client) CreateOwner(ctx context.Context, o model.Owner) (model.Owner, error) {
	var created model.Owner
	err := c.do(ctx, "create owner", 0, http.MethodPost, "/owners", nil, o, &created)
	return created, err
}
