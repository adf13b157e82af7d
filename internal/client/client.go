// Package client provides an HTTP client for the rentshed REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evcraddock/rentshed/internal/item"
	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/rental"
	"github.com/evcraddock/rentshed/internal/session"
)

// Client is an HTTP client for the rentshed API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Board is a browsing session held by the server.
type Board struct {
	ID string `json:"id"`
	session.State
}

// Listings is the filtered view of a board's catalog.
type Listings struct {
	Filter   listing.Filter    `json:"filter"`
	Listings []listing.Listing `json:"listings"`
	Count    int               `json:"count"`
	Total    int               `json:"total"`
}

// ListOptions changes a board's filter before listing. Nil fields keep
// the board's current value.
type ListOptions struct {
	Query    *string
	Category *string
	Location *string
}

// RentResult is the outcome of confirming a rental.
type RentResult struct {
	ListingID string         `json:"listing_id"`
	Confirmed bool           `json:"confirmed"`
	Rental    *rental.Rental `json:"rental,omitempty"`
}

// Category is one entry of the category table.
type Category struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Browse bool   `json:"browse"`
}

// Me describes the caller.
type Me struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Admin  bool   `json:"admin"`
	Member bool   `json:"member"`
}

// APIKey is a key as listed by the server. The raw key is never included.
type APIKey struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

// CreatedKey is returned once when a key is created.
type CreatedKey struct {
	Key    string `json:"key"`
	APIKey APIKey `json:"api_key"`
}

// CreateBoard starts a new board on the server.
func (c *Client) CreateBoard() (*Board, error) {
	var b Board
	if err := c.post("/api/boards", struct{}{}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBoard returns a board's full state.
func (c *Client) GetBoard(id string) (*Board, error) {
	var b Board
	if err := c.get(boardPath(id, ""), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBoard discards a board.
func (c *Client) DeleteBoard(id string) error {
	return c.doDelete(boardPath(id, ""))
}

// ListListings applies opts to the board's filter and returns its view.
func (c *Client) ListListings(boardID string, opts ListOptions) (*Listings, error) {
	params := url.Values{}
	if opts.Query != nil {
		params.Set("q", *opts.Query)
	}
	if opts.Category != nil {
		params.Set("category", *opts.Category)
	}
	if opts.Location != nil {
		params.Set("location", *opts.Location)
	}
	path := boardPath(boardID, "listings")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var ls Listings
	if err := c.get(path, &ls); err != nil {
		return nil, err
	}
	return &ls, nil
}

// GetListing returns one listing of a board's catalog.
func (c *Client) GetListing(boardID, id string) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.get(boardPath(boardID, "listings/"+url.PathEscape(id)), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Rent confirms a rental. Hours of zero uses the server default.
func (c *Client) Rent(boardID, id string, hours int) (*RentResult, error) {
	body := map[string]any{"id": id, "hours": hours}
	var res RentResult
	if err := c.post(boardPath(boardID, "rent"), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Open shows a modal on the board. id names the listing for detail and chat.
func (c *Client) Open(boardID string, modal session.Modal, id string) (*session.State, error) {
	body := map[string]string{"modal": modal.String(), "id": id}
	var st session.State
	if err := c.post(boardPath(boardID, "open"), body, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Close dismisses the board's modal.
func (c *Client) Close(boardID string) (*session.State, error) {
	var st session.State
	if err := c.post(boardPath(boardID, "close"), struct{}{}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ChatMessages returns the log of the board's open chat.
func (c *Client) ChatMessages(boardID string) ([]session.Message, error) {
	var msgs []session.Message
	if err := c.get(boardPath(boardID, "chat"), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendChat sends a message to the board's open chat and returns the log.
func (c *Client) SendChat(boardID, text string) ([]session.Message, error) {
	body := map[string]string{"text": text}
	var msgs []session.Message
	if err := c.post(boardPath(boardID, "chat"), body, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Categories returns the category table.
func (c *Client) Categories() ([]Category, error) {
	var cats []Category
	if err := c.get("/api/catalog/categories", &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Districts returns the selectable districts.
func (c *Client) Districts() ([]listing.District, error) {
	var ds []listing.District
	if err := c.get("/api/catalog/districts", &ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// PopularSearches returns the suggested search terms.
func (c *Client) PopularSearches() ([]string, error) {
	var terms []string
	if err := c.get("/api/catalog/popular", &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

// ListItems returns the caller's registered items.
func (c *Client) ListItems() ([]*item.Item, error) {
	var items []*item.Item
	if err := c.get("/api/items", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem returns one of the caller's items.
func (c *Client) GetItem(id string) (*item.Item, error) {
	var it item.Item
	if err := c.get("/api/items/"+url.PathEscape(id), &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// AddItem registers an item for rent.
func (c *Client) AddItem(req item.RegisterRequest) (*item.Item, error) {
	var it item.Item
	if err := c.post("/api/items", req, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// DeleteItem removes one of the caller's items.
func (c *Client) DeleteItem(id string) error {
	return c.doDelete("/api/items/" + url.PathEscape(id))
}

// ListRentals returns the caller's rentals.
func (c *Client) ListRentals() ([]*rental.Rental, error) {
	var rentals []*rental.Rental
	if err := c.get("/api/rentals", &rentals); err != nil {
		return nil, err
	}
	return rentals, nil
}

// MapKeyConfigured reports whether the server has a map API key.
func (c *Client) MapKeyConfigured() (bool, error) {
	var resp struct {
		Configured bool `json:"configured"`
	}
	if err := c.get("/api/settings/map-key", &resp); err != nil {
		return false, err
	}
	return resp.Configured, nil
}

// SetMapKey stores the map API key on the server.
func (c *Client) SetMapKey(key string) error {
	return c.send("PUT", "/api/settings/map-key", map[string]string{"key": key}, nil)
}

// DeleteMapKey removes the stored map API key.
func (c *Client) DeleteMapKey() error {
	return c.doDelete("/api/settings/map-key")
}

// Me returns who the server thinks the caller is.
func (c *Client) Me() (*Me, error) {
	var me Me
	if err := c.get("/api/me", &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// CreateKey creates an API key for the caller.
func (c *Client) CreateKey(name string) (*CreatedKey, error) {
	var created CreatedKey
	if err := c.post("/api/keys", map[string]string{"name": name}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListKeys returns the caller's API keys.
func (c *Client) ListKeys() ([]APIKey, error) {
	var keys []APIKey
	if err := c.get("/api/keys", &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteKey revokes one of the caller's API keys.
func (c *Client) DeleteKey(id string) error {
	return c.doDelete("/api/keys/" + url.PathEscape(id))
}

// Health checks that the server is up.
func (c *Client) Health() error {
	return c.get("/health", nil)
}

func boardPath(id, rest string) string {
	p := "/api/boards/" + url.PathEscape(id)
	if rest != "" {
		p += "/" + rest
	}
	return p
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(path string, body interface{}, result interface{}) error {
	return c.send("POST", path, body, result)
}

// send performs a request with a JSON body and decodes the response.
func (c *Client) send(method, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// doDelete performs a DELETE request.
func (c *Client) doDelete(path string) error {
	req, err := http.NewRequest("DELETE", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, nil)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return responseError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// responseError builds an *Error from a JSON error body, a plain text
// body, or the status text, in that order.
func responseError(code int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &Error{StatusCode: code, Message: errResp.Error}
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "<") {
		return &Error{StatusCode: code, Message: text}
	}
	return &Error{StatusCode: code, Message: "server error: " + http.StatusText(code)}
}
