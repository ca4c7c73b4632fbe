package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
)

// HTTPRequestTimeout is the default timeout for all Pipedrive API calls.
const HTTPRequestTimeout = 60 * time.Second

const (
	personsPath       = "/api/v1/persons"
	personsSearchPath = "/api/v1/persons/search"
)

// Person is the CRM side entity. Record holds the full record as returned
// by Pipedrive; beyond id and name its attributes are freeform according
// to the configured mappings.
type Person struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Record json.RawMessage `json:"-"`
}

// PersonAPI is the contract the orchestrator needs from the CRM. It is an
// interface so a full sync can be tested against a fake implementation.
type PersonAPI interface {
	SearchByName(name string, ctx context.Context) (*Person, error)
	Create(payload Payload, ctx context.Context) (*Person, error)
	Update(id int64, payload Payload, ctx context.Context) (*Person, error)
}

// APIError is returned when a Pipedrive call fails. It carries the HTTP
// status code end to end so the sync boundary can classify the failure.
// A zero StatusCode marks a transport level failure with no response.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("pipedrive %s failed: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("pipedrive %s failed with status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Connectivity reports whether the failure happened before any HTTP
// response was received.
func (e *APIError) Connectivity() bool { return e.StatusCode == 0 }

// Client calls the Pipedrive persons API.
type Client struct {
	api       APISettings
	transport http.RoundTripper // replaceable for request replay in tests
}

// NewClient validates the credentials so that a misconfigured client fails
// before any network call is made.
func NewClient(api APISettings) (*Client, error) {
	if err := api.Validate(); err != nil {
		return nil, err
	}
	return &Client{api: api}, nil
}

// PipedriveAPIBuilder returns a new requests.Builder configured for the
// Pipedrive API. All calls are authenticated by the token query param.
func (c *Client) PipedriveAPIBuilder() *requests.Builder {
	result := requests.
		URL(c.api.BaseURL()).
		Client(&http.Client{Timeout: HTTPRequestTimeout}).
		Param("token", c.api.Token)
	if c.transport != nil {
		result = result.Transport(c.transport)
	}
	return result
}

// SearchByName issues a fuzzy search against the persons search endpoint,
// limited to one result. No match is a normal outcome reported as a nil
// Person, not an error.
func (c *Client) SearchByName(name string, ctx context.Context) (*Person, error) {
	b := c.PipedriveAPIBuilder().
		Path(personsSearchPath).
		Param("term", name).
		Param("exact_match", "false").
		Param("limit", "1")
	body, err := c.fetch(b, "search", ctx)
	if err != nil {
		return nil, err
	}
	item := gjson.Get(body, "data.items.0.item")
	if !item.Exists() {
		return nil, nil
	}
	return personFromRecord(item), nil
}

// Create submits a new person record and returns the created record
// including the CRM assigned id.
func (c *Client) Create(payload Payload, ctx context.Context) (*Person, error) {
	b := c.PipedriveAPIBuilder().
		Path(personsPath).
		Post().
		BodyBytes([]byte(payload)).
		ContentType("application/json")
	body, err := c.fetch(b, "create", ctx)
	if err != nil {
		return nil, err
	}
	return personFromRecord(gjson.Get(body, "data")), nil
}

// Update submits a full payload overwrite of the record at id.
func (c *Client) Update(id int64, payload Payload, ctx context.Context) (*Person, error) {
	b := c.PipedriveAPIBuilder().
		Pathf(personsPath+"/%d", id).
		Put().
		BodyBytes([]byte(payload)).
		ContentType("application/json")
	body, err := c.fetch(b, "update", ctx)
	if err != nil {
		return nil, err
	}
	return personFromRecord(gjson.Get(body, "data")), nil
}

// fetch runs the request and applies the shared response contract: any
// transport failure, non-2xx status or success:false flag is an APIError.
func (c *Client) fetch(b *requests.Builder, op string, ctx context.Context) (string, error) {
	var status int
	var body string
	err := b.
		AddValidator(nil). // statuses are checked below so the code survives wrapping
		Handle(func(resp *http.Response) error {
			status = resp.StatusCode
			return requests.ToString(&body)(resp)
		}).
		Fetch(ctx)
	if err != nil {
		return body, &APIError{Op: op, Message: err.Error(), Err: err}
	}
	if status < 200 || status > 299 {
		return body, &APIError{Op: op, StatusCode: status, Message: errorMessage(body)}
	}
	if !gjson.Valid(body) {
		log.Printf("Invalid Pipedrive Response:\n%s", body)
		return body, &APIError{Op: op, StatusCode: status, Message: "invalid json response"}
	}
	if !gjson.Get(body, "success").Bool() {
		return body, &APIError{Op: op, StatusCode: status, Message: errorMessage(body)}
	}
	return body, nil
}

func errorMessage(body string) string {
	if msg := gjson.Get(body, "error").String(); msg != "" {
		return msg
	}
	return "unexpected response"
}

func personFromRecord(record gjson.Result) *Person {
	return &Person{
		ID:     record.Get("id").Int(),
		Name:   record.Get("name").String(),
		Record: json.RawMessage(record.Raw),
	}
}
