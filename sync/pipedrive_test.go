package sync

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/carlmjohnson/requests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replayClient(t *testing.T, rawResponse string) *Client {
	t.Helper()
	client, err := NewClient(APISettings{Token: "test-token", Domain: "example"})
	require.NoError(t, err)
	client.transport = requests.ReplayString(rawResponse)
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(APISettings{Domain: "example"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing Pipedrive API token")

	_, err = NewClient(APISettings{Token: "test-token"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing Pipedrive company domain")
}

func TestSearchByNameFound(t *testing.T) {
	client := replayClient(t, `HTTP/1.1 200 OK
Content-Type: application/json

{"success":true,"data":{"items":[{"result_score":0.81,"item":{"id":42,"name":"Jane Doe"}}]}}`)

	person, err := client.SearchByName("Jane Doe", context.Background())
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Equal(t, int64(42), person.ID)
	assert.Equal(t, "Jane Doe", person.Name)
}

func TestSearchByNameNotFound(t *testing.T) {
	client := replayClient(t, `HTTP/1.1 200 OK
Content-Type: application/json

{"success":true,"data":{"items":[]}}`)

	person, err := client.SearchByName("Nobody", context.Background())
	require.NoError(t, err)
	assert.Nil(t, person)
}

func TestCreateReturnsAssignedID(t *testing.T) {
	client := replayClient(t, `HTTP/1.1 201 Created
Content-Type: application/json

{"success":true,"data":{"id":101,"name":"Jane Doe","email":[{"label":"work","value":"jane@x.com","primary":true}]}}`)

	person, err := client.Create(Payload(`{"name":"Jane Doe"}`), context.Background())
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Equal(t, int64(101), person.ID)
	assert.Equal(t, "Jane Doe", person.Name)
	assert.Contains(t, string(person.Record), `"jane@x.com"`)
}

func TestUpdateReturnsRecord(t *testing.T) {
	client := replayClient(t, `HTTP/1.1 200 OK
Content-Type: application/json

{"success":true,"data":{"id":42,"name":"Jane Doe"}}`)

	person, err := client.Update(42, Payload(`{"name":"Jane Doe"}`), context.Background())
	require.NoError(t, err)
	require.NotNil(t, person)
	assert.Equal(t, int64(42), person.ID)
}

func TestAPIErrorCarriesStatusCode(t *testing.T) {
	client := replayClient(t, `HTTP/1.1 401 Unauthorized
Content-Type: application/json

{"success":false,"error":"unauthorized access"}`)

	_, err := client.SearchByName("Jane Doe", context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, "search", apiErr.Op)
	assert.Contains(t, apiErr.Message, "unauthorized access")
}

func TestSuccessFlagFalseIsAnError(t *testing.T) {
	client := replayClient(t, `HTTP/1.1 200 OK
Content-Type: application/json

{"success":false,"error":"name must be given"}`)

	_, err := client.Create(Payload(`{}`), context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 200, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "name must be given")
}

func TestTransportFailureHasNoStatusCode(t *testing.T) {
	client, err := NewClient(APISettings{Token: "test-token", Domain: "example"})
	require.NoError(t, err)
	client.transport = requests.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	_, err = client.SearchByName("Jane Doe", context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Connectivity())
}

func TestInvalidJSONResponseIsAnError(t *testing.T) {
	client := replayClient(t, `HTTP/1.1 200 OK
Content-Type: text/html

<html>maintenance</html>`)

	_, err := client.SearchByName("Jane Doe", context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "invalid json response")
}
