package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/homemade/spigot/logger"
)

// Validation failures surfaced before any network call is made.
var (
	ErrEmptyInput      = errors.New("input data is empty")
	ErrNoMappings      = errors.New("no field mappings configured")
	ErrNoNameMapping   = errors.New(`no mapping targets the "name" key`)
	ErrNameNotResolved = errors.New("name value is missing or not a string")
)

// Classified transport failures, produced once at the Sync boundary.
var (
	ErrAuthentication = errors.New("pipedrive authentication failed, check the API token")
	ErrPermission     = errors.New("pipedrive rejected the request, insufficient permissions")
	ErrRateLimited    = errors.New("pipedrive rate limit reached")
	ErrRemoteServer   = errors.New("pipedrive server error")
	ErrConnectivity   = errors.New("pipedrive is unreachable")
)

// Syncer runs one sync cycle end to end: validate, build the payload,
// search by name, then branch to create or update.
type Syncer struct {
	API PersonAPI
	Log *logger.Logger
}

// Sync synchronizes the single record described by source and mappings and
// returns the resulting Pipedrive person. Transport failures raised
// downstream are classified exactly once at this boundary.
func (s Syncer) Sync(source Source, mappings []FieldMapping, ctx context.Context) (*Person, error) {
	mustBeInitialised()
	person, err := s.run(source, mappings, ctx)
	if err != nil {
		return nil, classifyError(err)
	}
	return person, nil
}

func (s Syncer) run(source Source, mappings []FieldMapping, ctx context.Context) (*Person, error) {
	if source.IsEmpty() {
		return nil, ErrEmptyInput
	}
	if len(mappings) == 0 {
		return nil, ErrNoMappings
	}
	nameMapping, exists := NameMapping(mappings)
	if !exists {
		return nil, ErrNoNameMapping
	}
	nameResult := source.ResultForPath(nameMapping.InputKey)
	if !nameResult.Exists() || nameResult.Value() == nil || nameResult.Type != gjson.String {
		return nil, fmt.Errorf("%w (input key %s)", ErrNameNotResolved, nameMapping.InputKey)
	}
	name := nameResult.String()

	payload, err := BuildPayload(source, mappings)
	if err != nil {
		return nil, err
	}
	s.debugf("built payload: %s", payload)

	existing, err := s.API.SearchByName(name, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search for person %w", err)
	}

	if existing == nil {
		s.infof("no match for %q, creating person", name)
		person, err := s.API.Create(payload, ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create person %w", err)
		}
		return person, nil
	}

	s.infof("found existing person %d for %q, updating", existing.ID, name)
	person, err := s.API.Update(existing.ID, payload, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update person %d %w", existing.ID, err)
	}
	return person, nil
}

func (s Syncer) infof(format string, args ...interface{}) {
	if s.Log != nil {
		s.Log.Infof(format, args...)
	}
}

func (s Syncer) debugf(format string, args ...interface{}) {
	if s.Log != nil {
		s.Log.Debugf(format, args...)
	}
}

// classifyError inspects the structured status carried by APIError and
// remaps well known failure classes. Anything without transport metadata
// propagates unchanged.
func classifyError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.StatusCode == 401:
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	case apiErr.StatusCode == 403:
		return fmt.Errorf("%w: %v", ErrPermission, err)
	case apiErr.StatusCode == 429:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case apiErr.StatusCode >= 500:
		return fmt.Errorf("%w: %v", ErrRemoteServer, err)
	case apiErr.Connectivity():
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return err
}
