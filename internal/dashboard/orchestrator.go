package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"happinessdash/internal/backend"
	"happinessdash/internal/happiness"
)

const (
	// GenericFailureMessage is shown when the backend reports a failure without a message.
	GenericFailureMessage = "failed to fetch data (status not success)"
	// NoResponseMessage is shown when the backend could not be reached at all.
	NoResponseMessage = "No response from the server. Check that the backend server is running."
)

// Orchestrator runs user-initiated fetches against the endpoint chain and
// records the outcome in the store.
type Orchestrator struct {
	chain *EndpointChain
	store *Store
	now   func() time.Time
	newID func() string
}

// NewOrchestrator constructs an orchestrator over chain writing into store.
func NewOrchestrator(chain *EndpointChain, store *Store) (*Orchestrator, error) {
	if chain == nil {
		return nil, eris.New("orchestrator requires an endpoint chain")
	}
	if store == nil {
		return nil, eris.New("orchestrator requires a store")
	}
	return &Orchestrator{chain: chain, store: store, now: time.Now, newID: uuid.NewString}, nil
}

// Store returns the store the orchestrator writes to.
func (o *Orchestrator) Store() *Store { return o.store }

// FetchData requests results for sourceURL (the backend default dataset when
// empty) and returns the resulting state. Failures never escape: they are
// converted to the state's error string.
func (o *Orchestrator) FetchData(ctx context.Context, sourceURL string) State {
	id := o.begin()
	return o.run(ctx, id, sourceURL)
}

// Start marks the store as loading before returning and runs the fetch in
// the background. The final state is delivered on the returned channel.
// In-flight fetches are never cancelled; the last one to finish wins.
func (o *Orchestrator) Start(ctx context.Context, sourceURL string) <-chan State {
	id := o.begin()
	done := make(chan State, 1)
	go func() {
		done <- o.run(ctx, id, sourceURL)
	}()
	return done
}

// Retry repeats a fetch of the default dataset.
func (o *Orchestrator) Retry(ctx context.Context) State {
	return o.FetchData(ctx, "")
}

func (o *Orchestrator) begin() string {
	id := o.newID()
	o.store.Dispatch(FetchStarted{FetchID: id})
	return id
}

func (o *Orchestrator) run(ctx context.Context, id, sourceURL string) State {
	ctx = backend.WithRequestID(ctx, id)
	log := zap.L().With(zap.String("fetch_id", id), zap.String("source_url", sourceURL))

	primary := o.chain.Primary()
	log.Info("fetching results", zap.String("endpoint", primary.Name))

	payload, err := primary.Processor.Process(ctx, sourceURL)
	if err == nil && payload == nil {
		payload = &happiness.Payload{}
	}
	if err == nil {
		if payload.OK() {
			log.Info("results fetched", zap.String("endpoint", primary.Name))
			return o.succeed(payload.Results, sourceURL, primary.Name)
		}
		message := payload.Message
		if message == "" {
			message = GenericFailureMessage
		}
		log.Warn("backend reported failure",
			zap.String("status", payload.Status),
			zap.String("message", payload.Message),
		)
		return o.store.Dispatch(FetchFailed{Message: message, At: o.now()})
	}

	var noResponse *backend.NoResponseError
	timedOut := errors.As(err, &noResponse) && noResponse.Timeout()
	log.Warn("primary endpoint failed",
		zap.String("endpoint", primary.Name),
		zap.Bool("timeout", timedOut),
		zap.Error(err),
	)

	for _, fb := range o.chain.Fallbacks() {
		fbPayload, fbErr := fb.Processor.Process(ctx, sourceURL)
		if fbErr != nil {
			log.Error("fallback endpoint failed", zap.String("endpoint", fb.Name), zap.Error(fbErr))
			continue
		}
		if fbPayload == nil {
			fbPayload = &happiness.Payload{}
		}
		if !fbPayload.OK() {
			log.Error("fallback endpoint reported failure",
				zap.String("endpoint", fb.Name),
				zap.String("status", fbPayload.Status),
				zap.String("message", fbPayload.Message),
			)
			continue
		}
		log.Info("results fetched via fallback", zap.String("endpoint", fb.Name))
		return o.succeed(fbPayload.Results, sourceURL, fb.Name)
	}

	return o.store.Dispatch(FetchFailed{Message: DescribeFailure(err), At: o.now()})
}

func (o *Orchestrator) succeed(results *happiness.Results, sourceURL, endpoint string) State {
	return o.store.Dispatch(FetchSucceeded{
		Results:   results,
		SourceURL: sourceURL,
		Endpoint:  endpoint,
		At:        o.now(),
	})
}

// DescribeFailure converts a transport failure into the user-visible message.
func DescribeFailure(err error) string {
	if err == nil {
		return ""
	}

	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		message := statusErr.Message
		if message == "" {
			message = fmt.Sprintf("request failed with status code %d", statusErr.StatusCode)
		}
		return fmt.Sprintf("API error (%d): %s", statusErr.StatusCode, message)
	}

	var noResponse *backend.NoResponseError
	if errors.As(err, &noResponse) {
		return NoResponseMessage
	}

	return "API request error: " + err.Error()
}
