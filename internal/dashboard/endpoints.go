package dashboard

import (
	"context"
	"os"

	"github.com/rotisserie/eris"

	"happinessdash/internal/backend"
	"happinessdash/internal/happiness"
)

// Endpoint is a named strategy for obtaining a results payload.
type Endpoint struct {
	Name      string
	Processor backend.Processor
}

// EndpointChain keeps the endpoints in the order they are tried. The first
// endpoint is the primary; the rest are fallbacks.
type EndpointChain struct {
	endpoints []Endpoint
}

// NewEndpointChain builds a chain with the provided endpoints.
func NewEndpointChain(endpoints ...Endpoint) (*EndpointChain, error) {
	if len(endpoints) == 0 {
		return nil, eris.New("dashboard: at least one endpoint is required")
	}
	for i, ep := range endpoints {
		if ep.Processor == nil {
			return nil, eris.Errorf("dashboard: endpoint %d (%s) has no processor", i, ep.Name)
		}
	}
	return &EndpointChain{endpoints: endpoints}, nil
}

// Primary returns the first endpoint.
func (c *EndpointChain) Primary() Endpoint { return c.endpoints[0] }

// Fallbacks returns the endpoints tried after the primary fails.
func (c *EndpointChain) Fallbacks() []Endpoint { return c.endpoints[1:] }

// FileProcessor serves a saved results payload from a JSON file. The source
// URL is ignored.
type FileProcessor struct {
	path string
}

// NewFileProcessor returns a FileProcessor reading path.
func NewFileProcessor(path string) (*FileProcessor, error) {
	if path == "" {
		return nil, eris.New("file processor requires a path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrap(err, "file processor")
	}
	return &FileProcessor{path: path}, nil
}

// Process reads and decodes the payload file.
func (f *FileProcessor) Process(ctx context.Context, _ string) (*happiness.Payload, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return happiness.ReadPayloadFile(f.path)
}
