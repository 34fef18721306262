package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"happinessdash/internal/backend"
	"happinessdash/internal/config"
	"happinessdash/internal/dashboard"
)

// newEndpointChain returns the endpoints tried for every fetch: the backend
// directly with a timeout and no-cache headers, then the same-origin proxy
// path with neither. A payload file replaces the direct backend.
func newEndpointChain(c config.Config, payloadFile string) (*dashboard.EndpointChain, error) {
	var primary dashboard.Endpoint
	if payloadFile != "" {
		fp, err := dashboard.NewFileProcessor(payloadFile)
		if err != nil {
			return nil, eris.Wrap(err, "payload file")
		}
		primary = dashboard.Endpoint{Name: "file", Processor: fp}
		zap.L().Info("serving saved payload", zap.String("path", payloadFile))
	} else {
		primary = dashboard.Endpoint{
			Name:      "primary",
			Processor: backend.NewClient(c.BackendOrigin, backend.WithTimeout(c.PrimaryTimeout), backend.WithNoCache()),
		}
	}

	proxy := dashboard.Endpoint{Name: "proxy", Processor: backend.NewClient(c.ProxyOrigin)}
	return dashboard.NewEndpointChain(primary, proxy)
}

func newOrchestrator(c config.Config, payloadFile string) (*dashboard.Orchestrator, error) {
	chain, err := newEndpointChain(c, payloadFile)
	if err != nil {
		return nil, err
	}
	return dashboard.NewOrchestrator(chain, dashboard.NewStore(dashboard.State{}))
}
