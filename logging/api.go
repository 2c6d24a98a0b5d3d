package logging

import (
	"context"
	"sync"

	"cloud.google.com/go/logging"
)

// API is the set of Cloud Logging operations used by Client.
type API interface {
	// LogSync writes e to the named log and waits for the service to accept it.
	LogSync(ctx context.Context, logID string, e logging.Entry) error
	Close() error
}

// sdkAPI adapts *logging.Client to API, keeping one Logger per log ID.
type sdkAPI struct {
	client *logging.Client

	mu      sync.Mutex
	loggers map[string]*logging.Logger
}

var _ API = (*sdkAPI)(nil)

func newSDKAPI(client *logging.Client) *sdkAPI {
	return &sdkAPI{
		client:  client,
		loggers: make(map[string]*logging.Logger),
	}
}

func (a *sdkAPI) logger(logID string) *logging.Logger {
	a.mu.Lock()
	defer a.mu.Unlock()

	if l, ok := a.loggers[logID]; ok {
		return l
	}
	l := a.client.Logger(logID)
	a.loggers[logID] = l
	return l
}

func (a *sdkAPI) LogSync(ctx context.Context, logID string, e logging.Entry) error {
	return a.logger(logID).LogSync(ctx, e)
}

func (a *sdkAPI) Close() error {
	return a.client.Close()
}
