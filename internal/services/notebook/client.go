package notebook

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/common"
)

// consecutiveFailureLimit is how many protocol failures in a row trigger a
// session reset. A single failed call never invalidates the session, to avoid
// session-thrashing on transient errors.
const consecutiveFailureLimit = 3

// protocolClient is the slice of the MCP client the adapter depends on.
// *client.Client satisfies it; tests substitute a fake.
type protocolClient interface {
	Start(ctx context.Context) error
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Service wraps the local NotebookLM MCP server. The session is process-wide
// mutable state owned by this instance: lazily created, reused across calls,
// and invalidated only after repeated protocol failures.
type Service struct {
	config     *common.NotebookConfig
	logger     arbor.ILogger
	httpClient *http.Client

	healthTimeout time.Duration
	initTimeout   time.Duration
	callTimeout   time.Duration

	// newClient is swappable for tests
	newClient func() (protocolClient, error)

	mu        sync.Mutex
	client    protocolClient
	sessionID string
	failures  int
}

// NewService creates a local backend adapter for the given endpoint settings
func NewService(config *common.NotebookConfig, logger arbor.ILogger) *Service {
	healthTimeout := common.Duration(config.HealthTimeout, 5*time.Second)

	s := &Service{
		config:        config,
		logger:        logger,
		httpClient:    &http.Client{Timeout: healthTimeout},
		healthTimeout: healthTimeout,
		initTimeout:   common.Duration(config.InitTimeout, 10*time.Second),
		callTimeout:   common.Duration(config.CallTimeout, 120*time.Second),
	}
	s.newClient = func() (protocolClient, error) {
		return client.NewStreamableHttpClient(config.Endpoint)
	}
	return s
}

// ensureSession establishes the MCP session once and reuses it. Idempotent:
// a held session id is returned as-is without a second handshake.
func (s *Service) ensureSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil && s.sessionID != "" {
		return s.sessionID, nil
	}

	c, err := s.newClient()
	if err != nil {
		return "", fmt.Errorf("failed to create MCP client: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, s.initTimeout)
	defer cancel()

	if err := c.Start(initCtx); err != nil {
		c.Close()
		return "", fmt.Errorf("failed to start MCP transport: %w", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "studiogen",
		Version: common.GetVersion(),
	}

	result, err := c.Initialize(initCtx, initRequest)
	if err != nil {
		c.Close()
		return "", fmt.Errorf("MCP session handshake failed: %w", err)
	}

	s.client = c
	s.sessionID = "sess_" + uuid.New().String()
	s.failures = 0

	s.logger.Info().
		Str("session_id", s.sessionID).
		Str("server", result.ServerInfo.Name).
		Str("server_version", result.ServerInfo.Version).
		Msg("NotebookLM session established")

	return s.sessionID, nil
}

// callTool performs one request/response tool exchange over the established
// session and parses the reply.
func (s *Service) callTool(ctx context.Context, name string, args map[string]any) (*ParsedResponse, error) {
	if _, err := s.ensureSession(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	c := s.client
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	s.logger.Debug().Str("tool", name).Msg("Calling NotebookLM tool")

	result, err := c.CallTool(callCtx, request)
	if err != nil {
		s.recordFailure(name, err)
		return nil, fmt.Errorf("tool %s failed: %w", name, err)
	}
	if result.IsError {
		err := fmt.Errorf("tool %s returned error: %s", name, textOf(result))
		s.recordFailure(name, err)
		return nil, err
	}

	s.mu.Lock()
	s.failures = 0
	s.mu.Unlock()

	return ParseToolResult(result), nil
}

// recordFailure counts consecutive protocol failures and resets the session
// once the limit is reached.
func (s *Service) recordFailure(tool string, err error) {
	s.mu.Lock()
	s.failures++
	failures := s.failures
	s.mu.Unlock()

	s.logger.Warn().
		Err(err).
		Str("tool", tool).
		Int("consecutive_failures", failures).
		Msg("NotebookLM tool call failed")

	if failures >= consecutiveFailureLimit {
		s.logger.Warn().
			Int("failures", failures).
			Msg("Resetting NotebookLM session after repeated protocol failures")
		s.ResetSession()
	}
}

// ResetSession clears the cached session; the next call re-initializes
func (s *Service) ResetSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Error closing MCP client during reset")
		}
	}
	s.client = nil
	s.sessionID = ""
	s.failures = 0
}

// HealthCheck probes the lightweight unauthenticated health endpoint with a
// bounded timeout, separate from the session-bearing protocol.
func (s *Service) HealthCheck(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, s.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(healthCtx, http.MethodGet, s.config.HealthURL, nil)
	if err != nil {
		return fmt.Errorf("invalid health URL: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
