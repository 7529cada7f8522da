package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "os"
  "time"

  "github.com/supplier-portal/assistant-backend/internal/logger"
)

type ModelService interface {
  Query(ctx context.Context, query string) (ModelResponse, error)
}

type ModelResponse struct {
  Answer        string `json:"answer"`
  NeedsOperator bool   `json:"needs_operator"`
}

type modelService struct {
  log     *logger.Logger
  client  *http.Client
  baseURL string
  apiKey  string
}

// NewModelService wires the remote semantic-search model. The service is
// optional: when MODEL_API_URL is unset the constructor returns nil and the
// assistant answers from its keyword knowledge base alone.
func NewModelService(log *logger.Logger) (ModelService, error) {
  serviceLog := log.With("service", "ModelService")
  baseURL := os.Getenv("MODEL_API_URL")
  if baseURL == "" {
    return nil, fmt.Errorf("missing MODEL_API_URL environment variable")
  }
  apiKey := os.Getenv("MODEL_API_KEY")
  if apiKey == "" {
    serviceLog.Warn("MODEL_API_KEY not set; calls might fail or be unauthorized")
  }
  httpClient := &http.Client{
    Timeout: 15 * time.Second,
  }
  return &modelService{
    log:     serviceLog,
    client:  httpClient,
    baseURL: baseURL,
    apiKey:  apiKey,
  }, nil
}

func (ms *modelService) Query(ctx context.Context, query string) (ModelResponse, error) {
  var out ModelResponse

  payload, err := json.Marshal(map[string]string{"query": query})
  if err != nil {
    return out, err
  }
  reqURL := fmt.Sprintf("%s/api/ai-query", ms.baseURL)
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
  if err != nil {
    ms.log.Warn("failed to build new request", "error", err)
    return out, err
  }
  req.Header.Set("Content-Type", "application/json")
  if ms.apiKey != "" {
    req.Header.Set("Authorization", "Bearer "+ms.apiKey)
  }
  resp, err := ms.client.Do(req)
  if err != nil {
    ms.log.Warn("failed to call model api", "error", err)
    return out, err
  }
  defer resp.Body.Close()

  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    bodyBytes, _ := io.ReadAll(resp.Body)
    ms.log.Warn("model api responded with non-2xx", "statusCode", resp.StatusCode, "body", string(bodyBytes))
    return out, fmt.Errorf("model api HTTP %d: %s", resp.StatusCode, string(bodyBytes))
  }
  bodyBytes, err := io.ReadAll(resp.Body)
  if err != nil {
    ms.log.Warn("failed to read model api response body", "error", err)
    return out, err
  }
  if err := json.Unmarshal(bodyBytes, &out); err != nil {
    ms.log.Warn("failed to decode model api response body", "error", err)
    return out, err
  }
  return out, nil
}
