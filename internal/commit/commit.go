package commit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/speedwagon-io/sensord/internal/model"
)

const recordPath = "/api/record"

// Committer stores a record remotely and returns the server's correlation id.
type Committer interface {
	Commit(ctx context.Context, record model.Record) (uuid.UUID, error)
	Health(ctx context.Context) error
}

// HTTPCommitter implements the PUT {host}/api/record protocol. It neither
// retries nor sets a timeout; deadlines come from ctx or the supplied client.
type HTTPCommitter struct {
	log    *slog.Logger
	host   string
	client *http.Client
}

func NewHTTPCommitter(log *slog.Logger, host string, client *http.Client) *HTTPCommitter {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPCommitter{
		log:    log,
		host:   strings.TrimRight(host, "/"),
		client: client,
	}
}

func (c *HTTPCommitter) URL() string {
	return c.host + recordPath
}

func (c *HTTPCommitter) Commit(ctx context.Context, record model.Record) (uuid.UUID, error) {
	data, err := record.ToJSON()
	if err != nil {
		return uuid.Nil, fail(StageEncode, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.URL(), bytes.NewReader(data))
	if err != nil {
		return uuid.Nil, fail(StageRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return uuid.Nil, fail(StageTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return uuid.Nil, fail(StageTransport, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return uuid.Nil, fail(StageStatus, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, string(bytes.TrimSpace(body))))
	}

	id, err := parseAck(body)
	if err != nil {
		return uuid.Nil, err
	}

	c.log.Debug("record committed",
		slog.String("id", record.ID().String()),
		slog.String("record_id", id.String()),
	)

	return id, nil
}

// parseAck extracts record_id from {"record_id": "<uuid>"}.
func parseAck(body []byte) (uuid.UUID, error) {
	var reply map[string]any
	if err := json.Unmarshal(body, &reply); err != nil {
		return uuid.Nil, fail(StageDecode, err)
	}

	raw, ok := reply["record_id"].(string)
	if !ok {
		return uuid.Nil, fail(StageRecordID, ErrMissingRecordID)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fail(StageRecordID, err)
	}
	return id, nil
}

func (c *HTTPCommitter) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// LogCommitter logs records instead of sending them (dry run). The returned
// id is the record's own.
type LogCommitter struct {
	log *slog.Logger
}

func NewLogCommitter(log *slog.Logger) *LogCommitter {
	return &LogCommitter{log: log}
}

func (c *LogCommitter) Commit(ctx context.Context, record model.Record) (uuid.UUID, error) {
	data, err := record.ToJSON()
	if err != nil {
		return uuid.Nil, fail(StageEncode, err)
	}

	c.log.Info("COMMIT",
		slog.String("id", record.ID().String()),
		slog.String("type", string(record.Reading().Family())),
		slog.String("payload", string(data)),
	)

	return record.ID(), nil
}

func (c *LogCommitter) Health(ctx context.Context) error {
	return nil
}
