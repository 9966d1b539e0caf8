package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/dogwatchapp/dogwatch/internal/model"
	"github.com/dogwatchapp/dogwatch/internal/reminder"
)

// Config holds agent configuration.
type Config struct {
	ServerURL    string
	Token        string
	PollInterval time.Duration
}

// Client is a minimal API client for the DogWatch server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(serverURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Appointments fetches the household's appointments.
func (c *Client) Appointments(ctx context.Context) ([]model.Appointment, error) {
	var out []model.Appointment
	if err := c.get(ctx, "/api/appointments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tasks fetches the household's recurring tasks. The server includes
// computed due fields on the wire; only the task columns are needed here.
func (c *Client) Tasks(ctx context.Context) ([]model.RecurringTask, error) {
	var out []model.RecurringTask
	if err := c.get(ctx, "/api/tasks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Agent keeps local reminder timers in line with the server. It polls on
// an interval and additionally refreshes when the server's live feed
// reports a change. A change event triggers a full reconcile pass, which
// also retires reminders for items completed elsewhere; hosts that
// complete an item locally can call the reconciler's CancelAllForItem for
// immediate teardown instead of waiting on that pass.
type Agent struct {
	cfg        Config
	client     *Client
	reconciler *reminder.Reconciler
	logger     *slog.Logger

	nudge chan struct{}
}

func New(cfg Config, client *Client, reconciler *reminder.Reconciler, logger *slog.Logger) *Agent {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	return &Agent{
		cfg:        cfg,
		client:     client,
		reconciler: reconciler,
		logger:     logger,
		nudge:      make(chan struct{}, 1),
	}
}

// Run blocks until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.reconciler.CleanupExpired(time.Now()); err != nil {
		a.logger.Warn("cleanup expired reminders", "error", err)
	}

	go a.listen(ctx)

	if err := a.Refresh(ctx); err != nil {
		a.logger.Error("initial refresh", "error", err)
	}

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-a.nudge:
		}
		if err := a.Refresh(ctx); err != nil {
			a.logger.Error("refresh", "error", err)
		}
	}
}

// Refresh fetches current appointments and tasks and reconciles the local
// timers against them. Fetches are retried with backoff so a brief network
// blip does not tear down existing reminders.
func (a *Agent) Refresh(ctx context.Context) error {
	var appointments []model.Appointment
	var tasks []model.RecurringTask

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		if appointments, err = a.client.Appointments(ctx); err != nil {
			return retry.RetryableError(err)
		}
		if tasks, err = a.client.Tasks(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("fetch schedule: %w", err)
	}

	targets := reminder.BuildTargets(appointments, tasks, time.Now())
	if err := a.reconciler.Sync(targets); err != nil {
		return fmt.Errorf("sync reminders: %w", err)
	}

	a.logger.Debug("reminders reconciled",
		"appointments", len(appointments), "tasks", len(tasks), "targets", len(targets))
	return nil
}

// listen holds a websocket open to the server and turns every change
// event into a refresh nudge. Reconnects with a fixed delay; polling
// covers any events missed while disconnected.
func (a *Agent) listen(ctx context.Context) {
	wsURL := strings.Replace(a.client.baseURL, "http", "ws", 1) + "/ws?token=" + a.cfg.Token

	for ctx.Err() == nil {
		conn, _, err := websocket.Dial(ctx, wsURL, nil)
		if err != nil {
			a.logger.Debug("websocket dial", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(30 * time.Second):
			}
			continue
		}

		for {
			if _, _, err := conn.Read(ctx); err != nil {
				conn.Close(websocket.StatusNormalClosure, "")
				break
			}
			select {
			case a.nudge <- struct{}{}:
			default:
			}
		}
	}
}
