package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds time-tracking API client configuration
type Config struct {
	BaseURL      string
	AccountID    string
	AccessToken  string
	CategoryID   int64
	CategoryName string
	ExpenseNote  string
	Timeout      time.Duration
}

// Client talks to the Harvest-style time-tracking API: expense posting,
// user-to-project assignment and the expense-category active flag.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a new time-tracking API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// PostExpense posts one expense. The API answers 201 Created on success;
// anything else is returned as an error carrying the status and body so
// it can be recorded verbatim against the row.
func (c *Client) PostExpense(ctx context.Context, personID, projectID int64, spentDate time.Time, amount decimal.Decimal, billable bool) error {
	payload := map[string]interface{}{
		"expense_category_id": strconv.FormatInt(c.cfg.CategoryID, 10),
		"user_id":             strconv.FormatInt(personID, 10),
		"project_id":          strconv.FormatInt(projectID, 10),
		"spent_date":          spentDate.Format("2006-01-02"),
		"total_cost":          amount.String(),
		"notes":               c.cfg.ExpenseNote,
		"billable":            billable,
	}

	status, body, err := c.post(ctx, c.cfg.BaseURL+"/v2/expenses", payload)
	if err != nil {
		return fmt.Errorf("failed to post expense: %w", err)
	}
	if status != http.StatusCreated {
		return fmt.Errorf("expense rejected: %d %s", status, body)
	}
	return nil
}

// CreateUserAssignment links a person to a project so expenses can be
// booked against it. The API answers 201 Created on success.
func (c *Client) CreateUserAssignment(ctx context.Context, personID, projectID int64) error {
	url := fmt.Sprintf("%s/v2/projects/%d/user_assignments", c.cfg.BaseURL, projectID)
	payload := map[string]interface{}{
		"user_id": strconv.FormatInt(personID, 10),
	}

	status, body, err := c.post(ctx, url, payload)
	if err != nil {
		return fmt.Errorf("failed to create user assignment: %w", err)
	}
	if status != http.StatusCreated {
		return fmt.Errorf("user assignment rejected: %d %s", status, body)
	}
	return nil
}

// SetCategoryActive toggles the shared expense category's active flag.
// The API only accepts postings to the category while it is active.
func (c *Client) SetCategoryActive(ctx context.Context, active bool) error {
	url := fmt.Sprintf("%s/v2/expense_categories/%d", c.cfg.BaseURL, c.cfg.CategoryID)

	body, err := json.Marshal(map[string]interface{}{"is_active": active})
	if err != nil {
		return fmt.Errorf("failed to marshal category update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build category request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update expense category: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("category update rejected: %d %s", resp.StatusCode, respBody)
	}

	c.logger.Debug("Expense category toggled",
		zap.Int64("category_id", c.cfg.CategoryID),
		zap.Bool("active", active))
	return nil
}

func (c *Client) post(ctx context.Context, url string, payload map[string]interface{}) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(bytes.TrimSpace(respBody)), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Harvest-Account-Id", c.cfg.AccountID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "expense-pipeline")
}
