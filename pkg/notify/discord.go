package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	colorPassed = 0x7C3AED
	colorFailed = 0xEF4444

	KindReviewRequest = "review_request"
	KindRoleGrant     = "role_grant"
)

// SubmissionSummary 是发往 Discord 的提交摘要
type SubmissionSummary struct {
	ID          string
	UserID      string
	Username    string
	Email       string
	Score       float64
	Correct     int
	Total       int
	Passed      bool
	SubmittedAt time.Time
}

type Client struct {
	httpClient  *http.Client
	webhookURL  string
	botURL      string
	roleName    string
	frontendURL string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(webhookURL, botURL, roleName, frontendURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		webhookURL:  webhookURL,
		botURL:      strings.TrimRight(botURL, "/"),
		roleName:    roleName,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Timestamp string       `json:"timestamp"`
}

type button struct {
	Type     int    `json:"type"`
	Style    int    `json:"style"`
	Label    string `json:"label"`
	CustomID string `json:"custom_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

type actionRow struct {
	Type       int      `json:"type"`
	Components []button `json:"components"`
}

type webhookPayload struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []embed     `json:"embeds"`
	Components []actionRow `json:"components,omitempty"`
}

func (c *Client) reviewPayload(s SubmissionSummary) webhookPayload {
	result := "❌ Failed"
	color := colorFailed
	if s.Passed {
		result = "✅ Passed"
		color = colorPassed
	}

	buttons := []button{
		{Type: 2, Style: 3, Label: "Accept", CustomID: "approve_" + s.ID},
		{Type: 2, Style: 4, Label: "Deny", CustomID: "deny_" + s.ID},
	}
	if c.frontendURL != "" {
		buttons = append(buttons, button{Type: 2, Style: 5, Label: "Admin Panel", URL: c.frontendURL + "/admin"})
	}

	return webhookPayload{
		Embeds: []embed{{
			Title: "New Moderator Training Submission",
			Color: color,
			Fields: []embedField{
				{Name: "User", Value: fmt.Sprintf("%s (<@%s>)", s.Username, s.UserID), Inline: true},
				{Name: "Score", Value: fmt.Sprintf("%.0f%% (%d/%d)", s.Score, s.Correct, s.Total), Inline: true},
				{Name: "Result", Value: result, Inline: true},
				{Name: "Submission ID", Value: s.ID, Inline: false},
			},
			Timestamp: s.SubmittedAt.UTC().Format(time.RFC3339),
		}},
		Components: []actionRow{{Type: 1, Components: buttons}},
	}
}

// SendReviewRequest 把新提交推送到审核频道；未配置 webhook 时跳过。
func (c *Client) SendReviewRequest(ctx context.Context, s SubmissionSummary) error {
	if c.webhookURL == "" {
		return nil
	}
	return c.post(ctx, c.webhookURL, c.reviewPayload(s))
}

type roleGrantRequest struct {
	UserID   string `json:"user_id"`
	RoleName string `json:"role_name"`
}

// GrantRole 请求 bot 给用户分配角色；未配置 bot 地址时跳过。
func (c *Client) GrantRole(ctx context.Context, userID string) error {
	if c.botURL == "" {
		return nil
	}
	return c.post(ctx, c.botURL+"/api/assign-role", roleGrantRequest{UserID: userID, RoleName: c.roleName})
}

func (c *Client) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
