package approval

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/bizscan/internal/llm"
)

// Notice is what an approver receives.
type Notice struct {
	Session    Session
	ApproveURL string
	DenyURL    string
}

// Notifier delivers a Notice to whoever decides.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// LogNotifier writes the notice to the log. Used when no webhook is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notice) error {
	l.logger.Info("approval.notice",
		"session_id", n.Session.ID,
		"requester", n.Session.Requester,
		"file_count", n.Session.FileCount,
		"approve_url", n.ApproveURL,
		"deny_url", n.DenyURL,
		"expires_at", n.Session.ExpiresAt,
	)
	return nil
}

// DiscordNotifier posts an embed with approve and deny links to a webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
	location   *time.Location
}

func NewDiscordNotifier(webhookURL string, client *http.Client, logger *slog.Logger) *DiscordNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		loc = time.FixedZone("KST", 9*60*60)
	}
	return &DiscordNotifier{webhookURL: webhookURL, client: client, logger: logger, location: loc}
}

type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []DiscordField `json:"fields"`
	Timestamp   string         `json:"timestamp"`
	Footer      struct {
		Text string `json:"text"`
	} `json:"footer"`
}

type DiscordMessage struct {
	Content string         `json:"content"`
	Embeds  []DiscordEmbed `json:"embeds"`
}

// Message builds the webhook payload for n.
func (d *DiscordNotifier) Message(n Notice) DiscordMessage {
	minutes := int(n.Session.ExpiresAt.Sub(n.Session.CreatedAt).Round(time.Minute).Minutes())
	embed := DiscordEmbed{
		Title: "BizScan 분석 승인 요청",
		Color: 0xFF6B6B,
		Fields: []DiscordField{
			{Name: "접속 IP", Value: n.Session.Requester, Inline: true},
			{Name: "요청 시간", Value: n.Session.CreatedAt.In(d.location).Format("2006-01-02 15:04:05"), Inline: true},
			{Name: "파일 수", Value: fmt.Sprintf("%d개", n.Session.FileCount), Inline: true},
		},
		Description: fmt.Sprintf("**승인 또는 거부를 선택하세요:**\n\n**[승인하기](%s)**\n\n**[거부하기](%s)**\n\n**%d분 내 응답 필요**",
			n.ApproveURL, n.DenyURL, minutes),
		Timestamp: n.Session.CreatedAt.UTC().Format(time.RFC3339),
	}
	embed.Footer.Text = "BizScan OCR Service"
	return DiscordMessage{Content: "@everyone", Embeds: []DiscordEmbed{embed}}
}

func (d *DiscordNotifier) Notify(ctx context.Context, n Notice) error {
	_, _, err := llm.SendJSON(ctx, d.client, d.webhookURL, d.Message(n), nil, d.logger)
	if err != nil {
		d.logger.Error("approval.discord.failed", "session_id", n.Session.ID, "error", err)
		return fmt.Errorf("discord webhook: %w", err)
	}
	d.logger.Info("approval.discord.sent", "session_id", n.Session.ID)
	return nil
}
