package data

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"

	"github.com/snapreply/snapreply/internal/biz/repo"
)

// feishuAlertRepo sends operator alerts as Feishu text messages
type feishuAlertRepo struct {
	client *lark.Client
	chatID string
}

// NewFeishuAlertRepo creates an alert repository posting into chatID.
// It returns nil when any credential is missing, which disables alerts.
func NewFeishuAlertRepo(appID, appSecret, chatID string) repo.AlertRepo {
	if appID == "" || appSecret == "" || chatID == "" {
		return nil
	}
	return &feishuAlertRepo{
		client: lark.NewClient(appID, appSecret),
		chatID: chatID,
	}
}

// Alert sends one alert line for a session
func (r *feishuAlertRepo) Alert(ctx context.Context, sessionID, text string) error {
	content := map[string]string{"text": fmt.Sprintf("[snapreply] session %s: %s", sessionID, text)}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(r.chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := r.client.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send alert failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send alert error: %s", resp.Msg)
	}
	return nil
}
