package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/user/yamdb/internal/logging"
)

const confirmationSubject = "YaMDb 确认码"

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
    <p>{{.Username}}，你好：</p>
    <p>你的确认码是：</p>
    <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
    <p>使用用户名和确认码调用 /api/v1/auth/token/ 换取访问令牌。</p>
    <p>如果不是你本人操作，请忽略此邮件。</p>
</body>
</html>
`))

// RenderConfirmation 渲染确认码邮件正文
func RenderConfirmation(username, code string) (string, error) {
	var buf bytes.Buffer
	data := struct{ Username, Code string }{username, code}
	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("渲染邮件模板失败: %w", err)
	}
	return buf.String(), nil
}

// sender 发送已组装好的邮件
type sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Mailer 通过 SMTP 发送确认码
type Mailer struct {
	client sender
}

// NewMailer 创建确认码发信器
func NewMailer(client *Client) *Mailer {
	return &Mailer{client: client}
}

// SendConfirmationCode 发送确认码邮件
func (m *Mailer) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	body, err := RenderConfirmation(username, code)
	if err != nil {
		return err
	}
	return m.client.Send(ctx, &Message{
		To:          []string{to},
		Subject:     confirmationSubject,
		Body:        body,
		ContentType: "text/html; charset=UTF-8",
	})
}

// LogMailer 开发环境使用：确认码只写入日志
type LogMailer struct{}

// SendConfirmationCode 记录确认码
func (LogMailer) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	logging.Ctx(ctx).Info().
		Str("to", to).
		Str("username", username).
		Str("confirmation_code", code).
		Msg("未配置 SMTP，确认码仅写入日志")
	return nil
}
