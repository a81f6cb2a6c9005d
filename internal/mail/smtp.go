package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Config SMTP 配置
type Config struct {
	Host     string `koanf:"host"`     // SMTP 服务器地址，为空时只写日志不发信
	Port     int    `koanf:"port"`     // 通常 587 (STARTTLS) 或 25
	Username string `koanf:"username"` // 登录账号
	Password string `koanf:"password"` // 密码或授权码
	From     string `koanf:"from"`     // 发件人，如 "YaMDb <noreply@example.com>"
	UseTLS   bool   `koanf:"tls"`      // 是否 STARTTLS
}

// Message 邮件消息
type Message struct {
	From        string
	To          []string
	Subject     string
	Body        string
	ContentType string // 默认 text/plain
}

// Client SMTP 客户端
type Client struct {
	config  Config
	timeout time.Duration
}

// NewClient 创建 SMTP 客户端
func NewClient(config Config) *Client {
	if config.Port == 0 {
		config.Port = 587
	}
	return &Client{config: config, timeout: 10 * time.Second}
}

// Send 发送邮件
func (c *Client) Send(ctx context.Context, msg *Message) error {
	if msg.From == "" {
		msg.From = c.config.From
	}
	if msg.From == "" {
		return errors.New("发件人不能为空")
	}
	if len(msg.To) == 0 {
		return errors.New("收件人不能为空")
	}
	if msg.Subject == "" {
		return errors.New("邮件主题不能为空")
	}

	addr := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("连接 SMTP 服务器失败: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(c.timeout))
	}

	client, err := smtp.NewClient(conn, c.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SMTP 握手失败: %w", err)
	}
	defer client.Close()

	if c.config.UseTLS || c.config.Port == 587 {
		if err := client.StartTLS(&tls.Config{ServerName: c.config.Host}); err != nil {
			return fmt.Errorf("启动 TLS 失败: %w", err)
		}
	}

	if c.config.Username != "" {
		auth := smtp.PlainAuth("", c.config.Username, c.config.Password, c.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP 认证失败: %w", err)
		}
	}

	if err := client.Mail(envelopeAddress(msg.From)); err != nil {
		return fmt.Errorf("设置发件人失败: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("设置收件人失败: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("准备发送邮件内容失败: %w", err)
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		return fmt.Errorf("写入邮件内容失败: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("关闭邮件内容写入失败: %w", err)
	}

	return client.Quit()
}

// Bytes 按 RFC 5322 组装邮件，头部顺序固定
func (m *Message) Bytes() []byte {
	contentType := m.ContentType
	if contentType == "" {
		contentType = "text/plain; charset=UTF-8"
	}

	var buf bytes.Buffer
	writeHeader := func(k, v string) {
		buf.WriteString(k)
		buf.WriteString(": ")
		buf.WriteString(v)
		buf.WriteString("\r\n")
	}
	writeHeader("From", m.From)
	writeHeader("To", strings.Join(m.To, ", "))
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", contentType)
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return buf.Bytes()
}

// envelopeAddress 从 "Name <addr>" 中取出地址
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}
