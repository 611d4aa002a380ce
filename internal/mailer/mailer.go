// Package mailer 把队列中的 domain.MailMessage 渲染成可以发送的邮件
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

type mailTemplate struct {
	file    string
	subject string
}

var mailTemplates = map[string]mailTemplate{
	domain.MailTypeCreateUser:    {"new_account_email.html", "维修管理系统 - 账户信息"},
	domain.MailTypeResetPassword: {"reset_password_otp_email.html", "维修管理系统 - 重置密码"},
	domain.MailTypeChangeEmail:   {"change_email_email.html", "维修管理系统 - 修改邮箱"},
	domain.MailTypeJobAssigned:   {"job_assigned_email.html", "维修管理系统 - 新工单"},
}

type Builder struct {
	from      string
	templates map[string]*template.Template
}

func NewBuilder(from string) (*Builder, error) {
	b := &Builder{
		from:      from,
		templates: make(map[string]*template.Template, len(mailTemplates)),
	}
	for typ, mt := range mailTemplates {
		tmpl, err := template.ParseFS(templateFS, "templates/"+mt.file)
		if err != nil {
			return nil, fmt.Errorf("无法解析邮件模板 %s: %w", mt.file, err)
		}
		b.templates[typ] = tmpl
	}
	return b, nil
}

// Render 返回邮件的标题和 HTML 正文
func (b *Builder) Render(m domain.MailMessage) (string, string, error) {
	tmpl, ok := b.templates[m.Type]
	if !ok {
		return "", "", fmt.Errorf("不支持的邮件类型: %s", m.Type)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, m.Data); err != nil {
		return "", "", fmt.Errorf("无法渲染邮件正文: %w", err)
	}
	return mailTemplates[m.Type].subject, body.String(), nil
}

func (b *Builder) Build(m domain.MailMessage) (*mail.Msg, error) {
	subject, body, err := b.Render(m)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(b.from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}
