package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

// publishMail 把邮件序列化后发送到消息队列，由 mail worker 负责真正发送
func (h *Handler) publishMail(msg domain.MailMessage) error {
	mailData, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.mailChannel.PublishWithContext(
		ctx,
		"",
		h.config.RabbitMQ.Queue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	)
}

// notifyAssigned 给工单中新增的被指派人和负责人发送站内通知和邮件，失败时只记录日志
func (h *Handler) notifyAssigned(ctx context.Context, job *domain.Job, userIDs []string) {
	for _, id := range userIDs {
		if _, err := h.stores.Notifications.AddNotification(ctx, domain.Notification{
			Type:        domain.NotificationJobAssigned,
			Title:       "你被分配了新工单",
			Description: job.Title,
			UserID:      id,
			JobID:       job.ID,
		}); err != nil {
			slog.Error("无法创建工单分配通知", "job", job.ID, "user", id, "error", err)
		}

		user, ok := h.stores.Users.GetUserByID(id)
		if !ok {
			continue
		}
		if err := h.publishMail(domain.MailMessage{
			Type: domain.MailTypeJobAssigned,
			To:   user.Email,
			Data: domain.JobAssignedMailData{
				Name:     user.Name,
				JobID:    job.ID,
				JobTitle: job.Title,
				Creator:  job.Creator.Name,
			},
		}); err != nil {
			slog.Error("无法发送工单分配邮件", "job", job.ID, "user", id, "error", err)
		}
	}
}

// notify 添加一条站内通知，失败时只记录日志
func (h *Handler) notify(ctx context.Context, n domain.Notification) {
	if _, err := h.stores.Notifications.AddNotification(ctx, n); err != nil {
		slog.Error("无法创建通知", "type", n.Type, "error", err)
	}
}
