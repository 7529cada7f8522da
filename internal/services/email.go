package services

import (
  "context"
  "fmt"
  "os"

  "github.com/sendgrid/sendgrid-go"
  "github.com/sendgrid/sendgrid-go/helpers/mail"

  "github.com/supplier-portal/assistant-backend/internal/logger"
)

type EmailService interface {
  SendEmail(ctx context.Context, toEmail string, subject string, plainText string, htmlContent string) error
}

type emailService struct {
  log              *logger.Logger
  client           *sendgrid.Client
  fromSupportEmail string
}

func NewEmailService(log *logger.Logger) (EmailService, error) {
  serviceLog := log.With("Service", "EmailService")
  apiKey := os.Getenv("SENDGRID_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("Missing SENDGRID_API_KEY environment variable")
  }
  fromSupport := os.Getenv("SENDGRID_SUPPORT_EMAIL")
  if fromSupport == "" {
    serviceLog.Warn("SENDGRID_SUPPORT_EMAIL not set; using fallback no-reply@supplier-portal.ru")
    fromSupport = "no-reply@supplier-portal.ru"
  }
  client := sendgrid.NewSendClient(apiKey)

  return &emailService{
    log:              serviceLog,
    client:           client,
    fromSupportEmail: fromSupport,
  }, nil
}

func (es *emailService) SendEmail(ctx context.Context, toEmail string, subject string, plainText string, htmlContent string) error {
  from := mail.NewEmail("Портал поставщиков", es.fromSupportEmail)
  to := mail.NewEmail("", toEmail)
  message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
  response, err := es.client.SendWithContext(ctx, message)
  if err != nil {
    es.log.Warn("Sendgrid email send failed", "error", err)
    return err
  }
  es.log.Info("Email sent", "to", toEmail, "statusCode", response.StatusCode)
  return nil
}
