package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/clinic-intake/internal/config"
	"github.com/wolfman30/clinic-intake/internal/notify"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

// AWSLoader resolves the shared AWS SDK config on first use.
type AWSLoader func(ctx context.Context) (aws.Config, error)

// BuildEmailSender picks the confirmation transport from EMAIL_PROVIDER.
// "auto" prefers SendGrid when a key is set and falls back to the stub
// outside production. A nil sender means confirmations are reported as unsent.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (notify.EmailSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	provider := cfg.EmailProvider
	if provider == "" || provider == "auto" {
		switch {
		case strings.TrimSpace(cfg.SendGridAPIKey) != "":
			provider = "sendgrid"
		case cfg.Env == "production":
			provider = "none"
		default:
			provider = "stub"
		}
	}

	switch provider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("bootstrap: EMAIL_PROVIDER=sendgrid needs SENDGRID_API_KEY")
		}
		logger.Info("email provider configured", "provider", provider)
		return sender, nil
	case "ses":
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: EMAIL_PROVIDER=ses needs AWS config")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		logger.Info("email provider configured", "provider", provider, "region", awsCfg.Region)
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger), nil
	case "stub":
		logger.Info("email provider configured", "provider", provider)
		return notify.NewStubEmailSender(logger), nil
	case "none":
		logger.Warn("no email provider configured; confirmations will not be sent")
		return nil, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", provider)
	}
}

// BuildIntakeForm returns the attachment source for confirmation emails.
// An S3 bucket and key take precedence over the local path.
func BuildIntakeForm(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (notify.Document, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.IntakeFormS3Bucket != "" && cfg.IntakeFormS3Key != "" {
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: s3 intake form needs AWS config")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		})
		logger.Info("intake form source", "bucket", cfg.IntakeFormS3Bucket, "key", cfg.IntakeFormS3Key)
		return notify.S3Document{Client: client, Bucket: cfg.IntakeFormS3Bucket, Key: cfg.IntakeFormS3Key}, nil
	}
	if cfg.IntakeFormPath == "" {
		return nil, nil
	}
	logger.Info("intake form source", "path", cfg.IntakeFormPath)
	return notify.FileDocument{Path: cfg.IntakeFormPath}, nil
}
