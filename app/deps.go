package app

import (
	"context"
	"fmt"

	"mangrovewatch/report-api/aws"
	"mangrovewatch/report-api/db"
	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/internal/service"
	"mangrovewatch/report-api/internal/store"
	"mangrovewatch/report-api/pkg/security"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewDeps builds every dependency from the loaded configuration.
func NewDeps(ctx context.Context) (*internal.Deps, error) {
	gdb, err := db.New(viper.GetString("database.driver"), viper.GetString("database.dsn"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	d := &internal.Deps{
		DB:            gdb,
		Store:         store.New(gdb),
		Argon:         security.New(),
		Tokens:        security.NewTokenIssuer(viper.GetString("jwt.secret"), viper.GetDuration("jwt.expiry")),
		SecureCookies: viper.GetBool("host.ssl_enabled"),
	}

	var photos service.PhotoStore
	if viper.GetString("storage.type") == "s3" {
		s3, err := aws.NewS3(ctx, aws.S3Config{
			AccessKey:       viper.GetString("aws.access_key"),
			SecretAccessKey: viper.GetString("aws.secret_access_key"),
			Region:          viper.GetString("aws.region"),
			Bucket:          viper.GetString("aws.bucket"),
			Endpoint:        viper.GetString("aws.endpoint"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		d.S3 = s3
		photos = s3
	}

	var mailer service.Mailer = service.DisabledMailer{}
	if host := viper.GetString("mail.host"); host != "" {
		mailer = service.NewSMTPMailer(service.MailConfig{
			Host:     host,
			Port:     viper.GetInt("mail.port"),
			Username: viper.GetString("mail.username"),
			Password: viper.GetString("mail.password"),
			Sender:   viper.GetString("mail.sender"),
			Timeout:  viper.GetDuration("mail.timeout"),
		})
	}

	d.Accounts = service.NewAccounts(
		d.Store.Users,
		d.Argon,
		d.Tokens,
		service.NewOTPIssuer(service.DefaultOTPTTL),
		mailer,
		service.AccountOptions{ExposeOTP: viper.GetBool("app.expose_dev_otp")},
	)
	d.Reports = service.NewReports(d.Store.Reports, photos)

	zap.L().Debug("Dependencies ready",
		zap.String("driver", viper.GetString("database.driver")),
		zap.String("storage", viper.GetString("storage.type")),
	)

	return d, nil
}
