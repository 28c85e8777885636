package internal

import (
	"mangrovewatch/report-api/aws"
	"mangrovewatch/report-api/internal/service"
	"mangrovewatch/report-api/internal/store"
	"mangrovewatch/report-api/pkg/security"

	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Store    *store.Store
	Argon    *security.ArgonHash
	Tokens   *security.TokenIssuer
	Accounts *service.Accounts
	Reports  *service.Reports
	S3       *aws.S3Client // nil unless photos are kept in object storage

	SecureCookies bool
}
