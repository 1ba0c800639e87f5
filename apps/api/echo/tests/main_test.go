package tests

import (
	"io/ioutil"
	"log"
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/keneanapp/kenean/core"
	"github.com/keneanapp/kenean/core/catalog"
	"github.com/keneanapp/kenean/core/user"
	logsvc "github.com/keneanapp/kenean/services/logger"
)

var (
	conf       *core.Config
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator

	errMissingToken  = httpErr{Error: "missing or malformed jwt"}
	errPermDenied    = httpErr{Error: "permission denied"}
	errAuthFailed    = httpErr{Error: "authentication failed"}
	errBannedAccount = httpErr{Error: "account banned"}
)

func TestMain(m *testing.M) {
	conf = &core.Config{
		TestMode:                  true,
		Env:                       "TEST",
		AppName:                   "Kenean",
		SecretKey:                 []byte("ssssshhh!"),
		FrontendBaseURL:           "http://localhost:3000",
		DefaultFromEmail:          mail.Address{Name: "Kenean", Address: "noreply@test.test"},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        1 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}

	rollbarLogger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	rollbarLogger.Enable(false)
	logger = rollbarLogger

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	validate = validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	catalog.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	os.Exit(m.Run())
}
