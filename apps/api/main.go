package main

import (
	"context"
	"expvar"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/keneanapp/kenean/apps/api/echo"
	"github.com/keneanapp/kenean/core"
	"github.com/keneanapp/kenean/core/catalog"
	"github.com/keneanapp/kenean/core/qa"
	"github.com/keneanapp/kenean/core/user"
	emailsvc "github.com/keneanapp/kenean/services/email"
	logsvc "github.com/keneanapp/kenean/services/logger"
	mediasvc "github.com/keneanapp/kenean/services/media"
	translatesvc "github.com/keneanapp/kenean/services/translate"
	"github.com/keneanapp/kenean/storage/database"
	inmemdb "github.com/keneanapp/kenean/storage/database/inmem"
	sqlxrepos "github.com/keneanapp/kenean/storage/database/sqlx"
)

func main() {
	inmem := flag.Bool("inmem", false, "run against in-memory repositories (dev only)")
	flag.Parse()

	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up repositories
	var (
		userRepo    user.Repository
		catalogRepo catalog.Repository
		qaRepo      qa.Repository
	)
	if *inmem {
		db := inmemdb.NewDB()
		userRepo = inmemdb.NewUserRepository(db)
		catalogRepo = inmemdb.NewCatalogRepository(db)
		qaRepo = inmemdb.NewQARepository(db)
	} else {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		userRepo = sqlxrepos.NewUserRepository(db)
		catalogRepo = sqlxrepos.NewCatalogRepository(db)
		qaRepo = sqlxrepos.NewQARepository(db)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}
	invalidator := core.NewNopInvalidator()
	usrSvc := user.NewService(userRepo, mailSvc, conf)
	catalogSvc := catalog.NewService(catalogRepo, invalidator)
	qaSvc := qa.NewService(qaRepo, catalogSvc, usrSvc, mailSvc, invalidator, conf)
	mediaSvc := mediasvc.NewCloudinaryService(logger, conf)
	translateSvc := translatesvc.NewGeminiService(logger, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	catalog.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			UserSvc:      usrSvc,
			CatalogSvc:   catalogSvc,
			QASvc:        qaSvc,
			MediaSvc:     mediaSvc,
			TranslateSvc: translateSvc,
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
