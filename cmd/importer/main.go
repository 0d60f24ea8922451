// Package main - загрузка студентов, предметов и оценок из xlsx в MongoDB.
//
// Использование:
//
//	importer -template college.xlsx   # пустая книга с листами и заголовками
//	importer -file college.xlsx       # импорт в базу из COLLEGE_CONFIG_FILE / env
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Java42-DashaShamis/college-mongo/config"
	"github.com/Java42-DashaShamis/college-mongo/internal/application/command"
	mongostore "github.com/Java42-DashaShamis/college-mongo/internal/infrastructure/persistence/mongo"
	"github.com/Java42-DashaShamis/college-mongo/internal/infrastructure/spreadsheet"
	"github.com/Java42-DashaShamis/college-mongo/pkg/logger"
)

func main() {
	file := flag.String("file", "", "xlsx workbook to import")
	template := flag.String("template", "", "write an empty import workbook to this path and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case *template != "":
		err = writeTemplate(*template)
	case *file != "":
		err = importFile(ctx, *file)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func writeTemplate(path string) error {
	f, err := spreadsheet.NewTemplate()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func importFile(ctx context.Context, path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.App.Storage != config.StorageMongo {
		return errors.New("importer writes to mongo only, set APP_STORAGE=mongo")
	}

	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Format = cfg.Observability.LogFormat
	log := logger.New(opts).With(logger.String("service", "college-importer"))
	defer func() { _ = log.Sync() }()

	conn, err := mongostore.NewConnection(ctx, mongostore.Config{
		URI:                cfg.Mongo.URI,
		Database:           cfg.Mongo.Database,
		StudentsCollection: cfg.Mongo.StudentsCollection,
		SubjectsCollection: cfg.Mongo.SubjectsCollection,
		ConnectTimeout:     cfg.Mongo.ConnectTimeout,
		MaxPoolSize:        cfg.Mongo.MaxPoolSize,
		MinPoolSize:        cfg.Mongo.MinPoolSize,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if err := conn.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	students := mongostore.NewStudentRepository(conn)
	subjects := mongostore.NewSubjectRepository(conn)

	importer := spreadsheet.NewImporter(
		command.NewAddStudentHandler(students, log),
		command.NewAddSubjectHandler(subjects, log),
		command.NewAddMarkHandler(students, subjects, log),
		log,
	)

	report, err := importer.ImportFile(ctx, path)
	if err != nil {
		return err
	}

	for _, f := range report.Failures {
		fmt.Fprintln(os.Stderr, f.Error())
	}
	fmt.Printf("imported %d rows (%d students, %d subjects, %d marks), %d rejected\n",
		report.Imported(), report.Students, report.Subjects, report.Marks, len(report.Failures))
	return nil
}
