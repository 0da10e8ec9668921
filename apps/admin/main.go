package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hsuniversity/classroom/core"
	logsvc "github.com/hsuniversity/classroom/services/logger"
	mongodb "github.com/hsuniversity/classroom/storage/database/mongo"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Mongo.ConnectTimeout)
	db, err := mongodb.Open(ctx, conf)
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		usrRepo: mongodb.NewUserRepository(db),
		db:      db,
	}
	err = cli.run(os.Args)
	_ = db.Close(context.Background())
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		os.Exit(1)
	}
}
