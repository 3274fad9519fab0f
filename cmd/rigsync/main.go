package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/roffe/rigsync/cmd/rigsync/cmd"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel() // Setup interupt handler for ctrl-c
	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, os.Interrupt)
	go func() {
		s := <-quitChan
		log.Info("exiting", "signal", s)
		cancel()
		// Failsafe if there is deadlocks
		<-time.After(45 * time.Second)
		log.Fatal("took to long to shutdown, forcefully exiting")
	}()
	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
