package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tomellm/data-communicator/cache"
	"github.com/tomellm/data-communicator/cache/storage/memstore"
)

type task struct {
	ID   uuid.UUID
	Name string
	Done bool
}

func (t task) GetKey() uuid.UUID { return t.ID }

func main() {
	if err := cache.SetLogLevel("info"); err != nil {
		log.Fatalf("invalid log level: %s", err)
	}

	store := memstore.New[uuid.UUID, task]()
	container := cache.NewContainer[uuid.UUID, task](context.Background(), store)

	board := container.Communicator()
	board.QueryAll()

	worker := container.Communicator()
	worker.Insert(task{ID: uuid.New(), Name: "write proposal"})

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		container.Step()
		board.Step()
		worker.Step()

		if board.HasChanged() {
			log.Infof("board now holds %d task(s)", board.Len())
			board.MarkViewed()
		}
		if board.Len() > 0 {
			break
		}
	}
}
