package main

import (
	"context"
	"log"

	"ai-helpdesk-be/internal/config"
	"ai-helpdesk-be/internal/mapper"
	"ai-helpdesk-be/internal/repository/unitofwork"
	"ai-helpdesk-be/pkg/database"
	"ai-helpdesk-be/pkg/knowledge"
)

// Seeds the knowledge store with the records the keyword retriever serves, so switching
// RETRIEVAL_PROVIDER to "store" keeps the same answers.
func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	m := mapper.NewKnowledgeMapper()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer uow.Rollback()

	for _, r := range knowledge.FixedRecords() {
		record, err := m.FromRecord(r)
		if err != nil {
			log.Fatalf("Error: invalid record %s: %v", r.DocID, err)
		}
		record.Keywords = knowledge.TriggerKeywords
		if err := uow.KnowledgeRecordRepository().Upsert(ctx, record); err != nil {
			log.Fatalf("Error: failed to upsert %s: %v", r.DocID, err)
		}
		log.Printf("Seeded %s", r.DocID)
	}

	if err := uow.Commit(); err != nil {
		log.Fatalf("Error: commit failed: %v", err)
	}
	log.Println("Success: Knowledge records seeded.")
}
