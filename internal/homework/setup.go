package homework

import (
	"log"

	"github.com/StudyCore/studycore/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "classroom"); err != nil {
		log.Fatal("Failed to create classroom schema: ", err)
	}

	if err := db.DB.AutoMigrate(&Homework{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
