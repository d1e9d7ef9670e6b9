package attendance

import (
	"log"

	"github.com/StudyCore/studycore/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "journal"); err != nil {
		log.Fatal("Failed to create journal schema: ", err)
	}

	if err := db.DB.AutoMigrate(&Log{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
