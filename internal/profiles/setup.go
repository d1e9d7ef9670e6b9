package profiles

import (
	"log"

	"github.com/StudyCore/studycore/internal/db"
	"github.com/StudyCore/studycore/internal/models"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "app_auth"); err != nil {
		log.Fatal("Failed to create app_auth schema: ", err)
	}

	if err := db.DB.AutoMigrate(&models.Profile{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
