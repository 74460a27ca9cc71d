package workers

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"studyjam-tracker/models"
	"studyjam-tracker/utils"

	"gorm.io/gorm"
)

// ArchiveSyncClient pushes locally archived roster files to R2 so raw-export
// provenance survives the local disk. Ingestion never blocks on this.
type ArchiveSyncClient struct {
	DB *gorm.DB
}

func NewArchiveSyncClient(db *gorm.DB) *ArchiveSyncClient {
	return &ArchiveSyncClient{DB: db}
}

// PendingUploads returns uploads with a local archive copy that has not been
// pushed yet.
func (c *ArchiveSyncClient) PendingUploads() ([]models.CsvUpload, error) {
	var uploads []models.CsvUpload
	err := c.DB.Where("archive_path <> '' AND archive_url = ''").
		Order("upload_date ASC").
		Find(&uploads).Error
	return uploads, err
}

// PushUpload uploads one archived file and stamps the provenance row.
func (c *ArchiveSyncClient) PushUpload(upload *models.CsvUpload) error {
	data, err := os.ReadFile(upload.ArchivePath)
	if err != nil {
		return err
	}

	key := "rosters/" + filepath.Base(upload.ArchivePath)
	url, err := utils.UploadBytesToR2(key, data, "text/csv")
	if err != nil {
		return err
	}

	now := time.Now()
	return c.DB.Model(upload).Updates(map[string]interface{}{
		"archive_url": url,
		"archived_at": &now,
	}).Error
}

// PollArchives runs the background push loop until ctx is cancelled.
func PollArchives(ctx context.Context, client *ArchiveSyncClient, pollInterval time.Duration) {
	log.Println("Starting roster archive sync (local → R2)...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Roster archive sync stopped.")
			return
		case <-ticker.C:
			uploads, err := client.PendingUploads()
			if err != nil {
				log.Printf("❌ Error listing pending archives: %v", err)
				continue
			}
			if len(uploads) == 0 {
				continue
			}

			log.Printf("📤 Pushing %d archived roster file(s) to R2...", len(uploads))
			for i := range uploads {
				if err := client.PushUpload(&uploads[i]); err != nil {
					// Leave archive_url empty — retried next tick
					log.Printf("⚠️ Failed to push archive for upload %s (%s): %v",
						uploads[i].ID, uploads[i].Filename, err)
					continue
				}
				log.Printf("✅ Archived %s to R2", uploads[i].Filename)
			}
		}
	}
}
