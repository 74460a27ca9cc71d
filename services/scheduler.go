// services/scheduler.go
package services

import (
	"log"
	"os"
	"strconv"
	"time"

	"studyjam-tracker/models"

	"github.com/go-co-op/gocron/v2"
)

// StartRetentionScheduler prunes local raw-CSV archive copies once they are
// safely in R2 and older than ARCHIVE_RETENTION_DAYS (default 30). The R2
// object and the upload provenance row are never touched.
func (s *RosterService) StartRetentionScheduler() {
	retentionDays := 30
	if v := os.Getenv("ARCHIVE_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			retentionDays = n
		}
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Daily: drop local copies that have been pushed and aged out
	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			var uploads []models.CsvUpload
			err := s.DB.Where("archive_path <> '' AND archive_url <> '' AND upload_date < ?", cutoff).
				Find(&uploads).Error
			if err != nil {
				log.Printf("[Retention] DB error: %v", err)
				return
			}

			for _, u := range uploads {
				if err := os.Remove(u.ArchivePath); err != nil && !os.IsNotExist(err) {
					log.Printf("[Retention] Failed to remove %s: %v", u.ArchivePath, err)
					continue
				}
				if err := s.DB.Model(&u).Update("archive_path", "").Error; err != nil {
					log.Printf("[Retention] Failed to clear archive path for upload %s: %v", u.ID, err)
				} else {
					log.Printf("🧹 Pruned local archive for upload %s (%s)", u.ID, u.Filename)
				}
			}
		}),
	)
}
