// services/scheduler.go
package services

import (
	"log"
	"time"

	"match-board-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartLockScheduler sweeps for matches whose start time has passed
// without a lock notice yet and tells their subscribers. The notified
// stamp makes the sweep idempotent across restarts.
func (s *MatchService) StartLockScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: notify subscribers of newly locked matches
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()
			matches, err := s.Store.ListMatchesLockedUnnotified(now)
			if err != nil {
				log.Printf("[Scheduler] store error: %v", err)
				return
			}

			for _, m := range matches {
				subs, err := s.Store.ListSubscriptions(m.ID)
				if err != nil {
					log.Printf("[Scheduler] Failed to list subscribers for match %s: %v", m.ID, err)
					continue
				}
				for _, sub := range subs {
					s.Notifier.Emit(sub.PlayerID, models.NotifyMatchLocked,
						"Match \""+m.Name+"\" is now locked. Attendance will be taken.", &m.ID)
				}
				if err := s.Store.StampLockNotified(m.ID, now); err != nil {
					log.Printf("[Scheduler] Failed to stamp match %s: %v", m.ID, err)
				} else {
					log.Printf("✅ Sent lock notices for match: %s", m.Name)
				}
			}
		}),
	)
}
