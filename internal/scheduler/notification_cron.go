package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CleanupSchedule runs the expired notification sweep daily at midnight.
const CleanupSchedule = "0 0 * * *"

const jobTimeout = time.Minute

// NotificationCleaner deletes notifications past their expiry.
type NotificationCleaner interface {
	DeleteExpiredNotifications(ctx context.Context) error
}

// StartNotificationCronJobs schedules the notification jobs and starts the scheduler.
// Callers stop it with Stop on shutdown.
func StartNotificationCronJobs(cleaner NotificationCleaner) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(CleanupSchedule, func() { runCleanup(cleaner) }); err != nil {
		return nil, err
	}

	c.Start()
	logrus.WithField("schedule", CleanupSchedule).Info("Notification cleanup scheduled")
	return c, nil
}

func runCleanup(cleaner NotificationCleaner) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := cleaner.DeleteExpiredNotifications(ctx); err != nil {
		logrus.WithError(err).Error("DeleteExpiredNotifications failed")
	}
}
