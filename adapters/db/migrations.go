package db

import (
	_ "embed"
	"fmt"
)

//go:embed migrations/01_create_users.up.sql
var createUsersUp string

//go:embed migrations/02_create_projects.up.sql
var createProjectsUp string

//go:embed migrations/03_create_tasks.up.sql
var createTasksUp string

//go:embed migrations/04_create_activities.up.sql
var createActivitiesUp string

//go:embed migrations/05_create_notifications.up.sql
var createNotificationsUp string

// Migrate applies the schema in dependency order.
func (db *DB) Migrate() error {
	db.log.Debug("running trackerDB migrations")

	steps := []struct {
		name string
		sql  string
	}{
		{"users", createUsersUp},
		{"projects", createProjectsUp},
		{"tasks", createTasksUp},
		{"activities", createActivitiesUp},
		{"notifications", createNotificationsUp},
	}
	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("apply %s migration: %w", step.name, err)
		}
	}

	db.log.Debug("trackerDB migrations finished")
	return nil
}
